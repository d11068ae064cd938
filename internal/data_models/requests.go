package dto

// CreateTaskRequest is the body of POST /tasks on the development case API.
type CreateTaskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Case        string `json:"case"`
	Assignee    string `json:"assignee"`
	TaskedBy    string `json:"tasked_by"`
	DueDate     string `json:"due_date"`
	Status      string `json:"status"`
}

type UpdateTaskRequest struct {
	Status string `json:"status"`
}

// MoveRequest is a drag-and-drop gesture posted to the board service.
type MoveRequest struct {
	TaskID       string `json:"taskId"`
	TargetColumn string `json:"targetColumn"`
}

type DraftRequest struct {
	Title    string `json:"title"`
	Priority string `json:"priority"`
}
