package model

import (
	"time"

	"case-board.com/case-board/pkg/constants"
)

// Task is the typed record behind a board card. Upstream payloads are coerced
// into this shape at the client boundary.
type Task struct {
	ID                string               `gorm:"primaryKey;size:36" json:"id"`
	Title             string               `gorm:"not null" json:"title"`
	Description       string               `json:"description"`
	CaseRef           string               `gorm:"column:case_ref" json:"case"`
	Assignee          string               `json:"assignee"`
	TaskedBy          string               `json:"tasked_by,omitempty"`
	DueDate           *time.Time           `json:"due_date,omitempty"`
	CompletionDate    *time.Time           `json:"completion_date,omitempty"`
	Status            constants.TaskStatus `gorm:"type:varchar(20);not null" json:"status"`
	AttachmentPath    string               `json:"attachment_path,omitempty"`
	PasswordProtected bool                 `json:"password_protected"`
	Version           uint                 `gorm:"not null;default:1" json:"-"`
	CreatedAt         time.Time            `json:"created_at"`
}

// BoardTask is a Task annotated with its derived priority. Priority is
// recomputed on every read and is never written back.
type BoardTask struct {
	Task
	Priority      constants.Priority `json:"priority,omitempty"`
	DaysRemaining *int               `json:"days_remaining,omitempty"`
	NoDate        bool               `json:"no_date,omitempty"`
}

// Move is the message a drag-and-drop gesture produces.
type Move struct {
	TaskID       string               `json:"taskId"`
	TargetColumn constants.TaskStatus `json:"targetColumn"`
}

// TaskDraft is the pre-filled state of the task creation form.
type TaskDraft struct {
	Title    string             `json:"title"`
	CaseRef  string             `json:"case,omitempty"`
	Assignee string             `json:"assignee,omitempty"`
	Priority constants.Priority `json:"priority"`
	DueDate  time.Time          `json:"due_date"`
	TaskedBy string             `json:"tasked_by"`
}
