package validators

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	dto "case-board.com/case-board/internal/data_models"
	"case-board.com/case-board/pkg/constants"
	model "case-board.com/case-board/pkg/models"
)

const dateLayout = "2006-01-02"

func ValidateCreateTaskRequest(r *dto.CreateTaskRequest) (model.Task, error) {
	title := strings.TrimSpace(r.Title)
	if title == "" {
		return model.Task{}, echo.NewHTTPError(http.StatusBadRequest, "title is required")
	}

	task := model.Task{
		Title:       title,
		Description: r.Description,
		CaseRef:     r.Case,
		Assignee:    r.Assignee,
		TaskedBy:    r.TaskedBy,
		Status:      constants.StatusToDo,
	}

	if r.Status != "" {
		status, err := constants.ParseStatus(r.Status)
		if err != nil {
			return model.Task{}, echo.NewHTTPError(http.StatusBadRequest, "status must be one of todo, in_progress, completed")
		}
		task.Status = status
	}

	if r.DueDate != "" {
		due, err := time.Parse(dateLayout, r.DueDate)
		if err != nil {
			return model.Task{}, echo.NewHTTPError(http.StatusBadRequest, "due_date must be formatted as YYYY-MM-DD")
		}
		task.DueDate = &due
	}

	return task, nil
}

func ValidateUpdateTaskRequest(r *dto.UpdateTaskRequest) (constants.TaskStatus, error) {
	if r.Status == "" {
		return "", echo.NewHTTPError(http.StatusBadRequest, "status is required")
	}
	status, err := constants.ParseStatus(r.Status)
	if err != nil {
		return "", echo.NewHTTPError(http.StatusBadRequest, "status must be one of todo, in_progress, completed")
	}
	return status, nil
}
