package constants

import (
	"errors"
	"strings"
)

type TaskStatus string

const (
	StatusToDo       TaskStatus = "todo"
	StatusInProgress TaskStatus = "in_progress"
	StatusCompleted  TaskStatus = "completed"
)

var ErrUnknownStatus = errors.New("unknown task status")

// Statuses lists the board columns in display order.
var Statuses = []TaskStatus{StatusToDo, StatusInProgress, StatusCompleted}

var statusAliases = map[string]TaskStatus{
	"todo":       StatusToDo,
	"pending":    StatusToDo,
	"open":       StatusToDo,
	"inprogress": StatusInProgress,
	"ongoing":    StatusInProgress,
	"doing":      StatusInProgress,
	"completed":  StatusCompleted,
	"complete":   StatusCompleted,
	"done":       StatusCompleted,
}

// ParseStatus normalizes the status names used by the different task views
// ("ToDo", "To Do", "In Progress", "in_progress", "Done", ...).
func ParseStatus(s string) (TaskStatus, error) {
	key := strings.ToLower(s)
	key = strings.NewReplacer(" ", "", "_", "", "-", "").Replace(key)
	if st, ok := statusAliases[key]; ok {
		return st, nil
	}
	return "", ErrUnknownStatus
}

func (s TaskStatus) Valid() bool {
	switch s {
	case StatusToDo, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}
