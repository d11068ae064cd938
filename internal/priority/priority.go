// Package priority derives a task's urgency tier from its due date and maps a
// requested tier back to a due date when a task is drafted.
//
// The two directions share the same boundaries: a task whose due date was
// auto-filled for a tier derives back to that tier on the day it was drafted.
package priority

import (
	"math"
	"time"

	"case-board.com/case-board/pkg/constants"
	model "case-board.com/case-board/pkg/models"
)

const (
	highMaxDays = 2
	midMaxDays  = 5
)

// Due-date offsets applied by AutoFillDueDate.
const (
	HighOffsetDays = 2
	MidOffsetDays  = 5
	LowOffsetDays  = 14
)

// DaysRemaining returns ceil((due - now) / 24h). Overdue dates are negative.
func DaysRemaining(due, now time.Time) int {
	return int(math.Ceil(due.Sub(now).Hours() / 24))
}

// Derive maps a due date and status to a tier. Completed tasks have no
// priority. A missing due date is treated as Low; callers flag it separately.
func Derive(due *time.Time, status constants.TaskStatus, now time.Time) constants.Priority {
	if status == constants.StatusCompleted {
		return constants.PriorityNone
	}
	if due == nil {
		return constants.PriorityLow
	}
	return forDays(DaysRemaining(*due, now))
}

func forDays(days int) constants.Priority {
	switch {
	case days <= highMaxDays:
		return constants.PriorityHigh
	case days <= midMaxDays:
		return constants.PriorityMid
	default:
		return constants.PriorityLow
	}
}

// Annotate attaches the derived priority to a task.
func Annotate(task model.Task, now time.Time) model.BoardTask {
	bt := model.BoardTask{
		Task:     task,
		Priority: Derive(task.DueDate, task.Status, now),
		NoDate:   task.DueDate == nil,
	}
	if task.DueDate != nil {
		days := DaysRemaining(*task.DueDate, now)
		bt.DaysRemaining = &days
	}
	return bt
}

func AnnotateAll(tasks []model.Task, now time.Time) []model.BoardTask {
	out := make([]model.BoardTask, len(tasks))
	for i, t := range tasks {
		out[i] = Annotate(t, now)
	}
	return out
}

// AutoFillDueDate returns the calendar date a task drafted at now with the
// requested tier should be due on.
func AutoFillDueDate(p constants.Priority, now time.Time) (time.Time, error) {
	var offset int
	switch p {
	case constants.PriorityHigh:
		offset = HighOffsetDays
	case constants.PriorityMid:
		offset = MidOffsetDays
	case constants.PriorityLow:
		offset = LowOffsetDays
	default:
		return time.Time{}, constants.ErrUnknownPriority
	}
	y, m, d := now.Date()
	return time.Date(y, m, d+offset, 0, 0, 0, 0, now.Location()), nil
}
