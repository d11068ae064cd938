package board

import (
	"strings"
	"time"

	"case-board.com/case-board/internal/priority"
	"case-board.com/case-board/pkg/constants"
	model "case-board.com/case-board/pkg/models"
)

// NewDraft pre-fills the task creation form: the due date follows the
// requested priority and the session user is recorded as the tasker.
func NewDraft(user model.SessionUser, title string, p constants.Priority, now time.Time) (model.TaskDraft, error) {
	due, err := priority.AutoFillDueDate(p, now)
	if err != nil {
		return model.TaskDraft{}, err
	}
	return model.TaskDraft{
		Title:    strings.TrimSpace(title),
		Priority: p,
		DueDate:  due,
		TaskedBy: user.ID,
	}, nil
}
