package board

import (
	"testing"
	"time"

	"case-board.com/case-board/pkg/constants"
	model "case-board.com/case-board/pkg/models"
)

func day(d int) *time.Time {
	t := time.Date(2026, time.October, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestColumns(t *testing.T) {
	tasks := []model.Task{
		{ID: "late", Status: constants.StatusToDo, DueDate: day(30)},
		{ID: "soon", Status: constants.StatusToDo, DueDate: day(17)},
		{ID: "wip", Status: constants.StatusInProgress, DueDate: day(20)},
		{ID: "done", Status: constants.StatusCompleted, DueDate: day(17)},
	}

	cols := Columns(tasks, now)

	if len(cols) != 3 {
		t.Fatalf("expected 3 columns, got %d", len(cols))
	}
	todo := cols[0]
	if todo.Status != constants.StatusToDo || len(todo.Tasks) != 2 {
		t.Fatalf("unexpected todo column: %+v", todo)
	}
	if todo.Tasks[0].ID != "soon" || todo.Tasks[0].Priority != constants.PriorityHigh {
		t.Errorf("expected the high priority card first, got %+v", todo.Tasks[0])
	}
	if cols[1].Tasks[0].Priority != constants.PriorityMid {
		t.Errorf("expected mid priority, got %s", cols[1].Tasks[0].Priority)
	}
	if cols[2].Tasks[0].Priority != constants.PriorityNone {
		t.Errorf("completed cards carry no priority, got %s", cols[2].Tasks[0].Priority)
	}
}

func TestColumns_EmptyColumnsAreNotNil(t *testing.T) {
	for _, col := range Columns(nil, now) {
		if col.Tasks == nil {
			t.Errorf("column %s has nil tasks", col.Status)
		}
	}
}

func TestNewDraft(t *testing.T) {
	user := model.SessionUser{ID: "u-7", Name: "A. Counsel"}

	draft, err := NewDraft(user, "  Prepare exhibits ", constants.PriorityMid, now)
	if err != nil {
		t.Fatalf("draft: %v", err)
	}
	if draft.TaskedBy != "u-7" || draft.Title != "Prepare exhibits" {
		t.Errorf("unexpected draft: %+v", draft)
	}
	if !draft.DueDate.Equal(*day(21)) {
		t.Errorf("expected due date Oct 21, got %s", draft.DueDate)
	}

	if _, err := NewDraft(user, "x", constants.PriorityNone, now); err == nil {
		t.Error("expected an error without a priority")
	}
}
