package board

import (
	"time"

	"case-board.com/case-board/internal/presenter"
	"case-board.com/case-board/internal/priority"
	"case-board.com/case-board/pkg/constants"
	model "case-board.com/case-board/pkg/models"
)

type Column struct {
	Status constants.TaskStatus `json:"status"`
	Title  string               `json:"title"`
	Tasks  []model.BoardTask    `json:"tasks"`
}

// Columns groups a snapshot into board columns. Priorities are derived from
// now on every call; cards within a column follow the list order.
func Columns(tasks []model.Task, now time.Time) []Column {
	byStatus := make(map[constants.TaskStatus][]model.BoardTask, len(constants.Statuses))
	for _, bt := range presenter.Sort(priority.AnnotateAll(tasks, now)) {
		byStatus[bt.Status] = append(byStatus[bt.Status], bt)
	}

	cols := make([]Column, 0, len(constants.Statuses))
	for _, st := range constants.Statuses {
		cards := byStatus[st]
		if cards == nil {
			cards = []model.BoardTask{}
		}
		cols = append(cols, Column{Status: st, Title: columnTitle(st), Tasks: cards})
	}
	return cols
}
