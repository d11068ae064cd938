// Package presenter projects an annotated task snapshot into the ordered,
// filtered and paged slice a table or card view renders.
package presenter

import (
	"sort"

	"case-board.com/case-board/pkg/constants"
	model "case-board.com/case-board/pkg/models"
)

const DefaultPageSize = 10

type Page struct {
	Items      []model.BoardTask        `json:"items"`
	Filter     constants.PriorityFilter `json:"filter"`
	Page       int                      `json:"page"`
	PageSize   int                      `json:"pageSize"`
	TotalItems int                      `json:"totalItems"`
	TotalPages int                      `json:"totalPages"`
}

// Sort orders tasks by priority rank, then due date ascending. Tasks without
// a priority or without a due date go last. The input is not modified.
func Sort(tasks []model.BoardTask) []model.BoardTask {
	out := make([]model.BoardTask, len(tasks))
	copy(out, tasks)
	sort.SliceStable(out, func(i, j int) bool {
		ri, rj := out[i].Priority.Rank(), out[j].Priority.Rank()
		if ri != rj {
			return ri < rj
		}
		di, dj := out[i].DueDate, out[j].DueDate
		switch {
		case di == nil && dj == nil:
			return false
		case di == nil:
			return false
		case dj == nil:
			return true
		}
		return di.Before(*dj)
	})
	return out
}

func Filter(tasks []model.BoardTask, f constants.PriorityFilter) []model.BoardTask {
	if f == constants.FilterAll || f == "" {
		return tasks
	}
	out := make([]model.BoardTask, 0, len(tasks))
	for _, t := range tasks {
		if f.Matches(t.Priority) {
			out = append(out, t)
		}
	}
	return out
}

// Present filters, sorts and pages tasks. A page past the end is clamped to
// the last page; an empty result still reports page 1.
func Present(tasks []model.BoardTask, f constants.PriorityFilter, page, pageSize int) Page {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if f == "" {
		f = constants.FilterAll
	}
	sorted := Sort(Filter(tasks, f))

	total := len(sorted)
	totalPages := (total + pageSize - 1) / pageSize
	if totalPages == 0 {
		totalPages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}

	start := (page - 1) * pageSize
	end := start + pageSize
	if end > total {
		end = total
	}

	return Page{
		Items:      sorted[start:end],
		Filter:     f,
		Page:       page,
		PageSize:   pageSize,
		TotalItems: total,
		TotalPages: totalPages,
	}
}
