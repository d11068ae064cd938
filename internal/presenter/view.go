package presenter

import (
	"sync"

	"case-board.com/case-board/pkg/constants"
	model "case-board.com/case-board/pkg/models"
)

// View holds the filter and page a session is looking at.
type View struct {
	mu       sync.Mutex
	filter   constants.PriorityFilter
	page     int
	pageSize int
}

func NewView(pageSize int) *View {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &View{filter: constants.FilterAll, page: 1, pageSize: pageSize}
}

// SetFilter changes the filter and reports whether it changed. A change
// always resets the current page to 1.
func (v *View) SetFilter(f constants.PriorityFilter) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	if f == "" {
		f = constants.FilterAll
	}
	if f == v.filter {
		return false
	}
	v.filter = f
	v.page = 1
	return true
}

func (v *View) SetPage(page int) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if page < 1 {
		page = 1
	}
	v.page = page
}

func (v *View) State() (constants.PriorityFilter, int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.filter, v.page
}

// Render presents tasks with the current state and stores the clamped page.
func (v *View) Render(tasks []model.BoardTask) Page {
	v.mu.Lock()
	defer v.mu.Unlock()

	p := Present(tasks, v.filter, v.page, v.pageSize)
	v.page = p.Page
	return p
}
