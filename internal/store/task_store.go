// Package store holds the in-memory task list of one board session.
package store

import (
	"context"
	"sync"
	"time"

	apperrors "case-board.com/case-board/internal/errors"
	model "case-board.com/case-board/pkg/models"
)

// TaskLoader fetches the authoritative task list.
type TaskLoader interface {
	ListTasks(ctx context.Context) ([]model.Task, error)
}

// TaskStore is owned by a single session. Every mutation bumps the task's
// revision so a later rollback can tell whether it is still the latest write.
// Besides the displayed value the store keeps the last value the server is
// known to hold for each task, which is what a rollback returns to.
type TaskStore struct {
	mu        sync.RWMutex
	tasks     []model.Task
	index     map[string]int
	revisions map[string]uint64
	confirmed map[string]model.Task
	// rolledBack marks tasks whose latest write was a rollback; they follow
	// the confirmed value until the next move.
	rolledBack map[string]bool
	loadedAt   time.Time
}

func NewTaskStore() *TaskStore {
	return &TaskStore{
		index:      make(map[string]int),
		revisions:  make(map[string]uint64),
		confirmed:  make(map[string]model.Task),
		rolledBack: make(map[string]bool),
	}
}

// Load replaces the store's contents with the loader's result. On error the
// current contents are kept.
func (s *TaskStore) Load(ctx context.Context, loader TaskLoader) error {
	tasks, err := loader.ListTasks(ctx)
	if err != nil {
		return err
	}
	s.Replace(tasks)
	return nil
}

func (s *TaskStore) Replace(tasks []model.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tasks = make([]model.Task, len(tasks))
	copy(s.tasks, tasks)
	s.index = make(map[string]int, len(tasks))
	s.confirmed = make(map[string]model.Task, len(tasks))
	s.rolledBack = make(map[string]bool)
	for i, t := range s.tasks {
		s.index[t.ID] = i
		s.confirmed[t.ID] = t
		s.revisions[t.ID]++
	}
	s.loadedAt = time.Now()
}

// Snapshot returns a copy of the tasks in server order.
func (s *TaskStore) Snapshot() []model.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Task, len(s.tasks))
	copy(out, s.tasks)
	return out
}

func (s *TaskStore) Get(id string) (model.Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.index[id]
	if !ok {
		return model.Task{}, false
	}
	return s.tasks[i], true
}

func (s *TaskStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tasks)
}

func (s *TaskStore) LoadedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadedAt
}

// Mutate applies fn to the task under the write lock. It returns the value
// before the change and the revision after it. If fn returns false the task
// is left untouched and the revision is unchanged.
func (s *TaskStore) Mutate(id string, fn func(t *model.Task) bool) (prev model.Task, rev uint64, changed bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[id]
	if !ok {
		return model.Task{}, 0, false, apperrors.ErrTaskNotFound
	}

	prev = s.tasks[i]
	next := prev
	if !fn(&next) {
		return prev, s.revisions[id], false, nil
	}
	s.tasks[i] = next
	s.revisions[id]++
	delete(s.rolledBack, id)
	return prev, s.revisions[id], true, nil
}

// Confirm records that the server accepted a change to the task. The
// displayed value only follows when the task was rolled back since its last
// move, i.e. a later move was rejected before this one was accepted.
func (s *TaskStore) Confirm(id string, fn func(t *model.Task)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.confirmed[id]
	if !ok {
		return
	}
	fn(&t)
	s.confirmed[id] = t

	if i, shown := s.index[id]; shown && s.rolledBack[id] {
		s.tasks[i] = t
		s.revisions[id]++
	}
}

// Confirmed returns the last value the server is known to hold.
func (s *TaskStore) Confirmed(id string) (model.Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.confirmed[id]
	return t, ok
}

// Rollback shows the last confirmed value again, but only if nothing has
// written the task since rev. A refused rollback leaves the task to whichever
// later write superseded it; that write settles the task when it resolves.
func (s *TaskStore) Rollback(id string, rev uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[id]
	if !ok || s.revisions[id] != rev {
		return false
	}
	s.tasks[i] = s.confirmed[id]
	s.revisions[id]++
	s.rolledBack[id] = true
	return true
}
