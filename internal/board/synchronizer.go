// Package board moves tasks between board columns. A move is applied to the
// session's store immediately and confirmed with the case API afterwards.
package board

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	apperrors "case-board.com/case-board/internal/errors"
	"case-board.com/case-board/internal/notify"
	"case-board.com/case-board/internal/store"
	"case-board.com/case-board/pkg/constants"
	model "case-board.com/case-board/pkg/models"
)

type StatusUpdater interface {
	UpdateStatus(ctx context.Context, id string, status constants.TaskStatus) error
}

// API is the part of the case API the synchronizer needs.
type API interface {
	store.TaskLoader
	StatusUpdater
}

// Journal records moves. Journal failures are logged and never affect the
// move itself.
type Journal interface {
	Create(ctx context.Context, sessionID, taskID string, from, to constants.TaskStatus) (*model.MoveRecord, error)
	Resolve(ctx context.Context, rec *model.MoveRecord, outcome model.MoveOutcome, cause error) error
}

// ReconcilePolicy decides what happens to the local state when the server
// rejects a move.
type ReconcilePolicy string

const (
	// ReconcileRollback restores the last status the server accepted.
	ReconcileRollback ReconcilePolicy = "rollback"
	// ReconcileRefetch reloads the whole task list from the server.
	ReconcileRefetch ReconcilePolicy = "refetch"
	// ReconcileKeep leaves the unconfirmed status in place.
	ReconcileKeep ReconcilePolicy = "keep"
)

func ParseReconcilePolicy(s string) (ReconcilePolicy, error) {
	switch p := ReconcilePolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case ReconcileRollback, ReconcileRefetch, ReconcileKeep:
		return p, nil
	case "":
		return ReconcileRollback, nil
	}
	return "", fmt.Errorf("unknown reconcile policy %q", s)
}

type Options struct {
	SessionID   string
	Policy      ReconcilePolicy
	AllowReopen bool
	Journal     Journal
	Notifier    notify.Notifier
	Now         func() time.Time
	Log         *log.Entry
}

type Synchronizer struct {
	store    *store.TaskStore
	api      API
	opts     Options
	mu       sync.Mutex
	closed   bool
	inflight sync.WaitGroup
}

func NewSynchronizer(st *store.TaskStore, api API, opts Options) *Synchronizer {
	if opts.Policy == "" {
		opts.Policy = ReconcileRollback
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Log == nil {
		opts.Log = log.WithField("component", "board")
	}
	if opts.Notifier == nil {
		opts.Notifier = notify.LogNotifier{Log: opts.Log}
	}
	return &Synchronizer{store: st, api: api, opts: opts}
}

// Pending tracks the server confirmation of one move.
type Pending struct {
	Move model.Move
	From constants.TaskStatus

	done    chan struct{}
	outcome model.MoveOutcome
	err     error
}

func newPending(move model.Move, from constants.TaskStatus) *Pending {
	return &Pending{Move: move, From: from, done: make(chan struct{})}
}

func (p *Pending) resolve(outcome model.MoveOutcome, err error) {
	p.outcome = outcome
	p.err = err
	close(p.done)
}

func (p *Pending) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until the server answered. The error is the update failure, if
// any; the outcome says what the local state did about it.
func (p *Pending) Wait(ctx context.Context) (model.MoveOutcome, error) {
	select {
	case <-p.done:
		return p.outcome, p.err
	case <-ctx.Done():
		return model.OutcomePending, ctx.Err()
	}
}

// MoveTask applies move to the store before returning and sends the update
// in the background. Dropping a card on its own column is a no-op.
//
// The update is not tied to ctx's cancellation: leaving the board does not
// abort a move that is already on its way.
func (s *Synchronizer) MoveTask(ctx context.Context, move model.Move) (*Pending, error) {
	if move.TaskID == "" {
		return nil, apperrors.ErrTaskIDRequired
	}
	if !move.TargetColumn.Valid() {
		return nil, apperrors.ErrInvalidStatus
	}

	// Registered before the store is touched so Shutdown never starts
	// waiting while a move can still be added.
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, apperrors.ErrSessionClosed
	}
	s.inflight.Add(1)
	s.mu.Unlock()

	reopenDenied := false
	now := s.opts.Now()
	prev, rev, changed, err := s.store.Mutate(move.TaskID, func(t *model.Task) bool {
		if t.Status == move.TargetColumn {
			return false
		}
		if t.Status == constants.StatusCompleted && !s.opts.AllowReopen {
			reopenDenied = true
			return false
		}
		applyStatus(t, move.TargetColumn, now)
		return true
	})
	if err != nil {
		s.inflight.Done()
		return nil, err
	}
	if reopenDenied {
		s.inflight.Done()
		return nil, apperrors.ErrReopenNotAllowed
	}

	p := newPending(move, prev.Status)
	if !changed {
		s.inflight.Done()
		p.resolve(model.OutcomeNoop, nil)
		return p, nil
	}

	go s.confirm(context.WithoutCancel(ctx), p, rev)

	return p, nil
}

func (s *Synchronizer) confirm(ctx context.Context, p *Pending, rev uint64) {
	defer s.inflight.Done()

	entry := s.opts.Log.WithFields(log.Fields{"task": p.Move.TaskID, "from": p.From, "to": p.Move.TargetColumn})
	rec := s.journalCreate(ctx, entry, p)

	err := s.api.UpdateStatus(ctx, p.Move.TaskID, p.Move.TargetColumn)

	var outcome model.MoveOutcome
	if err == nil {
		outcome = model.OutcomeConfirmed
		now := s.opts.Now()
		s.store.Confirm(p.Move.TaskID, func(t *model.Task) { applyStatus(t, p.Move.TargetColumn, now) })
		entry.Debug("move confirmed")
		s.notify(ctx, notify.LevelSuccess, p.Move.TaskID, fmt.Sprintf("Task moved to %s", columnTitle(p.Move.TargetColumn)))
	} else {
		outcome = s.reconcile(ctx, entry, p.Move.TaskID, rev)
		entry.WithError(err).WithField("outcome", outcome).Warn("move rejected")
		s.notify(ctx, notify.LevelError, p.Move.TaskID, "Failed to update task status: "+apperrors.Message(err))
	}

	s.journalResolve(ctx, entry, rec, outcome, err)
	p.resolve(outcome, err)
}

// reconcile settles the local state after a rejected move. Rollback returns
// to the last status the server accepted rather than the status the move
// started from, which may itself be an unconfirmed move.
func (s *Synchronizer) reconcile(ctx context.Context, entry *log.Entry, id string, rev uint64) model.MoveOutcome {
	switch s.opts.Policy {
	case ReconcileKeep:
		return model.OutcomeUnconfirmed
	case ReconcileRefetch:
		err := s.store.Load(ctx, s.api)
		if err == nil {
			return model.OutcomeReconciled
		}
		entry.WithError(err).Warn("refetch after rejected move failed, rolling back")
	}

	if s.store.Rollback(id, rev) {
		return model.OutcomeRolledBack
	}
	// A later move or reload already replaced the optimistic value.
	return model.OutcomeUnconfirmed
}

func (s *Synchronizer) journalCreate(ctx context.Context, entry *log.Entry, p *Pending) *model.MoveRecord {
	if s.opts.Journal == nil {
		return nil
	}
	rec, err := s.opts.Journal.Create(ctx, s.opts.SessionID, p.Move.TaskID, p.From, p.Move.TargetColumn)
	if err != nil {
		entry.WithError(err).Warn("failed to journal move")
		return nil
	}
	return rec
}

func (s *Synchronizer) journalResolve(ctx context.Context, entry *log.Entry, rec *model.MoveRecord, outcome model.MoveOutcome, cause error) {
	if s.opts.Journal == nil || rec == nil {
		return
	}
	if err := s.opts.Journal.Resolve(ctx, rec, outcome, cause); err != nil {
		entry.WithError(err).Warn("failed to journal move outcome")
	}
}

func (s *Synchronizer) notify(ctx context.Context, level notify.Level, taskID, msg string) {
	s.opts.Notifier.Notify(ctx, notify.New(s.opts.SessionID, level, taskID, msg))
}

// Refresh reloads the store from the server.
func (s *Synchronizer) Refresh(ctx context.Context) error {
	if err := s.store.Load(ctx, s.api); err != nil {
		s.notify(ctx, notify.LevelError, "", "Failed to load tasks: "+apperrors.Message(err))
		return err
	}
	return nil
}

// Shutdown rejects further moves and waits for in-flight updates until ctx
// expires.
func (s *Synchronizer) Shutdown(ctx context.Context) {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.opts.Log.Debug("board synchronizer drained")
	case <-ctx.Done():
		s.opts.Log.Warn("board synchronizer shutdown timed out with updates in flight")
	}
}

// applyStatus sets the status and keeps the completion date consistent with
// it: today when moved into Completed, cleared when moved out.
func applyStatus(t *model.Task, status constants.TaskStatus, now time.Time) {
	t.Status = status
	if status == constants.StatusCompleted {
		y, m, d := now.Date()
		today := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
		t.CompletionDate = &today
		return
	}
	t.CompletionDate = nil
}

func columnTitle(s constants.TaskStatus) string {
	switch s {
	case constants.StatusToDo:
		return "To Do"
	case constants.StatusInProgress:
		return "In Progress"
	case constants.StatusCompleted:
		return "Completed"
	}
	return string(s)
}
