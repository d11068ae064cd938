// Package session keeps one board per caller. A session is keyed by the
// caller's case API cookie and owns the client, task store, synchronizer,
// notification hub and list view for that caller.
package session

import (
	"context"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"case-board.com/case-board/internal/board"
	"case-board.com/case-board/internal/client"
	apperrors "case-board.com/case-board/internal/errors"
	"case-board.com/case-board/internal/notify"
	"case-board.com/case-board/internal/presenter"
	"case-board.com/case-board/internal/store"
	model "case-board.com/case-board/pkg/models"
)

// CaseAPI is everything a session calls on the case API.
type CaseAPI interface {
	board.API
	UploadAttachment(ctx context.Context, taskID, filename string, file io.Reader, password string) error
	DownloadAttachment(ctx context.Context, taskID, password string) (*client.Attachment, error)
}

// Dialer builds a case API client that authenticates with cookie.
type Dialer func(cookie string) (CaseAPI, error)

type Config struct {
	Dial          Dialer
	IdleTimeout   time.Duration
	SweepInterval time.Duration
	PageSize      int
	Policy        board.ReconcilePolicy
	AllowReopen   bool
	Journal       board.Journal
	// Publisher receives every notification in addition to the session hub.
	Publisher notify.Notifier
	Now       func() time.Time
	Log       *log.Entry
}

type Session struct {
	ID    string
	API   CaseAPI
	Store *store.TaskStore
	Board *board.Synchronizer
	Hub   *notify.Hub
	View  *presenter.View

	mu       sync.Mutex
	user     model.SessionUser
	lastSeen atomic.Int64
}

func (s *Session) User() model.SessionUser {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user
}

func (s *Session) setUser(u model.SessionUser) {
	if !u.Known() {
		return
	}
	s.mu.Lock()
	s.user = u
	s.mu.Unlock()
}

func (s *Session) touch(now time.Time) {
	s.lastSeen.Store(now.UnixNano())
}

func (s *Session) idleSince(now time.Time) time.Duration {
	return now.Sub(time.Unix(0, s.lastSeen.Load()))
}

func (s *Session) close(ctx context.Context) {
	s.Board.Shutdown(ctx)
	s.Hub.Close()
}

type Manager struct {
	cfg       Config
	mu        sync.Mutex
	sessions  map[string]*Session
	sweepWG   sync.WaitGroup
	sweepStop chan struct{}
	stopOnce  sync.Once
}

func NewManager(cfg Config) *Manager {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Log == nil {
		cfg.Log = log.WithField("component", "session")
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = presenter.DefaultPageSize
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = 30 * time.Minute
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = time.Minute
	}

	m := &Manager{
		cfg:       cfg,
		sessions:  make(map[string]*Session),
		sweepStop: make(chan struct{}),
	}

	m.sweepWG.Add(1)
	go m.sweepLoop()

	return m
}

// Get returns the session for key, creating and loading it on first use.
// A failed initial load leaves the session with an empty board and an error
// notification; the caller can refresh later.
func (m *Manager) Get(ctx context.Context, key string, user model.SessionUser) (*Session, error) {
	if key == "" {
		return nil, apperrors.ErrSessionRequired
	}
	now := m.cfg.Now()

	m.mu.Lock()
	if s, ok := m.sessions[key]; ok {
		m.mu.Unlock()
		s.touch(now)
		s.setUser(user)
		return s, nil
	}

	s, err := m.build(key, user)
	if err != nil {
		m.mu.Unlock()
		return nil, err
	}
	s.touch(now)
	m.sessions[key] = s
	m.mu.Unlock()

	if err := s.Board.Refresh(ctx); err != nil {
		m.cfg.Log.WithError(err).WithField("session", s.ID).Warn("initial task load failed")
	}

	return s, nil
}

func (m *Manager) build(key string, user model.SessionUser) (*Session, error) {
	api, err := m.cfg.Dial(key)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	entry := m.cfg.Log.WithField("session", id)
	hub := notify.NewHub(0)
	st := store.NewTaskStore()

	s := &Session{
		ID:    id,
		API:   api,
		Store: st,
		Hub:   hub,
		View:  presenter.NewView(m.cfg.PageSize),
		user:  user,
	}
	s.Board = board.NewSynchronizer(st, api, board.Options{
		SessionID:   id,
		Policy:      m.cfg.Policy,
		AllowReopen: m.cfg.AllowReopen,
		Journal:     m.cfg.Journal,
		Notifier:    notify.Fanout{hub, m.cfg.Publisher, notify.LogNotifier{Log: entry}},
		Now:         m.cfg.Now,
		Log:         entry,
	})

	entry.Info("session created")
	return s, nil
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (m *Manager) sweepLoop() {
	defer m.sweepWG.Done()

	ticker := time.NewTicker(m.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.sweepStop:
			return
		case <-ticker.C:
			m.Sweep()
		}
	}
}

// Sweep discards sessions idle for longer than the idle timeout. Updates
// still in flight are given one sweep interval to finish.
func (m *Manager) Sweep() int {
	now := m.cfg.Now()

	var expired []*Session
	m.mu.Lock()
	for key, s := range m.sessions {
		if s.idleSince(now) > m.cfg.IdleTimeout {
			expired = append(expired, s)
			delete(m.sessions, key)
		}
	}
	m.mu.Unlock()

	if len(expired) == 0 {
		return 0
	}

	ctx, cancel := context.WithTimeout(context.Background(), m.cfg.SweepInterval)
	defer cancel()
	for _, s := range expired {
		s.close(ctx)
		m.cfg.Log.WithField("session", s.ID).Info("idle session discarded")
	}
	return len(expired)
}

// Shutdown stops the sweep loop and drains every session until ctx expires.
func (m *Manager) Shutdown(ctx context.Context) {
	m.stopOnce.Do(func() { close(m.sweepStop) })
	m.sweepWG.Wait()

	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for key, s := range m.sessions {
		sessions = append(sessions, s)
		delete(m.sessions, key)
	}
	m.mu.Unlock()

	for _, s := range sessions {
		s.close(ctx)
	}
	m.cfg.Log.WithField("sessions", len(sessions)).Info("session manager shut down")
}
