// Package notify carries the transient success and error messages a board
// session shows after an action.
package notify

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
	LevelInfo    Level = "info"
)

type Notification struct {
	ID        string    `json:"id"`
	Session   string    `json:"session"`
	Level     Level     `json:"level"`
	Message   string    `json:"message"`
	TaskID    string    `json:"taskId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

func New(session string, level Level, taskID, message string) Notification {
	return Notification{
		ID:        uuid.NewString(),
		Session:   session,
		Level:     level,
		Message:   message,
		TaskID:    taskID,
		CreatedAt: time.Now().UTC(),
	}
}

type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// Fanout delivers to every notifier in order.
type Fanout []Notifier

func (f Fanout) Notify(ctx context.Context, n Notification) {
	for _, nt := range f {
		if nt != nil {
			nt.Notify(ctx, n)
		}
	}
}

// LogNotifier writes notifications to the log.
type LogNotifier struct {
	Log *log.Entry
}

func (l LogNotifier) Notify(_ context.Context, n Notification) {
	entry := l.Log
	if entry == nil {
		entry = log.NewEntry(log.StandardLogger())
	}
	entry = entry.WithFields(log.Fields{"session": n.Session, "task": n.TaskID})
	switch n.Level {
	case LevelError:
		entry.Warn(n.Message)
	default:
		entry.Info(n.Message)
	}
}

// Hub keeps the recent notifications of one session and pushes new ones to
// subscribers. Slow subscribers drop messages rather than block.
type Hub struct {
	mu     sync.Mutex
	recent []Notification
	limit  int
	subs   map[chan Notification]struct{}
	closed bool
}

func NewHub(limit int) *Hub {
	if limit <= 0 {
		limit = 50
	}
	return &Hub{limit: limit, subs: make(map[chan Notification]struct{})}
}

func (h *Hub) Notify(_ context.Context, n Notification) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.recent = append(h.recent, n)
	if len(h.recent) > h.limit {
		h.recent = h.recent[len(h.recent)-h.limit:]
	}
	for ch := range h.subs {
		select {
		case ch <- n:
		default:
		}
	}
}

// Recent returns up to the last limit notifications, oldest first.
func (h *Hub) Recent() []Notification {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]Notification, len(h.recent))
	copy(out, h.recent)
	return out
}

// Subscribe returns a channel of future notifications and a cancel func. The
// channel is closed on cancel or when the hub closes.
func (h *Hub) Subscribe() (<-chan Notification, func()) {
	ch := make(chan Notification, 16)

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if _, ok := h.subs[ch]; ok {
				delete(h.subs, ch)
				close(ch)
			}
		})
	}
}

// Close ends every subscription.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	for ch := range h.subs {
		delete(h.subs, ch)
		close(ch)
	}
}
