package model

import (
	"time"

	"case-board.com/case-board/pkg/constants"
)

type MoveOutcome string

const (
	OutcomePending     MoveOutcome = "pending"
	OutcomeNoop        MoveOutcome = "noop"
	OutcomeConfirmed   MoveOutcome = "confirmed"
	OutcomeRolledBack  MoveOutcome = "rolled_back"
	OutcomeReconciled  MoveOutcome = "reconciled"
	OutcomeUnconfirmed MoveOutcome = "unconfirmed"
)

// MoveRecord is one journaled board move.
type MoveRecord struct {
	ID         string               `gorm:"primaryKey;size:36" json:"id"`
	SessionID  string               `gorm:"size:36;index;not null" json:"session_id"`
	TaskID     string               `gorm:"not null" json:"task_id"`
	FromStatus constants.TaskStatus `gorm:"type:varchar(20);not null" json:"from"`
	ToStatus   constants.TaskStatus `gorm:"type:varchar(20);not null" json:"to"`
	Outcome    MoveOutcome          `gorm:"type:varchar(20);not null" json:"outcome"`
	Error      string               `json:"error,omitempty"`
	Version    uint                 `gorm:"not null;default:1" json:"-"`
	CreatedAt  time.Time            `json:"created_at"`
	ResolvedAt *time.Time           `json:"resolved_at,omitempty"`
}
