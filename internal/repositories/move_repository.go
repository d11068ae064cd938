package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	apperrors "case-board.com/case-board/internal/errors"
	"case-board.com/case-board/pkg/constants"
	model "case-board.com/case-board/pkg/models"
)

// MoveRepository journals board moves and their outcome.
type MoveRepository struct {
	db *gorm.DB
}

func NewMoveRepository(db *gorm.DB) *MoveRepository {
	return &MoveRepository{db: db}
}

func (r *MoveRepository) Create(ctx context.Context, sessionID, taskID string, from, to constants.TaskStatus) (*model.MoveRecord, error) {
	rec := &model.MoveRecord{
		ID:         uuid.NewString(),
		SessionID:  sessionID,
		TaskID:     taskID,
		FromStatus: from,
		ToStatus:   to,
		Outcome:    model.OutcomePending,
		Version:    1,
		CreatedAt:  time.Now().UTC(),
	}

	if err := r.db.WithContext(ctx).Create(rec).Error; err != nil {
		return nil, err
	}

	return rec, nil
}

// Resolve records the final outcome. It fails with ErrOptimisticLock if the
// record changed since it was read.
func (r *MoveRepository) Resolve(ctx context.Context, rec *model.MoveRecord, outcome model.MoveOutcome, cause error) error {
	resolvedAt := time.Now().UTC()
	errText := ""
	if cause != nil {
		errText = cause.Error()
	}

	res := r.db.WithContext(ctx).Model(&model.MoveRecord{}).
		Where("id = ? AND version = ?", rec.ID, rec.Version).
		Updates(map[string]interface{}{
			"outcome":     outcome,
			"error":       errText,
			"resolved_at": resolvedAt,
			"version":     gorm.Expr("version + 1"),
		})

	if res.Error != nil {
		return res.Error
	}

	if res.RowsAffected == 0 {
		return apperrors.ErrOptimisticLock
	}

	rec.Outcome = outcome
	rec.Error = errText
	rec.ResolvedAt = &resolvedAt
	rec.Version++
	return nil
}

func (r *MoveRepository) FindByID(ctx context.Context, id string) (*model.MoveRecord, error) {
	var rec model.MoveRecord
	err := r.db.WithContext(ctx).First(&rec, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrMoveNotFound
		}
		return nil, err
	}
	return &rec, nil
}

// ListBySession returns the newest moves of a session first.
func (r *MoveRepository) ListBySession(ctx context.Context, sessionID string, limit int) ([]model.MoveRecord, error) {
	if limit <= 0 {
		return nil, apperrors.ErrInvalidPage
	}

	var recs []model.MoveRecord
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at desc").Limit(limit).
		Find(&recs).Error
	return recs, err
}
