package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "case-board.com/case-board/internal/errors"
	model "case-board.com/case-board/pkg/models"
)

type AttachmentRepository struct {
	db *gorm.DB
}

func NewAttachmentRepository(db *gorm.DB) *AttachmentRepository {
	return &AttachmentRepository{db: db}
}

// Save replaces the task's attachment and flags the task row in the same
// transaction.
func (r *AttachmentRepository) Save(ctx context.Context, att *model.Attachment) error {
	att.CreatedAt = time.Now().UTC()

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Task{}).
			Where("id = ?", att.TaskID).
			Updates(map[string]interface{}{
				"attachment_path":    att.Filename,
				"password_protected": len(att.PasswordHash) > 0,
				"version":            gorm.Expr("version + 1"),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperrors.ErrTaskNotFound
		}

		return tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(att).Error
	})
}

func (r *AttachmentRepository) FindByTaskID(ctx context.Context, taskID string) (*model.Attachment, error) {
	var att model.Attachment
	err := r.db.WithContext(ctx).First(&att, "task_id = ?", taskID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTaskNotFound
		}
		return nil, err
	}
	return &att, nil
}
