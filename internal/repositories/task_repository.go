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

// TaskRepository stores the tasks served by the development case API.
type TaskRepository struct {
	db  *gorm.DB
	now func() time.Time
}

var ErrOptimisticLock = apperrors.ErrOptimisticLock

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db, now: time.Now}
}

func (r *TaskRepository) CreateTask(ctx context.Context, input model.Task) (*model.Task, error) {
	task := input
	task.ID = uuid.NewString()
	if task.Status == "" {
		task.Status = constants.StatusToDo
	}
	if task.Status != constants.StatusCompleted {
		task.CompletionDate = nil
	}
	task.Version = 1
	task.CreatedAt = r.now().UTC()

	if err := r.db.WithContext(ctx).Create(&task).Error; err != nil {
		return nil, err
	}

	return &task, nil
}

func (r *TaskRepository) FindByID(ctx context.Context, id string) (*model.Task, error) {
	var task model.Task
	err := r.db.WithContext(ctx).First(&task, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTaskNotFound
		}
		return nil, err
	}
	return &task, nil
}

func (r *TaskRepository) List(ctx context.Context) ([]model.Task, error) {
	var tasks []model.Task
	err := r.db.WithContext(ctx).Order("created_at desc").Find(&tasks).Error
	return tasks, err
}

// UpdateStatus changes a task's status and keeps the completion date in step:
// set to today on completion, cleared when the task leaves Completed.
func (r *TaskRepository) UpdateStatus(ctx context.Context, id string, status constants.TaskStatus) (*model.Task, error) {
	task, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if task.Status == status {
		return task, nil
	}

	task.Status = status
	if status == constants.StatusCompleted {
		y, m, d := r.now().Date()
		today := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
		task.CompletionDate = &today
	} else {
		task.CompletionDate = nil
	}

	if err := r.Update(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

func (r *TaskRepository) Update(ctx context.Context, task *model.Task) error {
	res := r.db.WithContext(ctx).Model(&model.Task{}).
		Where("id = ? AND version = ?", task.ID, task.Version).
		Updates(map[string]interface{}{
			"title":              task.Title,
			"description":        task.Description,
			"case_ref":           task.CaseRef,
			"assignee":           task.Assignee,
			"due_date":           task.DueDate,
			"status":             task.Status,
			"completion_date":    task.CompletionDate,
			"attachment_path":    task.AttachmentPath,
			"password_protected": task.PasswordProtected,
			"version":            gorm.Expr("version + 1"),
		})

	if res.Error != nil {
		return res.Error
	}

	if res.RowsAffected == 0 {
		return ErrOptimisticLock
	}

	task.Version++
	return nil
}
