package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	apperrors "case-board.com/case-board/internal/errors"
	"case-board.com/case-board/pkg/constants"
	model "case-board.com/case-board/pkg/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}

	err = db.AutoMigrate(&model.Task{}, &model.Attachment{}, &model.MoveRecord{})
	if err != nil {
		t.Fatalf("failed to migrate database: %v", err)
	}

	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	return db
}

func TestTaskRepository_CreateAndList(t *testing.T) {
	repo := NewTaskRepository(setupTestDB(t))
	ctx := context.Background()

	due := time.Date(2026, time.October, 20, 0, 0, 0, 0, time.UTC)
	task, err := repo.CreateTask(ctx, model.Task{Title: "Draft brief", CaseRef: "Doe v. Roe", DueDate: &due})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if task.ID == "" || task.Status != constants.StatusToDo {
		t.Errorf("unexpected task: %+v", task)
	}

	tasks, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(tasks) != 1 || tasks[0].CaseRef != "Doe v. Roe" || tasks[0].DueDate == nil {
		t.Errorf("unexpected list: %+v", tasks)
	}
}

func TestTaskRepository_UpdateStatusTracksCompletionDate(t *testing.T) {
	repo := NewTaskRepository(setupTestDB(t))
	repo.now = func() time.Time { return time.Date(2026, time.October, 16, 9, 30, 0, 0, time.UTC) }
	ctx := context.Background()

	task, _ := repo.CreateTask(ctx, model.Task{Title: "Serve papers"})

	done, err := repo.UpdateStatus(ctx, task.ID, constants.StatusCompleted)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if done.CompletionDate == nil || done.CompletionDate.Day() != 16 {
		t.Errorf("expected completion date to be set, got %v", done.CompletionDate)
	}

	reopened, err := repo.UpdateStatus(ctx, task.ID, constants.StatusInProgress)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if reopened.CompletionDate != nil {
		t.Error("expected completion date to be cleared on reopen")
	}

	if _, err := repo.UpdateStatus(ctx, "missing", constants.StatusToDo); !errors.Is(err, apperrors.ErrTaskNotFound) {
		t.Errorf("expected ErrTaskNotFound, got %v", err)
	}
}

func TestTaskRepository_OptimisticLock(t *testing.T) {
	repo := NewTaskRepository(setupTestDB(t))
	ctx := context.Background()

	task, _ := repo.CreateTask(ctx, model.Task{Title: "Review"})
	stale := *task

	task.Title = "Review contract"
	if err := repo.Update(ctx, task); err != nil {
		t.Fatalf("update: %v", err)
	}

	stale.Title = "Review lease"
	if err := repo.Update(ctx, &stale); !errors.Is(err, ErrOptimisticLock) {
		t.Errorf("expected optimistic lock conflict, got %v", err)
	}
}

func TestAttachmentRepository_SaveFlagsTask(t *testing.T) {
	db := setupTestDB(t)
	tasks := NewTaskRepository(db)
	atts := NewAttachmentRepository(db)
	ctx := context.Background()

	task, _ := tasks.CreateTask(ctx, model.Task{Title: "Upload exhibit"})

	err := atts.Save(ctx, &model.Attachment{
		TaskID:       task.ID,
		Filename:     "exhibit-a.pdf",
		ContentType:  "application/pdf",
		Data:         []byte("%PDF"),
		PasswordHash: []byte("hash"),
	})
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	got, _ := tasks.FindByID(ctx, task.ID)
	if got.AttachmentPath != "exhibit-a.pdf" || !got.PasswordProtected {
		t.Errorf("expected task to reference its attachment, got %+v", got)
	}

	err = atts.Save(ctx, &model.Attachment{TaskID: task.ID, Filename: "exhibit-b.pdf", ContentType: "application/pdf", Data: []byte("x")})
	if err != nil {
		t.Fatalf("replace: %v", err)
	}
	att, err := atts.FindByTaskID(ctx, task.ID)
	if err != nil || att.Filename != "exhibit-b.pdf" {
		t.Errorf("expected replaced attachment, got %+v (%v)", att, err)
	}
	got, _ = tasks.FindByID(ctx, task.ID)
	if got.PasswordProtected {
		t.Error("expected protection flag to follow the latest upload")
	}

	err = atts.Save(ctx, &model.Attachment{TaskID: "missing", Filename: "x", ContentType: "text/plain", Data: []byte("x")})
	if !errors.Is(err, apperrors.ErrTaskNotFound) {
		t.Errorf("expected ErrTaskNotFound, got %v", err)
	}
}

func TestMoveRepository_CreateResolveList(t *testing.T) {
	repo := NewMoveRepository(setupTestDB(t))
	ctx := context.Background()

	first, err := repo.Create(ctx, "s1", "7", constants.StatusToDo, constants.StatusInProgress)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if first.Outcome != model.OutcomePending {
		t.Errorf("expected pending outcome, got %s", first.Outcome)
	}
	_, _ = repo.Create(ctx, "s2", "8", constants.StatusToDo, constants.StatusCompleted)

	stale := *first
	if err := repo.Resolve(ctx, first, model.OutcomeRolledBack, errors.New("status 500")); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if err := repo.Resolve(ctx, &stale, model.OutcomeConfirmed, nil); !errors.Is(err, apperrors.ErrOptimisticLock) {
		t.Errorf("expected lock conflict on stale resolve, got %v", err)
	}

	stored, err := repo.FindByID(ctx, first.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if stored.Outcome != model.OutcomeRolledBack || stored.Error != "status 500" || stored.ResolvedAt == nil {
		t.Errorf("unexpected stored move: %+v", stored)
	}

	recs, err := repo.ListBySession(ctx, "s1", 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(recs) != 1 || recs[0].TaskID != "7" {
		t.Errorf("expected only s1 moves, got %+v", recs)
	}

	if _, err := repo.ListBySession(ctx, "s1", 0); !errors.Is(err, apperrors.ErrInvalidPage) {
		t.Errorf("expected ErrInvalidPage, got %v", err)
	}
	if _, err := repo.FindByID(ctx, "nope"); !errors.Is(err, apperrors.ErrMoveNotFound) {
		t.Errorf("expected ErrMoveNotFound, got %v", err)
	}
}
