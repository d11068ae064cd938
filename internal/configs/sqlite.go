package config

import (
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	model "case-board.com/case-board/pkg/models"
)

// NewJournalDB opens the move journal.
func NewJournalDB(dsn string) (*gorm.DB, error) {
	return open(dsn, &model.MoveRecord{})
}

// NewCaseAPIDB opens the development case API's task and attachment store.
func NewCaseAPIDB(dsn string) (*gorm.DB, error) {
	return open(dsn, &model.Task{}, &model.Attachment{})
}

func open(dsn string, models ...interface{}) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("db open failed: %w", err)
	}

	if err := db.AutoMigrate(models...); err != nil {
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return db, nil
}
