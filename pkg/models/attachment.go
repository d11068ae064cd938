package model

import "time"

// Attachment is a stored task file in the development case API.
type Attachment struct {
	TaskID       string `gorm:"primaryKey;size:36"`
	Filename     string `gorm:"not null"`
	ContentType  string `gorm:"not null"`
	Data         []byte `gorm:"not null"`
	PasswordHash []byte
	CreatedAt    time.Time
}
