package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AttemptRecord is an append-only log of ad-hoc practice attempts made
// outside timed exam sessions. Many rows may exist per (student, question).
type AttemptRecord struct {
	ID               uuid.UUID `gorm:"type:uuid;primary_key"`
	StudentID        uuid.UUID `gorm:"type:uuid;not null;index"`
	QuestionID       uuid.UUID `gorm:"type:uuid;not null"`
	State            string    `gorm:"size:10;not null"`
	ChosenOption     string    `gorm:"size:1;not null"`
	IsCorrect        bool      `gorm:"not null"`
	TimeSpentSeconds int       `gorm:"not null;default:0"`
	AttemptedAt      time.Time `gorm:"not null"`

	Question Question `gorm:"foreignkey:QuestionID"`
}

func (r *AttemptRecord) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
