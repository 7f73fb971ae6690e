package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ExamSummary is the historical score record appended every time a
// session is finalized.
type ExamSummary struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	StudentID uuid.UUID `gorm:"type:uuid;not null;index"`
	State     string    `gorm:"size:10"`
	Score     int       `gorm:"not null"`
	TakenAt   time.Time `gorm:"not null"`
}

func (s *ExamSummary) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
