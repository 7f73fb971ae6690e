package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ExamAnswer holds the latest response to one question within one session.
// Re-answering updates the row in place, it never duplicates it.
type ExamAnswer struct {
	ID             uuid.UUID `gorm:"type:uuid;primary_key"`
	SessionID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_session_question,priority:1"`
	QuestionID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_session_question,priority:2"`
	SelectedOption string    `gorm:"size:1;not null"`
	IsCorrect      bool      `gorm:"not null"`
	AnsweredAt     time.Time `gorm:"not null"`

	Question Question `gorm:"foreignkey:QuestionID"`
}

func (a *ExamAnswer) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
