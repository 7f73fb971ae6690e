package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ScopeAll marks a question as valid in every state.
const ScopeAll = "ALL"

type Question struct {
	ID            uuid.UUID `gorm:"type:uuid;primary_key"`
	QID           string    `gorm:"column:qid;size:50;not null;uniqueIndex:uq_question_qid_state_language,priority:1"`
	StateScope    string    `gorm:"size:10;not null;default:'ALL';uniqueIndex:uq_question_qid_state_language,priority:2"`
	Language      string    `gorm:"size:20;not null;default:'ENGLISH';uniqueIndex:uq_question_qid_state_language,priority:3"`
	Prompt        string    `gorm:"type:text;not null"`
	Topic         string    `gorm:"size:120;not null;default:'general'"`
	OptionA       string    `gorm:"size:255;not null"`
	OptionB       string    `gorm:"size:255;not null"`
	OptionC       string    `gorm:"size:255;not null"`
	OptionD       string    `gorm:"size:255;not null"`
	CorrectOption string    `gorm:"size:1;not null"`
	Explanation   string    `gorm:"type:text"`
	ImageURL      string    `gorm:"size:500"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (q *Question) BeforeCreate(tx *gorm.DB) error {
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	return nil
}
