package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NotebookEntry is the per-student wrong-answer ledger. One row per
// (student, question, state); misses increment WrongCount.
type NotebookEntry struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key"`
	StudentID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_notebook_scope,priority:1"`
	QuestionID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_notebook_scope,priority:2"`
	State      string    `gorm:"size:10;not null;uniqueIndex:uq_notebook_scope,priority:3"`
	WrongCount int       `gorm:"not null;default:0"`
	LastWrongAt *time.Time

	Question Question `gorm:"foreignkey:QuestionID"`
}

func (e *NotebookEntry) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
