package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Exam session statuses. Submitted and abandoned are terminal.
const (
	SessionOngoing   = "ongoing"
	SessionSubmitted = "submitted"
	SessionAbandoned = "abandoned"
)

// ExamSession is one student's timed run through an exam paper. Rows are
// never deleted; finished sessions double as the attempt history.
// The single-ongoing-session-per-student invariant is enforced by the
// partial unique index ux_exam_sessions_ongoing created in database.Migrate.
type ExamSession struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key"`
	StudentID   uuid.UUID `gorm:"type:uuid;not null;index"`
	State       string    `gorm:"size:10;not null"`
	ExamPaperID uuid.UUID `gorm:"type:uuid;not null"`
	Status      string    `gorm:"size:12;not null;default:'ongoing'"`
	StartedAt   time.Time `gorm:"not null"`
	ExpiresAt   *time.Time
	FinishedAt  *time.Time
	Score       *int
	Total       *int

	Student Student      `gorm:"foreignkey:StudentID"`
	Paper   ExamPaper    `gorm:"foreignkey:ExamPaperID"`
	Answers []ExamAnswer `gorm:"foreignkey:SessionID"`
}

func (s *ExamSession) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
