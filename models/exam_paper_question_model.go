package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ExamPaperQuestion pins a question at a fixed position on a paper.
type ExamPaperQuestion struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key"`
	ExamPaperID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_paper_question,priority:1;uniqueIndex:uq_paper_position,priority:1"`
	QuestionID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_paper_question,priority:2"`
	Position    int       `gorm:"not null;uniqueIndex:uq_paper_position,priority:2"`

	Question Question `gorm:"foreignkey:QuestionID"`
}

func (pq *ExamPaperQuestion) BeforeCreate(tx *gorm.DB) error {
	if pq.ID == uuid.Nil {
		pq.ID = uuid.New()
	}
	return nil
}
