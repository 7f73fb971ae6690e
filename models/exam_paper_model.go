package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ExamPaper struct {
	ID               uuid.UUID `gorm:"type:uuid;primary_key"`
	State            string    `gorm:"size:10;not null"`
	Title            string    `gorm:"size:120;not null"`
	TimeLimitMinutes int       `gorm:"not null"`

	Questions []ExamPaperQuestion `gorm:"foreignkey:ExamPaperID"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (p *ExamPaper) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
