package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Student struct {
	ID                uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	FullName          string    `gorm:"size:255;not null" json:"full_name"`
	MobileNumber      string    `gorm:"size:20;not null;unique" json:"mobile_number"`
	State             string    `gorm:"size:10;not null" json:"state"`
	PreferredLanguage string    `gorm:"size:20;not null;default:'ENGLISH'" json:"preferred_language"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (s *Student) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
