package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Testimonial is a short customer quote shown on the landing page.
type Testimonial struct {
	ID        uuid.UUID `json:"id" gorm:"type:char(36);primaryKey"`
	Name      string    `json:"name" gorm:"size:255;not null"`
	Text      string    `json:"text" gorm:"type:text;not null"`
	Picture   string    `json:"picture" gorm:"size:1024;not null"`
	CreatedAt time.Time `json:"created_at" gorm:"index"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate sets UUID before creating the record.
func (t *Testimonial) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
