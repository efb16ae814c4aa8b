package models

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrMalformedPrompt = errors.New("malformed prompt row")

type Prompt struct {
	ID          string    `json:"id" gorm:"primaryKey;type:uuid"`
	UserID      string    `json:"user_id" gorm:"type:uuid;not null;index"` // creator, never updated
	Title       string    `json:"title" gorm:"not null"`
	Description *string   `json:"description,omitempty" gorm:"type:text"`
	PromptText  string    `json:"prompt_text" gorm:"not null;type:text"`
	ImageURL    *string   `json:"image_url,omitempty"`
	CreatedAt   time.Time `json:"created_at" gorm:"autoCreateTime;index"`
	UpdatedAt   time.Time `json:"updated_at" gorm:"autoUpdateTime"`

	// Associations (no FK: a creator that no longer resolves keeps the prompt)
	User User `json:"user,omitempty" gorm:"foreignKey:UserID;references:ID"`
}

func (p *Prompt) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	return
}

func (Prompt) TableName() string {
	return "prompts"
}

// Validate checks the fields every stored prompt must carry. Rows read back
// from the store go through it before they reach a service.
func (p *Prompt) Validate() error {
	switch {
	case p.ID == "":
		return errors.Join(ErrMalformedPrompt, errors.New("missing id"))
	case p.UserID == "":
		return errors.Join(ErrMalformedPrompt, errors.New("missing creator"))
	case strings.TrimSpace(p.Title) == "":
		return errors.Join(ErrMalformedPrompt, errors.New("empty title"))
	case strings.TrimSpace(p.PromptText) == "":
		return errors.Join(ErrMalformedPrompt, errors.New("empty prompt text"))
	}
	return nil
}
