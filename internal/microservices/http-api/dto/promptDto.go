package dto

import (
	"time"

	"prompterest/internal/microservices/http-api/models"
)

// CreatePromptForm is the multipart form of POST /api/prompts; the image part is read separately
type CreatePromptForm struct {
	Title       string `form:"title" binding:"required,max=200"`
	Description string `form:"description" binding:"max=2000"`
	PromptText  string `form:"prompt_text" binding:"required"`
}

// UpdatePromptDTO carries the editable fields only; the creator can never be changed
type UpdatePromptDTO struct {
	Title       string  `json:"title" binding:"required,max=200"`
	Description *string `json:"description" binding:"omitempty,max=2000"`
	PromptText  string  `json:"prompt_text" binding:"required"`
}

// SearchQuery binds ?q=
type SearchQuery struct {
	Q string `form:"q"`
}

// PromptResponse is one feed entry
type PromptResponse struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Username    string    `json:"username"`
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	PromptText  string    `json:"prompt_text"`
	ImageURL    *string   `json:"image_url"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func FromModelToPromptResponse(p *models.Prompt) *PromptResponse {
	return &PromptResponse{
		ID:          p.ID,
		UserID:      p.UserID,
		Username:    p.User.Username,
		Title:       p.Title,
		Description: p.Description,
		PromptText:  p.PromptText,
		ImageURL:    p.ImageURL,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

// PromptDetailResponse adds the rating summary and the can_edit rendering hint.
// can_edit is advisory: every write re-checks ownership on the server.
type PromptDetailResponse struct {
	PromptResponse
	Rating  RatingSummaryResponse `json:"rating"`
	CanEdit bool                  `json:"can_edit"`
}

// PromptListResponse is the feed
type PromptListResponse struct {
	Data  []PromptResponse `json:"data"`
	Total int              `json:"total"`
	Query string           `json:"query,omitempty"`
}

func NewPromptListResponse(prompts []models.Prompt, query string) *PromptListResponse {
	data := make([]PromptResponse, 0, len(prompts))
	for i := range prompts {
		data = append(data, *FromModelToPromptResponse(&prompts[i]))
	}
	return &PromptListResponse{Data: data, Total: len(data), Query: query}
}
