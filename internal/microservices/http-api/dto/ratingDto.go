package dto

import (
	"time"

	"prompterest/internal/microservices/http-api/models"
)

// SubmitRatingDTO for creating or overwriting the caller's rating
type SubmitRatingDTO struct {
	Value int `json:"value" binding:"required,min=1,max=5"`
}

// RatingSummaryResponse is the {average, count} pair; average is null when nobody rated
type RatingSummaryResponse struct {
	PromptID string   `json:"prompt_id"`
	Average  *float64 `json:"average"`
	Count    int64    `json:"count"`
}

func FromSummary(promptID string, s models.RatingSummary) *RatingSummaryResponse {
	return &RatingSummaryResponse{
		PromptID: promptID,
		Average:  s.Average,
		Count:    s.Count,
	}
}

// UserRatingResponse for returning the caller's own rating; value is null when unrated
type UserRatingResponse struct {
	PromptID  string     `json:"prompt_id"`
	Value     *int       `json:"value"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

func FromModelToUserRatingResponse(promptID string, rating *models.Rating) *UserRatingResponse {
	resp := &UserRatingResponse{PromptID: promptID}
	if rating != nil {
		v := rating.Value
		resp.Value = &v
		resp.UpdatedAt = &rating.UpdatedAt
	}
	return resp
}
