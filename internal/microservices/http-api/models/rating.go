package models

import "time"

// Rating is keyed by (prompt, rater): a second submission overwrites the value.
type Rating struct {
	PromptID  string    `json:"prompt_id" gorm:"primaryKey;type:uuid"`
	UserID    string    `json:"user_id" gorm:"primaryKey;type:uuid"`
	Value     int       `json:"value" gorm:"not null;check:value >= 1 AND value <= 5"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

func (Rating) TableName() string {
	return "ratings"
}

const (
	MinRatingValue = 1
	MaxRatingValue = 5
)

// RatingSummary is derived from the rating rows of one prompt and never stored
// in the database. Average is nil when the prompt has no ratings.
type RatingSummary struct {
	Average *float64 `json:"average"`
	Count   int64    `json:"count"`
}

// NewRatingSummary derives the summary from the row count and the sum of values.
func NewRatingSummary(count, sum int64) RatingSummary {
	if count <= 0 {
		return RatingSummary{}
	}
	avg := float64(sum) / float64(count)
	return RatingSummary{Average: &avg, Count: count}
}

// HasRatings reports whether the summary covers at least one rating
func (s RatingSummary) HasRatings() bool {
	return s.Count > 0 && s.Average != nil
}
