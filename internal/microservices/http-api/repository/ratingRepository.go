package repository

import (
	"context"
	"fmt"

	"prompterest/internal/microservices/http-api/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RatingRepository interface {
	Upsert(ctx context.Context, rating *models.Rating) error
	GetByUserAndPrompt(ctx context.Context, userID, promptID string) (*models.Rating, error)
	Summarize(ctx context.Context, promptID string) (count int64, sum int64, err error)
}

type ratingRepository struct {
	db *gorm.DB
}

func NewRatingRepository(db *gorm.DB) RatingRepository {
	return &ratingRepository{db: db}
}

// ratingConflict targets the composite primary key; the store serializes
// concurrent submissions for the same (prompt, user) on it.
var ratingConflict = clause.OnConflict{
	Columns:   []clause.Column{{Name: "prompt_id"}, {Name: "user_id"}},
	DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
}

// Upsert inserts the rating or overwrites the value of the existing row
func (r *ratingRepository) Upsert(ctx context.Context, rating *models.Rating) error {
	if err := r.db.WithContext(ctx).Clauses(ratingConflict).Create(rating).Error; err != nil {
		return fmt.Errorf("upsert rating: %w", err)
	}
	return nil
}

// GetByUserAndPrompt retrieves a user's rating for a specific prompt
func (r *ratingRepository) GetByUserAndPrompt(ctx context.Context, userID, promptID string) (*models.Rating, error) {
	var rating models.Rating
	err := r.db.WithContext(ctx).
		Where("prompt_id = ? AND user_id = ?", promptID, userID).
		First(&rating).Error
	if err != nil {
		return nil, err
	}
	return &rating, nil
}

// Summarize counts the ratings of a prompt and sums their values in one scan
func (r *ratingRepository) Summarize(ctx context.Context, promptID string) (int64, int64, error) {
	var agg struct {
		Count int64
		Total int64
	}

	err := r.db.WithContext(ctx).
		Model(&models.Rating{}).
		Select("COUNT(*) AS count, COALESCE(SUM(value), 0) AS total").
		Where("prompt_id = ?", promptID).
		Scan(&agg).Error
	if err != nil {
		return 0, 0, fmt.Errorf("summarize ratings: %w", err)
	}

	return agg.Count, agg.Total, nil
}
