package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"prompterest/internal/metrics"
	"prompterest/internal/microservices/http-api/cache"
	"prompterest/internal/microservices/http-api/models"
	"prompterest/internal/microservices/http-api/repository"
	"prompterest/internal/shared"

	"gorm.io/gorm"
)

type RatingService interface {
	SubmitRating(ctx context.Context, actor *shared.Identity, promptID string, value int) (models.RatingSummary, error)
	GetSummary(ctx context.Context, promptID string) (models.RatingSummary, error)
	GetUserRating(ctx context.Context, actor *shared.Identity, promptID string) (*models.Rating, error)
}

type ratingService struct {
	ratingRepo repository.RatingRepository
	promptRepo repository.PromptRepository
	cache      cache.SummaryCache
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

// NewRatingService wires the aggregator. A nil summaryCache disables caching.
func NewRatingService(
	ratingRepo repository.RatingRepository,
	promptRepo repository.PromptRepository,
	summaryCache cache.SummaryCache,
	logger *slog.Logger,
	m *metrics.Metrics,
) RatingService {
	if summaryCache == nil {
		summaryCache = cache.NewRedisSummaryCache(nil, 0)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ratingService{
		ratingRepo: ratingRepo,
		promptRepo: promptRepo,
		cache:      summaryCache,
		logger:     logger,
		metrics:    m,
	}
}

// SubmitRating records the actor's rating of a prompt, overwriting any earlier
// one, and returns the summary recomputed after the write.
func (s *ratingService) SubmitRating(ctx context.Context, actor *shared.Identity, promptID string, value int) (models.RatingSummary, error) {
	// identity and range are checked before any store call
	if actor == nil {
		s.metrics.RatingSubmitted("unauthenticated")
		return models.RatingSummary{}, ErrUnauthenticated
	}
	if value < models.MinRatingValue || value > models.MaxRatingValue {
		s.metrics.RatingSubmitted("invalid")
		return models.RatingSummary{}, invalidInput("rating must be between %d and %d, got %d",
			models.MinRatingValue, models.MaxRatingValue, value)
	}
	if !validID(promptID) {
		s.metrics.RatingSubmitted("not_found")
		return models.RatingSummary{}, ErrNotFound
	}

	if _, err := s.promptRepo.GetCreatorID(ctx, promptID); err != nil {
		err = storeErr("load prompt", err)
		s.metrics.RatingSubmitted(outcomeOf(err))
		return models.RatingSummary{}, err
	}

	rating := &models.Rating{
		PromptID: promptID,
		UserID:   actor.ID,
		Value:    value,
	}
	if err := s.ratingRepo.Upsert(ctx, rating); err != nil {
		// the prompt was deleted between the existence check and the write
		if errors.Is(err, gorm.ErrForeignKeyViolated) {
			s.metrics.RatingSubmitted("not_found")
			return models.RatingSummary{}, fmt.Errorf("upsert rating: %w", ErrNotFound)
		}
		s.metrics.RatingSubmitted("store_error")
		return models.RatingSummary{}, storeErr("upsert rating", err)
	}

	// stale entries expire with the cache TTL if this fails
	if err := s.cache.Invalidate(ctx, promptID); err != nil {
		s.logger.ErrorContext(ctx, "summary_cache_invalidate_failed", "prompt_id", promptID, "error", err)
	}

	summary, err := s.summarize(ctx, promptID)
	if err != nil {
		s.metrics.RatingSubmitted("store_error")
		return models.RatingSummary{}, err
	}

	s.metrics.RatingSubmitted("accepted")
	s.logger.InfoContext(ctx, "rating_submitted",
		"prompt_id", promptID,
		"user_id", actor.ID,
		"value", value,
		"count", summary.Count,
	)
	return summary, nil
}

// GetSummary returns {average, count} over the prompt's current ratings.
// An unknown prompt has no ratings: its orphaned rows, if any, are ignored.
func (s *ratingService) GetSummary(ctx context.Context, promptID string) (models.RatingSummary, error) {
	if !validID(promptID) {
		return models.RatingSummary{}, nil
	}

	summary, version, hit, err := s.cache.Lookup(ctx, promptID)
	cacheUsable := err == nil
	if err != nil {
		s.logger.WarnContext(ctx, "summary_cache_lookup_failed", "prompt_id", promptID, "error", err)
	} else {
		s.metrics.CacheLookup(hit)
		if hit {
			return summary, nil
		}
	}

	if _, err := s.promptRepo.GetCreatorID(ctx, promptID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.RatingSummary{}, nil
		}
		return models.RatingSummary{}, storeErr("load prompt", err)
	}

	summary, err = s.summarize(ctx, promptID)
	if err != nil {
		return models.RatingSummary{}, err
	}

	if cacheUsable {
		if err := s.cache.Store(ctx, promptID, version, summary); err != nil {
			s.logger.WarnContext(ctx, "summary_cache_store_failed", "prompt_id", promptID, "error", err)
		}
	}
	return summary, nil
}

// GetUserRating returns the actor's own rating, or nil when they have not rated the prompt
func (s *ratingService) GetUserRating(ctx context.Context, actor *shared.Identity, promptID string) (*models.Rating, error) {
	if actor == nil {
		return nil, ErrUnauthenticated
	}
	if !validID(promptID) {
		return nil, ErrNotFound
	}
	if _, err := s.promptRepo.GetCreatorID(ctx, promptID); err != nil {
		return nil, storeErr("load prompt", err)
	}

	rating, err := s.ratingRepo.GetByUserAndPrompt(ctx, actor.ID, promptID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, storeErr("load rating", err)
	}
	return rating, nil
}

// summarize reads straight from the row store, bypassing the cache
func (s *ratingService) summarize(ctx context.Context, promptID string) (models.RatingSummary, error) {
	count, sum, err := s.ratingRepo.Summarize(ctx, promptID)
	if err != nil {
		return models.RatingSummary{}, storeErr("summarize ratings", err)
	}
	return models.NewRatingSummary(count, sum), nil
}

func outcomeOf(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrStoreUnavailable):
		return "store_error"
	default:
		return "error"
	}
}
