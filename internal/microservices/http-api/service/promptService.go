package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"prompterest/internal/blob"
	"prompterest/internal/microservices/http-api/cache"
	"prompterest/internal/microservices/http-api/models"
	"prompterest/internal/microservices/http-api/repository"
	"prompterest/internal/shared"

	"gorm.io/gorm"
)

// ImageUpload is an optional image attached to a new prompt
type ImageUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

type CreatePromptInput struct {
	Title       string
	Description string
	PromptText  string
	Image       *ImageUpload
}

type UpdatePromptInput struct {
	Title       string
	Description *string
	PromptText  string
}

// PromptDetail is a prompt as one viewer sees it.
// CanEdit only decides whether edit controls are rendered.
type PromptDetail struct {
	Prompt  *models.Prompt
	Summary models.RatingSummary
	CanEdit bool
}

type PromptService interface {
	Create(ctx context.Context, actor *shared.Identity, in CreatePromptInput) (*models.Prompt, error)
	Get(ctx context.Context, actor *shared.Identity, id string) (*PromptDetail, error)
	List(ctx context.Context, query string) ([]models.Prompt, error)
	EditForm(ctx context.Context, actor *shared.Identity, id string) (*models.Prompt, error)
	Update(ctx context.Context, actor *shared.Identity, id string, in UpdatePromptInput) (*models.Prompt, error)
	Delete(ctx context.Context, actor *shared.Identity, id string) error
}

type promptService struct {
	promptRepo    repository.PromptRepository
	ratings       RatingService
	guard         *Guard
	blobs         blob.Store
	summaryCache  cache.SummaryCache
	maxImageBytes int64
	logger        *slog.Logger
}

func NewPromptService(
	promptRepo repository.PromptRepository,
	ratings RatingService,
	guard *Guard,
	blobs blob.Store,
	summaryCache cache.SummaryCache,
	maxImageBytes int64,
	logger *slog.Logger,
) PromptService {
	if summaryCache == nil {
		summaryCache = cache.NewRedisSummaryCache(nil, 0)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &promptService{
		promptRepo:    promptRepo,
		ratings:       ratings,
		guard:         guard,
		blobs:         blobs,
		summaryCache:  summaryCache,
		maxImageBytes: maxImageBytes,
		logger:        logger,
	}
}

// Create publishes a prompt owned by actor. The creator is always the caller.
func (s *promptService) Create(ctx context.Context, actor *shared.Identity, in CreatePromptInput) (*models.Prompt, error) {
	if actor == nil {
		return nil, ErrUnauthenticated
	}

	title := strings.TrimSpace(in.Title)
	text := strings.TrimSpace(in.PromptText)
	if title == "" {
		return nil, invalidInput("title is required")
	}
	if text == "" {
		return nil, invalidInput("prompt text is required")
	}

	prompt := &models.Prompt{
		UserID:      actor.ID,
		Title:       title,
		Description: optionalText(in.Description),
		PromptText:  text,
	}

	var objectName string
	if in.Image != nil {
		name, url, err := s.uploadImage(ctx, actor, in.Image)
		if err != nil {
			return nil, err
		}
		objectName = name
		prompt.ImageURL = &url
	}

	if err := s.promptRepo.Create(ctx, prompt); err != nil {
		if objectName != "" {
			// the blob store has no delete; leave a trail for cleanup
			s.logger.ErrorContext(ctx, "image_orphaned", "object", objectName, "user_id", actor.ID, "error", err)
		}
		return nil, storeErr("create prompt", err)
	}
	prompt.User = models.User{ID: actor.ID, Username: actor.Handle}

	s.logger.InfoContext(ctx, "prompt_created", "prompt_id", prompt.ID, "user_id", actor.ID)
	return prompt, nil
}

func (s *promptService) uploadImage(ctx context.Context, actor *shared.Identity, img *ImageUpload) (name, url string, err error) {
	if !strings.HasPrefix(img.ContentType, "image/") {
		return "", "", invalidInput("image must be an image file, got %q", img.ContentType)
	}
	if s.maxImageBytes > 0 && img.Size > s.maxImageBytes {
		return "", "", invalidInput("image exceeds %d bytes", s.maxImageBytes)
	}
	if s.blobs == nil {
		return "", "", fmt.Errorf("upload image: %w: no blob store configured", ErrStoreUnavailable)
	}

	name = blob.ObjectName(actor.ID, img.Filename)
	url, err = s.blobs.Upload(ctx, name, img.ContentType, img.Body)
	if err != nil {
		return "", "", fmt.Errorf("upload image: %w: %v", ErrStoreUnavailable, err)
	}
	return name, url, nil
}

// Get loads a prompt with its rating summary and the can_edit hint for actor
func (s *promptService) Get(ctx context.Context, actor *shared.Identity, id string) (*PromptDetail, error) {
	if !validID(id) {
		return nil, ErrNotFound
	}

	prompt, err := s.promptRepo.GetByID(ctx, id)
	if err != nil {
		return nil, storeErr("load prompt", err)
	}

	summary, err := s.ratings.GetSummary(ctx, id)
	if err != nil {
		return nil, err
	}

	return &PromptDetail{
		Prompt:  prompt,
		Summary: summary,
		CanEdit: CanMutate(actor, prompt.UserID),
	}, nil
}

// List returns the feed newest first; a non-empty query filters on title or description
func (s *promptService) List(ctx context.Context, query string) ([]models.Prompt, error) {
	prompts, err := s.promptRepo.Search(ctx, query)
	if err != nil {
		return nil, storeErr("list prompts", err)
	}
	return prompts, nil
}

// EditForm returns the prompt for pre-filling the edit form, only to its creator
func (s *promptService) EditForm(ctx context.Context, actor *shared.Identity, id string) (*models.Prompt, error) {
	if err := s.guard.Authorize(ctx, actor, id, OpEdit); err != nil {
		return nil, err
	}
	prompt, err := s.promptRepo.GetByID(ctx, id)
	if err != nil {
		return nil, storeErr("load prompt", err)
	}
	return prompt, nil
}

// Update changes title, description and prompt text. The creator and image stay as they are.
func (s *promptService) Update(ctx context.Context, actor *shared.Identity, id string, in UpdatePromptInput) (*models.Prompt, error) {
	if actor == nil {
		return nil, ErrUnauthenticated
	}

	changes := repository.PromptChanges{
		Title:      strings.TrimSpace(in.Title),
		PromptText: strings.TrimSpace(in.PromptText),
	}
	if in.Description != nil {
		changes.Description = optionalText(*in.Description)
	}
	if changes.Title == "" {
		return nil, invalidInput("title is required")
	}
	if changes.PromptText == "" {
		return nil, invalidInput("prompt text is required")
	}

	if err := s.guard.Authorize(ctx, actor, id, OpUpdate); err != nil {
		return nil, err
	}

	// the write is scoped to the creator as well
	if err := s.promptRepo.UpdateOwned(ctx, id, actor.ID, changes); err != nil {
		return nil, storeErr("update prompt", err)
	}

	prompt, err := s.promptRepo.GetByID(ctx, id)
	if err != nil {
		return nil, storeErr("load prompt", err)
	}

	s.logger.InfoContext(ctx, "prompt_updated", "prompt_id", id, "user_id", actor.ID)
	return prompt, nil
}

// Delete removes the prompt together with its ratings and comments
func (s *promptService) Delete(ctx context.Context, actor *shared.Identity, id string) error {
	if err := s.guard.Authorize(ctx, actor, id, OpDelete); err != nil {
		return err
	}

	if err := s.promptRepo.DeleteOwned(ctx, id, actor.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("delete prompt: %w", ErrNotFound)
		}
		return storeErr("delete prompt", err)
	}

	if err := s.summaryCache.Invalidate(ctx, id); err != nil {
		s.logger.ErrorContext(ctx, "summary_cache_invalidate_failed", "prompt_id", id, "error", err)
	}

	s.logger.InfoContext(ctx, "prompt_deleted", "prompt_id", id, "user_id", actor.ID)
	return nil
}

func optionalText(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
