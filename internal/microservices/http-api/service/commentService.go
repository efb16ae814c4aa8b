package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"prompterest/internal/microservices/http-api/models"
	"prompterest/internal/microservices/http-api/repository"
	"prompterest/internal/shared"

	"gorm.io/gorm"
)

const maxCommentLength = 5000

type CommentService interface {
	CreateComment(ctx context.Context, actor *shared.Identity, promptID, content string) (*models.Comment, error)
	GetPromptComments(ctx context.Context, promptID string) ([]models.Comment, error)
}

type commentService struct {
	commentRepo repository.CommentRepository
	promptRepo  repository.PromptRepository
	logger      *slog.Logger
}

func NewCommentService(commentRepo repository.CommentRepository, promptRepo repository.PromptRepository, logger *slog.Logger) CommentService {
	if logger == nil {
		logger = slog.Default()
	}
	return &commentService{
		commentRepo: commentRepo,
		promptRepo:  promptRepo,
		logger:      logger,
	}
}

// CreateComment adds a comment by actor under the prompt
func (s *commentService) CreateComment(ctx context.Context, actor *shared.Identity, promptID, content string) (*models.Comment, error) {
	if actor == nil {
		return nil, ErrUnauthenticated
	}

	content = strings.TrimSpace(content)
	if content == "" {
		return nil, invalidInput("comment cannot be empty")
	}
	if utf8.RuneCountInString(content) > maxCommentLength {
		return nil, invalidInput("comment exceeds %d characters", maxCommentLength)
	}

	// Check if prompt exists
	if !validID(promptID) {
		return nil, ErrNotFound
	}
	if _, err := s.promptRepo.GetCreatorID(ctx, promptID); err != nil {
		return nil, storeErr("load prompt", err)
	}

	comment := &models.Comment{
		PromptID: promptID,
		UserID:   actor.ID,
		Content:  content,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		if errors.Is(err, gorm.ErrForeignKeyViolated) {
			return nil, fmt.Errorf("create comment: %w", ErrNotFound)
		}
		return nil, storeErr("create comment", err)
	}
	comment.User = models.User{ID: actor.ID, Username: actor.Handle}

	s.logger.InfoContext(ctx, "comment_created", "comment_id", comment.ID, "prompt_id", promptID, "user_id", actor.ID)
	return comment, nil
}

// GetPromptComments lists the thread newest first
func (s *commentService) GetPromptComments(ctx context.Context, promptID string) ([]models.Comment, error) {
	if !validID(promptID) {
		return nil, ErrNotFound
	}
	if _, err := s.promptRepo.GetCreatorID(ctx, promptID); err != nil {
		return nil, storeErr("load prompt", err)
	}

	comments, err := s.commentRepo.ListByPrompt(ctx, promptID)
	if err != nil {
		return nil, storeErr("list comments", err)
	}
	return comments, nil
}
