package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"prompterest/internal/microservices/http-api/models"

	"gorm.io/gorm"
)

// PromptChanges is the editable subset of a prompt. The creator is not part of it.
type PromptChanges struct {
	Title       string
	Description *string
	PromptText  string
}

type PromptRepository interface {
	Create(ctx context.Context, p *models.Prompt) error
	GetByID(ctx context.Context, id string) (*models.Prompt, error)
	GetCreatorID(ctx context.Context, id string) (string, error)
	List(ctx context.Context) ([]models.Prompt, error)
	Search(ctx context.Context, query string) ([]models.Prompt, error)
	UpdateOwned(ctx context.Context, id, ownerID string, changes PromptChanges) error
	DeleteOwned(ctx context.Context, id, ownerID string) error
}

type promptRepository struct {
	db *gorm.DB
}

func NewPromptRepository(db *gorm.DB) PromptRepository {
	return &promptRepository{db: db}
}

func (r *promptRepository) Create(ctx context.Context, p *models.Prompt) error {
	if err := r.db.WithContext(ctx).Omit("User").Create(p).Error; err != nil {
		return fmt.Errorf("create prompt: %w", err)
	}
	// GORM populates CreatedAt/UpdatedAt, BeforeCreate sets the ID
	return nil
}

func (r *promptRepository) GetByID(ctx context.Context, id string) (*models.Prompt, error) {
	var p models.Prompt
	if err := r.db.WithContext(ctx).Preload("User").First(&p, "id = ?", id).Error; err != nil {
		return nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("get prompt %s: %w", id, err)
	}
	return &p, nil
}

// GetCreatorID reads only the stored creator id, for ownership checks
func (r *promptRepository) GetCreatorID(ctx context.Context, id string) (string, error) {
	var creator struct {
		UserID string
	}
	result := r.db.WithContext(ctx).
		Model(&models.Prompt{}).
		Select("user_id").
		Where("id = ?", id).
		Limit(1).
		Scan(&creator)
	if result.Error != nil {
		return "", result.Error
	}
	if result.RowsAffected == 0 {
		return "", gorm.ErrRecordNotFound
	}
	if creator.UserID == "" {
		return "", fmt.Errorf("get creator of %s: %w", id, models.ErrMalformedPrompt)
	}
	return creator.UserID, nil
}

// List returns the whole feed, newest first
func (r *promptRepository) List(ctx context.Context) ([]models.Prompt, error) {
	var list []models.Prompt
	if err := r.db.WithContext(ctx).
		Preload("User").
		Order("created_at DESC").
		Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list prompts: %w", err)
	}
	return validPrompts(list)
}

// Search performs a case-insensitive substring match on title OR description.
// The query is matched as a whole, LIKE wildcards in it are escaped.
// Example: "neon city" -> WHERE title ILIKE '%neon city%' OR description ILIKE '%neon city%'
func (r *promptRepository) Search(ctx context.Context, query string) ([]models.Prompt, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return r.List(ctx)
	}

	var list []models.Prompt
	p := "%" + escapeLike(query) + "%"
	// use COALESCE to avoid NULL description causing ILIKE failure
	if err := r.db.WithContext(ctx).
		Preload("User").
		Where("title ILIKE ? OR COALESCE(description, '') ILIKE ?", p, p).
		Order("created_at DESC").
		Find(&list).Error; err != nil {
		return nil, fmt.Errorf("search prompts: %w", err)
	}
	return validPrompts(list)
}

// UpdateOwned writes the editable fields only when the row still belongs to ownerID.
// Zero affected rows is reported as gorm.ErrRecordNotFound.
func (r *promptRepository) UpdateOwned(ctx context.Context, id, ownerID string, changes PromptChanges) error {
	result := r.db.WithContext(ctx).
		Model(&models.Prompt{}).
		Where("id = ? AND user_id = ?", id, ownerID).
		Updates(map[string]any{
			"title":       changes.Title,
			"description": changes.Description,
			"prompt_text": changes.PromptText,
			"updated_at":  time.Now(),
		})
	if result.Error != nil {
		return fmt.Errorf("update prompt: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteOwned removes the prompt only when it still belongs to ownerID.
// Ratings and comments go with it through ON DELETE CASCADE.
func (r *promptRepository) DeleteOwned(ctx context.Context, id, ownerID string) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, ownerID).
		Delete(&models.Prompt{})
	if result.Error != nil {
		return fmt.Errorf("delete prompt: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func validPrompts(list []models.Prompt) ([]models.Prompt, error) {
	for i := range list {
		if err := list[i].Validate(); err != nil {
			return nil, fmt.Errorf("prompt %s: %w", list[i].ID, err)
		}
	}
	return list, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
