package dto

import (
	"time"

	"prompterest/internal/microservices/http-api/models"
)

// CreateCommentDTO for creating a comment
type CreateCommentDTO struct {
	Content string `json:"content" binding:"required,min=1,max=5000"`
}

// CommentResponse for returning comment information
type CommentResponse struct {
	ID        string    `json:"id"`
	PromptID  string    `json:"prompt_id"`
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// FromModelToCommentResponse converts a Comment model to CommentResponse DTO
func FromModelToCommentResponse(comment *models.Comment) *CommentResponse {
	return &CommentResponse{
		ID:        comment.ID,
		PromptID:  comment.PromptID,
		UserID:    comment.UserID,
		Username:  comment.User.Username,
		Content:   comment.Content,
		CreatedAt: comment.CreatedAt,
	}
}

// CommentListResponse wraps the newest-first comment thread of one prompt
type CommentListResponse struct {
	Data  []CommentResponse `json:"data"`
	Total int               `json:"total"`
}

func NewCommentListResponse(comments []models.Comment) *CommentListResponse {
	data := make([]CommentResponse, 0, len(comments))
	for i := range comments {
		data = append(data, *FromModelToCommentResponse(&comments[i]))
	}
	return &CommentListResponse{Data: data, Total: len(data)}
}
