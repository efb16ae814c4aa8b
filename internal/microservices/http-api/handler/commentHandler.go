package handler

import (
	"net/http"

	"prompterest/internal/microservices/http-api/dto"
	"prompterest/internal/microservices/http-api/middleware"
	"prompterest/internal/microservices/http-api/service"

	"github.com/gin-gonic/gin"
)

type CommentHandler struct {
	commentService service.CommentService
}

func NewCommentHandler(commentService service.CommentService) *CommentHandler {
	return &CommentHandler{
		commentService: commentService,
	}
}

// RegisterRoutes registers comment routes on the /prompts group
func (h *CommentHandler) RegisterRoutes(router *gin.RouterGroup) {
	comments := router.Group("/:id/comments")
	{
		comments.GET("", h.List)
		comments.POST("", middleware.RequireIdentity(), h.Create)
	}
}

// Create adds a comment to a prompt
// POST /api/prompts/:id/comments
func (h *CommentHandler) Create(c *gin.Context) {
	var req dto.CreateCommentDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	comment, err := h.commentService.CreateComment(c.Request.Context(), middleware.CurrentIdentity(c), c.Param("id"), req.Content)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.FromModelToCommentResponse(comment))
}

// List returns the thread newest first
// GET /api/prompts/:id/comments
func (h *CommentHandler) List(c *gin.Context) {
	comments, err := h.commentService.GetPromptComments(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewCommentListResponse(comments))
}
