package handler

import (
	"net/http"

	"prompterest/internal/microservices/http-api/dto"
	"prompterest/internal/microservices/http-api/middleware"
	"prompterest/internal/microservices/http-api/service"

	"github.com/gin-gonic/gin"
)

type RatingHandler struct {
	ratingService service.RatingService
}

func NewRatingHandler(ratingService service.RatingService) *RatingHandler {
	return &RatingHandler{
		ratingService: ratingService,
	}
}

// RegisterRoutes registers rating routes on the /prompts group
func (h *RatingHandler) RegisterRoutes(router *gin.RouterGroup) {
	ratings := router.Group("/:id/ratings")
	{
		ratings.GET("/summary", h.GetSummary)

		ratings.POST("", middleware.RequireIdentity(), h.Submit)
		ratings.GET("/me", middleware.RequireIdentity(), h.GetUserRating)
	}
}

// Submit creates or overwrites the caller's rating and returns the fresh summary
// POST /api/prompts/:id/ratings
func (h *RatingHandler) Submit(c *gin.Context) {
	var req dto.SubmitRatingDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	promptID := c.Param("id")
	summary, err := h.ratingService.SubmitRating(c.Request.Context(), middleware.CurrentIdentity(c), promptID, req.Value)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromSummary(promptID, summary))
}

// GetSummary returns the average and count
// GET /api/prompts/:id/ratings/summary
func (h *RatingHandler) GetSummary(c *gin.Context) {
	promptID := c.Param("id")
	summary, err := h.ratingService.GetSummary(c.Request.Context(), promptID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromSummary(promptID, summary))
}

// GetUserRating returns the caller's own rating, value null when unrated
// GET /api/prompts/:id/ratings/me
func (h *RatingHandler) GetUserRating(c *gin.Context) {
	promptID := c.Param("id")
	rating, err := h.ratingService.GetUserRating(c.Request.Context(), middleware.CurrentIdentity(c), promptID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromModelToUserRatingResponse(promptID, rating))
}
