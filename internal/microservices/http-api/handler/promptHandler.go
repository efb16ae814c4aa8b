package handler

import (
	"bytes"
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"prompterest/internal/microservices/http-api/dto"
	"prompterest/internal/microservices/http-api/middleware"
	"prompterest/internal/microservices/http-api/service"

	"github.com/gin-gonic/gin"
)

// formOverhead is the room left for text fields and part headers on top of the image
const formOverhead = 1 << 20

type PromptHandler struct {
	promptService service.PromptService
	maxBodyBytes  int64 // 0 leaves request bodies unbounded
}

func NewPromptHandler(promptService service.PromptService, maxUploadBytes int64) *PromptHandler {
	h := &PromptHandler{promptService: promptService}
	if maxUploadBytes > 0 {
		h.maxBodyBytes = maxUploadBytes + formOverhead
	}
	return h
}

// RegisterRoutes registers prompt routes on the /prompts group
func (h *PromptHandler) RegisterRoutes(router *gin.RouterGroup) {
	// Public routes
	router.GET("", h.List)
	router.GET("/:id", h.Get)
	router.GET("/:id/edit", h.EditForm)

	// Write routes
	router.POST("", middleware.RequireIdentity(), h.Create)
	router.PUT("/:id", middleware.RequireIdentity(), h.Update)
	router.DELETE("/:id", middleware.RequireIdentity(), h.Delete)
}

// List returns the feed, optionally filtered
// GET /api/prompts?q=neon
func (h *PromptHandler) List(c *gin.Context) {
	var query dto.SearchQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	prompts, err := h.promptService.List(c.Request.Context(), query.Q)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewPromptListResponse(prompts, query.Q))
}

// Create publishes a prompt from a multipart form with an optional "image" file
// POST /api/prompts
func (h *PromptHandler) Create(c *gin.Context) {
	if h.maxBodyBytes > 0 {
		if c.Request.ContentLength > h.maxBodyBytes {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "request body too large"})
			return
		}
		// chunked bodies carry no length, so cut the read off instead
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBodyBytes)
	}

	var form dto.CreatePromptForm
	if err := c.ShouldBind(&form); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "request body too large"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	in := service.CreatePromptInput{
		Title:       form.Title,
		Description: form.Description,
		PromptText:  form.PromptText,
	}

	fileHeader, err := c.FormFile("image")
	switch {
	case errors.Is(err, http.ErrMissingFile):
		// image is optional
	case err != nil:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	default:
		file, err := fileHeader.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable image"})
			return
		}
		defer file.Close()

		image, err := sniffImage(fileHeader, file)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable image"})
			return
		}
		in.Image = image
	}

	prompt, err := h.promptService.Create(c.Request.Context(), middleware.CurrentIdentity(c), in)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.FromModelToPromptResponse(prompt))
}

// sniffImage detects the content type from the first bytes instead of trusting the client header
func sniffImage(fh *multipart.FileHeader, file multipart.File) (*service.ImageUpload, error) {
	head := make([]byte, 512)
	n, err := io.ReadFull(file, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, err
	}
	head = head[:n]

	return &service.ImageUpload{
		Filename:    fh.Filename,
		ContentType: http.DetectContentType(head),
		Size:        fh.Size,
		Body:        io.MultiReader(bytes.NewReader(head), file),
	}, nil
}

// Get returns one prompt with its rating summary and can_edit for the caller
// GET /api/prompts/:id
func (h *PromptHandler) Get(c *gin.Context) {
	detail, err := h.promptService.Get(c.Request.Context(), middleware.CurrentIdentity(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.PromptDetailResponse{
		PromptResponse: *dto.FromModelToPromptResponse(detail.Prompt),
		Rating:         *dto.FromSummary(detail.Prompt.ID, detail.Summary),
		CanEdit:        detail.CanEdit,
	})
}

// EditForm returns the current values for the edit form; anyone but the creator is sent back to the detail view
// GET /api/prompts/:id/edit
func (h *PromptHandler) EditForm(c *gin.Context) {
	id := c.Param("id")
	prompt, err := h.promptService.EditForm(c.Request.Context(), middleware.CurrentIdentity(c), id)
	if errors.Is(err, service.ErrForbidden) || errors.Is(err, service.ErrUnauthenticated) {
		c.Redirect(http.StatusSeeOther, "/api/prompts/"+id)
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromModelToPromptResponse(prompt))
}

// Update edits title, description and prompt text
// PUT /api/prompts/:id
func (h *PromptHandler) Update(c *gin.Context) {
	var req dto.UpdatePromptDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	prompt, err := h.promptService.Update(c.Request.Context(), middleware.CurrentIdentity(c), c.Param("id"), service.UpdatePromptInput{
		Title:       req.Title,
		Description: req.Description,
		PromptText:  req.PromptText,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromModelToPromptResponse(prompt))
}

// Delete removes a prompt with its ratings and comments
// DELETE /api/prompts/:id
func (h *PromptHandler) Delete(c *gin.Context) {
	if err := h.promptService.Delete(c.Request.Context(), middleware.CurrentIdentity(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
