package handlers

import (
	"context"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Capstonepdm/Katipudroid/internal/dto"
	"github.com/Capstonepdm/Katipudroid/internal/http/middleware"
	"github.com/Capstonepdm/Katipudroid/internal/http/response"
	"github.com/Capstonepdm/Katipudroid/internal/models"
	"github.com/Capstonepdm/Katipudroid/internal/pkg/apperror"
)

const timestampLayout = "2006-01-02 15:04:05"

type FeedbackService interface {
	SubmitVerified(ctx context.Context, token string, in models.FeedbackInput) (*models.Feedback, error)
	List(ctx context.Context, limit int) ([]models.Feedback, error)
	Summary(ctx context.Context) (*models.RatingSummary, error)
}

type FeedbackHandler struct {
	feedbacks FeedbackService
	now       func() time.Time
}

func NewFeedbackHandler(feedbacks FeedbackService) *FeedbackHandler {
	return &FeedbackHandler{feedbacks: feedbacks, now: time.Now}
}

// Submit POST /api/feedbacks (требует токен подтверждения)
func (h *FeedbackHandler) Submit(c *gin.Context) {
	var req dto.SubmitFeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}
	if req.Rating == nil {
		response.Fail(c, apperror.Validation("Rating is required"))
		return
	}

	in := models.FeedbackInput{
		Name:      req.Name,
		Email:     req.Email,
		Message:   req.Message,
		Rating:    *req.Rating,
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}

	f, err := h.feedbacks.SubmitVerified(c.Request.Context(), middleware.VerificationToken(c), in)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Created(c, "Feedback submitted successfully!", gin.H{"id": f.ID.String()})
}

// List GET /api/feedbacks?limit=N
func (h *FeedbackHandler) List(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			response.BadRequest(c, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	items, err := h.feedbacks.List(c.Request.Context(), limit)
	if err != nil {
		response.Fail(c, err)
		return
	}

	response.Success(c, "", gin.H{
		"feedbacks":   dto.NewFeedbackList(items),
		"total_count": len(items),
		"timestamp":   h.now().Format(timestampLayout),
	})
}

// Summary GET /api/feedbacks/summary
func (h *FeedbackHandler) Summary(c *gin.Context) {
	summary, err := h.feedbacks.Summary(c.Request.Context())
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, "", gin.H{"summary": summary})
}
