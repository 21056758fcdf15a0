package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/learnhub/learnhub-api/internal/middleware"
	"github.com/learnhub/learnhub-api/internal/models"
	"github.com/learnhub/learnhub-api/internal/service"
	appErrors "github.com/learnhub/learnhub-api/pkg/errors"
	"github.com/learnhub/learnhub-api/pkg/response"
)

// ReviewHandler exposes review submission and moderation.
type ReviewHandler struct {
	reviews *service.ReviewService
}

// NewReviewHandler creates a ReviewHandler.
func NewReviewHandler(reviews *service.ReviewService) *ReviewHandler {
	return &ReviewHandler{reviews: reviews}
}

// Submit godoc
// @Summary Post a review for an enrolled course
// @Tags reviews
// @Accept json
// @Produce json
// @Param id path string true "course id"
// @Param request body models.SubmitReviewRequest true "review payload"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /courses/{id}/reviews [post]
func (h *ReviewHandler) Submit(c *gin.Context) {
	claims := middleware.ClaimsFrom(c)
	var req models.SubmitReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}

	review, err := h.reviews.Submit(c.Request.Context(), claims, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, review)
}

// ListByCourse returns a course's visible reviews. Admin sessions may
// pass include_flagged=true to see the moderation state inline.
func (h *ReviewHandler) ListByCourse(c *gin.Context) {
	claims := middleware.ClaimsFrom(c)
	includeFlagged := c.Query("include_flagged") == "true" &&
		claims != nil && claims.Role == models.RoleAdmin

	reviews, err := h.reviews.ListByCourse(c.Request.Context(), c.Param("id"), includeFlagged)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, reviews, nil)
}

// Delete removes a review for its author or an admin.
func (h *ReviewHandler) Delete(c *gin.Context) {
	claims := middleware.ClaimsFrom(c)
	if err := h.reviews.Delete(c.Request.Context(), claims, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListFlagged returns the moderation queue.
func (h *ReviewHandler) ListFlagged(c *gin.Context) {
	reviews, err := h.reviews.ListFlagged(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, reviews, nil)
}

// Moderate resolves a flagged review.
func (h *ReviewHandler) Moderate(c *gin.Context) {
	var req struct {
		Approve bool `json:"approve"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}

	if err := h.reviews.Moderate(c.Request.Context(), c.Param("id"), req.Approve); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
