package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/learnhub/learnhub-api/internal/middleware"
	"github.com/learnhub/learnhub-api/internal/models"
	"github.com/learnhub/learnhub-api/internal/service"
	appErrors "github.com/learnhub/learnhub-api/pkg/errors"
	"github.com/learnhub/learnhub-api/pkg/response"
)

// SearchHandler exposes catalog discovery.
type SearchHandler struct {
	search *service.SearchService
}

// NewSearchHandler creates a SearchHandler.
func NewSearchHandler(search *service.SearchService) *SearchHandler {
	return &SearchHandler{search: search}
}

// Search godoc
// @Summary Search approved courses
// @Tags catalog
// @Produce json
// @Param q query string false "free text over title, description, instructor"
// @Param category query string false "category filter"
// @Param min_rating query number false "minimum average rating"
// @Param sort query string false "popularity | newest | highest-rated | price-low | price-high"
// @Success 200 {object} response.Envelope
// @Router /courses [get]
func (h *SearchHandler) Search(c *gin.Context) {
	filter := models.CourseFilter{
		Query:    c.Query("q"),
		Category: models.CourseCategory(c.Query("category")),
		SortBy:   c.Query("sort"),
		Page:     queryInt(c, "page", 1),
		PageSize: queryInt(c, "page_size", 20),
	}
	if raw := c.Query("min_rating"); raw != "" {
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "min_rating must be a number"))
			return
		}
		filter.MinRating = value
	}
	if raw := c.Query("min_price"); raw != "" {
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "min_price must be a number"))
			return
		}
		filter.MinPrice = &value
	}
	if raw := c.Query("max_price"); raw != "" {
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "max_price must be a number"))
			return
		}
		filter.MaxPrice = &value
	}

	courses, pagination, err := h.search.Search(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, courses, pagination)
}

// Recommendations suggests courses for the authenticated student.
func (h *SearchHandler) Recommendations(c *gin.Context) {
	claims := middleware.ClaimsFrom(c)
	courses, err := h.search.Recommendations(c.Request.Context(), claims.UserID, queryInt(c, "limit", 10))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, courses, nil)
}
