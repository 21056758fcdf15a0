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

// CourseHandler exposes course authoring and the approval workflow.
type CourseHandler struct {
	courses *service.CourseService
}

// NewCourseHandler creates a CourseHandler.
func NewCourseHandler(courses *service.CourseService) *CourseHandler {
	return &CourseHandler{courses: courses}
}

// Create godoc
// @Summary Create a draft course
// @Tags courses
// @Accept json
// @Produce json
// @Param request body models.CreateCourseRequest true "course payload"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /courses [post]
func (h *CourseHandler) Create(c *gin.Context) {
	claims := middleware.ClaimsFrom(c)
	var req models.CreateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}

	course, err := h.courses.Create(c.Request.Context(), claims, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, course)
}

// Detail returns the full course content for authorized viewers.
func (h *CourseHandler) Detail(c *gin.Context) {
	claims := middleware.ClaimsFrom(c)
	detail, err := h.courses.Detail(c.Request.Context(), claims, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// Preview returns the public projection of an approved course.
func (h *CourseHandler) Preview(c *gin.Context) {
	preview, err := h.courses.Preview(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, preview, nil)
}

// ListMine returns the instructor's own courses.
func (h *CourseHandler) ListMine(c *gin.Context) {
	claims := middleware.ClaimsFrom(c)
	courses, err := h.courses.ListMine(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, courses, nil)
}

// Categories returns the fixed category enumeration.
func (h *CourseHandler) Categories(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.courses.Categories(), nil)
}

// Update applies a partial edit.
func (h *CourseHandler) Update(c *gin.Context) {
	claims := middleware.ClaimsFrom(c)
	var update models.CourseUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}

	course, err := h.courses.Update(c.Request.Context(), claims, c.Param("id"), update)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, course, nil)
}

// Delete removes a course.
func (h *CourseHandler) Delete(c *gin.Context) {
	claims := middleware.ClaimsFrom(c)
	if err := h.courses.Delete(c.Request.Context(), claims, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// AddLesson appends a lesson.
func (h *CourseHandler) AddLesson(c *gin.Context) {
	claims := middleware.ClaimsFrom(c)
	var req models.AddLessonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}

	lesson, err := h.courses.AddLesson(c.Request.Context(), claims, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, lesson)
}

// RemoveLesson deletes a lesson and renumbers the rest.
func (h *CourseHandler) RemoveLesson(c *gin.Context) {
	claims := middleware.ClaimsFrom(c)
	if err := h.courses.RemoveLesson(c.Request.Context(), claims, c.Param("id"), c.Param("lessonID")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// AddMaterial attaches supplementary material.
func (h *CourseHandler) AddMaterial(c *gin.Context) {
	claims := middleware.ClaimsFrom(c)
	var req models.AddMaterialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}

	material, err := h.courses.AddMaterial(c.Request.Context(), claims, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, material)
}

// Submit moves a course into the approval queue.
func (h *CourseHandler) Submit(c *gin.Context) {
	claims := middleware.ClaimsFrom(c)
	course, err := h.courses.SubmitForApproval(c.Request.Context(), claims, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, course, nil)
}

// ListPending returns the admin review queue.
func (h *CourseHandler) ListPending(c *gin.Context) {
	courses, err := h.courses.ListPending(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, courses, nil)
}

// Decide records an admin's approval verdict.
func (h *CourseHandler) Decide(c *gin.Context) {
	claims := middleware.ClaimsFrom(c)
	var req models.CourseDecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}

	course, err := h.courses.Decide(c.Request.Context(), claims.UserID, c.Param("id"), req.Approve)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, course, nil)
}
