package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/learnhub/learnhub-api/internal/middleware"
	"github.com/learnhub/learnhub-api/internal/service"
	"github.com/learnhub/learnhub-api/pkg/response"
)

// EnrollmentHandler exposes enrollment, progress and certificate
// endpoints.
type EnrollmentHandler struct {
	enrollments *service.EnrollmentService
}

// NewEnrollmentHandler creates an EnrollmentHandler.
func NewEnrollmentHandler(enrollments *service.EnrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{enrollments: enrollments}
}

// Enroll godoc
// @Summary Enroll in an approved course
// @Tags enrollments
// @Produce json
// @Param id path string true "course id"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /courses/{id}/enroll [post]
func (h *EnrollmentHandler) Enroll(c *gin.Context) {
	claims := middleware.ClaimsFrom(c)
	enrollment, err := h.enrollments.Enroll(c.Request.Context(), claims, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, enrollment)
}

// ListMine returns the student's enrollments.
func (h *EnrollmentHandler) ListMine(c *gin.Context) {
	claims := middleware.ClaimsFrom(c)
	enrollments, err := h.enrollments.ListMine(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollments, nil)
}

// CompleteLesson marks a lesson complete; the response carries the
// certificate only when this call finished the course.
func (h *EnrollmentHandler) CompleteLesson(c *gin.Context) {
	claims := middleware.ClaimsFrom(c)
	result, err := h.enrollments.CompleteLesson(c.Request.Context(), claims, c.Param("id"), c.Param("lessonID"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Pause pauses an enrollment.
func (h *EnrollmentHandler) Pause(c *gin.Context) {
	h.setPaused(c, true)
}

// Resume resumes a paused enrollment.
func (h *EnrollmentHandler) Resume(c *gin.Context) {
	h.setPaused(c, false)
}

func (h *EnrollmentHandler) setPaused(c *gin.Context, paused bool) {
	claims := middleware.ClaimsFrom(c)
	enrollment, err := h.enrollments.SetPaused(c.Request.Context(), claims.UserID, c.Param("courseID"), paused)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollment, nil)
}

// Progress returns the live progress projection.
func (h *EnrollmentHandler) Progress(c *gin.Context) {
	claims := middleware.ClaimsFrom(c)
	progress, err := h.enrollments.Progress(c.Request.Context(), claims.UserID, c.Param("courseID"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, progress, nil)
}

// ListCertificates returns the student's certificates.
func (h *EnrollmentHandler) ListCertificates(c *gin.Context) {
	claims := middleware.ClaimsFrom(c)
	certs, err := h.enrollments.ListCertificates(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, certs, nil)
}

// GetCertificate returns one certificate.
func (h *EnrollmentHandler) GetCertificate(c *gin.Context) {
	claims := middleware.ClaimsFrom(c)
	cert, err := h.enrollments.GetCertificate(c.Request.Context(), claims, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cert, nil)
}

// DownloadCertificate streams the certificate as a PDF.
func (h *EnrollmentHandler) DownloadCertificate(c *gin.Context) {
	claims := middleware.ClaimsFrom(c)
	pdf, err := h.enrollments.CertificatePDF(c.Request.Context(), claims, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=certificate-%s.pdf", c.Param("id")))
	c.Data(http.StatusOK, "application/pdf", pdf)
}
