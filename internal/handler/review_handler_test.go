package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/learnhub/learnhub-api/internal/middleware"
	"github.com/learnhub/learnhub-api/internal/models"
	"github.com/learnhub/learnhub-api/internal/service"
	"github.com/learnhub/learnhub-api/pkg/config"
	"github.com/learnhub/learnhub-api/pkg/response"
)

type reviewStoreStub struct {
	created *models.Review
	reviews []models.Review
}

func (m *reviewStoreStub) Create(ctx context.Context, review *models.Review) error {
	review.ID = "rev-new"
	m.created = review
	return nil
}

func (m *reviewStoreStub) FindByID(ctx context.Context, id string) (*models.Review, error) {
	return nil, sql.ErrNoRows
}

func (m *reviewStoreStub) FindByStudentAndCourse(ctx context.Context, studentID, courseID string) (*models.Review, error) {
	return nil, sql.ErrNoRows
}

func (m *reviewStoreStub) ListByCourse(ctx context.Context, courseID string, includeFlagged bool) ([]models.Review, error) {
	return m.reviews, nil
}

func (m *reviewStoreStub) ListFlagged(ctx context.Context) ([]models.Review, error) {
	return nil, nil
}

func (m *reviewStoreStub) CountRecentByStudent(ctx context.Context, studentID string, since time.Time) (int, error) {
	return 0, nil
}

func (m *reviewStoreStub) SetFlagged(ctx context.Context, id string, flagged bool) error { return nil }

func (m *reviewStoreStub) Delete(ctx context.Context, id string) error { return nil }

type ratingCoursesStub struct {
	course       *models.Course
	recalculated []string
}

func (m *ratingCoursesStub) FindByID(ctx context.Context, id string) (*models.Course, error) {
	if m.course != nil && m.course.ID == id {
		return m.course, nil
	}
	return nil, sql.ErrNoRows
}

func (m *ratingCoursesStub) RecalculateRating(ctx context.Context, courseID string) error {
	m.recalculated = append(m.recalculated, courseID)
	return nil
}

type enrollmentFinderStub struct {
	enrollment *models.Enrollment
}

func (m *enrollmentFinderStub) Find(ctx context.Context, studentID, courseID string) (*models.Enrollment, error) {
	if m.enrollment != nil {
		return m.enrollment, nil
	}
	return nil, sql.ErrNoRows
}

func newGinContext(method, path string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	return c, w
}

func newReviewHandlerFixture(store *reviewStoreStub, courses *ratingCoursesStub, enrollments *enrollmentFinderStub) *ReviewHandler {
	svc := service.NewReviewService(store, courses, enrollments, nil, config.ReviewsConfig{}, nil)
	return NewReviewHandler(svc)
}

func TestReviewHandlerSubmit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := &reviewStoreStub{}
	courses := &ratingCoursesStub{course: &models.Course{ID: "course-1", Status: models.CourseStatusApproved}}
	enrollments := &enrollmentFinderStub{enrollment: &models.Enrollment{ID: "enr-1", StudentID: "stu-1", CourseID: "course-1", ProgressPercent: 40}}
	h := newReviewHandlerFixture(store, courses, enrollments)

	payload, _ := json.Marshal(models.SubmitReviewRequest{Rating: 5, Comment: "clear and well paced"})
	c, w := newGinContext(http.MethodPost, "/courses/course-1/reviews", payload)
	c.Params = gin.Params{{Key: "id", Value: "course-1"}}
	c.Set(middleware.ClaimsKey, &models.JWTClaims{UserID: "stu-1", Role: models.RoleStudent, ActingRole: models.RoleStudent, FullName: "Jane Doe"})

	h.Submit(c)
	require.Equal(t, http.StatusCreated, w.Code)
	require.NotNil(t, store.created)
	require.Equal(t, []string{"course-1"}, courses.recalculated)
}

func TestReviewHandlerSubmitRejectsMalformedBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := newReviewHandlerFixture(&reviewStoreStub{}, &ratingCoursesStub{}, &enrollmentFinderStub{})

	c, w := newGinContext(http.MethodPost, "/courses/course-1/reviews", []byte("{"))
	c.Params = gin.Params{{Key: "id", Value: "course-1"}}
	c.Set(middleware.ClaimsKey, &models.JWTClaims{UserID: "stu-1", Role: models.RoleStudent, ActingRole: models.RoleStudent})

	h.Submit(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReviewHandlerListHidesFlaggedFromStudents(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := &reviewStoreStub{reviews: []models.Review{{ID: "rev-1", CourseID: "course-1", Rating: 5}}}
	courses := &ratingCoursesStub{course: &models.Course{ID: "course-1", Status: models.CourseStatusApproved}}
	h := newReviewHandlerFixture(store, courses, &enrollmentFinderStub{})

	c, w := newGinContext(http.MethodGet, "/courses/course-1/reviews?include_flagged=true", nil)
	c.Params = gin.Params{{Key: "id", Value: "course-1"}}
	c.Set(middleware.ClaimsKey, &models.JWTClaims{UserID: "stu-1", Role: models.RoleStudent, ActingRole: models.RoleStudent})

	h.ListByCourse(c)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.NotNil(t, envelope.Data)
}
