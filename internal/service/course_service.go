package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/learnhub/learnhub-api/internal/models"
	appErrors "github.com/learnhub/learnhub-api/pkg/errors"
)

// CourseStore is the persistence surface for course management.
type CourseStore interface {
	Create(ctx context.Context, course *models.Course) error
	FindByID(ctx context.Context, id string) (*models.Course, error)
	FindDetailByID(ctx context.Context, id string) (*models.CourseDetail, error)
	ListByInstructor(ctx context.Context, instructorID string) ([]models.Course, error)
	ListByStatus(ctx context.Context, status models.CourseStatus) ([]models.Course, error)
	Update(ctx context.Context, id string, update models.CourseUpdate) error
	UpdateStatus(ctx context.Context, id string, status models.CourseStatus) error
	Delete(ctx context.Context, id string) error
	ListLessons(ctx context.Context, courseID string) ([]models.Lesson, error)
	CountLessons(ctx context.Context, courseID string) (int, error)
	AddLesson(ctx context.Context, lesson *models.Lesson) error
	RemoveLesson(ctx context.Context, courseID, lessonID string) error
	AddMaterial(ctx context.Context, material *models.Material) error
}

// enrollmentFinder lets the course service check whether a viewer is
// enrolled without depending on the full enrollment repository.
type enrollmentFinder interface {
	Find(ctx context.Context, studentID, courseID string) (*models.Enrollment, error)
}

// CourseService implements the course lifecycle: authoring, the
// approval state machine and content management.
type CourseService struct {
	store       CourseStore
	enrollments enrollmentFinder
	logger      *zap.Logger
	validate    *validator.Validate
}

// NewCourseService creates a CourseService.
func NewCourseService(store CourseStore, enrollments enrollmentFinder, logger *zap.Logger) *CourseService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseService{
		store:       store,
		enrollments: enrollments,
		logger:      logger,
		validate:    validator.New(),
	}
}

// Create opens a new course in Draft state.
func (s *CourseService) Create(ctx context.Context, claims *models.JWTClaims, req models.CreateCourseRequest) (*models.Course, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}
	if !models.ValidCategory(req.Category) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown category")
	}

	course := &models.Course{
		Title:          req.Title,
		Description:    req.Description,
		Price:          req.Price,
		Category:       req.Category,
		InstructorID:   claims.UserID,
		InstructorName: claims.FullName,
		Status:         models.CourseStatusDraft,
	}
	if err := s.store.Create(ctx, course); err != nil {
		return nil, err
	}

	s.logger.Info("course created", zap.String("course_id", course.ID), zap.String("instructor_id", claims.UserID))
	return course, nil
}

// Get returns one course.
func (s *CourseService) Get(ctx context.Context, id string) (*models.Course, error) {
	course, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, err
	}
	return course, nil
}

// Detail returns the full course content for its owner, an admin or an
// enrolled student.
func (s *CourseService) Detail(ctx context.Context, claims *models.JWTClaims, courseID string) (*models.CourseDetail, error) {
	detail, err := s.store.FindDetailByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, err
	}
	if s.canViewContent(ctx, claims, &detail.Course) {
		return detail, nil
	}
	return nil, appErrors.Clone(appErrors.ErrForbidden, "enroll to access course content")
}

// Preview returns the public projection of an approved course: course
// metadata, the lesson count and free-preview lessons only.
func (s *CourseService) Preview(ctx context.Context, courseID string) (*models.CoursePreview, error) {
	course, err := s.Get(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if course.Status != models.CourseStatusApproved {
		return nil, appErrors.ErrNotFound
	}

	lessons, err := s.store.ListLessons(ctx, courseID)
	if err != nil {
		return nil, err
	}
	preview := &models.CoursePreview{Course: *course, TotalLessons: len(lessons)}
	for _, lesson := range lessons {
		if lesson.IsFreePreview {
			preview.PreviewLessons = append(preview.PreviewLessons, lesson)
		}
	}
	return preview, nil
}

// ListMine returns the instructor's own courses in every state.
func (s *CourseService) ListMine(ctx context.Context, instructorID string) ([]models.Course, error) {
	return s.store.ListByInstructor(ctx, instructorID)
}

// ListPending returns the admin review queue, oldest submission first.
func (s *CourseService) ListPending(ctx context.Context) ([]models.Course, error) {
	return s.store.ListByStatus(ctx, models.CourseStatusPending)
}

// Categories returns the fixed category enumeration.
func (s *CourseService) Categories() []models.CourseCategory {
	return models.Categories()
}

// Update applies a partial edit to an owned course.
func (s *CourseService) Update(ctx context.Context, claims *models.JWTClaims, courseID string, update models.CourseUpdate) (*models.Course, error) {
	if err := s.validate.Struct(update); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course update")
	}
	if update.Category != nil && !models.ValidCategory(*update.Category) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown category")
	}

	course, err := s.getOwned(ctx, claims, courseID)
	if err != nil {
		return nil, err
	}
	if err := s.store.Update(ctx, course.ID, update); err != nil {
		return nil, err
	}
	return s.Get(ctx, courseID)
}

// Delete removes a course. Only the owner or an admin may delete;
// enrollments and issued certificates survive the deletion.
func (s *CourseService) Delete(ctx context.Context, claims *models.JWTClaims, courseID string) error {
	course, err := s.Get(ctx, courseID)
	if err != nil {
		return err
	}
	if course.InstructorID != claims.UserID && claims.Role != models.RoleAdmin {
		return appErrors.ErrForbidden
	}

	if err := s.store.Delete(ctx, courseID); err != nil {
		return err
	}
	s.logger.Info("course deleted", zap.String("course_id", courseID), zap.String("by", claims.UserID))
	return nil
}

// AddLesson appends a lesson to an owned course.
func (s *CourseService) AddLesson(ctx context.Context, claims *models.JWTClaims, courseID string, req models.AddLessonRequest) (*models.Lesson, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid lesson payload")
	}

	course, err := s.getOwned(ctx, claims, courseID)
	if err != nil {
		return nil, err
	}

	lesson := &models.Lesson{
		CourseID:      course.ID,
		Title:         req.Title,
		Content:       req.Content,
		Duration:      req.Duration,
		VideoURL:      req.VideoURL,
		IsFreePreview: req.IsFreePreview,
	}
	if err := s.store.AddLesson(ctx, lesson); err != nil {
		return nil, err
	}
	return lesson, nil
}

// RemoveLesson deletes a lesson; the remaining lessons are renumbered
// so positions stay dense.
func (s *CourseService) RemoveLesson(ctx context.Context, claims *models.JWTClaims, courseID, lessonID string) error {
	if _, err := s.getOwned(ctx, claims, courseID); err != nil {
		return err
	}
	if err := s.store.RemoveLesson(ctx, courseID, lessonID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "lesson not found")
		}
		return err
	}
	return nil
}

// AddMaterial attaches supplementary material to an owned course.
func (s *CourseService) AddMaterial(ctx context.Context, claims *models.JWTClaims, courseID string, req models.AddMaterialRequest) (*models.Material, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid material payload")
	}
	if !models.ValidMaterialType(req.Type) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown material type")
	}

	course, err := s.getOwned(ctx, claims, courseID)
	if err != nil {
		return nil, err
	}

	material := &models.Material{
		CourseID: course.ID,
		Type:     req.Type,
		Title:    req.Title,
		Content:  req.Content,
	}
	if err := s.store.AddMaterial(ctx, material); err != nil {
		return nil, err
	}
	return material, nil
}

// SubmitForApproval moves an owned Draft or Rejected course with at
// least one lesson into the review queue.
func (s *CourseService) SubmitForApproval(ctx context.Context, claims *models.JWTClaims, courseID string) (*models.Course, error) {
	course, err := s.getOwned(ctx, claims, courseID)
	if err != nil {
		return nil, err
	}
	if course.Status != models.CourseStatusDraft && course.Status != models.CourseStatusRejected {
		return nil, appErrors.Clone(appErrors.ErrConflict, "only draft or rejected courses can be submitted")
	}

	lessons, err := s.store.CountLessons(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if lessons == 0 {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "course needs at least one lesson before submission")
	}

	if err := s.store.UpdateStatus(ctx, courseID, models.CourseStatusPending); err != nil {
		return nil, err
	}
	course.Status = models.CourseStatusPending
	s.logger.Info("course submitted for approval", zap.String("course_id", courseID))
	return course, nil
}

// Decide records an admin's approval verdict. The decision applies
// regardless of the course's current state.
func (s *CourseService) Decide(ctx context.Context, adminID, courseID string, approve bool) (*models.Course, error) {
	course, err := s.Get(ctx, courseID)
	if err != nil {
		return nil, err
	}

	status := models.CourseStatusApproved
	if !approve {
		status = models.CourseStatusRejected
	}
	if err := s.store.UpdateStatus(ctx, courseID, status); err != nil {
		return nil, err
	}
	course.Status = status

	s.logger.Info("course reviewed",
		zap.String("course_id", courseID),
		zap.String("admin_id", adminID),
		zap.String("status", string(status)))
	return course, nil
}

func (s *CourseService) getOwned(ctx context.Context, claims *models.JWTClaims, courseID string) (*models.Course, error) {
	course, err := s.Get(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if course.InstructorID != claims.UserID {
		return nil, appErrors.ErrForbidden
	}
	return course, nil
}

func (s *CourseService) canViewContent(ctx context.Context, claims *models.JWTClaims, course *models.Course) bool {
	if claims == nil {
		return false
	}
	if claims.Role == models.RoleAdmin || course.InstructorID == claims.UserID {
		return true
	}
	if _, err := s.enrollments.Find(ctx, claims.UserID, course.ID); err == nil {
		return true
	}
	return false
}
