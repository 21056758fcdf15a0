package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/learnhub/learnhub-api/internal/models"
	"github.com/learnhub/learnhub-api/internal/repository"
	appErrors "github.com/learnhub/learnhub-api/pkg/errors"
	"github.com/learnhub/learnhub-api/pkg/export"
)

// EnrollmentStore is the persistence surface for enrollment flows.
type EnrollmentStore interface {
	Find(ctx context.Context, studentID, courseID string) (*models.Enrollment, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.Enrollment, error)
	Create(ctx context.Context, enrollment *models.Enrollment) error
	CompleteLesson(ctx context.Context, studentID, courseID, lessonID string, candidate *models.Certificate) (*models.CompletionResult, error)
	SetPaused(ctx context.Context, enrollmentID string, paused bool) error
	ProgressRows(ctx context.Context, enrollmentID, courseID string) ([]models.LessonProgress, error)
}

// CertificateStore is the read surface for issued certificates.
type CertificateStore interface {
	FindByID(ctx context.Context, id string) (*models.Certificate, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.Certificate, error)
}

// courseReader is the slice of the course store the enrollment flows
// need.
type courseReader interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
	FindLesson(ctx context.Context, courseID, lessonID string) (*models.Lesson, error)
}

// EnrollmentService implements enrolling, lesson completion with
// certificate issuance, pause/resume and progress reads.
type EnrollmentService struct {
	store        EnrollmentStore
	courses      courseReader
	certificates CertificateStore
	rollups      RollupInvalidator
	pdf          *export.CertificatePDF
	logger       *zap.Logger
}

// NewEnrollmentService creates an EnrollmentService. rollups is
// optional.
func NewEnrollmentService(store EnrollmentStore, courses courseReader, certificates CertificateStore, rollups RollupInvalidator, pdf *export.CertificatePDF, logger *zap.Logger) *EnrollmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if pdf == nil {
		pdf = export.NewCertificatePDF()
	}
	return &EnrollmentService{
		store:        store,
		courses:      courses,
		certificates: certificates,
		rollups:      rollups,
		pdf:          pdf,
		logger:       logger,
	}
}

// Enroll creates an enrollment in an approved course. Instructors
// cannot enroll in their own course, and a second enrollment in the
// same course is a conflict.
func (s *EnrollmentService) Enroll(ctx context.Context, claims *models.JWTClaims, courseID string) (*models.Enrollment, error) {
	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, err
	}
	if course.Status != models.CourseStatusApproved {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "course is not open for enrollment")
	}
	if course.InstructorID == claims.UserID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "instructors cannot enroll in their own course")
	}

	enrollment := &models.Enrollment{
		StudentID:   claims.UserID,
		CourseID:    course.ID,
		CourseTitle: course.Title,
	}
	if err := s.store.Create(ctx, enrollment); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "already enrolled in this course")
		}
		return nil, err
	}

	s.logger.Info("student enrolled",
		zap.String("student_id", claims.UserID),
		zap.String("course_id", course.ID))
	s.invalidateRollups(ctx)
	return enrollment, nil
}

// ListMine returns the student's enrollments.
func (s *EnrollmentService) ListMine(ctx context.Context, studentID string) ([]models.Enrollment, error) {
	return s.store.ListByStudent(ctx, studentID)
}

// CompleteLesson marks a lesson complete. Completing an already
// completed lesson is a no-op for the completion set but still
// recomputes progress. The first time progress reaches 100% the
// enrollment latches completed and a certificate is issued; that call
// alone returns the certificate.
func (s *EnrollmentService) CompleteLesson(ctx context.Context, claims *models.JWTClaims, courseID, lessonID string) (*models.CompletionResult, error) {
	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, err
	}
	if _, err := s.courses.FindLesson(ctx, courseID, lessonID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "lesson not found")
		}
		return nil, err
	}

	candidate := &models.Certificate{
		CertificateNumber: newCertificateNumber(),
		StudentID:         claims.UserID,
		StudentName:       claims.FullName,
		CourseID:          course.ID,
		CourseTitle:       course.Title,
		InstructorName:    course.InstructorName,
	}

	result, err := s.store.CompleteLesson(ctx, claims.UserID, courseID, lessonID, candidate)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "not enrolled in this course")
		}
		return nil, err
	}

	if result.Certificate != nil {
		s.logger.Info("certificate issued",
			zap.String("student_id", claims.UserID),
			zap.String("course_id", courseID),
			zap.String("certificate_number", result.Certificate.CertificateNumber))
	}
	s.invalidateRollups(ctx)
	return result, nil
}

// invalidateRollups drops cached analytics after an enrollment write.
// Best effort, the TTL still bounds staleness when it fails.
func (s *EnrollmentService) invalidateRollups(ctx context.Context) {
	if s.rollups == nil {
		return
	}
	if err := s.rollups.DeleteByPattern(ctx, analyticsCachePattern); err != nil {
		s.logger.Warn("analytics cache invalidation failed", zap.Error(err))
	}
}

// SetPaused pauses or resumes an enrollment. Repeating the current
// state is a no-op.
func (s *EnrollmentService) SetPaused(ctx context.Context, studentID, courseID string, paused bool) (*models.Enrollment, error) {
	enrollment, err := s.store.Find(ctx, studentID, courseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "not enrolled in this course")
		}
		return nil, err
	}
	if enrollment.IsPaused == paused {
		return enrollment, nil
	}
	if err := s.store.SetPaused(ctx, enrollment.ID, paused); err != nil {
		return nil, err
	}
	enrollment.IsPaused = paused
	return enrollment, nil
}

// Progress joins the enrollment with the course's current lesson list.
// Lessons added since the last completion show up incomplete while the
// stored percent keeps its last computed value.
func (s *EnrollmentService) Progress(ctx context.Context, studentID, courseID string) (*models.ProgressView, error) {
	enrollment, err := s.store.Find(ctx, studentID, courseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "not enrolled in this course")
		}
		return nil, err
	}

	rows, err := s.store.ProgressRows(ctx, enrollment.ID, courseID)
	if err != nil {
		return nil, err
	}

	completed := 0
	for _, row := range rows {
		if row.IsCompleted {
			completed++
		}
	}

	return &models.ProgressView{
		CourseTitle:      enrollment.CourseTitle,
		TotalLessons:     len(rows),
		CompletedLessons: completed,
		ProgressPercent:  enrollment.ProgressPercent,
		IsCompleted:      enrollment.IsCompleted,
		IsPaused:         enrollment.IsPaused,
		Lessons:          rows,
	}, nil
}

// ListCertificates returns the student's certificates.
func (s *EnrollmentService) ListCertificates(ctx context.Context, studentID string) ([]models.Certificate, error) {
	return s.certificates.ListByStudent(ctx, studentID)
}

// GetCertificate returns a certificate visible to its owner or an
// admin.
func (s *EnrollmentService) GetCertificate(ctx context.Context, claims *models.JWTClaims, certificateID string) (*models.Certificate, error) {
	cert, err := s.certificates.FindByID(ctx, certificateID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, err
	}
	if cert.StudentID != claims.UserID && claims.Role != models.RoleAdmin {
		return nil, appErrors.ErrForbidden
	}
	return cert, nil
}

// CertificatePDF renders a certificate as a downloadable PDF.
func (s *EnrollmentService) CertificatePDF(ctx context.Context, claims *models.JWTClaims, certificateID string) ([]byte, error) {
	cert, err := s.GetCertificate(ctx, claims, certificateID)
	if err != nil {
		return nil, err
	}
	return s.pdf.Render(export.CertificateDocument{
		CertificateNumber: cert.CertificateNumber,
		StudentName:       cert.StudentName,
		CourseTitle:       cert.CourseTitle,
		InstructorName:    cert.InstructorName,
		IssuedAt:          cert.IssuedAt.Format("January 2, 2006"),
	})
}

// newCertificateNumber builds a display identifier. Uniqueness is
// ultimately enforced by the storage layer's constraint.
func newCertificateNumber() string {
	suffix := make([]byte, 3)
	_, _ = rand.Read(suffix)
	return fmt.Sprintf("CERT-%d-%s", time.Now().UnixMilli(), strings.ToUpper(hex.EncodeToString(suffix)))
}
