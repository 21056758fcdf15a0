package repository

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/learnhub/learnhub-api/internal/models"
)

const enrollmentColumns = `id, student_id, course_id, course_title, progress_percent, is_completed, is_paused,
        certificate_id, enrolled_at, completed_at`

// EnrollmentRepository handles persistence of enrollments, lesson
// completions and certificate issuance. The multi-row writes (enroll +
// counter, complete + certificate) run inside single transactions.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// Find returns the enrollment for a (student, course) pair.
func (r *EnrollmentRepository) Find(ctx context.Context, studentID, courseID string) (*models.Enrollment, error) {
	query := fmt.Sprintf(`SELECT %s FROM enrollments WHERE student_id = $1 AND course_id = $2`, enrollmentColumns)
	var enrollment models.Enrollment
	if err := r.db.GetContext(ctx, &enrollment, query, studentID, courseID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find enrollment: %w", err)
	}
	return &enrollment, nil
}

// ListByStudent returns a student's enrollments, newest first.
func (r *EnrollmentRepository) ListByStudent(ctx context.Context, studentID string) ([]models.Enrollment, error) {
	query := fmt.Sprintf(`SELECT %s FROM enrollments WHERE student_id = $1 ORDER BY enrolled_at DESC`, enrollmentColumns)
	var enrollments []models.Enrollment
	if err := r.db.SelectContext(ctx, &enrollments, query, studentID); err != nil {
		return nil, fmt.Errorf("list student enrollments: %w", err)
	}
	return enrollments, nil
}

// ListByCourse returns every enrollment of a course.
func (r *EnrollmentRepository) ListByCourse(ctx context.Context, courseID string) ([]models.Enrollment, error) {
	query := fmt.Sprintf(`SELECT %s FROM enrollments WHERE course_id = $1 ORDER BY enrolled_at DESC`, enrollmentColumns)
	var enrollments []models.Enrollment
	if err := r.db.SelectContext(ctx, &enrollments, query, courseID); err != nil {
		return nil, fmt.Errorf("list course enrollments: %w", err)
	}
	return enrollments, nil
}

// Create inserts the enrollment and increments the course's enrollment
// counter as one transaction. The unique index on (student_id,
// course_id) closes the check-then-insert race; a violation surfaces as
// ErrDuplicate and leaves the counter untouched.
func (r *EnrollmentRepository) Create(ctx context.Context, enrollment *models.Enrollment) error {
	if enrollment.ID == "" {
		enrollment.ID = uuid.NewString()
	}
	if enrollment.EnrolledAt.IsZero() {
		enrollment.EnrolledAt = time.Now().UTC()
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin enroll: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const insert = `INSERT INTO enrollments (id, student_id, course_id, course_title, progress_percent, is_completed, is_paused,
        certificate_id, enrolled_at, completed_at)
        VALUES (:id, :student_id, :course_id, :course_title, :progress_percent, :is_completed, :is_paused,
        :certificate_id, :enrolled_at, :completed_at)`
	if _, err = tx.NamedExecContext(ctx, insert, enrollment); err != nil {
		if dup := translateUnique(err); dup == ErrDuplicate {
			err = dup
			return err
		}
		return fmt.Errorf("insert enrollment: %w", err)
	}

	if _, err = tx.ExecContext(ctx,
		`UPDATE courses SET total_enrollments = total_enrollments + 1 WHERE id = $1`, enrollment.CourseID); err != nil {
		return fmt.Errorf("increment enrollments: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit enroll: %w", err)
	}
	return nil
}

// CompleteLesson marks a lesson complete and recomputes progress inside
// one transaction. The completion insert is idempotent; re-marking a
// lesson still recomputes the percent against the current lesson count.
// When the recompute crosses 100% with the latch still open, the
// enrollment is latched completed and the candidate certificate is
// issued; the certificate is returned only on that transition call.
func (r *EnrollmentRepository) CompleteLesson(ctx context.Context, studentID, courseID, lessonID string, candidate *models.Certificate) (*models.CompletionResult, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin complete lesson: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var enrollment models.Enrollment
	query := fmt.Sprintf(`SELECT %s FROM enrollments WHERE student_id = $1 AND course_id = $2 FOR UPDATE`, enrollmentColumns)
	if err := tx.GetContext(ctx, &enrollment, query, studentID, courseID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("lock enrollment: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO lesson_completions (enrollment_id, lesson_id, completed_at) VALUES ($1, $2, $3)
        ON CONFLICT (enrollment_id, lesson_id) DO NOTHING`,
		enrollment.ID, lessonID, time.Now().UTC()); err != nil {
		return nil, fmt.Errorf("insert completion: %w", err)
	}

	var completed, total int
	if err := tx.GetContext(ctx, &completed,
		`SELECT COUNT(*) FROM lesson_completions lc JOIN lessons l ON l.id = lc.lesson_id WHERE lc.enrollment_id = $1 AND l.course_id = $2`,
		enrollment.ID, courseID); err != nil {
		return nil, fmt.Errorf("count completions: %w", err)
	}
	if err := tx.GetContext(ctx, &total,
		`SELECT COUNT(*) FROM lessons WHERE course_id = $1`, courseID); err != nil {
		return nil, fmt.Errorf("count lessons: %w", err)
	}

	percent := 0
	if total > 0 {
		percent = int(math.Round(100 * float64(completed) / float64(total)))
	}
	enrollment.ProgressPercent = percent

	var issued *models.Certificate
	if percent >= 100 && !enrollment.IsCompleted {
		now := time.Now().UTC()
		enrollment.IsCompleted = true
		enrollment.CompletedAt = &now

		if candidate.ID == "" {
			candidate.ID = uuid.NewString()
		}
		candidate.IssuedAt = now
		const insertCert = `INSERT INTO certificates (id, certificate_number, student_id, student_name, course_id, course_title, instructor_name, issued_at)
            VALUES (:id, :certificate_number, :student_id, :student_name, :course_id, :course_title, :instructor_name, :issued_at)`
		if _, err := tx.NamedExecContext(ctx, insertCert, candidate); err != nil {
			return nil, fmt.Errorf("insert certificate: %w", err)
		}
		enrollment.CertificateID = &candidate.ID
		issued = candidate
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE enrollments SET progress_percent = $2, is_completed = $3, completed_at = $4, certificate_id = $5 WHERE id = $1`,
		enrollment.ID, enrollment.ProgressPercent, enrollment.IsCompleted, enrollment.CompletedAt, enrollment.CertificateID); err != nil {
		return nil, fmt.Errorf("update enrollment progress: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit complete lesson: %w", err)
	}
	committed = true

	return &models.CompletionResult{Enrollment: enrollment, Certificate: issued}, nil
}

// SetPaused updates the pause flag. Writing the current value again is
// harmless, which keeps pause/resume idempotent.
func (r *EnrollmentRepository) SetPaused(ctx context.Context, enrollmentID string, paused bool) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE enrollments SET is_paused = $2 WHERE id = $1`, enrollmentID, paused); err != nil {
		return fmt.Errorf("set paused: %w", err)
	}
	return nil
}

// ProgressRows returns the course's current lesson list annotated with
// completion state for the enrollment.
func (r *EnrollmentRepository) ProgressRows(ctx context.Context, enrollmentID, courseID string) ([]models.LessonProgress, error) {
	const query = `SELECT l.id AS lesson_id, l.title, l.position,
        (lc.lesson_id IS NOT NULL) AS is_completed
        FROM lessons l
        LEFT JOIN lesson_completions lc ON lc.lesson_id = l.id AND lc.enrollment_id = $1
        WHERE l.course_id = $2
        ORDER BY l.position ASC`
	var rows []models.LessonProgress
	if err := r.db.SelectContext(ctx, &rows, query, enrollmentID, courseID); err != nil {
		return nil, fmt.Errorf("progress rows: %w", err)
	}
	return rows, nil
}
