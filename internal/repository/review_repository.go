package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/learnhub/learnhub-api/internal/models"
)

const reviewColumns = `id, student_id, student_name, course_id, rating, comment, is_verified, is_flagged, created_at`

// ReviewRepository handles persistence of reviews.
type ReviewRepository struct {
	db *sqlx.DB
}

// NewReviewRepository constructs the repository.
func NewReviewRepository(db *sqlx.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// Create persists a review. The unique index on (student_id, course_id)
// backs the duplicate gate; a violation surfaces as ErrDuplicate.
func (r *ReviewRepository) Create(ctx context.Context, review *models.Review) error {
	if review.ID == "" {
		review.ID = uuid.NewString()
	}
	if review.CreatedAt.IsZero() {
		review.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO reviews (id, student_id, student_name, course_id, rating, comment, is_verified, is_flagged, created_at)
        VALUES (:id, :student_id, :student_name, :course_id, :rating, :comment, :is_verified, :is_flagged, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, review); err != nil {
		if dup := translateUnique(err); dup == ErrDuplicate {
			return dup
		}
		return fmt.Errorf("create review: %w", err)
	}
	return nil
}

// FindByID returns a review by identifier.
func (r *ReviewRepository) FindByID(ctx context.Context, id string) (*models.Review, error) {
	query := fmt.Sprintf(`SELECT %s FROM reviews WHERE id = $1`, reviewColumns)
	var review models.Review
	if err := r.db.GetContext(ctx, &review, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find review: %w", err)
	}
	return &review, nil
}

// FindByStudentAndCourse returns the review for a (student, course) pair.
func (r *ReviewRepository) FindByStudentAndCourse(ctx context.Context, studentID, courseID string) (*models.Review, error) {
	query := fmt.Sprintf(`SELECT %s FROM reviews WHERE student_id = $1 AND course_id = $2`, reviewColumns)
	var review models.Review
	if err := r.db.GetContext(ctx, &review, query, studentID, courseID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find review by pair: %w", err)
	}
	return &review, nil
}

// ListByCourse returns a course's reviews, flagged ones excluded unless
// requested.
func (r *ReviewRepository) ListByCourse(ctx context.Context, courseID string, includeFlagged bool) ([]models.Review, error) {
	query := fmt.Sprintf(`SELECT %s FROM reviews WHERE course_id = $1`, reviewColumns)
	if !includeFlagged {
		query += ` AND is_flagged = FALSE`
	}
	query += ` ORDER BY created_at DESC`
	var reviews []models.Review
	if err := r.db.SelectContext(ctx, &reviews, query, courseID); err != nil {
		return nil, fmt.Errorf("list course reviews: %w", err)
	}
	return reviews, nil
}

// ListFlagged returns every review awaiting moderation.
func (r *ReviewRepository) ListFlagged(ctx context.Context) ([]models.Review, error) {
	query := fmt.Sprintf(`SELECT %s FROM reviews WHERE is_flagged = TRUE ORDER BY created_at ASC`, reviewColumns)
	var reviews []models.Review
	if err := r.db.SelectContext(ctx, &reviews, query); err != nil {
		return nil, fmt.Errorf("list flagged reviews: %w", err)
	}
	return reviews, nil
}

// CountRecentByStudent counts the student's reviews across all courses
// submitted after the cutoff. The sliding rate-limit window is
// re-derived from stored history on every call.
func (r *ReviewRepository) CountRecentByStudent(ctx context.Context, studentID string, since time.Time) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM reviews WHERE student_id = $1 AND created_at > $2`, studentID, since); err != nil {
		return 0, fmt.Errorf("count recent reviews: %w", err)
	}
	return count, nil
}

// SetFlagged updates the moderation flag.
func (r *ReviewRepository) SetFlagged(ctx context.Context, id string, flagged bool) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE reviews SET is_flagged = $2 WHERE id = $1`, id, flagged); err != nil {
		return fmt.Errorf("set review flag: %w", err)
	}
	return nil
}

// Delete removes a review.
func (r *ReviewRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM reviews WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete review: %w", err)
	}
	return nil
}
