package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/learnhub/learnhub-api/internal/models"
)

// AnalyticsRepository provides the read-only rollup queries. It never
// writes; all aggregation happens in SQL.
type AnalyticsRepository struct {
	db *sqlx.DB
}

// NewAnalyticsRepository constructs the repository.
func NewAnalyticsRepository(db *sqlx.DB) *AnalyticsRepository {
	return &AnalyticsRepository{db: db}
}

// UserCounts returns the user base breakdown by role and ban state.
func (r *AnalyticsRepository) UserCounts(ctx context.Context) (models.UserCounts, error) {
	const query = `SELECT COUNT(*) AS total,
        COUNT(*) FILTER (WHERE role = 'STUDENT') AS students,
        COUNT(*) FILTER (WHERE role = 'INSTRUCTOR') AS instructors,
        COUNT(*) FILTER (WHERE role = 'ADMIN') AS admins,
        COUNT(*) FILTER (WHERE banned) AS banned
        FROM users`
	var counts models.UserCounts
	if err := r.db.GetContext(ctx, &counts, query); err != nil {
		return counts, fmt.Errorf("user counts: %w", err)
	}
	return counts, nil
}

// CourseCounts returns the catalog breakdown by status.
func (r *AnalyticsRepository) CourseCounts(ctx context.Context) (models.CourseCounts, error) {
	const query = `SELECT COUNT(*) AS total,
        COUNT(*) FILTER (WHERE status = 'Approved') AS approved,
        COUNT(*) FILTER (WHERE status = 'PendingApproval') AS pending,
        COUNT(*) FILTER (WHERE status = 'Draft') AS draft,
        COUNT(*) FILTER (WHERE status = 'Rejected') AS rejected
        FROM courses`
	var counts models.CourseCounts
	if err := r.db.GetContext(ctx, &counts, query); err != nil {
		return counts, fmt.Errorf("course counts: %w", err)
	}
	return counts, nil
}

// EnrollmentCounts summarises enrollment states.
func (r *AnalyticsRepository) EnrollmentCounts(ctx context.Context) (models.EnrollmentCounts, error) {
	const query = `SELECT COUNT(*) AS total,
        COUNT(*) FILTER (WHERE is_completed) AS completed,
        COUNT(*) FILTER (WHERE NOT is_completed AND NOT is_paused) AS active,
        COUNT(*) FILTER (WHERE is_paused) AS paused
        FROM enrollments`
	var counts models.EnrollmentCounts
	if err := r.db.GetContext(ctx, &counts, query); err != nil {
		return counts, fmt.Errorf("enrollment counts: %w", err)
	}
	return counts, nil
}

// ReviewCounts summarises review moderation state.
func (r *AnalyticsRepository) ReviewCounts(ctx context.Context) (models.ReviewCounts, error) {
	const query = `SELECT COUNT(*) AS total, COUNT(*) FILTER (WHERE is_flagged) AS flagged FROM reviews`
	var counts models.ReviewCounts
	if err := r.db.GetContext(ctx, &counts, query); err != nil {
		return counts, fmt.Errorf("review counts: %w", err)
	}
	return counts, nil
}

// CertificateCount returns the total number of issued certificates.
func (r *AnalyticsRepository) CertificateCount(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM certificates`); err != nil {
		return 0, fmt.Errorf("certificate count: %w", err)
	}
	return count, nil
}

// Revenue sums the course price over every enrollment whose course
// still exists. The inner join silently skips enrollments that
// reference a deleted course.
func (r *AnalyticsRepository) Revenue(ctx context.Context) (float64, error) {
	const query = `SELECT COALESCE(SUM(c.price), 0) FROM enrollments e JOIN courses c ON c.id = e.course_id`
	var revenue float64
	if err := r.db.GetContext(ctx, &revenue, query); err != nil {
		return 0, fmt.Errorf("revenue: %w", err)
	}
	return revenue, nil
}

// CategoryDistribution returns course counts per category.
func (r *AnalyticsRepository) CategoryDistribution(ctx context.Context) ([]models.CategoryCount, error) {
	const query = `SELECT category, COUNT(*) AS count FROM courses GROUP BY category ORDER BY count DESC, category ASC`
	var buckets []models.CategoryCount
	if err := r.db.SelectContext(ctx, &buckets, query); err != nil {
		return nil, fmt.Errorf("category distribution: %w", err)
	}
	return buckets, nil
}

// TopCourses returns the courses-by-enrollment leaderboard.
func (r *AnalyticsRepository) TopCourses(ctx context.Context, limit int) ([]models.TopCourse, error) {
	if limit <= 0 {
		limit = 5
	}
	const query = `SELECT title, total_enrollments, average_rating FROM courses ORDER BY total_enrollments DESC, average_rating DESC LIMIT $1`
	var top []models.TopCourse
	if err := r.db.SelectContext(ctx, &top, query, limit); err != nil {
		return nil, fmt.Errorf("top courses: %w", err)
	}
	return top, nil
}

// CourseCompletionStats returns enrollment count and completion rate
// for one course.
func (r *AnalyticsRepository) CourseCompletionStats(ctx context.Context, courseID string) (total int, completed int, err error) {
	const query = `SELECT COUNT(*) AS total, COUNT(*) FILTER (WHERE is_completed) AS completed FROM enrollments WHERE course_id = $1`
	row := struct {
		Total     int `db:"total"`
		Completed int `db:"completed"`
	}{}
	if err := r.db.GetContext(ctx, &row, query, courseID); err != nil {
		return 0, 0, fmt.Errorf("course completion stats: %w", err)
	}
	return row.Total, row.Completed, nil
}
