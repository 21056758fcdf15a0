package repository

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

func TestAnalyticsRevenueJoinsExistingCourses(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAnalyticsRepository(db)

	// The join drops enrollments whose course has been deleted.
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COALESCE(SUM(c.price), 0) FROM enrollments e JOIN courses c ON c.id = e.course_id`)).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(149.97))

	revenue, err := repo.Revenue(context.Background())
	require.NoError(t, err)
	require.Equal(t, 149.97, revenue)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAnalyticsTopCoursesDefaultsToFive(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAnalyticsRepository(db)

	mock.ExpectQuery(`SELECT title, total_enrollments, average_rating FROM courses ORDER BY total_enrollments DESC`).
		WithArgs(5).
		WillReturnRows(sqlmock.NewRows([]string{"title", "total_enrollments", "average_rating"}).
			AddRow("Go Basics", 40, 4.8).
			AddRow("SQL Deep Dive", 25, 4.2))

	top, err := repo.TopCourses(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, top, 2)
	require.Equal(t, "Go Basics", top[0].Title)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAnalyticsCourseCompletionStats(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAnalyticsRepository(db)

	mock.ExpectQuery(`FROM enrollments WHERE course_id = \$1`).
		WithArgs("course-1").
		WillReturnRows(sqlmock.NewRows([]string{"total", "completed"}).AddRow(8, 2))

	total, completed, err := repo.CourseCompletionStats(context.Background(), "course-1")
	require.NoError(t, err)
	require.Equal(t, 8, total)
	require.Equal(t, 2, completed)
	require.NoError(t, mock.ExpectationsWereMet())
}
