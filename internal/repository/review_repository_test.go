package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"github.com/learnhub/learnhub-api/internal/models"
)

func reviewRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "student_id", "student_name", "course_id", "rating", "comment",
		"is_verified", "is_flagged", "created_at",
	})
}

func TestReviewCreateDuplicatePair(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewReviewRepository(db)

	mock.ExpectExec("INSERT INTO reviews").
		WillReturnError(&pq.Error{Code: "23505"})

	err := repo.Create(context.Background(), &models.Review{
		StudentID: "stu-1",
		CourseID:  "course-1",
		Rating:    5,
		Comment:   "really enjoyed it",
	})
	require.ErrorIs(t, err, ErrDuplicate)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewListByCourseHidesFlagged(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewReviewRepository(db)

	mock.ExpectQuery(`FROM reviews WHERE course_id = \$1 AND is_flagged = FALSE ORDER BY created_at DESC`).
		WithArgs("course-1").
		WillReturnRows(reviewRows().
			AddRow("rev-1", "stu-1", "Jane Doe", "course-1", 5, "great pacing", true, false, time.Now()))

	reviews, err := repo.ListByCourse(context.Background(), "course-1", false)
	require.NoError(t, err)
	require.Len(t, reviews, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewCountRecentByStudent(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewReviewRepository(db)

	since := time.Now().Add(-time.Hour)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM reviews WHERE student_id = $1 AND created_at > $2`)).
		WithArgs("stu-1", since).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	count, err := repo.CountRecentByStudent(context.Background(), "stu-1", since)
	require.NoError(t, err)
	require.Equal(t, 3, count)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewSetFlagged(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewReviewRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE reviews SET is_flagged = $2 WHERE id = $1`)).
		WithArgs("rev-1", false).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.SetFlagged(context.Background(), "rev-1", false))
	require.NoError(t, mock.ExpectationsWereMet())
}
