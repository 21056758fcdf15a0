package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"github.com/learnhub/learnhub-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func enrollmentRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "student_id", "course_id", "course_title", "progress_percent",
		"is_completed", "is_paused", "certificate_id", "enrolled_at", "completed_at",
	})
}

func TestEnrollmentCreateIncrementsCounter(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO enrollments").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE courses SET total_enrollments = total_enrollments + 1 WHERE id = $1`)).
		WithArgs("course-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.Create(context.Background(), &models.Enrollment{
		StudentID:   "stu-1",
		CourseID:    "course-1",
		CourseTitle: "Go Basics",
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentCreateDuplicateRollsBack(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO enrollments").
		WillReturnError(&pq.Error{Code: "23505"})
	mock.ExpectRollback()

	err := repo.Create(context.Background(), &models.Enrollment{StudentID: "stu-1", CourseID: "course-1"})
	require.ErrorIs(t, err, ErrDuplicate)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCompleteLessonLatchesAndIssuesCertificate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM enrollments WHERE student_id = .+ FOR UPDATE").
		WithArgs("stu-1", "course-1").
		WillReturnRows(enrollmentRows().
			AddRow("enr-1", "stu-1", "course-1", "Go Basics", 50, false, false, nil, time.Now(), nil))
	mock.ExpectExec("INSERT INTO lesson_completions").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM lesson_completions`).
		WithArgs("enr-1", "course-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM lessons WHERE course_id = $1`)).
		WithArgs("course-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectExec("INSERT INTO certificates").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE enrollments SET progress_percent").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	candidate := &models.Certificate{CertificateNumber: "CERT-1-ABCDEF", StudentID: "stu-1", CourseID: "course-1"}
	result, err := repo.CompleteLesson(context.Background(), "stu-1", "course-1", "les-2", candidate)
	require.NoError(t, err)
	require.NotNil(t, result.Certificate)
	require.True(t, result.Enrollment.IsCompleted)
	require.Equal(t, 100, result.Enrollment.ProgressPercent)
	require.NotNil(t, result.Enrollment.CertificateID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCompleteLessonLatchStaysClosed(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	certID := "cert-1"
	mock.ExpectBegin()
	mock.ExpectQuery("FROM enrollments WHERE student_id = .+ FOR UPDATE").
		WithArgs("stu-1", "course-1").
		WillReturnRows(enrollmentRows().
			AddRow("enr-1", "stu-1", "course-1", "Go Basics", 100, true, false, certID, time.Now(), time.Now()))
	mock.ExpectExec("INSERT INTO lesson_completions").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM lesson_completions`).
		WithArgs("enr-1", "course-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM lessons WHERE course_id = $1`)).
		WithArgs("course-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectExec("UPDATE enrollments SET progress_percent").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	result, err := repo.CompleteLesson(context.Background(), "stu-1", "course-1", "les-1",
		&models.Certificate{CertificateNumber: "CERT-2-FFFFFF"})
	require.NoError(t, err)
	require.Nil(t, result.Certificate, "no second certificate once completed")
	require.True(t, result.Enrollment.IsCompleted)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCompleteLessonRequiresEnrollmentRow(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM enrollments WHERE student_id = .+ FOR UPDATE").
		WithArgs("stu-9", "course-1").
		WillReturnRows(enrollmentRows())
	mock.ExpectRollback()

	_, err := repo.CompleteLesson(context.Background(), "stu-9", "course-1", "les-1", &models.Certificate{})
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSetPaused(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE enrollments SET is_paused = $2 WHERE id = $1`)).
		WithArgs("enr-1", true).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.SetPaused(context.Background(), "enr-1", true))
	require.NoError(t, mock.ExpectationsWereMet())
}
