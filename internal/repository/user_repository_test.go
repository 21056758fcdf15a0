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

func TestUserCreateDuplicateEmail(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectExec("INSERT INTO users").
		WillReturnError(&pq.Error{Code: "23505"})

	err := repo.Create(context.Background(), &models.User{
		Email:        "jane@example.com",
		PasswordHash: "hash",
		FullName:     "Jane Doe",
		Role:         models.RoleStudent,
	})
	require.ErrorIs(t, err, ErrDuplicate)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserCreateAssignsID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectExec("INSERT INTO users").
		WillReturnResult(sqlmock.NewResult(0, 1))

	user := &models.User{Email: "jane@example.com", Role: models.RoleStudent}
	require.NoError(t, repo.Create(context.Background(), user))
	require.NotEmpty(t, user.ID)
	require.False(t, user.CreatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserFindByEmail(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	rows := sqlmock.NewRows([]string{"id", "email", "password_hash", "full_name", "role", "banned", "created_at", "updated_at"}).
		AddRow("usr-1", "jane@example.com", "hash", "Jane Doe", models.RoleStudent, false, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, email, password_hash, full_name, role, banned, created_at, updated_at FROM users WHERE email = $1 LIMIT 1`)).
		WithArgs("jane@example.com").
		WillReturnRows(rows)

	user, err := repo.FindByEmail(context.Background(), "jane@example.com")
	require.NoError(t, err)
	require.Equal(t, "usr-1", user.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRevokeRefreshTokens(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectExec(`UPDATE refresh_tokens SET revoked = TRUE`).
		WithArgs("usr-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 2))

	require.NoError(t, repo.RevokeUserRefreshTokens(context.Background(), "usr-1"))
	require.NoError(t, mock.ExpectationsWereMet())
}
