package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/learnhub/learnhub-api/internal/models"
	appErrors "github.com/learnhub/learnhub-api/pkg/errors"
)

type userStoreMock struct {
	users      map[string]models.User
	roles      map[string]models.UserRole
	bans       map[string]bool
	revokedAll []string
	audits     []models.AuditLog
}

func (m *userStoreMock) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := m.users[id]; ok {
		return &u, nil
	}
	return nil, sql.ErrNoRows
}

func (m *userStoreMock) List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error) {
	var out []models.User
	for _, u := range m.users {
		out = append(out, u)
	}
	return out, len(out), nil
}

func (m *userStoreMock) UpdateRole(ctx context.Context, id string, role models.UserRole, updatedAt time.Time) error {
	if m.roles == nil {
		m.roles = make(map[string]models.UserRole)
	}
	m.roles[id] = role
	return nil
}

func (m *userStoreMock) SetBanned(ctx context.Context, id string, banned bool, updatedAt time.Time) error {
	if m.bans == nil {
		m.bans = make(map[string]bool)
	}
	m.bans[id] = banned
	return nil
}

func (m *userStoreMock) UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error {
	return nil
}

func (m *userStoreMock) RevokeUserRefreshTokens(ctx context.Context, userID string) error {
	m.revokedAll = append(m.revokedAll, userID)
	return nil
}

func (m *userStoreMock) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	m.audits = append(m.audits, *log)
	return nil
}

func newUserFixture() (*UserService, *userStoreMock) {
	store := &userStoreMock{users: map[string]models.User{
		"adm-1": {ID: "adm-1", Role: models.RoleAdmin},
		"stu-1": {ID: "stu-1", Role: models.RoleStudent},
		"ins-1": {ID: "ins-1", Role: models.RoleInstructor},
	}}
	return NewUserService(store, nil), store
}

func TestChangeRolePromotesStudent(t *testing.T) {
	svc, store := newUserFixture()

	user, err := svc.ChangeRole(context.Background(), "adm-1", "stu-1", models.RoleInstructor)
	require.NoError(t, err)
	assert.Equal(t, models.RoleInstructor, user.Role)
	assert.Equal(t, models.RoleInstructor, store.roles["stu-1"])
	require.NotEmpty(t, store.audits)
	assert.Equal(t, models.AuditActionRoleChange, store.audits[0].Action)
}

func TestChangeRoleRejectsSelf(t *testing.T) {
	svc, _ := newUserFixture()

	_, err := svc.ChangeRole(context.Background(), "adm-1", "adm-1", models.RoleStudent)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestChangeRoleRejectsUnknownRole(t *testing.T) {
	svc, _ := newUserFixture()

	_, err := svc.ChangeRole(context.Background(), "adm-1", "stu-1", "WIZARD")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestBanRevokesSessions(t *testing.T) {
	svc, store := newUserFixture()

	user, err := svc.SetBanned(context.Background(), "adm-1", "stu-1", true)
	require.NoError(t, err)
	assert.True(t, user.Banned)
	assert.Contains(t, store.revokedAll, "stu-1")
}

func TestBanRejectsAdminTarget(t *testing.T) {
	svc, store := newUserFixture()
	store.users["adm-2"] = models.User{ID: "adm-2", Role: models.RoleAdmin}

	_, err := svc.SetBanned(context.Background(), "adm-1", "adm-2", true)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestBanIsIdempotent(t *testing.T) {
	svc, store := newUserFixture()
	store.users["stu-1"] = models.User{ID: "stu-1", Role: models.RoleStudent, Banned: true}

	user, err := svc.SetBanned(context.Background(), "adm-1", "stu-1", true)
	require.NoError(t, err)
	assert.True(t, user.Banned)
	assert.Empty(t, store.bans, "re-banning must not write")
}

func TestResetPasswordTooShort(t *testing.T) {
	svc, _ := newUserFixture()

	err := svc.ResetPassword(context.Background(), "adm-1", "stu-1", "short")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestResetPasswordRevokesSessions(t *testing.T) {
	svc, store := newUserFixture()

	require.NoError(t, svc.ResetPassword(context.Background(), "adm-1", "stu-1", "newsecret"))
	assert.Contains(t, store.revokedAll, "stu-1")
}
