package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/learnhub/learnhub-api/internal/models"
	appErrors "github.com/learnhub/learnhub-api/pkg/errors"
)

// UserStore is the persistence surface for the directory admin ops.
type UserStore interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
	UpdateRole(ctx context.Context, id string, role models.UserRole, updatedAt time.Time) error
	SetBanned(ctx context.Context, id string, banned bool, updatedAt time.Time) error
	UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error
	RevokeUserRefreshTokens(ctx context.Context, userID string) error
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// UserService covers the admin-facing user directory operations.
type UserService struct {
	store  UserStore
	logger *zap.Logger
}

// NewUserService creates a UserService.
func NewUserService(store UserStore, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{store: store, logger: logger}
}

// Get returns one user.
func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	user, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, err
	}
	return user, nil
}

// List returns users matching the filter with pagination metadata.
func (s *UserService) List(ctx context.Context, filter models.UserFilter) ([]models.User, *models.Pagination, error) {
	users, total, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, nil, err
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	return users, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// ChangeRole updates a user's stored role. Admins cannot demote
// themselves, which keeps at least the acting admin in place.
func (s *UserService) ChangeRole(ctx context.Context, adminID, userID string, role models.UserRole) (*models.User, error) {
	if role != models.RoleStudent && role != models.RoleInstructor && role != models.RoleAdmin {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown role")
	}
	if adminID == userID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "cannot change own role")
	}

	user, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Role == role {
		return user, nil
	}

	now := time.Now().UTC()
	if err := s.store.UpdateRole(ctx, userID, role, now); err != nil {
		return nil, err
	}

	oldRole := user.Role
	user.Role = role
	user.UpdatedAt = now

	s.audit(ctx, adminID, models.AuditActionRoleChange, userID,
		[]byte(fmt.Sprintf(`{"role":%q}`, oldRole)), []byte(fmt.Sprintf(`{"role":%q}`, role)))
	s.logger.Info("role changed",
		zap.String("admin_id", adminID),
		zap.String("user_id", userID),
		zap.String("role", string(role)))
	return user, nil
}

// SetBanned toggles a user's ban flag. Admin accounts cannot be
// banned. Banning also revokes every active session.
func (s *UserService) SetBanned(ctx context.Context, adminID, userID string, banned bool) (*models.User, error) {
	user, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Role == models.RoleAdmin {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "admin accounts cannot be banned")
	}
	if user.Banned == banned {
		return user, nil
	}

	now := time.Now().UTC()
	if err := s.store.SetBanned(ctx, userID, banned, now); err != nil {
		return nil, err
	}
	if banned {
		if err := s.store.RevokeUserRefreshTokens(ctx, userID); err != nil {
			return nil, err
		}
	}

	user.Banned = banned
	user.UpdatedAt = now

	s.audit(ctx, adminID, models.AuditActionBanToggle, userID,
		[]byte(fmt.Sprintf(`{"banned":%t}`, !banned)), []byte(fmt.Sprintf(`{"banned":%t}`, banned)))
	return user, nil
}

// ResetPassword sets a new password on behalf of a user and revokes
// their sessions.
func (s *UserService) ResetPassword(ctx context.Context, adminID, userID, newPassword string) error {
	if len(newPassword) < 6 {
		return appErrors.Clone(appErrors.ErrValidation, "password must be at least 6 characters")
	}
	if _, err := s.Get(ctx, userID); err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.store.UpdatePassword(ctx, userID, string(hash), time.Now().UTC()); err != nil {
		return err
	}
	if err := s.store.RevokeUserRefreshTokens(ctx, userID); err != nil {
		return err
	}

	s.audit(ctx, adminID, models.AuditActionPasswordReset, userID, nil, nil)
	return nil
}

func (s *UserService) audit(ctx context.Context, adminID, action, targetID string, oldValues, newValues []byte) {
	entry := &models.AuditLog{
		UserID:     &adminID,
		Action:     action,
		Resource:   "user",
		ResourceID: &targetID,
		OldValues:  oldValues,
		NewValues:  newValues,
	}
	if err := s.store.CreateAuditLog(ctx, entry); err != nil {
		s.logger.Warn("audit log write failed", zap.String("action", action), zap.Error(err))
	}
}
