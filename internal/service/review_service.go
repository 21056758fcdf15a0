package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/learnhub/learnhub-api/internal/models"
	"github.com/learnhub/learnhub-api/internal/repository"
	"github.com/learnhub/learnhub-api/pkg/config"
	appErrors "github.com/learnhub/learnhub-api/pkg/errors"
)

const (
	minReviewProgress = 10
	minCommentLength  = 10
)

// spamMarkers flag a review for moderation when present in the
// comment. Matching is case-insensitive.
var spamMarkers = []string{
	"buy now",
	"click here",
	"free money",
	"http://",
	"https://",
	"www.",
	"earn cash",
}

// ReviewStore is the persistence surface for reviews.
type ReviewStore interface {
	Create(ctx context.Context, review *models.Review) error
	FindByID(ctx context.Context, id string) (*models.Review, error)
	FindByStudentAndCourse(ctx context.Context, studentID, courseID string) (*models.Review, error)
	ListByCourse(ctx context.Context, courseID string, includeFlagged bool) ([]models.Review, error)
	ListFlagged(ctx context.Context) ([]models.Review, error)
	CountRecentByStudent(ctx context.Context, studentID string, since time.Time) (int, error)
	SetFlagged(ctx context.Context, id string, flagged bool) error
	Delete(ctx context.Context, id string) error
}

// ratingRecalculator is the single entry point for refreshing a
// course's rating aggregates.
type ratingRecalculator interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
	RecalculateRating(ctx context.Context, courseID string) error
}

// ReviewService implements review submission with its ordered gates,
// moderation and the rating recompute triggers.
type ReviewService struct {
	store       ReviewStore
	courses     ratingRecalculator
	enrollments enrollmentFinder
	rollups     RollupInvalidator
	cfg         config.ReviewsConfig
	logger      *zap.Logger
}

// NewReviewService creates a ReviewService. rollups is optional.
func NewReviewService(store ReviewStore, courses ratingRecalculator, enrollments enrollmentFinder, rollups RollupInvalidator, cfg config.ReviewsConfig, logger *zap.Logger) *ReviewService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.RateLimitWindow <= 0 {
		cfg.RateLimitWindow = time.Hour
	}
	if cfg.RateLimitMax <= 0 {
		cfg.RateLimitMax = 3
	}
	return &ReviewService{
		store:       store,
		courses:     courses,
		enrollments: enrollments,
		rollups:     rollups,
		cfg:         cfg,
		logger:      logger,
	}
}

// Submit posts a review. The gates run in a fixed order and the first
// failure wins: enrollment, minimum progress, duplicate, payload
// bounds, rate limit. A comment matching the spam markers is stored
// flagged but the submission still succeeds; flagged reviews do not
// touch the course rating.
func (s *ReviewService) Submit(ctx context.Context, claims *models.JWTClaims, courseID string, req models.SubmitReviewRequest) (*models.Review, error) {
	if _, err := s.courses.FindByID(ctx, courseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, err
	}

	enrollment, err := s.enrollments.Find(ctx, claims.UserID, courseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "not enrolled in this course")
		}
		return nil, err
	}

	if enrollment.ProgressPercent < minReviewProgress {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "at least 10% progress required to review")
	}

	if _, err := s.store.FindByStudentAndCourse(ctx, claims.UserID, courseID); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "course already reviewed")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	comment := strings.TrimSpace(req.Comment)
	if req.Rating < 1 || req.Rating > 5 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "rating must be between 1 and 5")
	}
	if len(comment) < minCommentLength {
		return nil, appErrors.Clone(appErrors.ErrValidation, "comment must be at least 10 characters")
	}

	since := time.Now().UTC().Add(-s.cfg.RateLimitWindow)
	recent, err := s.store.CountRecentByStudent(ctx, claims.UserID, since)
	if err != nil {
		return nil, err
	}
	if recent >= s.cfg.RateLimitMax {
		return nil, appErrors.Clone(appErrors.ErrRateLimited, "too many reviews, try again later")
	}

	review := &models.Review{
		StudentID:   claims.UserID,
		StudentName: claims.FullName,
		CourseID:    courseID,
		Rating:      req.Rating,
		Comment:     comment,
		IsVerified:  true,
		IsFlagged:   isSpam(comment),
	}
	if err := s.store.Create(ctx, review); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "course already reviewed")
		}
		return nil, err
	}

	if review.IsFlagged {
		s.logger.Info("review flagged for moderation",
			zap.String("review_id", review.ID),
			zap.String("course_id", courseID))
		s.invalidateRollups(ctx)
		return review, nil
	}

	if err := s.courses.RecalculateRating(ctx, courseID); err != nil {
		return nil, err
	}
	s.invalidateRollups(ctx)
	return review, nil
}

// ListByCourse returns a course's visible reviews; admins may include
// flagged ones.
func (s *ReviewService) ListByCourse(ctx context.Context, courseID string, includeFlagged bool) ([]models.Review, error) {
	if _, err := s.courses.FindByID(ctx, courseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, err
	}
	return s.store.ListByCourse(ctx, courseID, includeFlagged)
}

// ListFlagged returns the moderation queue.
func (s *ReviewService) ListFlagged(ctx context.Context) ([]models.Review, error) {
	return s.store.ListFlagged(ctx)
}

// Moderate resolves a flagged review: approving clears the flag and
// folds the rating into the course aggregates, rejecting deletes it.
// Approving an already clear review is a no-op success so callers can
// retry safely.
func (s *ReviewService) Moderate(ctx context.Context, reviewID string, approve bool) error {
	review, err := s.getReview(ctx, reviewID)
	if err != nil {
		return err
	}

	if approve {
		if !review.IsFlagged {
			return nil
		}
		if err := s.store.SetFlagged(ctx, reviewID, false); err != nil {
			return err
		}
		if err := s.courses.RecalculateRating(ctx, review.CourseID); err != nil {
			return err
		}
		s.invalidateRollups(ctx)
		return nil
	}

	if !review.IsFlagged {
		return appErrors.Clone(appErrors.ErrConflict, "review is not flagged")
	}
	// Rejected flagged reviews never counted toward the aggregates,
	// so no recompute is needed.
	if err := s.store.Delete(ctx, reviewID); err != nil {
		return err
	}
	s.invalidateRollups(ctx)
	return nil
}

// Delete removes a review on behalf of its author or an admin and
// refreshes the course rating when the review was counted.
func (s *ReviewService) Delete(ctx context.Context, claims *models.JWTClaims, reviewID string) error {
	review, err := s.getReview(ctx, reviewID)
	if err != nil {
		return err
	}
	if review.StudentID != claims.UserID && claims.Role != models.RoleAdmin {
		return appErrors.ErrForbidden
	}

	if err := s.store.Delete(ctx, reviewID); err != nil {
		return err
	}
	if !review.IsFlagged {
		if err := s.courses.RecalculateRating(ctx, review.CourseID); err != nil {
			return err
		}
	}
	s.invalidateRollups(ctx)
	return nil
}

// invalidateRollups drops cached analytics after a review write.
// Best effort, the TTL still bounds staleness when it fails.
func (s *ReviewService) invalidateRollups(ctx context.Context) {
	if s.rollups == nil {
		return
	}
	if err := s.rollups.DeleteByPattern(ctx, analyticsCachePattern); err != nil {
		s.logger.Warn("analytics cache invalidation failed", zap.Error(err))
	}
}

func (s *ReviewService) getReview(ctx context.Context, reviewID string) (*models.Review, error) {
	review, err := s.store.FindByID(ctx, reviewID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, err
	}
	return review, nil
}

func isSpam(comment string) bool {
	lowered := strings.ToLower(comment)
	for _, marker := range spamMarkers {
		if strings.Contains(lowered, marker) {
			return true
		}
	}
	return false
}
