package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/learnhub/learnhub-api/internal/models"
	"github.com/learnhub/learnhub-api/pkg/config"
	appErrors "github.com/learnhub/learnhub-api/pkg/errors"
)

const (
	platformAnalyticsCacheKey = "analytics:platform"
	analyticsCachePattern     = "analytics:*"
)

// AnalyticsStore is the read-only rollup surface.
type AnalyticsStore interface {
	UserCounts(ctx context.Context) (models.UserCounts, error)
	CourseCounts(ctx context.Context) (models.CourseCounts, error)
	EnrollmentCounts(ctx context.Context) (models.EnrollmentCounts, error)
	ReviewCounts(ctx context.Context) (models.ReviewCounts, error)
	CertificateCount(ctx context.Context) (int, error)
	Revenue(ctx context.Context) (float64, error)
	CategoryDistribution(ctx context.Context) ([]models.CategoryCount, error)
	TopCourses(ctx context.Context, limit int) ([]models.TopCourse, error)
	CourseCompletionStats(ctx context.Context, courseID string) (total int, completed int, err error)
}

// AnalyticsCache is the caching surface for computed rollups.
type AnalyticsCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// RollupInvalidator drops cached rollups after a domain write so the
// next analytics read recomputes instead of waiting out the TTL.
type RollupInvalidator interface {
	DeleteByPattern(ctx context.Context, pattern string) error
}

// rollupObserver records cache outcomes and rollup query timings for
// the system metrics.
type rollupObserver interface {
	ObserveCacheHit()
	ObserveCacheMiss()
	ObserveDBQuery(duration time.Duration)
}

// AnalyticsService computes the read-only platform and per-course
// rollups. It never writes domain state.
type AnalyticsService struct {
	store   AnalyticsStore
	courses CourseStore
	reviews ReviewStore
	cache   AnalyticsCache
	metrics rollupObserver
	cfg     config.AnalyticsConfig
	logger  *zap.Logger
}

// NewAnalyticsService creates an AnalyticsService. Cache and metrics
// are optional.
func NewAnalyticsService(store AnalyticsStore, courses CourseStore, reviews ReviewStore, cache AnalyticsCache, metrics rollupObserver, cfg config.AnalyticsConfig, logger *zap.Logger) *AnalyticsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnalyticsService{
		store:   store,
		courses: courses,
		reviews: reviews,
		cache:   cache,
		metrics: metrics,
		cfg:     cfg,
		logger:  logger,
	}
}

// Platform returns the platform-wide rollup, served from cache when
// enabled. Revenue sums enrollment prices over still-existing courses
// only.
func (s *AnalyticsService) Platform(ctx context.Context) (*models.PlatformAnalytics, error) {
	if s.cacheEnabled() {
		var cached models.PlatformAnalytics
		if err := s.cache.Get(ctx, platformAnalyticsCacheKey, &cached); err == nil {
			if s.metrics != nil {
				s.metrics.ObserveCacheHit()
			}
			return &cached, nil
		} else if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("analytics cache read failed", zap.Error(err))
		}
		if s.metrics != nil {
			s.metrics.ObserveCacheMiss()
		}
	}

	rollup, err := s.computePlatform(ctx)
	if err != nil {
		return nil, err
	}

	if s.cacheEnabled() {
		if err := s.cache.Set(ctx, platformAnalyticsCacheKey, rollup, s.cfg.CacheTTL); err != nil {
			s.logger.Warn("analytics cache write failed", zap.Error(err))
		}
	}
	return rollup, nil
}

// CourseStats returns the per-course admin rollup including flagged
// reviews.
func (s *AnalyticsService) CourseStats(ctx context.Context, courseID string) (*models.CourseStats, error) {
	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, err
	}

	start := time.Now()
	total, completed, err := s.store.CourseCompletionStats(ctx, courseID)
	s.observeQuery(start)
	if err != nil {
		return nil, err
	}
	reviews, err := s.reviews.ListByCourse(ctx, courseID, true)
	if err != nil {
		return nil, err
	}

	stats := &models.CourseStats{
		Course:          *course,
		EnrollmentCount: total,
		ReviewCount:     len(reviews),
		Reviews:         reviews,
	}
	if total > 0 {
		stats.CompletionRate = completed * 100 / total
	}
	return stats, nil
}

func (s *AnalyticsService) computePlatform(ctx context.Context) (*models.PlatformAnalytics, error) {
	start := time.Now()
	users, err := s.store.UserCounts(ctx)
	s.observeQuery(start)
	if err != nil {
		return nil, err
	}
	start = time.Now()
	courses, err := s.store.CourseCounts(ctx)
	s.observeQuery(start)
	if err != nil {
		return nil, err
	}
	start = time.Now()
	enrollments, err := s.store.EnrollmentCounts(ctx)
	s.observeQuery(start)
	if err != nil {
		return nil, err
	}
	start = time.Now()
	reviews, err := s.store.ReviewCounts(ctx)
	s.observeQuery(start)
	if err != nil {
		return nil, err
	}
	start = time.Now()
	certificates, err := s.store.CertificateCount(ctx)
	s.observeQuery(start)
	if err != nil {
		return nil, err
	}
	start = time.Now()
	revenue, err := s.store.Revenue(ctx)
	s.observeQuery(start)
	if err != nil {
		return nil, err
	}
	start = time.Now()
	categories, err := s.store.CategoryDistribution(ctx)
	s.observeQuery(start)
	if err != nil {
		return nil, err
	}
	start = time.Now()
	top, err := s.store.TopCourses(ctx, 5)
	s.observeQuery(start)
	if err != nil {
		return nil, err
	}

	return &models.PlatformAnalytics{
		Users:        users,
		Courses:      courses,
		Enrollments:  enrollments,
		Reviews:      reviews,
		Certificates: certificates,
		Revenue:      revenue,
		Categories:   categories,
		TopCourses:   top,
		GeneratedAt:  time.Now().UTC(),
	}, nil
}

func (s *AnalyticsService) observeQuery(start time.Time) {
	if s.metrics != nil {
		s.metrics.ObserveDBQuery(time.Since(start))
	}
}

func (s *AnalyticsService) cacheEnabled() bool {
	return s.cfg.CacheEnabled && s.cache != nil
}
