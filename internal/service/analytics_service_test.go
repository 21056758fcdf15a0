package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/learnhub/learnhub-api/internal/models"
	"github.com/learnhub/learnhub-api/pkg/config"
	appErrors "github.com/learnhub/learnhub-api/pkg/errors"
)

type analyticsStoreStub struct {
	calls int
}

func (m *analyticsStoreStub) UserCounts(ctx context.Context) (models.UserCounts, error) {
	m.calls++
	return models.UserCounts{Total: 10, Students: 7, Instructors: 2, Admins: 1}, nil
}

func (m *analyticsStoreStub) CourseCounts(ctx context.Context) (models.CourseCounts, error) {
	return models.CourseCounts{Total: 4, Approved: 2, Pending: 1, Draft: 1}, nil
}

func (m *analyticsStoreStub) EnrollmentCounts(ctx context.Context) (models.EnrollmentCounts, error) {
	return models.EnrollmentCounts{Total: 20, Completed: 5, Active: 12, Paused: 3}, nil
}

func (m *analyticsStoreStub) ReviewCounts(ctx context.Context) (models.ReviewCounts, error) {
	return models.ReviewCounts{Total: 8, Flagged: 1}, nil
}

func (m *analyticsStoreStub) CertificateCount(ctx context.Context) (int, error) {
	return 5, nil
}

func (m *analyticsStoreStub) Revenue(ctx context.Context) (float64, error) {
	return 499.5, nil
}

func (m *analyticsStoreStub) CategoryDistribution(ctx context.Context) ([]models.CategoryCount, error) {
	return []models.CategoryCount{{Category: models.CategoryProgramming, Count: 3}}, nil
}

func (m *analyticsStoreStub) TopCourses(ctx context.Context, limit int) ([]models.TopCourse, error) {
	return []models.TopCourse{{Title: "Go Basics", Enrollments: 12, Rating: 4.5}}, nil
}

func (m *analyticsStoreStub) CourseCompletionStats(ctx context.Context, courseID string) (int, int, error) {
	return 4, 1, nil
}

type cacheStub struct {
	values map[string][]byte
	sets   int
}

func (m *cacheStub) Get(ctx context.Context, key string, dest interface{}) error {
	if _, ok := m.values[key]; !ok {
		return appErrors.ErrCacheMiss
	}
	if out, ok := dest.(*models.PlatformAnalytics); ok {
		*out = models.PlatformAnalytics{Revenue: 1.0}
	}
	return nil
}

func (m *cacheStub) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if m.values == nil {
		m.values = make(map[string][]byte)
	}
	m.values[key] = []byte("set")
	m.sets++
	return nil
}

type observerStub struct {
	hits    int
	misses  int
	queries int
}

func (m *observerStub) ObserveCacheHit()  { m.hits++ }
func (m *observerStub) ObserveCacheMiss() { m.misses++ }

func (m *observerStub) ObserveDBQuery(duration time.Duration) { m.queries++ }

func TestPlatformAnalyticsComputesRollup(t *testing.T) {
	store := &analyticsStoreStub{}
	svc := NewAnalyticsService(store, newCourseStoreMock(), &reviewStoreMock{}, nil, nil, config.AnalyticsConfig{}, nil)

	rollup, err := svc.Platform(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 10, rollup.Users.Total)
	assert.Equal(t, 499.5, rollup.Revenue)
	assert.Equal(t, 5, rollup.Certificates)
	require.Len(t, rollup.TopCourses, 1)
	assert.False(t, rollup.GeneratedAt.IsZero())
}

func TestPlatformAnalyticsCachesRollup(t *testing.T) {
	store := &analyticsStoreStub{}
	cache := &cacheStub{}
	metrics := &observerStub{}
	svc := NewAnalyticsService(store, newCourseStoreMock(), &reviewStoreMock{}, cache, metrics,
		config.AnalyticsConfig{CacheEnabled: true, CacheTTL: time.Minute}, nil)

	_, err := svc.Platform(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, metrics.misses)
	assert.Equal(t, 1, cache.sets)

	rollup, err := svc.Platform(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, metrics.hits)
	assert.Equal(t, 1.0, rollup.Revenue, "second read must come from cache")
	assert.Equal(t, 1, store.calls, "store must not be hit on a cache hit")
}

func TestPlatformAnalyticsTimesRollupQueries(t *testing.T) {
	store := &analyticsStoreStub{}
	metrics := &observerStub{}
	svc := NewAnalyticsService(store, newCourseStoreMock(), &reviewStoreMock{}, nil, metrics, config.AnalyticsConfig{}, nil)

	_, err := svc.Platform(context.Background())
	require.NoError(t, err)
	// One observation per rollup query, so the db_query histogram and
	// the system snapshot averages move off zero.
	assert.Equal(t, 8, metrics.queries)
}

func TestCourseStatsCompletionRate(t *testing.T) {
	courses := newCourseStoreMock()
	courses.courses["course-1"] = models.Course{ID: "course-1", Title: "Go Basics"}
	reviews := &reviewStoreMock{reviews: map[string]models.Review{
		"rev-1": {ID: "rev-1", CourseID: "course-1", IsFlagged: true},
		"rev-2": {ID: "rev-2", CourseID: "course-1"},
	}}
	svc := NewAnalyticsService(&analyticsStoreStub{}, courses, reviews, nil, nil, config.AnalyticsConfig{}, nil)

	stats, err := svc.CourseStats(context.Background(), "course-1")
	require.NoError(t, err)
	assert.Equal(t, 4, stats.EnrollmentCount)
	assert.Equal(t, 25, stats.CompletionRate)
	assert.Equal(t, 2, stats.ReviewCount, "admin rollup includes flagged reviews")
}

func TestCourseStatsUnknownCourse(t *testing.T) {
	svc := NewAnalyticsService(&analyticsStoreStub{}, newCourseStoreMock(), &reviewStoreMock{}, nil, nil, config.AnalyticsConfig{}, nil)

	_, err := svc.CourseStats(context.Background(), "course-404")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
