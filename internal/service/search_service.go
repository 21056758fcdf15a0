package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/learnhub/learnhub-api/internal/models"
	appErrors "github.com/learnhub/learnhub-api/pkg/errors"
)

// catalogSearcher is the slice of the course store backing discovery.
type catalogSearcher interface {
	Search(ctx context.Context, filter models.CourseFilter) ([]models.Course, int, error)
	Recommendations(ctx context.Context, studentID string, limit int) ([]models.Course, error)
}

// allowedSortModes guards the ORDER BY input on catalog search.
var allowedSortModes = map[string]bool{
	"":              true,
	"popularity":    true,
	"newest":        true,
	"highest-rated": true,
	"price-low":     true,
	"price-high":    true,
}

// SearchService implements catalog discovery over approved courses.
type SearchService struct {
	courses catalogSearcher
	logger  *zap.Logger
}

// NewSearchService creates a SearchService.
func NewSearchService(courses catalogSearcher, logger *zap.Logger) *SearchService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SearchService{courses: courses, logger: logger}
}

// Search returns approved courses matching the filter with pagination
// metadata. Only approved courses are ever visible here.
func (s *SearchService) Search(ctx context.Context, filter models.CourseFilter) ([]models.Course, *models.Pagination, error) {
	if !allowedSortModes[filter.SortBy] {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "unknown sort mode")
	}
	if filter.Category != "" && !models.ValidCategory(filter.Category) {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "unknown category")
	}
	if filter.MinPrice != nil && filter.MaxPrice != nil && *filter.MinPrice > *filter.MaxPrice {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "min price exceeds max price")
	}

	courses, total, err := s.courses.Search(ctx, filter)
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
	return courses, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Recommendations suggests approved courses the student has not taken,
// weighted toward their most-enrolled category.
func (s *SearchService) Recommendations(ctx context.Context, studentID string, limit int) ([]models.Course, error) {
	return s.courses.Recommendations(ctx, studentID, limit)
}
