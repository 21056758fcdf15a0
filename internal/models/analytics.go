package models

import "time"

// UserCounts breaks the user base down by role and ban state.
type UserCounts struct {
	Total       int `db:"total" json:"total"`
	Students    int `db:"students" json:"students"`
	Instructors int `db:"instructors" json:"instructors"`
	Admins      int `db:"admins" json:"admins"`
	Banned      int `db:"banned" json:"banned"`
}

// CourseCounts breaks the catalog down by status.
type CourseCounts struct {
	Total    int `db:"total" json:"total"`
	Approved int `db:"approved" json:"approved"`
	Pending  int `db:"pending" json:"pending"`
	Draft    int `db:"draft" json:"draft"`
	Rejected int `db:"rejected" json:"rejected"`
}

// EnrollmentCounts summarises enrollment states.
type EnrollmentCounts struct {
	Total     int `db:"total" json:"total"`
	Completed int `db:"completed" json:"completed"`
	Active    int `db:"active" json:"active"`
	Paused    int `db:"paused" json:"paused"`
}

// ReviewCounts summarises review moderation state.
type ReviewCounts struct {
	Total   int `db:"total" json:"total"`
	Flagged int `db:"flagged" json:"flagged"`
}

// CategoryCount is one bucket of the category distribution.
type CategoryCount struct {
	Category CourseCategory `db:"category" json:"category"`
	Count    int            `db:"count" json:"count"`
}

// TopCourse is one entry of the courses-by-enrollment leaderboard.
type TopCourse struct {
	Title       string  `db:"title" json:"title"`
	Enrollments int     `db:"total_enrollments" json:"enrollments"`
	Rating      float64 `db:"average_rating" json:"rating"`
}

// PlatformAnalytics is the read-only platform rollup.
type PlatformAnalytics struct {
	Users        UserCounts       `json:"users"`
	Courses      CourseCounts     `json:"courses"`
	Enrollments  EnrollmentCounts `json:"enrollments"`
	Reviews      ReviewCounts     `json:"reviews"`
	Certificates int              `json:"certificates"`
	Revenue      float64          `json:"revenue"`
	Categories   []CategoryCount  `json:"category_stats"`
	TopCourses   []TopCourse      `json:"top_courses"`
	GeneratedAt  time.Time        `json:"generated_at"`
}

// CourseStats is the per-course admin rollup.
type CourseStats struct {
	Course
	EnrollmentCount int      `json:"enrollment_count"`
	CompletionRate  int      `json:"completion_rate"`
	ReviewCount     int      `json:"review_count"`
	Reviews         []Review `json:"reviews"`
}

// AnalyticsSystemMetrics snapshots process instrumentation for the
// analytics endpoints.
type AnalyticsSystemMetrics struct {
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	CacheHits                uint64    `json:"cache_hits"`
	CacheMisses              uint64    `json:"cache_misses"`
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"avg_request_duration_ms"`
	DBQueryCount             uint64    `json:"db_query_count"`
	AverageDBQueryDurationMs float64   `json:"avg_db_query_duration_ms"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}
