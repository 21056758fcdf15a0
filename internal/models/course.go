package models

import "time"

// CourseStatus represents the lifecycle stage of a course.
type CourseStatus string

const (
	CourseStatusDraft    CourseStatus = "Draft"
	CourseStatusPending  CourseStatus = "PendingApproval"
	CourseStatusApproved CourseStatus = "Approved"
	CourseStatusRejected CourseStatus = "Rejected"
)

// CourseCategory is the fixed category enumeration.
type CourseCategory string

const (
	CategoryProgramming CourseCategory = "Programming"
	CategoryBusiness    CourseCategory = "Business"
	CategoryDesign      CourseCategory = "Design"
	CategoryMarketing   CourseCategory = "Marketing"
	CategoryMusic       CourseCategory = "Music"
	CategoryPhotography CourseCategory = "Photography"
	CategoryHealth      CourseCategory = "Health & Fitness"
	CategoryPersonalDev CourseCategory = "Personal Development"
	CategoryOther       CourseCategory = "Other"
)

// Categories returns the full category enumeration in display order.
func Categories() []CourseCategory {
	return []CourseCategory{
		CategoryProgramming,
		CategoryBusiness,
		CategoryDesign,
		CategoryMarketing,
		CategoryMusic,
		CategoryPhotography,
		CategoryHealth,
		CategoryPersonalDev,
		CategoryOther,
	}
}

// ValidCategory reports whether the value is part of the enumeration.
func ValidCategory(c CourseCategory) bool {
	for _, known := range Categories() {
		if c == known {
			return true
		}
	}
	return false
}

// MaterialType enumerates supported course material kinds.
type MaterialType string

const (
	MaterialVideo MaterialType = "video"
	MaterialText  MaterialType = "text"
	MaterialQuiz  MaterialType = "quiz"
)

// ValidMaterialType reports whether the value is a known material kind.
func ValidMaterialType(t MaterialType) bool {
	return t == MaterialVideo || t == MaterialText || t == MaterialQuiz
}

// Course represents a course row. TotalEnrollments, AverageRating and
// TotalRatings are derived fields; only the enrollment counter increment
// and the rating recompute may write them.
type Course struct {
	ID               string         `db:"id" json:"id"`
	Title            string         `db:"title" json:"title"`
	Description      string         `db:"description" json:"description"`
	Price            float64        `db:"price" json:"price"`
	Category         CourseCategory `db:"category" json:"category"`
	InstructorID     string         `db:"instructor_id" json:"instructor_id"`
	InstructorName   string         `db:"instructor_name" json:"instructor_name"`
	Status           CourseStatus   `db:"status" json:"status"`
	TotalEnrollments int            `db:"total_enrollments" json:"total_enrollments"`
	AverageRating    float64        `db:"average_rating" json:"average_rating"`
	TotalRatings     int            `db:"total_ratings" json:"total_ratings"`
	CreatedAt        time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time      `db:"updated_at" json:"updated_at"`
}

// Lesson belongs to exactly one course; Position is a dense 1..N
// sequence re-normalised on removal.
type Lesson struct {
	ID            string    `db:"id" json:"id"`
	CourseID      string    `db:"course_id" json:"course_id"`
	Title         string    `db:"title" json:"title"`
	Content       string    `db:"content" json:"content"`
	Duration      int       `db:"duration" json:"duration"`
	VideoURL      string    `db:"video_url" json:"video_url"`
	Position      int       `db:"position" json:"position"`
	IsFreePreview bool      `db:"is_free_preview" json:"is_free_preview"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// Material is supplementary course content.
type Material struct {
	ID        string       `db:"id" json:"id"`
	CourseID  string       `db:"course_id" json:"course_id"`
	Type      MaterialType `db:"type" json:"type"`
	Title     string       `db:"title" json:"title"`
	Content   string       `db:"content" json:"content"`
	CreatedAt time.Time    `db:"created_at" json:"created_at"`
}

// CourseDetail bundles a course with its owned content.
type CourseDetail struct {
	Course
	Lessons   []Lesson   `json:"lessons"`
	Materials []Material `json:"materials"`
}

// CoursePreview is the public projection: only free-preview lessons are
// listed for non-enrolled viewers.
type CoursePreview struct {
	Course
	TotalLessons   int      `json:"total_lessons"`
	PreviewLessons []Lesson `json:"preview_lessons"`
}

// CourseFilter captures search criteria over approved courses.
type CourseFilter struct {
	Query     string
	Category  CourseCategory
	MinRating float64
	MinPrice  *float64
	MaxPrice  *float64
	SortBy    string
	Page      int
	PageSize  int
}

// CreateCourseRequest is the payload for creating a draft course.
type CreateCourseRequest struct {
	Title       string         `json:"title" validate:"required,min=3"`
	Description string         `json:"description"`
	Price       float64        `json:"price" validate:"gte=0"`
	Category    CourseCategory `json:"category" validate:"required"`
}

// AddLessonRequest is the payload for appending a lesson.
type AddLessonRequest struct {
	Title         string `json:"title" validate:"required"`
	Content       string `json:"content"`
	Duration      int    `json:"duration" validate:"gte=0"`
	VideoURL      string `json:"video_url"`
	IsFreePreview bool   `json:"is_free_preview"`
}

// AddMaterialRequest is the payload for attaching material.
type AddMaterialRequest struct {
	Type    MaterialType `json:"type" validate:"required"`
	Title   string       `json:"title" validate:"required"`
	Content string       `json:"content"`
}

// CourseDecisionRequest carries an admin's approval verdict.
type CourseDecisionRequest struct {
	Approve bool   `json:"approve"`
	Reason  string `json:"reason"`
}

// CourseUpdate applies partial edits; nil fields are untouched.
type CourseUpdate struct {
	Title       *string         `json:"title" validate:"omitempty,min=3"`
	Description *string         `json:"description"`
	Price       *float64        `json:"price" validate:"omitempty,gte=0"`
	Category    *CourseCategory `json:"category"`
}
