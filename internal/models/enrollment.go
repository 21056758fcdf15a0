package models

import "time"

// Enrollment binds one student to one course. The (student_id,
// course_id) pair is unique at the storage layer. IsCompleted is a
// one-way latch; CertificateID is set exactly once, when completion
// first occurs.
type Enrollment struct {
	ID              string     `db:"id" json:"id"`
	StudentID       string     `db:"student_id" json:"student_id"`
	CourseID        string     `db:"course_id" json:"course_id"`
	CourseTitle     string     `db:"course_title" json:"course_title"`
	ProgressPercent int        `db:"progress_percent" json:"progress_percent"`
	IsCompleted     bool       `db:"is_completed" json:"is_completed"`
	IsPaused        bool       `db:"is_paused" json:"is_paused"`
	CertificateID   *string    `db:"certificate_id" json:"certificate_id,omitempty"`
	EnrolledAt      time.Time  `db:"enrolled_at" json:"enrolled_at"`
	CompletedAt     *time.Time `db:"completed_at" json:"completed_at,omitempty"`
}

// LessonProgress is one row of the progress projection.
type LessonProgress struct {
	LessonID    string `db:"lesson_id" json:"lesson_id"`
	Title       string `db:"title" json:"title"`
	Position    int    `db:"position" json:"position"`
	IsCompleted bool   `db:"is_completed" json:"is_completed"`
}

// ProgressView joins an enrollment with the course's current lesson
// list. Lessons added after the last completion event appear as
// incomplete items while ProgressPercent keeps its stored value, so the
// percent can lag the live lesson count until the next completion.
type ProgressView struct {
	CourseTitle      string           `json:"course_title"`
	TotalLessons     int              `json:"total_lessons"`
	CompletedLessons int              `json:"completed_lessons"`
	ProgressPercent  int              `json:"progress_percent"`
	IsCompleted      bool             `json:"is_completed"`
	IsPaused         bool             `json:"is_paused"`
	Lessons          []LessonProgress `json:"lessons"`
}

// CompletionResult reports the outcome of marking a lesson complete.
// Certificate is non-nil only on the call that crosses 100%.
type CompletionResult struct {
	Enrollment  Enrollment   `json:"enrollment"`
	Certificate *Certificate `json:"certificate,omitempty"`
}
