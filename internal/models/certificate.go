package models

import "time"

// Certificate is an immutable proof-of-completion record, issued once
// per (student, course) pair. CertificateNumber is a display
// identifier; the storage layer enforces a unique constraint on it.
type Certificate struct {
	ID                string    `db:"id" json:"id"`
	CertificateNumber string    `db:"certificate_number" json:"certificate_number"`
	StudentID         string    `db:"student_id" json:"student_id"`
	StudentName       string    `db:"student_name" json:"student_name"`
	CourseID          string    `db:"course_id" json:"course_id"`
	CourseTitle       string    `db:"course_title" json:"course_title"`
	InstructorName    string    `db:"instructor_name" json:"instructor_name"`
	IssuedAt          time.Time `db:"issued_at" json:"issued_at"`
}
