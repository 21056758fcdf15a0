package models

import "time"

// SubmitReviewRequest is the payload for posting a review. Rating and
// comment bounds are checked in the service so the gate ordering on
// submission stays explicit.
type SubmitReviewRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// Review is unique per (student, course). Flagged reviews are excluded
// from rating aggregation and default listings until an admin clears
// the flag.
type Review struct {
	ID          string    `db:"id" json:"id"`
	StudentID   string    `db:"student_id" json:"student_id"`
	StudentName string    `db:"student_name" json:"student_name"`
	CourseID    string    `db:"course_id" json:"course_id"`
	Rating      int       `db:"rating" json:"rating"`
	Comment     string    `db:"comment" json:"comment"`
	IsVerified  bool      `db:"is_verified" json:"is_verified"`
	IsFlagged   bool      `db:"is_flagged" json:"is_flagged"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}
