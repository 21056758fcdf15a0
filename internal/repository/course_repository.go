package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/learnhub/learnhub-api/internal/models"
)

const courseColumns = `id, title, description, price, category, instructor_id, instructor_name, status,
        total_enrollments, average_rating, total_ratings, created_at, updated_at`

const lessonColumns = `id, course_id, title, content, duration, video_url, position, is_free_preview, created_at`

// CourseRepository handles persistence of courses and their owned
// lessons and materials. RecalculateRating is the only write point for
// the rating aggregates; the enrollment counter is incremented solely
// inside EnrollmentRepository.Create's transaction.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository constructs the repository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// Create persists a new course in Draft state with zero aggregates.
func (r *CourseRepository) Create(ctx context.Context, course *models.Course) error {
	if course.ID == "" {
		course.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	course.CreatedAt = now
	course.UpdatedAt = now
	const query = `INSERT INTO courses (id, title, description, price, category, instructor_id, instructor_name, status,
        total_enrollments, average_rating, total_ratings, created_at, updated_at)
        VALUES (:id, :title, :description, :price, :category, :instructor_id, :instructor_name, :status,
        :total_enrollments, :average_rating, :total_ratings, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, course); err != nil {
		return fmt.Errorf("create course: %w", err)
	}
	return nil
}

// FindByID returns a course by identifier.
func (r *CourseRepository) FindByID(ctx context.Context, id string) (*models.Course, error) {
	query := fmt.Sprintf(`SELECT %s FROM courses WHERE id = $1`, courseColumns)
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find course by id: %w", err)
	}
	return &course, nil
}

// FindDetailByID returns a course with its lessons and materials.
func (r *CourseRepository) FindDetailByID(ctx context.Context, id string) (*models.CourseDetail, error) {
	course, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	lessons, err := r.ListLessons(ctx, id)
	if err != nil {
		return nil, err
	}
	materials, err := r.ListMaterials(ctx, id)
	if err != nil {
		return nil, err
	}
	return &models.CourseDetail{Course: *course, Lessons: lessons, Materials: materials}, nil
}

// ListByInstructor returns every course owned by an instructor.
func (r *CourseRepository) ListByInstructor(ctx context.Context, instructorID string) ([]models.Course, error) {
	query := fmt.Sprintf(`SELECT %s FROM courses WHERE instructor_id = $1 ORDER BY created_at DESC`, courseColumns)
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query, instructorID); err != nil {
		return nil, fmt.Errorf("list instructor courses: %w", err)
	}
	return courses, nil
}

// ListByStatus returns courses in the given lifecycle state.
func (r *CourseRepository) ListByStatus(ctx context.Context, status models.CourseStatus) ([]models.Course, error) {
	query := fmt.Sprintf(`SELECT %s FROM courses WHERE status = $1 ORDER BY updated_at ASC`, courseColumns)
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query, status); err != nil {
		return nil, fmt.Errorf("list courses by status: %w", err)
	}
	return courses, nil
}

// Search returns approved courses matching the filter with total count.
func (r *CourseRepository) Search(ctx context.Context, filter models.CourseFilter) ([]models.Course, int, error) {
	base := `FROM courses WHERE status = $1`
	args := []interface{}{models.CourseStatusApproved}

	if filter.Query != "" {
		base += fmt.Sprintf(" AND (LOWER(title) LIKE $%d OR LOWER(description) LIKE $%d OR LOWER(instructor_name) LIKE $%d)",
			len(args)+1, len(args)+1, len(args)+1)
		args = append(args, "%"+strings.ToLower(filter.Query)+"%")
	}
	if filter.Category != "" {
		base += fmt.Sprintf(" AND category = $%d", len(args)+1)
		args = append(args, filter.Category)
	}
	if filter.MinRating > 0 {
		base += fmt.Sprintf(" AND average_rating >= $%d", len(args)+1)
		args = append(args, filter.MinRating)
	}
	if filter.MinPrice != nil {
		base += fmt.Sprintf(" AND price >= $%d", len(args)+1)
		args = append(args, *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		base += fmt.Sprintf(" AND price <= $%d", len(args)+1)
		args = append(args, *filter.MaxPrice)
	}

	orderBy := map[string]string{
		"popularity":    "total_enrollments DESC",
		"newest":        "created_at DESC",
		"highest-rated": "average_rating DESC",
		"price-low":     "price ASC",
		"price-high":    "price DESC",
	}[filter.SortBy]
	if orderBy == "" {
		orderBy = "total_enrollments DESC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT %s %s ORDER BY %s LIMIT %d OFFSET %d`, courseColumns, base, orderBy, size, offset)
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query, args...); err != nil {
		return nil, 0, fmt.Errorf("search courses: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, args...); err != nil {
		return nil, 0, fmt.Errorf("count courses: %w", err)
	}
	return courses, total, nil
}

// Update applies the non-nil fields of the partial update.
func (r *CourseRepository) Update(ctx context.Context, id string, update models.CourseUpdate) error {
	sets := []string{}
	args := []interface{}{id}

	if update.Title != nil {
		sets = append(sets, fmt.Sprintf("title = $%d", len(args)+1))
		args = append(args, *update.Title)
	}
	if update.Description != nil {
		sets = append(sets, fmt.Sprintf("description = $%d", len(args)+1))
		args = append(args, *update.Description)
	}
	if update.Price != nil {
		sets = append(sets, fmt.Sprintf("price = $%d", len(args)+1))
		args = append(args, *update.Price)
	}
	if update.Category != nil {
		sets = append(sets, fmt.Sprintf("category = $%d", len(args)+1))
		args = append(args, *update.Category)
	}
	if len(sets) == 0 {
		return nil
	}
	sets = append(sets, fmt.Sprintf("updated_at = $%d", len(args)+1))
	args = append(args, time.Now().UTC())

	query := fmt.Sprintf("UPDATE courses SET %s WHERE id = $1", strings.Join(sets, ", "))
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update course: %w", err)
	}
	return nil
}

// UpdateStatus moves a course to a new lifecycle state.
func (r *CourseRepository) UpdateStatus(ctx context.Context, id string, status models.CourseStatus) error {
	const query = `UPDATE courses SET status = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status, time.Now().UTC()); err != nil {
		return fmt.Errorf("update course status: %w", err)
	}
	return nil
}

// Delete removes a course. Lessons, materials and reviews cascade at
// the storage layer; enrollments and certificates are kept.
func (r *CourseRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM courses WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete course: %w", err)
	}
	return nil
}

// ListLessons returns the course's lessons in position order.
func (r *CourseRepository) ListLessons(ctx context.Context, courseID string) ([]models.Lesson, error) {
	query := fmt.Sprintf(`SELECT %s FROM lessons WHERE course_id = $1 ORDER BY position ASC`, lessonColumns)
	var lessons []models.Lesson
	if err := r.db.SelectContext(ctx, &lessons, query, courseID); err != nil {
		return nil, fmt.Errorf("list lessons: %w", err)
	}
	return lessons, nil
}

// FindLesson returns one lesson of a course.
func (r *CourseRepository) FindLesson(ctx context.Context, courseID, lessonID string) (*models.Lesson, error) {
	query := fmt.Sprintf(`SELECT %s FROM lessons WHERE course_id = $1 AND id = $2`, lessonColumns)
	var lesson models.Lesson
	if err := r.db.GetContext(ctx, &lesson, query, courseID, lessonID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find lesson: %w", err)
	}
	return &lesson, nil
}

// CountLessons returns the number of lessons a course owns.
func (r *CourseRepository) CountLessons(ctx context.Context, courseID string) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM lessons WHERE course_id = $1`, courseID); err != nil {
		return 0, fmt.Errorf("count lessons: %w", err)
	}
	return count, nil
}

// AddLesson appends a lesson to the end of the course's sequence.
func (r *CourseRepository) AddLesson(ctx context.Context, lesson *models.Lesson) error {
	if lesson.ID == "" {
		lesson.ID = uuid.NewString()
	}
	if lesson.CreatedAt.IsZero() {
		lesson.CreatedAt = time.Now().UTC()
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin add lesson: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = tx.GetContext(ctx, &lesson.Position,
		`SELECT COALESCE(MAX(position), 0) + 1 FROM lessons WHERE course_id = $1`, lesson.CourseID); err != nil {
		return fmt.Errorf("next lesson position: %w", err)
	}

	const insert = `INSERT INTO lessons (id, course_id, title, content, duration, video_url, position, is_free_preview, created_at)
        VALUES (:id, :course_id, :title, :content, :duration, :video_url, :position, :is_free_preview, :created_at)`
	if _, err = tx.NamedExecContext(ctx, insert, lesson); err != nil {
		return fmt.Errorf("insert lesson: %w", err)
	}

	if _, err = tx.ExecContext(ctx, `UPDATE courses SET updated_at = $2 WHERE id = $1`, lesson.CourseID, time.Now().UTC()); err != nil {
		return fmt.Errorf("touch course: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit add lesson: %w", err)
	}
	return nil
}

// RemoveLesson deletes a lesson and re-normalises positions so the
// sequence stays dense 1..N.
func (r *CourseRepository) RemoveLesson(ctx context.Context, courseID, lessonID string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin remove lesson: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx, `DELETE FROM lessons WHERE course_id = $1 AND id = $2`, courseID, lessonID)
	if err != nil {
		return fmt.Errorf("delete lesson: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete lesson rows: %w", err)
	}
	if affected == 0 {
		err = sql.ErrNoRows
		return err
	}

	const resequence = `UPDATE lessons l SET position = seq.rn
        FROM (SELECT id, ROW_NUMBER() OVER (ORDER BY position ASC) AS rn FROM lessons WHERE course_id = $1) seq
        WHERE l.id = seq.id AND l.position <> seq.rn`
	if _, err = tx.ExecContext(ctx, resequence, courseID); err != nil {
		return fmt.Errorf("resequence lessons: %w", err)
	}

	if _, err = tx.ExecContext(ctx, `UPDATE courses SET updated_at = $2 WHERE id = $1`, courseID, time.Now().UTC()); err != nil {
		return fmt.Errorf("touch course: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit remove lesson: %w", err)
	}
	return nil
}

// AddMaterial attaches supplementary material to a course.
func (r *CourseRepository) AddMaterial(ctx context.Context, material *models.Material) error {
	if material.ID == "" {
		material.ID = uuid.NewString()
	}
	if material.CreatedAt.IsZero() {
		material.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO materials (id, course_id, type, title, content, created_at)
        VALUES (:id, :course_id, :type, :title, :content, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, material); err != nil {
		return fmt.Errorf("add material: %w", err)
	}
	return nil
}

// ListMaterials returns a course's materials.
func (r *CourseRepository) ListMaterials(ctx context.Context, courseID string) ([]models.Material, error) {
	const query = `SELECT id, course_id, type, title, content, created_at FROM materials WHERE course_id = $1 ORDER BY created_at ASC`
	var materials []models.Material
	if err := r.db.SelectContext(ctx, &materials, query, courseID); err != nil {
		return nil, fmt.Errorf("list materials: %w", err)
	}
	return materials, nil
}

// Recommendations returns approved courses the student is not enrolled
// in, ranked so the student's most-enrolled category comes first and
// popularity breaks ties. With no enrollment history the ranking
// degrades to plain popularity.
func (r *CourseRepository) Recommendations(ctx context.Context, studentID string, limit int) ([]models.Course, error) {
	if limit <= 0 {
		limit = 10
	}
	query := fmt.Sprintf(`WITH preferred AS (
        SELECT c.category FROM enrollments e JOIN courses c ON c.id = e.course_id
        WHERE e.student_id = $1 GROUP BY c.category ORDER BY COUNT(*) DESC LIMIT 1)
        SELECT %s FROM courses
        WHERE status = $2 AND id NOT IN (SELECT course_id FROM enrollments WHERE student_id = $1)
        ORDER BY (category = (SELECT category FROM preferred)) DESC NULLS LAST, total_enrollments DESC, average_rating DESC
        LIMIT $3`, courseColumns)
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query, studentID, models.CourseStatusApproved, limit); err != nil {
		return nil, fmt.Errorf("recommend courses: %w", err)
	}
	return courses, nil
}

// RecalculateRating recomputes the derived rating aggregates from the
// non-flagged review set: mean rounded to 2 decimals, 0/0 when empty.
// This is the only write point for average_rating and total_ratings.
func (r *CourseRepository) RecalculateRating(ctx context.Context, courseID string) error {
	const query = `UPDATE courses SET
        average_rating = COALESCE((SELECT ROUND(AVG(rating)::numeric, 2) FROM reviews WHERE course_id = $1 AND is_flagged = FALSE), 0),
        total_ratings = (SELECT COUNT(*) FROM reviews WHERE course_id = $1 AND is_flagged = FALSE)
        WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, courseID); err != nil {
		return fmt.Errorf("recalculate rating: %w", err)
	}
	return nil
}
