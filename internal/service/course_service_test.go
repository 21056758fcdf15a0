package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/learnhub/learnhub-api/internal/models"
	appErrors "github.com/learnhub/learnhub-api/pkg/errors"
)

type courseStoreMock struct {
	courses   map[string]models.Course
	lessons   map[string][]models.Lesson
	materials map[string][]models.Material
	statusSet map[string]models.CourseStatus
	deleted   []string
	updated   map[string]models.CourseUpdate
	removed   []string
}

func newCourseStoreMock() *courseStoreMock {
	return &courseStoreMock{
		courses:   map[string]models.Course{},
		lessons:   map[string][]models.Lesson{},
		materials: map[string][]models.Material{},
		statusSet: map[string]models.CourseStatus{},
		updated:   map[string]models.CourseUpdate{},
	}
}

func (m *courseStoreMock) Create(ctx context.Context, course *models.Course) error {
	if course.ID == "" {
		course.ID = "course-new"
	}
	m.courses[course.ID] = *course
	return nil
}

func (m *courseStoreMock) FindByID(ctx context.Context, id string) (*models.Course, error) {
	if c, ok := m.courses[id]; ok {
		return &c, nil
	}
	return nil, sql.ErrNoRows
}

func (m *courseStoreMock) FindDetailByID(ctx context.Context, id string) (*models.CourseDetail, error) {
	c, err := m.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &models.CourseDetail{Course: *c, Lessons: m.lessons[id], Materials: m.materials[id]}, nil
}

func (m *courseStoreMock) ListByInstructor(ctx context.Context, instructorID string) ([]models.Course, error) {
	var out []models.Course
	for _, c := range m.courses {
		if c.InstructorID == instructorID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *courseStoreMock) ListByStatus(ctx context.Context, status models.CourseStatus) ([]models.Course, error) {
	var out []models.Course
	for _, c := range m.courses {
		if c.Status == status {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *courseStoreMock) Update(ctx context.Context, id string, update models.CourseUpdate) error {
	m.updated[id] = update
	return nil
}

func (m *courseStoreMock) UpdateStatus(ctx context.Context, id string, status models.CourseStatus) error {
	m.statusSet[id] = status
	if c, ok := m.courses[id]; ok {
		c.Status = status
		m.courses[id] = c
	}
	return nil
}

func (m *courseStoreMock) Delete(ctx context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	delete(m.courses, id)
	return nil
}

func (m *courseStoreMock) ListLessons(ctx context.Context, courseID string) ([]models.Lesson, error) {
	return m.lessons[courseID], nil
}

func (m *courseStoreMock) CountLessons(ctx context.Context, courseID string) (int, error) {
	return len(m.lessons[courseID]), nil
}

func (m *courseStoreMock) AddLesson(ctx context.Context, lesson *models.Lesson) error {
	lesson.ID = "les-new"
	lesson.Position = len(m.lessons[lesson.CourseID]) + 1
	m.lessons[lesson.CourseID] = append(m.lessons[lesson.CourseID], *lesson)
	return nil
}

func (m *courseStoreMock) RemoveLesson(ctx context.Context, courseID, lessonID string) error {
	for i, l := range m.lessons[courseID] {
		if l.ID == lessonID {
			m.lessons[courseID] = append(m.lessons[courseID][:i], m.lessons[courseID][i+1:]...)
			m.removed = append(m.removed, lessonID)
			return nil
		}
	}
	return sql.ErrNoRows
}

func (m *courseStoreMock) AddMaterial(ctx context.Context, material *models.Material) error {
	material.ID = "mat-new"
	m.materials[material.CourseID] = append(m.materials[material.CourseID], *material)
	return nil
}

func instructorClaims(id string) *models.JWTClaims {
	return &models.JWTClaims{UserID: id, Role: models.RoleInstructor, ActingRole: models.RoleInstructor, FullName: "Jane Doe"}
}

func adminClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "adm-1", Role: models.RoleAdmin, ActingRole: models.RoleAdmin, FullName: "Root Admin"}
}

func newCourseFixture() (*CourseService, *courseStoreMock, *enrollFinderStub) {
	store := newCourseStoreMock()
	enrollments := &enrollFinderStub{enrollments: map[string]models.Enrollment{}}
	return NewCourseService(store, enrollments, nil), store, enrollments
}

func TestCourseCreateStartsAsDraft(t *testing.T) {
	svc, _, _ := newCourseFixture()

	course, err := svc.Create(context.Background(), instructorClaims("ins-1"), models.CreateCourseRequest{
		Title:    "Go for Gophers",
		Price:    49.99,
		Category: models.CategoryProgramming,
	})
	require.NoError(t, err)
	assert.Equal(t, models.CourseStatusDraft, course.Status)
	assert.Equal(t, "ins-1", course.InstructorID)
	assert.Equal(t, "Jane Doe", course.InstructorName)
	assert.Zero(t, course.TotalEnrollments)
}

func TestCourseCreateValidation(t *testing.T) {
	svc, _, _ := newCourseFixture()

	_, err := svc.Create(context.Background(), instructorClaims("ins-1"), models.CreateCourseRequest{
		Title:    "ab",
		Category: models.CategoryProgramming,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = svc.Create(context.Background(), instructorClaims("ins-1"), models.CreateCourseRequest{
		Title:    "Valid Title",
		Price:    -1,
		Category: models.CategoryProgramming,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = svc.Create(context.Background(), instructorClaims("ins-1"), models.CreateCourseRequest{
		Title:    "Valid Title",
		Category: "Underwater Basket Weaving",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestSubmitForApprovalFromDraft(t *testing.T) {
	svc, store, _ := newCourseFixture()
	store.courses["course-1"] = models.Course{ID: "course-1", InstructorID: "ins-1", Status: models.CourseStatusDraft}
	store.lessons["course-1"] = []models.Lesson{{ID: "les-1"}}

	course, err := svc.SubmitForApproval(context.Background(), instructorClaims("ins-1"), "course-1")
	require.NoError(t, err)
	assert.Equal(t, models.CourseStatusPending, course.Status)
}

func TestSubmitForApprovalFromRejected(t *testing.T) {
	svc, store, _ := newCourseFixture()
	store.courses["course-1"] = models.Course{ID: "course-1", InstructorID: "ins-1", Status: models.CourseStatusRejected}
	store.lessons["course-1"] = []models.Lesson{{ID: "les-1"}}

	course, err := svc.SubmitForApproval(context.Background(), instructorClaims("ins-1"), "course-1")
	require.NoError(t, err)
	assert.Equal(t, models.CourseStatusPending, course.Status)
}

func TestSubmitForApprovalRejectsWrongState(t *testing.T) {
	svc, store, _ := newCourseFixture()
	store.courses["course-1"] = models.Course{ID: "course-1", InstructorID: "ins-1", Status: models.CourseStatusApproved}
	store.lessons["course-1"] = []models.Lesson{{ID: "les-1"}}

	_, err := svc.SubmitForApproval(context.Background(), instructorClaims("ins-1"), "course-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestSubmitForApprovalNeedsLessons(t *testing.T) {
	svc, store, _ := newCourseFixture()
	store.courses["course-1"] = models.Course{ID: "course-1", InstructorID: "ins-1", Status: models.CourseStatusDraft}

	_, err := svc.SubmitForApproval(context.Background(), instructorClaims("ins-1"), "course-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
}

func TestSubmitForApprovalOwnerOnly(t *testing.T) {
	svc, store, _ := newCourseFixture()
	store.courses["course-1"] = models.Course{ID: "course-1", InstructorID: "ins-1", Status: models.CourseStatusDraft}
	store.lessons["course-1"] = []models.Lesson{{ID: "les-1"}}

	_, err := svc.SubmitForApproval(context.Background(), instructorClaims("ins-2"), "course-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestDecideAppliesRegardlessOfState(t *testing.T) {
	svc, store, _ := newCourseFixture()
	store.courses["course-1"] = models.Course{ID: "course-1", InstructorID: "ins-1", Status: models.CourseStatusDraft}

	course, err := svc.Decide(context.Background(), "adm-1", "course-1", true)
	require.NoError(t, err)
	assert.Equal(t, models.CourseStatusApproved, course.Status)

	course, err = svc.Decide(context.Background(), "adm-1", "course-1", false)
	require.NoError(t, err)
	assert.Equal(t, models.CourseStatusRejected, course.Status)
}

func TestCourseDeleteOwnerOrAdmin(t *testing.T) {
	svc, store, _ := newCourseFixture()
	store.courses["course-1"] = models.Course{ID: "course-1", InstructorID: "ins-1"}
	store.courses["course-2"] = models.Course{ID: "course-2", InstructorID: "ins-1"}

	err := svc.Delete(context.Background(), instructorClaims("ins-2"), "course-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	require.NoError(t, svc.Delete(context.Background(), instructorClaims("ins-1"), "course-1"))
	require.NoError(t, svc.Delete(context.Background(), adminClaims(), "course-2"))
	assert.Equal(t, []string{"course-1", "course-2"}, store.deleted)
}

func TestRemoveLessonNotFound(t *testing.T) {
	svc, store, _ := newCourseFixture()
	store.courses["course-1"] = models.Course{ID: "course-1", InstructorID: "ins-1"}

	err := svc.RemoveLesson(context.Background(), instructorClaims("ins-1"), "course-1", "les-404")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestPreviewListsFreeLessonsOnly(t *testing.T) {
	svc, store, _ := newCourseFixture()
	store.courses["course-1"] = models.Course{ID: "course-1", Status: models.CourseStatusApproved}
	store.lessons["course-1"] = []models.Lesson{
		{ID: "les-1", IsFreePreview: true},
		{ID: "les-2"},
		{ID: "les-3"},
	}

	preview, err := svc.Preview(context.Background(), "course-1")
	require.NoError(t, err)
	assert.Equal(t, 3, preview.TotalLessons)
	require.Len(t, preview.PreviewLessons, 1)
	assert.Equal(t, "les-1", preview.PreviewLessons[0].ID)
}

func TestPreviewHidesUnapprovedCourses(t *testing.T) {
	svc, store, _ := newCourseFixture()
	store.courses["course-1"] = models.Course{ID: "course-1", Status: models.CourseStatusPending}

	_, err := svc.Preview(context.Background(), "course-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestDetailVisibleToEnrolledStudent(t *testing.T) {
	svc, store, enrollments := newCourseFixture()
	store.courses["course-1"] = models.Course{ID: "course-1", InstructorID: "ins-1", Status: models.CourseStatusApproved}
	store.lessons["course-1"] = []models.Lesson{{ID: "les-1"}}

	_, err := svc.Detail(context.Background(), studentClaims("stu-1"), "course-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	enrollments.enrollments["stu-1/course-1"] = models.Enrollment{ID: "enr-1"}
	detail, err := svc.Detail(context.Background(), studentClaims("stu-1"), "course-1")
	require.NoError(t, err)
	assert.Len(t, detail.Lessons, 1)
}
