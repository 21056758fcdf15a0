package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/learnhub/learnhub-api/internal/middleware"
	"github.com/learnhub/learnhub-api/internal/models"
	"github.com/learnhub/learnhub-api/internal/service"
)

// Handlers bundles every HTTP handler for route registration.
type Handlers struct {
	Auth        *AuthHandler
	Users       *UserHandler
	Courses     *CourseHandler
	Enrollments *EnrollmentHandler
	Reviews     *ReviewHandler
	Search      *SearchHandler
	Analytics   *AnalyticsHandler
}

// RegisterRoutes mounts the API under the given prefix. Role checks
// run against the session's acting role, so an instructor browsing as
// a student hits the student surface only.
func RegisterRoutes(r *gin.Engine, prefix string, auth *service.AuthService, h Handlers) {
	api := r.Group(prefix)

	api.POST("/auth/register", h.Auth.Register)
	api.POST("/auth/login", h.Auth.Login)
	api.POST("/auth/refresh", h.Auth.Refresh)

	// Static segments cannot sibling a :param in gin's tree, so the
	// category list and instructor catalog live outside /courses/:id.
	api.GET("/courses", h.Search.Search)
	api.GET("/categories", h.Courses.Categories)
	api.GET("/courses/:id/preview", h.Courses.Preview)
	api.GET("/courses/:id/reviews", h.Reviews.ListByCourse)

	authed := api.Group("")
	authed.Use(middleware.Authenticate(auth))

	authed.GET("/auth/me", h.Auth.Me)
	authed.POST("/auth/logout", h.Auth.Logout)
	authed.POST("/auth/change-password", h.Auth.ChangePassword)

	authed.GET("/courses/:id", h.Courses.Detail)

	instructor := authed.Group("")
	instructor.Use(middleware.RequireRoles(models.RoleInstructor))
	instructor.POST("/courses", h.Courses.Create)
	instructor.GET("/instructor/courses", h.Courses.ListMine)
	instructor.PUT("/courses/:id", h.Courses.Update)
	instructor.POST("/courses/:id/lessons", h.Courses.AddLesson)
	instructor.DELETE("/courses/:id/lessons/:lessonID", h.Courses.RemoveLesson)
	instructor.POST("/courses/:id/materials", h.Courses.AddMaterial)
	instructor.POST("/courses/:id/submit", h.Courses.Submit)

	// Deletion is owner-or-admin; the service checks ownership.
	authed.DELETE("/courses/:id", h.Courses.Delete)

	student := authed.Group("")
	student.Use(middleware.RequireRoles(models.RoleStudent))
	student.POST("/courses/:id/enroll", h.Enrollments.Enroll)
	student.POST("/courses/:id/lessons/:lessonID/complete", h.Enrollments.CompleteLesson)
	student.GET("/enrollments", h.Enrollments.ListMine)
	student.PUT("/enrollments/:courseID/pause", h.Enrollments.Pause)
	student.PUT("/enrollments/:courseID/resume", h.Enrollments.Resume)
	student.GET("/enrollments/:courseID/progress", h.Enrollments.Progress)
	student.GET("/certificates", h.Enrollments.ListCertificates)
	student.POST("/courses/:id/reviews", h.Reviews.Submit)
	student.GET("/recommendations", h.Search.Recommendations)

	authed.GET("/certificates/:id", h.Enrollments.GetCertificate)
	authed.GET("/certificates/:id/pdf", h.Enrollments.DownloadCertificate)
	authed.DELETE("/reviews/:id", h.Reviews.Delete)

	admin := authed.Group("/admin")
	admin.Use(middleware.RequireRoles(models.RoleAdmin))
	admin.GET("/users", h.Users.List)
	admin.PUT("/users/:id/role", h.Users.ChangeRole)
	admin.PUT("/users/:id/ban", h.Users.SetBanned)
	admin.POST("/users/:id/reset-password", h.Users.ResetPassword)
	admin.GET("/review-queue", h.Courses.ListPending)
	admin.PUT("/courses/:id/decision", h.Courses.Decide)
	admin.GET("/flagged-reviews", h.Reviews.ListFlagged)
	admin.PUT("/reviews/:id/moderate", h.Reviews.Moderate)
	admin.GET("/analytics", h.Analytics.Platform)
	admin.GET("/analytics/courses/:id", h.Analytics.CourseStats)
	admin.GET("/analytics/system", h.Analytics.System)
}
