package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-admin-api/internal/handler"
	"github.com/noah-isme/school-admin-api/internal/middleware"
	"github.com/noah-isme/school-admin-api/internal/models"
)

// Handlers bundles every HTTP handler mounted under the API prefix.
type Handlers struct {
	Auth      *handler.AuthHandler
	Students  *handler.StudentHandler
	Teachers  *handler.TeacherHandler
	Courses   *handler.CourseHandler
	Rooms     *handler.RoomHandler
	Schedules *handler.ScheduleHandler
	Marks     *handler.MarkHandler
	Dashboard *handler.DashboardHandler
	Metrics   *handler.MetricsHandler
}

// Options configures route registration.
type Options struct {
	Prefix     string
	Tokens     middleware.TokenValidator
	CookieName string
}

// Register mounts the public probes and the versioned API on r.
func Register(r gin.IRouter, h Handlers, opts Options) {
	r.GET("/health", h.Metrics.Health)
	r.GET("/ready", h.Metrics.Ready)
	r.GET("/metrics", h.Metrics.Prometheus)

	api := r.Group(opts.Prefix)
	auth := middleware.JWT(opts.Tokens, opts.CookieName)
	admin := middleware.RequireRoles(models.RoleAdmin)
	staff := middleware.RequireRoles(models.RoleAdmin, models.RoleTeacher)

	authGroup := api.Group("/auth")
	authGroup.POST("/login", h.Auth.Login)
	authGroup.POST("/register", h.Auth.Register)
	authGroup.POST("/logout", h.Auth.Logout)
	authGroup.GET("/me", auth, h.Auth.Me)

	students := api.Group("/students", auth, admin)
	students.GET("", h.Students.List)
	students.POST("", h.Students.Create)
	students.GET("/:id", h.Students.Get)
	students.PUT("/:id", h.Students.Update)
	students.DELETE("/:id", h.Students.Delete)

	teachers := api.Group("/teachers", auth, admin)
	teachers.GET("", h.Teachers.List)
	teachers.POST("", h.Teachers.Create)
	teachers.GET("/:id", h.Teachers.Get)
	teachers.PUT("/:id", h.Teachers.Update)
	teachers.DELETE("/:id", h.Teachers.Delete)

	courses := api.Group("/courses", auth)
	courses.GET("/options", staff, h.Courses.Options)
	courses.GET("", admin, h.Courses.List)
	courses.POST("", admin, h.Courses.Create)
	courses.GET("/:id", admin, h.Courses.Get)
	courses.PUT("/:id", admin, h.Courses.Update)
	courses.DELETE("/:id", admin, h.Courses.Delete)

	rooms := api.Group("/rooms", auth, admin)
	rooms.GET("", h.Rooms.List)
	rooms.POST("", h.Rooms.Create)
	rooms.GET("/:id", h.Rooms.Get)
	rooms.PUT("/:id", h.Rooms.Update)
	rooms.DELETE("/:id", h.Rooms.Delete)

	schedules := api.Group("/schedules", auth, admin)
	schedules.GET("", h.Schedules.List)
	schedules.POST("", h.Schedules.Create)
	schedules.POST("/check", h.Schedules.Check)
	schedules.GET("/options", h.Schedules.Options)
	schedules.GET("/export", h.Schedules.Export)
	schedules.GET("/:id", h.Schedules.Get)
	schedules.PUT("/:id", h.Schedules.Update)
	schedules.DELETE("/:id", h.Schedules.Delete)

	me := api.Group("/me", auth)
	me.GET("/schedule", middleware.RequireRoles(models.RoleTeacher, models.RoleStudent), h.Schedules.MySchedule)
	me.GET("/grades", middleware.RequireRoles(models.RoleStudent), h.Marks.MyGrades)

	marks := api.Group("/marks", auth, staff)
	marks.GET("", h.Marks.List)
	marks.POST("", h.Marks.Create)
	marks.GET("/options", h.Marks.Options)
	marks.GET("/:id", h.Marks.Get)
	marks.PUT("/:id", h.Marks.Update)
	marks.DELETE("/:id", h.Marks.Delete)

	api.GET("/dashboard/admin", auth, admin, h.Dashboard.Admin)
}
