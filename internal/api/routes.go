package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"aves/lms-app/internal/config"
	"aves/lms-app/internal/domain"
	"aves/lms-app/internal/service"
)

func SetupRoutes(
	router *gin.Engine,
	cfg *config.Config,
	rdb *redis.Client,
	authService service.AuthService,
	materialService service.MaterialService,
	profileService service.ProfileService,
	adminService service.AdminService,
	enrollmentService service.EnrollmentService,
) {
	authHandler := NewAuthHandler(authService, cfg.Session)
	teacherHandler := NewTeacherHandler(materialService)
	studentHandler := NewStudentHandler(materialService, enrollmentService)
	adminHandler := NewAdminHandler(adminService, materialService, enrollmentService)
	profileHandler := NewProfileHandler(profileService)

	sessionMiddleware := SessionMiddleware(cfg.Session)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	// Role selection page; every failed session check lands here.
	router.GET("/", authHandler.RoleSelection)

	authGroup := router.Group("/auth")
	authGroup.Use(RateLimitMiddleware(cfg.RateLimit, rdb))
	{
		authGroup.POST("/login/:role", authHandler.Login)
		authGroup.POST("/register/:role", authHandler.Register)
		authGroup.GET("/logout", authHandler.Logout)
	}

	teacherGroup := router.Group("/teacher")
	teacherGroup.Use(sessionMiddleware, RequireRole(domain.RoleTeacher))
	{
		teacherGroup.GET("/dashboard", teacherHandler.Dashboard)
		teacherGroup.POST("/upload", teacherHandler.Upload)
		teacherGroup.POST("/materials/:id/edit", teacherHandler.UpdateMaterial)
		teacherGroup.POST("/materials/:id/delete", teacherHandler.DeleteMaterial)
		teacherGroup.GET("/materials/:id/download", teacherHandler.Download)
		teacherGroup.GET("/profile", profileHandler.Get)
		teacherGroup.POST("/profile", profileHandler.Save)
		teacherGroup.GET("/profile/photo", profileHandler.Photo)
	}

	studentGroup := router.Group("/student")
	studentGroup.Use(sessionMiddleware, RequireRole(domain.RoleStudent))
	{
		studentGroup.GET("/dashboard", studentHandler.Dashboard)
		studentGroup.GET("/materials", studentHandler.Materials)
		studentGroup.GET("/materials/:id/download", studentHandler.Download)
		studentGroup.GET("/enrollments", studentHandler.Enrollments)
		studentGroup.POST("/enrollments", studentHandler.Enroll)
		studentGroup.GET("/courses", studentHandler.Courses)
		studentGroup.GET("/profile", profileHandler.Get)
		studentGroup.POST("/profile", profileHandler.Save)
		studentGroup.GET("/profile/photo", profileHandler.Photo)
	}

	adminGroup := router.Group("/admin")
	adminGroup.Use(sessionMiddleware, RequireRole(domain.RoleAdmin))
	{
		adminGroup.GET("/dashboard", adminHandler.Dashboard)
		adminGroup.GET("/materials", adminHandler.Materials)
		adminGroup.POST("/materials/approve/:id", adminHandler.Approve)
		adminGroup.POST("/materials/reject/:id", adminHandler.Reject)
		adminGroup.POST("/materials/delete/:id", adminHandler.DeleteMaterial)
		adminGroup.GET("/materials/download/:id", adminHandler.Download)
		adminGroup.GET("/users", adminHandler.Users)
		adminGroup.POST("/users/create", adminHandler.CreateUser)
		adminGroup.POST("/users/edit/:id", adminHandler.UpdateUser)
		adminGroup.POST("/users/delete/:id", adminHandler.DeleteUser)
		adminGroup.GET("/analytics", adminHandler.Analytics)
		adminGroup.GET("/courses", adminHandler.Courses)
		adminGroup.GET("/courses/:name/enrollments", adminHandler.CourseEnrollments)
		adminGroup.GET("/profile", profileHandler.Get)
		adminGroup.POST("/profile", profileHandler.Save)
		adminGroup.GET("/profile/photo", profileHandler.Photo)
	}
}
