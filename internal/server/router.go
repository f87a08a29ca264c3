package server

import (
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/skillstream/skillstream-backend/internal/handlers"
	"github.com/skillstream/skillstream-backend/internal/middleware"
)

type RouterConfig struct {
	AllowedOrigins     string
	AuthMiddleware     *middleware.AuthMiddleware
	AuthHandler        *handlers.AuthHandler
	CourseHandler      *handlers.CourseHandler
	LectureHandler     *handlers.LectureHandler
	ProgressHandler    *handlers.ProgressHandler
	PurchaseHandler    *handlers.PurchaseHandler
	CertificateHandler *handlers.CertificateHandler
	SSEHandler         *handlers.SSEHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	router.Use(cors.New(cors.Config{
		AllowOrigins:     splitOrigins(cfg.AllowedOrigins),
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	// ===============
	// || Public    ||
	// ===============
	router.GET("/healthcheck", handlers.HealthCheck)
	auth := router.Group("/api/auth")
	{
		auth.POST("/register", cfg.AuthHandler.Register)
		auth.POST("/verify", cfg.AuthHandler.Verify)
		auth.POST("/login", cfg.AuthHandler.Login)
	}
	router.GET("/api/course", cfg.CourseHandler.ListPublished)
	// Payment collaborator callback; authenticated by checkout ref, not JWT.
	router.POST("/api/purchase/webhook", cfg.PurchaseHandler.Webhook)

	// ===============
	// || Protected ||
	// ===============
	protected := router.Group("/")
	protected.Use(cfg.AuthMiddleware.RequireAuth())
	// Auth
	protected.POST("/api/auth/refresh", cfg.AuthHandler.Refresh)
	protected.POST("/api/auth/logout", cfg.AuthHandler.Logout)
	protected.GET("/api/auth/validate-token", cfg.AuthHandler.ValidateToken)
	// SSE
	protected.GET("/sse/stream", cfg.SSEHandler.Stream)
	// Courses
	protected.GET("/api/course/:id", cfg.CourseHandler.Get)
	protected.GET("/api/lecture/course/:courseId", cfg.LectureHandler.ListByCourse)
	// Progress
	protected.GET("/api/progress/:courseId", cfg.ProgressHandler.GetCourseProgress)
	protected.PUT("/api/progress/:lectureId/complete", cfg.ProgressHandler.MarkLectureCompleted)
	protected.POST("/api/progress/:courseId/acknowledge", cfg.ProgressHandler.AcknowledgeCompletion)
	// Purchases
	protected.POST("/api/purchase/checkout/:courseId", cfg.PurchaseHandler.Checkout)
	protected.GET("/api/purchase/enrollments", cfg.PurchaseHandler.ListEnrollments)
	// Certificates
	protected.GET("/api/certificate/:courseId", cfg.CertificateHandler.Get)

	// ===============
	// || Admin     ||
	// ===============
	admin := protected.Group("/")
	admin.Use(cfg.AuthMiddleware.RequireAdmin())
	admin.POST("/api/course", cfg.CourseHandler.Create)
	admin.PUT("/api/course/:id", cfg.CourseHandler.Update)
	admin.GET("/api/creator/course", cfg.CourseHandler.ListCreator)
	admin.POST("/api/lecture/:courseId", cfg.LectureHandler.Create)
	admin.PUT("/api/lecture/:lectureId", cfg.LectureHandler.Update)

	return router
}

func splitOrigins(raw string) []string {
	origins := make([]string, 0, 4)
	for _, origin := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	if len(origins) == 0 {
		origins = []string{"http://localhost:5173"}
	}
	return origins
}
