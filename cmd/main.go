package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/skillstream/skillstream-backend/internal/bus"
	"github.com/skillstream/skillstream-backend/internal/db"
	"github.com/skillstream/skillstream-backend/internal/handlers"
	"github.com/skillstream/skillstream-backend/internal/logger"
	"github.com/skillstream/skillstream-backend/internal/middleware"
	"github.com/skillstream/skillstream-backend/internal/repos"
	"github.com/skillstream/skillstream-backend/internal/server"
	"github.com/skillstream/skillstream-backend/internal/services"
	"github.com/skillstream/skillstream-backend/internal/sse"
	"github.com/skillstream/skillstream-backend/internal/utils"
)

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Env
	log.Info("Loading environment variables from main...")
	port := utils.GetEnv("PORT", "8080", log)
	allowedOrigins := utils.GetEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173", log)
	jwtSecretKey := utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log)
	accessTokenTTL := utils.GetEnvAsInt("ACCESS_TOKEN_TTL", 3600, log)
	refreshTokenTTL := utils.GetEnvAsInt("REFRESH_TOKEN_TTL", 86400, log)

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}
	if err = postgresService.AutoMigrateAll(); err != nil {
		log.Error("Postgres auto migration failed", "error", err)
		os.Exit(1)
	}
	thePG := postgresService.DB()

	// Repos
	log.Info("Setting up Repos from main...")
	userRepo := repos.NewUserRepo(thePG, log)
	userTokenRepo := repos.NewUserTokenRepo(thePG, log)
	courseRepo := repos.NewCourseRepo(thePG, log)
	lectureRepo := repos.NewLectureRepo(thePG, log)
	enrollmentRepo := repos.NewEnrollmentRepo(thePG, log)
	lectureProgressRepo := repos.NewLectureProgressRepo(thePG, log)
	certificateRepo := repos.NewCertificateRepo(thePG, log)

	// SSE
	log.Info("Setting up SSE hub now...")
	sseHub := sse.NewSSEHub(log)
	var publisher sse.Publisher = sseHub
	redisBus, err := bus.NewRedisBus(log, sseHub)
	if err != nil {
		log.Warn("Redis bus unavailable, events stay single-instance", "error", err)
	} else {
		go redisBus.Run(context.Background())
		defer redisBus.Close()
		publisher = redisBus
	}

	// Services
	log.Info("Setting up Services from main...")
	authService := services.NewAuthService(thePG, log, userRepo, userTokenRepo, jwtSecretKey, time.Duration(accessTokenTTL)*time.Second, time.Duration(refreshTokenTTL)*time.Second)
	userService := services.NewUserService(thePG, log, userRepo)
	courseService := services.NewCourseService(thePG, log, courseRepo, enrollmentRepo)
	lectureService := services.NewLectureService(thePG, log, courseRepo, lectureRepo, enrollmentRepo)
	progressService := services.NewProgressService(thePG, log, courseRepo, enrollmentRepo, lectureProgressRepo)
	playerSessionService := services.NewPlayerSessionService(thePG, log, courseRepo, lectureRepo, enrollmentRepo, progressService, publisher)
	enrollmentService := services.NewEnrollmentService(thePG, log, courseRepo, enrollmentRepo, publisher)
	certificateService := services.NewCertificateService(thePG, log, certificateRepo, progressService)

	// Handlers
	log.Info("Setting up handlers from main...")
	authHandler := handlers.NewAuthHandler(authService, userService)
	courseHandler := handlers.NewCourseHandler(log, courseService)
	lectureHandler := handlers.NewLectureHandler(lectureService)
	progressHandler := handlers.NewProgressHandler(log, progressService, playerSessionService)
	purchaseHandler := handlers.NewPurchaseHandler(log, enrollmentService)
	certificateHandler := handlers.NewCertificateHandler(log, certificateService)
	sseHandler := handlers.NewSSEHandler(log, sseHub)

	// Middleware
	log.Info("Setting up middleware from main...")
	authMiddleware := middleware.NewAuthMiddleware(log, authService)

	// Router
	log.Info("Setting up router from main...")
	router := server.NewRouter(server.RouterConfig{
		AllowedOrigins:     allowedOrigins,
		AuthMiddleware:     authMiddleware,
		AuthHandler:        authHandler,
		CourseHandler:      courseHandler,
		LectureHandler:     lectureHandler,
		ProgressHandler:    progressHandler,
		PurchaseHandler:    purchaseHandler,
		CertificateHandler: certificateHandler,
		SSEHandler:         sseHandler,
	})

	log.Info("Starting server", "port", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatal("Server exited", "error", err)
	}
}
