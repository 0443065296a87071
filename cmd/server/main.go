package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"aves/lms-app/internal/api"
	"aves/lms-app/internal/config"
	"aves/lms-app/internal/repository/file"
	"aves/lms-app/internal/repository/mysql"
	"aves/lms-app/internal/service"
	"aves/lms-app/internal/storage"
)

func main() {
	log.Println("Starting LMS Server...")

	// --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("FATAL: Could not load config: %v", err)
	}
	log.Println("Configuration loaded.")

	// --- Database Connection ---
	db, err := mysql.Open(cfg.Database)
	if err != nil {
		log.Fatalf("FATAL: Could not connect to MySQL: %v", err)
	}
	defer func() {
		log.Println("Closing database connection...")
		if err := db.Close(); err != nil {
			log.Printf("ERROR: Failed to close database: %v", err)
		}
	}()
	log.Println("Database connection established.")

	// --- Schema ---
	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
	if err := mysql.EnsureSchema(ctx, db); err != nil {
		cancel()
		log.Fatalf("FATAL: Could not ensure database schema: %v", err)
	}
	cancel()
	log.Println("Database schema ensured.")

	// --- Initialize Storage ---
	log.Println("Initializing file storage...")
	var fileStorage storage.FileStorage
	switch cfg.Storage.Backend {
	case "s3":
		fileStorage, err = storage.NewS3Storage(cfg.S3)
	default:
		fileStorage, err = storage.NewLocalStorage(cfg.Storage.LocalDir)
	}
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize %s storage: %v", cfg.Storage.Backend, err)
	}

	// --- Optional Redis (auth rate limiting) ---
	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, pingCancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := client.Ping(pingCtx).Err(); err != nil {
			log.Printf("WARN: Redis unreachable, rate limiting disabled: %v", err)
		} else {
			rdb = client
		}
		pingCancel()
	}

	// --- Initialize Repositories ---
	log.Println("Initializing repositories...")
	userRepo := mysql.NewUserRepository(db)
	materialRepo := mysql.NewMaterialRepository(db)
	profileRepo := mysql.NewProfileRepository(db)
	enrollmentStore := file.NewEnrollmentStore("data/enrollments.json")

	// --- Initialize Services ---
	log.Println("Initializing services...")
	authService := service.NewAuthService(userRepo, cfg.Session.Secret, cfg.Session.TTL)
	materialService := service.NewMaterialService(materialRepo, fileStorage, cfg.Upload.AllowedExtensions, cfg.Upload.MaxSize)
	profileService := service.NewProfileService(profileRepo, fileStorage, cfg.Upload.PhotoExtensions)
	adminService := service.NewAdminService(userRepo, materialRepo, profileRepo, fileStorage, authService)
	enrollmentService := service.NewEnrollmentService(enrollmentStore)

	// --- Initialize Gin Engine ---
	router := gin.Default() // Includes Logger and Recovery middleware
	router.MaxMultipartMemory = cfg.Upload.MaxSize

	// --- Setup Routes ---
	log.Println("Setting up routes...")
	api.SetupRoutes(router, &cfg, rdb, authService, materialService, profileService, adminService, enrollmentService)

	// --- Start HTTP Server ---
	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	log.Printf("Server starting on %s", cfg.Server.Address)

	// --- Graceful Shutdown ---
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("FATAL: ListenAndServe Error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Fatalf("FATAL: Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting.")
}
