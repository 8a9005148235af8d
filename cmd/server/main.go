package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/NotescapeAi/notescape-backend/internal/config"
	"github.com/NotescapeAi/notescape-backend/internal/database"
	"github.com/NotescapeAi/notescape-backend/internal/handlers"
	"github.com/NotescapeAi/notescape-backend/internal/middleware"
	"github.com/NotescapeAi/notescape-backend/internal/repository"
	"github.com/NotescapeAi/notescape-backend/internal/router"
	"github.com/NotescapeAi/notescape-backend/internal/scheduler"
	"github.com/NotescapeAi/notescape-backend/internal/services"
	"github.com/NotescapeAi/notescape-backend/internal/worker"
)

func main() {
	log.Println("🚀 Starting Notescape Backend...")

	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()
	log.Println("✓ Environment variables loaded")

	// ──── Step 2: Initialize PostgreSQL Connection Pool ────
	pool, err := database.NewPostgresPool(cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		log.Fatalf("✗ PostgreSQL connection failed: %v", err)
	}
	defer pool.Close()
	log.Println("✓ PostgreSQL connected")

	// ──── Step 3: Initialize Redis Client ────
	redisClient, err := database.NewRedisClient(cfg.RedisURL)
	if err != nil {
		log.Fatalf("✗ Redis connection failed: %v", err)
	}
	defer redisClient.Close()
	log.Println("✓ Redis connected")

	// ──── Step 4: Run Database Migrations ────
	if err := database.RunMigrations(pool, "migrations"); err != nil {
		log.Fatalf("✗ Database migration failed: %v", err)
	}
	log.Println("✓ Database migrations applied")

	// ──── Initialize Repositories ────
	userRepo := repository.NewUserRepo(pool)
	classRepo := repository.NewClassRepo(pool)
	noteRepo := repository.NewNoteRepo(pool)
	flashcardRepo := repository.NewFlashcardRepo(pool)
	reviewRepo := repository.NewReviewRepo(pool)
	jobRepo := repository.NewJobRepo(pool)

	// ──── Step 5: Initialize Gemini Client ────
	generatorService, err := services.NewGeneratorService(cfg.GeminiAPIKey, cfg.GeminiConcurrentReqs)
	if err != nil {
		log.Fatalf("✗ Gemini client initialization failed: %v", err)
	}
	defer generatorService.Close()
	log.Println("✓ Gemini Flash client initialized")

	// ──── Initialize Services ────
	jwtAuth := middleware.NewJWTAuth(cfg.JWTSecret)
	fileExtractService := services.NewFileExtractService()
	authService := services.NewAuthService(userRepo, jwtAuth, cfg.GoogleClientID)

	engine, err := scheduler.NewEngine(scheduler.DefaultParams())
	if err != nil {
		log.Fatalf("✗ Scheduler initialization failed: %v", err)
	}
	reviewService := services.NewReviewService(flashcardRepo, reviewRepo, engine)
	scopeFilter := services.NewScopeFilter(noteRepo)
	studyService := services.NewStudyService(reviewRepo, scopeFilter)

	// ──── Initialize Handlers ────
	authHandler := handlers.NewAuthHandler(authService)
	classHandler := handlers.NewClassHandler(classRepo, flashcardRepo, noteRepo)
	noteHandler := handlers.NewNoteHandler(noteRepo, classRepo, fileExtractService, cfg.StoragePath)
	flashcardHandler := handlers.NewFlashcardHandler(flashcardRepo, classRepo, noteRepo, jobRepo, redisClient)
	reviewHandler := handlers.NewReviewHandler(reviewService, reviewRepo, flashcardRepo)
	studyHandler := handlers.NewStudyHandler(studyService)

	// ──── Step 6: Start Job Worker Pool ────
	workerPool := worker.NewPool(
		redisClient,
		generatorService,
		jobRepo,
		noteRepo,
		flashcardRepo,
		cfg.WorkerCount,
	)
	workerPool.Start()
	log.Printf("✓ Worker pool started (%d goroutines)", cfg.WorkerCount)

	// ──── Step 7: Start HTTP Server ────
	r := router.New(
		jwtAuth,
		authHandler,
		classHandler,
		noteHandler,
		flashcardHandler,
		reviewHandler,
		studyHandler,
		cfg.FrontendURL,
	)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down...")
		workerPool.Stop()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	log.Printf("✓ Notescape Backend ready on http://localhost:%s", cfg.Port)
	log.Printf("  API: http://localhost:%s/api/v1", cfg.Port)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
}
