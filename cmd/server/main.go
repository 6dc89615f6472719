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

	"github.com/redis/go-redis/v9"

	"eduvoice-backend/internal/config"
	"eduvoice-backend/internal/database"
	"eduvoice-backend/internal/flashcards"
	"eduvoice-backend/internal/handlers"
	applog "eduvoice-backend/internal/logger"
	"eduvoice-backend/internal/middleware"
	"eduvoice-backend/internal/nlp"
	"eduvoice-backend/internal/performance"
	"eduvoice-backend/internal/repository"
	"eduvoice-backend/internal/router"
	"eduvoice-backend/internal/scheduler"
	"eduvoice-backend/internal/services"
	"eduvoice-backend/internal/sessions"
	"eduvoice-backend/internal/websocket"
)

const version = "1.0.0"

func main() {
	log.Println("🚀 Starting EduVoice Backend...")

	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()
	log.Println("✓ Environment variables loaded")

	logger, err := applog.New(cfg.LogMode)
	if err != nil {
		log.Fatalf("✗ Logger initialization failed: %v", err)
	}
	defer logger.Sync()

	// ──── Step 2: Load NLP Model ────
	model, err := nlp.Load()
	if err != nil {
		log.Fatalf("✗ NLP model failed to load: %v", err)
	}
	log.Println("✓ NLP model loaded")

	// ──── Step 3: Initialize Redis Clients (optional) ────
	var redisClients *database.RedisClients
	if cfg.RedisURL != "" {
		redisClients, err = database.NewRedisClients(cfg.RedisURL)
		if err != nil {
			log.Fatalf("✗ Redis connection failed: %v", err)
		}
		defer redisClients.Close()
		log.Println("✓ Redis connected")
	} else {
		log.Println("• Redis not configured, using in-process sessions and locks")
	}

	// ──── Step 4: Initialize Performance Store ────
	var perfStore performance.Store
	switch cfg.PerformanceStore {
	case "postgres":
		pool, err := database.NewPostgresPool(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("✗ PostgreSQL connection failed: %v", err)
		}
		defer pool.Close()
		log.Println("✓ PostgreSQL connected")

		applied, err := database.RunMigrations(pool, cfg.MigrationsDir)
		if err != nil {
			log.Fatalf("✗ Database migration failed: %v", err)
		}
		log.Printf("✓ Database migrations applied (%d new)", len(applied))

		perfStore = repository.NewPerformanceRepo(pool)
	default:
		perfStore = performance.NewFileStore(cfg.UserDataDir)
		log.Printf("✓ Performance logs stored in %s", cfg.UserDataDir)
	}

	// ──── Step 5: Locks, Sessions and Events ────
	jwtAuth := middleware.NewJWTAuth(cfg.JWTSecret)

	var (
		locker       performance.Locker
		sessionStore sessions.Store
		memSessions  *sessions.MemoryStore
		pubsub       *redis.Client
	)
	if redisClients != nil {
		locker = performance.NewRedisLocker(redisClients.Store)
		sessionStore = sessions.NewRedisStore(redisClients.Store)
		pubsub = redisClients.PubSub
	} else {
		locker = performance.NewMemoryLocker()
		memSessions = sessions.NewMemoryStore()
		sessionStore = memSessions
	}

	wsHub := websocket.NewHub(pubsub, jwtAuth, logger)
	var publisher services.Publisher = wsHub
	if redisClients != nil {
		publisher = services.NewRedisPublisher(redisClients.Store)
	}

	// ──── Initialize Services ────
	generator := flashcards.NewGenerator(flashcards.NewConceptMiner(model), flashcards.WithSeed(cfg.GeneratorSeed))
	tracker := performance.NewTracker(perfStore, locker, logger)
	flashcardService := services.NewFlashcardService(generator, tracker, publisher, logger)
	reviewService := services.NewReviewService(flashcardService, sessionStore, locker, cfg.ReviewSessionTTL)
	wsHub.SetFlashcards(flashcardService)

	// ──── Initialize Handlers ────
	systemHandler := handlers.NewSystemHandler(version, map[string]bool{
		"flashcards":      true,
		"adaptive":        true,
		"review_sessions": true,
		"websocket":       true,
		"shared_state":    redisClients != nil,
	})
	flashcardHandler := handlers.NewFlashcardHandler(flashcardService, logger)
	reviewHandler := handlers.NewReviewHandler(reviewService)

	// ──── Step 6: Start Scheduled Jobs ────
	generateLimiter := middleware.NewRateLimiter(cfg.GenerateRatePerMinute, time.Minute)
	jobs := scheduler.New(logger)
	if err := jobs.Every("0 * * * * *", "rate_limiter_cleanup", func() { generateLimiter.Cleanup() }); err != nil {
		log.Fatalf("✗ Scheduling rate limiter cleanup failed: %v", err)
	}
	if memSessions != nil {
		err := jobs.Every(cfg.SessionSweepSchedule, "review_session_sweep", func() {
			if n := memSessions.Sweep(); n > 0 {
				logger.Info("expired review sessions removed", "count", n)
			}
		})
		if err != nil {
			log.Fatalf("✗ Scheduling session sweep failed: %v", err)
		}
	}
	jobs.Start()
	log.Println("✓ Scheduled jobs started")

	// ──── Step 7: Start HTTP Server ────
	r := router.New(
		jwtAuth,
		systemHandler,
		flashcardHandler,
		reviewHandler,
		wsHub.HandleWebSocket,
		generateLimiter,
		cfg.FrontendURL,
	)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down...")
		jobs.Stop()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	log.Printf("✓ EduVoice Backend ready on http://localhost:%s", cfg.Port)
	log.Printf("  API: http://localhost:%s/api/v1", cfg.Port)
	log.Printf("  WS:  ws://localhost:%s/api/v1/ws", cfg.Port)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
}
