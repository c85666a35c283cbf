package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"gopkg.in/natefinch/lumberjack.v2"

	"moodjournal/internal/config"
	"moodjournal/internal/database"
	"moodjournal/internal/handlers"
	"moodjournal/internal/reminder"
	"moodjournal/internal/repository"
	"moodjournal/internal/security"
	"moodjournal/internal/service"
	"moodjournal/internal/training"
)

const staleTrainingAge = 24 * time.Hour

func main() {
	printStartUpBanner()

	// Load configuration
	cfg := config.Load()
	setupLogging(cfg)

	status := handlers.NewStartupStatus()

	// Initialize database with config (supports sqlite, postgres, mysql)
	status.SetCurrentStep(handlers.StepDatabase)
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()
	status.CompleteStep(handlers.StepDatabase)

	log.Printf("Database connection established (type: %s)", cfg.DatabaseType)

	// Run migrations
	status.SetCurrentStep(handlers.StepMigrations)
	if err := db.RunMigrations(cfg.MigrationsPath); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	status.CompleteStep(handlers.StepMigrations)

	log.Println("Migrations completed successfully")

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	questionRepo := repository.NewQuestionRepository(db)
	sessionRepo := repository.NewTrainingSessionRepository(db)
	answerRepo := repository.NewAnswerRepository(db)
	prefsRepo := repository.NewPreferencesRepository(db)

	// Seed the question catalog
	status.SetCurrentStep(handlers.StepCatalog)
	seeded, err := questionRepo.SeedIfEmpty(context.Background(), training.DefaultCatalog().Cards())
	if err != nil {
		log.Printf("Warning: Failed to seed question catalog: %v", err)
	} else if seeded {
		log.Println("Default question catalog seeded")
	}
	status.CompleteStep(handlers.StepCatalog)

	// Initialize services
	status.SetCurrentStep(handlers.StepServices)
	var catalogSource training.CatalogSource = questionRepo
	if cfg.CatalogPath != "" {
		log.Printf("Loading question catalog from %s", cfg.CatalogPath)
		catalogSource = training.YAMLSource{Path: cfg.CatalogPath}
	}
	catalogSource = training.NewCachedSource(catalogSource, cfg.CatalogCacheTTL)

	tokens := security.NewTokenIssuer(cfg.JWTSecret)
	authService := service.NewAuthService(userRepo, tokens, cfg.SessionDuration)
	trainingService := service.NewTrainingService(catalogSource, sessionRepo, answerRepo, service.TrainingOptions{
		IdleTTL:           cfg.TrainingIdleTTL,
		SubmitTimeout:     cfg.SubmitTimeout,
		SubmitFinalAnswer: cfg.SubmitFinalAnswer,
	})
	defer trainingService.Close()
	progressService := service.NewProgressService(sessionRepo, answerRepo, cfg.ReportFontPath)

	emailService, err := service.NewEmailService(context.Background(), cfg.AWSRegion, cfg.SESFromEmail, cfg.SESFromName, cfg.AppBaseURL, cfg.Debug)
	if err != nil {
		log.Fatalf("Failed to initialize email service: %v", err)
	}
	status.CompleteStep(handlers.StepServices)

	// Start reminders
	status.SetCurrentStep(handlers.StepReminders)
	location, err := time.LoadLocation(cfg.ReminderTZ)
	if err != nil {
		log.Printf("Warning: unknown reminder time zone %q, using UTC: %v", cfg.ReminderTZ, err)
		location = time.UTC
	}
	scheduler := reminder.NewScheduler(reminder.Config{
		Enabled:  cfg.RemindersOn && emailService.IsEnabled(),
		Location: location,
	}, prefsRepo, emailService)
	if err := scheduler.Start(context.Background()); err != nil {
		log.Printf("Warning: Failed to start reminder scheduler: %v", err)
	}
	defer scheduler.Stop()
	status.CompleteStep(handlers.StepReminders)

	// Initialize handlers
	limiter := security.NewRateLimiter(cfg.LoginRateLimit, time.Minute)
	oauthProviders := handlers.NewOAuthProviders(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.FacebookClientID, cfg.FacebookClientSecret)
	router := handlers.NewRouter(handlers.Handlers{
		Middleware:  handlers.NewMiddleware(authService, limiter, cfg.TrustProxy),
		Auth:        handlers.NewAuthHandler(authService, oauthProviders, cfg.OAuthRedirectBaseURL, security.NewStateSigner(cfg.JWTSecret)),
		Training:    handlers.NewTrainingHandler(trainingService),
		Progress:    handlers.NewProgressHandler(progressService),
		Preferences: handlers.NewPreferencesHandler(prefsRepo, scheduler),
		Health:      handlers.NewHealthHandler(status, trainingService.ActiveCount),
	})

	// Start server
	addr := ":" + cfg.ServerPort
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start background cleanup
	cleanupCtx, stopCleanup := context.WithCancel(context.Background())
	defer stopCleanup()
	go runCleanup(cleanupCtx, authService, sessionRepo, limiter)

	go func() {
		log.Printf("Server starting on http://localhost%s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()
	status.MarkReady()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
}

func printStartUpBanner() {
	myFigure := figure.NewFigure("MOOD JOURNAL", "", true)
	myFigure.Print()

	fmt.Println("======================================================")
	fmt.Printf("Mood Journal API (v%s)\n\n", "1.0.0")
}

// setupLogging tees the standard logger into a rotating file when LOG_FILE is set
func setupLogging(cfg *config.Config) {
	if cfg.LogFile == "" {
		return
	}
	rotator := &lumberjack.Logger{
		Filename:   cfg.LogFile,
		MaxSize:    cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
		Compress:   true,
	}
	log.SetOutput(io.MultiWriter(os.Stdout, rotator))
	log.Printf("Logging to %s", cfg.LogFile)
}

// runCleanup periodically removes expired sessions, idle rate limiter
// entries and trainings left open by a previous process
func runCleanup(ctx context.Context, authService *service.AuthService, sessionRepo *repository.TrainingSessionRepository, limiter *security.RateLimiter) {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if err := authService.CleanupExpiredSessions(ctx); err != nil {
			log.Printf("Error cleaning up expired sessions: %v", err)
		}

		if removed := limiter.Cleanup(); removed > 0 {
			log.Printf("Removed %d idle rate limiter entries", removed)
		}

		abandoned, err := sessionRepo.AbandonStaleSessions(ctx, time.Now().Add(-staleTrainingAge))
		if err != nil {
			log.Printf("Error closing stale training sessions: %v", err)
		} else if abandoned > 0 {
			log.Printf("Marked %d stale training sessions abandoned", abandoned)
		}
	}
}
