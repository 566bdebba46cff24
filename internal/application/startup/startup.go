// Package startup prepares the application server
package startup

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/speakaboutai/micdrop-go/internal/application/container"
	"github.com/speakaboutai/micdrop-go/internal/infrastructure/email"
	"github.com/speakaboutai/micdrop-go/internal/infrastructure/observability/logging"
	"github.com/speakaboutai/micdrop-go/internal/infrastructure/observability/performance"
	"github.com/speakaboutai/micdrop-go/internal/infrastructure/persistence/database"
	"github.com/speakaboutai/micdrop-go/internal/presentation/http/server"
	"github.com/speakaboutai/micdrop-go/pkg/config"
)

// Initialize performs the complete startup sequence
func Initialize() error {
	setupLogging()

	start := time.Now().UTC()

	ctx, cancelBackgroundTasks := context.WithCancel(context.Background())
	defer cancelBackgroundTasks()

	log.Println("MicDrop server starting...")

	if config.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET environment variable is required")
	}
	if config.LeadGateSecret == "" {
		return fmt.Errorf("LEAD_GATE_SECRET environment variable is required")
	}

	// Step 1: Channeled logging
	logger, err := logging.NewChanneledLogger(logging.DefaultLoggerConfig())
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	logger.Startup().Info("Channeled logging initialized")

	// Step 2: Database connection and schema
	logger.Startup().Info("Opening database connection...")
	db, err := database.Open(logger)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := database.NewTableCreator().CreateSchema(db.DB); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	logger.Startup().Info("Database schema ready")

	// Step 3: Email service. Optional; captures still work without it.
	var mailer email.Service
	if config.ResendAPIKey != "" {
		mailer, err = email.NewService()
		if err != nil {
			return fmt.Errorf("failed to initialize email service: %w", err)
		}
		logger.Startup().Info("Email service initialized")
	} else {
		logger.Startup().Warn("RESEND_API_KEY not set, welcome emails disabled")
	}

	// Step 4: Dependency injection container
	perfTracker := performance.NewTracker(performance.DefaultTrackerConfig())
	appContainer := container.NewContainer(db, mailer, perfTracker, logger)
	logger.Startup().Info("Dependency injection container created with singleton services")

	// Step 5: Background retention sweep
	go appContainer.RetentionService.Start(ctx)
	logger.Startup().Info("Event retention sweep started",
		"retention", config.EventRetention,
		"period", config.RetentionSweepPeriod)

	// Step 6: HTTP server
	port := config.Port
	httpServer := server.New(port, appContainer)

	gracefulShutdown := make(chan os.Signal, 1)
	signal.Notify(gracefulShutdown, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.System().Info("Starting HTTP server", "address", ":"+port)
		if err := httpServer.Start(); err != nil {
			logger.System().Error("HTTP server failed", "error", err.Error())
		}
	}()

	logger.Startup().Info("Application startup complete",
		"totalDuration", time.Since(start),
		"port", port)

	// Wait for shutdown signal
	<-gracefulShutdown
	logger.Shutdown().Info("Shutdown signal received, starting graceful shutdown...")

	shutdownStart := time.Now()
	cancelBackgroundTasks()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Stop(shutdownCtx); err != nil {
		logger.Shutdown().Error("Error during server shutdown", "error", err.Error())
	} else {
		logger.Shutdown().Info("HTTP server stopped successfully")
	}

	logger.Shutdown().Info("Application shutdown complete",
		"totalUptime", time.Since(start),
		"shutdownDuration", time.Since(shutdownStart))

	return nil
}

// setupLogging configures application logging
func setupLogging() {
	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	log.SetFlags(log.LstdFlags | log.Lshortfile)
}
