package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/hearthhub/hearthd/internal/api"
	"github.com/hearthhub/hearthd/internal/auth"
	"github.com/hearthhub/hearthd/internal/billing"
	"github.com/hearthhub/hearthd/internal/config"
	"github.com/hearthhub/hearthd/internal/metrics"
	"github.com/hearthhub/hearthd/internal/repository/postgres"
	"github.com/hearthhub/hearthd/internal/service"
	"github.com/hearthhub/hearthd/pkg/logger"
)

func main() {
	// .env is optional; environment variables win either way.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	l := logger.New(cfg.LogLevel)
	l.Info("Starting hearthd...")

	// Database
	db, err := config.NewDatabase(cfg, l)
	if err != nil {
		l.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Run migrations
	if err := db.Migrate(cfg.MigrationsDir); err != nil {
		l.Fatalf("Failed to run migrations: %v", err)
	}

	// Repositories
	profileRepo := postgres.NewProfileRepository(db.DB)
	familyRepo := postgres.NewFamilyRepository(db.DB)
	membershipRepo := postgres.NewMembershipRepository(db.DB)
	inviteRepo := postgres.NewInviteRepository(db.DB)
	calendarRepo := postgres.NewCalendarRepository(db.DB)
	listRepo := postgres.NewTaskListRepository(db.DB)
	itemRepo := postgres.NewTaskItemRepository(db.DB)

	// Service layer
	registrar := service.NewRegistrar(profileRepo, familyRepo, membershipRepo, l)
	ledger := service.NewLedger(inviteRepo, registrar, l)
	engine := service.NewRolloverEngine(itemRepo, l)
	checkout := billing.NewHTTPProvider(cfg.CheckoutURL)
	coordinator := service.NewCoordinator(
		registrar, ledger, engine,
		profileRepo, familyRepo, membershipRepo,
		calendarRepo, listRepo, itemRepo,
		checkout, l,
	)

	verifier := auth.NewVerifier(cfg.AuthSecret)

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		l.Info("Received shutdown signal...")
		cancel()
	}()

	// Metrics listener
	metricsServer := &http.Server{
		Addr:    ":" + cfg.MetricsPort,
		Handler: metrics.Handler(),
	}

	go func() {
		l.Infof("Metrics server listening on :%s", cfg.MetricsPort)
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			l.Errorf("Metrics server error: %v", err)
		}
	}()

	// API server
	apiServer := api.NewServer(coordinator, verifier, l)
	httpServer := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: apiServer.Handler(),
	}

	go func() {
		l.Infof("HTTP server listening on :%s", cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			l.Errorf("HTTP server error: %v", err)
		}
	}()

	l.Info("hearthd started successfully")

	<-ctx.Done()

	l.Info("Shutting down...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		l.Errorf("HTTP server shutdown error: %v", err)
	}
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		l.Errorf("Metrics server shutdown error: %v", err)
	}

	l.Info("hearthd stopped")
}
