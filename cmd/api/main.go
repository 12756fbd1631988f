package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"budgetwise/internal/changefeed"
	"budgetwise/internal/config"
	"budgetwise/internal/database"
	"budgetwise/internal/logger"
	"budgetwise/internal/middleware"
	"budgetwise/internal/server"
	"budgetwise/internal/validator"
)

// @title           BudgetWise API
// @version         1.0
// @description     Ledger, budget and investment storage with a per-owner change stream.

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

const shutdownTimeout = 10 * time.Second

func main() {
	// Initialize logger (use ENV var if available, default to development)
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	issueFor := flag.String("issue-token", "", "print an access token for this owner ID and exit")
	flag.Parse()

	if err := run(*issueFor); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run(issueFor string) error {
	log := logger.Get()

	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if issueFor != "" {
		token, err := middleware.GenerateAccessToken(issueFor, appConfig.JWTSecret, appConfig.JWTExpirationDur)
		if err != nil {
			return fmt.Errorf("failed to issue token: %w", err)
		}
		fmt.Println(token)
		return nil
	}

	dbConfig, err := database.NewConfig()
	if err != nil {
		return fmt.Errorf("failed to load database configuration: %w", err)
	}

	dbManager, err := database.NewManager(dbConfig)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}
	defer func() {
		if err := dbManager.Close(); err != nil {
			log.Warnf("closing database: %v", err)
		}
	}()

	if err := dbManager.Migrate(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	validator.Register()
	router := server.NewRouter(dbManager.DB(), changefeed.NewHub(0), server.Options{
		JWTSecret: appConfig.JWTSecret,
		KeepAlive: 15 * time.Second,
	})

	// Request contexts derive from baseCtx so open change streams end on shutdown.
	baseCtx, cancelRequests := context.WithCancel(context.Background())
	defer cancelRequests()

	srv := &http.Server{
		Addr:              ":" + appConfig.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return baseCtx },
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Infof("Starting BudgetWise API on port %s (driver %s)", appConfig.Port, dbConfig.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	cancelRequests()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		_ = srv.Close()
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return nil
}
