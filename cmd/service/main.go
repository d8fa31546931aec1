// Package main initializes and starts the vulnerable profile service,
// setting up configuration, logging, the database connection, the session
// store and the HTTP routes.
package main

import (
	"cmp"
	"context"
	"fmt"

	nethttp "net/http"

	"github.com/mkalinin42/fastvuln/internal/config"
	"github.com/mkalinin42/fastvuln/internal/db"
	"github.com/mkalinin42/fastvuln/internal/logger"
	"github.com/mkalinin42/fastvuln/internal/repository"
	"github.com/mkalinin42/fastvuln/internal/server/handler/http"
	"github.com/mkalinin42/fastvuln/internal/service"
	"github.com/mkalinin42/fastvuln/internal/session"
	"go.uber.org/zap"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

func main() {
	// Parse command-line and environment configuration.
	options := config.Parse()

	// Print build metadata (or "N/A" if unset).
	fmt.Printf("Build version: %s\n", cmp.Or(version, "N/A"))
	fmt.Printf("Build date: %s\n", cmp.Or(buildDate, "N/A"))

	// Initialize structured logging.
	log := logger.New()
	defer func() { _ = log.Log.Sync() }()
	if err := log.Init("Info"); err != nil {
		log.Log.Fatal("failed to init logger", zap.Error(err))
	}
	zapLogger := log.Log

	// Initialize PostgreSQL connection.
	postgresDB, err := db.InitPostgres(options.DatabaseDSN)
	if err != nil {
		zapLogger.Fatal("cannot init database", zap.Error(err))
	}

	// Sessions are held in memory only; they do not survive a restart.
	sessions := session.NewStore(options.SessionLifetime())
	sessions.StartSweeper(context.Background(), options.SessionSweepInterval(), zapLogger)

	// Initialize the user repository and business logic.
	userRepo := repository.NewPostgresUserRepository(postgresDB)
	authService := service.NewAuthService(userRepo, sessions)

	// Create the HTTP handlers and router.
	profileHandler := &http.ProfileHandler{
		AuthService:     authService,
		CookieName:      options.SessionCookieName,
		SessionLifetime: options.SessionLifetime(),
	}
	router := http.NewRouter(profileHandler, zapLogger)

	server := &nethttp.Server{
		Addr:    options.Address,
		Handler: router,
	}

	zapLogger.Info("starting HTTP server", zap.String("addr", options.Address))
	if err := server.ListenAndServe(); err != nil {
		zapLogger.Fatal("failed to start HTTP server", zap.Error(err))
	}
}
