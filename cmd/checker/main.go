// Package main initializes and starts the round checker, wiring the
// chain ledger, the phase runner and the orchestration HTTP endpoint.
package main

import (
	"cmp"
	"fmt"

	nethttp "net/http"

	"github.com/mkalinin42/fastvuln/internal/checker"
	"github.com/mkalinin42/fastvuln/internal/config"
	"github.com/mkalinin42/fastvuln/internal/db"
	"github.com/mkalinin42/fastvuln/internal/logger"
	"github.com/mkalinin42/fastvuln/internal/repository"
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

	// The chain ledger lives in PostgreSQL so round state survives the
	// gap between plant and retrieve invocations.
	postgresDB, err := db.InitPostgres(options.DatabaseDSN)
	if err != nil {
		zapLogger.Fatal("cannot init database", zap.Error(err))
	}
	chainStore := repository.NewPostgresChainRepository(postgresDB)

	taskHandler := &checker.TaskHandler{
		Checker:        checker.New(zapLogger),
		Store:          chainStore,
		ServicePort:    options.ServicePort,
		RequestTimeout: options.RequestTimeout(),
		Log:            zapLogger,
	}
	router := checker.NewRouter(taskHandler, zapLogger)

	server := &nethttp.Server{
		Addr:    options.Address,
		Handler: router,
	}

	zapLogger.Info("starting checker", zap.String("addr", options.Address),
		zap.Int("service_port", options.ServicePort))
	if err := server.ListenAndServe(); err != nil {
		zapLogger.Fatal("failed to start checker", zap.Error(err))
	}
}
