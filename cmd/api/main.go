package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivermigrate"
	"github.com/rs/cors"

	"github.com/matchday/backend/internal/accounting"
	"github.com/matchday/backend/internal/audit"
	"github.com/matchday/backend/internal/config"
	"github.com/matchday/backend/internal/handlers"
	"github.com/matchday/backend/internal/ledger"
	"github.com/matchday/backend/internal/repository"
	"github.com/matchday/backend/internal/services"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("Unable to create database pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		slog.Error("Cannot reach PostgreSQL (connection refused or invalid). Ensure Postgres is running, e.g. make dev-up or docker-compose up -d", "error", err)
		os.Exit(1)
	}
	slog.Info("Connected to PostgreSQL database successfully!")

	// River migrations
	migrator, err := rivermigrate.New(riverpgxv5.New(pool), nil)
	if err != nil {
		slog.Error("Failed to create River migrator", "error", err)
		os.Exit(1)
	}
	if _, err := migrator.Migrate(ctx, rivermigrate.DirectionUp, nil); err != nil {
		slog.Error("River migrate up failed. If the error is 'connection refused', start PostgreSQL first (e.g. make dev-up)", "error", err)
		os.Exit(1)
	}
	slog.Info("River migrations applied")

	// Repositories
	gameRepo := repository.NewGameRepo(pool)
	workspaceRepo := repository.NewWorkspaceRepo(pool)
	ledgerRepo := ledger.NewRepository(pool)
	ledgerSvc := ledger.NewService(ledgerRepo)

	// External accounting: per-workspace adapters with a bounded timeout.
	adapters := accounting.NewRegistry(workspaceRepo, cfg.AdapterTimeout)

	reconciler := services.NewPaymentReconciler(ledgerSvc, adapters, logger)
	gameSvc := services.NewGameService(gameRepo, workspaceRepo, reconciler, logger)

	// Ledger audit sweep (River)
	workers := river.NewWorkers()
	river.AddWorker(workers, audit.NewLedgerAuditWorker(workspaceRepo, gameRepo, ledgerSvc, logger))

	auditJob := river.NewPeriodicJob(
		river.PeriodicInterval(cfg.AuditInterval),
		func() (river.JobArgs, *river.InsertOpts) {
			return audit.LedgerAuditArgs{}, nil
		},
		&river.PeriodicJobOpts{RunOnStart: true},
	)

	riverClient, err := river.NewClient(riverpgxv5.New(pool), &river.Config{
		Queues: map[string]river.QueueConfig{
			river.QueueDefault: {MaxWorkers: 2},
		},
		Workers:      workers,
		PeriodicJobs: []*river.PeriodicJob{auditJob},
	})
	if err != nil {
		slog.Error("Failed to create River client", "error", err)
		os.Exit(1)
	}

	gameHandler := handlers.NewGameHandler(gameSvc, ledgerSvc, logger)
	workspaceHandler := handlers.NewWorkspaceHandler(workspaceRepo, logger)

	mux := http.NewServeMux()
	RegisterV1Routes(mux, gameHandler, workspaceHandler)
	mux.Handle("GET /metrics", promhttp.Handler())

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}).Handler(mux)

	// Start River client (runs the audit sweep)
	riverCtx, stopRiver := context.WithCancel(ctx)
	defer stopRiver()
	go func() {
		if err := riverClient.Start(riverCtx); err != nil && riverCtx.Err() == nil {
			slog.Error("River client stopped", "error", err)
		}
	}()

	serverAddr := "0.0.0.0:" + cfg.Port
	slog.Info("Starting HTTP server", "addr", serverAddr)
	if err := http.ListenAndServe(serverAddr, corsHandler); err != nil {
		slog.Error("HTTP server failed", "error", err)
		os.Exit(1)
	}
}
