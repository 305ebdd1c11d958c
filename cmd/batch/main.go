package main

import (
	"context"
	"log"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"pymetrics/adapters/postgres"
	"pymetrics/internal"
	"pymetrics/internal/assessment"
	"pymetrics/internal/config"
)

// batch recomputes trait profiles for every completed session, e.g. after a
// weight-table revision or metric formula change.
func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := sqlx.Connect("postgres", cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	logger := internal.NewDefaultLogger()
	service := assessment.NewService(
		postgres.NewSessionRepository(db),
		postgres.NewProfileRepository(db),
		cfg,
		logger,
	)

	worker := assessment.NewBatchWorker(service, cfg.Worker, logger)
	summary, err := worker.Run(context.Background())
	if err != nil {
		log.Fatalf("Batch recompute failed: %v", err)
	}

	log.Printf("Batch recompute finished: %d total, %d recomputed, %d skipped, %d failed",
		summary.Total, summary.Recomputed, summary.Skipped, summary.Failed)
}
