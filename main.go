package main

import (
	"context"
	"log"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"pymetrics/adapters/postgres"
	"pymetrics/adapters/postgres/migrations"
	"pymetrics/api"
	"pymetrics/internal"
	"pymetrics/internal/assessment"
	"pymetrics/internal/config"
)

func main() {
	// .env is optional; real deployments set the environment directly
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

	if err := migrations.NewMigrator(db.DB).Up(context.Background()); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	logger := internal.NewDefaultLogger()
	service := assessment.NewService(
		postgres.NewSessionRepository(db),
		postgres.NewProfileRepository(db),
		cfg,
		logger,
	)

	app := api.NewApp(service, logger)
	if err := app.Start(cfg.Server.Port); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
