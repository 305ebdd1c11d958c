package main

import (
	"context"
	"log"
	"os"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"pymetrics/adapters/postgres/migrations"
)

func main() {
	_ = godotenv.Load()

	databaseURL := os.Getenv("DATABASE_URL")
	if len(os.Args) > 1 {
		databaseURL = os.Args[1]
	}
	if databaseURL == "" {
		log.Fatal("Usage: migrate [database_url] (or set DATABASE_URL)")
	}

	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	migrator := migrations.NewMigrator(db.DB)
	if err := migrator.Up(ctx); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	applied, pending, err := migrator.Status(ctx)
	if err != nil {
		log.Fatalf("Failed to read migration status: %v", err)
	}
	log.Printf("Migrations applied: %v, pending: %v", applied, pending)
}
