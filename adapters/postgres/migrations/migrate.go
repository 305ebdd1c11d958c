package migrations

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"embed"
	"fmt"
	"sort"
	"strings"
)

//go:embed *.sql
var migrationFS embed.FS

// Migrator handles database schema migrations
type Migrator struct {
	db *sql.DB
}

// NewMigrator creates a new migrator
func NewMigrator(db *sql.DB) *Migrator {
	return &Migrator{db: db}
}

// Up executes all pending migrations in version order.
func (m *Migrator) Up(ctx context.Context) error {
	if err := m.ensureTable(ctx); err != nil {
		return err
	}

	applied, err := m.appliedVersions(ctx)
	if err != nil {
		return fmt.Errorf("failed to get applied migrations: %w", err)
	}

	files, err := m.migrationFiles()
	if err != nil {
		return fmt.Errorf("failed to list migration files: %w", err)
	}

	for _, file := range files {
		if applied[file.Version] {
			continue
		}
		if err := m.apply(ctx, file); err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", file.Version, err)
		}
	}

	return nil
}

// Status reports applied and pending migrations.
func (m *Migrator) Status(ctx context.Context) (applied, pending []string, err error) {
	if err := m.ensureTable(ctx); err != nil {
		return nil, nil, err
	}

	done, err := m.appliedVersions(ctx)
	if err != nil {
		return nil, nil, err
	}

	files, err := m.migrationFiles()
	if err != nil {
		return nil, nil, err
	}

	for _, file := range files {
		if done[file.Version] {
			applied = append(applied, file.Version)
		} else {
			pending = append(pending, file.Version)
		}
	}
	return applied, pending, nil
}

func (m *Migrator) ensureTable(ctx context.Context) error {
	_, err := m.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			checksum TEXT NOT NULL,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`)
	if err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}
	return nil
}

func (m *Migrator) appliedVersions(ctx context.Context) (map[string]bool, error) {
	rows, err := m.db.QueryContext(ctx, "SELECT version FROM schema_migrations")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	applied := make(map[string]bool)
	for rows.Next() {
		var version string
		if err := rows.Scan(&version); err != nil {
			return nil, err
		}
		applied[version] = true
	}
	return applied, rows.Err()
}

type migrationFile struct {
	Version string
	Name    string
	SQL     []byte
}

// migrationFiles returns the embedded migrations sorted by version prefix.
func (m *Migrator) migrationFiles() ([]migrationFile, error) {
	entries, err := migrationFS.ReadDir(".")
	if err != nil {
		return nil, err
	}

	var files []migrationFile
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		// Filename convention: 001_initial_schema.sql
		parts := strings.SplitN(e.Name(), "_", 2)
		if len(parts) < 2 {
			continue
		}
		data, err := migrationFS.ReadFile(e.Name())
		if err != nil {
			return nil, err
		}
		files = append(files, migrationFile{Version: parts[0], Name: e.Name(), SQL: data})
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Version < files[j].Version })
	return files, nil
}

func (m *Migrator) apply(ctx context.Context, file migrationFile) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, string(file.SQL)); err != nil {
		return err
	}

	checksum := fmt.Sprintf("%x", sha256.Sum256(file.SQL))
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO schema_migrations (version, checksum) VALUES ($1, $2)
	`, file.Version, checksum); err != nil {
		return err
	}

	return tx.Commit()
}
