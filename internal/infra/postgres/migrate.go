package postgres

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"time"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Migration represents an embedded migration file.
type Migration struct {
	Version   string
	Name      string
	Direction string
}

// String returns the migration identifier.
func (m Migration) String() string {
	return fmt.Sprintf("%s_%s.%s.sql", m.Version, m.Name, m.Direction)
}

// MigrationRecord represents a migration in the schema_migrations table.
type MigrationRecord struct {
	Version   string
	AppliedAt time.Time
}

// Runner executes the embedded database migrations.
type Runner struct {
	db *DB
}

// NewRunner creates a new migration runner.
func NewRunner(db *DB) *Runner {
	return &Runner{db: db}
}

// EnsureMigrationTable creates the schema_migrations table if it doesn't exist.
func (r *Runner) EnsureMigrationTable(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version VARCHAR(14) PRIMARY KEY,
			applied_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)
	`
	_, err := r.db.ExecContext(ctx, query)
	return err
}

// GetAppliedMigrations returns all applied migration versions.
func (r *Runner) GetAppliedMigrations(ctx context.Context) ([]MigrationRecord, error) {
	query := `SELECT version, applied_at FROM schema_migrations ORDER BY version`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []MigrationRecord
	for rows.Next() {
		var rec MigrationRecord
		if err := rows.Scan(&rec.Version, &rec.AppliedAt); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// GetPendingMigrations returns migrations that need to be applied.
func (r *Runner) GetPendingMigrations(ctx context.Context) ([]Migration, error) {
	available, err := loadMigrations("up")
	if err != nil {
		return nil, fmt.Errorf("failed to scan migrations: %w", err)
	}

	applied, err := r.GetAppliedMigrations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get applied migrations: %w", err)
	}

	appliedSet := make(map[string]bool)
	for _, rec := range applied {
		appliedSet[rec.Version] = true
	}

	var pending []Migration
	for _, m := range available {
		if !appliedSet[m.Version] {
			pending = append(pending, m)
		}
	}
	return pending, nil
}

// Up runs all pending migrations, each inside its own transaction.
func (r *Runner) Up(ctx context.Context) error {
	if err := r.EnsureMigrationTable(ctx); err != nil {
		return fmt.Errorf("failed to ensure migration table: %w", err)
	}

	pending, err := r.GetPendingMigrations(ctx)
	if err != nil {
		return err
	}

	for _, m := range pending {
		if err := r.apply(ctx, m); err != nil {
			return fmt.Errorf("migration %s failed: %w", m.Version, err)
		}
	}
	return nil
}

// Down rolls back the most recently applied migration.
func (r *Runner) Down(ctx context.Context) error {
	if err := r.EnsureMigrationTable(ctx); err != nil {
		return fmt.Errorf("failed to ensure migration table: %w", err)
	}

	applied, err := r.GetAppliedMigrations(ctx)
	if err != nil {
		return err
	}
	if len(applied) == 0 {
		return nil
	}
	last := applied[len(applied)-1].Version

	downs, err := loadMigrations("down")
	if err != nil {
		return err
	}
	for _, m := range downs {
		if m.Version == last {
			if err := r.apply(ctx, m); err != nil {
				return fmt.Errorf("rollback %s failed: %w", m.Version, err)
			}
			return nil
		}
	}
	return fmt.Errorf("no down migration for version %s", last)
}

func (r *Runner) apply(ctx context.Context, m Migration) error {
	body, err := migrationFiles.ReadFile("migrations/" + m.String())
	if err != nil {
		return err
	}

	return r.db.Transaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, string(body)); err != nil {
			return err
		}

		switch m.Direction {
		case "up":
			_, err = tx.ExecContext(ctx,
				`INSERT INTO schema_migrations (version) VALUES ($1)`, m.Version)
		case "down":
			_, err = tx.ExecContext(ctx,
				`DELETE FROM schema_migrations WHERE version = $1`, m.Version)
		}
		return err
	})
}

// loadMigrations lists the embedded migrations for one direction, sorted by
// version.
func loadMigrations(direction string) ([]Migration, error) {
	suffix := fmt.Sprintf(".%s.sql", direction)

	entries, err := fs.ReadDir(migrationFiles, "migrations")
	if err != nil {
		return nil, err
	}

	var migrations []Migration
	for _, e := range entries {
		name := e.Name()
		if !strings.HasSuffix(name, suffix) {
			continue
		}

		// Parse filename: 000001_init.up.sql -> version=000001, name=init
		baseName := strings.TrimSuffix(name, suffix)
		parts := strings.SplitN(baseName, "_", 2)
		if len(parts) != 2 {
			continue
		}

		migrations = append(migrations, Migration{
			Version:   parts[0],
			Name:      parts[1],
			Direction: direction,
		})
	}

	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})
	return migrations, nil
}
