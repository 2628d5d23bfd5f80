package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/secinv/ghsync/pkg/domain/application"
	"github.com/secinv/ghsync/pkg/domain/shared"
)

// ApplicationRepository is the PostgreSQL implementation of
// application.Repository. Applications are managed outside the sync engine;
// only reads are exposed.
type ApplicationRepository struct {
	db *DB
}

// NewApplicationRepository creates a new ApplicationRepository.
func NewApplicationRepository(db *DB) *ApplicationRepository {
	return &ApplicationRepository{db: db}
}

var _ application.Repository = (*ApplicationRepository)(nil)

// ListByRepo returns the applications claiming a repository.
func (r *ApplicationRepository) ListByRepo(ctx context.Context, repoID shared.ID) ([]*application.Application, error) {
	query := `
		SELECT a.id, a.tla FROM applications a
		JOIN application_repositories ar ON ar.application_id = a.id
		WHERE ar.repository_id = $1
		ORDER BY a.tla
	`
	rows, err := r.db.QueryContext(ctx, query, repoID.String())
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	defer rows.Close()

	var apps []*application.Application
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		apps = append(apps, app)
	}
	return apps, rows.Err()
}

// GetUnknown returns the sentinel application seeded by the migrations.
func (r *ApplicationRepository) GetUnknown(ctx context.Context) (*application.Application, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, tla FROM applications WHERE tla = $1`, application.UnknownTLA)

	app, err := scanApplication(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: sentinel application missing, run migrations", shared.ErrNotFound)
		}
		return nil, err
	}
	return app, nil
}

func scanApplication(row rowScanner) (*application.Application, error) {
	var (
		idStr string
		tla   string
	)
	if err := row.Scan(&idStr, &tla); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("scan application: %w", err)
	}

	id, err := shared.IDFromString(idStr)
	if err != nil {
		return nil, fmt.Errorf("parse application id: %w", err)
	}
	return application.Reconstruct(id, tla), nil
}
