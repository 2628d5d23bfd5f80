package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/secinv/ghsync/pkg/domain/integration"
)

// IntegrationRepository is the PostgreSQL implementation of integration.Repository.
type IntegrationRepository struct {
	db *DB
}

// NewIntegrationRepository creates a new IntegrationRepository.
func NewIntegrationRepository(db *DB) *IntegrationRepository {
	return &IntegrationRepository{db: db}
}

var _ integration.Repository = (*IntegrationRepository)(nil)

const integrationColumns = `
	id, name, description, organisation, app_id, installation_id,
	credentials_encrypted, enabled, actions, last_sync_at, sync_error,
	created_at, updated_at
`

// Create inserts a new integration.
func (r *IntegrationRepository) Create(ctx context.Context, i *integration.Integration) error {
	query := `
		INSERT INTO integrations (` + integrationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := r.db.ExecContext(ctx, query,
		i.ID().String(),
		i.Name(),
		i.Description(),
		i.Organisation(),
		i.AppID(),
		i.InstallationID(),
		i.CredentialsEncrypted(),
		i.Enabled(),
		pq.Array(actionStrings(i.Actions())),
		nullTime(i.LastSyncAt()),
		i.SyncError(),
		i.CreatedAt(),
		i.UpdatedAt(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return integration.ErrNameExists
		}
		return fmt.Errorf("create integration: %w", err)
	}
	return nil
}

// GetByID retrieves an integration by ID.
func (r *IntegrationRepository) GetByID(ctx context.Context, id integration.ID) (*integration.Integration, error) {
	query := `SELECT ` + integrationColumns + ` FROM integrations WHERE id = $1`
	return r.scanIntegration(r.db.QueryRowContext(ctx, query, id.String()))
}

// GetByName retrieves an integration by its unique name.
func (r *IntegrationRepository) GetByName(ctx context.Context, name string) (*integration.Integration, error) {
	query := `SELECT ` + integrationColumns + ` FROM integrations WHERE name = $1`
	return r.scanIntegration(r.db.QueryRowContext(ctx, query, name))
}

// Update persists a mutated integration.
func (r *IntegrationRepository) Update(ctx context.Context, i *integration.Integration) error {
	query := `
		UPDATE integrations SET
			description = $2, organisation = $3, app_id = $4,
			installation_id = $5, credentials_encrypted = $6, enabled = $7,
			actions = $8, last_sync_at = $9, sync_error = $10, updated_at = $11
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query,
		i.ID().String(),
		i.Description(),
		i.Organisation(),
		i.AppID(),
		i.InstallationID(),
		i.CredentialsEncrypted(),
		i.Enabled(),
		pq.Array(actionStrings(i.Actions())),
		nullTime(i.LastSyncAt()),
		i.SyncError(),
		i.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("update integration: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update integration: %w", err)
	}
	if rows == 0 {
		return integration.ErrIntegrationNotFound
	}
	return nil
}

// Delete removes an integration; dependent rows cascade.
func (r *IntegrationRepository) Delete(ctx context.Context, id integration.ID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM integrations WHERE id = $1`, id.String())
	if err != nil {
		return fmt.Errorf("delete integration: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete integration: %w", err)
	}
	if rows == 0 {
		return integration.ErrIntegrationNotFound
	}
	return nil
}

// List returns all integrations ordered by name.
func (r *IntegrationRepository) List(ctx context.Context) ([]*integration.Integration, error) {
	query := `SELECT ` + integrationColumns + ` FROM integrations ORDER BY name`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list integrations: %w", err)
	}
	defer rows.Close()

	var list []*integration.Integration
	for rows.Next() {
		i, err := r.scanIntegration(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, i)
	}
	return list, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *IntegrationRepository) scanIntegration(row rowScanner) (*integration.Integration, error) {
	var (
		idStr          string
		name           string
		description    string
		organisation   string
		appID          string
		installationID string
		credentials    string
		enabled        bool
		actions        pq.StringArray
		lastSyncAt     sql.NullTime
		syncError      string
		createdAt      sql.NullTime
		updatedAt      sql.NullTime
	)

	err := row.Scan(
		&idStr, &name, &description, &organisation, &appID, &installationID,
		&credentials, &enabled, &actions, &lastSyncAt, &syncError,
		&createdAt, &updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, integration.ErrIntegrationNotFound
		}
		return nil, fmt.Errorf("scan integration: %w", err)
	}

	id, err := integration.ParseID(idStr)
	if err != nil {
		return nil, fmt.Errorf("parse integration id: %w", err)
	}

	parsed := make([]integration.Action, 0, len(actions))
	for _, a := range actions {
		parsed = append(parsed, integration.Action(a))
	}

	return integration.Reconstruct(
		id, name, description, organisation, appID, installationID,
		credentials, enabled, parsed, nullTimeValue(lastSyncAt), syncError,
		createdAt.Time, updatedAt.Time,
	), nil
}

func actionStrings(actions []integration.Action) []string {
	out := make([]string, 0, len(actions))
	for _, a := range actions {
		out = append(out, a.String())
	}
	return out
}
