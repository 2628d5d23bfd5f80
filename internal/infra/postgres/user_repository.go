package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/secinv/ghsync/pkg/domain/account"
	"github.com/secinv/ghsync/pkg/domain/shared"
)

// UserRepository is the PostgreSQL implementation of account.UserRepository.
type UserRepository struct {
	db *DB
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

var _ account.UserRepository = (*UserRepository)(nil)

const userColumns = `login, name, email, integration_id, active, first_seen, last_seen`

// Upsert creates or refreshes a user on its login natural key. first_seen
// survives the update; last_seen and active always advance.
func (r *UserRepository) Upsert(ctx context.Context, u *account.User) error {
	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (login) DO UPDATE SET
			name = EXCLUDED.name,
			email = EXCLUDED.email,
			integration_id = EXCLUDED.integration_id,
			active = TRUE,
			last_seen = EXCLUDED.last_seen
	`

	_, err := r.db.ExecContext(ctx, query,
		u.Login(),
		u.Name(),
		u.Email(),
		u.IntegrationID().String(),
		u.Active(),
		u.FirstSeen(),
		u.LastSeen(),
	)
	if err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	return nil
}

// GetByLogin retrieves a user by login.
func (r *UserRepository) GetByLogin(ctx context.Context, login string) (*account.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE login = $1`
	u, err := r.scanUser(r.db.QueryRowContext(ctx, query, login))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, account.ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

// FindOwner resolves a CODEOWNERS token by login or literal email match.
// Returns nil without error when nothing matches.
func (r *UserRepository) FindOwner(ctx context.Context, login, email string) (*account.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE login = $1 OR email = $2 LIMIT 1`
	u, err := r.scanUser(r.db.QueryRowContext(ctx, query, login, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return u, nil
}

// MarkAllInactive marks every user of an integration inactive.
func (r *UserRepository) MarkAllInactive(ctx context.Context, integrationID shared.ID) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET active = FALSE WHERE integration_id = $1`,
		integrationID.String())
	if err != nil {
		return fmt.Errorf("mark users inactive: %w", err)
	}
	return nil
}

// DeleteByIntegration removes every user of an integration.
func (r *UserRepository) DeleteByIntegration(ctx context.Context, integrationID shared.ID) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM users WHERE integration_id = $1`,
		integrationID.String())
	if err != nil {
		return fmt.Errorf("delete users: %w", err)
	}
	return nil
}

func (r *UserRepository) scanUser(row rowScanner) (*account.User, error) {
	var (
		login     string
		name      string
		email     string
		intIDStr  string
		active    bool
		firstSeen sql.NullTime
		lastSeen  sql.NullTime
	)

	if err := row.Scan(&login, &name, &email, &intIDStr, &active, &firstSeen, &lastSeen); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}

	intID, err := shared.IDFromString(intIDStr)
	if err != nil {
		return nil, fmt.Errorf("parse integration id: %w", err)
	}

	return account.ReconstructUser(login, name, email, intID, active, firstSeen.Time, lastSeen.Time), nil
}
