package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/secinv/ghsync/pkg/domain/account"
	"github.com/secinv/ghsync/pkg/domain/shared"
)

// TeamRepository is the PostgreSQL implementation of account.TeamRepository.
type TeamRepository struct {
	db *DB
}

// NewTeamRepository creates a new TeamRepository.
func NewTeamRepository(db *DB) *TeamRepository {
	return &TeamRepository{db: db}
}

var _ account.TeamRepository = (*TeamRepository)(nil)

const teamColumns = `id, name, description, integration_id, active, first_seen, last_seen`

// Upsert creates or refreshes a team on its "@org/slug" key.
func (r *TeamRepository) Upsert(ctx context.Context, t *account.Team) error {
	query := `
		INSERT INTO teams (` + teamColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			integration_id = EXCLUDED.integration_id,
			active = TRUE,
			last_seen = EXCLUDED.last_seen
	`

	_, err := r.db.ExecContext(ctx, query,
		t.ID(),
		t.Name(),
		t.Description(),
		t.IntegrationID().String(),
		t.Active(),
		t.FirstSeen(),
		t.LastSeen(),
	)
	if err != nil {
		return fmt.Errorf("upsert team: %w", err)
	}
	return nil
}

// GetByID retrieves a team by its "@org/slug" key.
func (r *TeamRepository) GetByID(ctx context.Context, id string) (*account.Team, error) {
	query := `SELECT ` + teamColumns + ` FROM teams WHERE id = $1`

	var (
		teamID      string
		name        string
		description string
		intIDStr    string
		active      bool
		firstSeen   sql.NullTime
		lastSeen    sql.NullTime
	)

	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&teamID, &name, &description, &intIDStr, &active, &firstSeen, &lastSeen)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, account.ErrTeamNotFound
		}
		return nil, fmt.Errorf("scan team: %w", err)
	}

	intID, err := shared.IDFromString(intIDStr)
	if err != nil {
		return nil, fmt.Errorf("parse integration id: %w", err)
	}

	return account.ReconstructTeam(teamID, name, description, intID, active, firstSeen.Time, lastSeen.Time), nil
}

// ReplaceMembers replaces the membership set wholesale inside one
// transaction.
func (r *TeamRepository) ReplaceMembers(ctx context.Context, teamID string, logins []string) error {
	return r.db.Transaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM team_members WHERE team_id = $1`, teamID); err != nil {
			return fmt.Errorf("clear team members: %w", err)
		}

		for _, login := range logins {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO team_members (team_id, login) VALUES ($1, $2)
				 ON CONFLICT DO NOTHING`,
				teamID, login); err != nil {
				return fmt.Errorf("insert team member: %w", err)
			}
		}
		return nil
	})
}

// ListMemberLogins returns the member logins of a team.
func (r *TeamRepository) ListMemberLogins(ctx context.Context, teamID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT login FROM team_members WHERE team_id = $1 ORDER BY login`, teamID)
	if err != nil {
		return nil, fmt.Errorf("list team members: %w", err)
	}
	defer rows.Close()

	var logins []string
	for rows.Next() {
		var login string
		if err := rows.Scan(&login); err != nil {
			return nil, fmt.Errorf("scan team member: %w", err)
		}
		logins = append(logins, login)
	}
	return logins, rows.Err()
}

// MarkAllInactive marks every team of an integration inactive.
func (r *TeamRepository) MarkAllInactive(ctx context.Context, integrationID shared.ID) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE teams SET active = FALSE WHERE integration_id = $1`,
		integrationID.String())
	if err != nil {
		return fmt.Errorf("mark teams inactive: %w", err)
	}
	return nil
}

// DeleteByIntegration removes every team of an integration; memberships
// cascade.
func (r *TeamRepository) DeleteByIntegration(ctx context.Context, integrationID shared.ID) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM teams WHERE integration_id = $1`,
		integrationID.String())
	if err != nil {
		return fmt.Errorf("delete teams: %w", err)
	}
	return nil
}
