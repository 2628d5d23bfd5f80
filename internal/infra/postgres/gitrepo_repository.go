package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/secinv/ghsync/pkg/domain/gitrepo"
	"github.com/secinv/ghsync/pkg/domain/shared"
)

// GitRepoRepository is the PostgreSQL implementation of gitrepo.Repositories.
type GitRepoRepository struct {
	db *DB
}

// NewGitRepoRepository creates a new GitRepoRepository.
func NewGitRepoRepository(db *DB) *GitRepoRepository {
	return &GitRepoRepository{db: db}
}

var _ gitrepo.Repositories = (*GitRepoRepository)(nil)

const repoColumns = `id, integration_id, name, url, type, sca, sast, sts, active, last_seen`

// Upsert creates or refreshes a repository on its (integration, url) key.
// The stored surrogate ID survives the update and the scan flags only ever
// latch on: a pass that could not confirm a scanner does not unset a flag a
// previous pass set.
func (r *GitRepoRepository) Upsert(ctx context.Context, repo *gitrepo.Repository) (*gitrepo.Repository, error) {
	query := `
		INSERT INTO repositories (` + repoColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (integration_id, url) DO UPDATE SET
			name = EXCLUDED.name,
			type = EXCLUDED.type,
			sca = repositories.sca OR EXCLUDED.sca,
			sast = repositories.sast OR EXCLUDED.sast,
			sts = repositories.sts OR EXCLUDED.sts,
			active = EXCLUDED.active,
			last_seen = EXCLUDED.last_seen
		RETURNING ` + repoColumns

	row := r.db.QueryRowContext(ctx, query,
		repo.ID().String(),
		repo.IntegrationID().String(),
		repo.Name(),
		repo.URL(),
		repo.Type().String(),
		repo.SCA(),
		repo.SAST(),
		repo.STS(),
		repo.Active(),
		repo.LastSeen(),
	)

	stored, err := r.scanRepo(row)
	if err != nil {
		return nil, fmt.Errorf("upsert repository: %w", err)
	}
	return stored, nil
}

// GetByID retrieves a repository by ID.
func (r *GitRepoRepository) GetByID(ctx context.Context, id gitrepo.ID) (*gitrepo.Repository, error) {
	query := `SELECT ` + repoColumns + ` FROM repositories WHERE id = $1`
	repo, err := r.scanRepo(r.db.QueryRowContext(ctx, query, id.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, gitrepo.ErrRepositoryNotFound
		}
		return nil, err
	}
	return repo, nil
}

// Update persists mutated scan flags and classification.
func (r *GitRepoRepository) Update(ctx context.Context, repo *gitrepo.Repository) error {
	query := `
		UPDATE repositories SET
			name = $2, url = $3, type = $4, sca = $5, sast = $6, sts = $7,
			active = $8, last_seen = $9
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query,
		repo.ID().String(),
		repo.Name(),
		repo.URL(),
		repo.Type().String(),
		repo.SCA(),
		repo.SAST(),
		repo.STS(),
		repo.Active(),
		repo.LastSeen(),
	)
	if err != nil {
		return fmt.Errorf("update repository: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update repository: %w", err)
	}
	if rows == 0 {
		return gitrepo.ErrRepositoryNotFound
	}
	return nil
}

// ReplaceOwners replaces the owner set wholesale inside one transaction.
func (r *GitRepoRepository) ReplaceOwners(ctx context.Context, repoID gitrepo.ID, logins []string) error {
	return r.db.Transaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM repository_owners WHERE repository_id = $1`,
			repoID.String()); err != nil {
			return fmt.Errorf("clear owners: %w", err)
		}

		for _, login := range logins {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO repository_owners (repository_id, login) VALUES ($1, $2)
				 ON CONFLICT DO NOTHING`,
				repoID.String(), login); err != nil {
				return fmt.Errorf("insert owner: %w", err)
			}
		}
		return nil
	})
}

// ListOwnerLogins returns the owner logins of a repository.
func (r *GitRepoRepository) ListOwnerLogins(ctx context.Context, repoID gitrepo.ID) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT login FROM repository_owners WHERE repository_id = $1 ORDER BY login`,
		repoID.String())
	if err != nil {
		return nil, fmt.Errorf("list owners: %w", err)
	}
	defer rows.Close()

	var logins []string
	for rows.Next() {
		var login string
		if err := rows.Scan(&login); err != nil {
			return nil, fmt.Errorf("scan owner: %w", err)
		}
		logins = append(logins, login)
	}
	return logins, rows.Err()
}

// ClearAllOwners removes the owner sets of every repository of an
// integration.
func (r *GitRepoRepository) ClearAllOwners(ctx context.Context, integrationID shared.ID) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM repository_owners WHERE repository_id IN (
			SELECT id FROM repositories WHERE integration_id = $1
		)`, integrationID.String())
	if err != nil {
		return fmt.Errorf("clear all owners: %w", err)
	}
	return nil
}

// MarkAllInactive marks every repository of an integration inactive.
func (r *GitRepoRepository) MarkAllInactive(ctx context.Context, integrationID shared.ID) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE repositories SET active = FALSE WHERE integration_id = $1`,
		integrationID.String())
	if err != nil {
		return fmt.Errorf("mark repositories inactive: %w", err)
	}
	return nil
}

// DeleteByIntegration removes every repository of an integration; owners
// and findings cascade.
func (r *GitRepoRepository) DeleteByIntegration(ctx context.Context, integrationID shared.ID) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM repositories WHERE integration_id = $1`,
		integrationID.String())
	if err != nil {
		return fmt.Errorf("delete repositories: %w", err)
	}
	return nil
}

func (r *GitRepoRepository) scanRepo(row rowScanner) (*gitrepo.Repository, error) {
	var (
		idStr    string
		intIDStr string
		name     string
		url      string
		repoType string
		sca      bool
		sast     bool
		sts      bool
		active   bool
		lastSeen sql.NullTime
	)

	err := row.Scan(&idStr, &intIDStr, &name, &url, &repoType, &sca, &sast, &sts, &active, &lastSeen)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("scan repository: %w", err)
	}

	id, err := shared.IDFromString(idStr)
	if err != nil {
		return nil, fmt.Errorf("parse repository id: %w", err)
	}
	intID, err := shared.IDFromString(intIDStr)
	if err != nil {
		return nil, fmt.Errorf("parse integration id: %w", err)
	}

	return gitrepo.Reconstruct(id, intID, name, url, gitrepo.Type(repoType),
		sca, sast, sts, active, lastSeen.Time), nil
}
