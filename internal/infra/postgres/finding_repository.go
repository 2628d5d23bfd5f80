package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/secinv/ghsync/pkg/domain/finding"
	"github.com/secinv/ghsync/pkg/domain/shared"
)

// FindingRepository is the PostgreSQL implementation of finding.Repository.
type FindingRepository struct {
	db *DB
}

// NewFindingRepository creates a new FindingRepository.
func NewFindingRepository(db *DB) *FindingRepository {
	return &FindingRepository{db: db}
}

var _ finding.Repository = (*FindingRepository)(nil)

const findingColumns = `
	id, kind, integration_id, repository_id, number, title, summary,
	severity, state, url, detail, first_seen, last_seen_date
`

// Upsert creates or refreshes a finding on its (kind, repository, number)
// key. first_seen survives the update; everything else, including state, is
// overwritten by the incoming observation.
func (r *FindingRepository) Upsert(ctx context.Context, f *finding.Finding) (*finding.Finding, error) {
	detail, err := marshalDetail(f.Detail())
	if err != nil {
		return nil, fmt.Errorf("encode finding detail: %w", err)
	}

	query := `
		INSERT INTO findings (` + findingColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (kind, repository_id, number) DO UPDATE SET
			integration_id = EXCLUDED.integration_id,
			title = EXCLUDED.title,
			summary = EXCLUDED.summary,
			severity = EXCLUDED.severity,
			state = EXCLUDED.state,
			url = EXCLUDED.url,
			detail = EXCLUDED.detail,
			last_seen_date = EXCLUDED.last_seen_date
		RETURNING ` + findingColumns

	row := r.db.QueryRowContext(ctx, query,
		f.ID().String(),
		f.Kind().String(),
		f.IntegrationID().String(),
		f.RepositoryID().String(),
		f.Number(),
		f.Title(),
		f.Summary(),
		int(f.Severity()),
		int(f.State()),
		f.URL(),
		detail,
		f.FirstSeen(),
		f.LastSeenDate(),
	)

	stored, err := r.scanFinding(row)
	if err != nil {
		return nil, fmt.Errorf("upsert finding: %w", err)
	}
	return stored, nil
}

// GetByNaturalKey retrieves a finding by its (kind, repository, number) key.
func (r *FindingRepository) GetByNaturalKey(ctx context.Context, kind finding.Kind, repositoryID shared.ID, number int) (*finding.Finding, error) {
	query := `
		SELECT ` + findingColumns + ` FROM findings
		WHERE kind = $1 AND repository_id = $2 AND number = $3
	`
	f, err := r.scanFinding(r.db.QueryRowContext(ctx, query,
		kind.String(), repositoryID.String(), number))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, finding.ErrFindingNotFound
		}
		return nil, err
	}
	return f, nil
}

// ReplaceApps recomputes the owning-application set wholesale.
func (r *FindingRepository) ReplaceApps(ctx context.Context, findingID finding.ID, appIDs []shared.ID) error {
	return r.db.Transaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM finding_applications WHERE finding_id = $1`,
			findingID.String()); err != nil {
			return fmt.Errorf("clear finding applications: %w", err)
		}

		for _, appID := range appIDs {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO finding_applications (finding_id, application_id) VALUES ($1, $2)
				 ON CONFLICT DO NOTHING`,
				findingID.String(), appID.String()); err != nil {
				return fmt.Errorf("insert finding application: %w", err)
			}
		}
		return nil
	})
}

// ListAppIDs returns the applications a finding is attributed to.
func (r *FindingRepository) ListAppIDs(ctx context.Context, findingID finding.ID) ([]shared.ID, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT application_id FROM finding_applications WHERE finding_id = $1`,
		findingID.String())
	if err != nil {
		return nil, fmt.Errorf("list finding applications: %w", err)
	}
	defer rows.Close()

	var ids []shared.ID
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("scan application id: %w", err)
		}
		id, err := shared.IDFromString(s)
		if err != nil {
			return nil, fmt.Errorf("parse application id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// CloseAllByIntegration closes every finding of an integration. Rows are
// closed, never deleted, so the finding history survives capability changes.
func (r *FindingRepository) CloseAllByIntegration(ctx context.Context, integrationID shared.ID) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE findings SET state = $1 WHERE integration_id = $2`,
		int(finding.StateClosed), integrationID.String())
	if err != nil {
		return fmt.Errorf("close findings: %w", err)
	}
	return nil
}

func (r *FindingRepository) scanFinding(row rowScanner) (*finding.Finding, error) {
	var (
		idStr        string
		kindStr      string
		intIDStr     string
		repoIDStr    string
		number       int
		title        string
		summary      string
		severity     int
		state        int
		url          string
		detailBytes  []byte
		firstSeen    sql.NullTime
		lastSeenDate sql.NullTime
	)

	err := row.Scan(&idStr, &kindStr, &intIDStr, &repoIDStr, &number,
		&title, &summary, &severity, &state, &url, &detailBytes,
		&firstSeen, &lastSeenDate)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("scan finding: %w", err)
	}

	id, err := shared.IDFromString(idStr)
	if err != nil {
		return nil, fmt.Errorf("parse finding id: %w", err)
	}
	intID, err := shared.IDFromString(intIDStr)
	if err != nil {
		return nil, fmt.Errorf("parse integration id: %w", err)
	}
	repoID, err := shared.IDFromString(repoIDStr)
	if err != nil {
		return nil, fmt.Errorf("parse repository id: %w", err)
	}

	kind := finding.Kind(kindStr)
	detail, err := unmarshalDetail(kind, detailBytes)
	if err != nil {
		return nil, fmt.Errorf("decode finding detail: %w", err)
	}

	return finding.Reconstruct(id, kind, intID, repoID, number, title, summary,
		finding.Severity(severity), finding.State(state), url,
		firstSeen.Time, lastSeenDate.Time, detail), nil
}

// marshalDetail encodes the kind-specific fields for the JSONB column.
func marshalDetail(d finding.Detail) ([]byte, error) {
	if d == nil {
		return nil, nil
	}
	return json.Marshal(d)
}

// unmarshalDetail decodes the JSONB column into the detail struct matching
// the kind discriminant.
func unmarshalDetail(kind finding.Kind, data []byte) (finding.Detail, error) {
	if len(data) == 0 {
		return nil, nil
	}

	switch kind {
	case finding.KindDependency:
		var d finding.DependencyDetail
		if err := json.Unmarshal(data, &d); err != nil {
			return nil, err
		}
		return d, nil
	case finding.KindCode:
		var d finding.CodeDetail
		if err := json.Unmarshal(data, &d); err != nil {
			return nil, err
		}
		return d, nil
	case finding.KindSecret:
		var d finding.SecretDetail
		if err := json.Unmarshal(data, &d); err != nil {
			return nil, err
		}
		return d, nil
	default:
		return nil, finding.ErrInvalidKind
	}
}
