package gitrepo

import (
	"context"

	"github.com/secinv/ghsync/pkg/domain/shared"
)

// Repositories defines the interface for repository persistence.
type Repositories interface {
	// Upsert matches on (integration, url). On update the stored surrogate
	// ID is kept and the scan flags are preserved unless set on the incoming
	// entity; the returned repository carries the stored ID and flags.
	Upsert(ctx context.Context, r *Repository) (*Repository, error)

	GetByID(ctx context.Context, id ID) (*Repository, error)

	// Update persists mutated scan flags after the findings sub-passes.
	Update(ctx context.Context, r *Repository) error

	// ReplaceOwners replaces the CODEOWNERS-derived owner set wholesale.
	ReplaceOwners(ctx context.Context, repoID ID, logins []string) error
	ListOwnerLogins(ctx context.Context, repoID ID) ([]string, error)
	ClearAllOwners(ctx context.Context, integrationID shared.ID) error

	MarkAllInactive(ctx context.Context, integrationID shared.ID) error
	DeleteByIntegration(ctx context.Context, integrationID shared.ID) error
}
