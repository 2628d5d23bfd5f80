package finding

import (
	"context"

	"github.com/secinv/ghsync/pkg/domain/shared"
)

// Repository defines the interface for finding persistence.
type Repository interface {
	// Upsert matches on (kind, repository, number). On update first_seen is
	// preserved; everything else, including state, is overwritten.
	Upsert(ctx context.Context, f *Finding) (*Finding, error)

	GetByNaturalKey(ctx context.Context, kind Kind, repositoryID shared.ID, number int) (*Finding, error)

	// ReplaceApps recomputes the owning-application set wholesale.
	ReplaceApps(ctx context.Context, findingID ID, appIDs []shared.ID) error
	ListAppIDs(ctx context.Context, findingID ID) ([]shared.ID, error)

	// CloseAllByIntegration is the default-state operation for findings:
	// rows are closed, never deleted, both when stale-marking an enabled
	// capability and when retracting a disabled one.
	CloseAllByIntegration(ctx context.Context, integrationID shared.ID) error
}
