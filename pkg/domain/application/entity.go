// Package application defines the business-application collaborator that
// claims repositories. The sync engine only reads applications to resolve
// finding ownership; it never creates or mutates them.
package application

import (
	"context"

	"github.com/secinv/ghsync/pkg/domain/shared"
)

// UnknownTLA is the sentinel application that claims findings whose
// repository no real application has claimed.
const UnknownTLA = "unknown"

// ID is a type alias for application ID.
type ID = shared.ID

// Application is a business application owning zero or more repositories.
type Application struct {
	id  ID
	tla string
}

// Reconstruct creates an application from stored data.
func Reconstruct(id ID, tla string) *Application {
	return &Application{id: id, tla: tla}
}

func (a *Application) ID() ID      { return a.id }
func (a *Application) TLA() string { return a.tla }

// IsUnknown reports whether this is the sentinel application.
func (a *Application) IsUnknown() bool {
	return a.tla == UnknownTLA
}

// Repository defines the read-only interface the engine needs.
type Repository interface {
	// ListByRepo returns the applications claiming a repository.
	ListByRepo(ctx context.Context, repoID shared.ID) ([]*Application, error)

	// GetUnknown returns the sentinel application.
	GetUnknown(ctx context.Context) (*Application, error)
}
