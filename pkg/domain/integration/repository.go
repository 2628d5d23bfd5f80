package integration

import (
	"context"
)

// Repository defines the interface for integration persistence.
type Repository interface {
	Create(ctx context.Context, i *Integration) error
	GetByID(ctx context.Context, id ID) (*Integration, error)
	GetByName(ctx context.Context, name string) (*Integration, error)
	Update(ctx context.Context, i *Integration) error
	Delete(ctx context.Context, id ID) error

	// List returns all integrations, enabled or not. The orchestrator runs
	// the default-state pass for every integration, including paused ones.
	List(ctx context.Context) ([]*Integration, error)
}
