package account

import (
	"context"

	"github.com/secinv/ghsync/pkg/domain/shared"
)

// UserRepository defines the interface for user persistence. Upserts match
// on the login natural key; the default-state operations reset freshness
// ahead of a sync pass.
type UserRepository interface {
	// Upsert creates or refreshes a user, advancing last_seen and marking it
	// active. first_seen is set once and never overwritten.
	Upsert(ctx context.Context, u *User) error

	GetByLogin(ctx context.Context, login string) (*User, error)

	// FindOwner resolves a CODEOWNERS token: by login, or by literal
	// verified-email match. Returns nil without error when nothing matches.
	FindOwner(ctx context.Context, login, email string) (*User, error)

	MarkAllInactive(ctx context.Context, integrationID shared.ID) error
	DeleteByIntegration(ctx context.Context, integrationID shared.ID) error
}

// TeamRepository defines the interface for team persistence. Membership is
// replaced wholesale on every sync, never diffed.
type TeamRepository interface {
	Upsert(ctx context.Context, t *Team) error

	// GetByID matches the "@org/slug" key; callers lowercase the key first.
	GetByID(ctx context.Context, id string) (*Team, error)

	ReplaceMembers(ctx context.Context, teamID string, logins []string) error
	ListMemberLogins(ctx context.Context, teamID string) ([]string, error)

	MarkAllInactive(ctx context.Context, integrationID shared.ID) error
	DeleteByIntegration(ctx context.Context, integrationID shared.ID) error
}
