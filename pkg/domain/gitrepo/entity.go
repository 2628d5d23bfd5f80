// Package gitrepo defines the repository aggregate of the inventory.
package gitrepo

import (
	"time"

	"github.com/secinv/ghsync/pkg/domain/shared"
)

// ID is a type alias for repository ID.
type ID = shared.ID

// Type classifies a repository.
type Type string

const (
	TypePublic   Type = "public"
	TypePrivate  Type = "private"
	TypeInternal Type = "internal"
	TypeForked   Type = "forked"
	TypeArchived Type = "archived"
	TypeMirrored Type = "mirrored"
)

// String returns the string representation of the type.
func (t Type) String() string {
	return string(t)
}

// IsValid checks if the type is valid.
func (t Type) IsValid() bool {
	switch t {
	case TypePublic, TypePrivate, TypeInternal, TypeForked, TypeArchived, TypeMirrored:
		return true
	default:
		return false
	}
}

// Classify maps the flags of an external repository record to a type and an
// active state. Precedence: archived, then fork, then private, then public.
// TypeInternal and TypeMirrored exist in the taxonomy but are not reachable
// from this flag order; see the open questions in DESIGN.md before changing
// the precedence.
func Classify(archived, fork, private bool) (Type, bool) {
	switch {
	case archived:
		return TypeArchived, false
	case fork:
		return TypeForked, true
	case private:
		return TypePrivate, true
	default:
		return TypePublic, true
	}
}

// Repository is one synced git repository. The natural key is
// (integration, url).
type Repository struct {
	id            ID
	integrationID shared.ID
	name          string
	url           string
	repoType      Type

	// Scan enablement flags. Each flips to true only when the matching
	// alerts sub-pass completes a full pagination without a fetch error,
	// and is never flipped back to false by a failed fetch.
	sca  bool
	sast bool
	sts  bool

	active   bool
	lastSeen time.Time
}

// NewRepository creates a repository as observed in the current sync pass.
func NewRepository(id ID, integrationID shared.ID, name, url string, repoType Type, active bool) *Repository {
	return &Repository{
		id:            id,
		integrationID: integrationID,
		name:          name,
		url:           url,
		repoType:      repoType,
		active:        active,
		lastSeen:      time.Now(),
	}
}

// Reconstruct creates a repository from stored data.
func Reconstruct(id ID, integrationID shared.ID, name, url string, repoType Type, sca, sast, sts, active bool, lastSeen time.Time) *Repository {
	return &Repository{
		id:            id,
		integrationID: integrationID,
		name:          name,
		url:           url,
		repoType:      repoType,
		sca:           sca,
		sast:          sast,
		sts:           sts,
		active:        active,
		lastSeen:      lastSeen,
	}
}

func (r *Repository) ID() ID                   { return r.id }
func (r *Repository) IntegrationID() shared.ID { return r.integrationID }
func (r *Repository) Name() string             { return r.name }
func (r *Repository) URL() string              { return r.url }
func (r *Repository) Type() Type               { return r.repoType }
func (r *Repository) SCA() bool                { return r.sca }
func (r *Repository) SAST() bool               { return r.sast }
func (r *Repository) STS() bool                { return r.sts }
func (r *Repository) Active() bool             { return r.active }
func (r *Repository) LastSeen() time.Time      { return r.lastSeen }

// EnableSCA records a fully paginated dependency-alerts sub-pass.
func (r *Repository) EnableSCA() { r.sca = true }

// EnableSAST records a fully paginated code-alerts sub-pass.
func (r *Repository) EnableSAST() { r.sast = true }

// EnableSTS records a fully paginated secret-alerts sub-pass.
func (r *Repository) EnableSTS() { r.sts = true }
