package account

import (
	"fmt"
	"strings"
	"time"

	"github.com/secinv/ghsync/pkg/domain/shared"
)

// TeamID builds the natural key for a team: "@org/slug", lowercased so that
// CODEOWNERS references match case-insensitively.
func TeamID(organisation, slug string) string {
	return strings.ToLower(fmt.Sprintf("@%s/%s", organisation, slug))
}

// Team is an organisation team. The natural key is "@org/slug".
type Team struct {
	id            string
	name          string
	description   string
	integrationID shared.ID

	active    bool
	firstSeen time.Time
	lastSeen  time.Time
}

// NewTeam creates a team as observed in the current sync pass.
func NewTeam(id, name, description string, integrationID shared.ID) *Team {
	now := time.Now()
	return &Team{
		id:            id,
		name:          name,
		description:   description,
		integrationID: integrationID,
		active:        true,
		firstSeen:     now,
		lastSeen:      now,
	}
}

// ReconstructTeam creates a team from stored data.
func ReconstructTeam(id, name, description string, integrationID shared.ID, active bool, firstSeen, lastSeen time.Time) *Team {
	return &Team{
		id:            id,
		name:          name,
		description:   description,
		integrationID: integrationID,
		active:        active,
		firstSeen:     firstSeen,
		lastSeen:      lastSeen,
	}
}

func (t *Team) ID() string                { return t.id }
func (t *Team) Name() string              { return t.name }
func (t *Team) Description() string       { return t.description }
func (t *Team) IntegrationID() shared.ID  { return t.integrationID }
func (t *Team) Active() bool              { return t.active }
func (t *Team) FirstSeen() time.Time      { return t.firstSeen }
func (t *Team) LastSeen() time.Time       { return t.lastSeen }
