// Package integration defines the connection to one external GitHub
// organisation and the set of sync capabilities enabled for it.
package integration

import (
	"time"

	"github.com/secinv/ghsync/pkg/domain/shared"
)

// ID is a type alias for integration ID.
type ID = shared.ID

// ParseID parses a string into an integration ID.
func ParseID(s string) (ID, error) {
	return shared.IDFromString(s)
}

// Action is a sync capability. Actions gate which phases of a sync pass run
// for an integration; removing an action retracts previously synced data of
// that kind on the next pass.
type Action string

const (
	ActionUsers        Action = "users"
	ActionRepositories Action = "repositories"
	ActionCodeowners   Action = "codeowners"
	ActionFindings     Action = "findings"
)

// String returns the string representation of the action.
func (a Action) String() string {
	return string(a)
}

// IsValid checks if the action is valid.
func (a Action) IsValid() bool {
	switch a {
	case ActionUsers, ActionRepositories, ActionCodeowners, ActionFindings:
		return true
	default:
		return false
	}
}

// AllActions returns every valid action, in sync dependency order.
func AllActions() []Action {
	return []Action{ActionUsers, ActionRepositories, ActionCodeowners, ActionFindings}
}

// Integration represents a GitHub App installation scoped to one organisation.
type Integration struct {
	id           ID
	name         string
	description  string
	organisation string

	// GitHub App identity
	appID          string
	installationID string

	// Private key PEM, encrypted at rest
	credentialsEncrypted string

	enabled bool
	actions []Action

	lastSyncAt *time.Time
	syncError  string

	createdAt time.Time
	updatedAt time.Time
}

// NewIntegration creates a new enabled integration with no actions.
func NewIntegration(id ID, name, organisation, appID, installationID string) *Integration {
	now := time.Now()
	return &Integration{
		id:             id,
		name:           name,
		organisation:   organisation,
		appID:          appID,
		installationID: installationID,
		enabled:        true,
		createdAt:      now,
		updatedAt:      now,
	}
}

// Reconstruct creates an integration from stored data.
func Reconstruct(
	id ID,
	name string,
	description string,
	organisation string,
	appID string,
	installationID string,
	credentialsEncrypted string,
	enabled bool,
	actions []Action,
	lastSyncAt *time.Time,
	syncError string,
	createdAt time.Time,
	updatedAt time.Time,
) *Integration {
	return &Integration{
		id:                   id,
		name:                 name,
		description:          description,
		organisation:         organisation,
		appID:                appID,
		installationID:       installationID,
		credentialsEncrypted: credentialsEncrypted,
		enabled:              enabled,
		actions:              actions,
		lastSyncAt:           lastSyncAt,
		syncError:            syncError,
		createdAt:            createdAt,
		updatedAt:            updatedAt,
	}
}

// Getters

func (i *Integration) ID() ID                       { return i.id }
func (i *Integration) Name() string                 { return i.name }
func (i *Integration) Description() string          { return i.description }
func (i *Integration) Organisation() string         { return i.organisation }
func (i *Integration) AppID() string                { return i.appID }
func (i *Integration) InstallationID() string       { return i.installationID }
func (i *Integration) CredentialsEncrypted() string { return i.credentialsEncrypted }
func (i *Integration) Enabled() bool                { return i.enabled }
func (i *Integration) Actions() []Action            { return i.actions }
func (i *Integration) LastSyncAt() *time.Time       { return i.lastSyncAt }
func (i *Integration) SyncError() string            { return i.syncError }
func (i *Integration) CreatedAt() time.Time         { return i.createdAt }
func (i *Integration) UpdatedAt() time.Time         { return i.updatedAt }

// HasAction returns true if the given capability is enabled.
func (i *Integration) HasAction(a Action) bool {
	for _, have := range i.actions {
		if have == a {
			return true
		}
	}
	return false
}

// Mutations

func (i *Integration) SetDescription(description string) {
	i.description = description
	i.updatedAt = time.Now()
}

// SetInstallation repoints the integration at a GitHub App installation.
func (i *Integration) SetInstallation(organisation, appID, installationID string) {
	i.organisation = organisation
	i.appID = appID
	i.installationID = installationID
	i.updatedAt = time.Now()
}

func (i *Integration) SetCredentials(encrypted string) {
	i.credentialsEncrypted = encrypted
	i.updatedAt = time.Now()
}

func (i *Integration) SetActions(actions []Action) {
	i.actions = actions
	i.updatedAt = time.Now()
}

func (i *Integration) Enable() {
	i.enabled = true
	i.updatedAt = time.Now()
}

func (i *Integration) Disable() {
	i.enabled = false
	i.updatedAt = time.Now()
}

// RecordSync stamps a completed sync pass. A non-empty errMsg marks the pass
// as failed without touching entity data already committed.
func (i *Integration) RecordSync(errMsg string) {
	now := time.Now()
	i.lastSyncAt = &now
	i.syncError = errMsg
	i.updatedAt = now
}
