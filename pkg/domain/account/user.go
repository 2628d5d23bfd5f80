// Package account defines the organisation members and teams observed
// through a GitHub integration.
package account

import (
	"time"

	"github.com/secinv/ghsync/pkg/domain/shared"
)

// User is an organisation member. The natural key is the GitHub login.
type User struct {
	login         string
	name          string
	email         string
	integrationID shared.ID

	active    bool
	firstSeen time.Time
	lastSeen  time.Time
}

// NewUser creates a user as observed in the current sync pass.
func NewUser(login, name, email string, integrationID shared.ID) *User {
	now := time.Now()
	return &User{
		login:         login,
		name:          name,
		email:         email,
		integrationID: integrationID,
		active:        true,
		firstSeen:     now,
		lastSeen:      now,
	}
}

// ReconstructUser creates a user from stored data.
func ReconstructUser(login, name, email string, integrationID shared.ID, active bool, firstSeen, lastSeen time.Time) *User {
	return &User{
		login:         login,
		name:          name,
		email:         email,
		integrationID: integrationID,
		active:        active,
		firstSeen:     firstSeen,
		lastSeen:      lastSeen,
	}
}

func (u *User) Login() string            { return u.login }
func (u *User) Name() string             { return u.name }
func (u *User) Email() string            { return u.email }
func (u *User) IntegrationID() shared.ID { return u.integrationID }
func (u *User) Active() bool             { return u.active }
func (u *User) FirstSeen() time.Time     { return u.firstSeen }
func (u *User) LastSeen() time.Time      { return u.lastSeen }
