// Package app drives the reconciliation of GitHub organisation state into
// the inventory: users, teams, repositories, findings and codeowners.
package app

import (
	"context"

	"github.com/secinv/ghsync/internal/infra/github"
)

// APIClient is the slice of the GitHub client the sync services consume.
// A client is bound to one installation token and lives for one pass.
type APIClient interface {
	PerPage() int
	OrgMembers(ctx context.Context, org string) ([]github.OrgMember, error)
	ListTeams(ctx context.Context, org string) ([]github.Team, error)
	ListTeamMembers(ctx context.Context, membersURL string) ([]github.Member, error)
	ListOrgRepos(ctx context.Context, org string, page int) ([]github.Repo, error)
	ListDependencyAlerts(ctx context.Context, org, repo string, page int) ([]github.DependencyAlert, error)
	ListCodeAlerts(ctx context.Context, org, repo string, page int) ([]github.CodeAlert, error)
	ListSecretAlerts(ctx context.Context, org, repo string, page int) ([]github.SecretAlert, error)
	GetContents(ctx context.Context, org, repo, path string) (*github.Contents, error)
}

// TokenMinter exchanges an app identity and private key for a bearer token.
type TokenMinter interface {
	MintToken(ctx context.Context, appID, privateKeyPEM, installationID string) (string, error)
}

// ClientFactory builds an APIClient for a freshly minted token.
type ClientFactory func(token string) APIClient
