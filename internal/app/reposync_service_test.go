package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/secinv/ghsync/internal/infra/github"
	"github.com/secinv/ghsync/pkg/domain/application"
	"github.com/secinv/ghsync/pkg/domain/finding"
	"github.com/secinv/ghsync/pkg/domain/gitrepo"
	"github.com/secinv/ghsync/pkg/domain/integration"
	"github.com/secinv/ghsync/pkg/domain/shared"
	"github.com/secinv/ghsync/pkg/logger"
)

type repoSyncFixture struct {
	users    *fakeUserRepo
	teams    *fakeTeamRepo
	repos    *fakeGitRepoRepo
	findings *fakeFindingRepo
	apps     *fakeAppRepo
	svc      *RepoSyncService
	client   *fakeClient
}

func newRepoSyncFixture() *repoSyncFixture {
	f := &repoSyncFixture{
		users:    newFakeUserRepo(),
		teams:    newFakeTeamRepo(),
		repos:    newFakeGitRepoRepo(),
		findings: newFakeFindingRepo(),
		apps:     newFakeAppRepo(),
		client:   newFakeClient(),
	}
	owners := NewCodeownersResolver(f.users, f.teams, f.repos, logger.NewNop())
	f.svc = NewRepoSyncService(f.repos, f.findings, f.apps, owners, logger.NewNop())
	return f
}

func TestRepoSyncPaginatesAndClassifies(t *testing.T) {
	f := newRepoSyncFixture()
	intg := newTestIntegration(integration.ActionRepositories)

	// Three repos against a page size of two forces a second page and a
	// terminating empty third one.
	f.client.repos = []github.Repo{
		{Name: "svc", HTMLURL: "https://example.com/acme/svc"},
		{Name: "lib", HTMLURL: "https://example.com/acme/lib", Private: true},
		{Name: "attic", HTMLURL: "https://example.com/acme/attic", Archived: true, Fork: true},
	}

	require.NoError(t, f.svc.Run(context.Background(), intg, f.client))
	require.Len(t, f.repos.repos, 3)

	assert.Equal(t, gitrepo.TypePublic, f.repos.byName("svc").Type())
	assert.Equal(t, gitrepo.TypePrivate, f.repos.byName("lib").Type())

	attic := f.repos.byName("attic")
	assert.Equal(t, gitrepo.TypeArchived, attic.Type(), "archived wins over fork")
	assert.False(t, attic.Active())
}

func TestRepoSyncKeepsSurrogateIDAcrossRuns(t *testing.T) {
	f := newRepoSyncFixture()
	intg := newTestIntegration(integration.ActionRepositories)
	f.client.repos = []github.Repo{{Name: "svc", HTMLURL: "https://example.com/acme/svc"}}

	require.NoError(t, f.svc.Run(context.Background(), intg, f.client))
	firstID := f.repos.byName("svc").ID()

	require.NoError(t, f.svc.DefaultState(context.Background(), intg))
	require.NoError(t, f.svc.Run(context.Background(), intg, f.client))

	svc := f.repos.byName("svc")
	assert.True(t, firstID.Equals(svc.ID()), "re-observed repository keeps its surrogate ID")
	assert.True(t, svc.Active())
}

func TestRepoSyncFindings(t *testing.T) {
	f := newRepoSyncFixture()
	intg := newTestIntegration(integration.ActionRepositories, integration.ActionFindings)
	f.client.repos = []github.Repo{{Name: "svc", HTMLURL: "https://example.com/acme/svc"}}

	f.client.dependencyAlerts["svc"] = []github.DependencyAlert{
		{
			Number: 1, State: "open",
			HTMLURL: "https://example.com/acme/svc/security/dependabot/1",
			SecurityAdvisory: github.SecurityAdvisory{
				Description: "Prototype pollution",
				Severity:    "medium",
				Identifiers: []github.AdvisoryIdentifier{{Value: "CVE-2024-0001"}},
			},
		},
		{Number: 7, State: "dismissed", DismissedReason: "tolerable_risk"},
	}
	f.client.codeAlerts["svc"] = []github.CodeAlert{
		{
			Number: 3, State: "open",
			Rule: github.CodeAlertRule{Description: "SQL injection", SecuritySeverityLevel: "high"},
			MostRecentInstance: github.CodeAlertInstance{
				Location: github.CodeAlertLocation{Path: "db.go", StartLine: 10, EndLine: 12},
			},
		},
	}
	f.client.secretAlerts["svc"] = []github.SecretAlert{
		{Number: 5, State: "resolved", Resolution: "revoked", SecretType: "github_pat"},
	}

	require.NoError(t, f.svc.Run(context.Background(), intg, f.client))

	repo := f.repos.byName("svc")
	assert.True(t, repo.SCA())
	assert.True(t, repo.SAST())
	assert.True(t, repo.STS())

	dep, err := f.findings.GetByNaturalKey(context.Background(), finding.KindDependency, repo.ID(), 1)
	require.NoError(t, err)
	assert.Equal(t, finding.StateNew, dep.State())
	assert.Equal(t, finding.SeverityMedium, dep.Severity())

	dismissed, err := f.findings.GetByNaturalKey(context.Background(), finding.KindDependency, repo.ID(), 7)
	require.NoError(t, err)
	assert.Equal(t, finding.StateClosed, dismissed.State())

	code, err := f.findings.GetByNaturalKey(context.Background(), finding.KindCode, repo.ID(), 3)
	require.NoError(t, err)
	assert.Equal(t, finding.SeverityHigh, code.Severity())
	assert.Contains(t, code.Summary(), "db.go:10-12")

	secret, err := f.findings.GetByNaturalKey(context.Background(), finding.KindSecret, repo.ID(), 5)
	require.NoError(t, err)
	assert.Equal(t, finding.StateResolved, secret.State())
	assert.Equal(t, finding.SeverityHigh, secret.Severity())

	// No application claims the repo, so the sentinel takes the findings.
	appIDs, err := f.findings.ListAppIDs(context.Background(), dep.ID())
	require.NoError(t, err)
	require.Len(t, appIDs, 1)
	assert.True(t, appIDs[0].Equals(f.apps.unknown.ID()))
}

func TestRepoSyncFindingsClaimedApplication(t *testing.T) {
	f := newRepoSyncFixture()
	intg := newTestIntegration(integration.ActionRepositories, integration.ActionFindings)
	f.client.repos = []github.Repo{{Name: "svc", HTMLURL: "https://example.com/acme/svc"}}
	f.client.dependencyAlerts["svc"] = []github.DependencyAlert{{Number: 1, State: "open"}}

	// Claim the repository before findings run: the fake keeps surrogate
	// IDs stable, so seed the repo first.
	require.NoError(t, f.svc.Run(context.Background(), intg, f.client))
	repo := f.repos.byName("svc")
	billing := application.Reconstruct(shared.NewID(), "bil")
	f.apps.claims[repo.ID().String()] = []*application.Application{billing}

	require.NoError(t, f.svc.Run(context.Background(), intg, f.client))

	dep, err := f.findings.GetByNaturalKey(context.Background(), finding.KindDependency, repo.ID(), 1)
	require.NoError(t, err)
	appIDs, err := f.findings.ListAppIDs(context.Background(), dep.ID())
	require.NoError(t, err)
	require.Len(t, appIDs, 1)
	assert.True(t, appIDs[0].Equals(billing.ID()))
}

func TestRepoSyncFindingFirstSeenSurvivesUpsert(t *testing.T) {
	f := newRepoSyncFixture()
	intg := newTestIntegration(integration.ActionRepositories, integration.ActionFindings)
	f.client.repos = []github.Repo{{Name: "svc", HTMLURL: "https://example.com/acme/svc"}}
	f.client.dependencyAlerts["svc"] = []github.DependencyAlert{{Number: 1, State: "open"}}

	require.NoError(t, f.svc.Run(context.Background(), intg, f.client))
	repo := f.repos.byName("svc")
	first, err := f.findings.GetByNaturalKey(context.Background(), finding.KindDependency, repo.ID(), 1)
	require.NoError(t, err)
	firstSeen := first.FirstSeen()

	// The alert is fixed upstream before the next pass.
	f.client.dependencyAlerts["svc"] = []github.DependencyAlert{{Number: 1, State: "fixed"}}
	require.NoError(t, f.svc.DefaultState(context.Background(), intg))
	require.NoError(t, f.svc.Run(context.Background(), intg, f.client))

	updated, err := f.findings.GetByNaturalKey(context.Background(), finding.KindDependency, repo.ID(), 1)
	require.NoError(t, err)
	assert.Equal(t, finding.StateResolved, updated.State())
	assert.Equal(t, firstSeen, updated.FirstSeen())
	assert.True(t, updated.LastSeenDate().After(firstSeen) || updated.LastSeenDate().Equal(firstSeen))
}

func TestRepoSyncScanFlagNotClearedByFailedFetch(t *testing.T) {
	f := newRepoSyncFixture()
	intg := newTestIntegration(integration.ActionRepositories, integration.ActionFindings)
	f.client.repos = []github.Repo{{Name: "svc", HTMLURL: "https://example.com/acme/svc"}}

	require.NoError(t, f.svc.Run(context.Background(), intg, f.client))
	require.True(t, f.repos.byName("svc").SCA())

	// Second pass: dependency fetch fails, the other sub-passes succeed.
	f.client.dependencyErr["svc"] = &github.FetchError{Resource: "dependabot alerts", StatusCode: 500}
	require.NoError(t, f.svc.DefaultState(context.Background(), intg))
	require.NoError(t, f.svc.Run(context.Background(), intg, f.client))

	repo := f.repos.byName("svc")
	assert.True(t, repo.SCA(), "a failed fetch must not clear a previously set flag")
	assert.True(t, repo.SAST())
	assert.True(t, repo.STS())
}

func TestRepoSyncUnknownResolutionSkipsAlertOnly(t *testing.T) {
	f := newRepoSyncFixture()
	intg := newTestIntegration(integration.ActionRepositories, integration.ActionFindings)
	f.client.repos = []github.Repo{{Name: "svc", HTMLURL: "https://example.com/acme/svc"}}
	f.client.dependencyAlerts["svc"] = []github.DependencyAlert{
		{Number: 1, State: "auto_dismissed"},
		{Number: 2, State: "open"},
	}

	require.NoError(t, f.svc.Run(context.Background(), intg, f.client))

	repo := f.repos.byName("svc")
	_, err := f.findings.GetByNaturalKey(context.Background(), finding.KindDependency, repo.ID(), 1)
	assert.ErrorIs(t, err, finding.ErrFindingNotFound, "unresolvable alert must not be stored")

	stored, err := f.findings.GetByNaturalKey(context.Background(), finding.KindDependency, repo.ID(), 2)
	require.NoError(t, err)
	assert.Equal(t, finding.StateNew, stored.State())
	assert.True(t, repo.SCA(), "the rest of the sub-pass still completes")
}

func TestRepoSyncDefaultState(t *testing.T) {
	f := newRepoSyncFixture()
	intg := newTestIntegration(
		integration.ActionRepositories, integration.ActionFindings, integration.ActionCodeowners)
	f.client.repos = []github.Repo{{Name: "svc", HTMLURL: "https://example.com/acme/svc"}}
	f.client.dependencyAlerts["svc"] = []github.DependencyAlert{{Number: 1, State: "open"}}

	require.NoError(t, f.svc.Run(context.Background(), intg, f.client))
	repo := f.repos.byName("svc")
	require.NoError(t, f.repos.ReplaceOwners(context.Background(), repo.ID(), []string{"alice"}))

	// Capabilities enabled: repository marked stale, finding closed, owners
	// untouched.
	require.NoError(t, f.svc.DefaultState(context.Background(), intg))
	assert.False(t, f.repos.byName("svc").Active())
	dep, err := f.findings.GetByNaturalKey(context.Background(), finding.KindDependency, repo.ID(), 1)
	require.NoError(t, err)
	assert.Equal(t, finding.StateClosed, dep.State(), "findings close, never delete")
	owners, _ := f.repos.ListOwnerLogins(context.Background(), repo.ID())
	assert.Equal(t, []string{"alice"}, owners)

	// Codeowners capability retracted: owner sets clear.
	intg.SetActions([]integration.Action{integration.ActionRepositories, integration.ActionFindings})
	require.NoError(t, f.svc.DefaultState(context.Background(), intg))
	owners, _ = f.repos.ListOwnerLogins(context.Background(), repo.ID())
	assert.Empty(t, owners)

	// Repositories capability retracted: rows go away entirely.
	intg.SetActions(nil)
	require.NoError(t, f.svc.DefaultState(context.Background(), intg))
	assert.Empty(t, f.repos.repos)
}
