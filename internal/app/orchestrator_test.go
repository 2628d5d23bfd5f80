package app

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/secinv/ghsync/internal/infra/github"
	"github.com/secinv/ghsync/pkg/crypto"
	"github.com/secinv/ghsync/pkg/domain/integration"
	"github.com/secinv/ghsync/pkg/logger"
)

type fakeIntegrationRepo struct {
	byName map[string]*integration.Integration
}

func newFakeIntegrationRepo(list ...*integration.Integration) *fakeIntegrationRepo {
	r := &fakeIntegrationRepo{byName: make(map[string]*integration.Integration)}
	for _, i := range list {
		r.byName[i.Name()] = i
	}
	return r
}

func (r *fakeIntegrationRepo) Create(_ context.Context, i *integration.Integration) error {
	r.byName[i.Name()] = i
	return nil
}

func (r *fakeIntegrationRepo) GetByID(_ context.Context, id integration.ID) (*integration.Integration, error) {
	for _, i := range r.byName {
		if i.ID().Equals(id) {
			return i, nil
		}
	}
	return nil, integration.ErrIntegrationNotFound
}

func (r *fakeIntegrationRepo) GetByName(_ context.Context, name string) (*integration.Integration, error) {
	i, ok := r.byName[name]
	if !ok {
		return nil, integration.ErrIntegrationNotFound
	}
	return i, nil
}

func (r *fakeIntegrationRepo) Update(_ context.Context, i *integration.Integration) error {
	r.byName[i.Name()] = i
	return nil
}

func (r *fakeIntegrationRepo) Delete(_ context.Context, id integration.ID) error {
	for name, i := range r.byName {
		if i.ID().Equals(id) {
			delete(r.byName, name)
			return nil
		}
	}
	return integration.ErrIntegrationNotFound
}

func (r *fakeIntegrationRepo) List(_ context.Context) ([]*integration.Integration, error) {
	list := make([]*integration.Integration, 0, len(r.byName))
	for _, i := range r.byName {
		list = append(list, i)
	}
	return list, nil
}

type fakeMinter struct {
	token string
	err   error
	calls int
}

func (m *fakeMinter) MintToken(_ context.Context, _, _, _ string) (string, error) {
	m.calls++
	return m.token, m.err
}

func newTestOrchestrator(intgs *fakeIntegrationRepo, minter TokenMinter, client APIClient) (*Orchestrator, *fakeUserRepo, *fakeGitRepoRepo) {
	users := newFakeUserRepo()
	teams := newFakeTeamRepo()
	repos := newFakeGitRepoRepo()
	findings := newFakeFindingRepo()
	apps := newFakeAppRepo()

	orgSync := NewOrganisationSyncService(users, teams, logger.NewNop())
	owners := NewCodeownersResolver(users, teams, repos, logger.NewNop())
	repoSync := NewRepoSyncService(repos, findings, apps, owners, logger.NewNop())

	o := NewOrchestrator(
		intgs, orgSync, repoSync, minter,
		func(string) APIClient { return client },
		crypto.NewNoOpEncryptor(), 2, logger.NewNop(),
	)
	return o, users, repos
}

func TestOrchestratorSyncRecordsSuccess(t *testing.T) {
	intg := newTestIntegration(integration.ActionUsers)
	intg.SetCredentials("key")
	intgs := newFakeIntegrationRepo(intg)

	client := newFakeClient()
	minter := &fakeMinter{token: "ghs_token"}
	o, users, _ := newTestOrchestrator(intgs, minter, client)

	require.NoError(t, o.SyncAll(context.Background()))

	assert.Equal(t, 1, minter.calls)
	assert.Empty(t, users.users)

	stored, err := intgs.GetByName(context.Background(), "acme")
	require.NoError(t, err)
	require.NotNil(t, stored.LastSyncAt())
	assert.Empty(t, stored.SyncError())
}

func TestOrchestratorPausedIntegrationGetsDefaultStateOnly(t *testing.T) {
	intg := newTestIntegration(integration.ActionUsers)
	intg.Disable()
	intgs := newFakeIntegrationRepo(intg)

	minter := &fakeMinter{token: "ghs_token"}
	o, users, _ := newTestOrchestrator(intgs, minter, newFakeClient())

	// Seed a user, then sync: the default-state pass must mark it stale
	// without any fetch happening.
	require.NoError(t, users.Upsert(context.Background(),
		mapUser(github.OrgMember{Login: "alice"}, intg.ID())))

	require.NoError(t, o.SyncAll(context.Background()))

	assert.Zero(t, minter.calls, "paused integrations never mint tokens")
	assert.False(t, users.users["alice"].Active())
}

func TestOrchestratorRepositoriesPhaseNeedsRepositoriesAction(t *testing.T) {
	intg := newTestIntegration(integration.ActionFindings)
	intgs := newFakeIntegrationRepo(intg)

	client := newFakeClient()
	client.repos = []github.Repo{{Name: "svc", HTMLURL: "https://example.com/acme/svc"}}

	o, _, repos := newTestOrchestrator(intgs, &fakeMinter{token: "t"}, client)

	require.NoError(t, o.SyncAll(context.Background()))

	// Without the repositories action the retraction in the default-state
	// pass must stick: nothing re-creates repository rows.
	assert.Empty(t, repos.repos)
}

func TestOrchestratorUsersFailureDoesNotSuppressRepositories(t *testing.T) {
	intg := newTestIntegration(integration.ActionUsers, integration.ActionRepositories)
	intgs := newFakeIntegrationRepo(intg)

	client := newFakeClient()
	client.membersErr = &github.FetchError{Resource: "organisation members", StatusCode: 401}
	client.repos = []github.Repo{{Name: "svc", HTMLURL: "https://example.com/acme/svc"}}

	o, _, repos := newTestOrchestrator(intgs, &fakeMinter{token: "t"}, client)

	err := o.SyncAll(context.Background())
	require.Error(t, err)

	assert.NotEmpty(t, repos.repos, "repositories phase runs despite the users failure")

	stored, getErr := intgs.GetByName(context.Background(), "acme")
	require.NoError(t, getErr)
	assert.Contains(t, stored.SyncError(), "users phase")
}

func TestOrchestratorRecordsMintFailure(t *testing.T) {
	intg := newTestIntegration(integration.ActionUsers)
	intgs := newFakeIntegrationRepo(intg)

	minter := &fakeMinter{err: errors.New("bad credentials")}
	o, _, _ := newTestOrchestrator(intgs, minter, newFakeClient())

	err := o.SyncAll(context.Background())
	require.Error(t, err)

	stored, getErr := intgs.GetByName(context.Background(), "acme")
	require.NoError(t, getErr)
	assert.Contains(t, stored.SyncError(), "bad credentials")
}

func TestOrchestratorSkipsInFlightIntegration(t *testing.T) {
	intg := newTestIntegration(integration.ActionUsers)
	intgs := newFakeIntegrationRepo(intg)
	o, _, _ := newTestOrchestrator(intgs, &fakeMinter{token: "t"}, newFakeClient())

	require.True(t, o.acquire(intg.ID()))
	// Second pass while the first is still running: skipped, not queued.
	assert.NoError(t, o.Sync(context.Background(), intg))
	o.release(intg.ID())

	assert.True(t, o.acquire(intg.ID()))
	o.release(intg.ID())
}
