package app

import (
	"context"
	"fmt"
	"sort"

	"github.com/secinv/ghsync/internal/infra/github"
	"github.com/secinv/ghsync/pkg/domain/account"
	"github.com/secinv/ghsync/pkg/domain/application"
	"github.com/secinv/ghsync/pkg/domain/finding"
	"github.com/secinv/ghsync/pkg/domain/gitrepo"
	"github.com/secinv/ghsync/pkg/domain/shared"
)

// In-memory repositories mirroring the upsert semantics of the postgres
// implementations.

type fakeUserRepo struct {
	users map[string]*account.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*account.User)}
}

func (r *fakeUserRepo) Upsert(_ context.Context, u *account.User) error {
	if existing, ok := r.users[u.Login()]; ok {
		r.users[u.Login()] = account.ReconstructUser(
			u.Login(), u.Name(), u.Email(), u.IntegrationID(),
			true, existing.FirstSeen(), u.LastSeen(),
		)
		return nil
	}
	r.users[u.Login()] = u
	return nil
}

func (r *fakeUserRepo) GetByLogin(_ context.Context, login string) (*account.User, error) {
	u, ok := r.users[login]
	if !ok {
		return nil, account.ErrUserNotFound
	}
	return u, nil
}

func (r *fakeUserRepo) FindOwner(_ context.Context, login, email string) (*account.User, error) {
	for _, u := range r.users {
		if u.Login() == login || (u.Email() != "" && u.Email() == email) {
			return u, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) MarkAllInactive(_ context.Context, integrationID shared.ID) error {
	for login, u := range r.users {
		if u.IntegrationID().Equals(integrationID) {
			r.users[login] = account.ReconstructUser(
				u.Login(), u.Name(), u.Email(), u.IntegrationID(),
				false, u.FirstSeen(), u.LastSeen(),
			)
		}
	}
	return nil
}

func (r *fakeUserRepo) DeleteByIntegration(_ context.Context, integrationID shared.ID) error {
	for login, u := range r.users {
		if u.IntegrationID().Equals(integrationID) {
			delete(r.users, login)
		}
	}
	return nil
}

type fakeTeamRepo struct {
	teams   map[string]*account.Team
	members map[string][]string
}

func newFakeTeamRepo() *fakeTeamRepo {
	return &fakeTeamRepo{
		teams:   make(map[string]*account.Team),
		members: make(map[string][]string),
	}
}

func (r *fakeTeamRepo) Upsert(_ context.Context, t *account.Team) error {
	if existing, ok := r.teams[t.ID()]; ok {
		r.teams[t.ID()] = account.ReconstructTeam(
			t.ID(), t.Name(), t.Description(), t.IntegrationID(),
			true, existing.FirstSeen(), t.LastSeen(),
		)
		return nil
	}
	r.teams[t.ID()] = t
	return nil
}

func (r *fakeTeamRepo) GetByID(_ context.Context, id string) (*account.Team, error) {
	t, ok := r.teams[id]
	if !ok {
		return nil, account.ErrTeamNotFound
	}
	return t, nil
}

func (r *fakeTeamRepo) ReplaceMembers(_ context.Context, teamID string, logins []string) error {
	r.members[teamID] = append([]string(nil), logins...)
	return nil
}

func (r *fakeTeamRepo) ListMemberLogins(_ context.Context, teamID string) ([]string, error) {
	return r.members[teamID], nil
}

func (r *fakeTeamRepo) MarkAllInactive(_ context.Context, integrationID shared.ID) error {
	for id, t := range r.teams {
		if t.IntegrationID().Equals(integrationID) {
			r.teams[id] = account.ReconstructTeam(
				t.ID(), t.Name(), t.Description(), t.IntegrationID(),
				false, t.FirstSeen(), t.LastSeen(),
			)
		}
	}
	return nil
}

func (r *fakeTeamRepo) DeleteByIntegration(_ context.Context, integrationID shared.ID) error {
	for id, t := range r.teams {
		if t.IntegrationID().Equals(integrationID) {
			delete(r.teams, id)
			delete(r.members, id)
		}
	}
	return nil
}

type fakeGitRepoRepo struct {
	repos  map[string]*gitrepo.Repository // keyed by url
	owners map[string][]string            // keyed by repo id
}

func newFakeGitRepoRepo() *fakeGitRepoRepo {
	return &fakeGitRepoRepo{
		repos:  make(map[string]*gitrepo.Repository),
		owners: make(map[string][]string),
	}
}

func (r *fakeGitRepoRepo) Upsert(_ context.Context, repo *gitrepo.Repository) (*gitrepo.Repository, error) {
	if existing, ok := r.repos[repo.URL()]; ok {
		merged := gitrepo.Reconstruct(
			existing.ID(), repo.IntegrationID(), repo.Name(), repo.URL(), repo.Type(),
			existing.SCA() || repo.SCA(),
			existing.SAST() || repo.SAST(),
			existing.STS() || repo.STS(),
			repo.Active(), repo.LastSeen(),
		)
		r.repos[repo.URL()] = merged
		return merged, nil
	}
	r.repos[repo.URL()] = repo
	return repo, nil
}

func (r *fakeGitRepoRepo) GetByID(_ context.Context, id gitrepo.ID) (*gitrepo.Repository, error) {
	for _, repo := range r.repos {
		if repo.ID().Equals(id) {
			return repo, nil
		}
	}
	return nil, gitrepo.ErrRepositoryNotFound
}

func (r *fakeGitRepoRepo) Update(_ context.Context, repo *gitrepo.Repository) error {
	for url, existing := range r.repos {
		if existing.ID().Equals(repo.ID()) {
			r.repos[url] = repo
			return nil
		}
	}
	return gitrepo.ErrRepositoryNotFound
}

func (r *fakeGitRepoRepo) ReplaceOwners(_ context.Context, repoID gitrepo.ID, logins []string) error {
	r.owners[repoID.String()] = append([]string(nil), logins...)
	return nil
}

func (r *fakeGitRepoRepo) ListOwnerLogins(_ context.Context, repoID gitrepo.ID) ([]string, error) {
	return r.owners[repoID.String()], nil
}

func (r *fakeGitRepoRepo) ClearAllOwners(_ context.Context, integrationID shared.ID) error {
	for _, repo := range r.repos {
		if repo.IntegrationID().Equals(integrationID) {
			delete(r.owners, repo.ID().String())
		}
	}
	return nil
}

func (r *fakeGitRepoRepo) MarkAllInactive(_ context.Context, integrationID shared.ID) error {
	for url, repo := range r.repos {
		if repo.IntegrationID().Equals(integrationID) {
			r.repos[url] = gitrepo.Reconstruct(
				repo.ID(), repo.IntegrationID(), repo.Name(), repo.URL(), repo.Type(),
				repo.SCA(), repo.SAST(), repo.STS(), false, repo.LastSeen(),
			)
		}
	}
	return nil
}

func (r *fakeGitRepoRepo) DeleteByIntegration(_ context.Context, integrationID shared.ID) error {
	for url, repo := range r.repos {
		if repo.IntegrationID().Equals(integrationID) {
			delete(r.owners, repo.ID().String())
			delete(r.repos, url)
		}
	}
	return nil
}

func (r *fakeGitRepoRepo) byName(name string) *gitrepo.Repository {
	for _, repo := range r.repos {
		if repo.Name() == name {
			return repo
		}
	}
	return nil
}

type fakeFindingRepo struct {
	findings map[string]*finding.Finding
	apps     map[string][]shared.ID
}

func newFakeFindingRepo() *fakeFindingRepo {
	return &fakeFindingRepo{
		findings: make(map[string]*finding.Finding),
		apps:     make(map[string][]shared.ID),
	}
}

func findingKey(kind finding.Kind, repoID shared.ID, number int) string {
	return fmt.Sprintf("%s|%s|%d", kind, repoID, number)
}

func (r *fakeFindingRepo) Upsert(_ context.Context, f *finding.Finding) (*finding.Finding, error) {
	key := findingKey(f.Kind(), f.RepositoryID(), f.Number())
	if existing, ok := r.findings[key]; ok {
		merged := finding.Reconstruct(
			existing.ID(), f.Kind(), f.IntegrationID(), f.RepositoryID(), f.Number(),
			f.Title(), f.Summary(), f.Severity(), f.State(), f.URL(),
			existing.FirstSeen(), f.LastSeenDate(), f.Detail(),
		)
		r.findings[key] = merged
		return merged, nil
	}
	r.findings[key] = f
	return f, nil
}

func (r *fakeFindingRepo) GetByNaturalKey(_ context.Context, kind finding.Kind, repoID shared.ID, number int) (*finding.Finding, error) {
	f, ok := r.findings[findingKey(kind, repoID, number)]
	if !ok {
		return nil, finding.ErrFindingNotFound
	}
	return f, nil
}

func (r *fakeFindingRepo) ReplaceApps(_ context.Context, findingID finding.ID, appIDs []shared.ID) error {
	r.apps[findingID.String()] = append([]shared.ID(nil), appIDs...)
	return nil
}

func (r *fakeFindingRepo) ListAppIDs(_ context.Context, findingID finding.ID) ([]shared.ID, error) {
	return r.apps[findingID.String()], nil
}

func (r *fakeFindingRepo) CloseAllByIntegration(_ context.Context, integrationID shared.ID) error {
	for key, f := range r.findings {
		if f.IntegrationID().Equals(integrationID) {
			f.SetState(finding.StateClosed)
			r.findings[key] = f
		}
	}
	return nil
}

type fakeAppRepo struct {
	unknown *application.Application
	claims  map[string][]*application.Application // keyed by repo id
}

func newFakeAppRepo() *fakeAppRepo {
	return &fakeAppRepo{
		unknown: application.Reconstruct(shared.NewID(), application.UnknownTLA),
		claims:  make(map[string][]*application.Application),
	}
}

func (r *fakeAppRepo) ListByRepo(_ context.Context, repoID shared.ID) ([]*application.Application, error) {
	return r.claims[repoID.String()], nil
}

func (r *fakeAppRepo) GetUnknown(_ context.Context) (*application.Application, error) {
	return r.unknown, nil
}

// fakeClient serves canned API data with per-endpoint error injection.
type fakeClient struct {
	perPage int

	members    []github.OrgMember
	membersErr error

	teams    []github.Team
	teamsErr error

	teamMembers    map[string][]github.Member
	teamMembersErr error

	repos    []github.Repo
	reposErr error

	dependencyAlerts map[string][]github.DependencyAlert
	dependencyErr    map[string]error

	codeAlerts map[string][]github.CodeAlert
	codeErr    map[string]error

	secretAlerts map[string][]github.SecretAlert
	secretErr    map[string]error

	contents map[string]*github.Contents // keyed by repo/path
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		perPage:          2,
		teamMembers:      make(map[string][]github.Member),
		dependencyAlerts: make(map[string][]github.DependencyAlert),
		dependencyErr:    make(map[string]error),
		codeAlerts:       make(map[string][]github.CodeAlert),
		codeErr:          make(map[string]error),
		secretAlerts:     make(map[string][]github.SecretAlert),
		secretErr:        make(map[string]error),
		contents:         make(map[string]*github.Contents),
	}
}

func (c *fakeClient) PerPage() int { return c.perPage }

func (c *fakeClient) OrgMembers(_ context.Context, _ string) ([]github.OrgMember, error) {
	return c.members, c.membersErr
}

func (c *fakeClient) ListTeams(_ context.Context, _ string) ([]github.Team, error) {
	return c.teams, c.teamsErr
}

func (c *fakeClient) ListTeamMembers(_ context.Context, membersURL string) ([]github.Member, error) {
	if c.teamMembersErr != nil {
		return nil, c.teamMembersErr
	}
	return c.teamMembers[membersURL], nil
}

func page[T any](items []T, pageNum, perPage int) []T {
	start := (pageNum - 1) * perPage
	if start >= len(items) {
		return nil
	}
	end := start + perPage
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

func (c *fakeClient) ListOrgRepos(_ context.Context, _ string, pageNum int) ([]github.Repo, error) {
	if c.reposErr != nil {
		return nil, c.reposErr
	}
	return page(c.repos, pageNum, c.perPage), nil
}

func (c *fakeClient) ListDependencyAlerts(_ context.Context, _, repo string, pageNum int) ([]github.DependencyAlert, error) {
	if err := c.dependencyErr[repo]; err != nil {
		return nil, err
	}
	return page(c.dependencyAlerts[repo], pageNum, c.perPage), nil
}

func (c *fakeClient) ListCodeAlerts(_ context.Context, _, repo string, pageNum int) ([]github.CodeAlert, error) {
	if err := c.codeErr[repo]; err != nil {
		return nil, err
	}
	return page(c.codeAlerts[repo], pageNum, c.perPage), nil
}

func (c *fakeClient) ListSecretAlerts(_ context.Context, _, repo string, pageNum int) ([]github.SecretAlert, error) {
	if err := c.secretErr[repo]; err != nil {
		return nil, err
	}
	return page(c.secretAlerts[repo], pageNum, c.perPage), nil
}

func (c *fakeClient) GetContents(_ context.Context, _, repo, path string) (*github.Contents, error) {
	if contents, ok := c.contents[repo+"/"+path]; ok {
		return contents, nil
	}
	return nil, github.ErrNotFound.Wrap(fmt.Errorf("%s", path))
}

func sortedLogins(logins []string) []string {
	out := append([]string(nil), logins...)
	sort.Strings(out)
	return out
}
