package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/secinv/ghsync/internal/infra/github"
	"github.com/secinv/ghsync/pkg/domain/account"
	"github.com/secinv/ghsync/pkg/domain/gitrepo"
	"github.com/secinv/ghsync/pkg/domain/integration"
	"github.com/secinv/ghsync/pkg/logger"
)

// codeownersPaths are probed in order; the first file found wins.
var codeownersPaths = []string{"CODEOWNERS", ".github/CODEOWNERS"}

// CodeownersResolver turns a repository's CODEOWNERS file into the set of
// known users owning the repository. Team handles expand to their synced
// member lists; handles matching nothing are dropped.
type CodeownersResolver struct {
	users  account.UserRepository
	teams  account.TeamRepository
	repos  gitrepo.Repositories
	logger *logger.Logger
}

// NewCodeownersResolver creates a new CodeownersResolver.
func NewCodeownersResolver(users account.UserRepository, teams account.TeamRepository, repos gitrepo.Repositories, log *logger.Logger) *CodeownersResolver {
	return &CodeownersResolver{
		users:  users,
		teams:  teams,
		repos:  repos,
		logger: log.With("service", "codeowners"),
	}
}

// Sync reconciles the repository's owner set. A repository without a
// CODEOWNERS file at either probed path has its owners cleared, so a
// deleted file retracts ownership on the next run.
func (r *CodeownersResolver) Sync(ctx context.Context, intg *integration.Integration, repo *gitrepo.Repository, client APIClient) error {
	content, found, err := r.fetch(ctx, intg.Organisation(), repo.Name(), client)
	if err != nil {
		return fmt.Errorf("codeowners %s: %w", repo.Name(), err)
	}

	if !found {
		if err := r.repos.ReplaceOwners(ctx, repo.ID(), nil); err != nil {
			return fmt.Errorf("clear owners %s: %w", repo.Name(), err)
		}
		return nil
	}

	logins, err := r.resolve(ctx, content)
	if err != nil {
		return fmt.Errorf("resolve owners %s: %w", repo.Name(), err)
	}

	if err := r.repos.ReplaceOwners(ctx, repo.ID(), logins); err != nil {
		return fmt.Errorf("replace owners %s: %w", repo.Name(), err)
	}
	return nil
}

// fetch probes the candidate paths and returns the decoded file body.
func (r *CodeownersResolver) fetch(ctx context.Context, org, repo string, client APIClient) (string, bool, error) {
	for _, path := range codeownersPaths {
		contents, err := client.GetContents(ctx, org, repo, path)
		if err != nil {
			if errors.Is(err, github.ErrNotFound) {
				continue
			}
			return "", false, err
		}

		body, err := github.DecodeContent(contents)
		if err != nil {
			return "", false, fmt.Errorf("decode %s: %w", path, err)
		}
		return body, true, nil
	}
	return "", false, nil
}

// resolve extracts the "@"-bearing handles from the file and expands them
// into distinct user logins. Each handle is looked up both as a user, by
// login or email, and as a team; a handle matching both contributes both.
func (r *CodeownersResolver) resolve(ctx context.Context, content string) ([]string, error) {
	seen := make(map[string]struct{})
	var logins []string
	add := func(login string) {
		if _, ok := seen[login]; ok {
			return
		}
		seen[login] = struct{}{}
		logins = append(logins, login)
	}

	for _, line := range strings.Split(content, "\n") {
		for _, token := range strings.Fields(line) {
			if !strings.Contains(token, "@") {
				continue
			}

			user, err := r.users.FindOwner(ctx, strings.TrimPrefix(token, "@"), token)
			if err != nil {
				return nil, fmt.Errorf("lookup user %s: %w", token, err)
			}
			if user != nil {
				add(user.Login())
			}

			members, err := r.teamMembers(ctx, token)
			if err != nil {
				return nil, err
			}
			for _, m := range members {
				add(m)
			}
		}
	}

	return logins, nil
}

// teamMembers expands a team handle into its synced member logins.
// Handles naming no known team resolve to nothing.
func (r *CodeownersResolver) teamMembers(ctx context.Context, handle string) ([]string, error) {
	team, err := r.teams.GetByID(ctx, strings.ToLower(handle))
	if err != nil {
		if errors.Is(err, account.ErrTeamNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("lookup team %s: %w", handle, err)
	}

	members, err := r.teams.ListMemberLogins(ctx, team.ID())
	if err != nil {
		return nil, fmt.Errorf("team members %s: %w", handle, err)
	}
	return members, nil
}
