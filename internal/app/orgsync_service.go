package app

import (
	"context"
	"fmt"

	"github.com/secinv/ghsync/pkg/domain/account"
	"github.com/secinv/ghsync/pkg/domain/integration"
	"github.com/secinv/ghsync/pkg/logger"
)

// OrganisationSyncService reconciles organisation membership: users first,
// then teams, because team membership references users by login.
type OrganisationSyncService struct {
	users  account.UserRepository
	teams  account.TeamRepository
	logger *logger.Logger
}

// NewOrganisationSyncService creates a new OrganisationSyncService.
func NewOrganisationSyncService(users account.UserRepository, teams account.TeamRepository, log *logger.Logger) *OrganisationSyncService {
	return &OrganisationSyncService{
		users:  users,
		teams:  teams,
		logger: log.With("service", "orgsync"),
	}
}

// DefaultState bounds data freshness before any fetch: with the users
// capability enabled, existing users and teams are marked inactive pending
// re-confirmation; with it disabled, they are deleted outright. Runs for
// paused integrations too.
func (s *OrganisationSyncService) DefaultState(ctx context.Context, intg *integration.Integration) error {
	if intg.HasAction(integration.ActionUsers) {
		if err := s.users.MarkAllInactive(ctx, intg.ID()); err != nil {
			return fmt.Errorf("mark users inactive: %w", err)
		}
		if err := s.teams.MarkAllInactive(ctx, intg.ID()); err != nil {
			return fmt.Errorf("mark teams inactive: %w", err)
		}
		return nil
	}

	if err := s.users.DeleteByIntegration(ctx, intg.ID()); err != nil {
		return fmt.Errorf("delete users: %w", err)
	}
	if err := s.teams.DeleteByIntegration(ctx, intg.ID()); err != nil {
		return fmt.Errorf("delete teams: %w", err)
	}
	return nil
}

// Run executes the users pass and then the teams pass. A failed membership
// query aborts the whole phase: teams would reference users that were never
// refreshed.
func (s *OrganisationSyncService) Run(ctx context.Context, intg *integration.Integration, client APIClient) error {
	if err := s.syncUsers(ctx, intg, client); err != nil {
		return err
	}
	return s.syncTeams(ctx, intg, client)
}

func (s *OrganisationSyncService) syncUsers(ctx context.Context, intg *integration.Integration, client APIClient) error {
	members, err := client.OrgMembers(ctx, intg.Organisation())
	if err != nil {
		return fmt.Errorf("organisation members: %w", err)
	}

	for _, m := range members {
		if err := s.users.Upsert(ctx, mapUser(m, intg.ID())); err != nil {
			return fmt.Errorf("upsert user %s: %w", m.Login, err)
		}
	}

	s.logger.Info("users synced", "integration", intg.Name(), "count", len(members))
	return nil
}

func (s *OrganisationSyncService) syncTeams(ctx context.Context, intg *integration.Integration, client APIClient) error {
	teams, err := client.ListTeams(ctx, intg.Organisation())
	if err != nil {
		// The users pass already succeeded; a failed teams listing only
		// leaves teams marked inactive until the next pass.
		s.logger.Warn("teams listing failed", "integration", intg.Name(), "error", err)
		return nil
	}

	for _, t := range teams {
		team := mapTeam(intg.Organisation(), t, intg.ID())
		if err := s.teams.Upsert(ctx, team); err != nil {
			return fmt.Errorf("upsert team %s: %w", team.ID(), err)
		}

		// Membership is replaced wholesale, never diffed. A failed members
		// fetch leaves the set empty rather than stale.
		var logins []string
		members, err := client.ListTeamMembers(ctx, t.MembersURL)
		if err != nil {
			s.logger.Warn("team members fetch failed", "integration", intg.Name(), "team", team.ID(), "error", err)
		} else {
			logins = make([]string, 0, len(members))
			for _, m := range members {
				logins = append(logins, m.Login)
			}
		}

		if err := s.teams.ReplaceMembers(ctx, team.ID(), logins); err != nil {
			return fmt.Errorf("replace members of %s: %w", team.ID(), err)
		}
	}

	s.logger.Info("teams synced", "integration", intg.Name(), "count", len(teams))
	return nil
}
