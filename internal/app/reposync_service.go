package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/secinv/ghsync/internal/metrics"
	"github.com/secinv/ghsync/pkg/domain/application"
	"github.com/secinv/ghsync/pkg/domain/finding"
	"github.com/secinv/ghsync/pkg/domain/gitrepo"
	"github.com/secinv/ghsync/pkg/domain/integration"
	"github.com/secinv/ghsync/pkg/domain/shared"
	"github.com/secinv/ghsync/pkg/logger"
)

// RepoSyncService reconciles repositories and, per repository, the three
// findings sub-passes and the codeowners pass.
type RepoSyncService struct {
	repos    gitrepo.Repositories
	findings finding.Repository
	apps     application.Repository
	owners   *CodeownersResolver
	logger   *logger.Logger
}

// NewRepoSyncService creates a new RepoSyncService.
func NewRepoSyncService(
	repos gitrepo.Repositories,
	findings finding.Repository,
	apps application.Repository,
	owners *CodeownersResolver,
	log *logger.Logger,
) *RepoSyncService {
	return &RepoSyncService{
		repos:    repos,
		findings: findings,
		apps:     apps,
		owners:   owners,
		logger:   log.With("service", "reposync"),
	}
}

// DefaultState bounds data freshness before any fetch. Repositories are
// marked inactive when the capability is enabled and deleted when it is not.
// Findings are closed, never deleted: both the stale-marking of an enabled
// findings capability and the retraction of a disabled one end in closed
// rows that keep their history. Disabling codeowners retracts the owner
// sets.
func (s *RepoSyncService) DefaultState(ctx context.Context, intg *integration.Integration) error {
	if intg.HasAction(integration.ActionRepositories) {
		if err := s.repos.MarkAllInactive(ctx, intg.ID()); err != nil {
			return fmt.Errorf("mark repositories inactive: %w", err)
		}
	} else {
		if err := s.repos.DeleteByIntegration(ctx, intg.ID()); err != nil {
			return fmt.Errorf("delete repositories: %w", err)
		}
	}

	if err := s.findings.CloseAllByIntegration(ctx, intg.ID()); err != nil {
		return fmt.Errorf("close findings: %w", err)
	}

	if !intg.HasAction(integration.ActionCodeowners) {
		if err := s.repos.ClearAllOwners(ctx, intg.ID()); err != nil {
			return fmt.Errorf("clear owners: %w", err)
		}
	}

	return nil
}

// Run paginates the organisation's repositories and, per upserted
// repository, drives the gated findings and codeowners sub-passes.
func (s *RepoSyncService) Run(ctx context.Context, intg *integration.Integration, client APIClient) error {
	page := 1
	for {
		repos, err := client.ListOrgRepos(ctx, intg.Organisation(), page)
		if err != nil {
			return fmt.Errorf("repositories page %d: %w", page, err)
		}
		if len(repos) == 0 {
			break
		}

		for _, r := range repos {
			stored, err := s.repos.Upsert(ctx, mapRepository(r, intg.ID()))
			if err != nil {
				return fmt.Errorf("upsert repository %s: %w", r.Name, err)
			}

			if intg.HasAction(integration.ActionFindings) {
				if err := s.syncFindings(ctx, intg, stored, client); err != nil {
					return err
				}
			}

			if intg.HasAction(integration.ActionCodeowners) {
				if err := s.owners.Sync(ctx, intg, stored, client); err != nil {
					return err
				}
			}
		}

		page++
	}

	return nil
}

// syncFindings runs the dependency, code and secret sub-passes in order.
// The sub-passes are independent: one failing fetch neither stops the next
// sub-pass nor touches its scan flag. A flag flips to true only after a
// full, error-free pagination, and a failed fetch never clears a flag that
// a previous pass set.
func (s *RepoSyncService) syncFindings(ctx context.Context, intg *integration.Integration, repo *gitrepo.Repository, client APIClient) error {
	appIDs, err := s.resolveApps(ctx, repo)
	if err != nil {
		return err
	}

	if s.syncDependencyAlerts(ctx, intg, repo, appIDs, client) {
		repo.EnableSCA()
	}
	if s.syncCodeAlerts(ctx, intg, repo, appIDs, client) {
		repo.EnableSAST()
	}
	if s.syncSecretAlerts(ctx, intg, repo, appIDs, client) {
		repo.EnableSTS()
	}

	if err := s.repos.Update(ctx, repo); err != nil {
		return fmt.Errorf("update repository %s: %w", repo.Name(), err)
	}
	return nil
}

// resolveApps returns the applications claiming the repository, falling
// back to the sentinel unknown application when none does.
func (s *RepoSyncService) resolveApps(ctx context.Context, repo *gitrepo.Repository) ([]shared.ID, error) {
	apps, err := s.apps.ListByRepo(ctx, repo.ID())
	if err != nil {
		return nil, fmt.Errorf("applications for %s: %w", repo.Name(), err)
	}

	if len(apps) == 0 {
		unknown, err := s.apps.GetUnknown(ctx)
		if err != nil {
			return nil, fmt.Errorf("unknown application: %w", err)
		}
		return []shared.ID{unknown.ID()}, nil
	}

	ids := make([]shared.ID, 0, len(apps))
	for _, a := range apps {
		ids = append(ids, a.ID())
	}
	return ids, nil
}

func (s *RepoSyncService) syncDependencyAlerts(ctx context.Context, intg *integration.Integration, repo *gitrepo.Repository, appIDs []shared.ID, client APIClient) bool {
	now := time.Now()
	page := 1
	for {
		alerts, err := client.ListDependencyAlerts(ctx, intg.Organisation(), repo.Name(), page)
		if err != nil {
			s.logFetchFailure(intg, repo, finding.KindDependency, err)
			return false
		}
		if len(alerts) == 0 {
			return true
		}

		for _, a := range alerts {
			f, err := mapDependencyAlert(a, intg.ID(), repo.ID(), now)
			if err != nil {
				s.logRecordFailure(intg, repo, finding.KindDependency, a.Number, err)
				continue
			}
			if err := s.upsertFinding(ctx, intg, f, appIDs); err != nil {
				s.logRecordFailure(intg, repo, finding.KindDependency, a.Number, err)
			}
		}

		page++
	}
}

func (s *RepoSyncService) syncCodeAlerts(ctx context.Context, intg *integration.Integration, repo *gitrepo.Repository, appIDs []shared.ID, client APIClient) bool {
	now := time.Now()
	page := 1
	for {
		alerts, err := client.ListCodeAlerts(ctx, intg.Organisation(), repo.Name(), page)
		if err != nil {
			s.logFetchFailure(intg, repo, finding.KindCode, err)
			return false
		}
		if len(alerts) == 0 {
			return true
		}

		for _, a := range alerts {
			f, err := mapCodeAlert(a, intg.ID(), repo.ID(), now)
			if err != nil {
				s.logRecordFailure(intg, repo, finding.KindCode, a.Number, err)
				continue
			}
			if err := s.upsertFinding(ctx, intg, f, appIDs); err != nil {
				s.logRecordFailure(intg, repo, finding.KindCode, a.Number, err)
			}
		}

		page++
	}
}

func (s *RepoSyncService) syncSecretAlerts(ctx context.Context, intg *integration.Integration, repo *gitrepo.Repository, appIDs []shared.ID, client APIClient) bool {
	now := time.Now()
	page := 1
	for {
		alerts, err := client.ListSecretAlerts(ctx, intg.Organisation(), repo.Name(), page)
		if err != nil {
			s.logFetchFailure(intg, repo, finding.KindSecret, err)
			return false
		}
		if len(alerts) == 0 {
			return true
		}

		for _, a := range alerts {
			f, err := mapSecretAlert(a, intg.ID(), repo.ID(), now)
			if err != nil {
				s.logRecordFailure(intg, repo, finding.KindSecret, a.Number, err)
				continue
			}
			if err := s.upsertFinding(ctx, intg, f, appIDs); err != nil {
				s.logRecordFailure(intg, repo, finding.KindSecret, a.Number, err)
			}
		}

		page++
	}
}

// upsertFinding persists the finding and recomputes its application set.
func (s *RepoSyncService) upsertFinding(ctx context.Context, intg *integration.Integration, f *finding.Finding, appIDs []shared.ID) error {
	stored, err := s.findings.Upsert(ctx, f)
	if err != nil {
		return err
	}
	if err := s.findings.ReplaceApps(ctx, stored.ID(), appIDs); err != nil {
		return err
	}

	metrics.FindingsUpserted.WithLabelValues(intg.Name(), f.Kind().String()).Inc()
	return nil
}

// logFetchFailure records a failed alerts fetch. The sub-pass data already
// committed stays committed; only the scan flag stays unset.
func (s *RepoSyncService) logFetchFailure(intg *integration.Integration, repo *gitrepo.Repository, kind finding.Kind, err error) {
	s.logger.Warn("alerts fetch failed",
		"integration", intg.Name(), "repository", repo.Name(), "kind", kind.String(), "error", err)
}

// logRecordFailure records a single alert that could not be reconciled.
// Unresolvable lifecycle states must be visible, never defaulted.
func (s *RepoSyncService) logRecordFailure(intg *integration.Integration, repo *gitrepo.Repository, kind finding.Kind, number int, err error) {
	if errors.Is(err, finding.ErrUnknownResolution) {
		metrics.ResolutionFailures.WithLabelValues(intg.Name(), kind.String()).Inc()
	}
	s.logger.Error("alert reconciliation failed",
		"integration", intg.Name(), "repository", repo.Name(), "kind", kind.String(), "number", number, "error", err)
}
