package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/secinv/ghsync/internal/metrics"
	"github.com/secinv/ghsync/pkg/crypto"
	"github.com/secinv/ghsync/pkg/domain/integration"
	"github.com/secinv/ghsync/pkg/logger"
)

// Sync phases, in execution order.
const (
	phaseUsers        = "users"
	phaseRepositories = "repositories"
)

// Orchestrator runs full sync passes across all configured integrations.
// Integrations sync independently: one failing never stops another, and a
// pass for an integration already in flight is skipped, not queued.
type Orchestrator struct {
	integrations integration.Repository
	orgSync      *OrganisationSyncService
	repoSync     *RepoSyncService
	minter       TokenMinter
	newClient    ClientFactory
	encryptor    crypto.Encryptor
	workers      int
	logger       *logger.Logger

	mu       sync.Mutex
	inflight map[integration.ID]struct{}
}

// NewOrchestrator creates a new Orchestrator.
func NewOrchestrator(
	integrations integration.Repository,
	orgSync *OrganisationSyncService,
	repoSync *RepoSyncService,
	minter TokenMinter,
	newClient ClientFactory,
	encryptor crypto.Encryptor,
	workers int,
	log *logger.Logger,
) *Orchestrator {
	if workers < 1 {
		workers = 1
	}
	return &Orchestrator{
		integrations: integrations,
		orgSync:      orgSync,
		repoSync:     repoSync,
		minter:       minter,
		newClient:    newClient,
		encryptor:    encryptor,
		workers:      workers,
		logger:       log.With("service", "orchestrator"),
		inflight:     make(map[integration.ID]struct{}),
	}
}

// SyncAll syncs every integration, bounded by the worker limit. Sibling
// integrations are not cancelled when one fails; the first error is
// reported after all have finished.
func (o *Orchestrator) SyncAll(ctx context.Context) error {
	list, err := o.integrations.List(ctx)
	if err != nil {
		return fmt.Errorf("list integrations: %w", err)
	}

	var g errgroup.Group
	g.SetLimit(o.workers)
	for _, intg := range list {
		intg := intg
		g.Go(func() error {
			return o.Sync(ctx, intg)
		})
	}
	return g.Wait()
}

// SyncByID syncs a single integration by ID.
func (o *Orchestrator) SyncByID(ctx context.Context, id integration.ID) error {
	intg, err := o.integrations.GetByID(ctx, id)
	if err != nil {
		return err
	}
	return o.Sync(ctx, intg)
}

// Sync runs one full pass for one integration: default state first, then
// the gated fetch phases. The default-state pass runs for paused
// integrations too, so retracted capabilities converge while paused.
func (o *Orchestrator) Sync(ctx context.Context, intg *integration.Integration) error {
	if !o.acquire(intg.ID()) {
		o.logger.Warn("sync already in flight, skipping", "integration", intg.Name())
		return nil
	}
	defer o.release(intg.ID())

	log := o.logger.With("integration", intg.Name())

	if err := o.orgSync.DefaultState(ctx, intg); err != nil {
		return o.recordFailure(ctx, intg, err)
	}
	if err := o.repoSync.DefaultState(ctx, intg); err != nil {
		return o.recordFailure(ctx, intg, err)
	}

	if !intg.Enabled() {
		log.Info("integration paused, default state applied only")
		return nil
	}

	client, err := o.buildClient(ctx, intg)
	if err != nil {
		return o.recordFailure(ctx, intg, err)
	}

	// Phases are independent: a users-phase failure is recorded but does
	// not suppress the repositories phase.
	var phaseErrs []error

	if intg.HasAction(integration.ActionUsers) {
		if err := o.runPhase(ctx, intg, phaseUsers, client, o.orgSync.Run); err != nil {
			phaseErrs = append(phaseErrs, err)
		}
	}

	// The findings and codeowners sub-passes run inside the repositories
	// phase, gated by the service itself. Without the repositories action
	// there is nothing to attach them to.
	if intg.HasAction(integration.ActionRepositories) {
		if err := o.runPhase(ctx, intg, phaseRepositories, client, o.repoSync.Run); err != nil {
			phaseErrs = append(phaseErrs, err)
		}
	}

	if len(phaseErrs) > 0 {
		return o.recordFailure(ctx, intg, errors.Join(phaseErrs...))
	}

	intg.RecordSync("")
	if err := o.integrations.Update(ctx, intg); err != nil {
		return fmt.Errorf("record sync: %w", err)
	}

	log.Info("sync completed")
	return nil
}

type phaseFunc func(ctx context.Context, intg *integration.Integration, client APIClient) error

func (o *Orchestrator) runPhase(ctx context.Context, intg *integration.Integration, phase string, client APIClient, fn phaseFunc) error {
	start := time.Now()
	err := fn(ctx, intg, client)
	metrics.SyncDuration.WithLabelValues(intg.Name(), phase).Observe(time.Since(start).Seconds())

	status := "success"
	if err != nil {
		status = "failure"
	}
	metrics.SyncRunsTotal.WithLabelValues(intg.Name(), phase, status).Inc()

	if err != nil {
		return fmt.Errorf("%s phase: %w", phase, err)
	}
	return nil
}

// buildClient decrypts the integration's private key, mints an
// installation token and binds a client to it for the rest of the pass.
func (o *Orchestrator) buildClient(ctx context.Context, intg *integration.Integration) (APIClient, error) {
	privateKey, err := o.encryptor.DecryptString(intg.CredentialsEncrypted())
	if err != nil {
		return nil, fmt.Errorf("decrypt credentials: %w", err)
	}

	token, err := o.minter.MintToken(ctx, intg.AppID(), privateKey, intg.InstallationID())
	if err != nil {
		return nil, fmt.Errorf("mint token: %w", err)
	}

	return o.newClient(token), nil
}

// recordFailure stamps the failure on the integration so operators can see
// it without reading logs, then returns the original error.
func (o *Orchestrator) recordFailure(ctx context.Context, intg *integration.Integration, cause error) error {
	o.logger.WithError(cause).Error("sync failed", "integration", intg.Name())

	intg.RecordSync(cause.Error())
	if err := o.integrations.Update(ctx, intg); err != nil {
		o.logger.WithError(err).Error("record sync failure", "integration", intg.Name())
	}
	return cause
}

func (o *Orchestrator) acquire(id integration.ID) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, ok := o.inflight[id]; ok {
		return false
	}
	o.inflight[id] = struct{}{}
	return true
}

func (o *Orchestrator) release(id integration.ID) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.inflight, id)
}
