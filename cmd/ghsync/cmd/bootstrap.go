package cmd

import (
	"fmt"

	"github.com/secinv/ghsync/internal/app"
	"github.com/secinv/ghsync/internal/config"
	"github.com/secinv/ghsync/internal/infra/github"
	"github.com/secinv/ghsync/internal/infra/postgres"
	"github.com/secinv/ghsync/pkg/crypto"
	"github.com/secinv/ghsync/pkg/logger"
)

// runtimeDeps bundles what every command needs after bootstrap.
type runtimeDeps struct {
	cfg       *config.Config
	log       *logger.Logger
	db        *postgres.DB
	encryptor crypto.Encryptor
}

// integrations returns the integration repository for commands that manage
// integrations directly.
func (d *runtimeDeps) integrations() *postgres.IntegrationRepository {
	return postgres.NewIntegrationRepository(d.db)
}

// bootstrap loads configuration, connects the database and prepares the
// encryptor. Callers own closing the database.
func bootstrap() (*runtimeDeps, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})

	db, err := postgres.New(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	encryptor, err := newEncryptor(&cfg.Encryption)
	if err != nil {
		db.Close()
		return nil, err
	}

	return &runtimeDeps{cfg: cfg, log: log, db: db, encryptor: encryptor}, nil
}

// newEncryptor builds the cipher from the configured key, accepting hex or
// base64 encoding. An empty key means plaintext storage, for development
// only; config validation rejects that in production.
func newEncryptor(cfg *config.EncryptionConfig) (crypto.Encryptor, error) {
	if !cfg.IsConfigured() {
		return crypto.NewNoOpEncryptor(), nil
	}

	if c, err := crypto.NewCipherFromHex(cfg.Key); err == nil {
		return c, nil
	}
	c, err := crypto.NewCipherFromBase64(cfg.Key)
	if err != nil {
		return nil, fmt.Errorf("invalid ENCRYPTION_KEY: %w", err)
	}
	return c, nil
}

// buildOrchestrator wires the sync services on top of the bootstrapped
// dependencies.
func buildOrchestrator(deps *runtimeDeps) *app.Orchestrator {
	integrations := postgres.NewIntegrationRepository(deps.db)
	users := postgres.NewUserRepository(deps.db)
	teams := postgres.NewTeamRepository(deps.db)
	repos := postgres.NewGitRepoRepository(deps.db)
	findings := postgres.NewFindingRepository(deps.db)
	apps := postgres.NewApplicationRepository(deps.db)

	orgSync := app.NewOrganisationSyncService(users, teams, deps.log)
	owners := app.NewCodeownersResolver(users, teams, repos, deps.log)
	repoSync := app.NewRepoSyncService(repos, findings, apps, owners, deps.log)

	ghCfg := deps.cfg.GitHub
	minter := github.NewAppAuthenticator(ghCfg.BaseURL, ghCfg.RequestTimeout)
	factory := func(token string) app.APIClient {
		return github.NewClient(github.Config{
			BaseURL:           ghCfg.BaseURL,
			GraphQLURL:        ghCfg.GraphQLURL,
			Token:             token,
			PerPage:           ghCfg.PerPage,
			Timeout:           ghCfg.RequestTimeout,
			RequestsPerSecond: ghCfg.RequestsPerSecond,
		})
	}

	return app.NewOrchestrator(
		integrations, orgSync, repoSync, minter, factory,
		deps.encryptor, deps.cfg.Sync.Workers, deps.log,
	)
}
