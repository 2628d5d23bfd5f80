package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/secinv/ghsync/internal/app"
	"github.com/secinv/ghsync/internal/infra/ops"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the scheduler and the ops listener",
	Long: `Runs sync passes on the configured cron schedule and serves the
health and metrics endpoints until interrupted.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	deps, err := bootstrap()
	if err != nil {
		return err
	}
	defer deps.db.Close()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	orchestrator := buildOrchestrator(deps)
	scheduler := app.NewScheduler(orchestrator, deps.cfg.Sync.Schedule, deps.log)
	if err := scheduler.Start(ctx); err != nil {
		return err
	}

	opsServer := ops.NewServer(deps.cfg.Ops.Addr(), deps.db.DB, deps.log)
	errCh := make(chan error, 1)
	go func() {
		errCh <- opsServer.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		deps.log.Info("shutting down", "signal", sig.String())
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	cancel()
	scheduler.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	return opsServer.Shutdown(shutdownCtx)
}
