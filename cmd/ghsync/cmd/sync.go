package cmd

import (
	"github.com/spf13/cobra"
)

var syncIntegrationName string

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run one sync pass and exit",
	Long: `Runs a full sync pass for every integration, or for a single one
when --integration is given, then exits. Useful for cron-external runs and
for verifying a freshly imported integration.`,
	RunE: runSync,
}

func init() {
	syncCmd.Flags().StringVarP(&syncIntegrationName, "integration", "i", "", "Sync only the named integration")
}

func runSync(cmd *cobra.Command, args []string) error {
	deps, err := bootstrap()
	if err != nil {
		return err
	}
	defer deps.db.Close()

	orchestrator := buildOrchestrator(deps)
	ctx := cmd.Context()

	if syncIntegrationName != "" {
		intg, err := deps.integrations().GetByName(ctx, syncIntegrationName)
		if err != nil {
			return err
		}
		return orchestrator.Sync(ctx, intg)
	}

	return orchestrator.SyncAll(ctx)
}
