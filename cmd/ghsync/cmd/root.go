// Package cmd implements the ghsync command line interface.
package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

var version string

var rootCmd = &cobra.Command{
	Use:   "ghsync",
	Short: "GitHub security-state synchronisation engine",
	Long: `ghsync keeps a normalized inventory of GitHub organisations in sync:
members, teams, repositories, their CODEOWNERS and the security findings
reported by dependency, code and secret scanning.

Integrations are GitHub App installations; each sync pass reconciles the
inventory against what the API reports, marking or retracting anything no
longer observed.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the CLI version from build flags.
func SetVersion(v string) {
	version = v
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("ghsync %s (%s/%s, %s)\n", version, runtime.GOOS, runtime.GOARCH, runtime.Version())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(integrationCmd)
}
