package cmd

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/secinv/ghsync/pkg/domain/integration"
	"github.com/secinv/ghsync/pkg/domain/shared"
)

var integrationCmd = &cobra.Command{
	Use:   "integration",
	Short: "Manage GitHub App integrations",
}

// integrationManifest is the YAML shape accepted by "integration import".
type integrationManifest struct {
	Name           string   `yaml:"name" validate:"required"`
	Description    string   `yaml:"description"`
	Organisation   string   `yaml:"organisation" validate:"required"`
	AppID          string   `yaml:"app_id" validate:"required"`
	InstallationID string   `yaml:"installation_id" validate:"required"`
	PrivateKeyFile string   `yaml:"private_key_file" validate:"required"`
	Enabled        *bool    `yaml:"enabled"`
	Actions        []string `yaml:"actions" validate:"required,min=1,dive,oneof=users repositories codeowners findings"`
}

var integrationImportFile string

var integrationImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Create or update an integration from a manifest",
	Long: `Reads a YAML manifest describing a GitHub App installation, encrypts
the referenced private key and stores the integration. An existing
integration with the same name is updated in place.

Example manifest:

  name: acme
  organisation: acme-corp
  app_id: "12345"
  installation_id: "67890"
  private_key_file: /secrets/acme.pem
  actions: [users, repositories, codeowners, findings]`,
	RunE: runIntegrationImport,
}

func runIntegrationImport(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(integrationImportFile)
	if err != nil {
		return fmt.Errorf("read manifest: %w", err)
	}

	var manifest integrationManifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return fmt.Errorf("parse manifest: %w", err)
	}
	if err := validator.New().Struct(&manifest); err != nil {
		return fmt.Errorf("invalid manifest: %w", err)
	}

	privateKey, err := os.ReadFile(manifest.PrivateKeyFile)
	if err != nil {
		return fmt.Errorf("read private key: %w", err)
	}

	deps, err := bootstrap()
	if err != nil {
		return err
	}
	defer deps.db.Close()

	encrypted, err := deps.encryptor.EncryptString(string(privateKey))
	if err != nil {
		return fmt.Errorf("encrypt private key: %w", err)
	}

	actions := make([]integration.Action, 0, len(manifest.Actions))
	for _, a := range manifest.Actions {
		actions = append(actions, integration.Action(a))
	}

	repo := deps.integrations()
	ctx := cmd.Context()

	existing, err := repo.GetByName(ctx, manifest.Name)
	switch {
	case err == nil:
		existing.SetDescription(manifest.Description)
		existing.SetInstallation(manifest.Organisation, manifest.AppID, manifest.InstallationID)
		existing.SetCredentials(encrypted)
		existing.SetActions(actions)
		if manifest.Enabled != nil && !*manifest.Enabled {
			existing.Disable()
		} else {
			existing.Enable()
		}
		if err := repo.Update(ctx, existing); err != nil {
			return err
		}
		fmt.Printf("Integration %q updated\n", manifest.Name)
		return nil

	case shared.IsNotFound(err):
		intg := integration.NewIntegration(
			shared.NewID(), manifest.Name, manifest.Organisation,
			manifest.AppID, manifest.InstallationID,
		)
		intg.SetDescription(manifest.Description)
		intg.SetCredentials(encrypted)
		intg.SetActions(actions)
		if manifest.Enabled != nil && !*manifest.Enabled {
			intg.Disable()
		}
		if err := repo.Create(ctx, intg); err != nil {
			return err
		}
		fmt.Printf("Integration %q created\n", manifest.Name)
		return nil

	default:
		return err
	}
}

var integrationListCmd = &cobra.Command{
	Use:   "list",
	Short: "List integrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := bootstrap()
		if err != nil {
			return err
		}
		defer deps.db.Close()

		list, err := deps.integrations().List(cmd.Context())
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tORGANISATION\tENABLED\tACTIONS\tLAST SYNC\tERROR")
		for _, i := range list {
			lastSync := "never"
			if i.LastSyncAt() != nil {
				lastSync = i.LastSyncAt().Format("2006-01-02 15:04")
			}
			actions := make([]string, 0, len(i.Actions()))
			for _, a := range i.Actions() {
				actions = append(actions, a.String())
			}
			fmt.Fprintf(w, "%s\t%s\t%t\t%s\t%s\t%s\n",
				i.Name(), i.Organisation(), i.Enabled(),
				strings.Join(actions, ","), lastSync, i.SyncError())
		}
		return w.Flush()
	},
}

var integrationDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete an integration and everything it synced",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := bootstrap()
		if err != nil {
			return err
		}
		defer deps.db.Close()

		repo := deps.integrations()
		intg, err := repo.GetByName(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if err := repo.Delete(cmd.Context(), intg.ID()); err != nil {
			return err
		}
		fmt.Printf("Integration %q deleted\n", args[0])
		return nil
	},
}

var integrationEnableCmd = &cobra.Command{
	Use:   "enable <name>",
	Short: "Resume syncing an integration",
	Args:  cobra.ExactArgs(1),
	RunE:  setEnabled(true),
}

var integrationDisableCmd = &cobra.Command{
	Use:   "disable <name>",
	Short: "Pause an integration; default-state passes keep running",
	Args:  cobra.ExactArgs(1),
	RunE:  setEnabled(false),
}

func setEnabled(enabled bool) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		deps, err := bootstrap()
		if err != nil {
			return err
		}
		defer deps.db.Close()

		repo := deps.integrations()
		intg, err := repo.GetByName(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if enabled {
			intg.Enable()
		} else {
			intg.Disable()
		}
		if err := repo.Update(cmd.Context(), intg); err != nil {
			return err
		}
		fmt.Printf("Integration %q enabled=%t\n", args[0], enabled)
		return nil
	}
}

func init() {
	integrationImportCmd.Flags().StringVarP(&integrationImportFile, "file", "f", "", "Path to the manifest file")
	_ = integrationImportCmd.MarkFlagRequired("file")

	integrationCmd.AddCommand(integrationImportCmd)
	integrationCmd.AddCommand(integrationListCmd)
	integrationCmd.AddCommand(integrationDeleteCmd)
	integrationCmd.AddCommand(integrationEnableCmd)
	integrationCmd.AddCommand(integrationDisableCmd)
}
