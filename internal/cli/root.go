// Package cli implements the planctl command-line interface.
package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"plancore/internal/config"
	"plancore/internal/observe"
	"plancore/internal/prefs"
	"plancore/internal/recordsvc"
	"plancore/internal/selection"
	"plancore/internal/session"
)

var (
	configPathFlag string
	userFlag       string
	metricsFlag    bool

	cfg        config.Config
	metricsRec *observe.ExpvarRecorder
)

var rootCmd = &cobra.Command{
	Use:   "planctl",
	Short: "Manage projects, charters, and risk registers",
	Long: `planctl is the command-line companion to the project dashboard.
It operates on the same record store: projects, charter sections, and
risk entries, scoped to the authenticated user.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPathFlag)
		if err != nil {
			return err
		}
		if userFlag != "" {
			cfg.User = userFlag
		}
		if metricsFlag {
			metricsRec = observe.NewExpvarRecorder("")
		}
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if metricsRec == nil {
			return nil
		}
		report, err := json.MarshalIndent(metricsRec.Snapshot(), "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "store metrics:\n%s\n", report)
		return nil
	},
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPathFlag, "config", "", "Path to config file")
	rootCmd.PersistentFlags().StringVar(&userFlag, "user", "", "Identity to operate as (overrides config)")
	rootCmd.PersistentFlags().BoolVar(&metricsFlag, "metrics", false, "Report store operation metrics after the command")
}

// storeMetrics returns the recorder the --metrics flag enabled, or a no-op.
func storeMetrics() observe.MetricsRecorder {
	if metricsRec == nil {
		return observe.NopMetrics{}
	}
	return metricsRec
}

// openBackend opens the configured record backend. Callers must Close it.
func openBackend() (recordsvc.Backend, error) {
	backend, err := config.OpenBackend(cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	return backend, nil
}

// openSelection builds the selection store over backend and loads the
// project list so commands see current data.
func openSelection(cmd *cobra.Command, backend recordsvc.Backend) (*selection.Store, error) {
	store := selection.New(backend, session.Static(cfg.User),
		selection.WithStateFile(prefs.NewFile(cfg.StatePath)),
		selection.WithMetrics(storeMetrics()),
	)
	if err := store.LoadProjects(cmd.Context()); err != nil {
		return nil, fmt.Errorf("load projects: %w", err)
	}
	return store, nil
}

// resolveProject returns the project named by args[0] when given, else the
// persisted selection.
func resolveProject(store *selection.Store, args []string) (string, error) {
	if len(args) > 0 {
		if _, ok := store.ProjectByID(args[0]); !ok {
			return "", fmt.Errorf("project %q not found", args[0])
		}
		return args[0], nil
	}
	id := store.SelectedID()
	if id == "" {
		return "", fmt.Errorf("no project selected; run 'planctl projects select <id>'")
	}
	return id, nil
}
