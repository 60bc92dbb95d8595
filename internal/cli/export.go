package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"plancore/internal/charter"
	"plancore/internal/config"
	"plancore/internal/export"
	"plancore/internal/risk"
)

var exportCmd = &cobra.Command{
	Use:   "export [project-id]",
	Short: "Export a project snapshot to blob storage",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		backend, err := openBackend()
		if err != nil {
			return err
		}
		defer backend.Close()
		sel, err := openSelection(cmd, backend)
		if err != nil {
			return err
		}
		projectID, err := resolveProject(sel, args)
		if err != nil {
			return err
		}
		project, ok := sel.ProjectByID(projectID)
		if !ok {
			return fmt.Errorf("project %q not found", projectID)
		}
		ch := charter.NewStore(backend, charter.WithMetrics(storeMetrics()))
		if err := ch.Load(cmd.Context(), projectID); err != nil {
			return fmt.Errorf("load charter: %w", err)
		}
		rs := risk.NewStore(backend, risk.WithMetrics(storeMetrics()))
		if err := rs.Load(cmd.Context(), projectID); err != nil {
			return fmt.Errorf("load risks: %w", err)
		}
		store, err := config.OpenBlob(cmd.Context(), cfg.Blob)
		if err != nil {
			return fmt.Errorf("open blob storage: %w", err)
		}
		info, err := export.NewExporter(store).Export(cmd.Context(), project, ch.Sections(), rs.Records())
		if err != nil {
			return err
		}
		fmt.Printf("exported %s (%d bytes)\n", info.Key, info.Size)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
}
