package cli

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"plancore/internal/charter"
)

var charterCmd = &cobra.Command{
	Use:   "charter",
	Short: "View and edit the project charter",
}

var charterShowCmd = &cobra.Command{
	Use:   "show [project-id]",
	Short: "Show charter sections for the selected project",
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
		ch := charter.NewStore(backend, charter.WithMetrics(storeMetrics()))
		if err := ch.Load(cmd.Context(), projectID); err != nil {
			return fmt.Errorf("load charter: %w", err)
		}
		sections := ch.Sections()
		fmt.Printf("charter: %d/%d sections complete\n\n", ch.CompletedCount(), len(sections))
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "POS\tID\tTITLE\tDONE\tCONTENT")
		for _, s := range sections {
			done := " "
			if s.Completed {
				done = "x"
			}
			content := strings.ReplaceAll(s.Content, "\n", " ")
			if len(content) > 60 {
				content = content[:57] + "..."
			}
			fmt.Fprintf(w, "%d\t%s\t%s\t[%s]\t%s\n", s.Position, s.ID, s.Title, done, content)
		}
		return w.Flush()
	},
}

var charterCompleteCmd = &cobra.Command{
	Use:   "complete <section-id>",
	Short: "Mark a charter section complete",
	Args:  cobra.ExactArgs(1),
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
		projectID, err := resolveProject(sel, nil)
		if err != nil {
			return err
		}
		ch := charter.NewStore(backend, charter.WithMetrics(storeMetrics()))
		if err := ch.Load(cmd.Context(), projectID); err != nil {
			return fmt.Errorf("load charter: %w", err)
		}
		if err := ch.SetCompleted(cmd.Context(), args[0], true); err != nil {
			return err
		}
		fmt.Printf("section %s marked complete\n", args[0])
		return nil
	},
}

func init() {
	charterCmd.AddCommand(charterShowCmd, charterCompleteCmd)
	rootCmd.AddCommand(charterCmd)
}
