package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"plancore/internal/risk"
	"plancore/pkg/domain"
)

var (
	riskCategory    string
	riskProbability int
	riskImpact      int
	riskMitigation  string
	riskHighOnly    bool
)

var risksCmd = &cobra.Command{
	Use:   "risks",
	Short: "View and edit the project risk register",
}

var risksListCmd = &cobra.Command{
	Use:   "list [project-id]",
	Short: "List risk entries ordered by score",
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
		rs := risk.NewStore(backend, risk.WithMetrics(storeMetrics()))
		if err := rs.Load(cmd.Context(), projectID); err != nil {
			return fmt.Errorf("load risks: %w", err)
		}
		entries := rs.Records()
		if riskHighOnly {
			entries = rs.HighPriority(0)
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "SCORE\tID\tTITLE\tCATEGORY\tP\tI\tSTATUS")
		for _, r := range entries {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d\t%d\t%s\n",
				r.Score, r.ID, r.Title, r.Category, r.Probability, r.Impact, r.Status)
		}
		return w.Flush()
	},
}

var risksAddCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Add a risk entry to the selected project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if riskProbability < 1 || riskProbability > 5 || riskImpact < 1 || riskImpact > 5 {
			return fmt.Errorf("probability and impact must be between 1 and 5")
		}
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
		rs := risk.NewStore(backend, risk.WithMetrics(storeMetrics()))
		if err := rs.Load(cmd.Context(), projectID); err != nil {
			return fmt.Errorf("load risks: %w", err)
		}
		entry, err := rs.Add(cmd.Context(), domain.RiskEntry{
			ProjectID:   projectID,
			Title:       args[0],
			Category:    domain.RiskCategory(riskCategory),
			Probability: riskProbability,
			Impact:      riskImpact,
			Mitigation:  riskMitigation,
		})
		if err != nil {
			return err
		}
		fmt.Printf("added %s (score %d)\n", entry.ID, entry.Score)
		return nil
	},
}

func init() {
	risksAddCmd.Flags().StringVar(&riskCategory, "category", string(domain.RiskTechnical), "Risk category")
	risksAddCmd.Flags().IntVar(&riskProbability, "probability", 3, "Probability 1-5")
	risksAddCmd.Flags().IntVar(&riskImpact, "impact", 3, "Impact 1-5")
	risksAddCmd.Flags().StringVar(&riskMitigation, "mitigation", "", "Mitigation plan")
	risksListCmd.Flags().BoolVar(&riskHighOnly, "high", false, "Only show high-priority risks")

	risksCmd.AddCommand(risksListCmd, risksAddCmd)
	rootCmd.AddCommand(risksCmd)
}
