package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"plancore/pkg/domain"
)

var (
	createCategory string
	createStatus   string
	createBudget   float64
	createCurrency string
	createLocation string
)

var projectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "List and manage projects",
}

var projectsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List projects owned by the current user",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		backend, err := openBackend()
		if err != nil {
			return err
		}
		defer backend.Close()
		store, err := openSelection(cmd, backend)
		if err != nil {
			return err
		}
		selected := store.SelectedID()
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "\tID\tNAME\tCATEGORY\tSTATUS\tPROGRESS\tTASKS")
		for _, p := range store.Projects() {
			marker := ""
			if p.ID == selected {
				marker = "*"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d%%\t%d\n",
				marker, p.ID, p.Name, p.Category, p.Status, p.Progress, p.TaskCount)
		}
		return w.Flush()
	},
}

var projectsCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a project and select it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		backend, err := openBackend()
		if err != nil {
			return err
		}
		defer backend.Close()
		store, err := openSelection(cmd, backend)
		if err != nil {
			return err
		}
		p := domain.Project{
			Name:         args[0],
			Category:     domain.ProjectCategory(createCategory),
			Status:       domain.ProjectStatus(createStatus),
			CurrencyCode: createCurrency,
		}
		if createBudget > 0 {
			p.Budget = &createBudget
		}
		if createLocation != "" {
			p.Location = &createLocation
		}
		created, err := store.Create(cmd.Context(), p)
		if err != nil {
			return err
		}
		fmt.Printf("created %s (%s)\n", created.Name, created.ID)
		return nil
	},
}

var projectsSelectCmd = &cobra.Command{
	Use:   "select <id>",
	Short: "Set the active project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		backend, err := openBackend()
		if err != nil {
			return err
		}
		defer backend.Close()
		store, err := openSelection(cmd, backend)
		if err != nil {
			return err
		}
		p, ok := store.ProjectByID(args[0])
		if !ok {
			return fmt.Errorf("project %q not found", args[0])
		}
		store.Select(p.ID)
		fmt.Printf("selected %s (%s)\n", p.Name, p.ID)
		return nil
	},
}

var projectsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		backend, err := openBackend()
		if err != nil {
			return err
		}
		defer backend.Close()
		store, err := openSelection(cmd, backend)
		if err != nil {
			return err
		}
		if err := store.Delete(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Printf("deleted %s\n", args[0])
		if next := store.SelectedID(); next != "" {
			fmt.Printf("selection moved to %s\n", next)
		}
		return nil
	},
}

func init() {
	projectsCreateCmd.Flags().StringVar(&createCategory, "category", string(domain.CategoryResidential), "Project category")
	projectsCreateCmd.Flags().StringVar(&createStatus, "status", string(domain.StatusPlanning), "Project status")
	projectsCreateCmd.Flags().Float64Var(&createBudget, "budget", 0, "Project budget")
	projectsCreateCmd.Flags().StringVar(&createCurrency, "currency", "USD", "Budget currency code")
	projectsCreateCmd.Flags().StringVar(&createLocation, "location", "", "Project location")

	projectsCmd.AddCommand(projectsListCmd, projectsCreateCmd, projectsSelectCmd, projectsDeleteCmd)
	rootCmd.AddCommand(projectsCmd)
}
