package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ogulcanaydogan/project-deadline-monitor/pkg/model"
)

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Record and list project updates",
}

var updateAddCmd = &cobra.Command{
	Use:   "add <project-id>",
	Short: "Record an update for a project",
	Long:  `Record a dated note about a project, such as a decision, a risk, or a meeting outcome.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runUpdateAdd,
}

var updateListCmd = &cobra.Command{
	Use:   "list <project-id>",
	Short: "List updates for a project, newest first",
	Args:  cobra.ExactArgs(1),
	RunE:  runUpdateList,
}

func init() {
	rootCmd.AddCommand(updateCmd)
	updateCmd.AddCommand(updateAddCmd)
	updateCmd.AddCommand(updateListCmd)

	updateAddCmd.Flags().StringP("title", "t", "", "Update title")
	updateAddCmd.Flags().StringP("description", "d", "", "Longer description")
	updateAddCmd.Flags().StringP("category", "c", "", "Category (default general)")
	updateAddCmd.Flags().StringP("source", "s", "", "Where the update came from (default manual)")
	updateAddCmd.Flags().String("url", "", "Link to a related document")
	_ = updateAddCmd.MarkFlagRequired("title")
}

func runUpdateAdd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	title, _ := cmd.Flags().GetString("title")
	description, _ := cmd.Flags().GetString("description")
	category, _ := cmd.Flags().GetString("category")
	src, _ := cmd.Flags().GetString("source")
	url, _ := cmd.Flags().GetString("url")

	store, err := initStorage(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	update := &model.ProjectUpdate{
		ProjectID:   args[0],
		Title:       title,
		Description: description,
		Category:    category,
		Source:      src,
		URL:         url,
	}
	if err := store.AddUpdate(cmd.Context(), update); err != nil {
		return fmt.Errorf("add update: %w", err)
	}

	fmt.Printf("Recorded update:\n")
	fmt.Printf("  ID:        %s\n", update.ID)
	fmt.Printf("  Project:   %s\n", update.ProjectID)
	fmt.Printf("  Title:     %s\n", update.Title)
	fmt.Printf("  Category:  %s\n", update.Category)
	fmt.Printf("  Source:    %s\n", update.Source)
	fmt.Printf("  Timestamp: %s\n", formatTimestamp(update.Timestamp))

	return nil
}

func runUpdateList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store, err := initStorage(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	updates, err := store.ListUpdates(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("list updates: %w", err)
	}

	if len(updates) == 0 {
		fmt.Printf("No updates recorded for %s. Use 'pdm update add' to record one.\n", args[0])
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "TIMESTAMP\tCATEGORY\tSOURCE\tTITLE\tURL\n")
	for _, u := range updates {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", formatTimestamp(u.Timestamp), u.Category, u.Source, u.Title, u.URL)
	}
	w.Flush()

	return nil
}
