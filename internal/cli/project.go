package cli

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ogulcanaydogan/project-deadline-monitor/pkg/model"
	"github.com/ogulcanaydogan/project-deadline-monitor/pkg/source"
)

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Manage projects in the local database",
}

var projectImportCmd = &cobra.Command{
	Use:   "import <file.yaml>",
	Short: "Import or update projects from a YAML portfolio file",
	Args:  cobra.ExactArgs(1),
	RunE:  runProjectImport,
}

var projectExportCmd = &cobra.Command{
	Use:   "export <file.yaml>",
	Short: "Write every stored project to a YAML portfolio file",
	Args:  cobra.ExactArgs(1),
	RunE:  runProjectExport,
}

var projectListCmd = &cobra.Command{
	Use:   "list",
	Short: "List projects with their deadline status",
	RunE:  runProjectList,
}

var projectShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a project, its milestones and recent updates",
	Args:  cobra.ExactArgs(1),
	RunE:  runProjectShow,
}

var projectDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a project and its updates",
	Args:  cobra.ExactArgs(1),
	RunE:  runProjectDelete,
}

func init() {
	rootCmd.AddCommand(projectCmd)
	projectCmd.AddCommand(projectImportCmd)
	projectCmd.AddCommand(projectExportCmd)
	projectCmd.AddCommand(projectListCmd)
	projectCmd.AddCommand(projectShowCmd)
	projectCmd.AddCommand(projectDeleteCmd)

	projectListCmd.Flags().Bool("at-risk", false, "Only show projects at risk")
}

func runProjectImport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read portfolio: %w", err)
	}
	projects, skipped, err := source.Parse(data)
	if err != nil {
		return err
	}

	store, err := initStorage(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	for i := range projects {
		if err := store.SaveProject(cmd.Context(), &projects[i]); err != nil {
			return fmt.Errorf("save project %s: %w", projects[i].ID, err)
		}
	}

	fmt.Printf("Imported %d project(s) from %s\n", len(projects), args[0])
	for _, s := range skipped {
		fmt.Printf("  skipped: %v\n", s)
	}
	return nil
}

func runProjectExport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store, err := initStorage(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	projects, err := store.ListProjects(cmd.Context())
	if err != nil {
		return fmt.Errorf("list projects: %w", err)
	}
	if err := source.WriteFile(args[0], projects); err != nil {
		return err
	}

	fmt.Printf("Exported %d project(s) to %s\n", len(projects), args[0])
	return nil
}

func runProjectList(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	onlyAtRisk, _ := cmd.Flags().GetBool("at-risk")

	store, err := initStorage(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	projects, err := store.ListProjects(cmd.Context())
	if err != nil {
		return fmt.Errorf("list projects: %w", err)
	}

	if len(projects) == 0 {
		fmt.Println("No projects stored. Use 'pdm project import' to add some.")
		return nil
	}

	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	today := model.Today(loc)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "ID\tNAME\tSTATUS\tRISK\tDEADLINE\tDAYS LEFT\tMILESTONES\n")
	for _, p := range projects {
		atRisk := p.IsAtRisk(today)
		if onlyAtRisk && !atRisk {
			continue
		}
		flag := ""
		if atRisk {
			flag = " [AT RISK]"
		}
		days, ok := p.DaysUntilDeadline(today)
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s%s\t%d\n",
			p.ID, p.Name, p.Status, p.Risk,
			model.FormatDate(p.ExpectedEndDate), daysLabel(days, ok), flag,
			len(p.Milestones),
		)
	}
	w.Flush()

	return nil
}

func runProjectShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store, err := initStorage(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	p, err := store.GetProject(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	updates, err := store.ListUpdates(cmd.Context(), p.ID)
	if err != nil {
		return err
	}

	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	today := model.Today(loc)
	days, ok := p.DaysUntilDeadline(today)

	fmt.Printf("Project %s\n", p.ID)
	fmt.Printf("  Name:        %s\n", p.Name)
	if p.Description != "" {
		fmt.Printf("  Description: %s\n", p.Description)
	}
	fmt.Printf("  Unit:        %s\n", p.Unit)
	fmt.Printf("  Responsible: %s\n", strings.Join(p.Responsible, ", "))
	fmt.Printf("  Status:      %s\n", p.Status)
	fmt.Printf("  Risk:        %s\n", p.Risk)
	fmt.Printf("  Start:       %s\n", model.FormatDate(p.StartDate))
	fmt.Printf("  Deadline:    %s (%s days)\n", model.FormatDate(p.ExpectedEndDate), daysLabel(days, ok))
	fmt.Printf("  At risk:     %t\n", p.IsAtRisk(today))
	if len(p.Tags) > 0 {
		fmt.Printf("  Tags:        %s\n", strings.Join(p.Tags, ", "))
	}

	if len(p.Milestones) > 0 {
		fmt.Printf("\nMilestones:\n")
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintf(w, "  TITLE\tEXPECTED\tACTUAL\tSTATUS\tDAYS LEFT\n")
		for _, m := range p.Milestones {
			actual := "-"
			if m.ActualDate != nil {
				actual = model.FormatDate(*m.ActualDate)
			}
			left, ok := m.DaysUntil(today)
			fmt.Fprintf(w, "  %s\t%s\t%s\t%s\t%s\n",
				m.Title, model.FormatDate(m.ExpectedDate), actual, m.Status, daysLabel(left, ok))
		}
		w.Flush()
	}

	if len(updates) > 0 {
		fmt.Printf("\nUpdates:\n")
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintf(w, "  TIMESTAMP\tCATEGORY\tSOURCE\tTITLE\n")
		for _, u := range updates {
			fmt.Fprintf(w, "  %s\t%s\t%s\t%s\n", formatTimestamp(u.Timestamp), u.Category, u.Source, u.Title)
		}
		w.Flush()
	}

	return nil
}

func runProjectDelete(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store, err := initStorage(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.DeleteProject(cmd.Context(), args[0]); err != nil {
		return err
	}
	fmt.Printf("Deleted project %s\n", args[0])
	return nil
}
