package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/ogulcanaydogan/project-deadline-monitor/pkg/alerts"
	"github.com/ogulcanaydogan/project-deadline-monitor/pkg/model"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Evaluate the portfolio and print the deadline report",
	Long: `Evaluate every project against the configured thresholds and print the
resulting report. With --dispatch the alerts are also sent to the configured
notifiers, exactly as the daily scheduler would.`,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.Flags().String("as-of", "", "Evaluate as of this date (YYYY-MM-DD, default today)")
	checkCmd.Flags().Bool("dispatch", false, "Send alerts to the configured notifiers")
	checkCmd.Flags().Bool("json", false, "Print the report as JSON")
}

func runCheck(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	asOf, _ := cmd.Flags().GetString("as-of")
	dispatch, _ := cmd.Flags().GetBool("dispatch")
	asJSON, _ := cmd.Flags().GetBool("json")

	if dispatch && asOf != "" {
		return errors.New("--dispatch always evaluates today and cannot be combined with --as-of")
	}

	logger := newLogger(cfg)
	mon, closeSource, err := initMonitor(cfg, logger, nil)
	if err != nil {
		return err
	}
	defer closeSource()

	if dispatch {
		result, err := mon.RunOnce(cmd.Context())
		if err != nil {
			return fmt.Errorf("run check: %w", err)
		}
		if asJSON {
			return writeJSON(os.Stdout, result)
		}
		if result.Skipped {
			fmt.Println("No projects loaded.")
			return nil
		}
		printReport(os.Stdout, result.Report)
		printDispatch(os.Stdout, result.Dispatch)
		return nil
	}

	today := mon.Today()
	if asOf != "" {
		if today, err = model.ParseDate(asOf); err != nil {
			return err
		}
	}

	report, _, err := mon.Evaluate(cmd.Context(), today)
	if err != nil {
		return fmt.Errorf("evaluate portfolio: %w", err)
	}
	if asJSON {
		return writeJSON(os.Stdout, report)
	}
	printReport(os.Stdout, report)
	return nil
}

func printReport(out io.Writer, report *model.Report) {
	fmt.Fprintf(out, "=== Deadline Report (%s) ===\n", report.GeneratedAt)
	fmt.Fprintf(out, "Projects:         %d\n", report.TotalProjects)
	fmt.Fprintf(out, "Projects at risk: %d\n", report.ProjectsAtRisk)
	fmt.Fprintf(out, "Alerts:           %d\n", len(report.AllAlerts))

	if len(report.AllAlerts) == 0 {
		return
	}

	counts := report.CountBySeverity()
	for _, s := range model.Severities() {
		if len(report.AlertsBySeverity[s]) == 0 {
			continue
		}
		fmt.Fprintf(out, "\n%s (%d):\n", s, counts[s])
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintf(w, "  TYPE\tTARGET\tDAYS\tMESSAGE\n")
		for _, a := range report.AlertsBySeverity[s] {
			fmt.Fprintf(w, "  %s\t%s\t%d\t%s\n", a.Type, a.Target, a.Days, a.Message)
		}
		w.Flush()
	}
}

func printDispatch(out io.Writer, result alerts.DispatchResult) {
	fmt.Fprintf(out, "\nDispatch: %d sent, %d failed\n", result.Sent, result.Failed)
	for _, e := range result.Errors {
		fmt.Fprintf(out, "  error: %s\n", e)
	}
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// daysLabel renders a remaining day count for tables.
func daysLabel(days int, ok bool) string {
	switch {
	case !ok:
		return "-"
	case days < 0:
		return fmt.Sprintf("%d late", -days)
	default:
		return fmt.Sprintf("%d", days)
	}
}

func formatTimestamp(t time.Time) string {
	return t.Local().Format("2006-01-02 15:04")
}
