package app

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/blackwell-systems/sensorkit/internal/analyzer"
	"github.com/blackwell-systems/sensorkit/internal/output"
	"github.com/blackwell-systems/sensorkit/internal/sensordata"
)

var cleanDueDates string

var cleanCmd = &cobra.Command{
	Use:   "clean <input> <output>",
	Short: "Normalize assignment names in a raw export",
	Long: `Add a cleaned_assignment column holding "Project N" for every event. The
name is read from the raw assignment column when it carries a project
number, otherwise guessed from the event time and the due dates: an event
belongs to the first assignment whose deadline is less than a week behind
it. Test terminations reporting several tests are split into one row per
test. All original columns are kept.`,
	Args: cobra.ExactArgs(2),
	RunE: runClean,
}

func init() {
	cleanCmd.Flags().StringVar(&cleanDueDates, "due-dates", "", "Due-date file (JSON or CSV) used when the raw name has no project number")
	rootCmd.AddCommand(cleanCmd)
}

func runClean(cmd *cobra.Command, args []string) error {
	a, err := newAnalysis(cmd, args[0], args[1])
	if err != nil {
		return err
	}
	dueDates, err := loadDueDates(cmd, cleanDueDates, a.cfg)
	if err != nil {
		return err
	}
	if err := a.load(cmd, sensordata.LoadOptions{OptionalAssignment: true}); err != nil {
		return err
	}

	cleaned := analyzer.Clean(a.table, dueDates, a.loc)
	if cleaned.Unresolved > 0 {
		a.logger.Warn("assignment could not be determined for some rows",
			zap.Int("rows", cleaned.Unresolved),
			zap.Bool("due_dates", dueDates != nil))
	}
	a.addCoverage("resolved_share", "Resolved", len(cleaned.Rows)-cleaned.Unresolved, len(cleaned.Rows))
	a.addMetric("expanded_rows", float64(cleaned.Expanded), "")

	if err := output.WriteRawCSV(a.output, cleaned.Header, cleaned.Rows); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	return a.finish(len(cleaned.Rows))
}
