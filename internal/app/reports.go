package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/sensorkit/internal/analyzer"
	"github.com/blackwell-systems/sensorkit/internal/sensordata"
)

var (
	reportSegment  segmentFlags
	summarySegment segmentFlags
	summaryByWS    bool
)

var duplicatesCmd = &cobra.Command{
	Use:   "duplicates <input> <output>",
	Short: "Report repeated import events",
	Long: `Report Import events that repeat an earlier import by the same student in
the same project at the same time. Each repeat is reported once.`,
	Args: cobra.ExactArgs(2),
	RunE: runDuplicates,
}

var timespentCmd = &cobra.Command{
	Use:   "timespent <input> <output>",
	Short: "Sum hours worked per student and assignment",
	Args:  cobra.ExactArgs(2),
	RunE:  runTimeSpent,
}

var launchesCmd = &cobra.Command{
	Use:   "launches <input> <output>",
	Short: "Count launches per student and assignment",
	Args:  cobra.ExactArgs(2),
	RunE:  runLaunches,
}

var summaryCmd = &cobra.Command{
	Use:   "summary <input> <output>",
	Short: "Describe subsession edit sizes",
	Long: `Describe the distribution of statement edit sizes over each group's
subsessions (min, quartiles, max, mean, standard deviation), optionally per
work session.`,
	Args: cobra.ExactArgs(2),
	RunE: runSummary,
}

func init() {
	reportSegment.register(timespentCmd, false)
	reportSegment.register(launchesCmd, false)
	summarySegment.register(summaryCmd, true)
	summaryCmd.Flags().BoolVar(&summaryByWS, "by-worksession", false, "One row per work session instead of per group")

	rootCmd.AddCommand(duplicatesCmd)
	rootCmd.AddCommand(timespentCmd)
	rootCmd.AddCommand(launchesCmd)
	rootCmd.AddCommand(summaryCmd)
}

func runDuplicates(cmd *cobra.Command, args []string) error {
	a, err := newAnalysis(cmd, args[0], args[1])
	if err != nil {
		return err
	}
	if err := a.load(cmd, sensordata.LoadOptions{}); err != nil {
		return err
	}

	records := analyzer.Duplicates(a.table.Events)
	a.addMetric("duplicate_imports", float64(len(records)), "")
	return writeRecords(a, records)
}

// workSessions segments every group with the flags of cmd.
func workSessions(cmd *cobra.Command, a *analysis, flags *segmentFlags) ([]analyzer.WorkSessionRecord, error) {
	seg, err := flags.segmenter(cmd, a.cfg)
	if err != nil {
		return nil, err
	}
	if err := a.load(cmd, sensordata.LoadOptions{}); err != nil {
		return nil, err
	}
	sessions, err := analyzer.Run(cmd.Context(), a.groups, a.workers, func(g sensordata.Group) []analyzer.WorkSessionRecord {
		return analyzer.WorkSessions(g, seg, analyzer.ResetWorkSession)
	})
	if err != nil {
		return nil, fmt.Errorf("computing work sessions: %w", err)
	}
	return sessions, nil
}

func runTimeSpent(cmd *cobra.Command, args []string) error {
	a, err := newAnalysis(cmd, args[0], args[1])
	if err != nil {
		return err
	}
	sessions, err := workSessions(cmd, a, &reportSegment)
	if err != nil {
		return err
	}

	records := analyzer.TimeSpent(sessions)
	if len(records) > 0 {
		var total float64
		for _, r := range records {
			total += r.HoursOnProject
		}
		a.addMetric("mean_hours", total/float64(len(records)), "")
	}
	return writeRecords(a, records)
}

func runLaunches(cmd *cobra.Command, args []string) error {
	a, err := newAnalysis(cmd, args[0], args[1])
	if err != nil {
		return err
	}
	sessions, err := workSessions(cmd, a, &reportSegment)
	if err != nil {
		return err
	}

	records := analyzer.LaunchCounts(sessions)
	var tested int
	for _, r := range records {
		if r.TestLaunches > 0 {
			tested++
		}
	}
	a.addCoverage("groups_running_tests", "Ran tests", tested, len(records))
	return writeRecords(a, records)
}

func runSummary(cmd *cobra.Command, args []string) error {
	a, err := newAnalysis(cmd, args[0], args[1])
	if err != nil {
		return err
	}
	seg, err := summarySegment.segmenter(cmd, a.cfg)
	if err != nil {
		return err
	}
	reset, err := analyzer.ParseReset(a.cfg.Subsession.Reset)
	if err != nil {
		return fmt.Errorf("subsession.reset: %w", err)
	}
	if err := a.load(cmd, sensordata.LoadOptions{}); err != nil {
		return err
	}

	subs, err := analyzer.Run(cmd.Context(), a.groups, a.workers, func(g sensordata.Group) []analyzer.SubsessionRecord {
		return analyzer.Subsessions(g, seg, reset)
	})
	if err != nil {
		return fmt.Errorf("computing subsessions: %w", err)
	}

	records := analyzer.EditSummary(subs, summaryByWS)
	a.addMetric("subsessions", float64(len(subs)), "")
	return writeRecords(a, records)
}
