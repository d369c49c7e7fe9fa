package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/sensorkit/internal/analyzer"
	"github.com/blackwell-systems/sensorkit/internal/sensordata"
)

var (
	wsSegment segmentFlags
	wsReset   string
)

var worksessionsCmd = &cobra.Command{
	Use:   "worksessions <input> <output>",
	Short: "Split events into work sessions and total their edits",
	Long: `Split each student's event stream into work sessions separated by more
than --gap of inactivity and write one row per work session with launch
counts and solution/test edit sizes. <input> may be a glob; <output> may be
"-" for stdout.`,
	Args: cobra.ExactArgs(2),
	RunE: runWorkSessions,
}

func init() {
	wsSegment.register(worksessionsCmd, false)
	worksessionsCmd.Flags().StringVar(&wsReset, "reset", "worksession", "When file sizes are forgotten: group, worksession or subsession")
	rootCmd.AddCommand(worksessionsCmd)
}

func runWorkSessions(cmd *cobra.Command, args []string) error {
	a, err := newAnalysis(cmd, args[0], args[1])
	if err != nil {
		return err
	}
	seg, err := wsSegment.segmenter(cmd, a.cfg)
	if err != nil {
		return err
	}
	reset, err := resolveReset(cmd, wsReset, a.cfg.WorkSession.Reset)
	if err != nil {
		return err
	}
	if err := a.load(cmd, sensordata.LoadOptions{}); err != nil {
		return err
	}

	records, err := analyzer.Run(cmd.Context(), a.groups, a.workers, func(g sensordata.Group) []analyzer.WorkSessionRecord {
		return analyzer.WorkSessions(g, seg, reset)
	})
	if err != nil {
		return fmt.Errorf("computing work sessions: %w", err)
	}

	if len(a.groups) > 0 {
		a.addMetric("sessions_per_group", float64(len(records))/float64(len(a.groups)), "")
	}
	return writeRecords(a, records)
}
