package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/sensorkit/internal/analyzer"
	"github.com/blackwell-systems/sensorkit/internal/segment"
	"github.com/blackwell-systems/sensorkit/internal/sensordata"
)

var (
	subSegment segmentFlags
	subReset   string
)

var subsessionsCmd = &cobra.Command{
	Use:   "subsessions <input> <output>",
	Short: "Split work sessions at launches or terminations",
	Long: `Split every work session at delimiter events (Termination by default) and
write one row per subsession with its edit sizes and the delimiter subtype.

Delimiters are given as Type or Type:Subtype, e.g. --delimiter Launch:Test.
By default each delimiter opens a new subsession and events before the first
one form an orphan subsession with launch type N/A; with --backward a
delimiter closes the subsession it belongs to. Repeated delimiters of the same subtype with no edit in
between are folded together unless --no-collapse is given.`,
	Args: cobra.ExactArgs(2),
	RunE: runSubsessions,
}

func init() {
	subSegment.register(subsessionsCmd, true)
	subsessionsCmd.Flags().StringVar(&subReset, "reset", "worksession", "When file sizes are forgotten: group, worksession or subsession")
	rootCmd.AddCommand(subsessionsCmd)
}

func runSubsessions(cmd *cobra.Command, args []string) error {
	a, err := newAnalysis(cmd, args[0], args[1])
	if err != nil {
		return err
	}
	seg, err := subSegment.segmenter(cmd, a.cfg)
	if err != nil {
		return err
	}
	reset, err := resolveReset(cmd, subReset, a.cfg.Subsession.Reset)
	if err != nil {
		return err
	}
	if err := a.load(cmd, sensordata.LoadOptions{}); err != nil {
		return err
	}

	records, err := analyzer.Run(cmd.Context(), a.groups, a.workers, func(g sensordata.Group) []analyzer.SubsessionRecord {
		return analyzer.Subsessions(g, seg, reset)
	})
	if err != nil {
		return fmt.Errorf("computing subsessions: %w", err)
	}

	var delimited int
	for _, r := range records {
		if r.LaunchType != segment.NoLaunchType {
			delimited++
		}
	}
	a.addCoverage("delimited_share", "Delimited", delimited, len(records))
	return writeRecords(a, records)
}
