package app

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/sensorkit/internal/analyzer"
	"github.com/blackwell-systems/sensorkit/internal/sensordata"
)

var (
	eoDueDates string
	eoCutoff   int
	eoReset    string
	eoSegment  segmentFlags
)

var earlyoftenCmd = &cobra.Command{
	Use:   "earlyoften <input> <output> [deadline_ms]",
	Short: "Compute early/often indices against deadlines",
	Long: `Compute, for every student and assignment, how many days before the
deadline work happened on average, weighted by edit size, plus the same
index for launches.

The deadline is either a single epoch-millisecond timestamp applied to every
group, or looked up per term and assignment in a --due-dates file (JSON or
CSV). Events more than --cutoff days after the deadline are ignored. Every
group produces a row; indices without data are left empty.`,
	Args: cobra.RangeArgs(2, 3),
	RunE: runEarlyOften,
}

func init() {
	earlyoftenCmd.Flags().StringVar(&eoDueDates, "due-dates", "", "Due-date file (JSON or CSV) keyed by term and assignment")
	earlyoftenCmd.Flags().IntVar(&eoCutoff, "cutoff", analyzer.DefaultLateCutoffDays, "Ignore events more than this many days after the deadline")
	earlyoftenCmd.Flags().StringVar(&eoReset, "reset", "group", "When file sizes are forgotten: group, worksession or subsession")
	eoSegment.register(earlyoftenCmd, false)
	rootCmd.AddCommand(earlyoftenCmd)
}

func runEarlyOften(cmd *cobra.Command, args []string) error {
	a, err := newAnalysis(cmd, args[0], args[1])
	if err != nil {
		return err
	}

	resolver := analyzer.DeadlineResolver{Location: a.loc}
	if len(args) == 3 {
		due, err := sensordata.ParseNumeric(args[2])
		if err != nil || due <= 0 {
			return fmt.Errorf("deadline %q is not an epoch-millisecond timestamp", args[2])
		}
		resolver.Fixed = due
	} else {
		resolver.DueDates, err = loadDueDates(cmd, eoDueDates, a.cfg)
		if err != nil {
			return err
		}
		if resolver.DueDates == nil {
			return errors.New("earlyoften needs a deadline argument or --due-dates")
		}
	}

	cutoff := a.cfg.EarlyOften.LateCutoffDays
	if cmd.Flags().Changed("cutoff") {
		cutoff = eoCutoff
	}
	if cutoff < 0 {
		return fmt.Errorf("--cutoff must not be negative, got %d", cutoff)
	}
	reset, err := resolveReset(cmd, eoReset, a.cfg.EarlyOften.Reset)
	if err != nil {
		return err
	}
	seg, err := eoSegment.segmenter(cmd, a.cfg)
	if err != nil {
		return err
	}
	opts := analyzer.EarlyOftenOptions{
		Location:       a.loc,
		LateCutoffDays: cutoff,
		Reset:          reset,
		Segmenter:      seg,
	}

	if err := a.load(cmd, sensordata.LoadOptions{}); err != nil {
		return err
	}

	records, err := analyzer.Run(cmd.Context(), a.groups, a.workers, analyzer.One(func(g sensordata.Group) analyzer.EarlyOftenRecord {
		due, ok := resolver.Resolve(g)
		if !ok {
			return analyzer.MissingEarlyOften(g)
		}
		return analyzer.EarlyOften(g, due, opts)
	}))
	if err != nil {
		return fmt.Errorf("computing early/often indices: %w", err)
	}

	var edits, launches int
	for _, r := range records {
		if r.EarlyOftenIndex.Valid {
			edits++
		}
		if r.LaunchEarlyOften.Valid {
			launches++
		}
	}
	a.addCoverage("edit_index_coverage", "Edit index", edits, len(records))
	a.addCoverage("launch_index_coverage", "Launch index", launches, len(records))
	return writeRecords(a, records)
}
