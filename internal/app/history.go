package app

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/sensorkit/internal/config"
	"github.com/blackwell-systems/sensorkit/internal/output"
	"github.com/blackwell-systems/sensorkit/internal/store"
)

var (
	historyLimit   int
	historyCommand string
	historyRun     string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded runs",
	Long: `List runs recorded with --record (or store.record in the config), newest
first, with the change in emitted records since the previous run of the same
command. --run shows a single run, by ID prefix or "latest", with its
metrics.`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Number of runs to show (0 for all)")
	historyCmd.Flags().StringVar(&historyCommand, "command", "", "Only show runs of this command")
	historyCmd.Flags().StringVar(&historyRun, "run", "", `Show one run by ID prefix, or "latest"`)
	rootCmd.AddCommand(historyCmd)
}

type historyEntry struct {
	store.Run
	PreviousRecords *int              `json:"previous_records,omitempty"`
	Metrics         []store.RunMetric `json:"metrics"`
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	output.AutoColor(os.Stdout, flagNoColor || !cfg.Output.Color)

	db, err := store.Open(cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() { _ = db.Close() }()

	w := cmd.OutOrStdout()
	if historyRun != "" {
		return showRun(w, db, historyRun)
	}

	deltas, err := db.History(historyCommand, historyLimit)
	if err != nil {
		return fmt.Errorf("loading runs: %w", err)
	}

	if flagJSON {
		entries := make([]historyEntry, 0, len(deltas))
		for _, d := range deltas {
			metrics, err := db.GetRunMetrics(d.Run.ID)
			if err != nil {
				return fmt.Errorf("loading metrics for run %s: %w", d.Run.ID, err)
			}
			e := historyEntry{Run: d.Run, Metrics: metrics}
			if d.Previous != nil {
				e.PreviousRecords = &d.Previous.Records
			}
			entries = append(entries, e)
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	fmt.Fprintln(w, output.Section("Run History"))
	fmt.Fprintln(w)
	if len(deltas) == 0 {
		fmt.Fprintln(w, " No runs recorded. Pass --record to an analysis command to start.")
		return nil
	}

	tbl := output.NewTable("Run", "Started", "Command", "Groups", "Events", "Records", "Trend", "Elapsed")
	for _, d := range deltas {
		r := d.Run
		trend := output.StyleMuted.Render("new")
		if d.Previous != nil {
			trend = output.TrendArrow(float64(d.RecordDelta()))
		}
		tbl.AddRow(
			shortID(r.ID),
			r.StartedAt.Local().Format("2006-01-02 15:04"),
			r.Command,
			strconv.Itoa(r.Groups),
			strconv.Itoa(r.Events),
			strconv.Itoa(r.Records),
			trend,
			r.Duration.String(),
		)
	}
	tbl.Fprint(w)
	return nil
}

// showRun prints one run and its metrics. ref is an ID prefix or "latest",
// which honours --command.
func showRun(w io.Writer, db *store.DB, ref string) error {
	var (
		run *store.Run
		err error
	)
	if ref == "latest" {
		run, err = db.GetLatestRun(historyCommand)
	} else {
		run, err = db.GetRun(ref)
	}
	if err != nil {
		return fmt.Errorf("loading run: %w", err)
	}
	if run == nil {
		return fmt.Errorf("no run matches %q", ref)
	}
	metrics, err := db.GetRunMetrics(run.ID)
	if err != nil {
		return fmt.Errorf("loading metrics for run %s: %w", run.ID, err)
	}

	if flagJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(historyEntry{Run: *run, Metrics: metrics})
	}

	fmt.Fprintln(w, output.Section("Run "+shortID(run.ID)))
	fmt.Fprintln(w)
	fmt.Fprintln(w, output.KeyValue("ID", run.ID))
	fmt.Fprintln(w, output.KeyValue("Command", run.Command))
	fmt.Fprintln(w, output.KeyValue("Started", run.StartedAt.Local().Format("2006-01-02 15:04:05")))
	fmt.Fprintln(w, output.KeyValue("Input", run.Inputs))
	fmt.Fprintln(w, output.KeyValue("Output", run.Output))
	fmt.Fprintln(w, output.KeyValue("Version", run.Version))
	fmt.Fprintln(w, output.KeyValue("Events", strconv.Itoa(run.Events)))
	fmt.Fprintln(w, output.KeyValue("Skipped rows", strconv.Itoa(run.Skipped)))
	fmt.Fprintln(w, output.KeyValue("Groups", strconv.Itoa(run.Groups)))
	fmt.Fprintln(w, output.KeyValue("Records", strconv.Itoa(run.Records)))
	fmt.Fprintln(w, output.KeyValue("Elapsed", run.Duration.String()))
	if len(metrics) == 0 {
		return nil
	}

	fmt.Fprintln(w)
	tbl := output.NewTable("Metric", "Value", "Detail")
	for _, m := range metrics {
		tbl.AddRow(m.Name, strconv.FormatFloat(m.Value, 'f', 3, 64), m.Detail)
	}
	tbl.Fprint(w)
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
