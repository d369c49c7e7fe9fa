package app

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/blackwell-systems/sensorkit/internal/analyzer"
	"github.com/blackwell-systems/sensorkit/internal/config"
	"github.com/blackwell-systems/sensorkit/internal/output"
	"github.com/blackwell-systems/sensorkit/internal/segment"
	"github.com/blackwell-systems/sensorkit/internal/sensordata"
	"github.com/blackwell-systems/sensorkit/internal/store"
)

// analysis carries what every CSV-producing command shares: configuration,
// the loaded events and the bookkeeping for the run summary.
type analysis struct {
	command string
	input   string
	output  string

	cfg     *config.Config
	loc     *time.Location
	logger  *zap.Logger
	workers int
	started time.Time
	summary io.Writer

	table  *sensordata.Table
	groups []sensordata.Group

	metrics   []store.RunMetric
	coverages []coverage
}

type coverage struct {
	label       string
	part, total int
}

// newAnalysis loads configuration and prepares logging and color for a
// command reading input and writing output.
func newAnalysis(cmd *cobra.Command, input, outputPath string) (*analysis, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	// Keep stdout free for CSV when the output is stdout.
	summary := os.Stdout
	if outputPath == output.Stdout {
		summary = os.Stderr
	}
	output.AutoColor(summary, flagNoColor || !cfg.Output.Color)

	workers := cfg.Workers
	if cmd.Flags().Changed("workers") {
		workers = flagWorkers
	}

	return &analysis{
		command: cmd.Name(),
		input:   input,
		output:  outputPath,
		cfg:     cfg,
		loc:     loc,
		logger:  newLogger().With(zap.String("command", cmd.Name())),
		workers: workers,
		started: time.Now(),
		summary: summary,
	}, nil
}

// load reads the input events and groups them by student and assignment.
func (a *analysis) load(cmd *cobra.Command, opts sensordata.LoadOptions) error {
	opts.Logger = a.logger
	if a.cfg.Loader.RequireCleaned && !opts.OptionalAssignment {
		opts.RequireCleaned = true
	}

	table, err := sensordata.Load(cmd.Context(), []string{a.input}, opts)
	if err != nil {
		return fmt.Errorf("loading events: %w", err)
	}
	a.table = table
	a.groups = sensordata.GroupEvents(table.Events)

	a.logger.Info("loaded sensordata",
		zap.String("input", a.input),
		zap.Int("events", len(table.Events)),
		zap.Int("skipped", table.Skipped),
		zap.Int("groups", len(a.groups)))
	return nil
}

// addMetric records a named value for the run summary and history.
func (a *analysis) addMetric(name string, value float64, detail string) {
	a.metrics = append(a.metrics, store.RunMetric{Name: name, Value: value, Detail: detail})
}

// addCoverage records how many of total items produced a result.
func (a *analysis) addCoverage(name, label string, part, total int) {
	var frac float64
	if total > 0 {
		frac = float64(part) / float64(total)
	}
	a.addMetric(name, frac, fmt.Sprintf("%d/%d", part, total))
	a.coverages = append(a.coverages, coverage{label: label, part: part, total: total})
}

// writeRecords writes typed records to the output path and finishes the run.
func writeRecords[T any](a *analysis, records []T) error {
	if err := output.WriteCSV(a.output, records); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	return a.finish(len(records))
}

type summaryJSON struct {
	Run      store.Run         `json:"run"`
	Metrics  []store.RunMetric `json:"metrics"`
	Recorded bool              `json:"recorded"`
}

// finish records the run when requested and prints its summary.
func (a *analysis) finish(records int) error {
	run := store.Run{
		StartedAt: a.started,
		Command:   a.command,
		Inputs:    a.input,
		Output:    a.output,
		Version:   appVersion,
		Records:   records,
		Duration:  time.Since(a.started),
	}
	if a.table != nil {
		run.Groups = len(a.groups)
		run.Events = len(a.table.Events)
		run.Skipped = a.table.Skipped
	}
	a.logger.Info("wrote records", zap.String("output", a.output), zap.Int("records", records))

	recorded := flagRecord || a.cfg.Store.Record
	if recorded {
		if err := recordRun(a.cfg.Store.Path, &run, a.metrics); err != nil {
			return err
		}
		a.logger.Debug("recorded run", zap.String("id", run.ID))
	}

	if flagJSON {
		enc := json.NewEncoder(a.summary)
		enc.SetIndent("", "  ")
		return enc.Encode(summaryJSON{Run: run, Metrics: a.metrics, Recorded: recorded})
	}
	a.render(run)
	return nil
}

func (a *analysis) render(run store.Run) {
	w := a.summary
	fmt.Fprintln(w, output.Section("sensorkit "+run.Command))
	fmt.Fprintln(w)
	fmt.Fprintln(w, output.KeyValue("Input", run.Inputs))
	fmt.Fprintln(w, output.KeyValue("Output", run.Output))
	fmt.Fprintln(w, output.KeyValue("Events", strconv.Itoa(run.Events)))
	if run.Skipped > 0 {
		fmt.Fprintln(w, output.KeyValue("Skipped rows", output.StyleWarning.Render(strconv.Itoa(run.Skipped))))
	}
	fmt.Fprintln(w, output.KeyValue("Groups", strconv.Itoa(run.Groups)))
	fmt.Fprintln(w, output.KeyValue("Records", strconv.Itoa(run.Records)))
	for _, c := range a.coverages {
		fmt.Fprintln(w, output.KeyValue(c.label, output.CoverageBar(c.part, c.total, 20)))
	}
	fmt.Fprintln(w, output.KeyValue("Elapsed", run.Duration.Round(time.Millisecond).String()))
	if run.ID != "" {
		fmt.Fprintln(w, output.KeyValue("Run", output.StyleMuted.Render(run.ID)))
	}
	fmt.Fprintln(w)
}

func recordRun(path string, run *store.Run, metrics []store.RunMetric) error {
	db, err := store.Open(path)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() { _ = db.Close() }()

	if _, err := db.RecordRun(run, metrics); err != nil {
		return fmt.Errorf("recording run: %w", err)
	}
	return nil
}

// segmentFlags are the segmentation overrides shared by several commands.
// Unset flags fall back to the configuration.
type segmentFlags struct {
	gap        time.Duration
	delimiters []string
	backward   bool
	noCollapse bool
}

func (f *segmentFlags) register(cmd *cobra.Command, delimiters bool) {
	cmd.Flags().DurationVar(&f.gap, "gap", segment.DefaultGap, "Inactivity that starts a new work session (0 disables splitting)")
	if !delimiters {
		return
	}
	cmd.Flags().StringArrayVar(&f.delimiters, "delimiter", nil, "Event that ends a subsession, as Type or Type:Subtype (repeatable)")
	cmd.Flags().BoolVar(&f.backward, "backward", false, "Delimiters close the subsession they belong to instead of opening one")
	cmd.Flags().BoolVar(&f.noCollapse, "no-collapse", false, "Keep repeated delimiters with no edit in between as separate subsessions")
}

func (f *segmentFlags) segmenter(cmd *cobra.Command, cfg *config.Config) (*segment.Segmenter, error) {
	flags := cmd.Flags()

	gap := cfg.WorkSession.Gap
	if flags.Changed("gap") {
		gap = f.gap
	}
	if gap < 0 {
		return nil, fmt.Errorf("--gap must not be negative, got %s", gap)
	}

	specs := cfg.Subsession.Delimiters
	if flags.Changed("delimiter") {
		specs = f.delimiters
	}
	delims, err := segment.ParseDelimiters(specs)
	if err != nil {
		return nil, err
	}

	dir, err := segment.ParseDirection(cfg.Subsession.Direction)
	if err != nil {
		return nil, fmt.Errorf("subsession.direction: %w", err)
	}
	if flags.Changed("backward") {
		dir = segment.Forward
		if f.backward {
			dir = segment.Backward
		}
	}

	collapse := cfg.Subsession.CollapseRepeats
	if flags.Changed("no-collapse") {
		collapse = !f.noCollapse
	}

	return segment.New(segment.Policy{
		Gap:             gap.Milliseconds(),
		Delimiters:      delims,
		Direction:       dir,
		CollapseRepeats: collapse,
	}), nil
}

// resolveReset returns the --reset flag when set, otherwise the configured
// value.
func resolveReset(cmd *cobra.Command, flagValue, configured string) (analyzer.Reset, error) {
	value := configured
	if cmd.Flags().Changed("reset") {
		value = flagValue
	}
	r, err := analyzer.ParseReset(value)
	if err != nil {
		return 0, fmt.Errorf("reset: %w", err)
	}
	return r, nil
}

// loadDueDates reads the due-date table named by --due-dates or the
// configuration. It returns nil when neither names one.
func loadDueDates(cmd *cobra.Command, flagValue string, cfg *config.Config) (*sensordata.DueDates, error) {
	path := cfg.EarlyOften.DueDates
	if cmd.Flags().Changed("due-dates") {
		path = flagValue
	}
	if path == "" {
		return nil, nil
	}
	dd, err := sensordata.LoadDueDates(path)
	if err != nil {
		return nil, fmt.Errorf("loading due dates: %w", err)
	}
	return dd, nil
}
