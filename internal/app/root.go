// Package app contains the Cobra command tree for sensorkit.
package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/blackwell-systems/sensorkit/internal/output"
)

var appVersion = "dev"

// SetVersion sets the application version (called from main with ldflags value).
func SetVersion(v string) {
	appVersion = v
	rootCmd.Version = v
}

var (
	flagNoColor bool
	flagJSON    bool
	flagVerbose bool
	flagConfig  string
	flagWorkers int
	flagRecord  bool
)

var rootCmd = &cobra.Command{
	Use:   "sensorkit",
	Short: "Work-session and early/often analysis of IDE sensordata",
	Long: `sensorkit turns IDE telemetry exports ("sensordata") into per-student
analyses: work sessions, subsessions delimited by launches or terminations,
early/often indices relative to assignment deadlines, and a handful of
derived reports. Every analysis reads CSV and writes CSV.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("sensorkit", appVersion)
		fmt.Println()
		fmt.Println("Use a subcommand:")
		fmt.Println("  worksessions  Split events into work sessions and total their edits")
		fmt.Println("  subsessions   Split work sessions at launches or terminations")
		fmt.Println("  earlyoften    Compute early/often indices against deadlines")
		fmt.Println("  duplicates    Report repeated import events")
		fmt.Println("  timespent     Sum hours worked per student and assignment")
		fmt.Println("  launches      Count launches per student and assignment")
		fmt.Println("  summary       Describe subsession edit sizes")
		fmt.Println("  clean         Normalize assignment names in a raw export")
		fmt.Println("  history       List recorded runs")
		return nil
	},
}

// Execute is the entry point called from main.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file path (default: ~/.config/sensorkit/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "Print the run summary as JSON")
	rootCmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "Enable debug logging")
	rootCmd.PersistentFlags().IntVar(&flagWorkers, "workers", 0, "Groups analyzed in parallel (default: config, then number of CPUs)")
	rootCmd.PersistentFlags().BoolVar(&flagRecord, "record", false, "Record this run in the history database")
}

// newLogger builds the console logger used by every command. Logs go to
// stderr so CSV written to stdout stays clean.
func newLogger() *zap.Logger {
	return newLoggerTo(zapcore.Lock(os.Stderr), !flagNoColor && output.IsTerminal(os.Stderr))
}

func newLoggerTo(w zapcore.WriteSyncer, color bool) *zap.Logger {
	atom := zap.NewAtomicLevelAt(zapcore.InfoLevel)
	if flagVerbose {
		atom.SetLevel(zapcore.DebugLevel)
	}

	zapConfig := zap.NewDevelopmentEncoderConfig()
	if color {
		zapConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(zapConfig), w, atom)
	return zap.New(core)
}
