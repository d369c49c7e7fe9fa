package app

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/blackwell-systems/sensorkit/internal/analyzer"
	"github.com/blackwell-systems/sensorkit/internal/config"
	"github.com/blackwell-systems/sensorkit/internal/segment"
	"github.com/blackwell-systems/sensorkit/internal/store"
)

const eventsCSV = `userId,email,projectId,cleaned_assignment,time,Class-Name,Unit-Type,Unit-Name,Type,Subtype,Subsubtype,onTestCase,Current-Statements,Current-Methods,Current-Size,Current-Test-Assertions
u1,u1@example.com,p1,Project 1,0,Foo.java,,,Edit,,,0,10,2,100,0
u1,u1@example.com,p1,Project 1,60000,,,,Launch,Normal,,0,0,0,0,0
u1,u1@example.com,p1,Project 1,120000,,,,Termination,Normal,,0,0,0,0,0
u1,u1@example.com,p1,Project 1,36000000,FooTest.java,,,Edit,,,1,4,1,40,2
u1,u1@example.com,p1,Project 1,36060000,,,,Launch,Test,,0,0,0,0,0
u2,u2@example.com,p2,Project 1,0,Bar.java,,,Edit,,,0,5,1,50,0
`

// testConfig writes a config file that keeps run history inside the test
// directory and returns its path.
func testConfig(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	content := "timezone: UTC\nstore:\n  path: " + filepath.Join(dir, "runs.db") + "\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func execute(t *testing.T, args ...string) error {
	t.Helper()
	t.Cleanup(func() {
		flagRecord = false
		flagJSON = false
		cleanDueDates = ""
		historyRun = ""
		historyCommand = ""
		rootCmd.SetOut(nil)
	})
	rootCmd.SetArgs(args)
	return rootCmd.ExecuteContext(context.Background())
}

func setup(t *testing.T) (dir, cfg, input string) {
	t.Helper()
	dir = t.TempDir()
	input = filepath.Join(dir, "events.csv")
	require.NoError(t, os.WriteFile(input, []byte(eventsCSV), 0o644))
	return dir, testConfig(t, dir), input
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return strings.Split(strings.TrimRight(string(data), "\n"), "\n")
}

func TestWorkSessionsCommand(t *testing.T) {
	dir, cfg, input := setup(t)
	out := filepath.Join(dir, "ws.csv")

	require.NoError(t, execute(t, "worksessions", input, out, "--config", cfg, "--no-color"))

	lines := readLines(t, out)
	require.Len(t, lines, 4)
	assert.Equal(t, "projectId,userId,assignment,workSessionId,start_time,end_time,normalLaunches,testLaunches,editSizeStmts,testEditSizeStmts,editSizeMethods,testEditSizeMethods", lines[0])
	assert.Equal(t, "p1,u1,Project 1,0,0,120000,1,0,10,0,2,0", lines[1])
	assert.Equal(t, "p1,u1,Project 1,1,36000000,36060000,0,1,0,4,0,1", lines[2])
}

func TestEarlyOftenCommand_RequiresDeadline(t *testing.T) {
	dir, cfg, input := setup(t)
	err := execute(t, "earlyoften", input, filepath.Join(dir, "eo.csv"), "--config", cfg, "--no-color")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "deadline")
}

func TestEarlyOftenCommand_FixedDeadline(t *testing.T) {
	dir, cfg, input := setup(t)
	out := filepath.Join(dir, "eo.csv")

	require.NoError(t, execute(t, "earlyoften", input, out, "259200000", "--config", cfg, "--no-color"))

	lines := readLines(t, out)
	require.Len(t, lines, 3, "one row per group")
	assert.True(t, strings.HasPrefix(lines[0], "projectId,userId,email,assignment,earlyOftenIndex,"))
	assert.True(t, strings.HasPrefix(lines[1], "p1,u1,u1@example.com,Project 1,"))
}

func TestLaunchesCommand_RecordsRun(t *testing.T) {
	dir, cfg, input := setup(t)
	out := filepath.Join(dir, "launches.csv")

	require.NoError(t, execute(t, "launches", input, out, "--config", cfg, "--no-color", "--record"))

	lines := readLines(t, out)
	require.Len(t, lines, 3)
	assert.Equal(t, "userId,projectId,assignment,normalLaunches,testLaunches", lines[0])

	db, err := store.Open(filepath.Join(dir, "runs.db"))
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	runs, err := db.ListRuns("launches", 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, 2, runs[0].Groups)
	assert.Equal(t, 6, runs[0].Events)
	assert.Equal(t, 2, runs[0].Records)

	metrics, err := db.GetRunMetrics(runs[0].ID)
	require.NoError(t, err)
	require.Len(t, metrics, 1)
	assert.Equal(t, "groups_running_tests", metrics[0].Name)
	assert.InDelta(t, 0.5, metrics[0].Value, 1e-9)
}

func TestMissingInput(t *testing.T) {
	dir, cfg, _ := setup(t)
	err := execute(t, "duplicates", filepath.Join(dir, "nope.csv"), filepath.Join(dir, "d.csv"), "--config", cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nope.csv")
}

func TestSegmentFlags(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	t.Run("config defaults", func(t *testing.T) {
		var f segmentFlags
		cmd := &cobra.Command{}
		f.register(cmd, true)
		require.NoError(t, cmd.Flags().Parse(nil))

		seg, err := f.segmenter(cmd, cfg)
		require.NoError(t, err)
		p := seg.Policy()
		assert.Equal(t, int64(3*3600000), p.Gap)
		assert.Equal(t, segment.Forward, p.Direction)
		assert.True(t, p.CollapseRepeats)
		assert.Equal(t, []segment.Delimiter{{Type: "Termination"}}, p.Delimiters)
	})

	t.Run("flags override", func(t *testing.T) {
		var f segmentFlags
		cmd := &cobra.Command{}
		f.register(cmd, true)
		require.NoError(t, cmd.Flags().Parse([]string{
			"--gap", "30m", "--delimiter", "Launch:Test", "--delimiter", "Launch", "--backward", "--no-collapse",
		}))

		seg, err := f.segmenter(cmd, cfg)
		require.NoError(t, err)
		p := seg.Policy()
		assert.Equal(t, int64(30*60000), p.Gap)
		assert.Equal(t, segment.Backward, p.Direction)
		assert.False(t, p.CollapseRepeats)
		assert.Equal(t, []segment.Delimiter{{Type: "Launch", Subtype: "Test"}, {Type: "Launch"}}, p.Delimiters)
	})

	t.Run("negative gap", func(t *testing.T) {
		var f segmentFlags
		cmd := &cobra.Command{}
		f.register(cmd, false)
		require.NoError(t, cmd.Flags().Parse([]string{"--gap", "-1h"}))
		_, err := f.segmenter(cmd, cfg)
		assert.Error(t, err)
	})
}

func TestResolveReset(t *testing.T) {
	var value string
	cmd := &cobra.Command{}
	cmd.Flags().StringVar(&value, "reset", "worksession", "")
	require.NoError(t, cmd.Flags().Parse(nil))

	r, err := resolveReset(cmd, value, "group")
	require.NoError(t, err)
	assert.Equal(t, analyzer.ResetGroup, r)

	require.NoError(t, cmd.Flags().Parse([]string{"--reset", "subsession"}))
	r, err = resolveReset(cmd, value, "group")
	require.NoError(t, err)
	assert.Equal(t, analyzer.ResetSubsession, r)

	_, err = resolveReset(cmd, "hourly", "group")
	assert.Error(t, err)
}

func TestCleanCommand_NoAssignmentColumn(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(t, dir)
	input := filepath.Join(dir, "raw.csv")
	raw := "userId,time,Type,Class-Name\n" +
		"u1,1473465600000,Edit,Foo.java\n" + // 2016-09-10
		"u1,1475280000000,Edit,Bar.java\n" // 2016-10-01
	require.NoError(t, os.WriteFile(input, []byte(raw), 0o644))
	dueDates := filepath.Join(dir, "due.json")
	due := `{"fall2016":{"assignment1":{"dueTime":1474329600000},"assignment2":{"dueTime":1476921600000}}}`
	require.NoError(t, os.WriteFile(dueDates, []byte(due), 0o644))
	out := filepath.Join(dir, "clean.csv")

	require.NoError(t, execute(t, "clean", input, out, "--due-dates", dueDates, "--config", cfg, "--no-color"))

	lines := readLines(t, out)
	require.Len(t, lines, 3)
	assert.Equal(t, "userId,time,Type,Class-Name,cleaned_assignment", lines[0])
	assert.True(t, strings.HasSuffix(lines[1], ",Project 1"), lines[1])
	assert.True(t, strings.HasSuffix(lines[2], ",Project 2"), lines[2])
}

func TestNewLoggerTo_Color(t *testing.T) {
	var plain bytes.Buffer
	newLoggerTo(zapcore.AddSync(&plain), false).Info("loaded")
	assert.Contains(t, plain.String(), "INFO")
	assert.NotContains(t, plain.String(), "\x1b[")

	var colored bytes.Buffer
	newLoggerTo(zapcore.AddSync(&colored), true).Info("loaded")
	assert.Contains(t, colored.String(), "\x1b[")
}
