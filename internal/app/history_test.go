package app

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistoryCommand_ShowsLatestRun(t *testing.T) {
	dir, cfg, input := setup(t)
	out := filepath.Join(dir, "launches.csv")
	require.NoError(t, execute(t, "launches", input, out, "--config", cfg, "--no-color", "--record"))

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	require.NoError(t, execute(t, "history", "--run", "latest", "--json", "--config", cfg, "--no-color"))

	var entry historyEntry
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "launches", entry.Command)
	assert.Equal(t, 2, entry.Records)
	require.Len(t, entry.Metrics, 1)
	assert.Equal(t, "groups_running_tests", entry.Metrics[0].Name)

	// The text view accepts an ID prefix.
	buf.Reset()
	flagJSON = false
	require.NoError(t, execute(t, "history", "--run", entry.ID[:8], "--config", cfg, "--no-color"))
	assert.Contains(t, buf.String(), entry.ID)
	assert.Contains(t, buf.String(), "groups_running_tests")
	assert.Contains(t, buf.String(), "0.500")
}

func TestHistoryCommand_UnknownRun(t *testing.T) {
	_, cfg, _ := setup(t)
	err := execute(t, "history", "--run", "deadbeef", "--config", cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no run matches")
}
