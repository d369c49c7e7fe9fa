package analyzer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blackwell-systems/sensorkit/internal/sensordata"
)

func TestCleanAssignment(t *testing.T) {
	dd := sensordata.NewDueDates(map[string]map[string]int64{
		"fall2016": {"assignment1": day(10, 23), "assignment2": day(24, 23)},
	})

	tests := []struct {
		raw  string
		t    int64
		want string
		ok   bool
	}{
		{"Project 3", 0, "Project 3", true},
		{"CS1114 assignment2", 0, "Project 2", true},
		{"P4 - Maze", 0, "Project 4", true},
		{"", day(5, 9), "Project 1", true},
		{"Step", day(12, 9), "Project 1", true},
		{"", day(20, 9), "Project 2", true},
		{"", day(31, 9) + 7*24*hour, "", false},
	}
	for _, tt := range tests {
		got, ok := CleanAssignment(tt.raw, tt.t, dd, time.UTC)
		assert.Equal(t, tt.ok, ok, tt.raw)
		assert.Equal(t, tt.want, got, tt.raw)
	}
}

func TestClean(t *testing.T) {
	header := []string{"userId", "assignment", "time", "Type", "Subtype", "Unit-Type", "Unit-Name", "Subsubtype"}
	table := &sensordata.Table{
		Header: header,
		Events: []sensordata.Event{
			{UserID: "u1", Assignment: "Project 2", Time: 1, Type: "Edit",
				Raw: []string{"u1", "Project 2", "1", "Edit", "", "", "", ""}},
			{UserID: "u1", Assignment: "?", Time: day(5, 9), Type: "Termination", Subtype: "Test",
				UnitType: "Class", UnitName: "a|b|", Subsubtype: "Success|Failure|",
				Raw: []string{"u1", "?", "x", "Termination", "Test", "Class", "a|b|", "Success|Failure|"}},
		},
	}
	dd := sensordata.NewDueDates(map[string]map[string]int64{"fall2016": {"assignment1": day(10, 23)}})

	cleaned := Clean(table, dd, time.UTC)
	assert.Equal(t, append(header, "cleaned_assignment"), cleaned.Header)
	require.Len(t, cleaned.Rows, 3)
	assert.Equal(t, 1, cleaned.Expanded)
	assert.Equal(t, 0, cleaned.Unresolved)

	assert.Equal(t, "Project 2", cleaned.Rows[0][8])
	assert.Equal(t, []string{"u1", "?", "x", "Termination", "Test", "Method", "a", "Success", "Project 1"}, cleaned.Rows[1])
	assert.Equal(t, "b", cleaned.Rows[2][6])
	assert.Equal(t, "Failure", cleaned.Rows[2][7])
}

func TestClean_ReplacesExistingColumn(t *testing.T) {
	table := &sensordata.Table{
		Header: []string{"userId", "cleaned_assignment", "time"},
		Events: []sensordata.Event{{Assignment: "old", Time: 1, Raw: []string{"u", "old", "1"}}},
	}
	cleaned := Clean(table, nil, time.UTC)
	assert.Equal(t, table.Header, cleaned.Header)
	assert.Equal(t, []string{"u", "", "1"}, cleaned.Rows[0])
	assert.Equal(t, 1, cleaned.Unresolved)
}
