package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blackwell-systems/sensorkit/internal/sensordata"
)

func importEvent(user string, t int64, uri string) sensordata.Event {
	return sensordata.Event{UserID: user, ProjectID: "p1", Time: t, Type: "Edit", Subtype: sensordata.SubtypeImport, URI: uri}
}

func TestDuplicates_OncePerRepeat(t *testing.T) {
	events := []sensordata.Event{
		importEvent("u1", 5, "a"),
		importEvent("u1", 5, "b"),
	}
	dups := Duplicates(events)
	require.Len(t, dups, 1)
	assert.Equal(t, DuplicateRecord{UserID: "u1", ProjectID: "p1", Time: 5, URI: "b", Subtype: "Import"}, dups[0])

	events = append(events,
		importEvent("u1", 5, "c"),
		importEvent("u1", 6, "d"),
		importEvent("u2", 5, "e"),
		sensordata.Event{UserID: "u1", ProjectID: "p1", Time: 5, Type: "Edit"},
	)
	dups = Duplicates(events)
	require.Len(t, dups, 2)
	assert.Equal(t, "c", dups[1].URI)
}

func TestTimeSpent(t *testing.T) {
	sessions := []WorkSessionRecord{
		{UserID: "u1", ProjectID: "p1", Assignment: "a", StartTime: 7200000, EndTime: 9000000},
		{UserID: "u2", ProjectID: "p1", Assignment: "a", StartTime: 10, EndTime: 10},
		{UserID: "u1", ProjectID: "p1", Assignment: "a", StartTime: 0, EndTime: 3600000},
	}
	spent := TimeSpent(sessions)
	require.Len(t, spent, 2)
	assert.Equal(t, "u1", spent[0].UserID)
	assert.InDelta(t, 1.5, spent[0].HoursOnProject, 1e-9)
	assert.Equal(t, int64(0), spent[0].ProjectStartTime)
	assert.InDelta(t, 0.0, spent[1].HoursOnProject, 1e-9)
}

func TestLaunchCounts(t *testing.T) {
	sessions := []WorkSessionRecord{
		{UserID: "u1", ProjectID: "p1", Assignment: "a", NormalLaunches: 2, TestLaunches: 1},
		{UserID: "u1", ProjectID: "p1", Assignment: "a", NormalLaunches: 3},
		{UserID: "u1", ProjectID: "p2", Assignment: "b", TestLaunches: 4},
	}
	counts := LaunchCounts(sessions)
	require.Len(t, counts, 2)
	assert.Equal(t, LaunchCountRecord{UserID: "u1", ProjectID: "p1", Assignment: "a", NormalLaunches: 5, TestLaunches: 1}, counts[0])
	assert.Equal(t, 4, counts[1].TestLaunches)
}

func TestEditSummary(t *testing.T) {
	subs := []SubsessionRecord{
		{UserID: "u1", ProjectID: "p1", Assignment: "a", WorkSessionID: 0, EditSizeStmts: 1},
		{UserID: "u1", ProjectID: "p1", Assignment: "a", WorkSessionID: 0, EditSizeStmts: 1, TestEditSizeStmts: 1},
		{UserID: "u1", ProjectID: "p1", Assignment: "a", WorkSessionID: 1, EditSizeStmts: 3},
		{UserID: "u1", ProjectID: "p1", Assignment: "a", WorkSessionID: 1, TestEditSizeStmts: 4},
	}

	whole := EditSummary(subs, false)
	require.Len(t, whole, 1)
	r := whole[0]
	assert.Equal(t, 1, r.WorkSessionID)
	assert.Equal(t, 4, r.N)
	assert.Equal(t, Some(1), r.Min)
	assert.InDelta(t, 2.5, r.Q2.Value, 1e-9)
	assert.Equal(t, Some(4), r.Max)
	assert.InDelta(t, 2.5, r.Mean.Value, 1e-9)

	perWS := EditSummary(subs, true)
	require.Len(t, perWS, 2)
	assert.Equal(t, 0, perWS[0].WorkSessionID)
	assert.InDelta(t, 1.5, perWS[0].Mean.Value, 1e-9)
	assert.InDelta(t, 0.5, perWS[0].S.Value, 1e-9)
	assert.Equal(t, 2, perWS[1].N)
}
