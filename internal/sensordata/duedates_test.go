package sensordata

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDueDates_JSON(t *testing.T) {
	path := writeCSV(t, t.TempDir(), "due.json", `{
		"fall2016": {
			"assignment1": {"dueTime": 1475726400000},
			"assignment2": {"dueTime": "1.4775E12"}
		}
	}`)

	d, err := LoadDueDates(path)
	require.NoError(t, err)

	due, ok := d.Lookup("fall2016", "Project 1")
	require.True(t, ok)
	assert.Equal(t, int64(1475726400000), due)

	due, ok = d.Lookup("fall2016", "assignment2")
	require.True(t, ok)
	assert.Equal(t, int64(1477500000000), due)

	_, ok = d.Lookup("spring2017", "Project 1")
	assert.False(t, ok)
}

func TestLoadDueDates_CSV(t *testing.T) {
	path := writeCSV(t, t.TempDir(), "due.csv",
		"term,assignment,dueTime\nspring2017,assignment3,1490000000000\n")

	d, err := LoadDueDates(path)
	require.NoError(t, err)
	due, ok := d.Lookup("spring2017", "Project 3")
	require.True(t, ok)
	assert.Equal(t, int64(1490000000000), due)
}

func TestLoadDueDates_Errors(t *testing.T) {
	_, err := LoadDueDates(filepath.Join(t.TempDir(), "missing.json"))
	var missing *MissingFileError
	assert.True(t, errors.As(err, &missing))

	path := writeCSV(t, t.TempDir(), "bad.json", `{"fall2016": {"assignment1": {"dueTime": "soon"}}}`)
	_, err = LoadDueDates(path)
	var malformed *MalformedNumericError
	assert.True(t, errors.As(err, &malformed))
}

func TestAssignmentKey(t *testing.T) {
	assert.Equal(t, "assignment3", AssignmentKey("Project 3"))
	assert.Equal(t, "assignment3", AssignmentKey("assignment3"))
	assert.Equal(t, "assignment12", AssignmentKey("P12"))
	assert.Equal(t, "finalexam", AssignmentKey("Final Exam"))
}

func TestAssignmentFor(t *testing.T) {
	d := NewDueDates(map[string]map[string]int64{
		"fall2016": {"assignment2": 2000, "assignment1": 1000},
	})
	week := 7 * 24 * time.Hour

	got, ok := d.AssignmentFor("fall2016", 500, week)
	require.True(t, ok)
	assert.Equal(t, "Project 1", got)

	got, ok = d.AssignmentFor("fall2016", 1000+week.Milliseconds()+1, week)
	require.True(t, ok)
	assert.Equal(t, "Project 2", got)

	_, ok = d.AssignmentFor("fall2016", 2000+week.Milliseconds(), week)
	assert.False(t, ok)
}

func TestTerm(t *testing.T) {
	tests := []struct {
		date time.Time
		want string
	}{
		{time.Date(2016, time.September, 1, 12, 0, 0, 0, time.UTC), "fall2016"},
		{time.Date(2016, time.August, 1, 12, 0, 0, 0, time.UTC), "fall2016"},
		{time.Date(2017, time.July, 4, 12, 0, 0, 0, time.UTC), "summer-1-2017"},
		{time.Date(2017, time.June, 4, 12, 0, 0, 0, time.UTC), "summer-2-2017"},
		{time.Date(2017, time.February, 4, 12, 0, 0, 0, time.UTC), "spring2017"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, Term(tt.date.UnixMilli(), time.UTC))
		})
	}
}

func TestDaysBetween(t *testing.T) {
	due := time.Date(2016, time.October, 10, 23, 55, 0, 0, time.UTC).UnixMilli()

	sameDay := time.Date(2016, time.October, 10, 0, 5, 0, 0, time.UTC).UnixMilli()
	assert.Equal(t, 0, DaysBetween(sameDay, due, time.UTC))

	lateNight := time.Date(2016, time.October, 9, 23, 59, 0, 0, time.UTC).UnixMilli()
	assert.Equal(t, 1, DaysBetween(lateNight, due, time.UTC))

	late := time.Date(2016, time.October, 20, 8, 0, 0, 0, time.UTC).UnixMilli()
	assert.Equal(t, -10, DaysBetween(late, due, time.UTC))
}
