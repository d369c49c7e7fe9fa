package analyzer

import (
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"time"

	"github.com/blackwell-systems/sensorkit/internal/sensordata"
)

// AssignmentOffset is how long after a deadline events are still attributed
// to that assignment when guessing from due dates.
const AssignmentOffset = 7 * 24 * time.Hour

var projectNumber = regexp.MustCompile(`(?i)\b(?:project|assignment|p)\s*(\d+)\b`)

// Cleaned is a raw event table with a cleaned_assignment column.
type Cleaned struct {
	Header []string
	Rows   [][]string
	// Unresolved counts rows whose assignment could not be determined.
	Unresolved int
	// Expanded counts extra rows produced by splitting test terminations.
	Expanded int
}

// Clean normalizes assignment names to "Project N" and splits multi-test
// terminations into one row per test. Names are taken from the raw
// assignment column when it carries a project number, otherwise guessed from
// the event time and dueDates. Rows keep their original columns followed by
// cleaned_assignment, which replaces an existing column of that name.
func Clean(table *sensordata.Table, dueDates *sensordata.DueDates, loc *time.Location) Cleaned {
	header := slices.Clone(table.Header)
	col := slices.Index(header, sensordata.ColCleanedAssignment)
	if col < 0 {
		header = append(header, sensordata.ColCleanedAssignment)
		col = len(header) - 1
	}

	out := Cleaned{Header: header}
	for _, raw := range table.Events {
		split := sensordata.SplitTermination(raw, table.Header)
		out.Expanded += len(split) - 1
		for _, e := range split {
			name, ok := CleanAssignment(e.Assignment, e.Time, dueDates, loc)
			if !ok {
				out.Unresolved++
			}
			row := make([]string, len(header))
			copy(row, e.Raw)
			row[col] = name
			out.Rows = append(out.Rows, row)
		}
	}
	return out
}

// CleanAssignment returns the normalized "Project N" name of an event's
// assignment. It returns "" and false when neither the raw name nor the due
// dates identify one.
func CleanAssignment(raw string, t int64, dueDates *sensordata.DueDates, loc *time.Location) (string, bool) {
	if m := projectNumber.FindStringSubmatch(raw); m != nil {
		n, _ := strconv.Atoi(m[1])
		return fmt.Sprintf("Project %d", n), true
	}
	return dueDates.AssignmentFor(sensordata.Term(t, loc), t, AssignmentOffset)
}
