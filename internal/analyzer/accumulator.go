// Package analyzer reduces segmented sensordata streams to per-session and
// per-project metrics.
package analyzer

import (
	"fmt"
	"strings"

	"github.com/blackwell-systems/sensorkit/internal/sensordata"
)

// Reset is the granularity at which per-file size state is cleared. The
// research scripts disagree on this, so it is configured per report rather
// than fixed.
type Reset int

const (
	// ResetGroup keeps file sizes for the whole (user, project, assignment).
	ResetGroup Reset = iota
	// ResetWorkSession clears file sizes at each work session.
	ResetWorkSession
	// ResetSubsession clears file sizes at each subsession.
	ResetSubsession
)

// ParseReset reads "group", "worksession" or "subsession".
func ParseReset(s string) (Reset, error) {
	switch strings.ToLower(strings.NewReplacer("-", "", "_", "", " ", "").Replace(s)) {
	case "group", "project":
		return ResetGroup, nil
	case "worksession", "session":
		return ResetWorkSession, nil
	case "subsession":
		return ResetSubsession, nil
	}
	return ResetGroup, fmt.Errorf("invalid reset granularity %q: want group, worksession or subsession", s)
}

func (r Reset) String() string {
	switch r {
	case ResetWorkSession:
		return "worksession"
	case ResetSubsession:
		return "subsession"
	default:
		return "group"
	}
}

// EditDelta is the size change of one edit event.
type EditDelta struct {
	Stmts   int64
	Methods int64
	Bytes   int64
	// Test is true when the edit was to a test class.
	Test bool
}

type fileSize struct {
	stmts, methods, bytes int64
}

// FileSizes remembers the last observed size of each edited class so that
// absolute sizes can be turned into edit deltas.
type FileSizes struct {
	sizes map[string]fileSize
}

// NewFileSizes returns an empty size map.
func NewFileSizes() *FileSizes {
	return &FileSizes{sizes: make(map[string]fileSize)}
}

// Apply records the sizes carried by an edit event and returns the absolute
// change from the previous sizes of the same class (0 for unseen classes).
func (f *FileSizes) Apply(e sensordata.Event) EditDelta {
	prev := f.sizes[e.ClassName]
	cur := fileSize{stmts: e.CurrentStatements, methods: e.CurrentMethods, bytes: e.CurrentSize}
	f.sizes[e.ClassName] = cur
	return EditDelta{
		Stmts:   abs(cur.stmts - prev.stmts),
		Methods: abs(cur.methods - prev.methods),
		Bytes:   abs(cur.bytes - prev.bytes),
		Test:    e.OnTestCase,
	}
}

// Reset forgets all sizes.
func (f *FileSizes) Reset() {
	clear(f.sizes)
}

// Len returns the number of classes tracked.
func (f *FileSizes) Len() int {
	return len(f.sizes)
}

// EditTotals sums edit deltas by {solution, test} x {stmts, methods, bytes}.
type EditTotals struct {
	SolutionStmts   int64
	TestStmts       int64
	SolutionMethods int64
	TestMethods     int64
	SolutionBytes   int64
	TestBytes       int64
}

// Add routes d into the solution or test buckets.
func (t *EditTotals) Add(d EditDelta) {
	if d.Test {
		t.TestStmts += d.Stmts
		t.TestMethods += d.Methods
		t.TestBytes += d.Bytes
		return
	}
	t.SolutionStmts += d.Stmts
	t.SolutionMethods += d.Methods
	t.SolutionBytes += d.Bytes
}

// Stmts is the statement delta over solution and test code.
func (t EditTotals) Stmts() int64 { return t.SolutionStmts + t.TestStmts }

// LaunchTotals counts launches and the outcomes of test terminations.
type LaunchTotals struct {
	Normal   int
	Test     int
	Outcomes sensordata.Outcomes
	// GreenZone counts test terminations with all tests passing.
	GreenZone int
}

// Observe counts e if it is a launch or a test termination.
func (t *LaunchTotals) Observe(e sensordata.Event) {
	switch {
	case e.IsTestLaunch():
		t.Test++
	case e.IsLaunch():
		t.Normal++
	case e.IsTestTermination():
		o := sensordata.ParseOutcomes(e.Subsubtype)
		t.Outcomes.Add(o)
		if o.GreenZone() {
			t.GreenZone++
		}
	}
}

// Accumulator folds events into edit and launch totals. File sizes are shared
// across records through the FileSizes it was built with; the totals belong
// to one record.
type Accumulator struct {
	sizes    *FileSizes
	Edits    EditTotals
	Launches LaunchTotals
}

// NewAccumulator returns an accumulator drawing deltas from sizes.
func NewAccumulator(sizes *FileSizes) *Accumulator {
	return &Accumulator{sizes: sizes}
}

// Observe consumes one event. For edits it returns the delta and true.
func (a *Accumulator) Observe(e sensordata.Event) (EditDelta, bool) {
	if e.IsEdit() {
		d := a.sizes.Apply(e)
		a.Edits.Add(d)
		return d, true
	}
	a.Launches.Observe(e)
	return EditDelta{}, false
}

func abs(n int64) int64 {
	if n < 0 {
		return -n
	}
	return n
}
