package analyzer

import (
	"time"

	"github.com/blackwell-systems/sensorkit/internal/segment"
	"github.com/blackwell-systems/sensorkit/internal/sensordata"
)

// DefaultLateCutoffDays is how many days after the deadline events still
// count towards early/often indices.
const DefaultLateCutoffDays = 4

// EarlyOftenOptions configures EarlyOften.
type EarlyOftenOptions struct {
	// Location is the time zone used to compare calendar days. Nil means
	// time.Local.
	Location *time.Location
	// LateCutoffDays excludes events more than this many days after the
	// deadline.
	LateCutoffDays int
	Reset          Reset
	// Segmenter provides reset boundaries for ResetWorkSession and
	// ResetSubsession.
	Segmenter *segment.Segmenter
}

// EarlyOftenRecord is one row of the early/often report. Indices are mean
// days before the deadline, weighted by edit size for edit indices.
type EarlyOftenRecord struct {
	ProjectID  string `csv:"projectId" json:"projectId"`
	UserID     string `csv:"userId" json:"userId"`
	Email      string `csv:"email" json:"email"`
	Assignment string `csv:"assignment" json:"assignment"`

	EarlyOftenIndex                Metric `csv:"earlyOftenIndex" json:"earlyOftenIndex"`
	SolutionStmtEarlyOftenIndex    Metric `csv:"solutionStmtEarlyOftenIndex" json:"solutionStmtEarlyOftenIndex"`
	SolutionMethodsEarlyOftenIndex Metric `csv:"solutionMethodsEarlyOftenIndex" json:"solutionMethodsEarlyOftenIndex"`
	TestStmtsEarlyOftenIndex       Metric `csv:"testStmtsEarlyOftenIndex" json:"testStmtsEarlyOftenIndex"`
	TestMethodsEarlyOftenIndex     Metric `csv:"testMethodsEarlyOftenIndex" json:"testMethodsEarlyOftenIndex"`
	LaunchEarlyOften               Metric `csv:"launchEarlyOften" json:"launchEarlyOften"`
	TestLaunchEarlyOften           Metric `csv:"testLaunchEarlyOften" json:"testLaunchEarlyOften"`
	NormalLaunchEarlyOften         Metric `csv:"normalLaunchEarlyOften" json:"normalLaunchEarlyOften"`

	ByteEarlyOftenIndex         Metric `csv:"byteEarlyOftenIndex" json:"byteEarlyOftenIndex"`
	SolutionByteEarlyOftenIndex Metric `csv:"solutionByteEarlyOftenIndex" json:"solutionByteEarlyOftenIndex"`
	TestByteEarlyOftenIndex     Metric `csv:"testByteEarlyOftenIndex" json:"testByteEarlyOftenIndex"`
	StmtEditMedian              Metric `csv:"stmtEditMedian" json:"stmtEditMedian"`
	StmtEditSd                  Metric `csv:"stmtEditSd" json:"stmtEditSd"`
	ByteEditMedian              Metric `csv:"byteEditMedian" json:"byteEditMedian"`
	ByteEditSd                  Metric `csv:"byteEditSd" json:"byteEditSd"`
	LaunchMedian                Metric `csv:"launchMedian" json:"launchMedian"`
	LaunchSd                    Metric `csv:"launchSd" json:"launchSd"`
	TestLaunchMedian            Metric `csv:"testLaunchMedian" json:"testLaunchMedian"`
	TestLaunchSd                Metric `csv:"testLaunchSd" json:"testLaunchSd"`
	NormalLaunchMedian          Metric `csv:"normalLaunchMedian" json:"normalLaunchMedian"`
	NormalLaunchSd              Metric `csv:"normalLaunchSd" json:"normalLaunchSd"`
}

// earlyOften holds the days-to-deadline samples of one group.
type earlyOften struct {
	stmts, solutionStmts, testStmts        Weighted
	solutionMethods, testMethods           Weighted
	bytes, solutionBytes, testBytes        Weighted
	launches, testLaunches, normalLaunches Weighted
}

func (eo *earlyOften) edit(d EditDelta, days float64) {
	eo.stmts.Add(days, d.Stmts)
	eo.bytes.Add(days, d.Bytes)
	if d.Test {
		eo.testStmts.Add(days, d.Stmts)
		eo.testMethods.Add(days, d.Methods)
		eo.testBytes.Add(days, d.Bytes)
		return
	}
	eo.solutionStmts.Add(days, d.Stmts)
	eo.solutionMethods.Add(days, d.Methods)
	eo.solutionBytes.Add(days, d.Bytes)
}

// launch counts every launch; only Test and Normal subtypes feed their own
// indices, so e.g. Debug launches count towards launchEarlyOften alone.
func (eo *earlyOften) launch(e sensordata.Event, days float64) {
	eo.launches.Add(days, 1)
	switch e.Subtype {
	case sensordata.SubtypeTest:
		eo.testLaunches.Add(days, 1)
	case sensordata.SubtypeNormal:
		eo.normalLaunches.Add(days, 1)
	}
}

// EarlyOften computes the early/often indices of g against the deadline due
// (epoch ms). It always returns a record; indices without data are Missing.
func EarlyOften(g sensordata.Group, due int64, opts EarlyOftenOptions) EarlyOftenRecord {
	var eo earlyOften
	sizes := NewFileSizes()

	visit := func(s segment.Segment) {
		for _, e := range s.Events {
			days := sensordata.DaysBetween(e.Time, due, opts.Location)
			if days < -opts.LateCutoffDays {
				continue
			}
			switch {
			case e.IsEdit():
				eo.edit(sizes.Apply(e), float64(days))
			case e.IsLaunch():
				eo.launch(e, float64(days))
			}
		}
	}

	if opts.Reset == ResetGroup || opts.Segmenter == nil {
		visit(segment.Segment{Events: g.Events})
	} else {
		walk(opts.Segmenter.Split(g.Events), sizes, opts.Reset, visit)
	}

	return EarlyOftenRecord{
		ProjectID:  g.Key.ProjectID,
		UserID:     g.Key.UserID,
		Email:      g.Email,
		Assignment: g.Key.Assignment,

		EarlyOftenIndex:                eo.stmts.Mean(),
		SolutionStmtEarlyOftenIndex:    eo.solutionStmts.Mean(),
		SolutionMethodsEarlyOftenIndex: eo.solutionMethods.Mean(),
		TestStmtsEarlyOftenIndex:       eo.testStmts.Mean(),
		TestMethodsEarlyOftenIndex:     eo.testMethods.Mean(),
		LaunchEarlyOften:               eo.launches.Mean(),
		TestLaunchEarlyOften:           eo.testLaunches.Mean(),
		NormalLaunchEarlyOften:         eo.normalLaunches.Mean(),

		ByteEarlyOftenIndex:         eo.bytes.Mean(),
		SolutionByteEarlyOftenIndex: eo.solutionBytes.Mean(),
		TestByteEarlyOftenIndex:     eo.testBytes.Mean(),
		StmtEditMedian:              eo.stmts.Median(),
		StmtEditSd:                  eo.stmts.StdDev(),
		ByteEditMedian:              eo.bytes.Median(),
		ByteEditSd:                  eo.bytes.StdDev(),
		LaunchMedian:                eo.launches.Median(),
		LaunchSd:                    eo.launches.StdDev(),
		TestLaunchMedian:            eo.testLaunches.Median(),
		TestLaunchSd:                eo.testLaunches.StdDev(),
		NormalLaunchMedian:          eo.normalLaunches.Median(),
		NormalLaunchSd:              eo.normalLaunches.StdDev(),
	}
}

// MissingEarlyOften is the record emitted for a group whose deadline is
// unknown.
func MissingEarlyOften(g sensordata.Group) EarlyOftenRecord {
	return EarlyOftenRecord{
		ProjectID:  g.Key.ProjectID,
		UserID:     g.Key.UserID,
		Email:      g.Email,
		Assignment: g.Key.Assignment,
	}
}

// DeadlineResolver finds the deadline of a group: a fixed deadline when one
// is set, otherwise a due-date lookup by term and assignment.
type DeadlineResolver struct {
	Fixed    int64
	DueDates *sensordata.DueDates
	Location *time.Location
}

// Resolve returns the deadline for g.
func (r DeadlineResolver) Resolve(g sensordata.Group) (int64, bool) {
	if r.Fixed > 0 {
		return r.Fixed, true
	}
	if len(g.Events) == 0 {
		return 0, false
	}
	term := sensordata.Term(g.Events[0].Time, r.Location)
	return r.DueDates.Lookup(term, g.Key.Assignment)
}
