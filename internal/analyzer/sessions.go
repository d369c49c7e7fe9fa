package analyzer

import (
	"github.com/blackwell-systems/sensorkit/internal/segment"
	"github.com/blackwell-systems/sensorkit/internal/sensordata"
)

// WorkSessionRecord is one row of the work-session report.
type WorkSessionRecord struct {
	ProjectID           string `csv:"projectId" json:"projectId"`
	UserID              string `csv:"userId" json:"userId"`
	Assignment          string `csv:"assignment" json:"assignment"`
	WorkSessionID       int    `csv:"workSessionId" json:"workSessionId"`
	StartTime           int64  `csv:"start_time" json:"start_time"`
	EndTime             int64  `csv:"end_time" json:"end_time"`
	NormalLaunches      int    `csv:"normalLaunches" json:"normalLaunches"`
	TestLaunches        int    `csv:"testLaunches" json:"testLaunches"`
	EditSizeStmts       int64  `csv:"editSizeStmts" json:"editSizeStmts"`
	TestEditSizeStmts   int64  `csv:"testEditSizeStmts" json:"testEditSizeStmts"`
	EditSizeMethods     int64  `csv:"editSizeMethods" json:"editSizeMethods"`
	TestEditSizeMethods int64  `csv:"testEditSizeMethods" json:"testEditSizeMethods"`
}

// SubsessionRecord is one row of the subsession report.
type SubsessionRecord struct {
	ProjectID           string `csv:"projectId" json:"projectId"`
	UserID              string `csv:"userId" json:"userId"`
	Assignment          string `csv:"CASSIGNMENTNAME" json:"CASSIGNMENTNAME"`
	Time                int64  `csv:"time" json:"time"`
	WorkSessionID       int    `csv:"workSessionId" json:"workSessionId"`
	EditSizeStmts       int64  `csv:"editSizeStmts" json:"editSizeStmts"`
	TestEditSizeStmts   int64  `csv:"testEditSizeStmts" json:"testEditSizeStmts"`
	EditSizeMethods     int64  `csv:"editSizeMethods" json:"editSizeMethods"`
	TestEditSizeMethods int64  `csv:"testEditSizeMethods" json:"testEditSizeMethods"`
	LaunchType          string `csv:"launchType" json:"launchType"`
	WSStartTime         int64  `csv:"wsStartTime" json:"wsStartTime"`
}

// walk visits segments in order, clearing sizes before each segment that
// starts a new reset scope.
func walk(segs []segment.Segment, sizes *FileSizes, reset Reset, fn func(segment.Segment)) {
	for i, s := range segs {
		switch reset {
		case ResetSubsession:
			sizes.Reset()
		case ResetWorkSession:
			if i == 0 || segs[i-1].WorkSessionID != s.WorkSessionID {
				sizes.Reset()
			}
		}
		fn(s)
	}
}

// WorkSessions reports edit and launch totals for each work session of g.
// Subsession boundaries only matter when reset is ResetSubsession.
func WorkSessions(g sensordata.Group, seg *segment.Segmenter, reset Reset) []WorkSessionRecord {
	var (
		out   []WorkSessionRecord
		acc   *Accumulator
		sizes = NewFileSizes()
		ws    = -1
	)
	flush := func() {
		if acc == nil {
			return
		}
		r := &out[len(out)-1]
		r.NormalLaunches = acc.Launches.Normal
		r.TestLaunches = acc.Launches.Test
		r.EditSizeStmts = acc.Edits.SolutionStmts
		r.TestEditSizeStmts = acc.Edits.TestStmts
		r.EditSizeMethods = acc.Edits.SolutionMethods
		r.TestEditSizeMethods = acc.Edits.TestMethods
	}

	walk(seg.Split(g.Events), sizes, reset, func(s segment.Segment) {
		if s.WorkSessionID != ws {
			flush()
			ws = s.WorkSessionID
			acc = NewAccumulator(sizes)
			out = append(out, WorkSessionRecord{
				ProjectID:     g.Key.ProjectID,
				UserID:        g.Key.UserID,
				Assignment:    g.Key.Assignment,
				WorkSessionID: ws,
				StartTime:     s.Start,
			})
		}
		out[len(out)-1].EndTime = s.End
		for _, e := range s.Events {
			acc.Observe(e)
		}
	})
	flush()
	return out
}

// Subsessions reports edit totals for each subsession of g.
func Subsessions(g sensordata.Group, seg *segment.Segmenter, reset Reset) []SubsessionRecord {
	sizes := NewFileSizes()
	var out []SubsessionRecord
	walk(seg.Split(g.Events), sizes, reset, func(s segment.Segment) {
		acc := NewAccumulator(sizes)
		for _, e := range s.Events {
			acc.Observe(e)
		}
		out = append(out, SubsessionRecord{
			ProjectID:           g.Key.ProjectID,
			UserID:              g.Key.UserID,
			Assignment:          g.Key.Assignment,
			Time:                s.Time(),
			WorkSessionID:       s.WorkSessionID,
			EditSizeStmts:       acc.Edits.SolutionStmts,
			TestEditSizeStmts:   acc.Edits.TestStmts,
			EditSizeMethods:     acc.Edits.SolutionMethods,
			TestEditSizeMethods: acc.Edits.TestMethods,
			LaunchType:          s.LaunchType(),
			WSStartTime:         s.WorkSessionStart,
		})
	})
	return out
}
