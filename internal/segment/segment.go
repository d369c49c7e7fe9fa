package segment

import (
	"github.com/blackwell-systems/sensorkit/internal/sensordata"
)

// OrphanID is the subsession id of events seen before the first delimiter of
// a work session under Forward direction.
const OrphanID = -1

// Segment is a contiguous run of events belonging to one subsession of one
// work session.
type Segment struct {
	WorkSessionID int
	SubsessionID  int

	// Start and End are the times of the first and last event.
	Start int64
	End   int64
	// WorkSessionStart is the time of the first event of the work session.
	WorkSessionStart int64

	Events []sensordata.Event

	// Delimiter is the event that opened (Forward) or closed (Backward) the
	// segment. Nil for orphan and trailing segments.
	Delimiter *sensordata.Event
	// Closed is true when a boundary ended the segment, false when it was
	// flushed at the end of its work session.
	Closed bool
}

// Time is the delimiter time, or the last event time when there is none.
func (s Segment) Time() int64 {
	if s.Delimiter != nil {
		return s.Delimiter.Time
	}
	return s.End
}

// NoLaunchType is the launch type of a segment without a delimiter subtype.
const NoLaunchType = "N/A"

// LaunchType is the delimiter subtype, or NoLaunchType when there is none.
func (s Segment) LaunchType() string {
	if s.Delimiter != nil && s.Delimiter.Subtype != "" {
		return s.Delimiter.Subtype
	}
	return NoLaunchType
}

// Segmenter applies a Policy to ordered event streams. It holds no state
// between calls and is safe for concurrent use.
type Segmenter struct {
	policy Policy
}

// New returns a Segmenter for p.
func New(p Policy) *Segmenter {
	return &Segmenter{policy: p}
}

// Policy returns the segmenter's policy.
func (s *Segmenter) Policy() Policy {
	return s.policy
}

// WorkSessions splits events on inactivity gaps only. Each returned segment
// is a whole work session with SubsessionID 0.
func (s *Segmenter) WorkSessions(events []sensordata.Event) []Segment {
	var out []Segment
	for id, run := range s.gapRuns(events) {
		seg := Segment{WorkSessionID: id, WorkSessionStart: run[0].Time, Events: run}
		seg.bounds()
		out = append(out, seg)
	}
	return out
}

// Split segments one group's events into subsessions within work sessions.
// Events must be sorted by time. Subsession ids restart at each work session.
// With no delimiters configured every work session is a single segment.
func (s *Segmenter) Split(events []sensordata.Event) []Segment {
	if len(s.policy.Delimiters) == 0 {
		return s.WorkSessions(events)
	}
	var out []Segment
	for id, run := range s.gapRuns(events) {
		if s.policy.Direction == Backward {
			out = s.splitBackward(out, id, run)
		} else {
			out = s.splitForward(out, id, run)
		}
	}
	return out
}

// gapRuns returns the work sessions of events as subslices.
func (s *Segmenter) gapRuns(events []sensordata.Event) [][]sensordata.Event {
	if len(events) == 0 {
		return nil
	}
	var runs [][]sensordata.Event
	start := 0
	for i := 1; i < len(events); i++ {
		if s.policy.Gap > 0 && events[i].Time-events[i-1].Time > s.policy.Gap {
			runs = append(runs, events[start:i:i])
			start = i
		}
	}
	return append(runs, events[start:])
}

// repeats tracks the last delimiter subtype for CollapseRepeats.
type repeats struct {
	enabled bool
	seen    bool
	subtype string
}

func (r *repeats) observe(e sensordata.Event) {
	if e.Type == sensordata.TypeEdit {
		r.seen = false
	}
}

// fires reports whether delimiter e starts a boundary and remembers it.
func (r *repeats) fires(e sensordata.Event) bool {
	if r.enabled && r.seen && r.subtype == e.Subtype {
		return false
	}
	r.seen, r.subtype = true, e.Subtype
	return true
}

func (s *Segmenter) splitForward(out []Segment, wsID int, events []sensordata.Event) []Segment {
	rep := repeats{enabled: s.policy.CollapseRepeats}
	wsStart := events[0].Time
	cur := Segment{WorkSessionID: wsID, SubsessionID: OrphanID, WorkSessionStart: wsStart}
	next := 0

	for _, e := range events {
		rep.observe(e)
		if s.policy.IsDelimiter(e) && rep.fires(e) {
			if len(cur.Events) > 0 {
				cur.Closed = true
				out = append(out, cur.bounds())
			}
			delim := e
			cur = Segment{WorkSessionID: wsID, SubsessionID: next, WorkSessionStart: wsStart, Delimiter: &delim}
			next++
		}
		cur.Events = append(cur.Events, e)
	}
	if len(cur.Events) > 0 {
		out = append(out, cur.bounds())
	}
	return out
}

func (s *Segmenter) splitBackward(out []Segment, wsID int, events []sensordata.Event) []Segment {
	rep := repeats{enabled: s.policy.CollapseRepeats}
	wsStart := events[0].Time
	cur := Segment{WorkSessionID: wsID, WorkSessionStart: wsStart}

	for _, e := range events {
		rep.observe(e)
		cur.Events = append(cur.Events, e)
		if s.policy.IsDelimiter(e) && rep.fires(e) {
			delim := e
			cur.Delimiter = &delim
			cur.Closed = true
			out = append(out, cur.bounds())
			cur = Segment{WorkSessionID: wsID, SubsessionID: cur.SubsessionID + 1, WorkSessionStart: wsStart}
		}
	}
	if len(cur.Events) > 0 {
		out = append(out, cur.bounds())
	}
	return out
}

// bounds sets Start and End from the segment's events.
func (s *Segment) bounds() Segment {
	if n := len(s.Events); n > 0 {
		s.Start = s.Events[0].Time
		s.End = s.Events[n-1].Time
	}
	return *s
}
