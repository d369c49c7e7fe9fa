package analyzer

import (
	"time"

	"github.com/elliotchance/orderedmap/v2"

	"github.com/blackwell-systems/sensorkit/internal/sensordata"
)

// DuplicateRecord is an Import event that repeats an earlier Import of the
// same user, project and time.
type DuplicateRecord struct {
	UserID    string `csv:"userId" json:"userId"`
	ProjectID string `csv:"projectId" json:"projectId"`
	Time      int64  `csv:"time" json:"time"`
	URI       string `csv:"uri" json:"uri"`
	Subtype   string `csv:"subtype" json:"subtype"`
}

// Duplicates scans events in input order and reports every Import event whose
// (userId, projectId, time) was already seen on an earlier Import. The first
// occurrence is never reported; each later repeat is reported once.
func Duplicates(events []sensordata.Event) []DuplicateRecord {
	type importKey struct {
		user, project string
		time          int64
	}
	seen := make(map[importKey]struct{})
	var out []DuplicateRecord
	for _, e := range events {
		if e.Subtype != sensordata.SubtypeImport {
			continue
		}
		k := importKey{user: e.UserID, project: e.ProjectID, time: e.Time}
		if _, dup := seen[k]; !dup {
			seen[k] = struct{}{}
			continue
		}
		out = append(out, DuplicateRecord{
			UserID:    e.UserID,
			ProjectID: e.ProjectID,
			Time:      e.Time,
			URI:       e.URI,
			Subtype:   e.Subtype,
		})
	}
	return out
}

// TimeSpentRecord is the total work-session time of one group.
type TimeSpentRecord struct {
	UserID           string  `csv:"userId" json:"userId"`
	ProjectID        string  `csv:"projectId" json:"projectId"`
	Assignment       string  `csv:"assignment" json:"assignment"`
	HoursOnProject   float64 `csv:"hoursOnProject" json:"hoursOnProject"`
	ProjectStartTime int64   `csv:"projectStartTime" json:"projectStartTime"`
}

// TimeSpent sums end_time - start_time over the work sessions of each group,
// in hours. Groups appear in first-seen order.
func TimeSpent(sessions []WorkSessionRecord) []TimeSpentRecord {
	totals := orderedmap.NewOrderedMap[sensordata.GroupKey, *TimeSpentRecord]()
	spent := make(map[sensordata.GroupKey]int64)
	for _, ws := range sessions {
		key := sensordata.GroupKey{UserID: ws.UserID, ProjectID: ws.ProjectID, Assignment: ws.Assignment}
		r, ok := totals.Get(key)
		if !ok {
			r = &TimeSpentRecord{UserID: ws.UserID, ProjectID: ws.ProjectID, Assignment: ws.Assignment, ProjectStartTime: ws.StartTime}
			totals.Set(key, r)
		}
		r.ProjectStartTime = min(r.ProjectStartTime, ws.StartTime)
		spent[key] += ws.EndTime - ws.StartTime
	}

	out := make([]TimeSpentRecord, 0, totals.Len())
	for el := totals.Front(); el != nil; el = el.Next() {
		r := *el.Value
		r.HoursOnProject = float64(spent[el.Key]) / float64(time.Hour.Milliseconds())
		out = append(out, r)
	}
	return out
}

// LaunchCountRecord is the launch total of one group.
type LaunchCountRecord struct {
	UserID         string `csv:"userId" json:"userId"`
	ProjectID      string `csv:"projectId" json:"projectId"`
	Assignment     string `csv:"assignment" json:"assignment"`
	NormalLaunches int    `csv:"normalLaunches" json:"normalLaunches"`
	TestLaunches   int    `csv:"testLaunches" json:"testLaunches"`
}

// LaunchCounts sums the launches of each group's work sessions.
func LaunchCounts(sessions []WorkSessionRecord) []LaunchCountRecord {
	totals := orderedmap.NewOrderedMap[sensordata.GroupKey, *LaunchCountRecord]()
	for _, ws := range sessions {
		key := sensordata.GroupKey{UserID: ws.UserID, ProjectID: ws.ProjectID, Assignment: ws.Assignment}
		r, ok := totals.Get(key)
		if !ok {
			r = &LaunchCountRecord{UserID: ws.UserID, ProjectID: ws.ProjectID, Assignment: ws.Assignment}
			totals.Set(key, r)
		}
		r.NormalLaunches += ws.NormalLaunches
		r.TestLaunches += ws.TestLaunches
	}

	out := make([]LaunchCountRecord, 0, totals.Len())
	for el := totals.Front(); el != nil; el = el.Next() {
		out = append(out, *el.Value)
	}
	return out
}

// EditSummaryRecord describes the distribution of statement edit sizes per
// subsession.
type EditSummaryRecord struct {
	UserID        string `csv:"userId" json:"userId"`
	ProjectID     string `csv:"projectId" json:"projectId"`
	WorkSessionID int    `csv:"workSessionId" json:"workSessionId"`
	Assignment    string `csv:"assignment" json:"assignment"`
	Min           Metric `csv:"min" json:"min"`
	Q1            Metric `csv:"q1" json:"q1"`
	Q2            Metric `csv:"q2" json:"q2"`
	Q3            Metric `csv:"q3" json:"q3"`
	Max           Metric `csv:"max" json:"max"`
	Mean          Metric `csv:"mean" json:"mean"`
	S             Metric `csv:"s" json:"s"`
	N             int    `csv:"n" json:"n"`
}

// EditSummary summarizes editSizeStmts + testEditSizeStmts over subsessions,
// per group or, with byWorkSession, per work session. Without byWorkSession
// the workSessionId column holds the group's last work session id.
func EditSummary(subsessions []SubsessionRecord, byWorkSession bool) []EditSummaryRecord {
	type summaryKey struct {
		group sensordata.GroupKey
		ws    int
	}
	type bucket struct {
		rec   EditSummaryRecord
		sizes []float64
	}

	buckets := orderedmap.NewOrderedMap[summaryKey, *bucket]()
	for _, s := range subsessions {
		key := summaryKey{group: sensordata.GroupKey{UserID: s.UserID, ProjectID: s.ProjectID, Assignment: s.Assignment}}
		if byWorkSession {
			key.ws = s.WorkSessionID
		}
		b, ok := buckets.Get(key)
		if !ok {
			b = &bucket{rec: EditSummaryRecord{UserID: s.UserID, ProjectID: s.ProjectID, Assignment: s.Assignment}}
			buckets.Set(key, b)
		}
		b.rec.WorkSessionID = s.WorkSessionID
		b.sizes = append(b.sizes, float64(s.EditSizeStmts+s.TestEditSizeStmts))
	}

	out := make([]EditSummaryRecord, 0, buckets.Len())
	for el := buckets.Front(); el != nil; el = el.Next() {
		r := el.Value.rec
		sum := Summarize(el.Value.sizes)
		r.Min, r.Q1, r.Q2, r.Q3, r.Max = sum.Min, sum.Q1, sum.Q2, sum.Q3, sum.Max
		r.Mean, r.S, r.N = sum.Mean, sum.S, sum.N
		out = append(out, r)
	}
	return out
}
