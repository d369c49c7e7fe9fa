// Package store provides SQLite persistence for sensorkit run history.
package store

import "time"

// Run records one invocation of an analysis command.
type Run struct {
	ID        string        `json:"id"`
	StartedAt time.Time     `json:"started_at"`
	Command   string        `json:"command"`
	Inputs    string        `json:"inputs"`
	Output    string        `json:"output"`
	Version   string        `json:"version"`
	Groups    int           `json:"groups"`
	Events    int           `json:"events"`
	Skipped   int           `json:"skipped_rows"`
	Records   int           `json:"records"`
	Duration  time.Duration `json:"duration_ns"`
}

// RunMetric is a named value computed during a run, e.g. the share of groups
// with a valid early/often index.
type RunMetric struct {
	RunID  string  `json:"-"`
	Name   string  `json:"name"`
	Value  float64 `json:"value"`
	Detail string  `json:"detail,omitempty"`
}

// RunDelta compares one run with the previous run of the same command.
type RunDelta struct {
	Run      Run
	Previous *Run
}

// RecordDelta is the change in emitted records since the previous run, or 0
// when there is none.
func (d RunDelta) RecordDelta() int {
	if d.Previous == nil {
		return 0
	}
	return d.Run.Records - d.Previous.Records
}
