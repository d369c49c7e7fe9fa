// Package sensordata provides types and loaders for IDE telemetry
// ("sensordata") event logs and the reference data used to interpret them.
package sensordata

// Event types recorded by the IDE sensor.
const (
	TypeEdit        = "Edit"
	TypeLaunch      = "Launch"
	TypeTermination = "Termination"
	TypeDebug       = "Debug"
	TypeSubmission  = "Submission"
)

// Event subtypes that carry meaning for the analyses.
const (
	SubtypeNormal = "Normal"
	SubtypeTest   = "Test"
	SubtypeImport = "Import"
)

// Event is a single telemetry record. Events are immutable once loaded; the
// analyses assume non-decreasing Time within a group.
type Event struct {
	UserID     string
	Email      string
	ProjectID  string
	Assignment string

	// Time is the event timestamp in epoch milliseconds.
	Time int64

	Type       string
	Subtype    string
	Subsubtype string

	ClassName string
	UnitType  string
	UnitName  string
	URI       string

	OnTestCase bool

	CurrentStatements     int64
	CurrentMethods        int64
	CurrentSize           int64
	CurrentTestAssertions int64

	// Line is the 1-based line number of the record in its source file.
	Line int
	// Raw holds the original record, aligned with Table.Header.
	Raw []string
}

// IsEdit reports whether the event is an edit to an identifiable file.
func (e Event) IsEdit() bool {
	return e.Type == TypeEdit && e.ClassName != ""
}

// IsLaunch reports whether the event is a program or test launch.
func (e Event) IsLaunch() bool {
	return e.Type == TypeLaunch
}

// IsTestLaunch reports whether the event launched the test suite.
func (e Event) IsTestLaunch() bool {
	return e.Type == TypeLaunch && e.Subtype == SubtypeTest
}

// IsTestTermination reports whether the event reports the outcome of a test run.
func (e Event) IsTestTermination() bool {
	return e.Type == TypeTermination && e.Subtype == SubtypeTest
}

// Key returns the grouping key of the event.
func (e Event) Key() GroupKey {
	return GroupKey{UserID: e.UserID, ProjectID: e.ProjectID, Assignment: e.Assignment}
}

// GroupKey identifies one student working on one project/assignment.
type GroupKey struct {
	UserID     string
	ProjectID  string
	Assignment string
}

// Group is the chronologically ordered event stream of one GroupKey.
type Group struct {
	Key    GroupKey
	Email  string
	Events []Event
}

// Table is the result of loading one or more event files.
type Table struct {
	// Header is the column list of the first file loaded.
	Header []string
	Events []Event
	// Skipped counts rows dropped because of malformed numeric fields.
	Skipped int
}
