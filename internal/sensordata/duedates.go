package sensordata

import (
	"cmp"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/zhangjyr/gocsv"
)

// DueDates maps a term and an assignment key to the assignment deadline in
// epoch milliseconds. It is read-only once loaded.
type DueDates struct {
	terms map[string]map[string]int64
}

// dueEntry is one assignment in the JSON due-date file. dueTime may be
// written as a number or a numeric string.
type dueEntry struct {
	DueTime json.RawMessage `json:"dueTime"`
}

// dueDateRow is one row of the CSV due-date file.
type dueDateRow struct {
	Term       string `csv:"term"`
	Assignment string `csv:"assignment"`
	DueTime    string `csv:"dueTime"`
}

var trailingNumber = regexp.MustCompile(`(\d+)\s*$`)

// NewDueDates builds a table from term -> assignment -> deadline (ms).
func NewDueDates(terms map[string]map[string]int64) *DueDates {
	d := &DueDates{terms: make(map[string]map[string]int64, len(terms))}
	for term, assignments := range terms {
		for name, due := range assignments {
			d.set(term, name, due)
		}
	}
	return d
}

// LoadDueDates reads a due-date file. Files ending in .csv are read as
// term,assignment,dueTime rows; anything else is read as JSON of the form
// {term: {assignmentN: {dueTime: ms}}}.
func LoadDueDates(path string) (*DueDates, error) {
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		return loadDueDatesCSV(path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &MissingFileError{Path: path}
		}
		return nil, err
	}

	var raw map[string]map[string]dueEntry
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing due dates %s: %w", path, err)
	}

	d := &DueDates{terms: make(map[string]map[string]int64, len(raw))}
	for term, assignments := range raw {
		for name, entry := range assignments {
			value := strings.Trim(string(entry.DueTime), `"`)
			due, err := ParseNumeric(value)
			if err != nil || value == "" {
				return nil, &MalformedNumericError{Path: path, Field: term + "." + name + ".dueTime", Value: value, Err: err}
			}
			d.set(term, name, due)
		}
	}
	return d, nil
}

func loadDueDatesCSV(path string) (*DueDates, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &MissingFileError{Path: path}
		}
		return nil, err
	}
	defer func() { _ = f.Close() }()

	var rows []*dueDateRow
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		return nil, fmt.Errorf("parsing due dates %s: %w", path, err)
	}

	d := &DueDates{terms: make(map[string]map[string]int64)}
	for i, row := range rows {
		due, err := ParseNumeric(row.DueTime)
		if err != nil || strings.TrimSpace(row.DueTime) == "" {
			return nil, &MalformedNumericError{Path: path, Line: i + 2, Field: "dueTime", Value: row.DueTime, Err: err}
		}
		d.set(row.Term, row.Assignment, due)
	}
	return d, nil
}

func (d *DueDates) set(term, assignment string, due int64) {
	if d.terms[term] == nil {
		d.terms[term] = make(map[string]int64)
	}
	d.terms[term][AssignmentKey(assignment)] = due
}

// Lookup returns the deadline of an assignment in a term.
func (d *DueDates) Lookup(term, assignment string) (int64, bool) {
	if d == nil {
		return 0, false
	}
	due, ok := d.terms[term][AssignmentKey(assignment)]
	return due, ok
}

// AssignmentFor guesses which assignment an event at time t belongs to: the
// first assignment (in number order) whose deadline plus offset is after t.
// The result is named "Project N".
func (d *DueDates) AssignmentFor(term string, t int64, offset time.Duration) (string, bool) {
	if d == nil {
		return "", false
	}
	type due struct {
		n    int
		time int64
	}
	var dues []due
	for key, ms := range d.terms[term] {
		m := trailingNumber.FindStringSubmatch(key)
		if m == nil {
			continue
		}
		n, _ := strconv.Atoi(m[1])
		dues = append(dues, due{n: n, time: ms})
	}
	slices.SortFunc(dues, func(a, b due) int { return cmp.Compare(a.n, b.n) })

	for _, dd := range dues {
		if t < dd.time+offset.Milliseconds() {
			return fmt.Sprintf("Project %d", dd.n), true
		}
	}
	return "", false
}

// AssignmentKey normalizes an assignment name to the key used in due-date
// files: "Project 3" and "assignment3" both become "assignment3". Names
// without a trailing number are lower-cased with spaces removed.
func AssignmentKey(name string) string {
	if m := trailingNumber.FindStringSubmatch(name); m != nil {
		n, _ := strconv.Atoi(m[1])
		return fmt.Sprintf("assignment%d", n)
	}
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(name), " ", ""))
}

// Term returns the academic term of an epoch-millisecond timestamp, e.g.
// "fall2016", "spring2017", "summer-1-2017".
func Term(ms int64, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	t := time.UnixMilli(ms).In(loc)
	year := t.Year()
	switch month := t.Month(); {
	case month >= time.August:
		return fmt.Sprintf("fall%d", year)
	case month == time.July:
		return fmt.Sprintf("summer-1-%d", year)
	case month == time.June:
		return fmt.Sprintf("summer-2-%d", year)
	default:
		return fmt.Sprintf("spring%d", year)
	}
}

// DaysBetween returns the number of calendar days from the date of fromMs
// to the date of toMs in loc. Times of day are ignored.
func DaysBetween(fromMs, toMs int64, loc *time.Location) int {
	if loc == nil {
		loc = time.Local
	}
	from := time.UnixMilli(fromMs).In(loc)
	to := time.UnixMilli(toMs).In(loc)
	a := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	b := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}
