package sensordata

import (
	"cmp"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/elliotchance/orderedmap/v2"
	"go.uber.org/zap"
)

// Column names used by the IDE sensor exports.
const (
	ColUserID                = "userId"
	ColEmail                 = "email"
	ColUserName              = "userName"
	ColProjectID             = "projectId"
	ColCleanedAssignment     = "cleaned_assignment"
	ColAssignmentName        = "CASSIGNMENTNAME"
	ColAssignment            = "assignment"
	ColTime                  = "time"
	ColClassName             = "Class-Name"
	ColUnitType              = "Unit-Type"
	ColUnitName              = "Unit-Name"
	ColType                  = "Type"
	ColSubtype               = "Subtype"
	ColSubsubtype            = "Subsubtype"
	ColOnTestCase            = "onTestCase"
	ColCurrentStatements     = "Current-Statements"
	ColCurrentMethods        = "Current-Methods"
	ColCurrentSize           = "Current-Size"
	ColCurrentTestAssertions = "Current-Test-Assertions"
	ColURI                   = "uri"
)

// userColumns and assignmentColumns list accepted aliases in priority order.
var (
	userColumns       = []string{ColUserID, ColEmail, ColUserName}
	assignmentColumns = []string{ColCleanedAssignment, ColAssignmentName, ColAssignment}
)

const cleanHint = "run 'sensorkit clean' on the raw export first"

var (
	errNotFinite  = errors.New("value is not finite")
	errOutOfRange = errors.New("value is out of range for a 64-bit integer")
)

// LoadOptions configures Load.
type LoadOptions struct {
	// RequireCleaned demands a cleaned_assignment column instead of accepting
	// the raw assignment aliases.
	RequireCleaned     bool
	// OptionalAssignment accepts files without any assignment column and
	// leaves Event.Assignment empty.
	OptionalAssignment bool
	Logger             *zap.Logger
}

// ExpandInputs resolves each pattern to the files it names. Plain paths must
// exist; glob patterns (doublestar syntax) must match at least one file.
func ExpandInputs(patterns []string) ([]string, error) {
	var paths []string
	for _, p := range patterns {
		if !strings.ContainsAny(p, "*?[{") {
			if _, err := os.Stat(p); err != nil {
				if os.IsNotExist(err) {
					return nil, &MissingFileError{Path: p}
				}
				return nil, err
			}
			paths = append(paths, p)
			continue
		}
		matches, err := doublestar.FilepathGlob(p)
		if err != nil {
			return nil, fmt.Errorf("expanding %q: %w", p, err)
		}
		if len(matches) == 0 {
			return nil, &MissingFileError{Path: p}
		}
		slices.Sort(matches)
		paths = append(paths, matches...)
	}
	return paths, nil
}

// Load reads event CSV files named by patterns. Rows with malformed numeric
// fields are logged and skipped; missing files and missing required columns
// are returned as errors.
func Load(ctx context.Context, patterns []string, opts LoadOptions) (*Table, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	paths, err := ExpandInputs(patterns)
	if err != nil {
		return nil, err
	}

	table := &Table{}
	for _, path := range paths {
		if err := loadFile(ctx, path, table, opts, logger); err != nil {
			return nil, err
		}
	}
	return table, nil
}

// LoadReader reads events from a single CSV stream. name is used in errors.
func LoadReader(ctx context.Context, name string, r io.Reader, opts LoadOptions) (*Table, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	table := &Table{}
	if err := readEvents(ctx, name, r, table, opts, logger); err != nil {
		return nil, err
	}
	return table, nil
}

func loadFile(ctx context.Context, path string, table *Table, opts LoadOptions, logger *zap.Logger) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &MissingFileError{Path: path}
		}
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	logger.Debug("reading sensordata", zap.String("path", path))
	return readEvents(ctx, path, f, table, opts, logger)
}

// columns maps logical fields to record indexes; -1 means absent.
type columns struct {
	user, email, project, assignment int
	time, typ, sub, subsub           int
	class, unitType, unitName, uri   int
	onTest, stmts, methods, size     int
	assertions                       int
	toFirst                          []int
}

func readEvents(ctx context.Context, name string, r io.Reader, table *Table, opts LoadOptions, logger *zap.Logger) error {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err == io.EOF {
		return &MissingColumnError{Path: name, Column: ColTime}
	}
	if err != nil {
		return fmt.Errorf("reading header of %s: %w", name, err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	header = slices.Clone(header)

	cols, err := resolveColumns(name, header, table.Header, opts)
	if err != nil {
		return err
	}
	if table.Header == nil {
		table.Header = header
	}

	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return fmt.Errorf("reading %s: %w", name, err)
		}
		if line%10000 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}

		event, err := parseEvent(name, line, record, cols)
		if err != nil {
			var malformed *MalformedNumericError
			if errors.As(err, &malformed) {
				logger.Warn("skipping row with malformed numeric field",
					zap.String("path", name),
					zap.Int("line", malformed.Line),
					zap.String("field", malformed.Field),
					zap.String("value", malformed.Value))
				table.Skipped++
				continue
			}
			return err
		}
		table.Events = append(table.Events, event)
	}
	return nil
}

func resolveColumns(name string, header, firstHeader []string, opts LoadOptions) (columns, error) {
	index := make(map[string]int, len(header))
	for i, h := range header {
		if _, seen := index[h]; !seen {
			index[h] = i
		}
	}
	find := func(col string) int {
		if i, ok := index[col]; ok {
			return i
		}
		return -1
	}
	first := func(aliases []string) int {
		for _, a := range aliases {
			if i := find(a); i >= 0 {
				return i
			}
		}
		return -1
	}

	c := columns{
		user:       first(userColumns),
		email:      find(ColEmail),
		project:    find(ColProjectID),
		assignment: first(assignmentColumns),
		time:       find(ColTime),
		class:      find(ColClassName),
		unitType:   find(ColUnitType),
		unitName:   find(ColUnitName),
		typ:        find(ColType),
		sub:        find(ColSubtype),
		subsub:     find(ColSubsubtype),
		onTest:     find(ColOnTestCase),
		stmts:      find(ColCurrentStatements),
		methods:    find(ColCurrentMethods),
		size:       find(ColCurrentSize),
		assertions: find(ColCurrentTestAssertions),
		uri:        find(ColURI),
	}

	switch {
	case c.time < 0:
		return c, &MissingColumnError{Path: name, Column: ColTime}
	case c.typ < 0:
		return c, &MissingColumnError{Path: name, Column: ColType}
	case c.user < 0:
		return c, &MissingColumnError{Path: name, Column: ColUserID}
	case opts.RequireCleaned && find(ColCleanedAssignment) < 0:
		return c, &MissingColumnError{Path: name, Column: ColCleanedAssignment, Hint: cleanHint}
	case c.assignment < 0 && !opts.OptionalAssignment:
		return c, &MissingColumnError{Path: name, Column: ColCleanedAssignment, Hint: cleanHint}
	}

	// Later files are projected onto the first file's columns so Raw stays
	// aligned with Table.Header.
	if firstHeader != nil {
		c.toFirst = make([]int, len(firstHeader))
		for i, h := range firstHeader {
			c.toFirst[i] = find(h)
		}
	}
	return c, nil
}

func parseEvent(name string, line int, record []string, c columns) (Event, error) {
	field := func(i int) string {
		if i < 0 || i >= len(record) {
			return ""
		}
		return record[i]
	}
	numeric := func(i int, col string) (int64, error) {
		v := field(i)
		n, err := ParseNumeric(v)
		if err != nil {
			return 0, &MalformedNumericError{Path: name, Line: line, Field: col, Value: v, Err: err}
		}
		return n, nil
	}

	e := Event{
		UserID:     field(c.user),
		Email:      field(c.email),
		ProjectID:  field(c.project),
		Assignment: field(c.assignment),
		Type:       field(c.typ),
		Subtype:    field(c.sub),
		Subsubtype: field(c.subsub),
		ClassName:  field(c.class),
		UnitType:   field(c.unitType),
		UnitName:   field(c.unitName),
		URI:        field(c.uri),
		Line:       line,
	}

	var err error
	if strings.TrimSpace(field(c.time)) == "" {
		return e, &MalformedNumericError{Path: name, Line: line, Field: ColTime, Value: "", Err: strconv.ErrSyntax}
	}
	if e.Time, err = numeric(c.time, ColTime); err != nil {
		return e, err
	}
	onTest, err := numeric(c.onTest, ColOnTestCase)
	if err != nil {
		return e, err
	}
	e.OnTestCase = onTest == 1
	if e.CurrentStatements, err = numeric(c.stmts, ColCurrentStatements); err != nil {
		return e, err
	}
	if e.CurrentMethods, err = numeric(c.methods, ColCurrentMethods); err != nil {
		return e, err
	}
	if e.CurrentSize, err = numeric(c.size, ColCurrentSize); err != nil {
		return e, err
	}
	if e.CurrentTestAssertions, err = numeric(c.assertions, ColCurrentTestAssertions); err != nil {
		return e, err
	}

	if c.toFirst == nil {
		e.Raw = record
	} else {
		e.Raw = make([]string, len(c.toFirst))
		for i, src := range c.toFirst {
			e.Raw[i] = field(src)
		}
	}
	return e, nil
}

// ParseNumeric converts a numeric string to an integer by parsing it as a
// float and truncating toward zero, so scientific notation such as "1.23E7"
// is accepted. The empty string is 0.
func ParseNumeric(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, errNotFinite
	}
	// float64(math.MaxInt64) rounds up to 2^63, which does not fit.
	if f >= math.MaxInt64 || f < math.MinInt64 {
		return 0, errOutOfRange
	}
	return int64(f), nil
}

// GroupEvents splits events by GroupKey, keeping groups in first-seen order
// and sorting each group by ascending time. Ties keep input order.
func GroupEvents(events []Event) []Group {
	groups := orderedmap.NewOrderedMap[GroupKey, *Group]()
	for _, e := range events {
		key := e.Key()
		g, ok := groups.Get(key)
		if !ok {
			g = &Group{Key: key}
			groups.Set(key, g)
		}
		if g.Email == "" {
			g.Email = e.Email
		}
		g.Events = append(g.Events, e)
	}

	out := make([]Group, 0, groups.Len())
	for el := groups.Front(); el != nil; el = el.Next() {
		g := el.Value
		slices.SortStableFunc(g.Events, func(a, b Event) int {
			return cmp.Compare(a.Time, b.Time)
		})
		out = append(out, *g)
	}
	return out
}
