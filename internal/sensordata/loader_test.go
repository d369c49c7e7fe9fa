package sensordata

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleHeader = "userId,email,projectId,cleaned_assignment,time,Class-Name,Unit-Type,Unit-Name,Type,Subtype,Subsubtype,onTestCase,Current-Statements,Current-Methods,Current-Size,Current-Test-Assertions\n"

func writeCSV(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestParseNumeric(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"", 0, false},
		{"42", 42, false},
		{" 7 ", 7, false},
		{"1.23E7", 12300000, false},
		{"1.4757E12", 1475700000000, false},
		{"3.9", 3, false},
		{"-3.9", -3, false},
		{"abc", 0, true},
		{"NaN", 0, true},
		{"Inf", 0, true},
		{"1e30", 0, true},
		{"-9.3e18", 0, true},
		{"9.2e18", 9200000000000000000, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseNumeric(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoad_ParsesEvents(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "events.csv", sampleHeader+
		"u1,u1@example.com,p1,Project 1,1.5E3,Foo.java,Class,Foo,Edit,,,0,10,2,300,0\n"+
		"u1,u1@example.com,p1,Project 1,2000,,,,Launch,Test,,,,,,\n")

	table, err := Load(context.Background(), []string{path}, LoadOptions{})
	require.NoError(t, err)
	require.Len(t, table.Events, 2)
	assert.Equal(t, 0, table.Skipped)

	e := table.Events[0]
	assert.Equal(t, "u1", e.UserID)
	assert.Equal(t, "u1@example.com", e.Email)
	assert.Equal(t, "Project 1", e.Assignment)
	assert.Equal(t, int64(1500), e.Time)
	assert.Equal(t, int64(10), e.CurrentStatements)
	assert.Equal(t, int64(2), e.CurrentMethods)
	assert.Equal(t, int64(300), e.CurrentSize)
	assert.False(t, e.OnTestCase)
	assert.True(t, e.IsEdit())
	assert.Equal(t, 2, e.Line)
	assert.Len(t, e.Raw, len(table.Header))

	assert.True(t, table.Events[1].IsTestLaunch())
	assert.False(t, table.Events[1].IsEdit())
}

func TestLoad_BOMHeader(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "bom.csv", "\ufefftime,Type,userId,assignment\n5,Edit,u,a1\n")

	table, err := Load(context.Background(), []string{path}, LoadOptions{})
	require.NoError(t, err)
	require.Len(t, table.Events, 1)
	assert.Equal(t, "time", table.Header[0])
	assert.Equal(t, int64(5), table.Events[0].Time)
}

func TestLoad_SkipsMalformedRows(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "events.csv", sampleHeader+
		"u1,,p1,Project 1,100,Foo.java,,,Edit,,,0,ten,0,0,0\n"+
		"u1,,p1,Project 1,,Foo.java,,,Edit,,,0,1,0,0,0\n"+
		"u1,,p1,Project 1,300,Foo.java,,,Edit,,,0,3,0,0,0\n")

	table, err := Load(context.Background(), []string{path}, LoadOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, table.Skipped)
	require.Len(t, table.Events, 1)
	assert.Equal(t, int64(300), table.Events[0].Time)
	assert.Equal(t, 4, table.Events[0].Line)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(context.Background(), []string{filepath.Join(t.TempDir(), "nope.csv")}, LoadOptions{})
	var missing *MissingFileError
	require.True(t, errors.As(err, &missing))
	assert.Contains(t, err.Error(), "nope.csv")
}

func TestLoad_GlobMatchingNothing(t *testing.T) {
	_, err := Load(context.Background(), []string{filepath.Join(t.TempDir(), "*.csv")}, LoadOptions{})
	var missing *MissingFileError
	assert.True(t, errors.As(err, &missing))
}

func TestLoad_MissingColumns(t *testing.T) {
	tests := []struct {
		name     string
		header   string
		opts     LoadOptions
		column   string
		wantHint bool
	}{
		{"no time", "userId,Type,assignment\n", LoadOptions{}, ColTime, false},
		{"no type", "userId,time,assignment\n", LoadOptions{}, ColType, false},
		{"no user", "time,Type,assignment\n", LoadOptions{}, ColUserID, false},
		{"no assignment", "userId,time,Type\n", LoadOptions{}, ColCleanedAssignment, true},
		{"not cleaned", "userId,time,Type,assignment\n", LoadOptions{RequireCleaned: true}, ColCleanedAssignment, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeCSV(t, t.TempDir(), "in.csv", tt.header)
			_, err := Load(context.Background(), []string{path}, tt.opts)

			var missing *MissingColumnError
			require.True(t, errors.As(err, &missing), "got %v", err)
			assert.Equal(t, tt.column, missing.Column)
			if tt.wantHint {
				assert.Contains(t, err.Error(), "sensorkit clean")
			}
		})
	}
}

func TestLoadReader_OptionalAssignment(t *testing.T) {
	in := "userId,time,Type,Class-Name,Current-Statements\nu1,1000,Edit,Foo.java,4\n"

	table, err := LoadReader(context.Background(), "raw.csv", strings.NewReader(in), LoadOptions{OptionalAssignment: true})
	require.NoError(t, err)
	require.Len(t, table.Events, 1)
	assert.Equal(t, "", table.Events[0].Assignment)
	assert.Equal(t, int64(4), table.Events[0].CurrentStatements)

	_, err = LoadReader(context.Background(), "raw.csv", strings.NewReader(in), LoadOptions{OptionalAssignment: true, RequireCleaned: true})
	var missing *MissingColumnError
	assert.True(t, errors.As(err, &missing))
}

func TestLoad_SkipsOutOfRangeSizes(t *testing.T) {
	path := writeCSV(t, t.TempDir(), "events.csv", sampleHeader+
		"u1,,p1,Project 1,100,Foo.java,,,Edit,,,0,1e30,0,0,0\n"+
		"u1,,p1,Project 1,200,Foo.java,,,Edit,,,0,7,0,0,0\n")

	table, err := Load(context.Background(), []string{path}, LoadOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, table.Skipped)
	require.Len(t, table.Events, 1)
	assert.Equal(t, int64(7), table.Events[0].CurrentStatements)
}

func TestLoad_AliasPriority(t *testing.T) {
	r := strings.NewReader("email,assignment,CASSIGNMENTNAME,time,Type\nx@y,raw,Project 2,1,Edit\n")
	table, err := LoadReader(context.Background(), "in.csv", r, LoadOptions{})
	require.NoError(t, err)
	require.Len(t, table.Events, 1)
	assert.Equal(t, "x@y", table.Events[0].UserID)
	assert.Equal(t, "Project 2", table.Events[0].Assignment)
}

func TestLoad_MultipleFilesAlignRaw(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, "a.csv", "userId,assignment,time,Type\nu1,a,1,Edit\n")
	writeCSV(t, dir, "b.csv", "Type,time,assignment,userId,extra\nLaunch,2,a,u1,zzz\n")

	table, err := Load(context.Background(), []string{filepath.Join(dir, "*.csv")}, LoadOptions{})
	require.NoError(t, err)
	require.Len(t, table.Events, 2)
	assert.Equal(t, []string{"userId", "assignment", "time", "Type"}, table.Header)
	assert.Equal(t, []string{"u1", "a", "2", "Launch"}, table.Events[1].Raw)
}

func TestLoad_Cancelled(t *testing.T) {
	var b strings.Builder
	b.WriteString("userId,assignment,time,Type\n")
	for i := 0; i < 20000; i++ {
		b.WriteString("u,a,1,Edit\n")
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := LoadReader(ctx, "big.csv", strings.NewReader(b.String()), LoadOptions{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGroupEvents(t *testing.T) {
	events := []Event{
		{UserID: "u2", ProjectID: "p", Assignment: "a", Time: 5},
		{UserID: "u1", ProjectID: "p", Assignment: "a", Time: 30, Email: "u1@x"},
		{UserID: "u2", ProjectID: "p", Assignment: "a", Time: 1},
		{UserID: "u1", ProjectID: "p", Assignment: "a", Time: 10, Type: "first"},
		{UserID: "u1", ProjectID: "p", Assignment: "a", Time: 10, Type: "second"},
		{UserID: "u1", ProjectID: "p", Assignment: "b", Time: 0},
	}

	groups := GroupEvents(events)
	require.Len(t, groups, 3)

	assert.Equal(t, GroupKey{UserID: "u2", ProjectID: "p", Assignment: "a"}, groups[0].Key)
	assert.Equal(t, int64(1), groups[0].Events[0].Time)
	assert.Equal(t, int64(5), groups[0].Events[1].Time)

	g := groups[1]
	assert.Equal(t, "u1@x", g.Email)
	require.Len(t, g.Events, 3)
	assert.Equal(t, "first", g.Events[0].Type)
	assert.Equal(t, "second", g.Events[1].Type)
	assert.Equal(t, int64(30), g.Events[2].Time)

	assert.Equal(t, "b", groups[2].Key.Assignment)
}

func TestGroupEvents_Empty(t *testing.T) {
	assert.Empty(t, GroupEvents(nil))
}
