package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// timeLayout keeps started_at lexically sortable.
const timeLayout = "2006-01-02T15:04:05.000Z07:00"

const runColumns = `id, started_at, command, inputs, output, version,
	groups_n, events, skipped_rows, records, duration_ms`

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

// CreateRun inserts r, assigning it a fresh ID and a start time when unset,
// and returns the ID.
func (db *DB) CreateRun(r *Run) (string, error) {
	return insertRun(db.conn, r)
}

// RecordRun inserts r together with its metrics in one transaction, so a
// failed metric leaves no partial run behind.
func (db *DB) RecordRun(r *Run, metrics []RunMetric) (string, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	id, err := insertRun(tx, r)
	if err != nil {
		return "", err
	}
	for _, m := range metrics {
		if err := insertRunMetric(tx, id, m.Name, m.Value, m.Detail); err != nil {
			return "", fmt.Errorf("inserting metric %s: %w", m.Name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return "", err
	}
	return id, nil
}

func insertRun(x execer, r *Run) (string, error) {
	id := r.ID
	if id == "" {
		id = uuid.NewString()
	}
	if r.StartedAt.IsZero() {
		r.StartedAt = time.Now()
	}
	_, err := x.Exec(
		`INSERT INTO runs (`+runColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, r.StartedAt.UTC().Format(timeLayout), r.Command, r.Inputs, r.Output, r.Version,
		r.Groups, r.Events, r.Skipped, r.Records, r.Duration.Milliseconds(),
	)
	if err != nil {
		return "", fmt.Errorf("inserting run: %w", err)
	}
	r.ID = id
	return id, nil
}

// GetRun returns the run whose ID is id or starts with id, or nil if there is
// none. A prefix shared by several runs is an error.
func (db *DB) GetRun(id string) (*Run, error) {
	if id == "" {
		return nil, nil
	}
	rows, err := db.conn.Query(
		"SELECT "+runColumns+" FROM runs WHERE substr(id, 1, length(?)) = ? LIMIT 2",
		id, id,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var found *Run
	for rows.Next() {
		if found != nil {
			return nil, fmt.Errorf("run id %q is ambiguous", id)
		}
		if found, err = scanRun(rows); err != nil {
			return nil, err
		}
	}
	return found, rows.Err()
}

// GetLatestRun returns the most recent run of command, or nil if none exist.
// An empty command matches any command.
func (db *DB) GetLatestRun(command string) (*Run, error) {
	row := db.conn.QueryRow(
		"SELECT "+runColumns+" FROM runs WHERE (? = '' OR command = ?) ORDER BY started_at DESC, rowid DESC LIMIT 1",
		command, command,
	)
	return scanRun(row)
}

// ListRuns returns up to limit runs, newest first. An empty command matches
// any command; limit <= 0 returns all runs.
func (db *DB) ListRuns(command string, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := db.conn.Query(
		"SELECT "+runColumns+" FROM runs WHERE (? = '' OR command = ?) ORDER BY started_at DESC, rowid DESC LIMIT ?",
		command, command, limit,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, rows.Err()
}

// History pairs each of the latest runs with the run of the same command that
// preceded it.
func (db *DB) History(command string, limit int) ([]RunDelta, error) {
	all, err := db.ListRuns(command, 0)
	if err != nil {
		return nil, err
	}

	var out []RunDelta
	for i, r := range all {
		if limit > 0 && len(out) == limit {
			break
		}
		d := RunDelta{Run: r}
		for j := i + 1; j < len(all); j++ {
			if all[j].Command == r.Command {
				prev := all[j]
				d.Previous = &prev
				break
			}
		}
		out = append(out, d)
	}
	return out, nil
}

// InsertRunMetric records a named metric for a run.
func (db *DB) InsertRunMetric(runID, name string, value float64, detail string) error {
	return insertRunMetric(db.conn, runID, name, value, detail)
}

func insertRunMetric(x execer, runID, name string, value float64, detail string) error {
	_, err := x.Exec(
		"INSERT INTO run_metrics (run_id, metric_name, metric_value, detail) VALUES (?, ?, ?, ?)",
		runID, name, value, detail,
	)
	return err
}

// GetRunMetrics returns all metrics recorded for a run in insertion order.
func (db *DB) GetRunMetrics(runID string) ([]RunMetric, error) {
	rows, err := db.conn.Query(
		"SELECT run_id, metric_name, metric_value, detail FROM run_metrics WHERE run_id = ? ORDER BY id",
		runID,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var metrics []RunMetric
	for rows.Next() {
		var m RunMetric
		var detail sql.NullString
		if err := rows.Scan(&m.RunID, &m.Name, &m.Value, &detail); err != nil {
			return nil, err
		}
		m.Detail = detail.String
		metrics = append(metrics, m)
	}
	return metrics, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*Run, error) {
	var r Run
	var startedAt string
	var durationMs int64
	err := row.Scan(&r.ID, &startedAt, &r.Command, &r.Inputs, &r.Output, &r.Version,
		&r.Groups, &r.Events, &r.Skipped, &r.Records, &durationMs)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	r.StartedAt, _ = time.Parse(timeLayout, startedAt)
	r.Duration = time.Duration(durationMs) * time.Millisecond
	return &r, nil
}
