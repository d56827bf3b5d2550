// Package sqlite stores harvest run history in a local SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"pghelp/harvest"
)

const dbFile = "history.db"

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	started_at  TIMESTAMP NOT NULL,
	finished_at TIMESTAMP
);
CREATE TABLE IF NOT EXISTS run_versions (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id      INTEGER NOT NULL REFERENCES runs(id),
	version     TEXT NOT NULL,
	topics      INTEGER NOT NULL,
	status      TEXT NOT NULL,
	error       TEXT NOT NULL DEFAULT '',
	recorded_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_run_versions_version ON run_versions(version);
`

// HistoryDB records one row per (run, version) and answers "when was
// this version last harvested, and how did it go".
type HistoryDB struct {
	db *sql.DB
}

// Open opens or creates the history database under dir. WAL mode is
// enabled and the pool is capped at one connection; SQLite supports a
// single writer.
func Open(dir string) (*HistoryDB, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create history dir: %w", err)
	}

	dsn := filepath.Join(dir, dbFile) + "?mode=rwc"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if _, err := db.ExecContext(context.Background(), schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &HistoryDB{db: db}, nil
}

// Close closes the database connection.
func (h *HistoryDB) Close() error {
	return h.db.Close()
}

// BeginRun opens a new run row and returns a recorder bound to it.
func (h *HistoryDB) BeginRun(ctx context.Context) (*RunRecorder, error) {
	res, err := h.db.ExecContext(ctx,
		"INSERT INTO runs (started_at) VALUES (?)", time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("begin run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("begin run: %w", err)
	}
	return &RunRecorder{h: h, runID: id}, nil
}

// RunRecorder implements harvest.Recorder for one run.
type RunRecorder struct {
	h     *HistoryDB
	runID int64
}

var _ harvest.Recorder = (*RunRecorder)(nil)

// RecordVersion stores the outcome for one version.
func (r *RunRecorder) RecordVersion(ctx context.Context, res harvest.Result) error {
	errText := ""
	if res.Err != nil {
		errText = res.Err.Error()
	}
	_, err := r.h.db.ExecContext(ctx,
		`INSERT INTO run_versions (run_id, version, topics, status, error, recorded_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		r.runID, res.Version, res.Topics, res.Status(), errText, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("record version %s: %w", res.Version, err)
	}
	return nil
}

// Finish stamps the run's end time.
func (r *RunRecorder) Finish(ctx context.Context) error {
	_, err := r.h.db.ExecContext(ctx,
		"UPDATE runs SET finished_at = ? WHERE id = ?", time.Now().UTC(), r.runID)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	return nil
}

// VersionRun is the most recent recorded outcome for a version.
type VersionRun struct {
	Version    string
	Topics     int
	Status     string
	Error      string
	RecordedAt time.Time
}

// LastRuns returns the latest recorded outcome per version.
func (h *HistoryDB) LastRuns(ctx context.Context) (map[string]VersionRun, error) {
	rows, err := h.db.QueryContext(ctx,
		`SELECT rv.version, rv.topics, rv.status, rv.error, rv.recorded_at
		 FROM run_versions rv
		 JOIN (SELECT version, MAX(id) AS max_id FROM run_versions GROUP BY version) latest
		   ON rv.id = latest.max_id`)
	if err != nil {
		return nil, fmt.Errorf("query last runs: %w", err)
	}
	defer rows.Close()

	out := make(map[string]VersionRun)
	for rows.Next() {
		var vr VersionRun
		if err := rows.Scan(&vr.Version, &vr.Topics, &vr.Status, &vr.Error, &vr.RecordedAt); err != nil {
			return nil, fmt.Errorf("scan last run: %w", err)
		}
		out[vr.Version] = vr
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate last runs: %w", err)
	}
	return out, nil
}
