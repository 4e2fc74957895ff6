// Package metastore persists per-run metacontext snapshots to SQLite:
// the CLI's elab/nf/type subcommands record a run when a database path
// is configured, and "telescope metas" reads the rows back. It never
// participates in elaboration itself —
// the core packages (internal/meta, internal/elab, ...) have no
// dependency on this package, only the other direction.
package metastore

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/dtlc-lang/telescope/internal/meta"
	"github.com/dtlc-lang/telescope/internal/printer"
	"github.com/dtlc-lang/telescope/internal/syntax"
)

const schema = `
CREATE TABLE IF NOT EXISTS meta_snapshots (
	run_id     TEXT NOT NULL,
	mid        INTEGER NOT NULL,
	status     TEXT NOT NULL,
	rendered   TEXT NOT NULL,
	created_at TEXT NOT NULL
);
`

// Open opens (creating if needed) a sqlite database at path, or an
// in-memory database when path is ":memory:", and ensures the
// meta_snapshots table exists.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening metastore %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating meta_snapshots table: %w", err)
	}
	return db, nil
}

// Record inserts one row per entry of mctx under runID, using
// printer.PrintMetaEntry's per-entry renderer for the status/rendered
// columns. now is passed in by the caller rather than read from
// time.Now() here, so that a deterministic runID/timestamp pair can
// be supplied in tests without depending on wall-clock time.
func Record(db *sql.DB, runID string, mctx *meta.Metacontext, now time.Time) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("beginning metastore transaction: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO meta_snapshots (run_id, mid, status, rendered, created_at) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("preparing metastore insert: %w", err)
	}
	defer stmt.Close()

	createdAt := now.UTC().Format(time.RFC3339Nano)
	var insertErr error
	mctx.Range(func(id syntax.MId, e meta.Entry) {
		if insertErr != nil {
			return
		}
		status, rendered := printer.PrintMetaEntry(mctx, id, e)
		_, insertErr = stmt.Exec(runID, int(id), status, rendered, createdAt)
	})
	if insertErr != nil {
		tx.Rollback()
		return fmt.Errorf("inserting metastore row: %w", insertErr)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing metastore transaction: %w", err)
	}
	return nil
}

// Snapshot is one persisted meta_snapshots row.
type Snapshot struct {
	RunID     string
	Mid       int
	Status    string
	Rendered  string
	CreatedAt string
}

// Query returns the snapshots recorded under runID (all runs if
// runID is empty), ordered by mid.
func Query(db *sql.DB, runID string) ([]Snapshot, error) {
	var rows *sql.Rows
	var err error
	if runID == "" {
		rows, err = db.Query(`SELECT run_id, mid, status, rendered, created_at FROM meta_snapshots ORDER BY run_id, mid`)
	} else {
		rows, err = db.Query(`SELECT run_id, mid, status, rendered, created_at FROM meta_snapshots WHERE run_id = ? ORDER BY mid`, runID)
	}
	if err != nil {
		return nil, fmt.Errorf("querying metastore: %w", err)
	}
	defer rows.Close()

	var out []Snapshot
	for rows.Next() {
		var s Snapshot
		if err := rows.Scan(&s.RunID, &s.Mid, &s.Status, &s.Rendered, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning metastore row: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
