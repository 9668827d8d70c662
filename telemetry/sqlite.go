package telemetry

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	// Need to use SQLite connections.
	_ "github.com/mattn/go-sqlite3"

	"github.com/rs/xid"
)

const createTicksTable = `
CREATE TABLE IF NOT EXISTS ticks (
	tick       INTEGER NOT NULL,
	time       REAL    NOT NULL,
	controller TEXT    NOT NULL,
	kind       TEXT    NOT NULL,
	err_x      REAL, err_y REAL, err_z REAL,
	p          REAL, i REAL, d REAL,
	force_x    REAL, force_y REAL, force_z REAL,
	saturated  INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS ticks_controller ON ticks (controller, tick);
`

const insertTick = `INSERT INTO ticks
	(tick, time, controller, kind, err_x, err_y, err_z, p, i, d, force_x, force_y, force_z, saturated)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// TraceWriter stores tick records in a SQLite database, inserting in batched
// transactions. A nil *TraceWriter discards everything.
type TraceWriter struct {
	db        *sql.DB
	statement *sql.Stmt
	path      string

	pending   []TickRecord
	batchSize int
}

// NewTraceWriter creates trace_<id>.sqlite3 in dir.
func NewTraceWriter(dir string, batchSize int) (*TraceWriter, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating trace directory: %w", err)
	}
	path := filepath.Join(dir, "trace_"+xid.New().String()+".sqlite3")
	if _, err := os.Stat(path); err == nil {
		return nil, fmt.Errorf("trace file %s already exists", path)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening trace database: %w", err)
	}
	if _, err := db.Exec(createTicksTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating ticks table: %w", err)
	}
	stmt, err := db.Prepare(insertTick)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("preparing insert: %w", err)
	}

	if batchSize < 1 {
		batchSize = 1
	}
	return &TraceWriter{
		db:        db,
		statement: stmt,
		path:      path,
		pending:   make([]TickRecord, 0, batchSize),
		batchSize: batchSize,
	}, nil
}

// Path returns the database file path.
func (t *TraceWriter) Path() string {
	if t == nil {
		return ""
	}
	return t.path
}

// Write buffers records and flushes once a batch is full.
func (t *TraceWriter) Write(records ...TickRecord) error {
	if t == nil {
		return nil
	}
	t.pending = append(t.pending, records...)
	if len(t.pending) >= t.batchSize {
		return t.Flush()
	}
	return nil
}

// Flush writes all buffered records in one transaction.
func (t *TraceWriter) Flush() error {
	if t == nil || len(t.pending) == 0 {
		return nil
	}

	tx, err := t.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning trace transaction: %w", err)
	}
	stmt := tx.Stmt(t.statement)
	for _, r := range t.pending {
		_, err := stmt.Exec(
			r.Tick, r.Time, r.Controller, r.Kind,
			r.ErrX, r.ErrY, r.ErrZ,
			r.P, r.I, r.D,
			r.ForceX, r.ForceY, r.ForceZ,
			r.Saturated,
		)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("inserting tick %d for %s: %w", r.Tick, r.Controller, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing trace transaction: %w", err)
	}

	t.pending = t.pending[:0]
	return nil
}

// Close flushes pending records and closes the database.
func (t *TraceWriter) Close() error {
	if t == nil {
		return nil
	}
	flushErr := t.Flush()
	t.statement.Close()
	if err := t.db.Close(); err != nil && flushErr == nil {
		return err
	}
	return flushErr
}

// CountTicks returns the number of stored records for a controller, or all
// records when controller is empty.
func (t *TraceWriter) CountTicks(controller string) (int, error) {
	if t == nil {
		return 0, nil
	}
	var (
		n   int
		err error
	)
	if controller == "" {
		err = t.db.QueryRow(`SELECT COUNT(*) FROM ticks`).Scan(&n)
	} else {
		err = t.db.QueryRow(`SELECT COUNT(*) FROM ticks WHERE controller = ?`, controller).Scan(&n)
	}
	if err != nil {
		return 0, fmt.Errorf("counting ticks: %w", err)
	}
	return n, nil
}
