// Package journal records completed calls in a local SQLite database so the CLI
// can show recent activity and per-operation failure rates.
package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	mathrand "math/rand"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"wirecall/internal/dispatch"
)

const insertTimeout = 5 * time.Second

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(mathrand.New(mathrand.NewSource(time.Now().UnixNano())), 0)
)

func newID(t time.Time) string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(t), entropy).String()
}

// Store owns the journal database. It implements dispatch.Monitor.
type Store struct {
	db     *sql.DB
	path   string
	logger *zap.Logger
}

// Entry is one journaled call.
type Entry struct {
	ID           string
	InvocationID string
	Service      string
	Operation    string
	Attempts     int
	StatusCode   int
	Kind         string // Empty on success
	Code         string
	RequestID    string
	Started      time.Time
	Duration     time.Duration
}

// OK reports whether the call succeeded.
func (e Entry) OK() bool { return e.Kind == "" }

// OpStats aggregates calls per operation.
type OpStats struct {
	Service     string
	Operation   string
	Calls       int
	Failures    int
	AvgDuration time.Duration
}

// Open opens (or creates) the journal at path. ":memory:" keeps it in memory.
func Open(path string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("failed to create journal directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	// One writer keeps SQLite from returning SQLITE_BUSY under concurrent calls.
	db.SetMaxOpenConns(1)
	return &Store{db: db, path: path, logger: logger}, nil
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// Close releases database resources.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Init applies pragmas and creates the schema.
func (s *Store) Init(ctx context.Context) error {
	if s == nil || s.db == nil {
		return errors.New("nil store")
	}
	pragmas := []string{
		"PRAGMA journal_mode = WAL;",
		"PRAGMA synchronous = NORMAL;",
		"PRAGMA busy_timeout = 5000;",
	}
	for _, stmt := range pragmas {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply pragma %q: %w", stmt, err)
		}
	}
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS calls (
			id TEXT PRIMARY KEY,
			invocation_id TEXT NOT NULL,
			service TEXT NOT NULL,
			operation TEXT NOT NULL,
			attempts INTEGER NOT NULL,
			status_code INTEGER NOT NULL,
			kind TEXT NOT NULL DEFAULT '',
			code TEXT NOT NULL DEFAULT '',
			request_id TEXT NOT NULL DEFAULT '',
			started_at INTEGER NOT NULL,
			duration_ms INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_calls_started ON calls(started_at);`,
		`CREATE INDEX IF NOT EXISTS idx_calls_operation ON calls(service, operation);`,
	}
	for _, stmt := range ddl {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}

// ObserveCall records ev. Failures are logged, never returned, so a broken
// journal cannot fail a call.
func (s *Store) ObserveCall(ev dispatch.CallEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), insertTimeout)
	defer cancel()
	if err := s.Record(ctx, ev); err != nil {
		s.logger.Warn("failed to journal call",
			zap.String("operation", ev.Operation),
			zap.String("invocation_id", ev.InvocationID),
			zap.Error(err))
	}
}

// Record inserts ev.
func (s *Store) Record(ctx context.Context, ev dispatch.CallEvent) error {
	kind := ""
	if !ev.OK() {
		kind = ev.Kind.String()
	}
	started := ev.Started
	if started.IsZero() {
		started = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO calls
		(id, invocation_id, service, operation, attempts, status_code, kind, code, request_id, started_at, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		newID(started), ev.InvocationID, ev.Service, ev.Operation, ev.Attempts, ev.StatusCode,
		kind, ev.Code, ev.RequestID, started.UnixMilli(), ev.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("insert call: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `SELECT id, invocation_id, service, operation, attempts,
		status_code, kind, code, request_id, started_at, duration_ms
		FROM calls ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent calls: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var startedMs, durationMs int64
		if err := rows.Scan(&e.ID, &e.InvocationID, &e.Service, &e.Operation, &e.Attempts,
			&e.StatusCode, &e.Kind, &e.Code, &e.RequestID, &startedMs, &durationMs); err != nil {
			return nil, fmt.Errorf("scan call: %w", err)
		}
		e.Started = time.UnixMilli(startedMs)
		e.Duration = time.Duration(durationMs) * time.Millisecond
		out = append(out, e)
	}
	return out, rows.Err()
}

// Stats aggregates the journal per service and operation.
func (s *Store) Stats(ctx context.Context) ([]OpStats, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT service, operation, COUNT(*),
		SUM(CASE WHEN kind = '' THEN 0 ELSE 1 END), AVG(duration_ms)
		FROM calls GROUP BY service, operation ORDER BY service, operation`)
	if err != nil {
		return nil, fmt.Errorf("query stats: %w", err)
	}
	defer rows.Close()

	var out []OpStats
	for rows.Next() {
		var st OpStats
		var avg float64
		if err := rows.Scan(&st.Service, &st.Operation, &st.Calls, &st.Failures, &avg); err != nil {
			return nil, fmt.Errorf("scan stats: %w", err)
		}
		st.AvgDuration = time.Duration(avg * float64(time.Millisecond))
		out = append(out, st)
	}
	return out, rows.Err()
}
