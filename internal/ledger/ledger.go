package ledger

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/roach88/labrunner/internal/verdict"
)

//go:embed schema.sql
var schemaSQL string

// ErrUnknownRun is returned when a run id was never begun.
var ErrUnknownRun = errors.New("unknown run")

// Ledger stores runs and their verdicts.
type Ledger struct {
	db *sql.DB
}

// Run identifies one invocation of a suite.
type Run struct {
	ID        string
	Suite     string
	Compiler  string
	StartedAt time.Time
}

// Entry is one recorded verdict.
type Entry struct {
	Seq          int64
	Path         string
	Passed       bool
	ShouldFail   bool
	ExitCode     int
	TimedOut     bool
	Stage        string
	Reason       string
	HarnessError string
	Duration     time.Duration
}

// Summary counts the verdicts of a run.
type Summary struct {
	Total         int
	Passed        int
	TimedOut      int
	HarnessErrors int
}

// Failed returns the number of tests that did not pass.
func (s Summary) Failed() int {
	return s.Total - s.Passed
}

// AllPassed reports whether every test passed. An empty run passes.
func (s Summary) AllPassed() bool {
	return s.Passed == s.Total
}

// Open creates an empty in-memory ledger. Everything recorded is lost on
// Close.
func Open() (*Ledger, error) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to ledger: %w", err)
	}

	// Every connection to ":memory:" is a separate database.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &Ledger{db: db}, nil
}

// Close closes the database.
func (l *Ledger) Close() error {
	if l.db == nil {
		return nil
	}
	return l.db.Close()
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA foreign_keys = ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return nil
}

// BeginRun registers a run. Verdicts can only be recorded for begun runs.
func (l *Ledger) BeginRun(ctx context.Context, run Run) error {
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO runs (id, suite, compiler, started_at)
		VALUES (?, ?, ?, ?)
	`,
		run.ID,
		run.Suite,
		run.Compiler,
		run.StartedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("begin run: %w", err)
	}
	return nil
}

// Run returns the run registered under id.
func (l *Ledger) Run(ctx context.Context, id string) (Run, error) {
	var (
		run     Run
		started string
	)
	err := l.db.QueryRowContext(ctx, `
		SELECT id, suite, compiler, started_at FROM runs WHERE id = ?
	`, id).Scan(&run.ID, &run.Suite, &run.Compiler, &started)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrUnknownRun, id)
	}
	if err != nil {
		return Run{}, fmt.Errorf("read run: %w", err)
	}

	run.StartedAt, err = time.Parse(time.RFC3339Nano, started)
	if err != nil {
		return Run{}, fmt.Errorf("read run %s: bad started_at: %w", id, err)
	}
	return run, nil
}

// RecordAll records every verdict in order inside one transaction.
// Recording the same path twice for one run is an error.
func (l *Ledger) RecordAll(ctx context.Context, runID string, verdicts []verdict.Verdict) error {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, v := range verdicts {
		if err := insertVerdict(ctx, tx, runID, v); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit verdicts: %w", err)
	}
	return nil
}

func insertVerdict(ctx context.Context, tx *sql.Tx, runID string, v verdict.Verdict) error {
	var harnessErr string
	if v.Err != nil {
		harnessErr = v.Err.Error()
	}

	_, err := tx.ExecContext(ctx, `
		INSERT INTO verdicts
		(run_id, path, passed, should_fail, exit_code, timed_out, stage, reason, harness_error, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		runID,
		v.Case.Path,
		v.Passed,
		v.Case.ShouldFail,
		v.Outcome.ExitCode,
		v.Outcome.TimedOut,
		string(v.Outcome.Stage),
		v.Reason,
		harnessErr,
		v.Outcome.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("record %s: %w", v.Case.Path, err)
	}
	return nil
}

// Entries returns the verdicts of run runID in recording order.
// Returns an empty slice (not nil) if nothing was recorded.
func (l *Ledger) Entries(ctx context.Context, runID string) ([]Entry, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT seq, path, passed, should_fail, exit_code, timed_out, stage, reason, harness_error, duration_ms
		FROM verdicts
		WHERE run_id = ?
		ORDER BY seq ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query verdicts: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var (
			e          Entry
			durationMS int64
		)
		if err := rows.Scan(
			&e.Seq,
			&e.Path,
			&e.Passed,
			&e.ShouldFail,
			&e.ExitCode,
			&e.TimedOut,
			&e.Stage,
			&e.Reason,
			&e.HarnessError,
			&durationMS,
		); err != nil {
			return nil, fmt.Errorf("scan verdict: %w", err)
		}
		e.Duration = time.Duration(durationMS) * time.Millisecond
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate verdicts: %w", err)
	}

	return entries, nil
}

// Summary counts the verdicts of run runID.
func (l *Ledger) Summary(ctx context.Context, runID string) (Summary, error) {
	var s Summary
	err := l.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(passed), 0),
			COALESCE(SUM(timed_out), 0),
			COALESCE(SUM(harness_error <> ''), 0)
		FROM verdicts
		WHERE run_id = ?
	`, runID).Scan(&s.Total, &s.Passed, &s.TimedOut, &s.HarnessErrors)
	if err != nil {
		return Summary{}, fmt.Errorf("summarize run %s: %w", runID, err)
	}
	return s, nil
}
