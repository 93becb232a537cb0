// Package report renders the verdicts of a run for people and for tools.
//
// The text form is the classic summary: one aligned line per test file with
// PASSED or FAILED, a blank line, then an overall count. The JSON form is
// canonical (RFC 8785) so two reports of identical runs are byte-identical.
package report

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/term"

	"github.com/roach88/labrunner/internal/ledger"
)

// TimestampLayout is the layout of the trailing timestamp line.
const TimestampLayout = "2006-01-02 15:04:05"

// Report is everything rendered for one run.
type Report struct {
	Run        ledger.Run
	Entries    []ledger.Entry
	Summary    ledger.Summary
	FinishedAt time.Time
}

// Load reads run runID back from the ledger.
func Load(ctx context.Context, l *ledger.Ledger, runID string, finishedAt time.Time) (Report, error) {
	run, err := l.Run(ctx, runID)
	if err != nil {
		return Report{}, err
	}

	entries, err := l.Entries(ctx, runID)
	if err != nil {
		return Report{}, err
	}

	summary, err := l.Summary(ctx, runID)
	if err != nil {
		return Report{}, err
	}

	return Report{
		Run:        run,
		Entries:    entries,
		Summary:    summary,
		FinishedAt: finishedAt,
	}, nil
}

// TextOptions controls text rendering.
type TextOptions struct {
	// Color wraps verdicts and the banner in ANSI escapes.
	Color bool
	// Root, when set, makes file names relative to it.
	Root string
}

// Banner returns the line printed before a suite runs.
func Banner(suite string, color bool) string {
	text := fmt.Sprintf("Running %s test...", suite)
	if color {
		return box(text)
	}
	return text
}

// WriteText writes the human-readable summary of r to w.
func WriteText(w io.Writer, r Report, opts TextOptions) error {
	names := make([]string, len(r.Entries))
	width := 0
	for i, e := range r.Entries {
		names[i] = displayName(e.Path, opts.Root)
		width = max(width, utf8.RuneCountInString(names[i]))
	}

	var b strings.Builder
	for i, e := range r.Entries {
		status := "FAILED"
		paint := red
		if e.Passed {
			status = "PASSED"
			paint = green
		}
		if opts.Color {
			status = paint(status)
		}
		fmt.Fprintf(&b, "%-*s  %s\n", width, names[i], status)
	}

	b.WriteString("\n")
	switch {
	case r.Summary.Total == 0:
		b.WriteString("No tests found.\n")
	case r.Summary.AllPassed():
		line := "All tests passed!"
		if opts.Color {
			line = green(line)
		}
		b.WriteString(line + "\n")
	default:
		fmt.Fprintf(&b, "%d/%d tests passed.\n", r.Summary.Passed, r.Summary.Total)
	}

	if !r.FinishedAt.IsZero() {
		b.WriteString(r.FinishedAt.Format(TimestampLayout) + "\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// WriteFailures writes the reason of every failed test, for verbose output.
func WriteFailures(w io.Writer, r Report, opts TextOptions) error {
	var b strings.Builder
	for _, e := range r.Entries {
		if e.Passed {
			continue
		}
		reason := e.Reason
		if reason == "" {
			reason = "failed"
		}
		fmt.Fprintf(&b, "--- %s: %s\n", displayName(e.Path, opts.Root), reason)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// IsTerminal reports whether w is a terminal, the only case where color is
// written.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

func displayName(path, root string) string {
	if root == "" {
		return path
	}
	rel, err := filepath.Rel(root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return rel
}

func red(s string) string {
	return "\033[31m" + s + "\033[0m"
}

func green(s string) string {
	return "\033[32m" + s + "\033[0m"
}

func box(s string) string {
	return "\033[1;7;37m" + s + "\033[0m"
}
