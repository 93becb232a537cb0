// Package verdict judges a test case's execution outcome against the
// expectation parsed from its directive block.
package verdict

import (
	"fmt"
	"strings"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/roach88/labrunner/internal/directive"
	"github.com/roach88/labrunner/internal/invoke"
)

// Comparison selects how captured output is matched against expected tokens.
type Comparison int

const (
	// TokenList compares the output's token list element-wise, in order.
	TokenList Comparison = iota
	// Concat compares the concatenated output with the expected tokens
	// joined with no separator.
	Concat
)

func (c Comparison) String() string {
	switch c {
	case TokenList:
		return "token-list"
	case Concat:
		return "concat"
	default:
		return fmt.Sprintf("Comparison(%d)", int(c))
	}
}

// Verdict is the pass/fail judgment for one test case together with the
// inputs it was derived from.
type Verdict struct {
	Case       directive.TestCase
	Outcome    invoke.Outcome
	Comparison Comparison
	Passed     bool
	// Reason explains a failure; empty when Passed.
	Reason string
	// Err is set when the harness could not run the test at all.
	Err error
}

// Judge decides whether out satisfies tc under the given comparison.
//
//   - a timed-out run never passes
//   - ShouldFail passes iff the exit code is non-zero
//   - no expected output passes iff the exit code is zero
//   - otherwise the exit code must be zero and the output must match
func Judge(tc directive.TestCase, out invoke.Outcome, c Comparison) bool {
	if out.TimedOut {
		return false
	}
	if tc.ShouldFail {
		return out.ExitCode != 0
	}
	if !tc.HasExpected() {
		return out.ExitCode == 0
	}
	if out.ExitCode != 0 || out.Output == nil {
		return false
	}

	switch c {
	case Concat:
		return out.Output.Text == strings.Join(tc.Expected, "")
	default:
		return cmp.Equal(tc.Expected, out.Output.Tokens, cmpopts.EquateEmpty())
	}
}

// New judges out and records why it failed.
func New(tc directive.TestCase, out invoke.Outcome, c Comparison) Verdict {
	v := Verdict{
		Case:       tc,
		Outcome:    out,
		Comparison: c,
		Passed:     Judge(tc, out, c),
	}
	if !v.Passed {
		v.Reason = explain(tc, out, c)
	}
	return v
}

// Failed records a test the harness could not run. It never passes.
func Failed(tc directive.TestCase, err error) Verdict {
	return Verdict{
		Case:    tc,
		Outcome: invoke.Outcome{ExitCode: invoke.TimeoutExitCode},
		Passed:  false,
		Reason:  fmt.Sprintf("harness error: %v", err),
		Err:     err,
	}
}

func explain(tc directive.TestCase, out invoke.Outcome, c Comparison) string {
	switch {
	case out.TimedOut:
		return fmt.Sprintf("timed out during %s stage", out.Stage)
	case tc.ShouldFail:
		return "expected a non-zero exit status, got 0"
	case out.ExitCode != 0:
		return fmt.Sprintf("%s stage exited with status %d", out.Stage, out.ExitCode)
	case out.Output == nil:
		return "no output captured"
	case c == Concat:
		return fmt.Sprintf("output mismatch: want %q, got %q", strings.Join(tc.Expected, ""), out.Output.Text)
	default:
		diff := cmp.Diff(tc.Expected, out.Output.Tokens, cmpopts.EquateEmpty())
		return "output mismatch (-want +got):\n" + diff
	}
}
