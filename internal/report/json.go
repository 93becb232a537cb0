package report

import "time"

// MarshalJSON renders r as canonical JSON.
func MarshalJSON(r Report) ([]byte, error) {
	return MarshalCanonical(r.toCanonicalMap())
}

func (r Report) toCanonicalMap() map[string]any {
	tests := make([]any, len(r.Entries))
	for i, e := range r.Entries {
		test := map[string]any{
			"file":        e.Path,
			"passed":      e.Passed,
			"should_fail": e.ShouldFail,
			"exit_code":   e.ExitCode,
			"timed_out":   e.TimedOut,
			"stage":       e.Stage,
			"duration_ms": e.Duration.Milliseconds(),
		}
		if e.Reason != "" {
			test["reason"] = e.Reason
		}
		if e.HarnessError != "" {
			test["harness_error"] = e.HarnessError
		}
		tests[i] = test
	}

	m := map[string]any{
		"run_id":     r.Run.ID,
		"suite":      r.Run.Suite,
		"compiler":   r.Run.Compiler,
		"started_at": r.Run.StartedAt.UTC().Format(time.RFC3339),
		"summary": map[string]any{
			"total":          r.Summary.Total,
			"passed":         r.Summary.Passed,
			"failed":         r.Summary.Failed(),
			"timed_out":      r.Summary.TimedOut,
			"harness_errors": r.Summary.HarnessErrors,
			"all_passed":     r.Summary.AllPassed(),
		},
		"tests": tests,
	}
	if !r.FinishedAt.IsZero() {
		m["finished_at"] = r.FinishedAt.UTC().Format(time.RFC3339)
	}
	return m
}
