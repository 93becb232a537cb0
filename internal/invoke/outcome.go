package invoke

import (
	"strings"
	"time"
)

// Stage names the pipeline step an outcome was taken from.
type Stage string

const (
	StageCompile Stage = "compile"
	StageExecute Stage = "execute"
)

// Output is captured program output together with its comparison forms.
type Output struct {
	// Raw is the process stdout as captured.
	Raw string
	// Tokens is the whitespace-split first line of the trimmed output.
	Tokens []string
	// Text is every whitespace-separated token of the output concatenated.
	Text string
}

// Outcome is the result of running the pipeline for one test case.
type Outcome struct {
	Stage Stage
	// Output is nil when the process timed out or no stage produced
	// comparable output (for example a failed compile in two-stage mode).
	Output   *Output
	ExitCode int
	TimedOut bool
	Duration time.Duration
	// Stderr holds diagnostics from the last stage that ran.
	Stderr string
}

// HasOutput reports whether the outcome carries captured output.
func (o Outcome) HasOutput() bool {
	return o.Output != nil
}

func timedOutOutcome(stage Stage, res Result) Outcome {
	return Outcome{
		Stage:    stage,
		ExitCode: TimeoutExitCode,
		TimedOut: true,
		Duration: res.Duration,
		Stderr:   string(res.Stderr),
	}
}

// FirstLineTokens trims raw, keeps only its first line and splits it on
// whitespace. The result is never nil.
func FirstLineTokens(raw string) []string {
	line, _, _ := strings.Cut(strings.TrimSpace(raw), "\n")
	fields := strings.Fields(line)
	if fields == nil {
		return []string{}
	}
	return fields
}

// Concatenate joins every whitespace-separated token of raw with no separator.
func Concatenate(raw string) string {
	return strings.Join(strings.Fields(raw), "")
}

func newOutput(raw []byte) *Output {
	s := string(raw)
	return &Output{
		Raw:    s,
		Tokens: FirstLineTokens(s),
		Text:   Concatenate(s),
	}
}
