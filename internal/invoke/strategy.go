package invoke

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/labrunner/internal/directive"
)

// Strategy runs the external pipeline for one test case.
type Strategy interface {
	// Validate rejects test cases the strategy cannot run. It is called for
	// every test of a suite before any process is started.
	Validate(tc directive.TestCase) error

	// Invoke runs the pipeline. Per-test failures and timeouts are reported
	// in the Outcome; errors mean the harness could not run the test.
	Invoke(ctx context.Context, tc directive.TestCase) (Outcome, error)
}

// Direct invokes the compiler with the source file as its only argument and
// takes the compiler's own stdout and exit status as the outcome.
type Direct struct {
	Compiler string
	Runner   *Runner
}

// NewDirect creates a single-stage strategy.
func NewDirect(compiler string, runner *Runner) *Direct {
	return &Direct{Compiler: compiler, Runner: runner}
}

// Validate rejects declared input, which a single-stage run cannot deliver.
func (d *Direct) Validate(tc directive.TestCase) error {
	if tc.HasInputs() {
		return fmt.Errorf("%s: %w", tc.Path, ErrInputUnsupported)
	}
	return nil
}

// Invoke runs "compiler <source>".
func (d *Direct) Invoke(ctx context.Context, tc directive.TestCase) (Outcome, error) {
	if err := d.Validate(tc); err != nil {
		return Outcome{}, err
	}

	res, err := d.Runner.Run(ctx, Command{Path: d.Compiler, Args: []string{tc.Path}})
	if err != nil {
		return Outcome{}, err
	}
	if res.TimedOut {
		return timedOutOutcome(StageCompile, res), nil
	}

	return Outcome{
		Stage:    StageCompile,
		Output:   newOutput(res.Stdout),
		ExitCode: res.ExitCode,
		Duration: res.Duration,
		Stderr:   string(res.Stderr),
	}, nil
}

// Executor is the second-stage program that runs a compiled IR artifact.
// Args are placed before the artifact path, e.g. an interpreter script.
type Executor struct {
	Path string
	Args []string
}

func (e Executor) command(artifact string, stdin string) Command {
	args := make([]string, 0, len(e.Args)+1)
	args = append(args, e.Args...)
	args = append(args, artifact)
	return Command{Path: e.Path, Args: args, Stdin: []byte(stdin)}
}

// TwoStage compiles the source to an IR artifact and runs it with the
// executor, feeding the test's input tokens on stdin.
type TwoStage struct {
	Compiler  string
	Executor  Executor
	Artifacts Artifacts
	Runner    *Runner
	Logger    *slog.Logger
}

// NewTwoStage creates a two-stage strategy.
func NewTwoStage(compiler string, executor Executor, artifacts Artifacts, runner *Runner, logger *slog.Logger) *TwoStage {
	return &TwoStage{
		Compiler:  compiler,
		Executor:  executor,
		Artifacts: artifacts,
		Runner:    runner,
		Logger:    logger,
	}
}

// Validate accepts every directive shape.
func (s *TwoStage) Validate(tc directive.TestCase) error {
	return nil
}

// Invoke runs "compiler <source> <ir>" and, if that exits 0,
// "executor <ir>" with the test's input on stdin.
func (s *TwoStage) Invoke(ctx context.Context, tc directive.TestCase) (Outcome, error) {
	artifact, err := s.Artifacts.Acquire(tc.Path)
	if err != nil {
		return Outcome{}, err
	}
	defer func() {
		if err := artifact.Release(); err != nil {
			s.logger().Warn("failed to release artifact", "path", artifact.Path, "error", err)
		}
	}()

	compiled, err := s.Runner.Run(ctx, Command{
		Path: s.Compiler,
		Args: []string{tc.Path, artifact.Path},
	})
	if err != nil {
		return Outcome{}, err
	}
	if compiled.TimedOut {
		return timedOutOutcome(StageCompile, compiled), nil
	}
	if compiled.ExitCode != 0 {
		return Outcome{
			Stage:    StageCompile,
			ExitCode: compiled.ExitCode,
			Duration: compiled.Duration,
			Stderr:   string(compiled.Stderr),
		}, nil
	}

	var stdin string
	if tc.HasInputs() {
		stdin = tc.Stdin()
	}
	executed, err := s.Runner.Run(ctx, s.Executor.command(artifact.Path, stdin))
	if err != nil {
		return Outcome{}, err
	}
	if executed.TimedOut {
		out := timedOutOutcome(StageExecute, executed)
		out.Duration += compiled.Duration
		return out, nil
	}

	return Outcome{
		Stage:    StageExecute,
		Output:   newOutput(executed.Stdout),
		ExitCode: executed.ExitCode,
		Duration: compiled.Duration + executed.Duration,
		Stderr:   string(executed.Stderr),
	}, nil
}

func (s *TwoStage) logger() *slog.Logger {
	if s.Logger == nil {
		return discardLogger
	}
	return s.Logger
}

// Concat runs the TwoStage pipeline for suites that compare program output
// as one concatenated string instead of a token list.
type Concat struct {
	*TwoStage
}

// NewConcat creates a concatenated-output strategy.
func NewConcat(compiler string, executor Executor, artifacts Artifacts, runner *Runner, logger *slog.Logger) *Concat {
	return &Concat{TwoStage: NewTwoStage(compiler, executor, artifacts, runner, logger)}
}

// Invoke runs the two-stage pipeline and drops the token form of the output
// so only the concatenated text is compared.
func (c *Concat) Invoke(ctx context.Context, tc directive.TestCase) (Outcome, error) {
	out, err := c.TwoStage.Invoke(ctx, tc)
	if err != nil || out.Output == nil {
		return out, err
	}
	out.Output.Tokens = nil
	return out, nil
}
