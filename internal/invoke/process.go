package invoke

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os/exec"
	"time"
)

// Process defaults.
const (
	// DefaultTimeout bounds each process invocation.
	DefaultTimeout = 5 * time.Second

	// DefaultWaitDelay bounds how long Wait blocks on inherited stdio pipes
	// after the process exits or is killed.
	DefaultWaitDelay = 2 * time.Second

	// TimeoutExitCode is the sentinel exit code for a process that did not
	// complete before its deadline.
	TimeoutExitCode = -1
)

// Command describes one process invocation.
type Command struct {
	Path  string
	Args  []string
	Stdin []byte // nil or empty gives the child an empty, closed stdin
}

// Result is the captured outcome of a single process.
type Result struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
	TimedOut bool
	Duration time.Duration
}

// Runner executes commands with a bounded wall-clock timeout.
// The zero value uses DefaultTimeout and DefaultWaitDelay and discards logs.
type Runner struct {
	Timeout   time.Duration
	WaitDelay time.Duration
	Logger    *slog.Logger
}

// NewRunner creates a Runner with the given timeout.
// A non-positive timeout selects DefaultTimeout.
func NewRunner(timeout time.Duration, logger *slog.Logger) *Runner {
	return &Runner{
		Timeout:   timeout,
		WaitDelay: DefaultWaitDelay,
		Logger:    logger,
	}
}

// Run starts c and waits for it to exit or time out.
//
// A timeout is not an error: the result has TimedOut set, ExitCode equal to
// TimeoutExitCode and no stdout. Errors are returned only when the process
// could not be started (*LaunchError) or ctx itself was cancelled.
func (r *Runner) Run(ctx context.Context, c Command) (Result, error) {
	timeout := r.EffectiveTimeout()
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(cctx, c.Path, c.Args...)
	// Own process group so the whole tree can be killed.
	setProcessGroup(cmd)
	// Cancel runs only if cctx ends before the process exits. Wait
	// synchronizes with it, so killed is safe to read afterwards.
	var killed bool
	cmd.Cancel = func() error {
		killed = true
		return killProcessGroup(cmd)
	}
	cmd.WaitDelay = r.waitDelay()
	cmd.Stdin = bytes.NewReader(c.Stdin)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return Result{}, &LaunchError{Path: c.Path, Err: err}
	}
	waitErr := cmd.Wait()
	duration := time.Since(start)

	// Background children outlive the leader. Nothing in the group survives
	// the test case, whatever the exit path.
	if err := killProcessGroup(cmd); err != nil {
		r.logger().Warn("failed to kill process group",
			"path", c.Path,
			"error", err,
		)
	}

	if killed && ctx.Err() == nil {
		r.logger().Debug("process timed out",
			"path", c.Path,
			"args", c.Args,
			"timeout", timeout,
		)
		return Result{
			Stderr:   stderr.Bytes(),
			ExitCode: TimeoutExitCode,
			TimedOut: true,
			Duration: duration,
		}, nil
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	exitCode := TimeoutExitCode
	if cmd.ProcessState != nil {
		exitCode = cmd.ProcessState.ExitCode()
	}

	var exitErr *exec.ExitError
	if waitErr != nil && !errors.As(waitErr, &exitErr) {
		// Typically exec.ErrWaitDelay: a background child kept stdout open.
		r.logger().Debug("process wait reported error",
			"path", c.Path,
			"error", waitErr,
		)
	}

	r.logger().Debug("process finished",
		"path", c.Path,
		"args", c.Args,
		"exit_code", exitCode,
		"duration", duration,
	)

	return Result{
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
		ExitCode: exitCode,
		Duration: duration,
	}, nil
}

// EffectiveTimeout returns the per-process deadline Run applies.
func (r *Runner) EffectiveTimeout() time.Duration {
	if r == nil || r.Timeout <= 0 {
		return DefaultTimeout
	}
	return r.Timeout
}

func (r *Runner) waitDelay() time.Duration {
	if r == nil || r.WaitDelay <= 0 {
		return DefaultWaitDelay
	}
	return r.WaitDelay
}

func (r *Runner) logger() *slog.Logger {
	if r == nil || r.Logger == nil {
		return discardLogger
	}
	return r.Logger
}

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))
