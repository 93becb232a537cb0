package suite

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/labrunner/internal/config"
	"github.com/roach88/labrunner/internal/directive"
	"github.com/roach88/labrunner/internal/invoke"
	"github.com/roach88/labrunner/internal/verdict"
)

// Driver runs every fixture of a suite, one at a time.
type Driver struct {
	config config.Config
	runner *invoke.Runner
	logger *slog.Logger
}

// NewDriver creates a driver for cfg. A nil logger discards output.
func NewDriver(cfg config.Config, logger *slog.Logger) *Driver {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Driver{
		config: cfg,
		runner: invoke.NewRunner(cfg.Timeout, logger),
		logger: logger,
	}
}

// Load discovers and parses every fixture of s.
// The first malformed fixture aborts loading.
func (d *Driver) Load(s Suite) ([]directive.TestCase, error) {
	files, err := Discover(Dir(d.config.SuitesDir, s), d.config.Extension, d.config.Filter)
	if err != nil {
		return nil, err
	}

	cases := make([]directive.TestCase, 0, len(files))
	for _, file := range files {
		tc, err := directive.ParseFile(file)
		if err != nil {
			return nil, err
		}
		cases = append(cases, tc)
	}

	return cases, nil
}

// Run executes every fixture of s and returns one verdict per file in
// discovery order.
//
// Malformed fixtures and fixtures the suite cannot run are returned as
// errors before any process starts. Failing tests, timeouts and tests the
// harness could not launch are verdicts, and the run continues past them.
func (d *Driver) Run(ctx context.Context, s Suite) ([]verdict.Verdict, error) {
	cases, err := d.Load(s)
	if err != nil {
		return nil, err
	}

	strategy := s.Strategy(Env{Config: d.config, Runner: d.runner, Logger: d.logger})
	for _, tc := range cases {
		if err := strategy.Validate(tc); err != nil {
			return nil, &ConfigError{
				Message: fmt.Sprintf("suite %s cannot run fixture", s.ID),
				Err:     err,
			}
		}
	}

	d.logger.Debug("running suite", "suite", s.ID, "tests", len(cases))

	verdicts := make([]verdict.Verdict, 0, len(cases))
	for _, tc := range cases {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		verdicts = append(verdicts, d.runOne(ctx, s, strategy, tc))
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return verdicts, nil
}

func (d *Driver) runOne(ctx context.Context, s Suite, strategy invoke.Strategy, tc directive.TestCase) verdict.Verdict {
	out, err := strategy.Invoke(ctx, tc)
	if err != nil {
		d.logger.Error("harness cannot run test",
			"suite", s.ID,
			"file", tc.Path,
			"error", err,
		)
		return verdict.Failed(tc, err)
	}

	if out.TimedOut {
		d.logger.Warn("test timed out",
			"suite", s.ID,
			"file", tc.Path,
			"stage", out.Stage,
			"timeout", d.runner.EffectiveTimeout(),
		)
	}

	v := verdict.New(tc, out, s.Comparison)
	if v.Passed {
		d.logger.Debug("test passed", "suite", s.ID, "file", tc.Path, "duration", out.Duration)
	} else {
		d.logger.Info("test failed",
			"suite", s.ID,
			"file", tc.Path,
			"exit_code", out.ExitCode,
			"reason", v.Reason,
		)
	}
	return v
}
