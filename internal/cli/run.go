package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/roach88/labrunner/internal/ledger"
	"github.com/roach88/labrunner/internal/report"
	"github.com/roach88/labrunner/internal/suite"
	"github.com/roach88/labrunner/internal/verdict"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	configFlags
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <compiler> <lab>",
		Short: "Run a test suite against a compiler",
		Long: `Run every fixture of a suite against the compiler under test.

lab1 and lab2 invoke "<compiler> <source>" and judge its exit status and
output. lab3 and lab4 invoke "<compiler> <source> <ir>" and then run the IR
with the executor, feeding declared input on stdin.

Exit codes:
  0 - All tests passed
  1 - One or more tests failed
  2 - Configuration error or malformed fixture

Examples:
  labrunner run ./compiler lab1
  labrunner run ./compiler lab3 --executor accipit --timeout 10s
  labrunner run ./compiler lab4 --local --ir-dir build/ir
  labrunner run ./compiler lab3 --filter "array_*" --format json`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSuite(cmd.Context(), opts, cmd, args[0], args[1])
		},
	}

	opts.bindSource(cmd)
	opts.bindExecution(cmd)

	return cmd
}

func runSuite(ctx context.Context, opts *RunOptions, cmd *cobra.Command, compiler, lab string) error {
	out := newFormatter(opts.RootOptions, cmd)

	s, err := suite.Lookup(lab)
	if err != nil {
		return out.Fail(err)
	}

	cfg, err := opts.resolve(cmd)
	if err != nil {
		return out.Fail(err)
	}
	cfg.Compiler = compiler
	if err := cfg.Validate(); err != nil {
		return out.Fail(err)
	}
	if err := suite.Preflight(cfg, s); err != nil {
		return out.Fail(err)
	}
	out.VerboseLog("Suite %s: compiler %s, timeout %s, fixtures in %s",
		s.ID, cfg.Compiler, cfg.Timeout, suite.Dir(cfg.SuitesDir, s))
	if s.NeedsExecutor {
		out.VerboseLog("Executor: %s", cfg.Executor)
	}

	runID := uuid.NewString()
	logger := newLogger(out.GetErrWriter(), opts.Verbose).With("run_id", runID)
	color := !out.JSON() && report.IsTerminal(out.Writer)

	if !out.JSON() {
		fmt.Fprintln(out.Writer, report.Banner(string(s.ID), color))
	}

	started := time.Now()
	verdicts, err := suite.NewDriver(cfg, logger).Run(ctx, s)
	if err != nil {
		return out.Fail(err)
	}

	rep, err := record(ctx, ledger.Run{
		ID:        runID,
		Suite:     string(s.ID),
		Compiler:  compiler,
		StartedAt: started,
	}, verdicts)
	if err != nil {
		return out.Fail(err)
	}

	if out.JSON() {
		if err := respondJSON(out, rep); err != nil {
			return err
		}
	} else {
		textOpts := report.TextOptions{Color: color, Root: cfg.SuitesDir}
		if opts.Verbose {
			if err := report.WriteFailures(out.GetErrWriter(), rep, textOpts); err != nil {
				return err
			}
		}
		if err := report.WriteText(out.Writer, rep, textOpts); err != nil {
			return err
		}
	}

	if !rep.Summary.AllPassed() {
		return NewExitError(ExitFailure,
			fmt.Sprintf("%d/%d tests passed", rep.Summary.Passed, rep.Summary.Total))
	}
	return nil
}

// record stores the verdicts in the ledger and reads the report back.
func record(ctx context.Context, run ledger.Run, verdicts []verdict.Verdict) (report.Report, error) {
	l, err := ledger.Open()
	if err != nil {
		return report.Report{}, err
	}
	defer l.Close()

	if err := l.BeginRun(ctx, run); err != nil {
		return report.Report{}, err
	}
	if err := l.RecordAll(ctx, run.ID, verdicts); err != nil {
		return report.Report{}, err
	}
	return report.Load(ctx, l, run.ID, time.Now())
}

func respondJSON(out *OutputFormatter, rep report.Report) error {
	data, err := report.MarshalJSON(rep)
	if err != nil {
		return err
	}

	resp := CLIResponse{Status: "ok", RunID: rep.Run.ID, Data: json.RawMessage(data)}
	if !rep.Summary.AllPassed() {
		resp.Status = "error"
		resp.Error = &CLIError{
			Code:    ErrCodeTestsFailed,
			Message: fmt.Sprintf("%d/%d tests passed", rep.Summary.Passed, rep.Summary.Total),
		}
	}
	return out.Respond(resp)
}
