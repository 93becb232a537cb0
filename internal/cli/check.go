package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/labrunner/internal/directive"
	"github.com/roach88/labrunner/internal/invoke"
	"github.com/roach88/labrunner/internal/suite"
)

// CheckOptions holds flags for the check command.
type CheckOptions struct {
	*RootOptions
	configFlags
}

// CheckedFixture is the parsed directive block of one fixture.
type CheckedFixture struct {
	File       string   `json:"file"`
	Shape      string   `json:"shape"`
	ShouldFail bool     `json:"should_fail"`
	Inputs     []string `json:"inputs,omitempty"`
	Expected   []string `json:"expected,omitempty"`
}

// CheckResult is the output of the check command.
type CheckResult struct {
	Suite    string           `json:"suite"`
	Fixtures []CheckedFixture `json:"fixtures"`
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CheckOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "check <lab>",
		Short: "Parse a suite's fixtures without running them",
		Long: `Parse the directive block of every fixture of a suite and report its
shape. Nothing is compiled or executed.

Exits 2 if any fixture is malformed or declares input the suite cannot
deliver.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(opts, cmd, args[0])
		},
	}

	opts.bindSource(cmd)

	return cmd
}

func runCheck(opts *CheckOptions, cmd *cobra.Command, lab string) error {
	out := newFormatter(opts.RootOptions, cmd)

	s, err := suite.Lookup(lab)
	if err != nil {
		return out.Fail(err)
	}

	cfg, err := opts.resolve(cmd)
	if err != nil {
		return out.Fail(err)
	}

	driver := suite.NewDriver(cfg, nil)
	cases, err := driver.Load(s)
	if err != nil {
		return out.Fail(err)
	}

	strategy := s.Strategy(suite.Env{Config: cfg, Runner: invoke.NewRunner(cfg.Timeout, nil)})
	result := CheckResult{Suite: string(s.ID), Fixtures: make([]CheckedFixture, 0, len(cases))}
	for _, tc := range cases {
		if err := strategy.Validate(tc); err != nil {
			return out.Fail(&suite.ConfigError{
				Message: fmt.Sprintf("suite %s cannot run fixture", s.ID),
				Err:     err,
			})
		}
		result.Fixtures = append(result.Fixtures, checked(cfg.SuitesDir, tc))
	}

	if out.JSON() {
		return out.Success(result)
	}
	return writeCheckText(out, result)
}

func checked(root string, tc directive.TestCase) CheckedFixture {
	file := tc.Path
	if rel, err := filepath.Rel(root, tc.Path); err == nil {
		file = rel
	}
	return CheckedFixture{
		File:       file,
		Shape:      tc.Shape().String(),
		ShouldFail: tc.ShouldFail,
		Inputs:     tc.Inputs,
		Expected:   tc.Expected,
	}
}

func writeCheckText(out *OutputFormatter, result CheckResult) error {
	width := 0
	for _, f := range result.Fixtures {
		width = max(width, len(f.File))
	}

	var b strings.Builder
	for _, f := range result.Fixtures {
		fmt.Fprintf(&b, "%-*s  %s", width, f.File, describe(f))
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "\n%d fixture(s) in %s parsed.\n", len(result.Fixtures), result.Suite)

	_, err := fmt.Fprint(out.Writer, b.String())
	return err
}

func describe(f CheckedFixture) string {
	switch {
	case f.ShouldFail:
		return "expect error"
	case f.Shape == directive.ShapePaired.String():
		return fmt.Sprintf("input=[%s] output=[%s]", strings.Join(f.Inputs, " "), strings.Join(f.Expected, " "))
	default:
		return "expect success"
	}
}
