// Package suite enumerates the test fixtures of a suite ("lab") and runs each
// through the directive parser, the process invoker and the verdict engine.
//
// Suites form a closed set. Each variant carries its own invocation strategy
// and comparison rule, so adding a suite means adding a variant here rather
// than another branch in the driver.
package suite

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/roach88/labrunner/internal/config"
	"github.com/roach88/labrunner/internal/invoke"
	"github.com/roach88/labrunner/internal/verdict"
)

// ID identifies a suite and names its fixture directory.
type ID string

// Env is what a suite needs to build its invocation strategy.
type Env struct {
	Config config.Config
	Runner *invoke.Runner
	Logger *slog.Logger
}

// Suite is one supported test suite.
type Suite struct {
	ID          ID
	Description string
	Comparison  verdict.Comparison
	// NeedsExecutor is true for suites that run IR artifacts.
	NeedsExecutor bool

	strategy func(Env) invoke.Strategy
}

// Strategy builds the invocation strategy for this suite.
func (s Suite) Strategy(env Env) invoke.Strategy {
	return s.strategy(env)
}

func (s Suite) String() string {
	return string(s.ID)
}

// Supported suites.
var (
	Lab1 = Suite{
		ID:          "lab1",
		Description: "compile only (single-stage)",
		Comparison:  verdict.TokenList,
		strategy:    directStrategy,
	}
	Lab2 = Suite{
		ID:          "lab2",
		Description: "compile only (single-stage)",
		Comparison:  verdict.TokenList,
		strategy:    directStrategy,
	}
	Lab3 = Suite{
		ID:            "lab3",
		Description:   "compile to IR and execute, token-list output",
		Comparison:    verdict.TokenList,
		NeedsExecutor: true,
		strategy: func(env Env) invoke.Strategy {
			cfg := env.Config
			return invoke.NewTwoStage(cfg.Compiler, executor(cfg), artifacts(cfg), env.Runner, env.Logger)
		},
	}
	Lab4 = Suite{
		ID:            "lab4",
		Description:   "compile to IR and execute, concatenated output",
		Comparison:    verdict.Concat,
		NeedsExecutor: true,
		strategy: func(env Env) invoke.Strategy {
			cfg := env.Config
			return invoke.NewConcat(cfg.Compiler, executor(cfg), artifacts(cfg), env.Runner, env.Logger)
		},
	}
)

// All returns every supported suite in id order.
func All() []Suite {
	return []Suite{Lab1, Lab2, Lab3, Lab4}
}

// IDs returns the ids of all supported suites.
func IDs() []string {
	ids := make([]string, 0, 4)
	for _, s := range All() {
		ids = append(ids, string(s.ID))
	}
	return ids
}

// Lookup returns the suite with the given id.
func Lookup(id string) (Suite, error) {
	for _, s := range All() {
		if string(s.ID) == id {
			return s, nil
		}
	}
	return Suite{}, &ConfigError{
		Message: fmt.Sprintf("unsupported suite %q: must be one of %s", id, strings.Join(IDs(), ", ")),
	}
}

func directStrategy(env Env) invoke.Strategy {
	return invoke.NewDirect(env.Config.Compiler, env.Runner)
}

func executor(cfg config.Config) invoke.Executor {
	return invoke.Executor{Path: cfg.Executor, Args: cfg.ExecutorArgs}
}

func artifacts(cfg config.Config) invoke.Artifacts {
	if cfg.Persistent() {
		return invoke.Persistent(cfg.IRDir)
	}
	return invoke.Ephemeral("")
}
