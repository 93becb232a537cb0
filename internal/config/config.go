// Package config loads and validates the runner configuration.
//
// Values come from an optional YAML file and are overridden by command-line
// flags. The merged result is checked against an embedded CUE schema before
// any test runs.
package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"gopkg.in/yaml.v3"
)

//go:embed schema.cue
var schemaSource string

// ArtifactMode selects where two-stage suites put IR artifacts.
type ArtifactMode string

const (
	// ArtifactsEphemeral uses a temporary file per test, deleted afterwards.
	ArtifactsEphemeral ArtifactMode = "ephemeral"
	// ArtifactsPersistent keeps artifacts under IRDir for debugging.
	ArtifactsPersistent ArtifactMode = "persistent"
)

// Defaults.
const (
	DefaultSuitesDir = "."
	DefaultExecutor  = "accipit"
	DefaultTimeout   = 5 * time.Second
	DefaultIRDir     = "ir"
	DefaultExtension = ".sy"
)

// Config is the runner configuration.
type Config struct {
	// SuitesDir holds one subdirectory per suite id.
	SuitesDir string `yaml:"suites_dir"`

	// Compiler is the compiler under test.
	Compiler string `yaml:"compiler"`

	// Executor runs IR artifacts in two-stage suites.
	Executor string `yaml:"executor"`

	// ExecutorArgs are passed to the executor before the artifact path.
	ExecutorArgs []string `yaml:"executor_args,omitempty"`

	// Timeout bounds each process invocation.
	Timeout time.Duration `yaml:"timeout"`

	// Artifacts selects ephemeral or persistent IR artifacts.
	Artifacts ArtifactMode `yaml:"artifacts"`

	// IRDir is the persistent artifact directory.
	IRDir string `yaml:"ir_dir"`

	// Extension is the source file extension of test fixtures.
	Extension string `yaml:"extension"`

	// Filter is an optional glob over fixture file names.
	Filter string `yaml:"filter,omitempty"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		SuitesDir: DefaultSuitesDir,
		Executor:  DefaultExecutor,
		Timeout:   DefaultTimeout,
		Artifacts: ArtifactsEphemeral,
		IRDir:     DefaultIRDir,
		Extension: DefaultExtension,
	}
}

// Persistent reports whether IR artifacts are kept after the run.
func (c Config) Persistent() bool {
	return c.Artifacts == ArtifactsPersistent
}

// Load reads a YAML config file over the defaults.
// Unknown fields are rejected so typos do not silently fall back to defaults.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	return cfg, nil
}

// ValidationError reports a configuration that does not satisfy the schema.
type ValidationError struct {
	Details string
}

func (e *ValidationError) Error() string {
	return "invalid configuration: " + e.Details
}

// Validate checks c against the embedded CUE schema.
func (c Config) Validate() error {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile config schema: %w", err)
	}

	value := schema.LookupPath(cue.ParsePath("#Config")).Unify(ctx.Encode(c.schemaView()))
	if err := value.Validate(cue.Concrete(true)); err != nil {
		return &ValidationError{Details: cueerrors.Details(err, nil)}
	}

	return nil
}

// schemaView maps c onto the field names used by the schema.
// Optional fields are left out when unset.
func (c Config) schemaView() map[string]any {
	view := map[string]any{
		"suites_dir": c.SuitesDir,
		"compiler":   c.Compiler,
		"timeout_ms": c.Timeout.Milliseconds(),
		"artifacts":  string(c.Artifacts),
		"ir_dir":     c.IRDir,
		"extension":  c.Extension,
	}
	if c.Executor != "" {
		view["executor"] = c.Executor
	}
	if len(c.ExecutorArgs) > 0 {
		view["executor_args"] = c.ExecutorArgs
	}
	if c.Filter != "" {
		view["filter"] = c.Filter
	}
	return view
}
