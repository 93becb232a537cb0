package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "labrunner.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, ".", cfg.SuitesDir)
	assert.Equal(t, "accipit", cfg.Executor)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Equal(t, ArtifactsEphemeral, cfg.Artifacts)
	assert.Equal(t, "ir", cfg.IRDir)
	assert.Equal(t, ".sy", cfg.Extension)
	assert.False(t, cfg.Persistent())
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
suites_dir: tests
compiler: ./target/release/compiler
executor: ./target/release/accipit
executor_args: ["--entry", "main"]
timeout: 2500ms
artifacts: persistent
ir_dir: out/ir
filter: "array_*"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "tests", cfg.SuitesDir)
	assert.Equal(t, "./target/release/compiler", cfg.Compiler)
	assert.Equal(t, "./target/release/accipit", cfg.Executor)
	assert.Equal(t, []string{"--entry", "main"}, cfg.ExecutorArgs)
	assert.Equal(t, 2500*time.Millisecond, cfg.Timeout)
	assert.True(t, cfg.Persistent())
	assert.Equal(t, "out/ir", cfg.IRDir)
	assert.Equal(t, "array_*", cfg.Filter)
	assert.Equal(t, ".sy", cfg.Extension, "unset fields keep their defaults")
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	path := writeConfig(t, "compiler: ./cc\ntimout: 3s\n")

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timout")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestValidate(t *testing.T) {
	valid := Default()
	valid.Compiler = "./compiler"
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"missing compiler", func(c *Config) { c.Compiler = "" }, "compiler"},
		{"zero timeout", func(c *Config) { c.Timeout = 0 }, "timeout_ms"},
		{"negative timeout", func(c *Config) { c.Timeout = -time.Second }, "timeout_ms"},
		{"unknown artifact mode", func(c *Config) { c.Artifacts = "sometimes" }, "artifacts"},
		{"extension without dot", func(c *Config) { c.Extension = "sy" }, "extension"},
		{"empty ir dir", func(c *Config) { c.IRDir = "" }, "ir_dir"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)

			err := cfg.Validate()
			require.Error(t, err)

			var validationErr *ValidationError
			require.True(t, errors.As(err, &validationErr))
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestValidateOptionalFields(t *testing.T) {
	cfg := Default()
	cfg.Compiler = "./compiler"
	cfg.Executor = ""
	cfg.ExecutorArgs = []string{"run"}
	cfg.Filter = "**/*loop*"

	require.NoError(t, cfg.Validate())
}
