package suite

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/labrunner/internal/config"
	"github.com/roach88/labrunner/internal/invoke"
	"github.com/roach88/labrunner/internal/testutil"
	"github.com/roach88/labrunner/internal/verdict"
)

func TestLookup(t *testing.T) {
	for _, id := range []string{"lab1", "lab2", "lab3", "lab4"} {
		s, err := Lookup(id)
		require.NoError(t, err)
		assert.Equal(t, ID(id), s.ID)
	}
}

func TestLookupUnsupported(t *testing.T) {
	_, err := Lookup("lab9")
	require.Error(t, err)

	var configErr *ConfigError
	require.True(t, errors.As(err, &configErr))
	assert.Contains(t, err.Error(), `"lab9"`)
	assert.Contains(t, err.Error(), "lab1, lab2, lab3, lab4")
}

func TestSuiteVariants(t *testing.T) {
	assert.False(t, Lab1.NeedsExecutor)
	assert.False(t, Lab2.NeedsExecutor)
	assert.True(t, Lab3.NeedsExecutor)
	assert.True(t, Lab4.NeedsExecutor)

	assert.Equal(t, verdict.TokenList, Lab3.Comparison)
	assert.Equal(t, verdict.Concat, Lab4.Comparison)

	env := Env{Config: config.Default(), Runner: invoke.NewRunner(0, nil)}
	assert.IsType(t, &invoke.Direct{}, Lab1.Strategy(env))
	assert.IsType(t, &invoke.Direct{}, Lab2.Strategy(env))
	assert.IsType(t, &invoke.TwoStage{}, Lab3.Strategy(env))
	assert.IsType(t, &invoke.Concat{}, Lab4.Strategy(env))
}

func TestIDs(t *testing.T) {
	assert.Equal(t, []string{"lab1", "lab2", "lab3", "lab4"}, IDs())
}

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.sy", "a.sy", "notes.txt", "a.sy.orig", "input.in"} {
		testutil.WriteFixture(t, dir, name, "")
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.sy"), 0755))

	files, err := Discover(dir, ".sy", "")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.sy"), filepath.Join(dir, "b.sy")}, files)
}

func TestDiscoverFilter(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"array_1.sy", "array_2.sy", "loop.sy"} {
		testutil.WriteFixture(t, dir, name, "")
	}

	files, err := Discover(dir, ".sy", "array_*")
	require.NoError(t, err)
	assert.Len(t, files, 2)

	_, err = Discover(dir, ".sy", "[")
	var configErr *ConfigError
	require.True(t, errors.As(err, &configErr))
}

func TestDiscoverMissingDir(t *testing.T) {
	_, err := Discover(filepath.Join(t.TempDir(), "lab1"), ".sy", "")
	require.Error(t, err)
}

func TestPreflight(t *testing.T) {
	root := t.TempDir()
	compiler := testutil.WriteScript(t, root, "compiler", testutil.CompilerOK)
	executor := testutil.WriteScript(t, root, "executor", "exit 0")
	require.NoError(t, os.Mkdir(filepath.Join(root, "lab1"), 0755))
	require.NoError(t, os.Mkdir(filepath.Join(root, "lab3"), 0755))

	base := config.Default()
	base.SuitesDir = root
	base.Compiler = compiler
	base.Executor = executor

	t.Run("ok", func(t *testing.T) {
		require.NoError(t, Preflight(base, Lab1))
		require.NoError(t, Preflight(base, Lab3))
	})

	t.Run("missing compiler", func(t *testing.T) {
		cfg := base
		cfg.Compiler = filepath.Join(root, "nope")
		err := Preflight(cfg, Lab1)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "compiler not found")
	})

	t.Run("compiler not executable", func(t *testing.T) {
		cfg := base
		cfg.Compiler = testutil.WriteFixture(t, root, "plain", "#!/bin/sh\n")
		err := Preflight(cfg, Lab1)
		var configErr *ConfigError
		require.True(t, errors.As(err, &configErr))
	})

	t.Run("executor only required for two-stage", func(t *testing.T) {
		cfg := base
		cfg.Executor = filepath.Join(root, "missing-executor")
		require.NoError(t, Preflight(cfg, Lab1))

		err := Preflight(cfg, Lab3)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "executor not found")
	})

	t.Run("missing suite dir", func(t *testing.T) {
		err := Preflight(base, Lab2)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "suite directory not found")
	})

	t.Run("persistent mode creates ir dir", func(t *testing.T) {
		cfg := base
		cfg.Artifacts = config.ArtifactsPersistent
		cfg.IRDir = filepath.Join(root, "build", "ir")

		require.NoError(t, Preflight(cfg, Lab3))
		assert.DirExists(t, cfg.IRDir)
	})

	t.Run("ephemeral mode leaves ir dir alone", func(t *testing.T) {
		cfg := base
		cfg.IRDir = filepath.Join(root, "unused-ir")

		require.NoError(t, Preflight(cfg, Lab3))
		assert.NoDirExists(t, cfg.IRDir)
	})
}
