package invoke

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEphemeralAcquireRelease(t *testing.T) {
	dir := t.TempDir()

	a, err := Ephemeral(dir).Acquire("/suites/lab3/fib.sy")
	require.NoError(t, err)

	assert.Equal(t, dir, filepath.Dir(a.Path))
	assert.True(t, strings.HasSuffix(a.Path, ArtifactExt))
	assert.Contains(t, filepath.Base(a.Path), "fib")
	assert.FileExists(t, a.Path)

	require.NoError(t, a.Release())
	assert.NoFileExists(t, a.Path)

	// Releasing twice is harmless.
	require.NoError(t, a.Release())
}

func TestEphemeralArtifactsAreDistinct(t *testing.T) {
	dir := t.TempDir()
	store := Ephemeral(dir)

	a, err := store.Acquire("t.sy")
	require.NoError(t, err)
	defer a.Release()
	b, err := store.Acquire("t.sy")
	require.NoError(t, err)
	defer b.Release()

	assert.NotEqual(t, a.Path, b.Path)
}

func TestEphemeralMissingDir(t *testing.T) {
	_, err := Ephemeral(filepath.Join(t.TempDir(), "missing")).Acquire("t.sy")
	require.Error(t, err)
}

func TestPersistentAcquire(t *testing.T) {
	dir := t.TempDir()

	a, err := Persistent(dir).Acquire("lab3/while_loop.sy")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "while_loop.acc"), a.Path)

	require.NoError(t, os.WriteFile(a.Path, []byte("fn @main"), 0644))
	require.NoError(t, a.Release())
	assert.FileExists(t, a.Path, "persistent artifacts are retained")
}

func TestPersistentPath(t *testing.T) {
	assert.Equal(t, filepath.Join("ir", "a.acc"), PersistentPath("ir", "./lab3/a.sy"))
	assert.Equal(t, filepath.Join("ir", "noext.acc"), PersistentPath("ir", "noext"))
	assert.Equal(t, filepath.Join("ir", "x.y.acc"), PersistentPath("ir", "x.y.sy"))
}
