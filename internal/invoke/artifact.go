package invoke

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ArtifactExt is the file extension given to IR artifacts.
const ArtifactExt = ".acc"

// Artifact is an IR output path scoped to one two-stage invocation.
// Release must be called once the invocation is done.
type Artifact struct {
	Path    string
	release func() error
}

// Release frees the artifact. It is a no-op for persistent artifacts.
func (a Artifact) Release() error {
	if a.release == nil {
		return nil
	}
	return a.release()
}

// Artifacts hands out IR artifact paths for source files.
type Artifacts interface {
	Acquire(source string) (Artifact, error)
}

// Ephemeral returns an Artifacts that creates a fresh temporary file for
// every invocation in dir (os.TempDir when empty) and deletes it on Release.
func Ephemeral(dir string) Artifacts {
	return ephemeral{dir: dir}
}

type ephemeral struct {
	dir string
}

func (e ephemeral) Acquire(source string) (Artifact, error) {
	stem := artifactStem(source)
	f, err := os.CreateTemp(e.dir, "labrunner-"+stem+"-*"+ArtifactExt)
	if err != nil {
		return Artifact{}, fmt.Errorf("create temporary artifact: %w", err)
	}
	path := f.Name()
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return Artifact{}, fmt.Errorf("close temporary artifact: %w", err)
	}

	return Artifact{
		Path: path,
		release: func() error {
			if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("remove temporary artifact: %w", err)
			}
			return nil
		},
	}, nil
}

// Persistent returns an Artifacts that maps each source file to
// dir/<stem>.acc and keeps the file after the run. dir must already exist.
func Persistent(dir string) Artifacts {
	return persistent{dir: dir}
}

type persistent struct {
	dir string
}

func (p persistent) Acquire(source string) (Artifact, error) {
	return Artifact{Path: PersistentPath(p.dir, source)}, nil
}

// PersistentPath returns the artifact path used in persistent mode.
func PersistentPath(dir, source string) string {
	return filepath.Join(dir, artifactStem(source)+ArtifactExt)
}

func artifactStem(source string) string {
	base := filepath.Base(source)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
