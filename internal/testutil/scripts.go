// Package testutil provides fakes for compiler and executor processes and
// helpers for inspecting the process table in tests.
package testutil

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
)

// WriteScript writes an executable /bin/sh script named name into dir and
// returns its absolute path. body is placed after the shebang line.
func WriteScript(t testing.TB, dir, name, body string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	content := "#!/bin/sh\n" + body + "\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0755))
	return path
}

// WriteFixture writes a source fixture into dir and returns its path.
func WriteFixture(t testing.TB, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// Common fake compilers and executors.
const (
	// CompilerOK exits 0 and prints nothing.
	CompilerOK = "exit 0"

	// CompilerFail exits 2.
	CompilerFail = "echo 'syntax error' >&2\nexit 2"

	// CompilerWriteIR copies the source into the IR path and exits 0.
	CompilerWriteIR = `cp "$1" "$2"`

	// ExecutorSum reads two integers from stdin and prints their sum.
	ExecutorSum = "read a\nread b\necho $((a + b))"

	// ExecutorEcho prints its stdin unchanged.
	ExecutorEcho = "cat"
)

// SleepScript returns a script body that records its PID (and the PID of a
// background sleep child) in pidFile, then blocks for seconds.
func SleepScript(pidFile string, seconds int) string {
	return "sleep " + strconv.Itoa(seconds) + " &\n" +
		"echo \"$$ $!\" > '" + pidFile + "'\n" +
		"wait"
}

// BackgroundScript returns a script body that starts a background sleep
// holding stdout, records both PIDs in pidFile, and exits 0 at once.
func BackgroundScript(pidFile string, seconds int) string {
	return "sleep " + strconv.Itoa(seconds) + " &\n" +
		"echo \"$$ $!\" > '" + pidFile + "'\n" +
		"exit 0"
}

// MarkerScript returns a script body that creates marker and then exits 0.
func MarkerScript(marker string) string {
	return "touch '" + marker + "'\nexit 0"
}
