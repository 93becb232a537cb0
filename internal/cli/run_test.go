package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/labrunner/internal/testutil"
)

// execute runs the root command with args and returns what it wrote.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

// suitesRoot creates a suites directory holding lab with the given fixtures.
func suitesRoot(t *testing.T, lab string, fixtures map[string]string) string {
	t.Helper()

	root := t.TempDir()
	dir := filepath.Join(root, lab)
	require.NoError(t, os.Mkdir(dir, 0755))
	for name, content := range fixtures {
		testutil.WriteFixture(t, dir, name, content)
	}
	return root
}

func TestRunCommandAllPassed(t *testing.T) {
	root := suitesRoot(t, "lab1", map[string]string{
		"ok.sy":  "int main(){}\n",
		"err.sy": "// Error\nint bad;\n",
	})
	compiler := testutil.WriteScript(t, t.TempDir(), "compiler", `grep -q bad "$1" && exit 1; exit 0`)

	stdout, stderr, err := execute(t, "run", compiler, "lab1", "--suites-dir", root)
	require.NoError(t, err)

	assert.NotContains(t, stderr, "Suite lab1:", "diagnostics only with -v")
	assert.Contains(t, stdout, "Running lab1 test...")
	assert.Contains(t, stdout, "lab1/ok.sy   PASSED")
	assert.Contains(t, stdout, "lab1/err.sy  PASSED")
	assert.Contains(t, stdout, "\nAll tests passed!\n")
	assert.NotContains(t, stdout, "\033[", "no color when stdout is not a terminal")
}

func TestRunCommandFailingTests(t *testing.T) {
	root := suitesRoot(t, "lab3", map[string]string{
		"add.sy":   "// Input: 3 4\n// Output: 7\n",
		"wrong.sy": "// Input: 3 4\n// Output: 8\n",
	})
	tools := t.TempDir()
	compiler := testutil.WriteScript(t, tools, "compiler", testutil.CompilerWriteIR)
	executor := testutil.WriteScript(t, tools, "executor", testutil.ExecutorSum)

	stdout, _, err := execute(t, "run", compiler, "lab3", "--suites-dir", root, "--executor", executor)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	assert.Contains(t, stdout, "lab3/add.sy    PASSED")
	assert.Contains(t, stdout, "lab3/wrong.sy  FAILED")
	assert.Contains(t, stdout, "1/2 tests passed.")
}

func TestRunCommandVerboseShowsReasons(t *testing.T) {
	root := suitesRoot(t, "lab1", map[string]string{"bad.sy": ""})
	compiler := testutil.WriteScript(t, t.TempDir(), "compiler", testutil.CompilerFail)

	_, stderr, err := execute(t, "run", compiler, "lab1", "--suites-dir", root, "-v")
	require.Error(t, err)
	assert.Contains(t, stderr, "--- lab1/bad.sy: compile stage exited with status 2")
	assert.Contains(t, stderr, "run_id=")
	assert.Contains(t, stderr, "Suite lab1: compiler "+compiler+", timeout 5s")
	assert.NotContains(t, stderr, "Executor:")
}

func TestRunCommandJSON(t *testing.T) {
	root := suitesRoot(t, "lab4", map[string]string{
		"hello.sy": "// Input:\n// Output: Hello, World\n",
	})
	tools := t.TempDir()
	compiler := testutil.WriteScript(t, tools, "compiler", testutil.CompilerWriteIR)
	executor := testutil.WriteScript(t, tools, "executor", "echo 'Hello,'; echo 'World'")

	stdout, _, err := execute(t, "run", compiler, "lab4", "--suites-dir", root, "--executor", executor, "--format", "json")
	require.NoError(t, err)

	var resp struct {
		Status string `json:"status"`
		RunID  string `json:"run_id"`
		Data   struct {
			Suite   string `json:"suite"`
			Summary struct {
				Total     int  `json:"total"`
				Passed    int  `json:"passed"`
				AllPassed bool `json:"all_passed"`
			} `json:"summary"`
			Tests []struct {
				File   string `json:"file"`
				Passed bool   `json:"passed"`
			} `json:"tests"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))

	assert.Equal(t, "ok", resp.Status)
	_, err = uuid.Parse(resp.RunID)
	assert.NoError(t, err)
	assert.Equal(t, "lab4", resp.Data.Suite)
	assert.Equal(t, 1, resp.Data.Summary.Total)
	assert.True(t, resp.Data.Summary.AllPassed)
	require.Len(t, resp.Data.Tests, 1)
	assert.Equal(t, filepath.Join(root, "lab4", "hello.sy"), resp.Data.Tests[0].File)
}

func TestRunCommandJSONFailure(t *testing.T) {
	root := suitesRoot(t, "lab2", map[string]string{"a.sy": ""})
	compiler := testutil.WriteScript(t, t.TempDir(), "compiler", "exit 1")

	stdout, _, err := execute(t, "run", compiler, "lab2", "--suites-dir", root, "--format", "json")
	require.Error(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeTestsFailed, resp.Error.Code)
	assert.Equal(t, "0/1 tests passed", resp.Error.Message)
}

func TestRunCommandUnsupportedSuite(t *testing.T) {
	compiler := testutil.WriteScript(t, t.TempDir(), "compiler", testutil.CompilerOK)

	_, stderr, err := execute(t, "run", compiler, "lab9", "--suites-dir", t.TempDir())
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, stderr, "unsupported suite")
}

func TestRunCommandMissingCompiler(t *testing.T) {
	root := suitesRoot(t, "lab1", map[string]string{"a.sy": ""})

	_, stderr, err := execute(t, "run", filepath.Join(root, "nope"), "lab1", "--suites-dir", root)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, stderr, "compiler not found")
}

func TestRunCommandMalformedFixture(t *testing.T) {
	root := suitesRoot(t, "lab1", map[string]string{
		"a.sy": "",
		"b.sy": "// one\n// two\n// three\n",
	})
	compiler := testutil.WriteScript(t, t.TempDir(), "compiler", testutil.CompilerOK)

	stdout, _, err := execute(t, "run", compiler, "lab1", "--suites-dir", root, "--format", "json")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeMalformed, resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "b.sy")
}

func TestRunCommandInputInDirectSuite(t *testing.T) {
	root := suitesRoot(t, "lab1", map[string]string{"a.sy": "// Input:\n// Output:\n"})
	compiler := testutil.WriteScript(t, t.TempDir(), "compiler", testutil.CompilerOK)

	_, stderr, err := execute(t, "run", compiler, "lab1", "--suites-dir", root)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, stderr, "not supported")
}

func TestRunCommandInvalidTimeout(t *testing.T) {
	root := suitesRoot(t, "lab1", map[string]string{"a.sy": ""})
	compiler := testutil.WriteScript(t, t.TempDir(), "compiler", testutil.CompilerOK)

	_, stderr, err := execute(t, "run", compiler, "lab1", "--suites-dir", root, "--timeout", "0s")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, stderr, "invalid configuration")
}

func TestRunCommandConfigFile(t *testing.T) {
	root := suitesRoot(t, "lab3", map[string]string{"add.sy": "// Input: 1 2\n// Output: 3\n"})
	tools := t.TempDir()
	compiler := testutil.WriteScript(t, tools, "compiler", testutil.CompilerWriteIR)
	executor := testutil.WriteScript(t, tools, "executor", testutil.ExecutorSum)

	configPath := filepath.Join(tools, "labrunner.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(
		"suites_dir: "+root+"\n"+
			"executor: "+filepath.Join(tools, "missing")+"\n"+
			"timeout: 3s\n",
	), 0644))

	_, _, err := execute(t, "run", compiler, "lab3", "--config", configPath)
	require.Error(t, err, "executor from the config file does not exist")
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	stdout, _, err := execute(t, "run", compiler, "lab3", "--config", configPath, "--executor", executor)
	require.NoError(t, err, "flags override the config file")
	assert.Contains(t, stdout, "All tests passed!")
}

func TestRunCommandBadConfigFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "labrunner.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("suites: nope\n"), 0644))
	compiler := testutil.WriteScript(t, t.TempDir(), "compiler", testutil.CompilerOK)

	_, stderr, err := execute(t, "run", compiler, "lab1", "--config", configPath)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, stderr, "field suites not found")
}

func TestRunCommandLocalArtifacts(t *testing.T) {
	root := suitesRoot(t, "lab3", map[string]string{"keep.sy": "int main(){}\n"})
	tools := t.TempDir()
	compiler := testutil.WriteScript(t, tools, "compiler", testutil.CompilerWriteIR)
	executor := testutil.WriteScript(t, tools, "executor", "exit 0")
	irDir := filepath.Join(tools, "build", "ir")

	_, _, err := execute(t, "run", compiler, "lab3",
		"--suites-dir", root,
		"--executor", executor,
		"--local",
		"--ir-dir", irDir,
	)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(irDir, "keep.acc"))
}

func TestRunCommandExecutorArgs(t *testing.T) {
	root := suitesRoot(t, "lab3", map[string]string{"a.sy": "// Input:\n// Output: interp.py\n"})
	tools := t.TempDir()
	compiler := testutil.WriteScript(t, tools, "compiler", testutil.CompilerWriteIR)
	// Prints its first argument if the second is the IR file.
	executor := testutil.WriteScript(t, tools, "executor", `test -f "$2" && echo "$1"`)

	stdout, _, err := execute(t, "run", compiler, "lab3",
		"--suites-dir", root,
		"--executor", executor,
		"--executor-arg", "interp.py",
	)
	require.NoError(t, err)
	assert.Contains(t, stdout, "All tests passed!")
}

func TestRunCommandFilter(t *testing.T) {
	root := suitesRoot(t, "lab1", map[string]string{
		"array_1.sy": "",
		"loop_1.sy":  "",
	})
	compiler := testutil.WriteScript(t, t.TempDir(), "compiler", testutil.CompilerOK)

	stdout, _, err := execute(t, "run", compiler, "lab1", "--suites-dir", root, "--filter", "array_*")
	require.NoError(t, err)
	assert.Contains(t, stdout, "array_1.sy")
	assert.NotContains(t, stdout, "loop_1.sy")
}

func TestRunCommandMissingArgs(t *testing.T) {
	_, _, err := execute(t, "run", "./compiler")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 2 arg")
}

func TestRunHelpText(t *testing.T) {
	stdout, _, err := execute(t, "run", "--help")
	require.NoError(t, err)

	assert.Contains(t, stdout, "Exit codes")
	assert.Contains(t, stdout, "--executor")
	assert.Contains(t, stdout, "--local")
	assert.Contains(t, stdout, "<compiler> <lab>")
}
