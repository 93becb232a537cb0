//go:build unix

package testutil

import (
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// PIDAlive reports whether a process exists and is not a zombie.
func PIDAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	if PIDZombie(pid) {
		return false
	}
	err := syscall.Kill(pid, 0)
	if err == nil {
		return true
	}
	return errors.Is(err, syscall.EPERM)
}

// PIDZombie checks whether a PID is in a zombie/dead state.
func PIDZombie(pid int) bool {
	if _, err := os.Stat("/proc/self/stat"); err != nil {
		return zombieFromPS(pid)
	}
	b, err := os.ReadFile(filepath.Join("/proc", strconv.Itoa(pid), "stat"))
	if err != nil {
		return false
	}
	line := string(b)
	closeIdx := strings.LastIndexByte(line, ')')
	if closeIdx < 0 || closeIdx+2 >= len(line) {
		return false
	}
	state := line[closeIdx+2]
	return state == 'Z' || state == 'X'
}

func zombieFromPS(pid int) bool {
	out, err := exec.Command("ps", "-o", "state=", "-p", strconv.Itoa(pid)).Output()
	if err != nil {
		return false
	}
	state := strings.TrimSpace(string(out))
	return state != "" && (state[0] == 'Z' || state[0] == 'X')
}

// ReadPIDs waits for pidFile to be written by SleepScript and returns the
// PIDs it lists.
func ReadPIDs(t testing.TB, pidFile string) []int {
	t.Helper()

	var data []byte
	require.Eventually(t, func() bool {
		b, err := os.ReadFile(pidFile)
		if err != nil || !strings.HasSuffix(string(b), "\n") {
			return false
		}
		data = b
		return true
	}, 5*time.Second, 10*time.Millisecond, "pid file %s never written", pidFile)

	var pids []int
	for _, field := range strings.Fields(string(data)) {
		pid, err := strconv.Atoi(field)
		require.NoError(t, err)
		pids = append(pids, pid)
	}
	return pids
}

// RequireNoOrphans fails the test if any of pids is still running shortly
// after the call.
func RequireNoOrphans(t testing.TB, pids []int) {
	t.Helper()

	for _, pid := range pids {
		pid := pid
		require.Eventually(t, func() bool {
			return !PIDAlive(pid)
		}, 5*time.Second, 20*time.Millisecond, "process %d left running", pid)
	}
}
