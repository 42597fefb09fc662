//go:build !windows

package unixsig

import (
	"bytes"
	"fmt"
	"os"
	"syscall"
)

func signalStop(pid int) error {
	if err := syscall.Kill(pid, syscall.SIGSTOP); err != nil {
		return fmt.Errorf("stop pid %d: %w", pid, err)
	}
	return nil
}

func signalCont(pid int) error {
	if err := syscall.Kill(pid, syscall.SIGCONT); err != nil {
		return fmt.Errorf("continue pid %d: %w", pid, err)
	}
	return nil
}

func processStopped(pid int) (bool, error) {
	data, err := os.ReadFile(fmt.Sprintf("/proc/%d/stat", pid))
	if err != nil {
		return false, fmt.Errorf("read state of pid %d: %w", pid, err)
	}
	state, err := statState(data)
	if err != nil {
		return false, fmt.Errorf("pid %d: %w", pid, err)
	}
	return state == 'T' || state == 't', nil
}

// statState extracts the single-character state field from /proc/<pid>/stat
// content. The comm field may itself contain spaces and parentheses, so the
// state is located relative to the last closing parenthesis.
func statState(data []byte) (byte, error) {
	end := bytes.LastIndexByte(data, ')')
	if end < 0 || end+2 >= len(data) {
		return 0, fmt.Errorf("malformed stat line %q", data)
	}
	return data[end+2], nil
}
