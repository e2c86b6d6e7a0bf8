//go:build !windows

package proc

import (
	"os"
	"syscall"
)

// alive checks if a process with the given PID exists.
// On Unix, sending signal 0 checks for existence without affecting it.
func alive(pid int) bool {
	if pid <= 0 {
		return false
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}

	return process.Signal(syscall.Signal(0)) == nil
}

// terminate sends SIGTERM for graceful shutdown.
func terminate(pid int) error {
	process, err := os.FindProcess(pid)
	if err != nil {
		return err
	}
	return process.Signal(syscall.SIGTERM)
}

// kill sends SIGKILL for forced termination.
func kill(pid int) error {
	process, err := os.FindProcess(pid)
	if err != nil {
		return err
	}
	return process.Signal(syscall.SIGKILL)
}
