//go:build windows

package proc

import (
	"os"

	"golang.org/x/sys/windows"
)

// alive checks if a process with the given PID exists.
func alive(pid int) bool {
	if pid <= 0 {
		return false
	}

	handle, err := windows.OpenProcess(windows.PROCESS_QUERY_LIMITED_INFORMATION, false, uint32(pid))
	if err != nil {
		if err == windows.ERROR_ACCESS_DENIED {
			return true
		}
		return false
	}
	_ = windows.CloseHandle(handle)
	return true
}

// terminate requests process termination.
// On Windows there is no SIGTERM - Kill() is the only option.
func terminate(pid int) error {
	process, err := os.FindProcess(pid)
	if err != nil {
		return err
	}
	return process.Kill()
}

// kill forces process termination.
func kill(pid int) error {
	process, err := os.FindProcess(pid)
	if err != nil {
		return err
	}
	return process.Kill()
}
