// Package proc provides OS process liveness probes and termination signaling.
//
// The monitor uses Alive for its built-in process watch and the
// Terminate/Kill pair for the two-stage escalation: Terminate asks the
// process to shut down gracefully, Kill forces the issue.
package proc

// Alive reports whether a process with the given PID exists and is alive.
func Alive(pid int) bool {
	return alive(pid)
}

// Terminate sends the graceful termination signal to the given process.
func Terminate(pid int) error {
	return terminate(pid)
}

// Kill sends the forceful termination signal to the given process.
func Kill(pid int) error {
	return kill(pid)
}
