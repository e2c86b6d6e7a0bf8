// Package cmd implements the pulsewatch CLI.
package cmd

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/kmaeder/pulsewatch/internal/style"
)

// stateDir is the shared --state-dir flag.
var stateDir string

var rootCmd = &cobra.Command{
	Use:   "pulsewatch",
	Short: "Heartbeat-based liveness monitoring",
	Long: `Pulsewatch tracks whether a set of cooperating processes is still
alive. Producers record heartbeats (directly or via beacon files); the
daemon watches for entities that fall silent and escalates from a
recovery attempt to process termination.

State (beacons, lock, logs) lives in the state directory, settable with
--state-dir or the PULSEWATCH_DIR environment variable.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		style.PrintError("%v", err)
		return 1
	}
	return 0
}

func init() {
	rootCmd.PersistentFlags().StringVar(&stateDir, "state-dir", "",
		"state directory (default $PULSEWATCH_DIR or ~/.pulsewatch)")
}

// resolveStateDir picks the state directory from the flag, the
// environment, or the home default.
func resolveStateDir() string {
	if stateDir != "" {
		return stateDir
	}
	if dir := os.Getenv("PULSEWATCH_DIR"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".pulsewatch"
	}
	return filepath.Join(home, ".pulsewatch")
}
