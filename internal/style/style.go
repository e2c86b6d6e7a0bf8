// Package style provides consistent terminal styling for pulsewatch output.
package style

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

var (
	// Success style for healthy entities (green)
	Success = lipgloss.NewStyle().
		Foreground(lipgloss.AdaptiveColor{Light: "28", Dark: "42"}).
		Bold(true)

	// Warning style for stale entities (yellow)
	Warning = lipgloss.NewStyle().
		Foreground(lipgloss.AdaptiveColor{Light: "130", Dark: "214"}).
		Bold(true)

	// Error style for dead entities and failures (red)
	Error = lipgloss.NewStyle().
		Foreground(lipgloss.AdaptiveColor{Light: "124", Dark: "196"}).
		Bold(true)

	// Info style for neutral annotations (blue)
	Info = lipgloss.NewStyle().
		Foreground(lipgloss.AdaptiveColor{Light: "25", Dark: "39"})

	// Dim style for secondary information (gray)
	Dim = lipgloss.NewStyle().
		Foreground(lipgloss.AdaptiveColor{Light: "245", Dark: "240"})

	// Bold style for emphasis
	Bold = lipgloss.NewStyle().Bold(true)

	// SuccessPrefix marks healthy lines.
	SuccessPrefix = Success.Render("●")

	// WarningPrefix marks stale lines.
	WarningPrefix = Warning.Render("◐")

	// ErrorPrefix marks dead lines.
	ErrorPrefix = Error.Render("✗")
)

// IsTerminal reports whether stdout is a terminal. Callers can skip styled
// output when piping.
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// PrintWarning prints a warning message with consistent formatting.
// The format and args work like fmt.Printf.
func PrintWarning(format string, args ...interface{}) {
	fmt.Printf("%s %s\n", Warning.Render("Warning:"), fmt.Sprintf(format, args...))
}

// PrintError prints an error message with consistent formatting.
func PrintError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "%s %s\n", Error.Render("Error:"), fmt.Sprintf(format, args...))
}
