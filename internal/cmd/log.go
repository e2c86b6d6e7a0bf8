package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kmaeder/pulsewatch/internal/style"
	"github.com/kmaeder/pulsewatch/internal/vitalog"
)

var (
	logCount int
	logType  string
	logUID   string
	logSince time.Duration
)

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Show liveness events",
	Long: `Show the tail of the liveness event log.

Examples:
  pulsewatch log
  pulsewatch log --type escalated
  pulsewatch log --uid worker-3 --since 1h`,
	Args: cobra.NoArgs,
	RunE: runLog,
}

func init() {
	logCmd.Flags().IntVarP(&logCount, "count", "n", 20, "number of events to show")
	logCmd.Flags().StringVar(&logType, "type", "", "filter by event type")
	logCmd.Flags().StringVar(&logUID, "uid", "", "filter by uid")
	logCmd.Flags().DurationVar(&logSince, "since", 0, "only events younger than this")
	rootCmd.AddCommand(logCmd)
}

func runLog(cmd *cobra.Command, args []string) error {
	events, err := vitalog.Read(resolveStateDir())
	if err != nil {
		return err
	}

	filter := vitalog.Filter{
		Type: vitalog.EventType(logType),
		UID:  logUID,
	}
	if logSince > 0 {
		filter.Since = time.Now().Add(-logSince)
	}
	events = filter.Apply(events)

	if len(events) > logCount {
		events = events[len(events)-logCount:]
	}
	if len(events) == 0 {
		fmt.Println(style.Dim.Render("no events"))
		return nil
	}

	// Piped output keeps the on-disk line format so it greps cleanly.
	if !style.IsTerminal() {
		for _, e := range events {
			fmt.Println(e.String())
		}
		return nil
	}

	for _, e := range events {
		fmt.Printf("%s %s %s %s\n",
			style.Dim.Render(e.Timestamp.Format("2006-01-02 15:04:05")),
			eventStyle(e.Type).Render(fmt.Sprintf("[%s]", e.Type)),
			e.UID, e.Detail)
	}
	return nil
}

// eventStyle maps event severity to a style.
func eventStyle(t vitalog.EventType) interface{ Render(...string) string } {
	switch t {
	case vitalog.EventTimeout, vitalog.EventEscalated, vitalog.EventStartupFail:
		return style.Error
	case vitalog.EventRecovered:
		return style.Warning
	case vitalog.EventStarted, vitalog.EventStartupOK:
		return style.Success
	default:
		return style.Info
	}
}
