package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kmaeder/pulsewatch/internal/beacon"
	"github.com/kmaeder/pulsewatch/internal/lockfile"
	"github.com/kmaeder/pulsewatch/internal/style"
)

var statusStale time.Duration

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show beacon freshness",
	Long: `Show every known beacon and how long ago it was touched.

Beacons younger than --stale are healthy, beacons up to twice that age
are stale, older ones are presumed dead.`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().DurationVar(&statusStale, "stale", 30*time.Second,
		"age after which a beacon counts as stale")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	dir := resolveStateDir()

	if holder := lockfile.New(dir).Holder(); holder != nil {
		fmt.Printf("daemon: %s\n", style.Info.Render(
			fmt.Sprintf("pid %d (since %s)", holder.PID,
				holder.AcquiredAt.Format(time.RFC3339))))
	} else {
		fmt.Printf("daemon: %s\n", style.Dim.Render("not running"))
	}

	states, err := beacon.List(dir)
	if err != nil {
		return fmt.Errorf("listing beacons: %w", err)
	}
	if len(states) == 0 {
		fmt.Println(style.Dim.Render("no beacons"))
		return nil
	}

	for _, st := range states {
		age := st.Age()

		var prefix string
		switch {
		case age <= statusStale:
			prefix = style.SuccessPrefix
		case age <= 2*statusStale:
			prefix = style.WarningPrefix
		default:
			prefix = style.ErrorPrefix
		}

		fmt.Printf("%s %-24s %s\n", prefix, st.UID,
			style.Dim.Render(fmt.Sprintf("last beat %s ago, %d touches",
				age.Round(time.Second), st.Count)))
	}
	return nil
}
