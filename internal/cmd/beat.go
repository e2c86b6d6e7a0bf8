package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kmaeder/pulsewatch/internal/beacon"
	"github.com/kmaeder/pulsewatch/internal/heartbeat"
	"github.com/kmaeder/pulsewatch/internal/style"
)

var beatUID string

var beatCmd = &cobra.Command{
	Use:   "beat",
	Short: "Record a heartbeat",
	Long: `Record a heartbeat by touching the beacon file for a uid.

A running daemon forwards fresh beacons as heartbeats, so out-of-process
producers stay alive by calling this in intervals shorter than the
daemon's timeout:

  while my-job-is-running; do pulsewatch beat --uid my-job; sleep 5; done`,
	Args: cobra.NoArgs,
	RunE: runBeat,
}

func init() {
	beatCmd.Flags().StringVar(&beatUID, "uid", heartbeat.DefaultUID, "entity to beat for")
	rootCmd.AddCommand(beatCmd)
}

func runBeat(cmd *cobra.Command, args []string) error {
	dir := resolveStateDir()

	if err := beacon.Touch(dir, beatUID); err != nil {
		return fmt.Errorf("touching beacon: %w", err)
	}

	st := beacon.Read(dir, beatUID)
	count := int64(0)
	if st != nil {
		count = st.Count
	}
	fmt.Printf("%s %s %s\n", style.SuccessPrefix, beatUID,
		style.Dim.Render(fmt.Sprintf("(touch %d)", count)))
	return nil
}
