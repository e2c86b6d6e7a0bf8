// pulsewatch is a heartbeat-based liveness monitor for cooperating processes.
package main

import (
	"os"

	"github.com/kmaeder/pulsewatch/internal/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
