package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kmaeder/pulsewatch/internal/beacon"
	"github.com/kmaeder/pulsewatch/internal/config"
	"github.com/kmaeder/pulsewatch/internal/heartbeat"
	"github.com/kmaeder/pulsewatch/internal/lockfile"
	"github.com/kmaeder/pulsewatch/internal/vitalog"
)

var (
	runConfigPath string
	runVerbose    bool
)

// lockTimeout bounds how long run waits for a competing daemon to let go
// of the state directory.
const lockTimeout = 5 * time.Second

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the liveness monitoring daemon",
	Long: `Run the pulsewatch daemon.

The daemon loads its watches from the config file, registers them with
the heartbeat monitor, and forwards fresh beacon files as heartbeats.
When a watched entity falls silent past the timeout, the daemon either
restamps it under a new uid (restamp = true) or terminates itself so a
supervisor can restart the whole arrangement.

Examples:
  pulsewatch run
  pulsewatch run --config /etc/pulsewatch.toml --verbose`,
	Args: cobra.NoArgs,
	RunE: runDaemon,
}

func init() {
	runCmd.Flags().StringVar(&runConfigPath, "config", "",
		"config file (default <state-dir>/pulsewatch.toml)")
	runCmd.Flags().BoolVar(&runVerbose, "verbose", false, "debug logging")
	rootCmd.AddCommand(runCmd)
}

func runDaemon(cmd *cobra.Command, args []string) error {
	dir := resolveStateDir()

	cfgPath := runConfigPath
	if cfgPath == "" {
		cfgPath = filepath.Join(dir, "pulsewatch.toml")
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}

	lock := lockfile.New(dir)
	if err := lock.Acquire(lockTimeout); err != nil {
		return err
	}
	defer lock.Release()

	logger, err := buildLogger(runVerbose)
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	vlog := vitalog.NewLogger(dir)

	uid := cfg.Monitor.UID
	if uid == "" {
		uid = "pw-" + uuid.NewString()[:8]
	}

	mon, err := heartbeat.New(heartbeat.Config{
		UID:      uid,
		Timeout:  cfg.Monitor.Timeout.Duration,
		Interval: cfg.Monitor.Interval.Duration,
		Grace:    cfg.Monitor.Grace.Duration,
		Logger:   sugar,
		// The daemon's own beacon, so an upstream pulsewatch can
		// watch this one.
		OnTick: func() {
			_ = beacon.Touch(dir, uid)
		},
		Recover: recoveryFunc(cfg, vlog, sugar),
	})
	if err != nil {
		return err
	}

	for _, w := range cfg.Watches {
		mon.RegisterWatch(w.UID, buildDetector(w))
		detail := fmt.Sprintf("kind %s", w.Kind)
		_ = vlog.Log(vitalog.EventWatch, w.UID, detail)
		sugar.Infof("watching %s (%s)", w.UID, detail)
	}

	mon.Start()
	defer mon.Stop()
	_ = vlog.Log(vitalog.EventStarted, uid,
		fmt.Sprintf("interval %s timeout %s", cfg.Monitor.Interval, cfg.Monitor.Timeout))
	sugar.Infof("pulsewatch %s up: interval %s, timeout %s, %d watches",
		uid, cfg.Monitor.Interval, cfg.Monitor.Timeout, len(cfg.Watches))

	if len(cfg.Startup.Require) > 0 {
		go func() {
			missing := mon.WaitStartup(cfg.Startup.Require, cfg.Startup.Wait.Duration)
			if missing == nil {
				_ = vlog.Log(vitalog.EventStartupOK, uid,
					fmt.Sprintf("all of %v seen", cfg.Startup.Require))
				sugar.Infof("startup barrier satisfied: %v", cfg.Startup.Require)
				return
			}
			_ = vlog.Log(vitalog.EventStartupFail, uid,
				fmt.Sprintf("missing %v", missing))
			sugar.Warnf("startup barrier expired, never seen: %v", missing)
		}()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	ticker := time.NewTicker(cfg.Monitor.Interval.Duration)
	defer ticker.Stop()

	forwarded := make(map[string]time.Time)
	for {
		select {
		case sig := <-sigCh:
			sugar.Infof("received %s, shutting down", sig)
			_ = vlog.Log(vitalog.EventStopped, uid, sig.String())
			return nil
		case <-ticker.C:
			forwardBeacons(mon, vlog, dir, uid, cfg.Monitor.BeaconStale.Duration, forwarded)
		}
	}
}

// buildLogger constructs the daemon's zap logger.
func buildLogger(verbose bool) (*zap.Logger, error) {
	logCfg := zap.NewProductionConfig()
	logCfg.Encoding = "console"
	logCfg.DisableStacktrace = true
	if verbose {
		logCfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	return logCfg.Build()
}

// buildDetector maps a validated watch config to a detector.
func buildDetector(w config.WatchConfig) heartbeat.Detector {
	switch w.Kind {
	case config.KindProcess:
		return heartbeat.ProcessDetector(w.PIDs...)
	case config.KindFileRemoval:
		return heartbeat.FileRemovalDetector(w.Paths...)
	case config.KindFileCreation:
		return heartbeat.FileCreationDetector(w.Paths...)
	}
	// unreachable: config.Validate rejects unknown kinds
	return heartbeat.DetectorFunc(func(string) (bool, error) {
		return false, fmt.Errorf("unknown watch kind %q", w.Kind)
	})
}

// recoveryFunc builds the monitor's recovery callback. With restamp
// enabled a failing uid is replaced by a generated successor; otherwise
// recovery is declined and the monitor escalates, which the vital log
// records before the signals go out.
func recoveryFunc(cfg *config.Config, vlog *vitalog.Logger, sugar *zap.SugaredLogger) func(string) string {
	return func(uid string) string {
		if !cfg.Monitor.Restamp {
			_ = vlog.Log(vitalog.EventTimeout, uid, "recovery declined")
			_ = vlog.Log(vitalog.EventEscalated, uid,
				fmt.Sprintf("terminating pid %d", os.Getpid()))
			return ""
		}

		replacement := restampUID(uid)
		_ = vlog.Log(vitalog.EventRecovered, uid, "restamped as "+replacement)
		sugar.Warnf("restamping %s as %s", uid, replacement)
		return replacement
	}
}

// restampUID derives a successor uid for a failing entity. Earlier restamp
// suffixes are stripped so uids don't grow without bound.
func restampUID(uid string) string {
	if idx := strings.LastIndex(uid, "+"); idx > 0 {
		uid = uid[:idx]
	}
	return uid + "+" + uuid.NewString()[:8]
}

// forwardBeacons turns freshly touched beacon files into heartbeats.
// Beacons older than stale are ignored; repeat observations of the same
// touch are forwarded only once.
func forwardBeacons(mon *heartbeat.Monitor, vlog *vitalog.Logger, dir, selfUID string,
	stale time.Duration, forwarded map[string]time.Time) {

	states, err := beacon.List(dir)
	if err != nil {
		return
	}

	for _, st := range states {
		if st.UID == selfUID {
			continue // our own tick beacon
		}
		if stale > 0 && st.Age() > stale {
			continue
		}
		if !st.Timestamp.After(forwarded[st.UID]) {
			continue
		}
		forwarded[st.UID] = st.Timestamp
		mon.BeatAt(st.UID, st.Timestamp)
		_ = vlog.Log(vitalog.EventBeat, st.UID,
			fmt.Sprintf("beacon touch %d", st.Count))
	}
}
