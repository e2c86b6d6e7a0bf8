// Package config provides the TOML configuration for the pulsewatch daemon.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// Watch kinds, a closed set.
const (
	// KindProcess watches one or more PIDs; fails when any of them dies.
	KindProcess = "process"
	// KindFileRemoval watches paths; fails when any of them disappears.
	KindFileRemoval = "file-removal"
	// KindFileCreation watches paths; fails when any of them appears.
	KindFileCreation = "file-creation"
)

// Config is the daemon configuration loaded from TOML.
type Config struct {
	Monitor MonitorConfig `toml:"monitor"`
	Startup StartupConfig `toml:"startup"`
	Watches []WatchConfig `toml:"watch"`
}

// MonitorConfig configures the monitor itself.
type MonitorConfig struct {
	// UID identifies this monitor instance. Empty means a generated uid.
	UID string `toml:"uid,omitempty"`

	// Interval between watcher ticks.
	Interval Duration `toml:"interval"`

	// Timeout is the silence window per watched uid. Zero disables
	// timeout enforcement.
	Timeout Duration `toml:"timeout"`

	// Grace is the pause between the graceful and forceful termination
	// signal on escalation.
	Grace Duration `toml:"grace"`

	// Restamp makes the daemon answer recovery requests by restarting
	// the failing uid's clock under a generated replacement uid instead
	// of terminating. Off by default: silence kills the daemon.
	Restamp bool `toml:"restamp"`

	// BeaconStale is the maximum beacon age forwarded as a heartbeat.
	// Older beacons are left to time out.
	BeaconStale Duration `toml:"beacon_stale"`
}

// StartupConfig configures the startup barrier.
type StartupConfig struct {
	// Require lists uids that must beat at least once before the daemon
	// starts enforcing timeouts.
	Require []string `toml:"require,omitempty"`

	// Wait bounds the startup barrier. Zero waits forever.
	Wait Duration `toml:"wait"`
}

// WatchConfig configures one registered detector.
type WatchConfig struct {
	// UID names the watched entity.
	UID string `toml:"uid"`

	// Kind selects the detector: process, file-removal, file-creation.
	Kind string `toml:"kind"`

	// PIDs are the processes for a process watch.
	PIDs []int `toml:"pids,omitempty"`

	// Paths are the files for a file watch.
	Paths []string `toml:"paths,omitempty"`
}

// Duration is a wrapper for time.Duration that supports TOML marshaling.
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler for Duration.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	d.Duration = parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler for Duration.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// String returns the duration as a string.
func (d Duration) String() string {
	return d.Duration.String()
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Monitor: MonitorConfig{
			Interval:    Duration{time.Second},
			Timeout:     Duration{30 * time.Second},
			Grace:       Duration{time.Second},
			BeaconStale: Duration{time.Minute},
		},
	}
}

// Load reads and validates a configuration file. Fields not present in the
// file keep their defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for contradictions.
func (c *Config) Validate() error {
	if c.Monitor.Interval.Duration <= 0 {
		return fmt.Errorf("monitor interval must be positive, got %s", c.Monitor.Interval)
	}
	if t := c.Monitor.Timeout.Duration; t > 0 && c.Monitor.Interval.Duration > t {
		return fmt.Errorf("monitor interval %s exceeds timeout %s",
			c.Monitor.Interval, c.Monitor.Timeout)
	}

	seen := make(map[string]bool)
	for i, w := range c.Watches {
		if w.UID == "" {
			return fmt.Errorf("watch %d: uid is required", i)
		}
		if seen[w.UID] {
			return fmt.Errorf("watch %d: duplicate uid %q", i, w.UID)
		}
		seen[w.UID] = true

		switch w.Kind {
		case KindProcess:
			if len(w.PIDs) == 0 {
				return fmt.Errorf("watch %q: process watch needs pids", w.UID)
			}
		case KindFileRemoval, KindFileCreation:
			if len(w.Paths) == 0 {
				return fmt.Errorf("watch %q: file watch needs paths", w.UID)
			}
		default:
			return fmt.Errorf("watch %q: unknown kind %q (valid: %s, %s, %s)",
				w.UID, w.Kind, KindProcess, KindFileRemoval, KindFileCreation)
		}
	}

	return nil
}
