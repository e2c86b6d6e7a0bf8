// Package heartbeat provides a heartbeat-based liveness monitor.
//
// # Overview
//
// A Monitor tracks whether a set of cooperating entities (identified by
// uids) are still alive. Producers call Beat in intervals shorter than the
// configured timeout; a background watcher checks that heartbeats arrive
// timely. When an entity falls silent, the monitor first offers it to a
// recovery callback, and if recovery is declined it terminates the owning
// process with a graceful-then-forceful signal sequence.
//
// # Usage
//
//	m, err := heartbeat.New(heartbeat.Config{
//	    UID:     "pilot",
//	    Timeout: 30 * time.Second,
//	    Interval: time.Second,
//	})
//	if err != nil {
//	    return err
//	}
//	m.Start()
//	defer m.Stop()
//
//	// elsewhere, as often as needed:
//	m.Beat("worker-1")
//
// Instead of explicit beats, a watch can be registered which synthesizes a
// heartbeat from an external condition once per tick:
//
//	m.RegisterWatch("parent", heartbeat.ProcessDetector(os.Getppid()))
//
// A detector returning true counts as a heartbeat for its uid. A detector
// returning an error marks its uid unrecoverably dead, skipping the timeout
// window entirely.
//
// # Recommendations
//
//   - Set the timeout to several times the beat interval of the producers.
//   - Keep the recovery callback fast; it runs on the watcher goroutine.
package heartbeat

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/kmaeder/pulsewatch/internal/proc"
)

// DefaultUID is the uid used when Beat or RegisterWatch get an empty uid.
const DefaultUID = "default"

// startupPoll is the poll interval of WaitStartup. It is deliberately much
// shorter than any sane watcher interval.
const startupPoll = 50 * time.Millisecond

// ErrInterval is returned by New when the check interval exceeds the timeout.
var ErrInterval = errors.New("interval exceeds timeout")

// Logger is the logging sink consumed by the monitor.
// *zap.SugaredLogger satisfies it directly.
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// nopLogger discards everything. Used when no logger is configured.
type nopLogger struct{}

func (nopLogger) Debugf(string, ...interface{}) {}
func (nopLogger) Infof(string, ...interface{})  {}
func (nopLogger) Warnf(string, ...interface{})  {}
func (nopLogger) Errorf(string, ...interface{}) {}

// Config configures a Monitor.
type Config struct {
	// UID identifies the monitor itself, for logging.
	UID string

	// Timeout is how long an entity may stay silent before the
	// recovery/termination protocol runs for it. Zero disables timeout
	// enforcement entirely: entities are then treated as alive no matter
	// how long they have been silent. Detector failures still escalate.
	Timeout time.Duration

	// Interval between watcher ticks. Must not exceed Timeout when a
	// timeout is set.
	// Default: 1 second
	Interval time.Duration

	// OnTick, if set, is invoked once per watcher tick regardless of
	// watched entities. Used so this monitor can itself feed an upstream
	// monitor.
	OnTick func()

	// Recover, if set, is consulted when an entity times out or a
	// detector declares it dead. It receives the failing uid and returns
	// a replacement uid, or "" to decline. On a replacement the old
	// entity is retired and the new one starts a fresh timeout clock.
	Recover func(uid string) string

	// Grace is the pause between the graceful and the forceful
	// termination signal.
	// Default: 1 second
	Grace time.Duration

	// Logger receives debug/info/warn/error messages.
	// Default: discard
	Logger Logger
}

// Monitor is a heartbeat-based liveness monitor. See the package
// documentation for the full protocol.
//
// All methods are safe for concurrent use. Beat never blocks on the watcher
// and the internal lock is never held across a detector or callback
// invocation.
type Monitor struct {
	uid      string
	timeout  time.Duration
	interval time.Duration
	grace    time.Duration
	onTick   func()
	recover  func(string) string
	log      Logger

	pid      int
	stamps   *stampTable
	watches  *watchSet
	stop     chan struct{}
	stopOnce sync.Once

	// signal delivers the termination signals. Tests substitute a
	// recording stub.
	signal func(pid int, forced bool) error
}

// New creates a Monitor from cfg. It fails when a timeout is set and the
// interval exceeds it; no watcher is started in that case.
func New(cfg Config) (*Monitor, error) {
	interval := cfg.Interval
	if interval <= 0 {
		interval = time.Second
	}
	if cfg.Timeout > 0 && interval > cfg.Timeout {
		return nil, fmt.Errorf("%w: interval %v, timeout %v",
			ErrInterval, interval, cfg.Timeout)
	}

	grace := cfg.Grace
	if grace <= 0 {
		grace = time.Second
	}

	log := cfg.Logger
	if log == nil {
		log = nopLogger{}
	}

	return &Monitor{
		uid:      cfg.UID,
		timeout:  cfg.Timeout,
		interval: interval,
		grace:    grace,
		onTick:   cfg.OnTick,
		recover:  cfg.Recover,
		log:      log,
		pid:      os.Getpid(),
		stamps:   newStampTable(),
		watches:  newWatchSet(),
		stop:     make(chan struct{}),
		signal:   sendSignal,
	}, nil
}

// sendSignal is the production signal path of the escalation.
func sendSignal(pid int, forced bool) error {
	if forced {
		return proc.Kill(pid)
	}
	return proc.Terminate(pid)
}

// UID returns the monitor's own uid.
func (m *Monitor) UID() string {
	return m.uid
}

// Start spawns the background watcher. It is not idempotent: calling it
// twice produces two concurrent watchers, which is a caller error.
func (m *Monitor) Start() {
	m.log.Debugf("hb %s: start", m.uid)
	go m.watch()
}

// Stop requests watcher exit. It does not block: the watcher observes the
// request at its next wake-up, so it may still be mid-tick briefly after
// Stop returns. Calling Stop more than once is allowed.
func (m *Monitor) Stop() {
	m.stopOnce.Do(func() { close(m.stop) })
}

// Beat records a heartbeat for uid at the current time. An empty uid maps
// to DefaultUID. Beat always succeeds and never blocks on the watcher.
func (m *Monitor) Beat(uid string) {
	m.BeatAt(uid, time.Now())
}

// BeatAt records a heartbeat for uid at the given time. A zero timestamp
// means now.
func (m *Monitor) BeatAt(uid string, ts time.Time) {
	if uid == "" {
		uid = DefaultUID
	}
	if ts.IsZero() {
		ts = time.Now()
	}
	m.stamps.record(uid, ts)
}

// LastSeen returns the time of the last recorded heartbeat for uid.
// The second return is false when no heartbeat was ever recorded; a uid
// known only through RegisterWatch counts as never seen until its detector
// fires.
func (m *Monitor) LastSeen(uid string) (time.Time, bool) {
	if uid == "" {
		uid = DefaultUID
	}
	return m.stamps.get(uid)
}

// RegisterWatch registers or replaces the detector for uid. The detector
// runs once per tick; a true result counts as a heartbeat for uid, an error
// marks uid unrecoverably dead. Detectors must not call back into the
// monitor.
func (m *Monitor) RegisterWatch(uid string, det Detector) {
	if uid == "" {
		uid = DefaultUID
	}
	m.watches.set(uid, det)

	// Make the uid known to the table so the watcher reports it as
	// "never seen" until the detector first fires.
	m.stamps.ensure(uid)
}

// WaitStartup blocks until every given uid has reported at least one
// heartbeat, or until the timeout elapses. It returns the uids never seen,
// or nil once all were seen. A zero timeout waits forever. No uids means
// waiting for DefaultUID.
func (m *Monitor) WaitStartup(uids []string, timeout time.Duration) []string {
	if len(uids) == 0 {
		uids = []string{DefaultUID}
	}

	start := time.Now()
	for {
		var missing []string
		for _, uid := range uids {
			if _, seen := m.stamps.get(uid); !seen {
				missing = append(missing, uid)
			}
		}

		if len(missing) == 0 {
			m.log.Debugf("hb %s: wait ok: %v", m.uid, uids)
			return nil
		}
		m.log.Debugf("hb %s: wait for: %v", m.uid, missing)

		if timeout > 0 && time.Since(start) > timeout {
			m.log.Debugf("hb %s: wait fail: %v", m.uid, missing)
			return missing
		}

		time.Sleep(startupPoll)
	}
}

// Dump writes the current heartbeat table to the given logger, for
// diagnostics. A nil logger falls back to the monitor's own. Dump has no
// other observable effect and never fails, even on an empty table.
func (m *Monitor) Dump(log Logger) {
	if log == nil {
		log = m.log
	}

	entries := m.stamps.snapshot()
	log.Debugf("hb %s: %d known uids", m.uid, len(entries))
	for uid, ts := range entries {
		if ts.IsZero() {
			log.Debugf("hb %s[%s]: never seen", m.uid, uid)
			continue
		}
		log.Debugf("hb %s[%s]: last seen %s", m.uid, uid,
			ts.Format(time.RFC3339Nano))
	}
}
