// Package lockfile guards a pulsewatch state directory against concurrent
// daemons.
//
// The lock is a flock(2)-style advisory lock on <state-dir>/pulsewatch.lock;
// alongside it an info file records who holds the lock, so `status` and
// error messages can name the owning process.
package lockfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

// ErrHeld is returned by Acquire when another process holds the lock.
var ErrHeld = errors.New("state directory is locked by another process")

// retryInterval is how often Acquire retries the lock while waiting.
const retryInterval = 100 * time.Millisecond

// Info describes the holder of a lock.
type Info struct {
	PID        int       `json:"pid"`
	Hostname   string    `json:"hostname,omitempty"`
	AcquiredAt time.Time `json:"acquired_at"`
}

// Lock is an exclusive lock on a state directory.
type Lock struct {
	stateDir string
	fl       *flock.Flock
}

// New creates a Lock for the given state directory. Nothing is locked
// until Acquire.
func New(stateDir string) *Lock {
	return &Lock{
		stateDir: stateDir,
		fl:       flock.New(filepath.Join(stateDir, "pulsewatch.lock")),
	}
}

// Acquire takes the lock, retrying until the timeout elapses. Returns
// ErrHeld (with the holder's info when readable) if the lock stays busy.
func (l *Lock) Acquire(timeout time.Duration) error {
	if err := os.MkdirAll(l.stateDir, 0755); err != nil {
		return fmt.Errorf("creating state directory: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	locked, err := l.fl.TryLockContext(ctx, retryInterval)
	if err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("acquiring lock: %w", err)
	}
	if !locked {
		if info := l.Holder(); info != nil {
			return fmt.Errorf("%w: PID %d (since %s)", ErrHeld,
				info.PID, info.AcquiredAt.Format(time.RFC3339))
		}
		return ErrHeld
	}

	return l.writeInfo()
}

// Release drops the lock and removes the holder info.
func (l *Lock) Release() error {
	if err := os.Remove(l.infoPath()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing lock info: %w", err)
	}
	return l.fl.Unlock()
}

// Holder returns the recorded holder info, or nil when none is readable.
func (l *Lock) Holder() *Info {
	data, err := os.ReadFile(l.infoPath())
	if err != nil {
		return nil
	}

	var info Info
	if err := json.Unmarshal(data, &info); err != nil {
		return nil
	}
	return &info
}

func (l *Lock) infoPath() string {
	return filepath.Join(l.stateDir, "pulsewatch.lock.info")
}

func (l *Lock) writeInfo() error {
	hostname, _ := os.Hostname()
	info := Info{
		PID:        os.Getpid(),
		Hostname:   hostname,
		AcquiredAt: time.Now(),
	}

	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling lock info: %w", err)
	}

	if err := os.WriteFile(l.infoPath(), data, 0644); err != nil {
		return fmt.Errorf("writing lock info: %w", err)
	}
	return nil
}
