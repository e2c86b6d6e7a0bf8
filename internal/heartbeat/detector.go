package heartbeat

import (
	"fmt"
	"os"
	"sync"

	"github.com/kmaeder/pulsewatch/internal/proc"
)

// Detector converts an external condition into a liveness decision for a
// uid, once per watcher tick:
//
//   - (true, nil): counts as a heartbeat for the uid this tick
//   - (false, nil): no-op this tick
//   - (_, err): the uid is unrecoverably dead; the watcher runs the
//     recovery/termination protocol immediately, without waiting for the
//     timeout window
//
// Detectors are pure decision functions. They must not update the monitor
// themselves; the watcher applies a true result as if it were an explicit
// Beat call.
type Detector interface {
	Check(uid string) (bool, error)
}

// DetectorFunc adapts a plain function to the Detector interface.
type DetectorFunc func(uid string) (bool, error)

// Check calls f.
func (f DetectorFunc) Check(uid string) (bool, error) {
	return f(uid)
}

// ProcessDetector watches one or more processes. While all of them are
// alive it beats; when any of them is gone it fails.
func ProcessDetector(pids ...int) Detector {
	return processDetector{pids: pids}
}

type processDetector struct {
	pids []int
}

func (d processDetector) Check(uid string) (bool, error) {
	for _, pid := range d.pids {
		if !proc.Alive(pid) {
			return false, fmt.Errorf("watch %s: process %d is gone", uid, pid)
		}
	}
	return true, nil
}

// FileRemovalDetector watches one or more paths. While all of them exist
// it beats; when any of them disappears it fails.
func FileRemovalDetector(paths ...string) Detector {
	return fileDetector{paths: paths, failOnExist: false}
}

// FileCreationDetector watches one or more paths. While none of them exist
// it beats; when any of them appears it fails.
func FileCreationDetector(paths ...string) Detector {
	return fileDetector{paths: paths, failOnExist: true}
}

type fileDetector struct {
	paths       []string
	failOnExist bool
}

func (d fileDetector) Check(uid string) (bool, error) {
	for _, path := range d.paths {
		_, err := os.Stat(path)
		exists := err == nil
		if exists == d.failOnExist {
			if d.failOnExist {
				return false, fmt.Errorf("watch %s: %s appeared", uid, path)
			}
			return false, fmt.Errorf("watch %s: %s disappeared", uid, path)
		}
	}
	return true, nil
}

// watchSet holds the registered detectors, one per uid. Like the stamp
// table it is guarded by a single mutex held only for map access; the
// watcher invokes detectors on its own copy of the set.
type watchSet struct {
	mu   sync.Mutex
	dets map[string]Detector
}

func newWatchSet() *watchSet {
	return &watchSet{dets: make(map[string]Detector)}
}

// set inserts or replaces the detector for uid.
func (w *watchSet) set(uid string, det Detector) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.dets[uid] = det
}

// snapshot returns a copy of the detector map for lock-free iteration.
func (w *watchSet) snapshot() map[string]Detector {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make(map[string]Detector, len(w.dets))
	for uid, det := range w.dets {
		out[uid] = det
	}
	return out
}
