package heartbeat

import (
	"sync"
	"time"
)

// stampTable maps uids to their last-seen time. A zero time marks a uid
// that is known (registered via a watch) but has never reported a
// heartbeat - a distinct state from "seen but stale".
//
// All access is serialized by a single mutex. The critical section is a
// single map operation; callers never hold the lock across detector or
// callback invocations.
type stampTable struct {
	mu     sync.Mutex
	stamps map[string]time.Time
}

func newStampTable() *stampTable {
	return &stampTable{stamps: make(map[string]time.Time)}
}

// record stores the timestamp for uid, overwriting any previous value.
func (t *stampTable) record(uid string, ts time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stamps[uid] = ts
}

// ensure makes uid known without recording a heartbeat. A uid that already
// has a timestamp keeps it.
func (t *stampTable) ensure(uid string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.stamps[uid]; !ok {
		t.stamps[uid] = time.Time{}
	}
}

// get returns the last-seen time for uid. The second return is false when
// uid is unknown or was never seen.
func (t *stampTable) get(uid string) (time.Time, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	ts, ok := t.stamps[uid]
	if !ok || ts.IsZero() {
		return time.Time{}, false
	}
	return ts, true
}

// remove deletes the entry for uid, if any.
func (t *stampTable) remove(uid string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.stamps, uid)
}

// keys returns the currently known uids. The caller iterates without
// holding the lock.
func (t *stampTable) keys() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	uids := make([]string, 0, len(t.stamps))
	for uid := range t.stamps {
		uids = append(uids, uid)
	}
	return uids
}

// snapshot returns a copy of the whole table.
func (t *stampTable) snapshot() map[string]time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[string]time.Time, len(t.stamps))
	for uid, ts := range t.stamps {
		out[uid] = ts
	}
	return out
}
