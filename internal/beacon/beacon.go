// Package beacon provides file-based heartbeat records for out-of-process
// producers.
//
// A producer that cannot call the monitor directly touches a beacon file
// instead; the pulsewatch daemon turns fresh beacons into heartbeats and
// can watch beacon paths with its file detectors.
//
// This package uses a best-effort design: beacons are non-critical
// signals, so Read returns nil instead of an error when a beacon is
// missing or unreadable, and State.Age accepts nil receivers, returning a
// sentinel duration large enough to exceed any staleness threshold. This
// lets callers treat "no beacon" and "stale beacon" uniformly:
//
//	if beacon.Read(dir, uid).Age() > timeout { ... }
package beacon

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// State represents the beacon file contents for one uid.
type State struct {
	// UID identifies the producer.
	UID string `json:"uid"`

	// Timestamp is when the beacon was last touched.
	Timestamp time.Time `json:"timestamp"`

	// Count is the number of touches so far.
	Count int64 `json:"count"`
}

// Dir returns the beacon directory under the given state directory.
func Dir(stateDir string) string {
	return filepath.Join(stateDir, "beacons")
}

// Path returns the beacon file path for uid.
func Path(stateDir, uid string) string {
	return filepath.Join(Dir(stateDir), uid+".json")
}

// Touch records a heartbeat for uid by rewriting its beacon file,
// incrementing the touch count.
func Touch(stateDir, uid string) error {
	count := int64(1)
	if prev := Read(stateDir, uid); prev != nil {
		count = prev.Count + 1
	}

	return Write(stateDir, &State{
		UID:       uid,
		Timestamp: time.Now().UTC(),
		Count:     count,
	})
}

// Write stores a beacon state. A zero timestamp is filled with now.
func Write(stateDir string, st *State) error {
	path := Path(stateDir, st.UID)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	if st.Timestamp.IsZero() {
		st.Timestamp = time.Now().UTC()
	}

	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Read returns the beacon state for uid, or nil if the beacon doesn't
// exist or can't be parsed.
func Read(stateDir, uid string) *State {
	data, err := os.ReadFile(Path(stateDir, uid))
	if err != nil {
		return nil
	}

	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return nil
	}
	if st.UID == "" {
		st.UID = uid
	}

	return &st
}

// Age returns how old the beacon is. A nil state reports a year, which
// exceeds any reasonable staleness threshold.
func (s *State) Age() time.Duration {
	if s == nil {
		return 24 * time.Hour * 365
	}
	return time.Since(s.Timestamp)
}

// List returns all beacon states under the state directory, sorted by uid.
// A missing beacon directory yields an empty list.
func List(stateDir string) ([]*State, error) {
	entries, err := os.ReadDir(Dir(stateDir))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var states []*State
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		uid := strings.TrimSuffix(name, ".json")
		if st := Read(stateDir, uid); st != nil {
			states = append(states, st)
		}
	}

	sort.Slice(states, func(i, j int) bool { return states[i].UID < states[j].UID })
	return states, nil
}
