// Package vitalog provides the append-only liveness event log.
//
// The daemon records what happened to each watched uid (beats from
// beacons, timeouts, recoveries, escalations) as human-readable lines that
// `pulsewatch log` reads back for filtering and tailing.
package vitalog

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// EventType classifies a liveness event.
type EventType string

const (
	// EventStarted indicates the daemon began watching.
	EventStarted EventType = "started"
	// EventStopped indicates the daemon shut down.
	EventStopped EventType = "stopped"
	// EventBeat indicates a heartbeat was recorded for a uid.
	EventBeat EventType = "beat"
	// EventWatch indicates a detector was registered for a uid.
	EventWatch EventType = "watch"
	// EventTimeout indicates a uid exceeded its silence window.
	EventTimeout EventType = "timeout"
	// EventRecovered indicates a failing uid was replaced.
	EventRecovered EventType = "recovered"
	// EventEscalated indicates the termination protocol ran for a uid.
	EventEscalated EventType = "escalated"
	// EventStartupOK indicates the startup barrier was satisfied.
	EventStartupOK EventType = "startup_ok"
	// EventStartupFail indicates the startup barrier timed out.
	EventStartupFail EventType = "startup_fail"
)

// Event is a single liveness event.
type Event struct {
	Timestamp time.Time
	Type      EventType
	UID       string
	Detail    string
}

// timeLayout is the line timestamp format.
const timeLayout = "2006-01-02 15:04:05"

// Logger appends events to the vital log file.
type Logger struct {
	path string
	mu   sync.Mutex
}

// logPath returns the path of the vital log under a state directory.
func logPath(stateDir string) string {
	return filepath.Join(stateDir, "logs", "vital.log")
}

// NewLogger creates a Logger for the given state directory.
func NewLogger(stateDir string) *Logger {
	return &Logger{path: logPath(stateDir)}
}

// Append writes a single event to the log.
func (l *Logger) Append(event Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return fmt.Errorf("creating log directory: %w", err)
	}

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(event.String() + "\n"); err != nil {
		return fmt.Errorf("writing log line: %w", err)
	}
	return nil
}

// Log is a convenience wrapper that stamps and appends an event.
func (l *Logger) Log(eventType EventType, uid, detail string) error {
	return l.Append(Event{
		Timestamp: time.Now(),
		Type:      eventType,
		UID:       uid,
		Detail:    detail,
	})
}

// String renders an event as a log line.
// Format: 2026-08-31 15:30:45 [timeout] worker-3 silent for 12.0s
func (e Event) String() string {
	line := fmt.Sprintf("%s [%s] %s", e.Timestamp.Format(timeLayout), e.Type, e.UID)
	if e.Detail != "" {
		line += " " + e.Detail
	}
	return line
}

// parseLine parses a single log line back into an Event.
func parseLine(line string) (Event, error) {
	var event Event

	if len(line) < len(timeLayout) {
		return event, fmt.Errorf("line too short")
	}
	ts, err := time.Parse(timeLayout, line[:len(timeLayout)])
	if err != nil {
		return event, fmt.Errorf("parsing timestamp: %w", err)
	}
	event.Timestamp = ts

	rest := strings.TrimPrefix(line[len(timeLayout):], " ")
	if !strings.HasPrefix(rest, "[") {
		return event, fmt.Errorf("missing event type")
	}
	closing := strings.IndexByte(rest, ']')
	if closing < 0 {
		return event, fmt.Errorf("unclosed event type")
	}
	event.Type = EventType(rest[1:closing])

	rest = strings.TrimPrefix(rest[closing+1:], " ")
	if rest == "" {
		return event, fmt.Errorf("missing uid")
	}
	if idx := strings.IndexByte(rest, ' '); idx >= 0 {
		event.UID = rest[:idx]
		event.Detail = rest[idx+1:]
	} else {
		event.UID = rest
	}

	return event, nil
}

// Read returns all events recorded under the state directory. A missing
// log file yields no events.
func Read(stateDir string) ([]Event, error) {
	content, err := os.ReadFile(logPath(stateDir))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading log file: %w", err)
	}

	var events []Event
	for _, line := range strings.Split(string(content), "\n") {
		if line == "" {
			continue
		}
		event, err := parseLine(line)
		if err != nil {
			continue // skip malformed lines
		}
		events = append(events, event)
	}
	return events, nil
}

// Tail returns the last n events.
func Tail(stateDir string, n int) ([]Event, error) {
	events, err := Read(stateDir)
	if err != nil {
		return nil, err
	}
	if len(events) <= n {
		return events, nil
	}
	return events[len(events)-n:], nil
}

// Filter selects events by criteria; zero values match everything.
type Filter struct {
	Type  EventType
	UID   string
	Since time.Time
}

// Apply returns the events matching the filter.
func (f Filter) Apply(events []Event) []Event {
	var result []Event
	for _, e := range events {
		if f.Type != "" && e.Type != f.Type {
			continue
		}
		if f.UID != "" && e.UID != f.UID {
			continue
		}
		if !f.Since.IsZero() && e.Timestamp.Before(f.Since) {
			continue
		}
		result = append(result, e)
	}
	return result
}
