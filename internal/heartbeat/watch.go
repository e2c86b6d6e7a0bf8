package heartbeat

import "time"

// watch is the background watcher loop. It runs until Stop and drives one
// tick per interval. Detector and callback invocations happen without any
// lock held, so a slow detector delays only this loop, never producers
// calling Beat.
func (m *Monitor) watch() {
	// initial self-heartbeat without delay
	if m.onTick != nil {
		m.onTick()
	}

	for {
		select {
		case <-m.stop:
			m.log.Debugf("hb %s: watcher exit", m.uid)
			return
		case <-time.After(m.interval):
		}

		m.tick(time.Now())
	}
}

// tick runs one watcher iteration: self-heartbeat, registered detectors,
// timeout scan, and finally any escalations. Escalations are deferred to
// the end of the tick so that every uid is fully evaluated first - a uid
// is never skipped because an earlier uid in the same tick went fatal.
func (m *Monitor) tick(now time.Time) {
	if m.onTick != nil {
		m.onTick()
	}

	// A uid can be condemned at most once per tick, whether by its
	// detector or by the timeout scan.
	var doomed []string
	condemned := make(map[string]bool)

	for uid, det := range m.watches.snapshot() {
		ok, err := det.Check(uid)
		switch {
		case err != nil:
			// Dead regardless of the timeout window.
			m.log.Warnf("hb %s[%s]: watch failed: %v", m.uid, uid, err)
			condemned[uid] = true
			if !m.tryRecover(uid) {
				doomed = append(doomed, uid)
			}
		case ok:
			m.stamps.record(uid, time.Now())
		}
	}

	for _, uid := range m.stamps.keys() {
		if condemned[uid] {
			continue
		}

		last, seen := m.stamps.get(uid)
		if !seen {
			m.log.Warnf("hb %s[%s]: never seen", m.uid, uid)
			continue
		}

		// No timeout configured: the entity is assumed alive no
		// matter how long it has been silent.
		if m.timeout <= 0 {
			continue
		}

		if elapsed := now.Sub(last); elapsed > m.timeout {
			m.log.Warnf("hb %s[%s]: silent for %.1fs (timeout %.1fs)",
				m.uid, uid, elapsed.Seconds(), m.timeout.Seconds())
			if !m.tryRecover(uid) {
				doomed = append(doomed, uid)
			}
		}
	}

	for _, uid := range doomed {
		m.escalate(uid)
	}
}

// tryRecover asks the recovery callback to substitute a replacement for
// the failing uid. On success the old entity is retired and the
// replacement starts a fresh timeout clock. Returns false when recovery is
// not configured or declined.
func (m *Monitor) tryRecover(uid string) bool {
	if m.recover == nil {
		return false
	}

	replacement := m.recover(uid)
	if replacement == "" {
		return false
	}

	m.log.Infof("hb %s: recovered %s -> %s", m.uid, uid, replacement)
	m.stamps.remove(uid)
	m.stamps.record(replacement, time.Now())
	return true
}

// escalate terminates the owning process over a failed uid: graceful
// signal, grace period, forceful signal. Once entered the sequence runs to
// completion; a concurrent Stop does not cancel it.
func (m *Monitor) escalate(uid string) {
	m.log.Errorf("hb %s[%s]: unrecoverable, terminating pid %d",
		m.uid, uid, m.pid)

	if err := m.signal(m.pid, false); err != nil {
		m.log.Warnf("hb %s: graceful signal failed: %v", m.uid, err)
	}
	time.Sleep(m.grace)
	if err := m.signal(m.pid, true); err != nil {
		m.log.Warnf("hb %s: forceful signal failed: %v", m.uid, err)
	}
}
