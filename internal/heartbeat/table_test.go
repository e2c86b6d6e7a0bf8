package heartbeat

import (
	"testing"
	"time"
)

func TestTableRecordAndGet(t *testing.T) {
	tab := newStampTable()

	if _, seen := tab.get("a"); seen {
		t.Fatal("expected unknown uid to be unseen")
	}

	now := time.Now()
	tab.record("a", now)

	ts, seen := tab.get("a")
	if !seen {
		t.Fatal("expected uid to be seen after record")
	}
	if !ts.Equal(now) {
		t.Errorf("expected %v, got %v", now, ts)
	}

	// record overwrites
	later := now.Add(time.Second)
	tab.record("a", later)
	ts, _ = tab.get("a")
	if !ts.Equal(later) {
		t.Errorf("expected overwrite to %v, got %v", later, ts)
	}
}

func TestTableEnsure(t *testing.T) {
	tab := newStampTable()

	tab.ensure("a")
	if _, seen := tab.get("a"); seen {
		t.Error("ensured uid must not count as seen")
	}

	keys := tab.keys()
	if len(keys) != 1 || keys[0] != "a" {
		t.Errorf("expected ensured uid in keys, got %v", keys)
	}

	// ensure must not clobber an existing stamp
	now := time.Now()
	tab.record("a", now)
	tab.ensure("a")
	ts, seen := tab.get("a")
	if !seen || !ts.Equal(now) {
		t.Error("ensure clobbered an existing stamp")
	}
}

func TestTableRemove(t *testing.T) {
	tab := newStampTable()
	tab.record("a", time.Now())
	tab.remove("a")

	if _, seen := tab.get("a"); seen {
		t.Error("expected removed uid to be unseen")
	}
	if len(tab.keys()) != 0 {
		t.Error("expected empty table after remove")
	}

	// removing a missing uid is a no-op
	tab.remove("missing")
}

func TestTableSnapshot(t *testing.T) {
	tab := newStampTable()
	tab.record("a", time.Now())
	tab.ensure("b")

	snap := tab.snapshot()
	if len(snap) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(snap))
	}

	// snapshot is a copy
	delete(snap, "a")
	if _, seen := tab.get("a"); !seen {
		t.Error("mutating the snapshot must not affect the table")
	}
}
