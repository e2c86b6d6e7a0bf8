package lockfile

import (
	"errors"
	"os"
	"testing"
	"time"
)

func TestAcquireRelease(t *testing.T) {
	dir := t.TempDir()
	l := New(dir)

	if err := l.Acquire(time.Second); err != nil {
		t.Fatalf("acquire failed: %v", err)
	}

	info := l.Holder()
	if info == nil {
		t.Fatal("expected holder info after acquire")
	}
	if info.PID != os.Getpid() {
		t.Errorf("expected our pid %d, got %d", os.Getpid(), info.PID)
	}

	if err := l.Release(); err != nil {
		t.Fatalf("release failed: %v", err)
	}
	if l.Holder() != nil {
		t.Error("expected no holder info after release")
	}
}

func TestSecondAcquireBlocks(t *testing.T) {
	dir := t.TempDir()

	first := New(dir)
	if err := first.Acquire(time.Second); err != nil {
		t.Fatal(err)
	}
	defer first.Release()

	// flock locks are per file handle, so a second Lock in the same
	// process contends like a second daemon would
	second := New(dir)
	err := second.Acquire(300 * time.Millisecond)
	if !errors.Is(err, ErrHeld) {
		t.Fatalf("expected ErrHeld, got %v", err)
	}
}

func TestAcquireCreatesStateDir(t *testing.T) {
	dir := t.TempDir() + "/nested/state"
	l := New(dir)

	if err := l.Acquire(time.Second); err != nil {
		t.Fatalf("acquire failed: %v", err)
	}
	defer l.Release()

	if _, err := os.Stat(dir); err != nil {
		t.Errorf("expected state dir to exist: %v", err)
	}
}
