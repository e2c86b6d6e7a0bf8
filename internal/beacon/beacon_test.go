package beacon

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestTouchAndRead(t *testing.T) {
	dir := t.TempDir()

	if err := Touch(dir, "worker"); err != nil {
		t.Fatal(err)
	}

	st := Read(dir, "worker")
	if st == nil {
		t.Fatal("expected a beacon after touch")
	}
	if st.UID != "worker" {
		t.Errorf("expected uid worker, got %q", st.UID)
	}
	if st.Count != 1 {
		t.Errorf("expected count 1, got %d", st.Count)
	}
	if st.Age() > time.Minute {
		t.Errorf("fresh beacon reports age %v", st.Age())
	}

	// touches increment the count
	if err := Touch(dir, "worker"); err != nil {
		t.Fatal(err)
	}
	if st := Read(dir, "worker"); st.Count != 2 {
		t.Errorf("expected count 2, got %d", st.Count)
	}
}

func TestReadMissing(t *testing.T) {
	if st := Read(t.TempDir(), "ghost"); st != nil {
		t.Error("expected nil for a missing beacon")
	}
}

func TestReadCorrupt(t *testing.T) {
	dir := t.TempDir()
	path := Path(dir, "bad")
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("not json"), 0644); err != nil {
		t.Fatal(err)
	}

	if st := Read(dir, "bad"); st != nil {
		t.Error("expected nil for a corrupt beacon")
	}
}

func TestNilAge(t *testing.T) {
	var st *State
	if st.Age() < 24*time.Hour {
		t.Error("nil beacon must report a very large age")
	}
}

func TestList(t *testing.T) {
	dir := t.TempDir()

	// empty state dir
	states, err := List(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(states) != 0 {
		t.Fatalf("expected no beacons, got %d", len(states))
	}

	for _, uid := range []string{"b", "a", "c"} {
		if err := Touch(dir, uid); err != nil {
			t.Fatal(err)
		}
	}

	states, err = List(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(states) != 3 {
		t.Fatalf("expected 3 beacons, got %d", len(states))
	}
	for i, want := range []string{"a", "b", "c"} {
		if states[i].UID != want {
			t.Errorf("expected %q at %d, got %q", want, i, states[i].UID)
		}
	}
}
