package runlock

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestAcquireAndRelease(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.lock")

	l, err := Acquire(path, time.Minute)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("lock file missing: %v", err)
	}

	l.Release()
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatal("lock file not removed on release")
	}
}

func TestSecondAcquireFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.lock")

	l, err := Acquire(path, time.Minute)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	defer l.Release()

	if _, err := Acquire(path, time.Minute); err != ErrHeld {
		t.Fatalf("expected ErrHeld, got %v", err)
	}
}

func TestStaleLockIsTakenOver(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.lock")

	if err := os.WriteFile(path, []byte(`{"pid":0}`), 0644); err != nil {
		t.Fatalf("seed lock: %v", err)
	}
	old := time.Now().Add(-time.Hour)
	if err := os.Chtimes(path, old, old); err != nil {
		t.Fatalf("age lock: %v", err)
	}

	l, err := Acquire(path, 10*time.Minute)
	if err != nil {
		t.Fatalf("stale lock must be taken over, got %v", err)
	}
	l.Release()
}
