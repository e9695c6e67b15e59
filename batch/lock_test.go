package batch

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFileLock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run", ".generate_images.lock")
	a := NewFileLock(path, time.Hour)
	b := NewFileLock(path, time.Hour)

	if err := a.Acquire(); err != nil {
		t.Fatal(err)
	}
	if err := b.Acquire(); !errors.Is(err, ErrLocked) {
		t.Fatalf("second Acquire = %v, want ErrLocked", err)
	}
	if err := a.Release(); err != nil {
		t.Fatal(err)
	}
	if err := b.Acquire(); err != nil {
		t.Fatalf("Acquire after release: %v", err)
	}
	if err := b.Release(); err != nil {
		t.Fatal(err)
	}
	if err := b.Release(); err != nil {
		t.Errorf("releasing a missing lock: %v", err)
	}
}

func TestFileLockTakesOverStaleLock(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".generate_images.lock")
	if err := os.WriteFile(path, []byte("12345"), 0o644); err != nil {
		t.Fatal(err)
	}
	old := time.Now().Add(-2 * time.Hour)
	if err := os.Chtimes(path, old, old); err != nil {
		t.Fatal(err)
	}

	l := NewFileLock(path, 0)
	if err := l.Acquire(); err != nil {
		t.Fatalf("stale lock not taken over: %v", err)
	}
	defer l.Release()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) == "12345" {
		t.Error("lock file still holds the old pid")
	}
}
