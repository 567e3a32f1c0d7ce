package archive

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"
)

type fakeRunner struct {
	calls  [][]string
	runErr error
}

func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) error {
	f.calls = append(f.calls, append([]string{name}, args...))
	return f.runErr
}

func (f *fakeRunner) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	return nil, errors.New("not used")
}

func (f *fakeRunner) Start(ctx context.Context, name string, args ...string) (io.ReadCloser, func() error, error) {
	return nil, nil, errors.New("not used")
}

func TestSyncerSync(t *testing.T) {
	runner := &fakeRunner{}
	s := NewSyncer("backup:/archive/birdcam", WithSyncerCommandRunner(runner))

	err := s.Sync(context.Background(), "/out/a.mp4", "/out/b.mp4")
	if err != nil {
		t.Fatalf("Sync() error: %v", err)
	}

	if len(runner.calls) != 1 {
		t.Fatalf("rsync invoked %d times, want 1", len(runner.calls))
	}
	call := runner.calls[0]
	if call[0] != "rsync" {
		t.Errorf("executable = %q, want rsync", call[0])
	}
	last := call[len(call)-1]
	if last != "backup:/archive/birdcam" {
		t.Errorf("target = %q, want backup:/archive/birdcam", last)
	}
	found := false
	for _, arg := range call {
		if arg == "/out/a.mp4" {
			found = true
		}
	}
	if !found {
		t.Errorf("source file missing from call %v", call)
	}
}

func TestSyncerSyncNoFiles(t *testing.T) {
	runner := &fakeRunner{}
	s := NewSyncer("backup:/archive", WithSyncerCommandRunner(runner))

	if err := s.Sync(context.Background()); err != nil {
		t.Fatalf("Sync() error: %v", err)
	}
	if len(runner.calls) != 0 {
		t.Error("Sync() invoked rsync with no files")
	}
}

func TestSyncerSyncFailure(t *testing.T) {
	runner := &fakeRunner{runErr: errors.New("connection refused")}
	s := NewSyncer("backup:/archive", WithSyncerCommandRunner(runner))

	if err := s.Sync(context.Background(), "/out/a.mp4"); err == nil {
		t.Error("Sync() swallowed the rsync failure")
	}
}

func TestPrune(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()

	old := filepath.Join(dir, "old.mp4")
	fresh := filepath.Join(dir, "fresh.mp4")
	for _, p := range []string{old, fresh} {
		if err := os.WriteFile(p, []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	stale := now.Add(-40 * 24 * time.Hour)
	if err := os.Chtimes(old, stale, stale); err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(filepath.Join(dir, "sub"), 0755); err != nil {
		t.Fatal(err)
	}

	removed, err := Prune(dir, 30*24*time.Hour, now)
	if err != nil {
		t.Fatalf("Prune() error: %v", err)
	}
	if len(removed) != 1 || removed[0] != "old.mp4" {
		t.Errorf("Prune() removed %v, want [old.mp4]", removed)
	}
	if _, err := os.Stat(fresh); err != nil {
		t.Error("Prune() removed a fresh file")
	}
	if _, err := os.Stat(filepath.Join(dir, "sub")); err != nil {
		t.Error("Prune() removed a subdirectory")
	}
}

func TestPruneMissingDir(t *testing.T) {
	removed, err := Prune(filepath.Join(t.TempDir(), "absent"), time.Hour, time.Now())
	if err != nil {
		t.Fatalf("Prune() error for a missing directory: %v", err)
	}
	if removed != nil {
		t.Errorf("Prune() removed %v from a missing directory", removed)
	}
}
