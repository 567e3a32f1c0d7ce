package archive

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"birdcam-pipeline/infrastructure/ffmpeg"
)

// Syncer mirrors pipeline artifacts to a long-term archive target using
// rsync. The target may be a local path or an rsync-reachable remote.
type Syncer struct {
	target    string
	rsyncPath string
	runner    ffmpeg.CommandRunner
}

// SyncerOption is a functional option for configuring Syncer.
type SyncerOption func(*Syncer)

// WithSyncerRsyncPath overrides the rsync executable path.
func WithSyncerRsyncPath(path string) SyncerOption {
	return func(s *Syncer) {
		s.rsyncPath = path
	}
}

// WithSyncerCommandRunner sets a custom command runner, used for testing.
func WithSyncerCommandRunner(runner ffmpeg.CommandRunner) SyncerOption {
	return func(s *Syncer) {
		s.runner = runner
	}
}

// NewSyncer creates a syncer pushing to the given target.
func NewSyncer(target string, opts ...SyncerOption) *Syncer {
	s := &Syncer{
		target:    target,
		rsyncPath: "rsync",
		runner:    &ffmpeg.ExecCommandRunner{},
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Sync pushes the given files to the archive target. Partial transfers are
// retried on the next pass because rsync skips files already present.
func (s *Syncer) Sync(ctx context.Context, files ...string) error {
	if len(files) == 0 {
		return nil
	}

	args := []string{"-a", "--partial"}
	args = append(args, files...)
	args = append(args, s.target)

	if err := s.runner.Run(ctx, s.rsyncPath, args...); err != nil {
		return fmt.Errorf("syncing %d file(s) to %s: %w", len(files), s.target, err)
	}
	return nil
}

// Prune deletes files under dir whose modification time is older than
// maxAge. It returns the names removed. Subdirectories are not descended.
func Prune(dir string, maxAge time.Duration, now time.Time) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", dir, err)
	}

	cutoff := now.Add(-maxAge)
	var removed []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := os.Remove(path); err != nil {
			return removed, fmt.Errorf("pruning %s: %w", path, err)
		}
		removed = append(removed, entry.Name())
	}
	return removed, nil
}
