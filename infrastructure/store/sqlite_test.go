package store

import (
	"path/filepath"
	"testing"

	"birdcam-pipeline/domain/catalog"
)

func openTestStore(t *testing.T) (*SQLiteStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s, path
}

func TestCatalogFileInsertIfAbsent(t *testing.T) {
	s, _ := openTestStore(t)

	inserted, err := s.CatalogFile("birdcam_20250429_090357.mp4", catalog.StatusStaged)
	if err != nil {
		t.Fatalf("CatalogFile() error: %v", err)
	}
	if !inserted {
		t.Error("first CatalogFile() reported inserted=false")
	}

	inserted, err = s.CatalogFile("birdcam_20250429_090357.mp4", catalog.StatusProcessed)
	if err != nil {
		t.Fatalf("CatalogFile() error: %v", err)
	}
	if inserted {
		t.Error("re-cataloging reported inserted=true")
	}

	// The original status survives the ignored duplicate insert.
	status, ok, err := s.FileStatus("birdcam_20250429_090357.mp4")
	if err != nil {
		t.Fatalf("FileStatus() error: %v", err)
	}
	if !ok || status != catalog.StatusStaged {
		t.Errorf("FileStatus() = %q, %v; want staged, true", status, ok)
	}
}

func TestCatalogFileRejectsInvalidStatus(t *testing.T) {
	s, _ := openTestStore(t)
	if _, err := s.CatalogFile("x.mp4", catalog.Status("bogus")); err == nil {
		t.Error("CatalogFile() accepted an invalid status")
	}
}

func TestFileStatusUnknown(t *testing.T) {
	s, _ := openTestStore(t)
	_, ok, err := s.FileStatus("never-seen.mp4")
	if err != nil {
		t.Fatalf("FileStatus() error: %v", err)
	}
	if ok {
		t.Error("FileStatus() found a record that was never cataloged")
	}
}

func TestSetFileStatus(t *testing.T) {
	s, _ := openTestStore(t)
	if _, err := s.CatalogFile("a.mp4", catalog.StatusStaged); err != nil {
		t.Fatal(err)
	}

	if err := s.SetFileStatus("a.mp4", catalog.StatusProcessed); err != nil {
		t.Fatalf("SetFileStatus() error: %v", err)
	}
	status, _, err := s.FileStatus("a.mp4")
	if err != nil {
		t.Fatal(err)
	}
	if status != catalog.StatusProcessed {
		t.Errorf("status = %q, want processed", status)
	}

	if err := s.SetFileStatus("missing.mp4", catalog.StatusFailed); err == nil {
		t.Error("SetFileStatus() succeeded for an uncataloged file")
	}
}

func TestStagedFilesOrdered(t *testing.T) {
	s, _ := openTestStore(t)
	for _, name := range []string{"c.mp4", "a.mp4", "b.mp4"} {
		if _, err := s.CatalogFile(name, catalog.StatusStaged); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := s.CatalogFile("d.mp4", catalog.StatusProcessed); err != nil {
		t.Fatal(err)
	}

	names, err := s.StagedFiles()
	if err != nil {
		t.Fatalf("StagedFiles() error: %v", err)
	}
	want := []string{"a.mp4", "b.mp4", "c.mp4"}
	if len(names) != len(want) {
		t.Fatalf("StagedFiles() = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("StagedFiles() = %v, want %v", names, want)
		}
	}
}

func TestDailyRunPersistsAcrossReopen(t *testing.T) {
	s, path := openTestStore(t)

	has, err := s.HasDailyRun("20250429")
	if err != nil {
		t.Fatal(err)
	}
	if has {
		t.Error("HasDailyRun() true before recording")
	}

	if err := s.RecordDailyRun("20250429"); err != nil {
		t.Fatalf("RecordDailyRun() error: %v", err)
	}
	// Re-recording the same key is a no-op.
	if err := s.RecordDailyRun("20250429"); err != nil {
		t.Fatalf("RecordDailyRun() repeat error: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen error: %v", err)
	}
	defer reopened.Close()

	has, err = reopened.HasDailyRun("20250429")
	if err != nil {
		t.Fatal(err)
	}
	if !has {
		t.Error("daily run lost across reopen")
	}
}

func TestHourlyRuns(t *testing.T) {
	s, _ := openTestStore(t)

	_, _, ok, err := s.LastHourlyRun()
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("LastHourlyRun() reported a run in an empty catalog")
	}

	for _, run := range []struct {
		date string
		hour int
	}{
		{"20250428", 23},
		{"20250429", 9},
		{"20250429", 10},
	} {
		if err := s.RecordHourlyRun(run.date, run.hour); err != nil {
			t.Fatalf("RecordHourlyRun(%s, %d) error: %v", run.date, run.hour, err)
		}
	}

	has, err := s.HasHourlyRun("20250429", 9)
	if err != nil {
		t.Fatal(err)
	}
	if !has {
		t.Error("HasHourlyRun() missed a recorded run")
	}
	has, err = s.HasHourlyRun("20250429", 11)
	if err != nil {
		t.Fatal(err)
	}
	if has {
		t.Error("HasHourlyRun() reported an unrecorded run")
	}

	date, hour, ok, err := s.LastHourlyRun()
	if err != nil {
		t.Fatal(err)
	}
	if !ok || date != "20250429" || hour != 10 {
		t.Errorf("LastHourlyRun() = %s, %d, %v; want 20250429, 10, true", date, hour, ok)
	}
}

func TestPublishDelayCounter(t *testing.T) {
	s, _ := openTestStore(t)

	first, err := s.NextPublishDelay(60)
	if err != nil {
		t.Fatalf("NextPublishDelay() error: %v", err)
	}
	if first != 0 {
		t.Errorf("first delay = %d, want 0", first)
	}

	second, err := s.NextPublishDelay(60)
	if err != nil {
		t.Fatal(err)
	}
	if second != 60 {
		t.Errorf("second delay = %d, want 60", second)
	}

	if err := s.ResetPublishDelay(); err != nil {
		t.Fatalf("ResetPublishDelay() error: %v", err)
	}
	after, err := s.NextPublishDelay(60)
	if err != nil {
		t.Fatal(err)
	}
	if after != 0 {
		t.Errorf("delay after reset = %d, want 0", after)
	}
}

func TestStats(t *testing.T) {
	s, _ := openTestStore(t)
	seed := map[string]catalog.Status{
		"a.mp4": catalog.StatusStaged,
		"b.mp4": catalog.StatusProcessed,
		"c.mp4": catalog.StatusProcessed,
		"d.mp4": catalog.StatusFailed,
	}
	for name, status := range seed {
		if _, err := s.CatalogFile(name, status); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.RecordDailyRun("20250428"); err != nil {
		t.Fatal(err)
	}
	if err := s.RecordDailyRun("20250429"); err != nil {
		t.Fatal(err)
	}

	stats, err := s.Stats()
	if err != nil {
		t.Fatalf("Stats() error: %v", err)
	}
	if stats.Total != 4 || stats.Staged != 1 || stats.Processed != 2 || stats.Failed != 1 {
		t.Errorf("Stats() = %+v", stats)
	}
	if len(stats.DailyRuns) != 2 || stats.DailyRuns[0] != "20250428" {
		t.Errorf("DailyRuns = %v", stats.DailyRuns)
	}
}
