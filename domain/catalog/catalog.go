package catalog

import "fmt"

// Status is the lifecycle state of a cataloged recording.
type Status string

const (
	// StatusNew marks a file sighted but not yet ready for processing.
	StatusNew Status = "new"

	// StatusStaged marks a file waiting to be processed.
	StatusStaged Status = "staged"

	// StatusProcessed marks a file whose clips were extracted and archived.
	StatusProcessed Status = "processed"

	// StatusFailed marks a file that failed processing. Failed files are
	// never retried automatically; a human must re-stage them.
	StatusFailed Status = "failed"
)

// Valid reports whether s is a known lifecycle state.
func (s Status) Valid() bool {
	switch s {
	case StatusNew, StatusStaged, StatusProcessed, StatusFailed:
		return true
	}
	return false
}

// FileRecord is the permanent audit entry for one source recording. Records
// are inserted once per file name and never deleted.
type FileRecord struct {
	FileName string
	Status   Status
}

// Stats summarizes the catalog for operator reporting.
type Stats struct {
	Total     int64
	Staged    int64
	Processed int64
	Failed    int64
	DailyRuns []string
}

func (s Stats) String() string {
	return fmt.Sprintf("total=%d staged=%d processed=%d failed=%d", s.Total, s.Staged, s.Processed, s.Failed)
}

// Store is the durable catalog port. It is the single source of truth for
// file status and run facts; implementations must serialize concurrent
// writers from independent pipeline processes and make the insert-if-absent
// operations atomic.
type Store interface {
	// CatalogFile inserts a record with the given status if no record for
	// the name exists. Re-discovery of a known file is a no-op and reports
	// inserted=false.
	CatalogFile(name string, status Status) (inserted bool, err error)

	// FileStatus returns the status for a file, or ok=false when the file
	// has never been cataloged.
	FileStatus(name string) (status Status, ok bool, err error)

	// SetFileStatus updates an existing record.
	SetFileStatus(name string, status Status) error

	// StagedFiles returns the names of all staged files in lexical order.
	StagedFiles() ([]string, error)

	// HasDailyRun reports whether aggregation already ran for the date key.
	HasDailyRun(dateKey string) (bool, error)

	// RecordDailyRun persists the run fact for a date key. Recording an
	// already-recorded key is a no-op.
	RecordDailyRun(dateKey string) error

	// HasHourlyRun and RecordHourlyRun are the per-hour equivalents.
	HasHourlyRun(dateKey string, hour int) (bool, error)
	RecordHourlyRun(dateKey string, hour int) error

	// LastHourlyRun returns the most recent recorded (date, hour) key, or
	// ok=false when no hourly run has ever been recorded.
	LastHourlyRun() (dateKey string, hour int, ok bool, err error)

	// NextPublishDelay returns the current stagger delay in seconds and
	// advances the counter by step.
	NextPublishDelay(step int) (int, error)

	// ResetPublishDelay zeroes the stagger counter.
	ResetPublishDelay() error

	// Stats returns catalog counters for reporting.
	Stats() (Stats, error)

	// Close releases the underlying connection.
	Close() error
}
