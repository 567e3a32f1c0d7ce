package store

import (
	"errors"
	"fmt"

	"birdcam-pipeline/domain/catalog"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// fileRecord is the files table: one permanent audit row per recording.
type fileRecord struct {
	FileName string `gorm:"column:file_name;primaryKey"`
	Status   string `gorm:"column:status"`
}

func (fileRecord) TableName() string { return "files" }

// dailyRun marks "aggregation already executed" for a date key.
type dailyRun struct {
	RunDate string `gorm:"column:run_date;primaryKey"`
}

func (dailyRun) TableName() string { return "daily_runs" }

// hourlyRun marks "aggregation already executed" for a (date, hour) key.
type hourlyRun struct {
	RunDate string `gorm:"column:run_date;primaryKey"`
	RunHour int    `gorm:"column:run_hour;primaryKey"`
}

func (hourlyRun) TableName() string { return "hourly_runs" }

// publishDelay is a single-row counter staggering scheduled publish times.
type publishDelay struct {
	ID           int `gorm:"column:id;primaryKey"`
	DelaySeconds int `gorm:"column:delay_seconds"`
}

func (publishDelay) TableName() string { return "publish_delays" }

// SQLiteStore implements catalog.Store on a SQLite database file shared by
// cooperating pipeline processes. SQLite's own locking serializes writers;
// the pool is capped at one connection so a process never deadlocks itself.
type SQLiteStore struct {
	db *gorm.DB
}

// Open creates or opens the catalog database and migrates its schema.
func Open(path string) (*SQLiteStore, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("opening catalog %s: %w", path, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&fileRecord{}, &dailyRun{}, &hourlyRun{}, &publishDelay{}); err != nil {
		return nil, fmt.Errorf("migrating catalog schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// CatalogFile inserts a record if absent. The ON CONFLICT DO NOTHING insert
// is atomic, so two processes discovering the same file race safely.
func (s *SQLiteStore) CatalogFile(name string, status catalog.Status) (bool, error) {
	if !status.Valid() {
		return false, fmt.Errorf("invalid status %q", status)
	}
	result := s.db.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&fileRecord{FileName: name, Status: string(status)})
	if result.Error != nil {
		return false, fmt.Errorf("cataloging %s: %w", name, result.Error)
	}
	return result.RowsAffected > 0, nil
}

// FileStatus returns the lifecycle status for a file name.
func (s *SQLiteStore) FileStatus(name string) (catalog.Status, bool, error) {
	var rec fileRecord
	err := s.db.First(&rec, "file_name = ?", name).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading status of %s: %w", name, err)
	}
	return catalog.Status(rec.Status), true, nil
}

// SetFileStatus updates an existing record.
func (s *SQLiteStore) SetFileStatus(name string, status catalog.Status) error {
	if !status.Valid() {
		return fmt.Errorf("invalid status %q", status)
	}
	result := s.db.Model(&fileRecord{}).
		Where("file_name = ?", name).
		Update("status", string(status))
	if result.Error != nil {
		return fmt.Errorf("updating status of %s: %w", name, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("no catalog record for %s", name)
	}
	return nil
}

// StagedFiles returns staged file names in lexical order.
func (s *SQLiteStore) StagedFiles() ([]string, error) {
	var names []string
	err := s.db.Model(&fileRecord{}).
		Where("status = ?", string(catalog.StatusStaged)).
		Order("file_name").
		Pluck("file_name", &names).Error
	if err != nil {
		return nil, fmt.Errorf("listing staged files: %w", err)
	}
	return names, nil
}

// HasDailyRun reports whether aggregation already ran for the date key.
func (s *SQLiteStore) HasDailyRun(dateKey string) (bool, error) {
	var count int64
	err := s.db.Model(&dailyRun{}).Where("run_date = ?", dateKey).Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("checking daily run %s: %w", dateKey, err)
	}
	return count > 0, nil
}

// RecordDailyRun persists the run fact; re-recording is a no-op.
func (s *SQLiteStore) RecordDailyRun(dateKey string) error {
	err := s.db.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&dailyRun{RunDate: dateKey}).Error
	if err != nil {
		return fmt.Errorf("recording daily run %s: %w", dateKey, err)
	}
	return nil
}

// HasHourlyRun reports whether aggregation already ran for the hour key.
func (s *SQLiteStore) HasHourlyRun(dateKey string, hour int) (bool, error) {
	var count int64
	err := s.db.Model(&hourlyRun{}).
		Where("run_date = ? AND run_hour = ?", dateKey, hour).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("checking hourly run %s/%02d: %w", dateKey, hour, err)
	}
	return count > 0, nil
}

// RecordHourlyRun persists the run fact; re-recording is a no-op.
func (s *SQLiteStore) RecordHourlyRun(dateKey string, hour int) error {
	err := s.db.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&hourlyRun{RunDate: dateKey, RunHour: hour}).Error
	if err != nil {
		return fmt.Errorf("recording hourly run %s/%02d: %w", dateKey, hour, err)
	}
	return nil
}

// LastHourlyRun returns the most recent recorded hour key.
func (s *SQLiteStore) LastHourlyRun() (string, int, bool, error) {
	var rec hourlyRun
	err := s.db.Order("run_date DESC, run_hour DESC").First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", 0, false, nil
	}
	if err != nil {
		return "", 0, false, fmt.Errorf("reading last hourly run: %w", err)
	}
	return rec.RunDate, rec.RunHour, true, nil
}

// NextPublishDelay returns the current stagger delay and advances it.
func (s *SQLiteStore) NextPublishDelay(step int) (int, error) {
	var current int
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var row publishDelay
		if err := tx.Where(publishDelay{ID: 1}).FirstOrCreate(&row).Error; err != nil {
			return err
		}
		current = row.DelaySeconds
		return tx.Model(&publishDelay{}).
			Where("id = ?", 1).
			Update("delay_seconds", row.DelaySeconds+step).Error
	})
	if err != nil {
		return 0, fmt.Errorf("advancing publish delay: %w", err)
	}
	return current, nil
}

// ResetPublishDelay zeroes the stagger counter.
func (s *SQLiteStore) ResetPublishDelay() error {
	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{"delay_seconds": 0}),
	}).Create(&publishDelay{ID: 1, DelaySeconds: 0}).Error
	if err != nil {
		return fmt.Errorf("resetting publish delay: %w", err)
	}
	return nil
}

// Stats returns the catalog counters.
func (s *SQLiteStore) Stats() (catalog.Stats, error) {
	var st catalog.Stats

	counts := []struct {
		status string
		dest   *int64
	}{
		{string(catalog.StatusStaged), &st.Staged},
		{string(catalog.StatusProcessed), &st.Processed},
		{string(catalog.StatusFailed), &st.Failed},
	}
	for _, c := range counts {
		if err := s.db.Model(&fileRecord{}).Where("status = ?", c.status).Count(c.dest).Error; err != nil {
			return catalog.Stats{}, fmt.Errorf("counting %s files: %w", c.status, err)
		}
	}
	if err := s.db.Model(&fileRecord{}).Count(&st.Total).Error; err != nil {
		return catalog.Stats{}, fmt.Errorf("counting files: %w", err)
	}
	if err := s.db.Model(&dailyRun{}).Order("run_date").Pluck("run_date", &st.DailyRuns).Error; err != nil {
		return catalog.Stats{}, fmt.Errorf("listing daily runs: %w", err)
	}

	return st, nil
}

// Close releases the database connection.
func (s *SQLiteStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ensure SQLiteStore implements catalog.Store.
var _ catalog.Store = (*SQLiteStore)(nil)
