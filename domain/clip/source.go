package clip

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Source describes a camera recording identified by its filename stem.
// Recordings are named <prefix>_<YYYYMMDD>_<HHMMSS>[_...], where the date and
// time are the wall-clock moment the recording started.
type Source struct {
	Stem       string
	Prefix     string
	Day        time.Time // midnight of the recording day, local
	StartOfDay int       // seconds after midnight the recording started
}

// sourceStemRegex matches <prefix>_<YYYYMMDD>_<HHMMSS> with an optional
// trailing suffix.
var sourceStemRegex = regexp.MustCompile(`^([A-Za-z0-9-]+)_(\d{8})_(\d{6})(?:_.*)?$`)

// ParseSource parses a recording path or filename into its naming parts.
// A stem that does not match the camera's naming contract is a hard error;
// silently skipping it would corrupt the audit trail.
func ParseSource(path string) (Source, error) {
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	m := sourceStemRegex.FindStringSubmatch(stem)
	if m == nil {
		return Source{}, fmt.Errorf("source %q does not match <prefix>_<YYYYMMDD>_<HHMMSS>", stem)
	}

	day, err := time.ParseInLocation("20060102", m[2], time.Local)
	if err != nil {
		return Source{}, fmt.Errorf("source %q has invalid date: %w", stem, err)
	}

	hh, _ := strconv.Atoi(m[3][0:2])
	mm, _ := strconv.Atoi(m[3][2:4])
	ss, _ := strconv.Atoi(m[3][4:6])
	if hh > 23 || mm > 59 || ss > 59 {
		return Source{}, fmt.Errorf("source %q has invalid start time %s", stem, m[3])
	}

	return Source{
		Stem:       stem,
		Prefix:     m[1],
		Day:        day,
		StartOfDay: hh*3600 + mm*60 + ss,
	}, nil
}

// DateKey returns the recording day as YYYYMMDD.
func (s Source) DateKey() string {
	return s.Day.Format("20060102")
}

// StartClock returns the recording start as HH:MM:SS.
func (s Source) StartClock() string {
	return fmt.Sprintf("%02d:%02d:%02d", s.StartOfDay/3600, (s.StartOfDay%3600)/60, s.StartOfDay%60)
}

// HourAt returns the wall-clock hour of day at the given offset into the
// recording. Offsets past midnight wrap.
func (s Source) HourAt(offsetSeconds float64) int {
	return (s.StartOfDay + int(offsetSeconds)) / 3600 % 24
}
