package clip

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// Bucket identifies which combined output a clip belongs to when a day is
// split by an hour-of-day threshold.
type Bucket string

const (
	// BucketAll is a single combined file for the whole key.
	BucketAll Bucket = ""
	// BucketAM covers clips before the split hour.
	BucketAM Bucket = "AM"
	// BucketPM covers clips at or after the split hour.
	BucketPM Bucket = "PM"
)

// Filename returns the deterministic clip filename for an interval cut from
// the given source stem. The zero-padded integer start second is the clip's
// identity: if the file exists, the interval has already been extracted.
func Filename(sourceStem string, start float64) string {
	return fmt.Sprintf("%s_clip_%04d.mp4", sourceStem, int(start))
}

// clipFilenameRegex matches <source_stem>_clip_<start seconds>.mp4.
var clipFilenameRegex = regexp.MustCompile(`^(.+)_clip_(\d+)\.mp4$`)

// ParseFilename recovers the source stem and interval start second from a
// clip filename.
func ParseFilename(name string) (sourceStem string, startSecond int, err error) {
	m := clipFilenameRegex.FindStringSubmatch(filepath.Base(name))
	if m == nil {
		return "", 0, fmt.Errorf("clip %q does not match <stem>_clip_<seconds>.mp4", name)
	}
	startSecond, err = strconv.Atoi(m[2])
	if err != nil {
		return "", 0, fmt.Errorf("clip %q has invalid start second: %w", name, err)
	}
	return m[1], startSecond, nil
}

// ClockHour returns the wall-clock hour of day at which the clip begins,
// derived entirely from its filename.
func ClockHour(name string) (int, error) {
	stem, start, err := ParseFilename(name)
	if err != nil {
		return 0, err
	}
	src, err := ParseSource(stem)
	if err != nil {
		return 0, err
	}
	return src.HourAt(float64(start)), nil
}

// CombinedFilename returns the combined-output filename for a day. The
// optional bucket suffix distinguishes split outputs.
func CombinedFilename(dateKey, suffix string, bucket Bucket) string {
	name := fmt.Sprintf("%s_combined_%s", dateKey, suffix)
	if bucket != BucketAll {
		name += "_" + string(bucket)
	}
	return name + ".mp4"
}

// HourlyCombinedFilename returns the combined-output filename for a single
// hour of a day, e.g. 20250610_combined_bird_clips_05.mp4.
func HourlyCombinedFilename(dateKey, suffix string, hour int) string {
	return fmt.Sprintf("%s_combined_%s_%02d.mp4", dateKey, suffix, hour)
}

// TimestampsFilename returns the name of the recoverable event-timestamp
// artifact persisted alongside a source's clips.
func TimestampsFilename(sourceStem string) string {
	return sourceStem + "_timestamps.csv"
}

// AnnotatedFilename returns the name of the overlay-annotated copy of a
// source recording.
func AnnotatedFilename(sourceName string) string {
	ext := filepath.Ext(sourceName)
	return strings.TrimSuffix(filepath.Base(sourceName), ext) + "_dated_tc" + ext
}
