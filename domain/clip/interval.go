package clip

import "fmt"

// Interval is a closed time range in seconds within a single source
// recording. End is always strictly greater than Start.
type Interval struct {
	Start float64
	End   float64
}

// Duration returns the interval length in seconds.
func (i Interval) Duration() float64 {
	return i.End - i.Start
}

// Contains reports whether t falls inside the interval, inclusive of both ends.
func (i Interval) Contains(t float64) bool {
	return t >= i.Start && t <= i.End
}

func (i Interval) String() string {
	return fmt.Sprintf("[%.2f, %.2f]", i.Start, i.End)
}

// MergeOptions control how sparse event timestamps are padded and merged
// into clip intervals.
type MergeOptions struct {
	// PreBuffer is how many seconds before an event the interval opens.
	PreBuffer float64
	// PostBuffer is how many seconds after an event the interval extends.
	PostBuffer float64
	// MinGap is the largest distance between an event and the current
	// interval's end that still merges into it.
	MinGap float64
}

// DefaultMergeOptions matches the capture hardware's tuning: ten seconds of
// context on either side of an event, and events within ten seconds of an
// open interval fold into it.
func DefaultMergeOptions() MergeOptions {
	return MergeOptions{PreBuffer: 10, PostBuffer: 10, MinGap: 10}
}

// MergeTimestamps converts a sorted sequence of event timestamps into a
// minimal set of sorted, non-overlapping intervals clamped to [0, duration].
//
// The sweep is greedy left-to-right: the first timestamp seeds an interval,
// each later timestamp either extends the open interval (when it lands within
// MinGap of its end) or closes it and seeds the next. Because timestamps are
// sorted and the buffers are fixed, no later timestamp can reopen a closed
// interval.
//
// An empty timestamp list yields a nil slice, not an error.
func MergeTimestamps(timestamps []float64, duration float64, opt MergeOptions) []Interval {
	if len(timestamps) == 0 {
		return nil
	}

	var merged []Interval
	start := max(0, timestamps[0]-opt.PreBuffer)
	end := min(duration, timestamps[0]+opt.PostBuffer)

	for _, t := range timestamps[1:] {
		if t-end <= opt.MinGap {
			end = min(duration, t+opt.PostBuffer)
			continue
		}
		merged = append(merged, Interval{Start: start, End: end})
		start = max(0, t-opt.PreBuffer)
		end = min(duration, t+opt.PostBuffer)
	}
	merged = append(merged, Interval{Start: start, End: end})

	return merged
}
