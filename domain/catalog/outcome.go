package catalog

// Outcome distinguishes the ways a processing attempt can end, so callers
// never need a catch-all to tell an expected skip from a real failure.
type Outcome int

const (
	// OutcomeSucceeded means clips were produced (possibly zero, when the
	// recording contained no events).
	OutcomeSucceeded Outcome = iota

	// OutcomeZeroDuration means the source had no usable frames. The file
	// is marked failed, but the condition is expected and the loop
	// continues.
	OutcomeZeroDuration

	// OutcomeFailed means processing hit a real error.
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSucceeded:
		return "succeeded"
	case OutcomeZeroDuration:
		return "zero-duration"
	case OutcomeFailed:
		return "failed"
	}
	return "unknown"
}

// Status maps an outcome to the lifecycle status recorded for the file.
// Zero-duration input counts as a processing failure, not a crash.
func (o Outcome) Status() Status {
	if o == OutcomeSucceeded {
		return StatusProcessed
	}
	return StatusFailed
}
