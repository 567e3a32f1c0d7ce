package publish

import "time"

// Policy decides when an upload becomes visible. During weekday working
// hours uploads are deferred to the evening release time as private videos;
// at any other time they go out public immediately.
type Policy struct {
	// ReleaseHour is the local hour deferred uploads become visible.
	ReleaseHour int
	// WindowStartHour and WindowEndHour bound the weekday deferral window.
	WindowStartHour int
	WindowEndHour   int
}

// DefaultPolicy defers weekday uploads between 05:00 and 18:00 to an 18:00
// release.
func DefaultPolicy() Policy {
	return Policy{ReleaseHour: 18, WindowStartHour: 5, WindowEndHour: 18}
}

// Schedule is the decided visibility for one upload.
type Schedule struct {
	PrivacyStatus string
	PublishAt     *time.Time // nil for immediate publication
}

// Deferred reports whether the upload is scheduled rather than immediate.
func (s Schedule) Deferred() bool {
	return s.PublishAt != nil
}

// Decide returns the schedule for an upload happening at now. The stagger
// delay offsets the release time so several uploads queued in the same pass
// do not all go live at the same instant; it applies only to deferred
// publication.
func (p Policy) Decide(now time.Time, stagger time.Duration) Schedule {
	weekday := now.Weekday()
	onWeekday := weekday != time.Saturday && weekday != time.Sunday

	if onWeekday && now.Hour() >= p.WindowStartHour && now.Hour() < p.WindowEndHour {
		release := time.Date(now.Year(), now.Month(), now.Day(), p.ReleaseHour, 0, 0, 0, now.Location())
		release = release.Add(stagger).UTC()
		return Schedule{PrivacyStatus: "private", PublishAt: &release}
	}
	return Schedule{PrivacyStatus: "public"}
}
