package publish

import (
	"testing"
	"time"
)

func TestPolicyDecide(t *testing.T) {
	policy := DefaultPolicy()

	tests := []struct {
		name         string
		now          time.Time
		stagger      time.Duration
		wantDeferred bool
		wantPrivacy  string
	}{
		{
			name:         "weekday morning defers",
			now:          time.Date(2025, 6, 10, 9, 30, 0, 0, time.UTC), // Tuesday
			wantDeferred: true,
			wantPrivacy:  "private",
		},
		{
			name:        "weekday evening publishes immediately",
			now:         time.Date(2025, 6, 10, 19, 0, 0, 0, time.UTC),
			wantPrivacy: "public",
		},
		{
			name:        "weekday before window publishes immediately",
			now:         time.Date(2025, 6, 10, 4, 0, 0, 0, time.UTC),
			wantPrivacy: "public",
		},
		{
			name:        "saturday daytime publishes immediately",
			now:         time.Date(2025, 6, 14, 10, 0, 0, 0, time.UTC),
			wantPrivacy: "public",
		},
		{
			name:         "stagger shifts the release time",
			now:          time.Date(2025, 6, 10, 9, 30, 0, 0, time.UTC),
			stagger:      10 * time.Minute,
			wantDeferred: true,
			wantPrivacy:  "private",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := policy.Decide(tt.now, tt.stagger)
			if got.Deferred() != tt.wantDeferred {
				t.Errorf("Deferred() = %v, want %v", got.Deferred(), tt.wantDeferred)
			}
			if got.PrivacyStatus != tt.wantPrivacy {
				t.Errorf("PrivacyStatus = %q, want %q", got.PrivacyStatus, tt.wantPrivacy)
			}
			if tt.wantDeferred {
				release := time.Date(2025, 6, 10, policy.ReleaseHour, 0, 0, 0, time.UTC).Add(tt.stagger)
				if !got.PublishAt.Equal(release) {
					t.Errorf("PublishAt = %v, want %v", got.PublishAt, release)
				}
			}
		})
	}
}

func TestPolicyDecideMonotonicStagger(t *testing.T) {
	policy := DefaultPolicy()
	now := time.Date(2025, 6, 11, 8, 0, 0, 0, time.UTC) // Wednesday

	first := policy.Decide(now, 0)
	second := policy.Decide(now, 5*time.Minute)

	if !second.PublishAt.After(*first.PublishAt) {
		t.Errorf("staggered release %v not after %v", second.PublishAt, first.PublishAt)
	}
}
