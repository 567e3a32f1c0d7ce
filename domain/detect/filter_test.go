package detect

import (
	"math"
	"testing"
)

func TestFilterAccept(t *testing.T) {
	f := NewFilter(DefaultFilterConfig())

	tests := []struct {
		name string
		d    Detection
		want bool
	}{
		{
			name: "confident bird with sane box",
			d:    Detection{Label: "bird", Confidence: 0.9, Box: Box{0, 0, 200, 270}},
			want: true,
		},
		{
			name: "label not in allow-list",
			d:    Detection{Label: "vase", Confidence: 0.9, Box: Box{0, 0, 200, 270}},
			want: false,
		},
		{
			name: "confidence at threshold is rejected",
			d:    Detection{Label: "bird", Confidence: 0.3, Box: Box{0, 0, 200, 270}},
			want: false,
		},
		{
			name: "sensor-noise artifact: narrow and small",
			d:    Detection{Label: "bird", Confidence: 0.9, Box: Box{0, 0, 60, 270}},
			want: false,
		},
		{
			name: "small but ordinary aspect ratio passes",
			d:    Detection{Label: "bird", Confidence: 0.9, Box: Box{0, 0, 40, 50}},
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := f.Accept(tt.d); got != tt.want {
				t.Errorf("Accept(%+v) = %v, want %v", tt.d, got, tt.want)
			}
		})
	}
}

func TestFilterFalsePositive(t *testing.T) {
	f := NewFilter(DefaultFilterConfig())

	tests := []struct {
		name string
		box  Box
		want bool
	}{
		{
			name: "typical artifact shape 60x272",
			box:  Box{100, 0, 160, 272},
			want: true,
		},
		{
			name: "wide and flat but large in both dimensions",
			box:  Box{0, 0, 400, 90},
			want: false,
		},
		{
			name: "extreme ratio, both dimensions small",
			box:  Box{0, 0, 10, 60},
			want: true,
		},
		{
			name: "zero width is degenerate",
			box:  Box{10, 10, 10, 100},
			want: true,
		},
		{
			name: "inverted coordinates are degenerate",
			box:  Box{100, 100, 50, 50},
			want: true,
		},
		{
			name: "NaN coordinate is degenerate",
			box:  Box{math.NaN(), 0, 50, 50},
			want: true,
		},
		{
			name: "infinite coordinate is degenerate",
			box:  Box{0, 0, math.Inf(1), 50},
			want: true,
		},
		{
			name: "ordinary box",
			box:  Box{20, 30, 180, 200},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := f.FalsePositive(tt.box); got != tt.want {
				t.Errorf("FalsePositive(%+v) = %v, want %v", tt.box, got, tt.want)
			}
		})
	}
}

func TestFilterEvents(t *testing.T) {
	f := NewFilter(FilterConfig{
		Threshold:     0.5,
		AllowedLabels: []string{"bird", "cat"},
		MinAspect:     0.25,
		MaxAspect:     4.0,
		SmallObjectPx: 65,
	})

	detections := []Detection{
		{Label: "bird", Confidence: 0.8, Box: Box{0, 0, 100, 100}},
		{Label: "cat", Confidence: 0.7, Box: Box{0, 0, 100, 120}},
		{Label: "bird", Confidence: 0.4, Box: Box{0, 0, 100, 100}},
		{Label: "dog", Confidence: 0.9, Box: Box{0, 0, 100, 100}},
	}

	kept := f.Events(detections)
	if len(kept) != 2 {
		t.Fatalf("Events() kept %d detections, want 2", len(kept))
	}
	if kept[0].Label != "bird" || kept[1].Label != "cat" {
		t.Errorf("Events() kept %v", kept)
	}
}
