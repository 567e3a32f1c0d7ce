package detect

// FilterConfig holds the tunable thresholds that turn raw detections into
// accepted events. The small-object and aspect-ratio bounds are empirical,
// hardware-specific values, kept as configuration rather than constants.
type FilterConfig struct {
	// Threshold is the minimum confidence, exclusive.
	Threshold float64
	// AllowedLabels is the class allow-list: the primary target class plus
	// the classes the model is known to substitute for it.
	AllowedLabels []string
	// MinAspect and MaxAspect bound the plausible width/height ratio.
	MinAspect float64
	MaxAspect float64
	// SmallObjectPx is the dimension below which an extreme aspect ratio
	// marks a detection as sensor noise.
	SmallObjectPx float64
}

// DefaultFilterConfig matches the tuning the capture hardware shipped with.
func DefaultFilterConfig() FilterConfig {
	return FilterConfig{
		Threshold:     0.3,
		AllowedLabels: []string{"bird"},
		MinAspect:     0.25,
		MaxAspect:     4.0,
		SmallObjectPx: 65,
	}
}

// Filter applies the allow-list, confidence threshold and false-positive
// heuristic to raw detections.
type Filter struct {
	cfg     FilterConfig
	allowed map[string]struct{}
}

// NewFilter creates a filter from the given configuration.
func NewFilter(cfg FilterConfig) *Filter {
	allowed := make(map[string]struct{}, len(cfg.AllowedLabels))
	for _, l := range cfg.AllowedLabels {
		allowed[l] = struct{}{}
	}
	return &Filter{cfg: cfg, allowed: allowed}
}

// Accept reports whether a raw detection survives all filters and becomes an
// event.
func (f *Filter) Accept(d Detection) bool {
	if _, ok := f.allowed[d.Label]; !ok {
		return false
	}
	if d.Confidence <= f.cfg.Threshold {
		return false
	}
	return !f.FalsePositive(d.Box)
}

// FalsePositive reports whether a box matches the known sensor-noise
// artifact: degenerate geometry, or an extreme aspect ratio combined with a
// small dimension. A small box with an ordinary aspect ratio is a genuine
// detection and passes.
func (f *Filter) FalsePositive(b Box) bool {
	if b.Degenerate() {
		return true
	}
	ar := b.AspectRatio()
	if ar < f.cfg.MinAspect || ar > f.cfg.MaxAspect {
		if b.Width() < f.cfg.SmallObjectPx || b.Height() < f.cfg.SmallObjectPx {
			return true
		}
	}
	return false
}

// Events reduces the accepted detections of one sample to at most one event
// timestamp, returning the surviving detections.
func (f *Filter) Events(detections []Detection) []Detection {
	var kept []Detection
	for _, d := range detections {
		if f.Accept(d) {
			kept = append(kept, d)
		}
	}
	return kept
}
