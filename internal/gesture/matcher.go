package gesture

import "math"

// DefaultMatchThreshold is the alignment cost below which a gesture matches.
// It is tuned for DefaultTargetSize points of gyroscope data in rad/s; changing
// the target size changes the scale of the cost and needs a new threshold.
const DefaultMatchThreshold = 70.0

// Options configures a Matcher. Zero values fall back to the defaults.
type Options struct {
	TargetSize int     // Points each gesture is resampled to
	Threshold  float64 // Costs strictly below this match
	Window     int     // Sakoe-Chiba band width, 0 for unconstrained warping
}

// DefaultOptions returns the matcher options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		TargetSize: DefaultTargetSize,
		Threshold:  DefaultMatchThreshold,
	}
}

// Report describes a single comparison between the reference and a gesture.
type Report struct {
	Result          Result  `json:"result"`
	Cost            float64 `json:"cost"`
	ReferencePoints int     `json:"reference_points"`
	CurrentPoints   int     `json:"current_points"`
}

// Matcher compares gestures against a reference using resampling and DTW.
// A Matcher is immutable and safe for concurrent use.
type Matcher struct {
	targetSize int
	threshold  float64
	window     int
}

// NewMatcher creates a new Matcher from the given options.
func NewMatcher(opts Options) *Matcher {
	defaults := DefaultOptions()
	if opts.TargetSize < 2 {
		opts.TargetSize = defaults.TargetSize
	}
	if opts.Threshold <= 0 {
		opts.Threshold = defaults.Threshold
	}
	if opts.Window < 0 {
		opts.Window = 0
	}

	return &Matcher{
		targetSize: opts.TargetSize,
		threshold:  opts.Threshold,
		window:     opts.Window,
	}
}

// Options returns the effective options of the matcher.
func (m *Matcher) Options() Options {
	return Options{
		TargetSize: m.targetSize,
		Threshold:  m.threshold,
		Window:     m.window,
	}
}

// Match compares current against reference and returns the verdict.
func (m *Matcher) Match(reference, current Sequence) Result {
	return m.Evaluate(reference, current).Result
}

// Evaluate compares current against reference and returns the verdict with its cost.
//
// The result is Indeterminate when either sequence is empty or too short to
// resample; the cost is then +Inf.
func (m *Matcher) Evaluate(reference, current Sequence) Report {
	report := Report{
		Result:          Indeterminate,
		Cost:            math.Inf(1),
		ReferencePoints: len(reference),
		CurrentPoints:   len(current),
	}

	if len(reference) == 0 || len(current) == 0 {
		return report
	}

	normalizedReference, ok := Normalize(reference, m.targetSize)
	if !ok {
		return report
	}
	normalizedCurrent, ok := Normalize(current, m.targetSize)
	if !ok {
		return report
	}

	grid := costGrid(normalizedReference, normalizedCurrent, m.window)
	report.Cost = grid[m.targetSize][m.targetSize]

	if report.Cost < m.threshold {
		report.Result = Matched
	} else {
		report.Result = NotMatched
	}

	return report
}
