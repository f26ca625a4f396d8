// Package gesture provides gyroscope gesture resampling and matching.
package gesture

// Sample is a single angular-velocity reading, raw or interpolated.
type Sample struct {
	Timestamp int64   `json:"ts"` // Timestamp in milliseconds
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Z         float64 `json:"z"`
}

// Sequence is an ordered run of samples with non-decreasing timestamps.
type Sequence []Sample

// Clone returns a copy of the sequence that shares no backing array with s.
func (s Sequence) Clone() Sequence {
	if s == nil {
		return nil
	}
	out := make(Sequence, len(s))
	copy(out, s)
	return out
}

// Duration returns the time between the first and last sample.
func (s Sequence) Duration() int64 {
	if len(s) < 2 {
		return 0
	}
	return s[len(s)-1].Timestamp - s[0].Timestamp
}

// Axes splits the sequence into its x, y and z series.
func (s Sequence) Axes() (xs, ys, zs []float64) {
	xs = make([]float64, len(s))
	ys = make([]float64, len(s))
	zs = make([]float64, len(s))
	for i, p := range s {
		xs[i] = p.X
		ys[i] = p.Y
		zs[i] = p.Z
	}
	return xs, ys, zs
}

// Result is the verdict of comparing a gesture against the reference.
type Result string

const (
	// Matched means the alignment cost was below the match threshold.
	Matched Result = "Matched"
	// NotMatched means the alignment cost reached the match threshold.
	NotMatched Result = "Not Matched"
	// Indeterminate means no comparison could be made.
	Indeterminate Result = "Indeterminate"
)

// String implements fmt.Stringer.
func (r Result) String() string {
	return string(r)
}
