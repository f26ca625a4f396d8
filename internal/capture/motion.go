// Package capture turns a raw gyroscope stream into gesture recordings.
package capture

import (
	"math"

	"github.com/ayusman/mudra/internal/gesture"
)

// DefaultMotionThreshold is the per-axis angular velocity below which the
// device is considered still.
const DefaultMotionThreshold = 0.1

// Decision is the outcome of feeding one sample to the motion gate.
type Decision string

const (
	// Ignored means every axis was below the threshold; nothing changed.
	Ignored Decision = "ignored"
	// Started means the sample began a new gesture.
	Started Decision = "started"
	// Appended means the sample extended the gesture in progress.
	Appended Decision = "appended"
)

// MotionGate separates sensor noise from gesture motion.
// It is not safe for concurrent use; the owning session serializes access.
type MotionGate struct {
	threshold  float64
	inProgress bool
}

// NewMotionGate creates a new MotionGate with the given threshold.
// Non-positive thresholds fall back to DefaultMotionThreshold.
func NewMotionGate(threshold float64) *MotionGate {
	if threshold <= 0 {
		threshold = DefaultMotionThreshold
	}
	return &MotionGate{threshold: threshold}
}

// Still reports whether every axis is below the threshold.
// Axes are tested independently, so one fast axis is enough to count as motion.
func (g *MotionGate) Still(x, y, z float64) bool {
	return math.Abs(x) < g.threshold &&
		math.Abs(y) < g.threshold &&
		math.Abs(z) < g.threshold
}

// Observe classifies a reading and moves the gate from idle to active on motion.
func (g *MotionGate) Observe(x, y, z float64) Decision {
	if g.Still(x, y, z) {
		return Ignored
	}
	if !g.inProgress {
		g.inProgress = true
		return Started
	}
	return Appended
}

// InProgress reports whether a gesture is being captured.
func (g *MotionGate) InProgress() bool {
	return g.inProgress
}

// Stop returns the gate to idle. It reports whether a gesture was in progress.
func (g *MotionGate) Stop() bool {
	was := g.inProgress
	g.inProgress = false
	return was
}

// Threshold returns the current stillness threshold.
func (g *MotionGate) Threshold() float64 {
	return g.threshold
}

// SetThreshold sets the stillness threshold.
// Values less than or equal to 0 are ignored.
func (g *MotionGate) SetThreshold(threshold float64) {
	if threshold <= 0 {
		return
	}
	g.threshold = threshold
}

// Recorder accumulates the samples of the gesture in progress.
// Like MotionGate it relies on its owner for synchronization.
type Recorder struct {
	gate    *MotionGate
	current gesture.Sequence
}

// NewRecorder creates a Recorder driven by gate.
func NewRecorder(gate *MotionGate) *Recorder {
	return &Recorder{gate: gate}
}

// Observe runs a reading through the gate and records it when it is motion.
// A Started decision clears whatever the previous gesture left behind.
// Readings older than the last recorded sample are Ignored, so timestamps
// within a gesture never decrease.
func (r *Recorder) Observe(x, y, z float32, timestamp int64) Decision {
	if r.gate.InProgress() && len(r.current) > 0 && timestamp < r.current[len(r.current)-1].Timestamp {
		return Ignored
	}

	fx, fy, fz := float64(x), float64(y), float64(z)

	decision := r.gate.Observe(fx, fy, fz)
	switch decision {
	case Ignored:
		return Ignored
	case Started:
		r.current = r.current[:0]
	}

	r.current = append(r.current, gesture.Sample{
		Timestamp: timestamp,
		X:         fx,
		Y:         fy,
		Z:         fz,
	})
	return decision
}

// Finish ends the gesture in progress and hands over its samples.
// It returns false, and leaves everything untouched, when the gate is idle.
func (r *Recorder) Finish() (gesture.Sequence, bool) {
	if !r.gate.Stop() {
		return nil, false
	}
	seq := r.current.Clone()
	r.current = nil
	return seq, true
}

// Snapshot returns a copy of the samples recorded so far.
func (r *Recorder) Snapshot() gesture.Sequence {
	return r.current.Clone()
}

// Len returns the number of samples recorded so far.
func (r *Recorder) Len() int {
	return len(r.current)
}

// Gate returns the motion gate driving the recorder.
func (r *Recorder) Gate() *MotionGate {
	return r.gate
}
