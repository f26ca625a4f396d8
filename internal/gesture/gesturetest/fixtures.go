// Package gesturetest provides deterministic gyroscope gestures for tests.
package gesturetest

import (
	"math"

	"github.com/ayusman/mudra/internal/gesture"
)

// Ramp returns n evenly spaced samples over durationMs with X rising linearly
// from "from" to "to". Y and Z are zero.
func Ramp(n int, durationMs int64, from, to float64) gesture.Sequence {
	seq := make(gesture.Sequence, n)
	for i := range seq {
		frac := 0.0
		if n > 1 {
			frac = float64(i) / float64(n-1)
		}
		seq[i] = gesture.Sample{
			Timestamp: int64(frac * float64(durationMs)),
			X:         from + frac*(to-from),
		}
	}
	return seq
}

// Constant returns n evenly spaced samples over durationMs with fixed values.
func Constant(n int, durationMs int64, x, y, z float64) gesture.Sequence {
	seq := make(gesture.Sequence, n)
	for i := range seq {
		var ts int64
		if n > 1 {
			ts = int64(i) * durationMs / int64(n-1)
		}
		seq[i] = gesture.Sample{Timestamp: ts, X: x, Y: y, Z: z}
	}
	return seq
}

// Circle returns n samples of a wrist rotation: X follows a sine and Y a cosine
// of the given amplitude over one full period.
func Circle(n int, durationMs int64, amplitude float64) gesture.Sequence {
	seq := make(gesture.Sequence, n)
	for i := range seq {
		phase := 2 * math.Pi * float64(i) / float64(n)
		seq[i] = gesture.Sample{
			Timestamp: int64(i) * durationMs / int64(n),
			X:         amplitude * math.Sin(phase),
			Y:         amplitude * math.Cos(phase),
			Z:         0.5,
		}
	}
	return seq
}

// Shift returns a copy of seq with every timestamp moved by offsetMs.
func Shift(seq gesture.Sequence, offsetMs int64) gesture.Sequence {
	out := seq.Clone()
	for i := range out {
		out[i].Timestamp += offsetMs
	}
	return out
}
