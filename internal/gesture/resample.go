package gesture

// DefaultTargetSize is the number of points a gesture is resampled to before matching.
const DefaultTargetSize = 100

// Normalize resamples seq to exactly targetSize samples evenly spaced in time.
// Values are linearly interpolated between the two input samples surrounding
// each target time.
//
// It returns false when seq has fewer than two samples, since no duration can
// be established, or when targetSize is below 2.
func Normalize(seq Sequence, targetSize int) (Sequence, bool) {
	if len(seq) <= 1 || targetSize < 2 {
		return nil, false
	}

	first := seq[0]
	totalDuration := seq[len(seq)-1].Timestamp - first.Timestamp
	// Integer step: a zero duration collapses every target onto the first timestamp.
	stepDuration := totalDuration / int64(targetSize-1)

	result := make(Sequence, targetSize)
	cursor := 0

	for i := 0; i < targetSize; i++ {
		targetTime := first.Timestamp + int64(i)*stepDuration

		for cursor < len(seq)-1 && seq[cursor+1].Timestamp <= targetTime {
			cursor++
		}

		start := seq[cursor]
		end := start
		if cursor+1 < len(seq) {
			end = seq[cursor+1]
		}

		var factor float64
		if end.Timestamp != start.Timestamp {
			factor = float64(targetTime-start.Timestamp) / float64(end.Timestamp-start.Timestamp)
		}

		result[i] = Sample{
			Timestamp: targetTime,
			X:         start.X + factor*(end.X-start.X),
			Y:         start.Y + factor*(end.Y-start.Y),
			Z:         start.Z + factor*(end.Z-start.Z),
		}
	}

	return result, true
}
