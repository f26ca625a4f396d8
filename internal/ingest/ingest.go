// Package ingest feeds gyroscope samples from external sources into a
// capture session.
package ingest

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/gesture"
)

// ErrBlankLine is returned by ParseLine for empty and comment lines.
var ErrBlankLine = errors.New("blank line")

// Sink receives raw gyroscope readings.
type Sink interface {
	Observe(x, y, z float32, timestamp int64) capture.Decision
}

// Controller ends capture sessions on request of a source.
type Controller interface {
	CommitAsReference() bool
	FinalizeAndMatch() gesture.Result
}

// ParseLine parses one CSV reading of the form "ts,x,y,z" or "x,y,z".
// Readings without a timestamp are stamped with now in milliseconds.
// Lines that are empty or start with '#' yield ErrBlankLine.
func ParseLine(line string, now time.Time) (gesture.Sample, error) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return gesture.Sample{}, ErrBlankLine
	}

	fields := strings.Split(line, ",")
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}

	var s gesture.Sample
	switch len(fields) {
	case 3:
		s.Timestamp = now.UnixMilli()
	case 4:
		ts, err := strconv.ParseInt(fields[0], 10, 64)
		if err != nil {
			return gesture.Sample{}, fmt.Errorf("invalid timestamp %q: %w", fields[0], err)
		}
		s.Timestamp = ts
		fields = fields[1:]
	default:
		return gesture.Sample{}, fmt.Errorf("expected 3 or 4 fields, got %d", len(fields))
	}

	axes := [3]*float64{&s.X, &s.Y, &s.Z}
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 32)
		if err != nil {
			return gesture.Sample{}, fmt.Errorf("invalid axis value %q: %w", f, err)
		}
		*axes[i] = v
	}

	return s, nil
}

// feed passes s to sink at sensor precision.
func feed(sink Sink, s gesture.Sample) capture.Decision {
	return sink.Observe(float32(s.X), float32(s.Y), float32(s.Z), s.Timestamp)
}
