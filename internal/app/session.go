package app

import (
	"log"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/gesture"
)

// subscriberBuffer is the number of events buffered per subscriber before
// further events are dropped for it.
const subscriberBuffer = 64

// EventType identifies what changed in a session.
type EventType string

const (
	// EventSample is emitted for every recorded sample.
	EventSample EventType = "sample"
	// EventCommitted is emitted when the current gesture becomes the reference.
	EventCommitted EventType = "committed"
	// EventResult is emitted when a gesture is finalized and matched.
	EventResult EventType = "result"
)

// Event is a change notification for observers of a session.
type Event struct {
	Type     EventType        `json:"type"`
	Decision capture.Decision `json:"decision,omitempty"`
	Sample   *gesture.Sample  `json:"sample,omitempty"`
	Points   int              `json:"points"`
	Result   gesture.Result   `json:"result,omitempty"`
	Cost     *float64         `json:"cost,omitempty"`
	Time     time.Time        `json:"time"`
}

// Outcome is a finalized gesture together with its match report.
type Outcome struct {
	ID        string
	SessionID string
	Report    gesture.Report
	At        time.Time
}

// Snapshot is a read-only view of the gesture being recorded.
type Snapshot struct {
	X          []float64 `json:"x"`
	Y          []float64 `json:"y"`
	Z          []float64 `json:"z"`
	InProgress bool      `json:"in_progress"`
}

// SessionConfig holds the tunables of a capture session.
type SessionConfig struct {
	MotionThreshold float64
	Matcher         gesture.Options
}

// Session owns the motion gate, the gesture in progress and the reference
// gesture. A single mutex covers all three so that every operation is atomic
// with respect to the others.
type Session struct {
	id        string
	mu        sync.Mutex
	recorder  *capture.Recorder
	reference gesture.Sequence
	matcher   *gesture.Matcher
	enabled   bool
	last      *Outcome

	subscribers map[chan Event]struct{}
	onResult    []func(Outcome)
}

// NewSession creates a new Session with an empty reference.
func NewSession(cfg SessionConfig) *Session {
	return &Session{
		id:          uuid.New().String(),
		recorder:    capture.NewRecorder(capture.NewMotionGate(cfg.MotionThreshold)),
		matcher:     gesture.NewMatcher(cfg.Matcher),
		enabled:     true,
		subscribers: make(map[chan Event]struct{}),
	}
}

// ID returns the unique identifier of the session.
func (s *Session) ID() string {
	return s.id
}

// Observe feeds one raw gyroscope reading to the session.
// Readings are ignored while the session is disabled.
func (s *Session) Observe(x, y, z float32, timestamp int64) capture.Decision {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.enabled {
		return capture.Ignored
	}

	decision := s.recorder.Observe(x, y, z, timestamp)
	if decision == capture.Ignored {
		return decision
	}

	sample := gesture.Sample{Timestamp: timestamp, X: float64(x), Y: float64(y), Z: float64(z)}
	s.publish(Event{
		Type:     EventSample,
		Decision: decision,
		Sample:   &sample,
		Points:   s.recorder.Len(),
		Time:     time.Now(),
	})

	return decision
}

// CommitAsReference ends the gesture in progress and stores it as the new
// reference, replacing any previous one. It returns false when no gesture is
// in progress.
func (s *Session) CommitAsReference() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	seq, ok := s.recorder.Finish()
	if !ok {
		return false
	}

	s.reference = seq
	log.Printf("session: gesture saved as reference (%d samples)", len(seq))

	s.publish(Event{
		Type:   EventCommitted,
		Points: len(seq),
		Time:   time.Now(),
	})
	return true
}

// FinalizeAndMatch ends the gesture in progress without saving it and
// compares it against the reference. It returns Indeterminate, without side
// effects, when no gesture is in progress.
func (s *Session) FinalizeAndMatch() gesture.Result {
	outcome, ok := s.Finalize()
	if !ok {
		return gesture.Indeterminate
	}
	return outcome.Report.Result
}

// Finalize is FinalizeAndMatch returning the full outcome.
// The boolean is false when no gesture was in progress.
func (s *Session) Finalize() (Outcome, bool) {
	s.mu.Lock()

	seq, ok := s.recorder.Finish()
	if !ok {
		s.mu.Unlock()
		return Outcome{}, false
	}

	report := s.matcher.Evaluate(s.reference, seq)
	outcome := Outcome{
		ID:        uuid.New().String(),
		SessionID: s.id,
		Report:    report,
		At:        time.Now(),
	}
	s.last = &outcome

	log.Printf("session: DTW cost %.3f over %d/%d samples: %s",
		report.Cost, report.ReferencePoints, report.CurrentPoints, report.Result)

	s.publish(Event{
		Type:   EventResult,
		Points: len(seq),
		Result: report.Result,
		Cost:   FiniteCost(report.Cost),
		Time:   outcome.At,
	})

	hooks := make([]func(Outcome), len(s.onResult))
	copy(hooks, s.onResult)
	s.mu.Unlock()

	// Hooks may do I/O, so they run outside the lock.
	for _, fn := range hooks {
		fn(outcome)
	}

	return outcome, true
}

// Snapshot returns the x, y and z series of the gesture in progress.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	xs, ys, zs := s.recorder.Snapshot().Axes()
	return Snapshot{
		X:          xs,
		Y:          ys,
		Z:          zs,
		InProgress: s.recorder.Gate().InProgress(),
	}
}

// Reference returns a copy of the reference gesture, or nil when none is stored.
func (s *Session) Reference() gesture.Sequence {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reference.Clone()
}

// LastOutcome returns the most recent finalized gesture, if any.
func (s *Session) LastOutcome() (Outcome, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.last == nil {
		return Outcome{}, false
	}
	return *s.last, true
}

// LastResult returns the most recent verdict, or an empty Result before the
// first finalized gesture.
func (s *Session) LastResult() gesture.Result {
	if outcome, ok := s.LastOutcome(); ok {
		return outcome.Report.Result
	}
	return ""
}

// SetEnabled enables or disables sample recording.
func (s *Session) SetEnabled(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enabled = enabled
}

// IsEnabled returns whether sample recording is enabled.
func (s *Session) IsEnabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enabled
}

// SetMotionThreshold changes the stillness threshold of the motion gate.
// Values less than or equal to 0 are ignored.
func (s *Session) SetMotionThreshold(threshold float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recorder.Gate().SetThreshold(threshold)
}

// MotionThreshold returns the stillness threshold of the motion gate.
func (s *Session) MotionThreshold() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recorder.Gate().Threshold()
}

// SetMatcherOptions replaces the matcher used for subsequent gestures.
func (s *Session) SetMatcherOptions(opts gesture.Options) {
	m := gesture.NewMatcher(opts)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.matcher = m
}

// MatcherOptions returns the options of the current matcher.
func (s *Session) MatcherOptions() gesture.Options {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.matcher.Options()
}

// OnResult registers fn to be called after every finalized gesture.
func (s *Session) OnResult(fn func(Outcome)) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onResult = append(s.onResult, fn)
}

// Subscribe returns a channel of session events and a function that ends the
// subscription. Slow subscribers miss events rather than block the session.
func (s *Session) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)

	s.mu.Lock()
	s.subscribers[ch] = struct{}{}
	s.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subscribers, ch)
			s.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// publish delivers ev to every subscriber without blocking. Callers hold s.mu.
func (s *Session) publish(ev Event) {
	for ch := range s.subscribers {
		select {
		case ch <- ev:
		default:
		}
	}
}

// FiniteCost returns a pointer to cost, or nil when the cost is infinite.
func FiniteCost(cost float64) *float64 {
	if math.IsInf(cost, 0) || math.IsNaN(cost) {
		return nil
	}
	return &cost
}
