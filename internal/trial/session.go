// Package trial runs the Stroop stimulus/response state machine.
package trial

import (
	"errors"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/verte-zerg/neuroscreen/internal/generator"
	"github.com/verte-zerg/neuroscreen/internal/model"
)

const (
	// DefaultTrialCount is the number of trials per session.
	DefaultTrialCount = 20
	// DefaultDelay is the pause between a response and the next stimulus.
	DefaultDelay = 500 * time.Millisecond
)

var (
	// ErrInvalidTrialCount is returned by Start for a non-positive count.
	ErrInvalidTrialCount = errors.New("trial count must be > 0")
	// ErrEmptyPalette is returned by Start when no colors are given.
	ErrEmptyPalette = errors.New("palette must not be empty")
)

// Session owns one Stroop run. It is driven by a single caller and starts
// no goroutines: the next trial is presented once the clock passes its
// scheduled instant and the session is next observed.
type Session struct {
	clock clock.Clock
	gen   *generator.Generator
	delay time.Duration

	status    model.SessionStatus
	palette   []model.Color
	trials    []model.Trial
	current   int
	nextAt    time.Time
	startedAt time.Time
	result    model.TrialResult
}

// Option configures a Session.
type Option func(*Session)

// WithClock sets the time source.
func WithClock(c clock.Clock) Option {
	return func(s *Session) { s.clock = c }
}

// WithGenerator sets the stimulus generator.
func WithGenerator(g *generator.Generator) Option {
	return func(s *Session) { s.gen = g }
}

// WithDelay sets the inter-trial delay. Negative values are treated as zero.
func WithDelay(d time.Duration) Option {
	return func(s *Session) {
		if d < 0 {
			d = 0
		}
		s.delay = d
	}
}

// NewSession returns an idle session.
func NewSession(opts ...Option) *Session {
	s := &Session{
		clock: clock.New(),
		delay: DefaultDelay,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.gen == nil {
		s.gen = generator.New()
	}
	return s
}

// Start materializes trialCount trials and presents the first one.
// Any previous run is discarded.
func (s *Session) Start(trialCount int, palette []model.Color) error {
	if trialCount <= 0 {
		return ErrInvalidTrialCount
	}
	if len(palette) == 0 {
		return ErrEmptyPalette
	}
	s.Reset()
	now := s.clock.Now()
	s.palette = append([]model.Color(nil), palette...)
	s.trials = s.gen.Trials(s.palette, trialCount)
	s.trials[0].PresentedAt = now
	s.startedAt = now
	s.status = model.StatusActive
	return nil
}

// SubmitResponse scores the current trial. It returns false without any
// effect when the session is not active, all trials are scored, or the next
// stimulus is still inside its inter-trial delay. Answers outside the
// palette are scored as incorrect.
func (s *Session) SubmitResponse(answer string) bool {
	if s.status != model.StatusActive || s.current >= len(s.trials) {
		return false
	}
	s.settle()
	if !s.nextAt.IsZero() {
		return false
	}

	now := s.clock.Now()
	tr := &s.trials[s.current]
	tr.Responded = true
	tr.RespondedAt = now
	tr.SelectedAnswer = answer
	tr.IsCorrect = answer == tr.CorrectAnswer
	tr.ReactionTimeMs = now.Sub(tr.PresentedAt).Milliseconds()
	if tr.ReactionTimeMs < 0 {
		tr.ReactionTimeMs = 0
	}

	s.current++
	if s.current == len(s.trials) {
		s.complete(now)
		return true
	}
	if s.delay == 0 {
		s.trials[s.current].PresentedAt = now
		return true
	}
	s.nextAt = now.Add(s.delay)
	return true
}

// settle presents a scheduled trial whose delay has elapsed, stamping the
// scheduled instant rather than the observation time.
func (s *Session) settle() {
	if s.nextAt.IsZero() {
		return
	}
	if s.clock.Now().Before(s.nextAt) {
		return
	}
	s.trials[s.current].PresentedAt = s.nextAt
	s.nextAt = time.Time{}
}

func (s *Session) complete(now time.Time) {
	correct := 0
	var rtSum int64
	for _, tr := range s.trials {
		if tr.IsCorrect {
			correct++
		}
		rtSum += tr.ReactionTimeMs
	}
	total := len(s.trials)
	s.result = model.TrialResult{
		Total:             total,
		Correct:           correct,
		Accuracy:          float64(correct) / float64(total) * 100,
		AvgReactionTimeMs: float64(rtSum) / float64(total),
		StartedAt:         s.startedAt,
		EndedAt:           now,
	}
	s.status = model.StatusCompleted
}

// Current returns the presented trial and its index. ok is false when no
// trial is on screen: idle, completed, or between trials.
func (s *Session) Current() (tr model.Trial, index int, ok bool) {
	if s.status != model.StatusActive {
		return model.Trial{}, 0, false
	}
	s.settle()
	if !s.nextAt.IsZero() {
		return model.Trial{}, s.current, false
	}
	return s.trials[s.current], s.current, true
}

// Pending returns the time left until the next trial is presented.
func (s *Session) Pending() time.Duration {
	if s.status != model.StatusActive {
		return 0
	}
	s.settle()
	if s.nextAt.IsZero() {
		return 0
	}
	return s.nextAt.Sub(s.clock.Now())
}

// Status returns the lifecycle state.
func (s *Session) Status() model.SessionStatus {
	return s.status
}

// Len returns the number of trials in the session.
func (s *Session) Len() int {
	return len(s.trials)
}

// Palette returns the colors the session was started with.
func (s *Session) Palette() []model.Color {
	return append([]model.Color(nil), s.palette...)
}

// Trials returns a copy of all trials.
func (s *Session) Trials() []model.Trial {
	return append([]model.Trial(nil), s.trials...)
}

// Result returns session scores. ok is false until the session completes.
func (s *Session) Result() (model.TrialResult, bool) {
	if s.status != model.StatusCompleted {
		return model.TrialResult{}, false
	}
	return s.result, true
}

// Reset returns the session to idle, discarding all trials.
func (s *Session) Reset() {
	s.status = model.StatusIdle
	s.palette = nil
	s.trials = nil
	s.current = 0
	s.nextAt = time.Time{}
	s.startedAt = time.Time{}
	s.result = model.TrialResult{}
}
