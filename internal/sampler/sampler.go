// Package sampler polls a metric source on a fixed interval and reduces the
// collected snapshots to summary statistics.
package sampler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/verte-zerg/neuroscreen/internal/model"
)

const (
	// DefaultInterval is the polling period.
	DefaultInterval = time.Second
	// DefaultDuration is the total sampling time.
	DefaultDuration = 30 * time.Second
)

// ErrAlreadyStarted is returned when Start is called twice on one Sampler.
var ErrAlreadyStarted = errors.New("sampler already started")

// Source produces one snapshot of metric values per call.
type Source interface {
	Sample() map[string]float64
}

// SourceFunc adapts a function to Source.
type SourceFunc func() map[string]float64

// Sample calls f.
func (f SourceFunc) Sample() map[string]float64 { return f() }

// Sampler runs one sampling session. A Sampler is single-use.
type Sampler struct {
	source   Source
	interval time.Duration
	duration time.Duration
	ranges   map[string]model.Range
	clock    clock.Clock
	logger   *zap.Logger

	mu      sync.Mutex
	samples []model.MetricSample
	started bool

	updates  chan model.MetricSample
	cancel   context.CancelFunc
	stopOnce sync.Once
	done     chan struct{}
}

// Option configures a Sampler.
type Option func(*Sampler)

// WithInterval sets the polling period. Non-positive values are ignored.
func WithInterval(d time.Duration) Option {
	return func(s *Sampler) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithDuration sets the total sampling time. Non-positive values are ignored.
func WithDuration(d time.Duration) Option {
	return func(s *Sampler) {
		if d > 0 {
			s.duration = d
		}
	}
}

// WithRanges sets per-metric bounds. Metrics without a range pass through unclamped.
func WithRanges(ranges map[string]model.Range) Option {
	return func(s *Sampler) {
		s.ranges = make(map[string]model.Range, len(ranges))
		for k, v := range ranges {
			s.ranges[k] = v
		}
	}
}

// WithClock sets the time source.
func WithClock(c clock.Clock) Option {
	return func(s *Sampler) { s.clock = c }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Sampler) {
		if l != nil {
			s.logger = l
		}
	}
}

// New returns an idle Sampler polling source.
func New(source Source, opts ...Option) *Sampler {
	s := &Sampler{
		source:   source,
		interval: DefaultInterval,
		duration: DefaultDuration,
		clock:    clock.New(),
		logger:   zap.NewNop(),
		updates:  make(chan model.MetricSample, 1),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ticks returns how many ticks a full run takes.
func (s *Sampler) Ticks() int {
	return int(s.duration / s.interval)
}

// Interval returns the polling period.
func (s *Sampler) Interval() time.Duration { return s.interval }

// Duration returns the total sampling time.
func (s *Sampler) Duration() time.Duration { return s.duration }

// Start begins polling. The ticker is armed before Start returns.
func (s *Sampler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.started = true
	s.mu.Unlock()

	ticker := s.clock.Ticker(s.interval)
	s.logger.Debug("sampling started",
		zap.Duration("interval", s.interval),
		zap.Duration("duration", s.duration),
		zap.Int("ticks", s.Ticks()),
	)
	go s.loop(ctx, ticker)
	return nil
}

func (s *Sampler) loop(ctx context.Context, ticker *clock.Ticker) {
	defer close(s.done)
	defer close(s.updates)
	defer ticker.Stop()

	remaining := s.Ticks()
	for remaining > 0 {
		select {
		case <-ctx.Done():
			s.logger.Debug("sampling stopped", zap.Int("samples", s.count()))
			return
		case at := <-ticker.C:
			// A stop that races a tick wins.
			if ctx.Err() != nil {
				return
			}
			s.tick(at)
			remaining--
		}
	}
	s.logger.Debug("sampling finished", zap.Int("samples", s.count()))
}

func (s *Sampler) tick(at time.Time) {
	raw := s.source.Sample()
	values := make(map[string]float64, len(raw))
	for name, v := range raw {
		if r, ok := s.ranges[name]; ok {
			v = r.Clamp(v)
		}
		values[name] = v
	}
	sample := model.MetricSample{At: at, Values: values}

	s.mu.Lock()
	s.samples = append(s.samples, sample)
	s.mu.Unlock()

	s.publish(sample)
}

// publish replaces any unread update so the loop never blocks on observers.
func (s *Sampler) publish(sample model.MetricSample) {
	select {
	case s.updates <- sample:
		return
	default:
	}
	select {
	case <-s.updates:
	default:
	}
	select {
	case s.updates <- sample:
	default:
	}
}

func (s *Sampler) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.samples)
}

// Updates delivers the newest sample after each tick. Stale values are
// dropped. The channel is closed when the run ends.
func (s *Sampler) Updates() <-chan model.MetricSample {
	return s.updates
}

// Done is closed when the run ends.
func (s *Sampler) Done() <-chan struct{} {
	return s.done
}

// Latest returns the most recent sample.
func (s *Sampler) Latest() (model.MetricSample, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.samples) == 0 {
		return model.MetricSample{}, false
	}
	return s.samples[len(s.samples)-1], true
}

// Samples returns a copy of all collected samples.
func (s *Sampler) Samples() []model.MetricSample {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.MetricSample(nil), s.samples...)
}

// Stop ends the run and returns the summary. No tick is processed after
// Stop returns. Calling Stop again, or after the run finished, only
// returns the summary.
func (s *Sampler) Stop() model.SummaryStatistics {
	s.mu.Lock()
	started := s.started
	s.mu.Unlock()
	if !started {
		return Summarize(nil)
	}
	s.stopOnce.Do(s.cancel)
	<-s.done
	return Summarize(s.Samples())
}

// Wait blocks until the run completes or ctx is done.
func (s *Sampler) Wait(ctx context.Context) (model.SummaryStatistics, error) {
	select {
	case <-s.done:
		return Summarize(s.Samples()), nil
	case <-ctx.Done():
		return model.SummaryStatistics{}, ctx.Err()
	}
}

// Run samples source for duration at interval and returns the summary.
// Cancelling ctx ends the run early with the samples gathered so far.
func Run(ctx context.Context, source Source, interval, duration time.Duration, opts ...Option) (model.SummaryStatistics, error) {
	opts = append([]Option{WithInterval(interval), WithDuration(duration)}, opts...)
	s := New(source, opts...)
	if err := s.Start(ctx); err != nil {
		return model.SummaryStatistics{}, err
	}
	<-s.done
	return s.Stop(), nil
}

// Summarize averages each metric over the samples that carry it.
func Summarize(samples []model.MetricSample) model.SummaryStatistics {
	if len(samples) == 0 {
		return model.SummaryStatistics{}
	}
	means := map[string]float64{}
	counts := map[string]int{}
	for _, sample := range samples {
		for name, v := range sample.Values {
			counts[name]++
			// Running mean: identical inputs average to themselves exactly.
			means[name] += (v - means[name]) / float64(counts[name])
		}
	}
	return model.SummaryStatistics{Means: means, SampleCount: len(samples)}
}
