// Package tracker counts increment events and derives elapsed minutes and a
// per-minute rate from the first and most recent event times.
package tracker

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/verte-zerg/cartrack/internal/model"
	"github.com/verte-zerg/cartrack/internal/observable"
)

// Clock supplies the current instant.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

// Now implements Clock.
func (f ClockFunc) Now() time.Time {
	return f()
}

// WallClock reads time.Now.
var WallClock Clock = ClockFunc(time.Now)

// Option configures a Tracker.
type Option func(*Tracker)

// WithClock sets the time source read on every increment.
func WithClock(c Clock) Option {
	return func(t *Tracker) {
		if c != nil {
			t.clock = c
		}
	}
}

// WithElapsedMode sets how elapsed minutes are computed.
func WithElapsedMode(mode ElapsedMode) Option {
	return func(t *Tracker) {
		t.mode = mode
	}
}

// WithLogger sets the logger used for increment traces.
func WithLogger(logger zerolog.Logger) Option {
	return func(t *Tracker) {
		t.logger = logger
	}
}

// Tracker owns an increasing event count and its timing statistics.
// All methods must be called from a single goroutine.
type Tracker struct {
	clock  Clock
	mode   ElapsedMode
	logger zerolog.Logger

	firstAt time.Time
	lastAt  time.Time

	count   *observable.Value[int]
	minutes *observable.Value[int]
	rate    *observable.Value[float64]
}

// New creates a Tracker with no recorded events.
func New(opts ...Option) *Tracker {
	t := &Tracker{
		clock:   WallClock,
		mode:    ElapsedDuration,
		logger:  zerolog.Nop(),
		count:   observable.New(0),
		minutes: observable.New(0),
		rate:    observable.New(0.0),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Increment records one event at the current clock time and recomputes the
// derived values. Observers of each changed value are notified before it
// returns.
func (t *Tracker) Increment() {
	now := t.clock.Now()
	if t.count.Get() == 0 {
		t.firstAt = now
	}
	t.lastAt = now

	count := t.count.Get() + 1
	minutes := ElapsedMinutes(t.mode, t.firstAt, t.lastAt)
	rate := Rate(count, minutes)

	countChanged := t.count.Store(count)
	minutesChanged := t.minutes.Store(minutes)
	rateChanged := t.rate.Store(rate)
	if countChanged {
		t.count.Notify()
	}
	if minutesChanged {
		t.minutes.Notify()
	}
	if rateChanged {
		t.rate.Notify()
	}

	t.logger.Debug().
		Int("count", count).
		Int("minutes_elapsed", minutes).
		Float64("rate_per_minute", rate).
		Msg("increment")
}

// Count returns the number of recorded events.
func (t *Tracker) Count() int {
	return t.count.Get()
}

// MinutesElapsed returns whole minutes between the first and last event, or
// 0 before any event.
func (t *Tracker) MinutesElapsed() int {
	return t.minutes.Get()
}

// RatePerMinute returns events per elapsed minute, falling back to the raw
// count below one minute.
func (t *Tracker) RatePerMinute() float64 {
	return t.rate.Get()
}

// Started reports whether at least one event was recorded.
func (t *Tracker) Started() bool {
	return t.count.Get() > 0
}

// FirstEventAt returns the time of the first event, if any.
func (t *Tracker) FirstEventAt() (time.Time, bool) {
	return t.firstAt, t.Started()
}

// LastEventAt returns the time of the most recent event, if any.
func (t *Tracker) LastEventAt() (time.Time, bool) {
	return t.lastAt, t.Started()
}

// Mode returns the elapsed-minute mode in use.
func (t *Tracker) Mode() ElapsedMode {
	return t.mode
}

// CountValue exposes the count for observation.
func (t *Tracker) CountValue() observable.Reader[int] {
	return t.count
}

// MinutesValue exposes elapsed minutes for observation.
func (t *Tracker) MinutesValue() observable.Reader[int] {
	return t.minutes
}

// RateValue exposes the rate for observation.
func (t *Tracker) RateValue() observable.Reader[float64] {
	return t.rate
}

// Snapshot copies the current state.
func (t *Tracker) Snapshot() model.CounterSnapshot {
	return model.CounterSnapshot{
		Count:          t.count.Get(),
		FirstEventAt:   t.firstAt,
		LastEventAt:    t.lastAt,
		MinutesElapsed: t.minutes.Get(),
		RatePerMinute:  t.rate.Get(),
	}
}
