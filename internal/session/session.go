// Package session scopes one tracker to the lifetime of a counting session.
//
// A Session outlives any screen that renders it: the screen borrows the
// tracker and may be torn down and rebuilt without losing counter state.
// Closing the session ends it and hands a summary to the archiver.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/rs/zerolog"

	"github.com/verte-zerg/cartrack/internal/model"
	"github.com/verte-zerg/cartrack/internal/tracker"
)

var (
	// ErrClosed is returned when closing a session twice.
	ErrClosed = errors.New("session already closed")
	// ErrEmpty is returned when a session ends without any recorded event.
	ErrEmpty = errors.New("session has no events")
)

// Archiver persists finished sessions.
type Archiver interface {
	InsertSession(ctx context.Context, rec model.SessionRecord) (int64, error)
}

// Option configures a Session.
type Option func(*Session)

// WithClock sets the time source for the session and its tracker.
func WithClock(c tracker.Clock) Option {
	return func(s *Session) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithElapsedMode sets the tracker's elapsed-minute mode.
func WithElapsedMode(mode tracker.ElapsedMode) Option {
	return func(s *Session) {
		s.mode = mode
	}
}

// WithArchiver sets where the session summary is stored on Close.
func WithArchiver(a Archiver) Option {
	return func(s *Session) {
		s.archiver = a
	}
}

// WithLogger sets the session logger. The tracker logs through it too.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

// Session owns the tracker for one logical counting session.
type Session struct {
	id       xid.ID
	label    string
	openedAt time.Time

	clock    tracker.Clock
	mode     tracker.ElapsedMode
	archiver Archiver
	logger   zerolog.Logger

	tracker *tracker.Tracker
	closed  bool
}

// Open starts a new session.
func Open(label string, opts ...Option) *Session {
	s := &Session{
		id:     xid.New(),
		label:  label,
		clock:  tracker.WallClock,
		mode:   tracker.ElapsedDuration,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.openedAt = s.clock.Now()
	s.logger = s.logger.With().Str("session", s.id.String()).Logger()
	s.tracker = tracker.New(
		tracker.WithClock(s.clock),
		tracker.WithElapsedMode(s.mode),
		tracker.WithLogger(s.logger),
	)
	if s.mode == tracker.ElapsedMinuteOfHour {
		s.logger.Warn().Msg("minute-of-hour elapsed mode is only correct within a single clock hour")
	}
	s.logger.Info().Str("label", label).Str("elapsed_mode", s.mode.String()).Msg("session opened")
	return s
}

// ID returns the unique session key.
func (s *Session) ID() string {
	return s.id.String()
}

// Label returns the session label.
func (s *Session) Label() string {
	return s.label
}

// OpenedAt returns when the session began.
func (s *Session) OpenedAt() time.Time {
	return s.openedAt
}

// Tracker returns the session's tracker.
func (s *Session) Tracker() *tracker.Tracker {
	return s.tracker
}

// Closed reports whether Close was called.
func (s *Session) Closed() bool {
	return s.closed
}

// Close ends the session and archives its summary. Sessions without events
// are not archived and return ErrEmpty.
func (s *Session) Close(ctx context.Context) (model.SessionRecord, error) {
	if s.closed {
		return model.SessionRecord{}, ErrClosed
	}
	s.closed = true
	if !s.tracker.Started() {
		s.logger.Info().Msg("session closed without events")
		return model.SessionRecord{}, ErrEmpty
	}

	snap := s.tracker.Snapshot()
	rec := model.SessionRecord{
		SessionKey:     s.ID(),
		Label:          s.label,
		StartedAt:      s.openedAt,
		FirstEventAt:   snap.FirstEventAt,
		LastEventAt:    snap.LastEventAt,
		EndedAt:        s.clock.Now(),
		Count:          snap.Count,
		MinutesElapsed: snap.MinutesElapsed,
		RatePerMinute:  snap.RatePerMinute,
		ElapsedMode:    s.mode.String(),
	}
	if s.archiver != nil {
		id, err := s.archiver.InsertSession(ctx, rec)
		if err != nil {
			return rec, fmt.Errorf("failed to archive session: %w", err)
		}
		rec.ID = id
	}
	s.logger.Info().
		Int("count", rec.Count).
		Int("minutes_elapsed", rec.MinutesElapsed).
		Float64("rate_per_minute", rec.RatePerMinute).
		Msg("session closed")
	return rec, nil
}
