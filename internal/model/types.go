// Package model defines shared data structures.
package model

import "time"

// Config defines counting session settings.
type Config struct {
	Label       string
	ElapsedMode string
	LogLevel    string
}

// HistoryFilter defines filters for archived session queries.
type HistoryFilter struct {
	Label string
	Since *time.Time
	Last  int
}

// CounterSnapshot is a point-in-time copy of a counter's state.
type CounterSnapshot struct {
	Count          int
	FirstEventAt   time.Time
	LastEventAt    time.Time
	MinutesElapsed int
	RatePerMinute  float64
}

// SessionRecord captures a finished counting session.
type SessionRecord struct {
	ID             int64
	SessionKey     string
	Label          string
	StartedAt      time.Time
	FirstEventAt   time.Time
	LastEventAt    time.Time
	EndedAt        time.Time
	Count          int
	MinutesElapsed int
	RatePerMinute  float64
	ElapsedMode    string
}

// Totals summarizes a set of archived sessions.
type Totals struct {
	Sessions     int
	Count        int
	Minutes      int
	BestRate     float64
	LastRate     float64
	HasLastEntry bool
}
