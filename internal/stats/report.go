// Package stats contains statistics calculations and reporting.
package stats

import (
	"context"
	"fmt"
	"io"

	"github.com/verte-zerg/cartrack/internal/model"
)

// SessionLister loads archived sessions.
type SessionLister interface {
	ListSessions(ctx context.Context, filter model.HistoryFilter) ([]model.SessionRecord, error)
}

// Report contains precomputed data for stats rendering.
type Report struct {
	Filter   model.HistoryFilter
	Sessions []model.SessionRecord
	Totals   model.Totals
}

// BuildReport loads and prepares data for stats rendering.
func BuildReport(ctx context.Context, lister SessionLister, filter model.HistoryFilter) (Report, error) {
	sessions, err := lister.ListSessions(ctx, filter)
	if err != nil {
		return Report{}, fmt.Errorf("failed to list sessions: %w", err)
	}
	return Report{
		Filter:   filter,
		Sessions: sessions,
		Totals:   Summarize(sessions),
	}, nil
}

// RenderReport writes the summary, rate trend, and session table.
func RenderReport(w io.Writer, report Report, trendWindow, width int) error {
	if err := RenderSummary(w, report.Sessions); err != nil {
		return err
	}
	if err := RenderRateTrend(w, report.Sessions, trendWindow, width); err != nil {
		return err
	}
	return RenderSessionTable(w, report.Sessions)
}
