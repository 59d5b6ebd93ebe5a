// Package stats contains statistics calculations and reporting.
package stats

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/verte-zerg/cartrack/internal/model"
	"github.com/verte-zerg/cartrack/internal/tracker"
)

const sparkChars = " .:-=+*#%@"

// FormatRate renders a per-minute rate the way every screen shows it.
func FormatRate(rate float64) string {
	return fmt.Sprintf("%.2f", rate)
}

// Summarize aggregates archived sessions. The overall rate follows the same
// fallback rule as a single counter.
func Summarize(sessions []model.SessionRecord) model.Totals {
	var totals model.Totals
	for _, s := range sessions {
		totals.Sessions++
		totals.Count += s.Count
		if s.MinutesElapsed > 0 {
			totals.Minutes += s.MinutesElapsed
		}
		if s.RatePerMinute > totals.BestRate {
			totals.BestRate = s.RatePerMinute
		}
	}
	if len(sessions) > 0 {
		totals.LastRate = sessions[len(sessions)-1].RatePerMinute
		totals.HasLastEntry = true
	}
	return totals
}

// OverallRate returns cars per minute across all summarized sessions.
func OverallRate(totals model.Totals) float64 {
	return tracker.Rate(totals.Count, totals.Minutes)
}

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	if window <= 1 || len(values) == 0 {
		out := make([]float64, len(values))
		copy(out, values)
		return out
	}
	out := make([]float64, len(values))
	var sum float64
	for i := 0; i < len(values); i++ {
		sum += values[i]
		if i >= window {
			sum -= values[i-window]
		}
		den := float64(i + 1)
		if i >= window {
			den = float64(window)
		}
		out[i] = sum / den
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal, maxVal := values[0], values[0]
	for _, v := range values[1:] {
		minVal = math.Min(minVal, v)
		maxVal = math.Max(maxVal, v)
	}
	if math.Abs(maxVal-minVal) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		pos := (v - minVal) / (maxVal - minVal)
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		idx = max(0, min(idx, len(sparkChars)-1))
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

// RenderSummary prints aggregate totals for sessions.
func RenderSummary(w io.Writer, sessions []model.SessionRecord) error {
	if len(sessions) == 0 {
		_, err := fmt.Fprintln(w, "No sessions found.")
		return err
	}
	totals := Summarize(sessions)
	lines := []string{
		"Summary",
		fmt.Sprintf("Sessions: %d", totals.Sessions),
		fmt.Sprintf("Cars: %d", totals.Count),
		fmt.Sprintf("Minutes: %d", totals.Minutes),
		fmt.Sprintf("Overall cars/min: %s", FormatRate(OverallRate(totals))),
		fmt.Sprintf("Best cars/min: %s", FormatRate(totals.BestRate)),
		"",
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// RenderRateTrend prints a sparkline of the per-session rate smoothed over
// window sessions, limited to the last width sessions.
func RenderRateTrend(w io.Writer, sessions []model.SessionRecord, window, width int) error {
	if len(sessions) < 2 {
		return nil
	}
	rates := make([]float64, len(sessions))
	for i, s := range sessions {
		rates[i] = s.RatePerMinute
	}
	rates = MovingAverage(rates, window)
	if width > 0 && len(rates) > width {
		rates = rates[len(rates)-width:]
	}
	_, err := fmt.Fprintf(w, "Rate trend: %s\n\n", Sparkline(rates))
	return err
}

// RenderSessionTable prints one row per archived session.
func RenderSessionTable(w io.Writer, sessions []model.SessionRecord) error {
	if len(sessions) == 0 {
		return nil
	}
	headers, rows := SessionRows(sessions)
	rightAlign := map[int]bool{2: true, 3: true, 4: true}
	for _, line := range formatTable(headers, rows, rightAlign) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// SessionRows formats sessions as table headers and cells.
func SessionRows(sessions []model.SessionRecord) ([]string, [][]string) {
	headers := []string{"Started", "Label", "Cars", "Minutes", "Cars/min"}
	rows := make([][]string, 0, len(sessions))
	for _, s := range sessions {
		label := s.Label
		if label == "" {
			label = "-"
		}
		rows = append(rows, []string{
			s.StartedAt.Local().Format("2006-01-02 15:04"),
			label,
			fmt.Sprintf("%d", s.Count),
			fmt.Sprintf("%d", s.MinutesElapsed),
			FormatRate(s.RatePerMinute),
		})
	}
	return headers, rows
}
