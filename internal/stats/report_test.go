package stats

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/cartrack/internal/model"
	"github.com/verte-zerg/cartrack/internal/store"
)

type failingLister struct{}

func (failingLister) ListSessions(context.Context, model.HistoryFilter) ([]model.SessionRecord, error) {
	return nil, errors.New("locked")
}

func TestBuildReport(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "cartrack.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = st.Close()
	})

	ctx := context.Background()
	counts := []int{6, 12, 30}
	for i, count := range counts {
		start := time.Unix(0, 0).Add(time.Duration(i) * time.Hour)
		_, err := st.InsertSession(ctx, model.SessionRecord{
			SessionKey:     start.String(),
			Label:          "north",
			StartedAt:      start,
			FirstEventAt:   start,
			LastEventAt:    start.Add(3 * time.Minute),
			EndedAt:        start.Add(4 * time.Minute),
			Count:          count,
			MinutesElapsed: 3,
			RatePerMinute:  float64(count) / 3,
			ElapsedMode:    "duration",
		})
		require.NoError(t, err)
	}

	report, err := BuildReport(ctx, st, model.HistoryFilter{Label: "north", Last: 2})
	require.NoError(t, err)
	require.Len(t, report.Sessions, 2)
	assert.Equal(t, 12, report.Sessions[0].Count)
	assert.Equal(t, 30, report.Sessions[1].Count)
	assert.Equal(t, 2, report.Totals.Sessions)
	assert.Equal(t, 42, report.Totals.Count)
	assert.Equal(t, 6, report.Totals.Minutes)
	assert.Equal(t, 10.0, report.Totals.BestRate)
	assert.Equal(t, 7.0, OverallRate(report.Totals))

	var buf bytes.Buffer
	require.NoError(t, RenderReport(&buf, report, 2, 40))
	out := buf.String()
	assert.Contains(t, out, "Sessions: 2")
	assert.Contains(t, out, "Overall cars/min: 7.00")
	assert.Contains(t, out, "Best cars/min: 10.00")
	assert.Contains(t, out, "Rate trend: ")
	assert.Contains(t, out, "Cars/min")
	assert.Contains(t, out, "10.00")
}

func TestBuildReportError(t *testing.T) {
	_, err := BuildReport(context.Background(), failingLister{}, model.HistoryFilter{})
	assert.ErrorContains(t, err, "locked")
}

func TestRenderReportEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderReport(&buf, Report{}, 5, 40))
	assert.Equal(t, "No sessions found.\n", buf.String())
}
