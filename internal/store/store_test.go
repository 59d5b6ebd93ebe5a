package store

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/cartrack/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "nested", "cartrack.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = st.Close()
	})
	return st
}

func testRecord(i int, label string) model.SessionRecord {
	start := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC).Add(time.Duration(i) * time.Hour)
	return model.SessionRecord{
		SessionKey:     fmt.Sprintf("key-%d", i),
		Label:          label,
		StartedAt:      start,
		FirstEventAt:   start.Add(5 * time.Second),
		LastEventAt:    start.Add(10 * time.Minute),
		EndedAt:        start.Add(11 * time.Minute),
		Count:          20 + i,
		MinutesElapsed: 10,
		RatePerMinute:  float64(20+i) / 10,
		ElapsedMode:    "duration",
	}
}

func TestInsertAndListSessions(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	want := testRecord(0, "north")
	id, err := st.InsertSession(ctx, want)
	require.NoError(t, err)
	assert.Positive(t, id)

	sessions, err := st.ListSessions(ctx, model.HistoryFilter{})
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	got := sessions[0]
	assert.Equal(t, id, got.ID)
	assert.Equal(t, want.SessionKey, got.SessionKey)
	assert.Equal(t, want.Label, got.Label)
	assert.True(t, want.StartedAt.Equal(got.StartedAt))
	assert.True(t, want.FirstEventAt.Equal(got.FirstEventAt))
	assert.True(t, want.LastEventAt.Equal(got.LastEventAt))
	assert.True(t, want.EndedAt.Equal(got.EndedAt))
	assert.Equal(t, want.Count, got.Count)
	assert.Equal(t, want.MinutesElapsed, got.MinutesElapsed)
	assert.Equal(t, want.RatePerMinute, got.RatePerMinute)
	assert.Equal(t, want.ElapsedMode, got.ElapsedMode)
}

func TestInsertDuplicateKeyFails(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	_, err := st.InsertSession(ctx, testRecord(0, "north"))
	require.NoError(t, err)
	_, err = st.InsertSession(ctx, testRecord(0, "north"))
	assert.Error(t, err)
}

func TestListSessionsFilters(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	labels := []string{"north", "south", "north", "north", "south"}
	for i, label := range labels {
		_, err := st.InsertSession(ctx, testRecord(i, label))
		require.NoError(t, err)
	}

	north, err := st.ListSessions(ctx, model.HistoryFilter{Label: "north"})
	require.NoError(t, err)
	require.Len(t, north, 3)
	assert.Equal(t, []string{"key-0", "key-2", "key-3"}, keys(north))

	last, err := st.ListSessions(ctx, model.HistoryFilter{Last: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"key-3", "key-4"}, keys(last))

	since := testRecord(2, "").EndedAt
	recent, err := st.ListSessions(ctx, model.HistoryFilter{Since: &since})
	require.NoError(t, err)
	assert.Equal(t, []string{"key-2", "key-3", "key-4"}, keys(recent))
}

func TestLastSession(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	_, ok, err := st.LastSession(ctx, "")
	require.NoError(t, err)
	assert.False(t, ok)

	for i, label := range []string{"north", "south", "north"} {
		_, err := st.InsertSession(ctx, testRecord(i, label))
		require.NoError(t, err)
	}

	rec, ok, err := st.LastSession(ctx, "south")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "key-1", rec.SessionKey)

	rec, ok, err = st.LastSession(ctx, "")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "key-2", rec.SessionKey)
}

func TestLabels(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	for i, label := range []string{"south", "north", "south", ""} {
		_, err := st.InsertSession(ctx, testRecord(i, label))
		require.NoError(t, err)
	}

	labels, err := st.Labels(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"", "north", "south"}, labels)
}

func TestFormatTimeSortsLexically(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 5, 0, time.UTC)
	later := base.Add(500 * time.Millisecond)
	assert.Less(t, formatTime(base), formatTime(later))

	parsed, err := parseTime(formatTime(later))
	require.NoError(t, err)
	assert.True(t, later.Equal(parsed))
}

func keys(sessions []model.SessionRecord) []string {
	out := make([]string, len(sessions))
	for i, s := range sessions {
		out[i] = s.SessionKey
	}
	return out
}
