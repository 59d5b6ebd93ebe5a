package historyui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/cartrack/internal/model"
)

type memorySource struct {
	sessions []model.SessionRecord
	err      error
}

func (s *memorySource) ListSessions(_ context.Context, filter model.HistoryFilter) ([]model.SessionRecord, error) {
	if s.err != nil {
		return nil, s.err
	}
	var out []model.SessionRecord
	for _, rec := range s.sessions {
		if filter.Label != "" && rec.Label != filter.Label {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

func (s *memorySource) Labels(context.Context) ([]string, error) {
	return []string{"north", "south"}, nil
}

func testSource() *memorySource {
	start := time.Date(2024, 6, 1, 9, 0, 0, 0, time.Local)
	return &memorySource{sessions: []model.SessionRecord{
		{Label: "north", StartedAt: start, Count: 10, MinutesElapsed: 5, RatePerMinute: 2},
		{Label: "south", StartedAt: start.Add(time.Hour), Count: 3, MinutesElapsed: 0, RatePerMinute: 3},
		{Label: "north", StartedAt: start.Add(2 * time.Hour), Count: 8, MinutesElapsed: 2, RatePerMinute: 4},
	}}
}

func TestNewModelLoadsAllSessions(t *testing.T) {
	m := NewModel(testSource(), model.HistoryFilter{})

	require.Len(t, m.report.Sessions, 3)
	rows := m.table.Rows()
	require.Len(t, rows, 3)
	assert.Equal(t, "2024-06-01 11:00", rows[0][0])
	assert.Equal(t, "4.00", rows[0][4])
	assert.Equal(t, 21, m.report.Totals.Count)
}

func TestLabelCycling(t *testing.T) {
	m := NewModel(testSource(), model.HistoryFilter{})

	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'l'}})
	assert.Equal(t, "north", m.filter.Label)
	assert.Len(t, m.table.Rows(), 2)

	m.Update(tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, "south", m.filter.Label)
	assert.Len(t, m.table.Rows(), 1)

	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'l'}})
	assert.Equal(t, "", m.filter.Label)
	assert.Len(t, m.table.Rows(), 3)
}

func TestViewShowsTotalsAndErrors(t *testing.T) {
	m := NewModel(testSource(), model.HistoryFilter{Last: 5})
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	out := m.View()
	for _, want := range []string{"History", "Label: all labels", "Last: 5", "Sessions", "21", "north"} {
		assert.True(t, strings.Contains(out, want), "missing %q in %s", want, out)
	}

	failing := NewModel(&memorySource{err: errors.New("locked")}, model.HistoryFilter{})
	assert.Contains(t, failing.View(), "locked")
}

func TestQuit(t *testing.T) {
	m := NewModel(testSource(), model.HistoryFilter{})
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	require.NotNil(t, cmd)
	_, ok := cmd().(tea.QuitMsg)
	assert.True(t, ok)
}
