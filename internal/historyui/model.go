// Package historyui provides the Bubble Tea browser for archived sessions.
package historyui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/cartrack/internal/model"
	"github.com/verte-zerg/cartrack/internal/stats"
)

// Source loads archived sessions and their labels.
type Source interface {
	stats.SessionLister
	Labels(ctx context.Context) ([]string, error)
}

var (
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	cardStyle   = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
	cardTitleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	cardValueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
)

// Model implements the history browser.
type Model struct {
	source Source
	filter model.HistoryFilter

	report stats.Report
	errMsg string

	labels     []string
	labelIndex int

	table  table.Model
	width  int
	height int
}

// NewModel constructs a history browser showing sessions matching filter.
func NewModel(source Source, filter model.HistoryFilter) *Model {
	m := &Model{
		source:     source,
		filter:     filter,
		labelIndex: -1,
	}
	m.table = table.New(
		table.WithColumns(columnsFor(80)),
		table.WithFocused(true),
		table.WithHeight(10),
	)
	m.table.SetStyles(tableStyles())
	m.loadLabels()
	m.refresh()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			return m, tea.Quit
		case "l", "tab":
			m.nextLabel()
			m.refresh()
			return m, nil
		case "r":
			m.loadLabels()
			m.refresh()
			return m, nil
		}
		var cmd tea.Cmd
		m.table, cmd = m.table.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	parts := []string{m.renderHeader(), m.renderCards()}
	if m.errMsg != "" {
		parts = append(parts, errorStyle.Render(m.errMsg))
	} else if len(m.report.Sessions) == 0 {
		parts = append(parts, "No sessions found.")
	} else {
		parts = append(parts, m.table.View())
	}
	parts = append(parts, headerStyle.Render("↑/↓ scroll · l next label · r reload · q quit"))
	return strings.Join(parts, "\n")
}

func (m *Model) renderHeader() string {
	label := m.filter.Label
	if label == "" {
		label = "all labels"
	}
	segments := []string{"History", "Label: " + label}
	if m.filter.Since != nil {
		segments = append(segments, "Since: "+m.filter.Since.Format("2006-01-02"))
	}
	if m.filter.Last > 0 {
		segments = append(segments, fmt.Sprintf("Last: %d", m.filter.Last))
	}
	return headerStyle.Render(strings.Join(segments, " · "))
}

func (m *Model) renderCards() string {
	totals := m.report.Totals
	return lipgloss.JoinHorizontal(lipgloss.Top,
		metricCard("Sessions", fmt.Sprintf("%d", totals.Sessions)),
		metricCard("Cars", fmt.Sprintf("%d", totals.Count)),
		metricCard("Cars/min", stats.FormatRate(stats.OverallRate(totals))),
		metricCard("Best", stats.FormatRate(totals.BestRate)),
	)
}

func metricCard(label, value string) string {
	content := fmt.Sprintf("%s\n%s", cardTitleStyle.Render(label), cardValueStyle.Render(value))
	return cardStyle.Render(content)
}

func (m *Model) loadLabels() {
	labels, err := m.source.Labels(context.Background())
	if err != nil {
		m.errMsg = fmt.Sprintf("failed to load labels: %v", err)
		return
	}
	m.labels = labels
	m.labelIndex = -1
	for i, label := range labels {
		if label == m.filter.Label && label != "" {
			m.labelIndex = i
		}
	}
}

// nextLabel cycles through every label and then back to no label filter.
func (m *Model) nextLabel() {
	if len(m.labels) == 0 {
		return
	}
	m.labelIndex++
	if m.labelIndex >= len(m.labels) {
		m.labelIndex = -1
		m.filter.Label = ""
		return
	}
	m.filter.Label = m.labels[m.labelIndex]
}

func (m *Model) refresh() {
	report, err := stats.BuildReport(context.Background(), m.source, m.filter)
	if err != nil {
		m.errMsg = err.Error()
		return
	}
	m.errMsg = ""
	m.report = report
	_, cells := stats.SessionRows(report.Sessions)
	rows := make([]table.Row, 0, len(cells))
	// Newest first so the cursor starts on the latest session.
	for i := len(cells) - 1; i >= 0; i-- {
		rows = append(rows, table.Row(cells[i]))
	}
	m.table.SetRows(rows)
	m.table.GotoTop()
}

func (m *Model) updateLayout() {
	width := m.width
	if width <= 0 {
		width = 80
	}
	m.table.SetColumns(columnsFor(width))
	m.table.SetWidth(width)
	// Header, cards (3 lines + border), footer.
	m.table.SetHeight(max(1, m.height-7))
}

func columnsFor(width int) []table.Column {
	fixed := 16 + 6 + 8 + 9
	label := max(8, width-fixed-5)
	return []table.Column{
		{Title: "Started", Width: 16},
		{Title: "Label", Width: label},
		{Title: "Cars", Width: 6},
		{Title: "Minutes", Width: 8},
		{Title: "Cars/min", Width: 9},
	}
}

func tableStyles() table.Styles {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true).
		Padding(0, 1).
		PaddingLeft(0)
	styles.Cell = styles.Cell.
		Padding(0, 1).
		PaddingLeft(0)
	styles.Selected = styles.Cell.
		Foreground(lipgloss.Color("#F0F0F0")).
		Bold(true)
	return styles
}
