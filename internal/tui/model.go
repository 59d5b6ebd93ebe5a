// Package tui provides the Bubble Tea counter screen.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/cartrack/internal/model"
	"github.com/verte-zerg/cartrack/internal/session"
	statsPkg "github.com/verte-zerg/cartrack/internal/stats"
)

// Model implements the Bubble Tea counter screen. It renders the tracker of
// the session it is given and never owns counter state itself.
type Model struct {
	session *session.Session
	keys    keyMap
	help    help.Model

	lastSession model.SessionRecord
	hasLast     bool

	width  int
	height int

	countText   string
	minutesText string
	rateText    string

	unsubscribe []func()
}

var (
	titleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
	countStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true).Padding(0, 2)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
	cardStyle   = lipgloss.NewStyle().Padding(0, 1).Border(lipgloss.RoundedBorder(), true).BorderForeground(lipgloss.Color("#4A4A4A"))
	footerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
)

const maxLabelCols = 40

// NewModel constructs a counter screen bound to s. last is the previous
// archived session for the same label, shown in the footer when hasLast is set.
func NewModel(s *session.Session, last model.SessionRecord, hasLast bool) *Model {
	m := &Model{
		session:     s,
		keys:        defaultKeyMap(),
		help:        help.New(),
		lastSession: last,
		hasLast:     hasLast,
	}
	m.bind()
	return m
}

func (m *Model) bind() {
	t := m.session.Tracker()
	m.countText = fmt.Sprintf("%d", t.Count())
	m.minutesText = fmt.Sprintf("%d", t.MinutesElapsed())
	m.rateText = statsPkg.FormatRate(t.RatePerMinute())

	m.unsubscribe = append(m.unsubscribe,
		t.CountValue().Subscribe(func(n int) {
			m.countText = fmt.Sprintf("%d", n)
		}),
		t.MinutesValue().Subscribe(func(n int) {
			m.minutesText = fmt.Sprintf("%d", n)
		}),
		t.RateValue().Subscribe(func(r float64) {
			m.rateText = statsPkg.FormatRate(r)
		}),
	)
}

// Close releases the tracker subscriptions. The session stays open.
func (m *Model) Close() {
	for _, fn := range m.unsubscribe {
		fn()
	}
	m.unsubscribe = nil
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
		m.help.Width = msg.Width
		return m, nil
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.Close()
			return m, tea.Quit
		case key.Matches(msg, m.keys.Add):
			m.session.Tracker().Increment()
			return m, nil
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
			return m, nil
		default:
			return m, nil
		}
	default:
		return m, nil
	}
}

// View implements tea.Model.
func (m *Model) View() string {
	title := m.session.Label()
	if title == "" {
		title = "Car Tracker"
	}
	title = runewidth.Truncate(title, maxLabelCols, "…")

	stats := lipgloss.JoinHorizontal(lipgloss.Top,
		m.renderCard("Minutes elapsed", m.minutesText),
		" ",
		m.renderCard("Cars/min", m.rateText),
	)
	content := lipgloss.JoinVertical(lipgloss.Center,
		titleStyle.Render(title),
		"",
		labelStyle.Render("Total cars"),
		countStyle.Render(m.countText),
		"",
		stats,
	)
	footer := m.renderFooter()
	helpView := m.help.View(m.keys)
	if m.width == 0 || m.height == 0 {
		return strings.Join([]string{content, footer, helpView}, "\n")
	}
	if m.height < 8 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
	}
	bottom := lipgloss.JoinVertical(lipgloss.Center, footer, helpView)
	bodyHeight := m.height - lipgloss.Height(bottom)
	body := lipgloss.Place(m.width, bodyHeight, lipgloss.Center, lipgloss.Center, content)
	bottomLines := lipgloss.Place(m.width, lipgloss.Height(bottom), lipgloss.Center, lipgloss.Bottom, bottom)
	return body + "\n" + bottomLines
}

func (m *Model) renderCard(title, value string) string {
	return cardStyle.Render(lipgloss.JoinVertical(lipgloss.Center,
		labelStyle.Render(title),
		valueStyle.Render(value),
	))
}

func (m *Model) renderFooter() string {
	segments := []string{}
	if t := m.session.Tracker(); t.Started() {
		first, _ := t.FirstEventAt()
		segments = append(segments, "First car "+first.Local().Format("15:04:05"))
	}
	if m.hasLast {
		segments = append(segments, fmt.Sprintf("Last session %d cars · %s/min", m.lastSession.Count, statsPkg.FormatRate(m.lastSession.RatePerMinute)))
	}
	if len(segments) == 0 {
		return ""
	}
	return footerStyle.Render(strings.Join(segments, "  "))
}
