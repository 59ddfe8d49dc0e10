package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ansonwcy/ccusage-overlay/internal/domain"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	valueStyle  = lipgloss.NewStyle().Bold(true)
	upStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	downStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
	activeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Bold(true)
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	barStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
)

// bundleMsg carries a fresh summary bundle from the data service.
type bundleMsg struct{ bundle *domain.Bundle }

// Dashboard is a single-view TUI over the data service's bundle stream.
type Dashboard struct {
	updates <-chan *domain.Bundle
	cancel  func()
	bundle  *domain.Bundle
	width   int
	height  int
}

// NewDashboard wires a dashboard to a subscription channel. cancel is called
// on quit.
func NewDashboard(updates <-chan *domain.Bundle, cancel func()) Dashboard {
	return Dashboard{updates: updates, cancel: cancel}
}

func (d Dashboard) Init() tea.Cmd {
	return tea.Batch(tea.SetWindowTitle("ccusage-overlay"), d.waitForBundle)
}

func (d Dashboard) waitForBundle() tea.Msg {
	b, ok := <-d.updates
	if !ok {
		return nil
	}
	return bundleMsg{bundle: b}
}

func (d Dashboard) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			if d.cancel != nil {
				d.cancel()
			}
			return d, tea.Quit
		}
	case tea.WindowSizeMsg:
		d.width = msg.Width
		d.height = msg.Height
	case bundleMsg:
		d.bundle = msg.bundle
		return d, d.waitForBundle
	}
	return d, nil
}

func (d Dashboard) View() string {
	if d.bundle == nil {
		return labelStyle.Render("\n  waiting for first aggregation...")
	}
	b := d.bundle

	var sb strings.Builder
	sb.WriteString(titleStyle.Render("ccusage-overlay"))
	sb.WriteString("\n\n")
	sb.WriteString(d.renderTotals(b))
	sb.WriteString("\n")
	sb.WriteString(d.renderHourly(b))
	sb.WriteString("\n")
	sb.WriteString(d.renderDaily(b))
	sb.WriteString("\n")
	sb.WriteString(d.renderSessions(b))
	sb.WriteString("\n")
	sb.WriteString(dimStyle.Render("q: quit"))
	return sb.String()
}

func (d Dashboard) renderTotals(b *domain.Bundle) string {
	today := "-"
	if b.Today != nil {
		today = fmt.Sprintf("$%.2f", b.Today.Cost)
	}
	parts := []string{
		labelStyle.Render("today ") + valueStyle.Render(today),
		labelStyle.Render("session ") + activeStyle.Render(fmt.Sprintf("$%.2f", b.RunningSessionCost)),
		labelStyle.Render("week ") + valueStyle.Render(fmt.Sprintf("$%.2f", b.ThisWeek.Cost)),
		labelStyle.Render("month ") + valueStyle.Render(fmt.Sprintf("$%.2f", b.ThisMonth.Cost)),
	}
	return "  " + strings.Join(parts, "   ") + "\n"
}

// renderHourly draws the trailing window as a one-row bar chart.
func (d Dashboard) renderHourly(b *domain.Bundle) string {
	if len(b.Hourly) == 0 {
		return ""
	}
	var peak float64
	for _, h := range b.Hourly {
		if h.Cost > peak {
			peak = h.Cost
		}
	}

	levels := []rune(" ▁▂▃▄▅▆▇█")
	var bars strings.Builder
	for _, h := range b.Hourly {
		idx := 0
		if peak > 0 {
			idx = int(h.Cost / peak * float64(len(levels)-1))
		}
		bars.WriteRune(levels[idx])
	}
	first := b.Hourly[0].Label
	last := b.Hourly[len(b.Hourly)-1].Label
	return "  " + labelStyle.Render(first) + " " + barStyle.Render(bars.String()) + " " + labelStyle.Render(last) + "\n"
}

func (d Dashboard) renderDaily(b *domain.Bundle) string {
	var sb strings.Builder
	sb.WriteString("  " + titleStyle.Render("Daily") + "\n")
	limit := 7
	if len(b.Daily) < limit {
		limit = len(b.Daily)
	}
	for _, day := range b.Daily[:limit] {
		change := dimStyle.Render("      ")
		if day.PercentChange != nil {
			pct := *day.PercentChange
			s := fmt.Sprintf("%+6.1f%%", pct)
			if pct >= 0 {
				change = upStyle.Render(s)
			} else {
				change = downStyle.Render(s)
			}
		}
		sb.WriteString(fmt.Sprintf("  %s  $%8.2f  %6d calls  %s\n",
			labelStyle.Render(day.Date), day.Cost, day.EntryCount, change))
	}
	if limit == 0 {
		sb.WriteString(dimStyle.Render("  no usage recorded\n"))
	}
	return sb.String()
}

func (d Dashboard) renderSessions(b *domain.Bundle) string {
	var sb strings.Builder
	sb.WriteString("  " + titleStyle.Render("Sessions") + "\n")
	limit := 5
	if len(b.RecentSessions) < limit {
		limit = len(b.RecentSessions)
	}
	for _, s := range b.RecentSessions[:limit] {
		marker := " "
		if s.IsOngoing {
			marker = activeStyle.Render("●")
		}
		sb.WriteString(fmt.Sprintf("  %s %s - %s  $%.2f  (%dh)\n",
			marker,
			labelStyle.Render(s.StartHour.Format("Jan 02 15:00")),
			labelStyle.Render(s.EndHour.Format("15:00")),
			s.TotalCost,
			len(s.Hours)))
	}
	if limit == 0 {
		sb.WriteString(dimStyle.Render("  no sessions in window\n"))
	}
	return sb.String()
}
