package screens

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/emilianohg/carbontrack/internal/leaderboard"
)

type leaderboardTab int

const (
	tabPoints leaderboardTab = iota
	tabAnalysis
	tabMonthly
)

var leaderboardTabLabels = []string{"Points", "Footprint", "This month"}

type Leaderboard struct {
	deps   Deps
	width  int
	height int

	tab       leaderboardTab
	standings []leaderboard.Standing
	analysis  []leaderboard.Analysis
	monthly   []leaderboard.MonthlyStat
	loading   bool
	err       error
}

func NewLeaderboard(deps Deps) *Leaderboard {
	return &Leaderboard{deps: deps}
}

func (l *Leaderboard) SetSize(width, height int) {
	l.width = width
	l.height = height
}

type leaderboardDataMsg struct {
	standings []leaderboard.Standing
	analysis  []leaderboard.Analysis
	monthly   []leaderboard.MonthlyStat
	err       error
}

func (l *Leaderboard) Init() tea.Cmd {
	l.loading = true
	return l.loadData
}

func (l *Leaderboard) loadData() tea.Msg {
	ctx := context.Background()
	standings, err := l.deps.Board.Leaderboard(ctx)
	if err != nil {
		return leaderboardDataMsg{err: err}
	}
	analysis, err := l.deps.Board.Analysis(ctx)
	if err != nil {
		return leaderboardDataMsg{err: err}
	}
	monthly, err := l.deps.Board.MonthlyStats(ctx)
	if err != nil {
		return leaderboardDataMsg{err: err}
	}
	return leaderboardDataMsg{standings: standings, analysis: analysis, monthly: monthly}
}

func (l *Leaderboard) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case leaderboardDataMsg:
		l.loading = false
		l.err = msg.err
		l.standings = msg.standings
		l.analysis = msg.analysis
		l.monthly = msg.monthly
		return nil

	case RefreshMsg:
		return l.Init()

	case tea.KeyMsg:
		switch msg.String() {
		case "tab", "right", "l":
			l.tab = (l.tab + 1) % leaderboardTab(len(leaderboardTabLabels))
		case "shift+tab", "left", "h":
			l.tab = (l.tab + leaderboardTab(len(leaderboardTabLabels)) - 1) % leaderboardTab(len(leaderboardTabLabels))
		case "r":
			return l.Init()
		case "q", "esc":
			return Navigate("dashboard")
		}
	}
	return nil
}

func (l *Leaderboard) View() string {
	var b strings.Builder

	b.WriteString(TitleStyle.Render("LEADERBOARD"))
	b.WriteString("\n\n")

	var tabs []string
	for i, label := range leaderboardTabLabels {
		if leaderboardTab(i) == l.tab {
			tabs = append(tabs, SelectedStyle.Render("["+label+"]"))
		} else {
			tabs = append(tabs, DimStyle.Render(" "+label+" "))
		}
	}
	b.WriteString(strings.Join(tabs, "  "))
	b.WriteString("\n\n")

	if l.loading {
		b.WriteString("Loading...\n")
		return b.String()
	}

	if l.err != nil {
		b.WriteString(ErrorStyle.Render(fmt.Sprintf("Error: %v", l.err)))
		b.WriteString("\n\n")
		b.WriteString(HelpStyle.Render("[r] Retry  [q] Back"))
		return b.String()
	}

	switch l.tab {
	case tabPoints:
		l.viewPoints(&b)
	case tabAnalysis:
		l.viewAnalysis(&b)
	case tabMonthly:
		l.viewMonthly(&b)
	}

	b.WriteString(HelpStyle.Render("[tab] Switch view  [r] Refresh  [q] Back"))
	return b.String()
}

func (l *Leaderboard) viewPoints(b *strings.Builder) {
	if len(l.standings) == 0 {
		b.WriteString(DimStyle.Render("No companies yet."))
		b.WriteString("\n")
		return
	}
	b.WriteString(HeaderStyle.Render(fmt.Sprintf("  %-4s %-28s %8s %16s", "#", "Company", "Points", "Carbon")))
	b.WriteString("\n")
	for _, s := range l.standings {
		b.WriteString(fmt.Sprintf("  %-4d %-28s %8d %16s\n", s.Rank, s.Name, s.Points, formatCarbon(s.TotalCarbon)))
	}
}

func (l *Leaderboard) viewAnalysis(b *strings.Builder) {
	if len(l.analysis) == 0 {
		b.WriteString(DimStyle.Render("No emissions recorded yet."))
		b.WriteString("\n")
		return
	}
	b.WriteString(HeaderStyle.Render(fmt.Sprintf("  %-4s %-28s %14s %14s %14s", "#", "Company", "Total", "Org", "Weighted")))
	b.WriteString("\n")
	for _, a := range l.analysis {
		b.WriteString(fmt.Sprintf("  %-4d %-28s %14.2f %14.2f %14.2f\n", a.Rank, a.Name, a.TotalCarbon, a.OrgExpense, a.Weighted))
	}
}

func (l *Leaderboard) viewMonthly(b *strings.Builder) {
	if len(l.monthly) == 0 {
		b.WriteString(DimStyle.Render("No companies yet."))
		b.WriteString("\n")
		return
	}
	b.WriteString(HeaderStyle.Render(fmt.Sprintf("  %-28s %12s %12s %12s %9s", "Company", "This month", "Last month", "Avg/month", "Change")))
	b.WriteString("\n")
	for _, m := range l.monthly {
		change := fmt.Sprintf("%+.1f%%", m.LastMonthChange)
		switch {
		case m.LastMonthChange < 0:
			change = SuccessStyle.Render(change)
		case m.LastMonthChange > 0:
			change = WarningStyle.Render(change)
		}
		b.WriteString(fmt.Sprintf("  %-28s %12.2f %12.2f %12.2f %9s\n", m.Name, m.CurrentMonth, m.PreviousMonth, m.MonthlyAverage, change))
	}
}
