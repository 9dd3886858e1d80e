package screens

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/emilianohg/carbontrack/internal/carbon"
	"github.com/emilianohg/carbontrack/internal/leaderboard"
	"github.com/emilianohg/carbontrack/internal/scheduler"
)

// Deps are the services the screens read from and write through.
type Deps struct {
	Emissions *carbon.Service
	Board     *leaderboard.Analyzer
	Assigner  *scheduler.AutoAssigner
	Scorer    *scheduler.PointScorer
}

// NavigateMsg is sent when navigation to another screen is requested
type NavigateMsg struct {
	Screen    string
	CompanyID *int64
}

func Navigate(screen string) tea.Cmd {
	return func() tea.Msg {
		return NavigateMsg{Screen: screen}
	}
}

func NavigateWithCompany(screen string, companyID int64) tea.Cmd {
	return func() tea.Msg {
		return NavigateMsg{Screen: screen, CompanyID: &companyID}
	}
}

// RefreshMsg is sent when data should be refreshed
type RefreshMsg struct{}

func Refresh() tea.Cmd {
	return func() tea.Msg {
		return RefreshMsg{}
	}
}

func formatCarbon(v float64) string {
	switch {
	case v >= 1000:
		return fmt.Sprintf("%.2f tCO2e", v/1000)
	default:
		return fmt.Sprintf("%.2f kgCO2e", v)
	}
}

func companyName(ctx context.Context, svc *carbon.Service, id *int64) string {
	if id == nil {
		return ""
	}
	c, err := svc.Company(ctx, *id)
	if err != nil {
		return ""
	}
	return c.Name
}

// Styles
var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("34")).
			MarginBottom(1)

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			MarginBottom(1)

	HelpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			MarginTop(1)

	SelectedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("78"))

	NormalStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	DimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	SuccessStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	WarningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	ErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("29")).
			Padding(1, 2)

	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("250"))
)
