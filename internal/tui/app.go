package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/emilianohg/carbontrack/internal/tui/screens"
)

type Screen int

const (
	ScreenDashboard Screen = iota
	ScreenCompanies
	ScreenWorkers
	ScreenEmissions
	ScreenTotals
	ScreenLeaderboard
	ScreenJobs
)

// screen is implemented by every model under screens.
type screen interface {
	Init() tea.Cmd
	Update(msg tea.Msg) tea.Cmd
	View() string
	SetSize(width, height int)
}

type App struct {
	deps          screens.Deps
	currentScreen Screen
	width         int
	height        int

	// Screen models
	dashboard   *screens.Dashboard
	companies   *screens.Companies
	workers     *screens.Workers
	emissions   *screens.Emissions
	totals      *screens.Totals
	leaderboard *screens.Leaderboard
	jobs        *screens.Jobs

	// Navigation context
	selectedCompanyID *int64
}

func NewApp(deps screens.Deps) *App {
	return &App{
		deps:          deps,
		currentScreen: ScreenDashboard,
	}
}

func (a *App) Init() tea.Cmd {
	a.dashboard = screens.NewDashboard(a.deps)
	a.companies = screens.NewCompanies(a.deps)
	a.workers = screens.NewWorkers(a.deps)
	a.emissions = screens.NewEmissions(a.deps)
	a.totals = screens.NewTotals(a.deps)
	a.leaderboard = screens.NewLeaderboard(a.deps)
	a.jobs = screens.NewJobs(a.deps)

	return a.dashboard.Init()
}

func (a *App) models() map[Screen]screen {
	return map[Screen]screen{
		ScreenDashboard:   a.dashboard,
		ScreenCompanies:   a.companies,
		ScreenWorkers:     a.workers,
		ScreenEmissions:   a.emissions,
		ScreenTotals:      a.totals,
		ScreenLeaderboard: a.leaderboard,
		ScreenJobs:        a.jobs,
	}
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return a, tea.Quit
		case "q":
			if a.currentScreen == ScreenDashboard {
				return a, tea.Quit
			}
			// Let individual screens handle 'q' for going back
		}

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		for _, s := range a.models() {
			s.SetSize(msg.Width, msg.Height)
		}

	case screens.NavigateMsg:
		return a.handleNavigation(msg)
	}

	return a, a.models()[a.currentScreen].Update(msg)
}

func (a *App) handleNavigation(msg screens.NavigateMsg) (tea.Model, tea.Cmd) {
	if msg.CompanyID != nil {
		a.selectedCompanyID = msg.CompanyID
	}

	switch msg.Screen {
	case "dashboard":
		a.currentScreen = ScreenDashboard
		a.selectedCompanyID = nil
		return a, a.dashboard.Init()
	case "companies":
		a.currentScreen = ScreenCompanies
		return a, a.companies.Init()
	case "workers":
		a.currentScreen = ScreenWorkers
		a.workers.SetCompanyFilter(a.selectedCompanyID)
		return a, a.workers.Init()
	case "emissions":
		a.currentScreen = ScreenEmissions
		a.emissions.SetCompanyFilter(a.selectedCompanyID)
		return a, a.emissions.Init()
	case "totals":
		a.currentScreen = ScreenTotals
		a.totals.SetCompanyFilter(a.selectedCompanyID)
		return a, a.totals.Init()
	case "leaderboard":
		a.currentScreen = ScreenLeaderboard
		return a, a.leaderboard.Init()
	case "jobs":
		a.currentScreen = ScreenJobs
		return a, a.jobs.Init()
	}
	return a, nil
}

func (a *App) View() string {
	content := a.models()[a.currentScreen].View()

	return lipgloss.NewStyle().
		Width(a.width).
		Height(a.height).
		Render(content)
}

func Run(deps screens.Deps) error {
	app := NewApp(deps)
	p := tea.NewProgram(app, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
