package screens

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/emilianohg/carbontrack/internal/leaderboard"
	"github.com/emilianohg/carbontrack/internal/repository"
)

const dashboardTop = 5

type Dashboard struct {
	deps   Deps
	width  int
	height int

	companies   []repository.CompanyWithStats
	standings   []leaderboard.Standing
	totalCarbon float64
	loading     bool
	err         error
}

func NewDashboard(deps Deps) *Dashboard {
	return &Dashboard{
		deps:    deps,
		loading: true,
	}
}

func (d *Dashboard) SetSize(width, height int) {
	d.width = width
	d.height = height
}

type dashboardDataMsg struct {
	companies []repository.CompanyWithStats
	standings []leaderboard.Standing
	err       error
}

func (d *Dashboard) Init() tea.Cmd {
	d.loading = true
	return d.loadData
}

func (d *Dashboard) loadData() tea.Msg {
	ctx := context.Background()

	companies, err := d.deps.Emissions.Companies(ctx)
	if err != nil {
		return dashboardDataMsg{err: err}
	}

	standings, err := d.deps.Board.Leaderboard(ctx)
	if err != nil {
		return dashboardDataMsg{err: err}
	}

	return dashboardDataMsg{companies: companies, standings: standings}
}

func (d *Dashboard) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case dashboardDataMsg:
		d.loading = false
		d.err = msg.err
		d.companies = msg.companies
		d.standings = msg.standings
		d.totalCarbon = 0
		for _, c := range d.companies {
			d.totalCarbon += c.TotalCarbon
		}
		return nil

	case RefreshMsg:
		return d.Init()

	case tea.KeyMsg:
		switch msg.String() {
		case "c":
			return Navigate("companies")
		case "l":
			return Navigate("leaderboard")
		case "j":
			return Navigate("jobs")
		}
	}

	return nil
}

func (d *Dashboard) View() string {
	var b strings.Builder

	b.WriteString(TitleStyle.Render("CARBONTRACK"))
	b.WriteString("\n")
	b.WriteString(SubtitleStyle.Render("Organizational carbon accounting"))
	b.WriteString("\n\n")

	if d.loading {
		b.WriteString("Loading...\n")
		return b.String()
	}

	if d.err != nil {
		b.WriteString(ErrorStyle.Render(fmt.Sprintf("Error: %v", d.err)))
		b.WriteString("\n")
		return b.String()
	}

	workers := 0
	for _, c := range d.companies {
		workers += c.WorkerCount
	}
	statsContent := fmt.Sprintf(
		"Companies: %d\nWorkers: %d\nTracked carbon: %s",
		len(d.companies),
		workers,
		formatCarbon(d.totalCarbon),
	)
	b.WriteString(BoxStyle.Render(statsContent))
	b.WriteString("\n\n")

	if len(d.standings) > 0 {
		b.WriteString(SubtitleStyle.Render("Top companies by points"))
		b.WriteString("\n")
		for i, s := range d.standings {
			if i == dashboardTop {
				break
			}
			b.WriteString(fmt.Sprintf("  %d. %s - %d pts, %s\n",
				s.Rank,
				NormalStyle.Render(s.Name),
				s.Points,
				formatCarbon(s.TotalCarbon),
			))
		}
	} else {
		b.WriteString(DimStyle.Render("No companies yet. Press 'c' to create one."))
	}

	b.WriteString("\n")

	help := "[c] Companies  [l] Leaderboard  [j] Jobs  [q] Quit"
	b.WriteString(HelpStyle.Render(help))

	return b.String()
}
