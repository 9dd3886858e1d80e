package screens

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/emilianohg/carbontrack/internal/ledger"
)

type Totals struct {
	deps   Deps
	width  int
	height int

	companyID *int64
	totals    *ledger.CompanyTotals
	stats     *ledger.Stats
	loading   bool
	err       error
}

func NewTotals(deps Deps) *Totals {
	return &Totals{deps: deps}
}

func (t *Totals) SetSize(width, height int) {
	t.width = width
	t.height = height
}

func (t *Totals) SetCompanyFilter(companyID *int64) {
	t.companyID = companyID
}

type totalsDataMsg struct {
	totals *ledger.CompanyTotals
	stats  *ledger.Stats
	err    error
}

func (t *Totals) Init() tea.Cmd {
	t.loading = true
	return t.loadData
}

func (t *Totals) loadData() tea.Msg {
	if t.companyID == nil {
		return totalsDataMsg{}
	}
	ctx := context.Background()
	totals, err := t.deps.Emissions.GetCompanyTotals(ctx, *t.companyID)
	if err != nil {
		return totalsDataMsg{err: err}
	}
	stats, err := t.deps.Emissions.Stats(ctx, *t.companyID)
	if err != nil {
		return totalsDataMsg{err: err}
	}
	return totalsDataMsg{totals: totals, stats: stats}
}

func (t *Totals) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case totalsDataMsg:
		t.loading = false
		t.err = msg.err
		t.totals = msg.totals
		t.stats = msg.stats
		return nil

	case RefreshMsg:
		return t.Init()

	case tea.KeyMsg:
		switch msg.String() {
		case "r":
			return t.Init()
		case "q", "esc":
			return Navigate("companies")
		}
	}
	return nil
}

func (t *Totals) View() string {
	var b strings.Builder

	title := "TOTALS"
	if t.totals != nil {
		title = fmt.Sprintf("TOTALS - %s", t.totals.Company.Name)
	}
	b.WriteString(TitleStyle.Render(title))
	b.WriteString("\n\n")

	if t.loading {
		b.WriteString("Loading...\n")
		return b.String()
	}

	if t.err != nil {
		b.WriteString(ErrorStyle.Render(fmt.Sprintf("Error: %v", t.err)))
		b.WriteString("\n\n")
		b.WriteString(HelpStyle.Render("[q] Back"))
		return b.String()
	}

	if t.totals == nil {
		b.WriteString(DimStyle.Render("No company selected."))
		b.WriteString("\n")
		return b.String()
	}

	b.WriteString(BoxStyle.Render(fmt.Sprintf(
		"Total carbon: %s\nPoints: %d",
		formatCarbon(t.totals.TotalCarbon),
		t.totals.Company.Points,
	)))
	b.WriteString("\n\n")

	if t.stats != nil {
		b.WriteString(SubtitleStyle.Render(fmt.Sprintf("This month (%s)", t.stats.Monthly.Start.Format("January 2006"))))
		b.WriteString("\n")
		if len(t.stats.Monthly.Items) == 0 {
			b.WriteString(DimStyle.Render("  nothing recorded"))
			b.WriteString("\n")
		}
		for _, item := range t.stats.Monthly.Items {
			b.WriteString(fmt.Sprintf("  %-20s %s\n", item.Category, formatCarbon(item.Total)))
		}
		b.WriteString("\n")
	}

	b.WriteString(SubtitleStyle.Render(fmt.Sprintf("Breakdown %d", t.totals.Year)))
	b.WriteString("\n")
	b.WriteString(HeaderStyle.Render(fmt.Sprintf("  %-5s %12s %12s %12s %12s %12s %12s",
		"Month", "Electricity", "Natural gas", "Vehicles", "Waste", "Other", "Total")))
	b.WriteString("\n")
	for _, m := range t.totals.Yearly {
		line := fmt.Sprintf("  %-5s %12.2f %12.2f %12.2f %12.2f %12.2f %12.2f",
			time.Month(m.Month).String()[:3],
			m.Electricity, m.NaturalGas, m.Vehicles, m.Waste, m.Other, m.Total)
		if m.Total == 0 {
			b.WriteString(DimStyle.Render(line))
		} else {
			b.WriteString(NormalStyle.Render(line))
		}
		b.WriteString("\n")
	}

	if len(t.totals.Monthly) > 0 {
		b.WriteString("\n")
		b.WriteString(SubtitleStyle.Render("Monthly snapshots"))
		b.WriteString("\n")
		for _, s := range t.totals.Monthly {
			b.WriteString(fmt.Sprintf("  %s  %s\n", s.Month.Format("2006-01"), formatCarbon(s.TotalCarbon)))
		}
	}

	b.WriteString(HelpStyle.Render("[r] Refresh  [q] Back"))
	return b.String()
}
