package screens

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/emilianohg/carbontrack/internal/scheduler"
)

type jobsMode int

const (
	jobsModeSelect jobsMode = iota
	jobsModeConfirm
	jobsModeRunning
	jobsModeComplete
)

type jobKind int

const (
	jobAssign jobKind = iota
	jobPoints
)

var jobLabels = []string{
	"Monthly auto-assignment (per-worker emissions)",
	"Point scoring (month over month)",
}

type Jobs struct {
	deps   Deps
	width  int
	height int

	mode     jobsMode
	cursor   int
	selected jobKind
	assigned *scheduler.AssignResult
	scored   []scheduler.PointChange
	err      error
}

func NewJobs(deps Deps) *Jobs {
	return &Jobs{deps: deps}
}

func (j *Jobs) SetSize(width, height int) {
	j.width = width
	j.height = height
}

type jobCompleteMsg struct {
	assigned *scheduler.AssignResult
	scored   []scheduler.PointChange
	err      error
}

func (j *Jobs) Init() tea.Cmd {
	j.mode = jobsModeSelect
	j.err = nil
	j.assigned = nil
	j.scored = nil
	return nil
}

func (j *Jobs) runJob() tea.Msg {
	ctx := context.Background()
	switch j.selected {
	case jobAssign:
		result, err := j.deps.Assigner.Assign(ctx)
		return jobCompleteMsg{assigned: result, err: err}
	default:
		changes, err := j.deps.Scorer.Score(ctx)
		return jobCompleteMsg{scored: changes, err: err}
	}
}

func (j *Jobs) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case jobCompleteMsg:
		j.assigned = msg.assigned
		j.scored = msg.scored
		j.err = msg.err
		j.mode = jobsModeComplete
		return nil

	case RefreshMsg:
		return j.Init()

	case tea.KeyMsg:
		switch j.mode {
		case jobsModeSelect:
			return j.handleSelectKey(msg)
		case jobsModeConfirm:
			return j.handleConfirmKey(msg)
		case jobsModeComplete:
			return j.handleCompleteKey(msg)
		}
	}
	return nil
}

func (j *Jobs) handleSelectKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "up", "k":
		if j.cursor > 0 {
			j.cursor--
		}
	case "down", "j":
		if j.cursor < len(jobLabels)-1 {
			j.cursor++
		}
	case "enter":
		j.selected = jobKind(j.cursor)
		j.mode = jobsModeConfirm
	case "q", "esc":
		return Navigate("dashboard")
	}
	return nil
}

func (j *Jobs) handleConfirmKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "enter", "y":
		j.mode = jobsModeRunning
		return j.runJob
	case "esc", "n":
		j.mode = jobsModeSelect
	case "q":
		return Navigate("dashboard")
	}
	return nil
}

func (j *Jobs) handleCompleteKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "enter":
		return j.Init()
	case "q", "esc":
		return Navigate("dashboard")
	}
	return nil
}

func (j *Jobs) View() string {
	var b strings.Builder

	b.WriteString(TitleStyle.Render("SCHEDULED JOBS"))
	b.WriteString("\n\n")

	switch j.mode {
	case jobsModeSelect:
		b.WriteString("Run a job now:\n\n")
		for i, label := range jobLabels {
			cursor := "  "
			style := NormalStyle
			if i == j.cursor {
				cursor = "> "
				style = SelectedStyle
			}
			b.WriteString(style.Render(cursor + label))
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(DimStyle.Render("Jobs also run on their configured day while 'carbontrack serve' is up."))
		b.WriteString("\n")
		b.WriteString(HelpStyle.Render("[enter] Select  [q] Back"))

	case jobsModeConfirm:
		b.WriteString(fmt.Sprintf("Run %s now?\n", jobLabels[j.selected]))
		if j.selected == jobAssign {
			b.WriteString(WarningStyle.Render("This adds a new batch of emissions for every company with workers."))
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(HelpStyle.Render("[y/enter] Run  [n/esc] Cancel"))

	case jobsModeRunning:
		b.WriteString("Running...\n")

	case jobsModeComplete:
		if j.err != nil {
			b.WriteString(ErrorStyle.Render(fmt.Sprintf("Error: %v", j.err)))
			b.WriteString("\n\n")
		} else {
			b.WriteString(SuccessStyle.Render("Job complete!"))
			b.WriteString("\n\n")
		}
		if j.assigned != nil {
			b.WriteString(fmt.Sprintf("Batch %s\n", DimStyle.Render(j.assigned.BatchID)))
			b.WriteString(fmt.Sprintf("Companies: %d\nEmissions created: %d\nCarbon added: %s\n",
				j.assigned.Companies, j.assigned.Rows, formatCarbon(j.assigned.Carbon)))
		}
		for _, c := range j.scored {
			b.WriteString(fmt.Sprintf("  %-28s %+4d -> %d pts\n", c.Name, c.Delta, c.Points))
		}
		b.WriteString(HelpStyle.Render("[enter] Run another  [q] Back"))
	}

	return b.String()
}
