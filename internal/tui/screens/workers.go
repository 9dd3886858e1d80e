package screens

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/emilianohg/carbontrack/internal/models"
)

type workersMode int

const (
	workersModeList workersMode = iota
	workersModeName
	workersModeDepartment
	workersModeDelete
)

type Workers struct {
	deps   Deps
	width  int
	height int

	workers   []models.Worker
	companyID *int64
	company   string
	cursor    int
	mode      workersMode
	editing   *models.Worker // nil while adding
	name      string
	input     textinput.Model
	loading   bool
	err       error
	message   string
}

func NewWorkers(deps Deps) *Workers {
	ti := textinput.New()
	ti.CharLimit = 100
	ti.Width = 40

	return &Workers{
		deps:  deps,
		input: ti,
	}
}

func (w *Workers) SetSize(width, height int) {
	w.width = width
	w.height = height
}

func (w *Workers) SetCompanyFilter(companyID *int64) {
	w.companyID = companyID
	w.cursor = 0
}

type workersDataMsg struct {
	workers []models.Worker
	company string
	err     error
}

func (w *Workers) Init() tea.Cmd {
	w.loading = true
	w.mode = workersModeList
	w.message = ""
	return w.loadData
}

func (w *Workers) loadData() tea.Msg {
	if w.companyID == nil {
		return workersDataMsg{}
	}
	ctx := context.Background()
	workers, err := w.deps.Emissions.Workers(ctx, *w.companyID)
	if err != nil {
		return workersDataMsg{err: err}
	}
	return workersDataMsg{workers: workers, company: companyName(ctx, w.deps.Emissions, w.companyID)}
}

func (w *Workers) Update(msg tea.Msg) tea.Cmd {
	// In input mode, pass messages to text input first
	if w.mode == workersModeName || w.mode == workersModeDepartment {
		if keyMsg, ok := msg.(tea.KeyMsg); ok {
			switch keyMsg.String() {
			case "enter":
				return w.handleInputKey()
			case "esc":
				w.mode = workersModeList
				w.input.Blur()
				return nil
			}
		}
		var cmd tea.Cmd
		w.input, cmd = w.input.Update(msg)
		return cmd
	}

	switch msg := msg.(type) {
	case workersDataMsg:
		w.loading = false
		w.err = msg.err
		w.workers = msg.workers
		w.company = msg.company
		if w.cursor >= len(w.workers) {
			w.cursor = max(0, len(w.workers)-1)
		}
		return nil

	case RefreshMsg:
		return w.Init()

	case tea.KeyMsg:
		return w.handleKey(msg)
	}
	return nil
}

func (w *Workers) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch w.mode {
	case workersModeList:
		return w.handleListKey(msg)
	case workersModeDelete:
		return w.handleDeleteKey(msg)
	}
	return nil
}

func (w *Workers) startInput(worker *models.Worker) tea.Cmd {
	w.editing = worker
	w.mode = workersModeName
	w.input.Placeholder = "Worker name"
	w.input.SetValue("")
	if worker != nil {
		w.input.SetValue(worker.Name)
	}
	w.input.Focus()
	return textinput.Blink
}

func (w *Workers) handleListKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "up", "k":
		if w.cursor > 0 {
			w.cursor--
		}
	case "down", "j":
		if w.cursor < len(w.workers)-1 {
			w.cursor++
		}
	case "a":
		if w.companyID != nil {
			return w.startInput(nil)
		}
	case "e":
		if len(w.workers) > 0 {
			worker := w.workers[w.cursor]
			return w.startInput(&worker)
		}
	case "d":
		if len(w.workers) > 0 {
			w.mode = workersModeDelete
		}
	case "q", "esc":
		return Navigate("companies")
	}
	return nil
}

func (w *Workers) handleInputKey() tea.Cmd {
	value := strings.TrimSpace(w.input.Value())
	if value == "" {
		w.mode = workersModeList
		w.input.Blur()
		return nil
	}

	if w.mode == workersModeName {
		w.name = value
		w.mode = workersModeDepartment
		w.input.Placeholder = "Department"
		w.input.SetValue("")
		if w.editing != nil {
			w.input.SetValue(w.editing.Department)
		}
		return nil
	}

	ctx := context.Background()
	if w.editing == nil {
		if _, err := w.deps.Emissions.CreateWorker(ctx, *w.companyID, w.name, value); err != nil {
			w.err = err
		} else {
			w.message = fmt.Sprintf("Added worker: %s", w.name)
		}
	} else {
		if err := w.deps.Emissions.UpdateWorker(ctx, *w.companyID, w.editing.ID, w.name, value); err != nil {
			w.err = err
		} else {
			w.message = fmt.Sprintf("Updated worker: %s", w.name)
		}
	}
	w.mode = workersModeList
	w.input.Blur()
	return w.loadData
}

func (w *Workers) handleDeleteKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "y", "Y":
		worker := w.workers[w.cursor]
		if err := w.deps.Emissions.DeleteWorker(context.Background(), *w.companyID, worker.ID); err != nil {
			w.err = err
		} else {
			w.message = fmt.Sprintf("Deleted worker: %s", worker.Name)
		}
		w.mode = workersModeList
		return w.loadData

	case "n", "N", "esc":
		w.mode = workersModeList
	}
	return nil
}

func (w *Workers) View() string {
	var b strings.Builder

	title := "WORKERS"
	if w.company != "" {
		title = fmt.Sprintf("WORKERS - %s", w.company)
	}
	b.WriteString(TitleStyle.Render(title))
	b.WriteString("\n\n")

	if w.loading {
		b.WriteString("Loading...\n")
		return b.String()
	}

	if w.err != nil {
		b.WriteString(ErrorStyle.Render(fmt.Sprintf("Error: %v", w.err)))
		b.WriteString("\n\n")
		w.err = nil
	}

	if w.message != "" {
		b.WriteString(SuccessStyle.Render(w.message))
		b.WriteString("\n\n")
	}

	switch w.mode {
	case workersModeName, workersModeDepartment:
		label := "Worker name:"
		if w.mode == workersModeDepartment {
			label = fmt.Sprintf("Department for %s:", w.name)
		}
		b.WriteString(label + "\n")
		b.WriteString(w.input.View())
		b.WriteString("\n\n")
		b.WriteString(HelpStyle.Render("[enter] Next  [esc] Cancel"))
		return b.String()

	case workersModeDelete:
		if len(w.workers) > 0 {
			b.WriteString(WarningStyle.Render(fmt.Sprintf(
				"Delete worker '%s'? Their emissions stay on the company. (y/n)",
				w.workers[w.cursor].Name,
			)))
			b.WriteString("\n")
			return b.String()
		}
	}

	if len(w.workers) == 0 {
		b.WriteString(DimStyle.Render("No workers yet."))
		b.WriteString("\n\n")
	} else {
		for i, worker := range w.workers {
			cursor := "  "
			style := NormalStyle
			if i == w.cursor {
				cursor = "> "
				style = SelectedStyle
			}
			line := fmt.Sprintf("%s%s %s", cursor, worker.Name, DimStyle.Render("("+worker.Department+")"))
			b.WriteString(style.Render(line))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	help := "[a] Add  [e] Edit  [d] Delete  [q] Back"
	b.WriteString(HelpStyle.Render(help))

	return b.String()
}
