package screens

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/emilianohg/carbontrack/internal/carbon"
	"github.com/emilianohg/carbontrack/internal/models"
)

type emissionsMode int

const (
	emissionsModeList emissionsMode = iota
	emissionsModePickFactor
	emissionsModeAmount
	emissionsModeUpdate
	emissionsModeDelete
)

type Emissions struct {
	deps   Deps
	width  int
	height int

	companyID    *int64
	company      string
	emissions    []models.Emission
	factors      []models.EmissionFactor
	scope        models.Scope
	cursor       int
	factorCursor int
	mode         emissionsMode
	input        textinput.Model
	loading      bool
	err          error
	message      string
}

func NewEmissions(deps Deps) *Emissions {
	ti := textinput.New()
	ti.Placeholder = "Amount"
	ti.CharLimit = 20
	ti.Width = 20

	return &Emissions{
		deps:  deps,
		input: ti,
		scope: models.ScopeOrg,
	}
}

func (e *Emissions) SetSize(width, height int) {
	e.width = width
	e.height = height
}

func (e *Emissions) SetCompanyFilter(companyID *int64) {
	e.companyID = companyID
	e.cursor = 0
}

type emissionsDataMsg struct {
	emissions []models.Emission
	company   string
	err       error
}

func (e *Emissions) Init() tea.Cmd {
	e.loading = true
	e.mode = emissionsModeList
	e.message = ""
	return e.loadData
}

func (e *Emissions) loadData() tea.Msg {
	if e.companyID == nil {
		return emissionsDataMsg{}
	}
	ctx := context.Background()
	emissions, err := e.deps.Emissions.ListEmissions(ctx, *e.companyID)
	if err != nil {
		return emissionsDataMsg{err: err}
	}
	return emissionsDataMsg{emissions: emissions, company: companyName(ctx, e.deps.Emissions, e.companyID)}
}

func (e *Emissions) loadFactors() {
	factors, err := e.deps.Emissions.Factors(e.scope)
	e.err = err
	e.factors = factors
	e.factorCursor = 0
}

func (e *Emissions) Update(msg tea.Msg) tea.Cmd {
	if e.mode == emissionsModeAmount || e.mode == emissionsModeUpdate {
		if keyMsg, ok := msg.(tea.KeyMsg); ok {
			switch keyMsg.String() {
			case "enter":
				return e.handleAmount()
			case "esc":
				e.mode = emissionsModeList
				e.input.Blur()
				return nil
			}
		}
		var cmd tea.Cmd
		e.input, cmd = e.input.Update(msg)
		return cmd
	}

	switch msg := msg.(type) {
	case emissionsDataMsg:
		e.loading = false
		e.err = msg.err
		e.emissions = msg.emissions
		e.company = msg.company
		if e.cursor >= len(e.emissions) {
			e.cursor = max(0, len(e.emissions)-1)
		}
		return nil

	case RefreshMsg:
		return e.Init()

	case tea.KeyMsg:
		switch e.mode {
		case emissionsModeList:
			return e.handleListKey(msg)
		case emissionsModePickFactor:
			return e.handlePickKey(msg)
		case emissionsModeDelete:
			return e.handleDeleteKey(msg)
		}
	}
	return nil
}

func (e *Emissions) handleListKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "up", "k":
		if e.cursor > 0 {
			e.cursor--
		}
	case "down", "j":
		if e.cursor < len(e.emissions)-1 {
			e.cursor++
		}
	case "a":
		if e.companyID != nil {
			e.mode = emissionsModePickFactor
			e.loadFactors()
		}
	case "u":
		if len(e.emissions) > 0 {
			e.mode = emissionsModeUpdate
			e.input.SetValue(strconv.FormatFloat(e.emissions[e.cursor].Amount, 'f', -1, 64))
			e.input.Focus()
			return textinput.Blink
		}
	case "d":
		if len(e.emissions) > 0 {
			e.mode = emissionsModeDelete
		}
	case "q", "esc":
		return Navigate("companies")
	}
	return nil
}

func (e *Emissions) handlePickKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "up", "k":
		if e.factorCursor > 0 {
			e.factorCursor--
		}
	case "down", "j":
		if e.factorCursor < len(e.factors)-1 {
			e.factorCursor++
		}
	case "tab":
		if e.scope == models.ScopeOrg {
			e.scope = models.ScopeWorker
		} else {
			e.scope = models.ScopeOrg
		}
		e.loadFactors()
	case "enter":
		if len(e.factors) > 0 {
			e.mode = emissionsModeAmount
			e.input.SetValue("")
			e.input.Focus()
			return textinput.Blink
		}
	case "esc", "q":
		e.mode = emissionsModeList
	}
	return nil
}

func (e *Emissions) handleAmount() tea.Cmd {
	amount, err := strconv.ParseFloat(strings.TrimSpace(e.input.Value()), 64)
	e.input.Blur()
	mode := e.mode
	e.mode = emissionsModeList
	if err != nil {
		e.err = fmt.Errorf("%w: %v", carbon.ErrInvalidAmount, err)
		return nil
	}

	ctx := context.Background()
	if mode == emissionsModeUpdate {
		updated, err := e.deps.Emissions.UpdateEmission(ctx, *e.companyID, e.emissions[e.cursor].ID, amount, nil)
		if err != nil {
			e.err = err
			return nil
		}
		e.message = fmt.Sprintf("Updated %s: %s", updated.Category, formatCarbon(updated.CarbonValue))
		return e.loadData
	}

	f := e.factors[e.factorCursor]
	created, err := e.deps.Emissions.CreateEmission(ctx, carbon.CompanyActor(*e.companyID), carbon.EmissionInput{
		Type:     f.Type,
		Category: f.Category,
		Amount:   amount,
		Scope:    f.Scope,
	})
	if err != nil {
		e.err = err
		return nil
	}
	e.message = fmt.Sprintf("Recorded %s: %s", created.Category, formatCarbon(created.CarbonValue))
	return e.loadData
}

func (e *Emissions) handleDeleteKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "y", "Y":
		em := e.emissions[e.cursor]
		if err := e.deps.Emissions.DeleteEmission(context.Background(), *e.companyID, em.ID); err != nil {
			e.err = err
		} else {
			e.message = fmt.Sprintf("Deleted %s emission", em.Category)
		}
		e.mode = emissionsModeList
		return e.loadData

	case "n", "N", "esc":
		e.mode = emissionsModeList
	}
	return nil
}

func (e *Emissions) View() string {
	var b strings.Builder

	title := "EMISSIONS"
	if e.company != "" {
		title = fmt.Sprintf("EMISSIONS - %s", e.company)
	}
	b.WriteString(TitleStyle.Render(title))
	b.WriteString("\n\n")

	if e.loading {
		b.WriteString("Loading...\n")
		return b.String()
	}

	if e.err != nil {
		b.WriteString(ErrorStyle.Render(fmt.Sprintf("Error: %v", e.err)))
		b.WriteString("\n\n")
		e.err = nil
	}

	if e.message != "" {
		b.WriteString(SuccessStyle.Render(e.message))
		b.WriteString("\n\n")
	}

	switch e.mode {
	case emissionsModePickFactor:
		return e.viewPickFactor(&b)
	case emissionsModeAmount, emissionsModeUpdate:
		label := "New amount:"
		if e.mode == emissionsModeAmount {
			f := e.factors[e.factorCursor]
			label = fmt.Sprintf("Amount for %s/%s (%s):", f.Type, f.Category, f.Unit)
		}
		b.WriteString(label + "\n")
		b.WriteString(e.input.View())
		b.WriteString("\n\n")
		b.WriteString(HelpStyle.Render("[enter] Save  [esc] Cancel"))
		return b.String()
	case emissionsModeDelete:
		if len(e.emissions) > 0 {
			em := e.emissions[e.cursor]
			b.WriteString(WarningStyle.Render(fmt.Sprintf(
				"Delete %s emission of %s? (y/n)", em.Category, em.Date.Format("Jan 02, 2006"),
			)))
			b.WriteString("\n")
			return b.String()
		}
	}

	if len(e.emissions) == 0 {
		b.WriteString(DimStyle.Render("No emissions recorded."))
		b.WriteString("\n\n")
	} else {
		for i, em := range e.emissions {
			cursor := "  "
			style := NormalStyle
			if i == e.cursor {
				cursor = "> "
				style = SelectedStyle
			}
			source := ""
			if em.Source == models.SourceMonthlyAuto {
				source = DimStyle.Render(" auto")
			}
			line := fmt.Sprintf("%s%s  %-6s %s/%s  %g %s -> %s",
				cursor,
				em.Date.Format("2006-01-02"),
				em.Scope,
				em.Type,
				em.Category,
				em.Amount,
				em.Unit,
				formatCarbon(em.CarbonValue),
			)
			b.WriteString(style.Render(line) + source)
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	help := "[a] Add  [u] Update amount  [d] Delete  [q] Back"
	b.WriteString(HelpStyle.Render(help))

	return b.String()
}

func (e *Emissions) viewPickFactor(b *strings.Builder) string {
	b.WriteString(fmt.Sprintf("Select a %s factor:\n\n", e.scope))
	if len(e.factors) == 0 {
		b.WriteString(DimStyle.Render("No factors for this scope. Run 'carbontrack factors seed'."))
		b.WriteString("\n")
	}
	for i, f := range e.factors {
		cursor := "  "
		style := NormalStyle
		if i == e.factorCursor {
			cursor = "> "
			style = SelectedStyle
		}
		price := ""
		if f.Price != nil {
			price = DimStyle.Render(fmt.Sprintf(" @ %g %s", *f.Price, f.PriceUnit))
		}
		b.WriteString(style.Render(fmt.Sprintf("%s%s/%s  %g %s", cursor, f.Type, f.Category, f.EmissionFactor, f.Unit)) + price)
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(HelpStyle.Render("[enter] Select  [tab] Switch scope  [esc] Cancel"))
	return b.String()
}
