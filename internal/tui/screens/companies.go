package screens

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/emilianohg/carbontrack/internal/repository"
)

type companiesMode int

const (
	companiesModeList companiesMode = iota
	companiesModeAddName
	companiesModeAddEmail
	companiesModeEdit
	companiesModeDelete
)

type Companies struct {
	deps   Deps
	width  int
	height int

	companies []repository.CompanyWithStats
	cursor    int
	mode      companiesMode
	input     textinput.Model
	pending   string
	loading   bool
	err       error
	message   string
}

func NewCompanies(deps Deps) *Companies {
	ti := textinput.New()
	ti.Placeholder = "Company name"
	ti.CharLimit = 100
	ti.Width = 40

	return &Companies{
		deps:  deps,
		input: ti,
	}
}

func (c *Companies) SetSize(width, height int) {
	c.width = width
	c.height = height
}

type companiesDataMsg struct {
	companies []repository.CompanyWithStats
	err       error
}

func (c *Companies) Init() tea.Cmd {
	c.loading = true
	c.mode = companiesModeList
	c.message = ""
	return c.loadData
}

func (c *Companies) loadData() tea.Msg {
	companies, err := c.deps.Emissions.Companies(context.Background())
	return companiesDataMsg{companies: companies, err: err}
}

func (c *Companies) editing() bool {
	return c.mode == companiesModeAddName || c.mode == companiesModeAddEmail || c.mode == companiesModeEdit
}

func (c *Companies) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case companiesDataMsg:
		c.loading = false
		c.err = msg.err
		c.companies = msg.companies
		if c.cursor >= len(c.companies) {
			c.cursor = max(0, len(c.companies)-1)
		}
		return nil

	case RefreshMsg:
		return c.Init()

	case tea.KeyMsg:
		if cmd, handled := c.handleKey(msg); handled {
			return cmd
		}
	}

	if c.editing() {
		var cmd tea.Cmd
		c.input, cmd = c.input.Update(msg)
		return cmd
	}

	return nil
}

func (c *Companies) handleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch c.mode {
	case companiesModeList:
		return c.handleListKey(msg), true
	case companiesModeAddName, companiesModeAddEmail, companiesModeEdit:
		return c.handleInputKey(msg)
	case companiesModeDelete:
		return c.handleDeleteKey(msg), true
	}
	return nil, false
}

func (c *Companies) handleListKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "up", "k":
		if c.cursor > 0 {
			c.cursor--
		}
	case "down", "j":
		if c.cursor < len(c.companies)-1 {
			c.cursor++
		}
	case "a":
		c.mode = companiesModeAddName
		c.input.Placeholder = "Company name"
		c.input.SetValue("")
		c.input.Focus()
		return textinput.Blink
	case "e":
		if len(c.companies) > 0 {
			c.mode = companiesModeEdit
			c.input.Placeholder = "Company name"
			c.input.SetValue(c.companies[c.cursor].Name)
			c.input.Focus()
			return textinput.Blink
		}
	case "d":
		if len(c.companies) > 0 {
			c.mode = companiesModeDelete
		}
	case "enter", "w":
		if len(c.companies) > 0 {
			return NavigateWithCompany("workers", c.companies[c.cursor].ID)
		}
	case "m":
		if len(c.companies) > 0 {
			return NavigateWithCompany("emissions", c.companies[c.cursor].ID)
		}
	case "t":
		if len(c.companies) > 0 {
			return NavigateWithCompany("totals", c.companies[c.cursor].ID)
		}
	case "q", "esc":
		return Navigate("dashboard")
	}
	return nil
}

func (c *Companies) handleInputKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch msg.String() {
	case "enter":
		value := strings.TrimSpace(c.input.Value())
		if value == "" {
			c.mode = companiesModeList
			c.input.Blur()
			return nil, true
		}
		ctx := context.Background()

		switch c.mode {
		case companiesModeAddName:
			c.pending = value
			c.mode = companiesModeAddEmail
			c.input.Placeholder = "contact@company.com"
			c.input.SetValue("")
			return nil, true

		case companiesModeAddEmail:
			if _, err := c.deps.Emissions.RegisterCompany(ctx, c.pending, value); err != nil {
				c.err = err
			} else {
				c.message = fmt.Sprintf("Created company: %s", c.pending)
			}

		case companiesModeEdit:
			current := c.companies[c.cursor]
			if err := c.deps.Emissions.UpdateCompany(ctx, current.ID, value, current.Email); err != nil {
				c.err = err
			} else {
				c.message = fmt.Sprintf("Updated company: %s", value)
			}
		}
		c.mode = companiesModeList
		c.input.Blur()
		return c.loadData, true

	case "esc":
		c.mode = companiesModeList
		c.input.Blur()
		return nil, true
	}
	return nil, false
}

func (c *Companies) handleDeleteKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "y", "Y":
		name := c.companies[c.cursor].Name
		err := c.deps.Emissions.DeleteCompany(context.Background(), c.companies[c.cursor].ID)
		if err != nil {
			c.err = err
		} else {
			c.message = fmt.Sprintf("Deleted company: %s", name)
		}
		c.mode = companiesModeList
		return c.loadData

	case "n", "N", "esc":
		c.mode = companiesModeList
	}
	return nil
}

func (c *Companies) View() string {
	var b strings.Builder

	b.WriteString(TitleStyle.Render("COMPANIES"))
	b.WriteString("\n\n")

	if c.loading {
		b.WriteString("Loading...\n")
		return b.String()
	}

	if c.err != nil {
		b.WriteString(ErrorStyle.Render(fmt.Sprintf("Error: %v", c.err)))
		b.WriteString("\n\n")
		c.err = nil
	}

	if c.message != "" {
		b.WriteString(SuccessStyle.Render(c.message))
		b.WriteString("\n\n")
	}

	switch c.mode {
	case companiesModeAddName:
		b.WriteString("New company name:\n")
	case companiesModeAddEmail:
		b.WriteString(fmt.Sprintf("Contact email for %s:\n", c.pending))
	case companiesModeEdit:
		b.WriteString("Edit company name:\n")
	}
	if c.editing() {
		b.WriteString(c.input.View())
		b.WriteString("\n\n")
		b.WriteString(HelpStyle.Render("[enter] Save  [esc] Cancel"))
		return b.String()
	}

	if c.mode == companiesModeDelete && len(c.companies) > 0 {
		b.WriteString(WarningStyle.Render(fmt.Sprintf(
			"Delete company '%s'? Its workers and emissions are removed too. (y/n)",
			c.companies[c.cursor].Name,
		)))
		b.WriteString("\n")
		return b.String()
	}

	if len(c.companies) == 0 {
		b.WriteString(DimStyle.Render("No companies yet."))
		b.WriteString("\n\n")
	} else {
		for i, company := range c.companies {
			cursor := "  "
			style := NormalStyle
			if i == c.cursor {
				cursor = "> "
				style = SelectedStyle
			}

			line := fmt.Sprintf("%s%s  %s, %d pts (%d workers, %d emissions)",
				cursor,
				company.Name,
				formatCarbon(company.TotalCarbon),
				company.Points,
				company.WorkerCount,
				company.EmissionCount,
			)
			b.WriteString(style.Render(line))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	help := "[a] Add  [e] Edit  [d] Delete  [enter] Workers  [m] Emissions  [t] Totals  [q] Back"
	b.WriteString(HelpStyle.Render(help))

	return b.String()
}
