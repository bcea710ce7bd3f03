package view

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/cucikilat/pos/internal/catalog"
)

type customersState int

const (
	customersStateBrowse customersState = iota
	customersStateForm
)

type CustomersModel struct {
	store *catalog.Store[catalog.Customer]

	state   customersState
	table   table.Model
	items   []catalog.Customer
	form    *huh.Form
	editing string
	loading bool
	errMsg  string
	status  string

	formName    string
	formPhone   string
	formAddress string
	formEmail   string
}

func NewCustomersModel(store *catalog.Store[catalog.Customer]) CustomersModel {
	columns := []table.Column{
		{Title: "Name", Width: 22},
		{Title: "Phone", Width: 15},
		{Title: "Address", Width: 34},
		{Title: "Email", Width: 22},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(14),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(false)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	return CustomersModel{store: store, table: t, loading: true}
}

func (m CustomersModel) Title() string { return "Customers" }
func (m CustomersModel) ShortHelp() string {
	if m.state == customersStateForm {
		return "Navigate form | Esc: cancel"
	}

	return "Esc: back | n: new | e: edit | d: delete | r: refresh"
}

type customersLoadMsg struct {
	err error
}

type customersSavedMsg struct {
	err error
}

func (m CustomersModel) Init() tea.Cmd {
	return m.loadCmd()
}

func (m CustomersModel) loadCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := ReqCtx()
		defer cancel()

		return customersLoadMsg{err: m.store.FetchAll(ctx, nil)}
	}
}

func (m CustomersModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case customersLoadMsg:
		m.loading = false
		if msg.err != nil {
			m.errMsg = msg.err.Error()
			return m, nil
		}

		m.errMsg = ""
		m.items = m.store.Items()
		m.refreshTable()

		return m, nil

	case customersSavedMsg:
		if msg.err != nil {
			m.errMsg = msg.err.Error()
		} else {
			m.errMsg = ""
			m.status = "Saved"
		}

		m.items = m.store.Items()
		m.refreshTable()

		return m, nil
	}

	switch m.state {
	case customersStateBrowse:
		return m.updateBrowse(msg)
	case customersStateForm:
		return m.updateForm(msg)
	}

	return m, nil
}

func (m CustomersModel) updateBrowse(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "esc":
			return m, Back
		case "r":
			m.loading = true
			return m, m.loadCmd()
		case "n":
			return m.enterForm(catalog.Customer{})
		case "e":
			idx := m.table.Cursor()
			if idx >= 0 && idx < len(m.items) {
				return m.enterForm(m.items[idx])
			}

			return m, nil
		case "d":
			return m.deleteSelected()
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func (m CustomersModel) enterForm(c catalog.Customer) (tea.Model, tea.Cmd) {
	m.editing = c.ID
	m.formName = c.Name
	m.formPhone = c.Phone
	m.formAddress = c.Address
	m.formEmail = c.Email

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("name").
				Title("Name").
				Value(&m.formName).
				Validate(requiredField("name")),

			huh.NewInput().
				Key("phone").
				Title("Phone").
				Value(&m.formPhone).
				Validate(requiredField("phone")),

			huh.NewInput().
				Key("address").
				Title("Address").
				Value(&m.formAddress),

			huh.NewInput().
				Key("email").
				Title("Email").
				Value(&m.formEmail),
		),
	).WithWidth(50).WithShowHelp(false)

	m.state = customersStateForm
	m.table.Blur()

	return m, m.form.Init()
}

func (m CustomersModel) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		if keyMsg.Type == tea.KeyEsc {
			m.state = customersStateBrowse
			m.form = nil
			m.table.Focus()

			return m, nil
		}
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	customer := catalog.Customer{
		ID:      m.editing,
		Name:    m.form.GetString("name"),
		Phone:   m.form.GetString("phone"),
		Address: m.form.GetString("address"),
		Email:   m.form.GetString("email"),
	}

	m.state = customersStateBrowse
	m.form = nil
	m.table.Focus()

	editing := m.editing

	return m, func() tea.Msg {
		ctx, cancel := ReqCtx()
		defer cancel()

		var err error
		if editing == "" {
			_, err = m.store.Create(ctx, customer)
		} else {
			_, err = m.store.Update(ctx, editing, customer)
		}

		return customersSavedMsg{err: err}
	}
}

func (m CustomersModel) deleteSelected() (tea.Model, tea.Cmd) {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.items) {
		return m, nil
	}

	id := m.items[idx].ID

	return m, func() tea.Msg {
		ctx, cancel := ReqCtx()
		defer cancel()

		return customersSavedMsg{err: m.store.Delete(ctx, id)}
	}
}

func (m *CustomersModel) refreshTable() {
	rows := make([]table.Row, 0, len(m.items))
	for _, c := range m.items {
		rows = append(rows, table.Row{c.Name, c.Phone, c.Address, c.Email})
	}

	m.table.SetRows(rows)
}

func (m CustomersModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("Loading customers...")
	}

	content := lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		Render(m.table.View())

	if m.state == customersStateForm && m.form != nil {
		panel := lipgloss.NewStyle().
			Padding(1, 2).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Width(54).
			Render(m.form.View())

		content = lipgloss.JoinHorizontal(lipgloss.Top, content, panel)
	}

	if m.errMsg != "" {
		content = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Render(m.errMsg) + "\n" + content
	} else if m.status != "" {
		content = lipgloss.NewStyle().Faint(true).Render(m.status) + "\n" + content
	}

	return lipgloss.NewStyle().Padding(1).Render(content)
}

func requiredField(name string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", name)
		}

		return nil
	}
}
