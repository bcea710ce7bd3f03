package view

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/cucikilat/pos/internal/catalog"
)

type servicesState int

const (
	servicesStateBrowse servicesState = iota
	servicesStateForm
)

type ServicesModel struct {
	store *catalog.Store[catalog.Service]

	state   servicesState
	table   table.Model
	items   []catalog.Service
	form    *huh.Form
	editing string
	loading bool
	errMsg  string
	status  string

	formName     string
	formPrice    string
	formUnit     string
	formCategory string
	formActive   bool
}

func NewServicesModel(store *catalog.Store[catalog.Service]) ServicesModel {
	columns := []table.Column{
		{Title: "Name", Width: 22},
		{Title: "Price", Width: 12},
		{Title: "Unit", Width: 8},
		{Title: "Category", Width: 12},
		{Title: "Active", Width: 7},
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

	return ServicesModel{store: store, table: t, loading: true}
}

func (m ServicesModel) Title() string { return "Services" }
func (m ServicesModel) ShortHelp() string {
	if m.state == servicesStateForm {
		return "Navigate form | Esc: cancel"
	}

	return "Esc: back | n: new | e: edit | d: delete | r: refresh"
}

type servicesLoadMsg struct {
	err error
}

type servicesSavedMsg struct {
	err error
}

func (m ServicesModel) Init() tea.Cmd {
	return m.loadCmd()
}

func (m ServicesModel) loadCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := ReqCtx()
		defer cancel()

		return servicesLoadMsg{err: m.store.FetchAll(ctx, nil)}
	}
}

func (m ServicesModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case servicesLoadMsg:
		m.loading = false
		if msg.err != nil {
			m.errMsg = msg.err.Error()
			return m, nil
		}

		m.errMsg = ""
		m.items = m.store.Items()
		m.refreshTable()

		return m, nil

	case servicesSavedMsg:
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
	case servicesStateBrowse:
		return m.updateBrowse(msg)
	case servicesStateForm:
		return m.updateForm(msg)
	}

	return m, nil
}

func (m ServicesModel) updateBrowse(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "esc":
			return m, Back
		case "r":
			m.loading = true
			return m, m.loadCmd()
		case "n":
			return m.enterForm(catalog.Service{Active: true})
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

func (m ServicesModel) enterForm(svc catalog.Service) (tea.Model, tea.Cmd) {
	m.editing = svc.ID
	m.formName = svc.Name
	m.formUnit = svc.Unit
	m.formCategory = svc.Category
	m.formActive = svc.Active
	m.formPrice = ""

	if svc.Price > 0 {
		m.formPrice = strconv.FormatInt(svc.Price, 10)
	}

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("name").
				Title("Name").
				Value(&m.formName).
				Validate(requiredField("name")),

			huh.NewInput().
				Key("price").
				Title("Price (Rp)").
				Value(&m.formPrice).
				Validate(func(s string) error {
					n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
					if err != nil || n <= 0 {
						return fmt.Errorf("price must be greater than 0")
					}
					return nil
				}),

			huh.NewInput().
				Key("unit").
				Title("Unit").
				Placeholder("kg, pcs, meter...").
				Value(&m.formUnit).
				Validate(requiredField("unit")),

			huh.NewInput().
				Key("category").
				Title("Category").
				Value(&m.formCategory),

			huh.NewConfirm().
				Key("active").
				Title("Active").
				Value(&m.formActive),
		),
	).WithWidth(50).WithShowHelp(false)

	m.state = servicesStateForm
	m.table.Blur()

	return m, m.form.Init()
}

func (m ServicesModel) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		if keyMsg.Type == tea.KeyEsc {
			m.state = servicesStateBrowse
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

	price, _ := strconv.ParseInt(strings.TrimSpace(m.form.GetString("price")), 10, 64)

	svc := catalog.Service{
		ID:       m.editing,
		Name:     m.form.GetString("name"),
		Price:    price,
		Unit:     m.form.GetString("unit"),
		Category: m.form.GetString("category"),
		Active:   m.form.GetBool("active"),
	}

	m.state = servicesStateBrowse
	m.form = nil
	m.table.Focus()

	editing := m.editing

	return m, func() tea.Msg {
		ctx, cancel := ReqCtx()
		defer cancel()

		var err error
		if editing == "" {
			_, err = m.store.Create(ctx, svc)
		} else {
			_, err = m.store.Update(ctx, editing, svc)
		}

		return servicesSavedMsg{err: err}
	}
}

func (m ServicesModel) deleteSelected() (tea.Model, tea.Cmd) {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.items) {
		return m, nil
	}

	id := m.items[idx].ID

	return m, func() tea.Msg {
		ctx, cancel := ReqCtx()
		defer cancel()

		return servicesSavedMsg{err: m.store.Delete(ctx, id)}
	}
}

func (m *ServicesModel) refreshTable() {
	rows := make([]table.Row, 0, len(m.items))
	for _, svc := range m.items {
		active := "no"
		if svc.Active {
			active = "yes"
		}

		rows = append(rows, table.Row{svc.Name, FormatRupiah(svc.Price), svc.Unit, svc.Category, active})
	}

	m.table.SetRows(rows)
}

func (m ServicesModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("Loading services...")
	}

	content := lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		Render(m.table.View())

	if m.state == servicesStateForm && m.form != nil {
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
