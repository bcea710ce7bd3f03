package view

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/cucikilat/pos/internal/report"
)

type reportsState int

const (
	reportsStateBrowse reportsState = iota
	reportsStateRange
)

// ReportsModel shows the financial report for a date range. Changing the
// range always refetches.
type ReportsModel struct {
	agg *report.Aggregator

	state   reportsState
	table   table.Model
	form    *huh.Form
	loading bool
	errMsg  string

	formStart string
	formEnd   string
}

func NewReportsModel(agg *report.Aggregator) ReportsModel {
	columns := []table.Column{
		{Title: "Date", Width: 12},
		{Title: "No", Width: 18},
		{Title: "Customer", Width: 20},
		{Title: "Total", Width: 12},
		{Title: "Payment", Width: 10},
		{Title: "Status", Width: 11},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(12),
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

	return ReportsModel{agg: agg, table: t, loading: true}
}

func (m ReportsModel) Title() string { return "Reports" }
func (m ReportsModel) ShortHelp() string {
	if m.state == reportsStateRange {
		return "Navigate form | Esc: cancel"
	}

	return "Esc: back | t: today | w: this week | m: this month | c: custom range | r: refresh"
}

type reportsLoadMsg struct {
	err error
}

func (m ReportsModel) Init() tea.Cmd {
	return m.refreshCmd()
}

func (m ReportsModel) refreshCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := ReqCtx()
		defer cancel()

		return reportsLoadMsg{err: m.agg.Refresh(ctx)}
	}
}

func (m ReportsModel) setFilterCmd(f report.Filter) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := ReqCtx()
		defer cancel()

		return reportsLoadMsg{err: m.agg.SetFilter(ctx, f)}
	}
}

func (m ReportsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(reportsLoadMsg); ok {
		m.loading = false
		if msg.err != nil {
			m.errMsg = msg.err.Error()
			return m, nil
		}

		m.errMsg = ""
		m.refreshRows()

		return m, nil
	}

	switch m.state {
	case reportsStateBrowse:
		return m.updateBrowse(msg)
	case reportsStateRange:
		return m.updateRangeForm(msg)
	}

	return m, nil
}

func (m ReportsModel) updateBrowse(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		now := time.Now()
		today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

		switch keyMsg.String() {
		case "esc":
			return m, Back
		case "r":
			m.loading = true
			return m, m.refreshCmd()
		case "t":
			m.loading = true
			return m, m.setFilterCmd(report.Filter{Start: today, End: today})
		case "w":
			offset := int(now.Weekday())
			if offset == 0 {
				offset = 7
			}

			m.loading = true

			return m, m.setFilterCmd(report.Filter{Start: today.AddDate(0, 0, -offset+1), End: today})
		case "m":
			m.loading = true

			return m, m.setFilterCmd(report.Filter{
				Start: time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()),
				End:   today,
			})
		case "c":
			return m.enterRangeForm()
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func (m ReportsModel) enterRangeForm() (tea.Model, tea.Cmd) {
	f := m.agg.Filter()
	m.formStart = f.Start.Format(time.DateOnly)
	m.formEnd = f.End.Format(time.DateOnly)

	dateField := func(s string) error {
		if _, err := time.Parse(time.DateOnly, s); err != nil {
			return fmt.Errorf("use YYYY-MM-DD")
		}

		return nil
	}

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("start").
				Title("Start date").
				Placeholder("YYYY-MM-DD").
				Value(&m.formStart).
				Validate(dateField),

			huh.NewInput().
				Key("end").
				Title("End date").
				Placeholder("YYYY-MM-DD").
				Value(&m.formEnd).
				Validate(dateField),
		),
	).WithWidth(35).WithShowHelp(false)

	m.state = reportsStateRange
	m.table.Blur()

	return m, m.form.Init()
}

func (m ReportsModel) updateRangeForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		if keyMsg.Type == tea.KeyEsc {
			m.state = reportsStateBrowse
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

	start, _ := time.Parse(time.DateOnly, m.form.GetString("start"))
	end, _ := time.Parse(time.DateOnly, m.form.GetString("end"))

	if end.Before(start) {
		start, end = end, start
	}

	m.state = reportsStateBrowse
	m.form = nil
	m.table.Focus()
	m.loading = true

	return m, m.setFilterCmd(report.Filter{Start: start, End: end})
}

func (m *ReportsModel) refreshRows() {
	reportRows := m.agg.Rows()

	rows := make([]table.Row, 0, len(reportRows))
	for _, r := range reportRows {
		rows = append(rows, table.Row{
			FormatDate(r.Date),
			r.TransactionNo,
			r.CustomerName,
			FormatRupiah(r.Total),
			string(r.PaymentMethod),
			string(r.Status),
		})
	}

	m.table.SetRows(rows)
}

func (m ReportsModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("Loading reports...")
	}

	f := m.agg.Filter()
	sum := m.agg.Summary()

	header := fmt.Sprintf("Range: %s .. %s | Revenue: %s | Transactions: %d (%d completed, %d cancelled)",
		FormatDate(f.Start), FormatDate(f.End),
		FormatRupiah(sum.TotalRevenue), sum.TotalTransactions, sum.TotalCompleted, sum.TotalCancelled)

	content := lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().PaddingBottom(1).Render(header),
		lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("240")).
			Render(m.table.View()),
	)

	if m.form != nil {
		content = lipgloss.JoinVertical(lipgloss.Left, content, m.form.View())
	}

	if m.errMsg != "" {
		content = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Render(m.errMsg) + "\n" + content
	}

	return lipgloss.NewStyle().Padding(1).Render(content)
}
