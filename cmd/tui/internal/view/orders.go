package view

import (
	"fmt"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/cucikilat/pos/internal/order"
	"github.com/cucikilat/pos/internal/session"
)

type ordersState int

const (
	ordersStateBrowse ordersState = iota
	ordersStateAdvance
	ordersStateCancel
	ordersStateRetry
)

// maxLoadRetries caps the retry-on-confirm loop when the first load fails.
const maxLoadRetries = 3

// OrdersModel tracks every order through its processing stages.
type OrdersModel struct {
	tracker  *order.Tracker
	sessions *session.Manager

	state     ordersState
	table     table.Model
	txs       []*order.Transaction
	form      *huh.Form
	loading   bool
	errMsg    string
	status    string
	retries   int
	filterIdx int

	formNotes    string
	formMetadata string
	formReason   string
	formConfirm  bool
}

// statusFilters cycles All ("") plus each stage and the two terminals.
var statusFilters = append(append([]order.Status{""}, order.Stages...), order.StatusCompleted, order.StatusCancelled)

func NewOrdersModel(tracker *order.Tracker, sessions *session.Manager) OrdersModel {
	columns := []table.Column{
		{Title: "No", Width: 18},
		{Title: "Customer", Width: 18},
		{Title: "Total", Width: 12},
		{Title: "Status", Width: 11},
		{Title: "Est. Done", Width: 12},
		{Title: "Updated", Width: 17},
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

	return OrdersModel{tracker: tracker, sessions: sessions, table: t, loading: true}
}

func (m OrdersModel) Title() string { return "Orders" }
func (m OrdersModel) ShortHelp() string {
	switch m.state {
	case ordersStateBrowse:
		return "Esc: back | a: advance | c: cancel order | s: status filter | r: refresh"
	case ordersStateRetry:
		return "Confirm to retry loading"
	default:
		return "Navigate form | Esc: cancel"
	}
}

type ordersLoadMsg struct {
	err error
}

type ordersUpdatedMsg struct {
	tx  *order.Transaction
	err error
}

func (m OrdersModel) Init() tea.Cmd {
	return m.loadCmd()
}

func (m OrdersModel) loadCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := ReqCtx()
		defer cancel()

		return ordersLoadMsg{err: m.tracker.Fetch(ctx, nil)}
	}
}

func (m OrdersModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case ordersLoadMsg:
		m.loading = false
		if msg.err != nil {
			m.errMsg = msg.err.Error()

			// Only nag when there is nothing on screen yet.
			if len(m.tracker.Transactions()) == 0 && m.retries < maxLoadRetries {
				return m.enterRetryPrompt()
			}

			return m, nil
		}

		m.errMsg = ""
		m.retries = 0
		m.refreshRows()

		return m, nil

	case ordersUpdatedMsg:
		m.state = ordersStateBrowse
		m.form = nil
		m.table.Focus()

		if msg.err != nil {
			m.errMsg = msg.err.Error()
			return m, nil
		}

		m.errMsg = ""
		m.status = fmt.Sprintf("%s is now %s", msg.tx.TransactionNo, msg.tx.CurrentStatus)
		m.refreshRows()

		return m, nil
	}

	switch m.state {
	case ordersStateBrowse:
		return m.updateBrowse(msg)
	case ordersStateAdvance, ordersStateCancel, ordersStateRetry:
		return m.updateForm(msg)
	}

	return m, nil
}

func (m OrdersModel) updateBrowse(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "esc":
			return m, Back
		case "r":
			m.loading = true
			return m, m.loadCmd()
		case "s":
			m.filterIdx = (m.filterIdx + 1) % len(statusFilters)
			m.refreshRows()

			return m, nil
		case "a":
			return m.enterAdvanceForm()
		case "c":
			return m.enterCancelForm()
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func (m OrdersModel) selected() (*order.Transaction, bool) {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.txs) {
		return nil, false
	}

	return m.txs[idx], true
}

func (m OrdersModel) enterAdvanceForm() (tea.Model, tea.Cmd) {
	tx, ok := m.selected()
	if !ok {
		return m, nil
	}

	next, ok := tx.CurrentStatus.Next()
	if !ok {
		if tx.CurrentStatus == order.StatusDone {
			next = order.StatusCompleted
		} else {
			m.errMsg = fmt.Sprintf("%s is already %s", tx.TransactionNo, tx.CurrentStatus)
			return m, nil
		}
	}

	m.formNotes = ""
	m.formMetadata = ""
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title(fmt.Sprintf("Advance %s: %s -> %s", tx.TransactionNo, tx.CurrentStatus, next)),

			huh.NewInput().
				Key("notes").
				Title("Notes").
				Value(&m.formNotes),

			huh.NewText().
				Key("metadata").
				Title("Findings (JSON, optional)").
				Value(&m.formMetadata),
		),
	).WithWidth(52).WithShowHelp(false)

	m.state = ordersStateAdvance
	m.table.Blur()

	return m, m.form.Init()
}

func (m OrdersModel) enterCancelForm() (tea.Model, tea.Cmd) {
	tx, ok := m.selected()
	if !ok {
		return m, nil
	}

	if tx.CurrentStatus.Terminal() {
		m.errMsg = fmt.Sprintf("%s is already %s", tx.TransactionNo, tx.CurrentStatus)
		return m, nil
	}

	m.formReason = ""
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("reason").
				Title(fmt.Sprintf("Cancel %s: reason", tx.TransactionNo)).
				Value(&m.formReason).
				Validate(requiredField("reason")),
		),
	).WithWidth(52).WithShowHelp(false)

	m.state = ordersStateCancel
	m.table.Blur()

	return m, m.form.Init()
}

func (m OrdersModel) enterRetryPrompt() (tea.Model, tea.Cmd) {
	m.formConfirm = true
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Key("retry").
				Title("Failed to load transactions").
				Description(m.errMsg).
				Affirmative("Retry").
				Negative("Dismiss").
				Value(&m.formConfirm),
		),
	).WithWidth(52).WithShowHelp(false)

	m.state = ordersStateRetry
	m.table.Blur()

	return m, m.form.Init()
}

func (m OrdersModel) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		if keyMsg.Type == tea.KeyEsc && m.state != ordersStateRetry {
			m.state = ordersStateBrowse
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

	state := m.state
	m.form = nil

	switch state {
	case ordersStateRetry:
		m.state = ordersStateBrowse
		m.table.Focus()

		if m.formConfirm {
			m.retries++
			m.loading = true

			return m, m.loadCmd()
		}

		return m, nil

	case ordersStateAdvance:
		return m.submitAdvance()

	case ordersStateCancel:
		return m.submitCancel()
	}

	return m, nil
}

func (m OrdersModel) submitAdvance() (tea.Model, tea.Cmd) {
	tx, ok := m.selected()
	if !ok {
		m.state = ordersStateBrowse
		m.table.Focus()

		return m, nil
	}

	next, ok := tx.CurrentStatus.Next()
	if !ok {
		next = order.StatusCompleted
	}

	params := order.ProgressParams{
		Status: next,
		Notes:  m.formNotes,
	}

	if u := m.sessions.User(); u != nil {
		params.CheckedBy = u.Name
	}

	if m.formMetadata != "" {
		params.Metadata = []byte(m.formMetadata)
	}

	id := tx.ID

	return m, func() tea.Msg {
		ctx, cancel := ReqCtx()
		defer cancel()

		updated, err := m.tracker.AddProgress(ctx, id, params)

		return ordersUpdatedMsg{tx: updated, err: err}
	}
}

func (m OrdersModel) submitCancel() (tea.Model, tea.Cmd) {
	tx, ok := m.selected()
	if !ok {
		m.state = ordersStateBrowse
		m.table.Focus()

		return m, nil
	}

	id := tx.ID
	reason := m.formReason

	return m, func() tea.Msg {
		ctx, cancel := ReqCtx()
		defer cancel()

		updated, err := m.tracker.Cancel(ctx, id, reason)

		return ordersUpdatedMsg{tx: updated, err: err}
	}
}

func (m *OrdersModel) refreshRows() {
	filter := statusFilters[m.filterIdx]

	if filter == "" {
		m.txs = m.tracker.Transactions()
	} else {
		m.txs = m.tracker.ByStatus(filter)
	}

	rows := make([]table.Row, 0, len(m.txs))
	for _, tx := range m.txs {
		rows = append(rows, table.Row{
			tx.TransactionNo,
			tx.Customer.Name,
			FormatRupiah(tx.TotalAmount),
			string(tx.CurrentStatus),
			FormatDate(tx.EstimatedDone),
			FormatDateTime(tx.UpdatedAt),
		})
	}

	m.table.SetRows(rows)
}

func (m OrdersModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("Loading orders...")
	}

	filterLabel := "All"
	if f := statusFilters[m.filterIdx]; f != "" {
		filterLabel = string(f)
	}

	header := "Filter: [s] Status: " + lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Render(filterLabel)

	content := lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().PaddingBottom(1).Render(header),
		lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("240")).
			Render(m.table.View()),
	)

	if tx, ok := m.selected(); ok && m.state == ordersStateBrowse {
		content = lipgloss.JoinHorizontal(lipgloss.Top, content, "  ", m.timeline(tx))
	}

	if m.form != nil {
		content = lipgloss.JoinVertical(lipgloss.Left, content, m.form.View())
	}

	if m.errMsg != "" && m.state != ordersStateRetry {
		content = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Render(m.errMsg) + "\n" + content
	} else if m.status != "" {
		content = lipgloss.NewStyle().Faint(true).Render(m.status) + "\n" + content
	}

	return lipgloss.NewStyle().Padding(1).Render(content)
}

func (m OrdersModel) timeline(tx *order.Transaction) string {
	body := lipgloss.NewStyle().Bold(true).Render("Progress "+tx.TransactionNo) + "\n\n"

	for _, p := range tx.Progress {
		line := fmt.Sprintf("%s  %-10s %s", FormatDateTime(p.Timestamp), p.Status, p.CheckedBy)
		if p.Notes != "" {
			line += "\n  " + lipgloss.NewStyle().Faint(true).Render(p.Notes)
		}

		body += line + "\n"
	}

	return lipgloss.NewStyle().
		Padding(1, 2).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("63")).
		Width(50).
		Render(body)
}
