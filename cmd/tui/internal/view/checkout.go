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
	"github.com/cucikilat/pos/internal/order"
	"github.com/cucikilat/pos/internal/pos"
)

type checkoutState int

const (
	checkoutStateBrowse checkoutState = iota
	checkoutStateQuantity
	checkoutStateCustomer
	checkoutStateProcessing
)

// CheckoutModel is the counter screen: pick services into the cart, pick the
// customer and payment method, then submit the transaction.
type CheckoutModel struct {
	engine    *pos.Engine
	customers *catalog.Store[catalog.Customer]
	services  *catalog.Store[catalog.Service]

	state        checkoutState
	serviceTable table.Model
	form         *huh.Form
	loading      bool
	errMsg       string
	status       string

	svcItems []catalog.Service

	formQty      string
	formCustomer string
}

func NewCheckoutModel(engine *pos.Engine, customers *catalog.Store[catalog.Customer], services *catalog.Store[catalog.Service]) CheckoutModel {
	columns := []table.Column{
		{Title: "Service", Width: 22},
		{Title: "Price", Width: 12},
		{Title: "Unit", Width: 8},
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

	return CheckoutModel{
		engine:       engine,
		customers:    customers,
		services:     services,
		serviceTable: t,
		loading:      true,
	}
}

func (m CheckoutModel) Title() string { return "Checkout" }
func (m CheckoutModel) ShortHelp() string {
	switch m.state {
	case checkoutStateBrowse:
		return "Esc: back | a: add | x: remove | c: customer | p: payment | o: pay | r: refresh"
	default:
		return "Navigate form | Esc: cancel"
	}
}

type checkoutLoadMsg struct {
	err error
}

type checkoutPaidMsg struct {
	tx  *order.Transaction
	err error
}

func (m CheckoutModel) Init() tea.Cmd {
	return m.loadCmd()
}

func (m CheckoutModel) loadCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := ReqCtx()
		defer cancel()

		if err := m.services.FetchAll(ctx, nil); err != nil {
			return checkoutLoadMsg{err: err}
		}

		if err := m.customers.FetchAll(ctx, nil); err != nil {
			return checkoutLoadMsg{err: err}
		}

		return checkoutLoadMsg{}
	}
}

func (m CheckoutModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case checkoutLoadMsg:
		m.loading = false
		if msg.err != nil {
			m.errMsg = msg.err.Error()
			return m, nil
		}

		m.errMsg = ""
		m.svcItems = m.services.Items()
		m.refreshServiceTable()

		return m, nil

	case checkoutPaidMsg:
		m.state = checkoutStateBrowse
		if msg.err != nil {
			m.errMsg = msg.err.Error()
			return m, nil
		}

		m.errMsg = ""
		m.status = fmt.Sprintf("Transaction %s created, total %s", msg.tx.TransactionNo, FormatRupiah(msg.tx.TotalAmount))

		return m, nil
	}

	switch m.state {
	case checkoutStateBrowse:
		return m.updateBrowse(msg)
	case checkoutStateQuantity, checkoutStateCustomer:
		return m.updateForm(msg)
	}

	return m, nil
}

func (m CheckoutModel) updateBrowse(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "esc":
			return m, Back
		case "r":
			m.loading = true
			return m, m.loadCmd()
		case "a", "enter":
			return m.enterQuantityForm()
		case "x":
			return m.removeSelected()
		case "c":
			return m.enterCustomerForm()
		case "p":
			m.cyclePayment()
			return m, nil
		case "o":
			return m.processPayment()
		}
	}

	var cmd tea.Cmd
	m.serviceTable, cmd = m.serviceTable.Update(msg)

	return m, cmd
}

func (m CheckoutModel) enterQuantityForm() (tea.Model, tea.Cmd) {
	idx := m.serviceTable.Cursor()
	if idx < 0 || idx >= len(m.svcItems) {
		return m, nil
	}

	m.formQty = "1"
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("quantity").
				Title(fmt.Sprintf("Quantity (%s)", m.svcItems[idx].Unit)).
				Value(&m.formQty).
				Validate(func(s string) error {
					n, err := strconv.Atoi(strings.TrimSpace(s))
					if err != nil || n <= 0 {
						return fmt.Errorf("enter a positive number")
					}
					return nil
				}),
		),
	).WithWidth(35).WithShowHelp(false)

	m.state = checkoutStateQuantity
	m.serviceTable.Blur()

	return m, m.form.Init()
}

func (m CheckoutModel) enterCustomerForm() (tea.Model, tea.Cmd) {
	customers := m.customers.Items()
	if len(customers) == 0 {
		m.errMsg = "no customers loaded"
		return m, nil
	}

	options := make([]huh.Option[string], len(customers))
	for i, c := range customers {
		options[i] = huh.NewOption(fmt.Sprintf("%s (%s)", c.Name, c.Phone), c.ID)
	}

	m.formCustomer = m.engine.Cart().CustomerID()
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Key("customer").
				Title("Customer").
				Options(options...).
				Value(&m.formCustomer),
		),
	).WithWidth(45).WithShowHelp(false)

	m.state = checkoutStateCustomer
	m.serviceTable.Blur()

	return m, m.form.Init()
}

func (m CheckoutModel) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		if keyMsg.Type == tea.KeyEsc {
			m.state = checkoutStateBrowse
			m.form = nil
			m.serviceTable.Focus()

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

	switch m.state {
	case checkoutStateQuantity:
		idx := m.serviceTable.Cursor()
		if idx >= 0 && idx < len(m.svcItems) {
			qty, _ := strconv.Atoi(strings.TrimSpace(m.form.GetString("quantity")))
			m.engine.Cart().Add(m.svcItems[idx], qty)
		}
	case checkoutStateCustomer:
		m.engine.Cart().SelectCustomer(m.form.GetString("customer"))
	}

	m.state = checkoutStateBrowse
	m.form = nil
	m.serviceTable.Focus()

	return m, nil
}

func (m CheckoutModel) removeSelected() (tea.Model, tea.Cmd) {
	idx := m.serviceTable.Cursor()
	if idx >= 0 && idx < len(m.svcItems) {
		m.engine.Cart().Remove(m.svcItems[idx].ID)
	}

	return m, nil
}

func (m *CheckoutModel) cyclePayment() {
	current := m.engine.Cart().PaymentMethod()
	for i, pm := range order.PaymentMethods {
		if pm == current {
			m.engine.Cart().SetPaymentMethod(order.PaymentMethods[(i+1)%len(order.PaymentMethods)])
			return
		}
	}
}

func (m CheckoutModel) processPayment() (tea.Model, tea.Cmd) {
	m.state = checkoutStateProcessing
	m.errMsg = ""
	m.status = ""

	return m, func() tea.Msg {
		ctx, cancel := ReqCtx()
		defer cancel()

		tx, err := m.engine.ProcessPayment(ctx)

		return checkoutPaidMsg{tx: tx, err: err}
	}
}

func (m *CheckoutModel) refreshServiceTable() {
	rows := make([]table.Row, 0, len(m.svcItems))
	for _, svc := range m.svcItems {
		rows = append(rows, table.Row{svc.Name, FormatRupiah(svc.Price), svc.Unit})
	}

	m.serviceTable.SetRows(rows)
}

func (m CheckoutModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("Loading catalog...")
	}

	left := lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		Render(m.serviceTable.View())

	right := m.cartPanel()

	content := lipgloss.JoinHorizontal(lipgloss.Top, left, "  ", right)

	if m.form != nil {
		content = lipgloss.JoinVertical(lipgloss.Left, content, m.form.View())
	}

	if m.state == checkoutStateProcessing {
		content = lipgloss.JoinVertical(lipgloss.Left, content, "Processing payment...")
	}

	if m.errMsg != "" {
		content = lipgloss.JoinVertical(lipgloss.Left, content,
			lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Render(m.errMsg))
	}

	if m.status != "" {
		content = lipgloss.JoinVertical(lipgloss.Left, content,
			lipgloss.NewStyle().Faint(true).Render(m.status))
	}

	return lipgloss.NewStyle().Padding(1).Render(content)
}

func (m CheckoutModel) cartPanel() string {
	cart := m.engine.Cart()

	var sb strings.Builder

	sb.WriteString(lipgloss.NewStyle().Bold(true).Render("Cart") + "\n\n")

	customerLine := "Customer: (none)"
	if id := cart.CustomerID(); id != "" {
		if c, ok := m.customers.Find(id); ok {
			customerLine = "Customer: " + c.Name
		} else {
			customerLine = "Customer: " + id
		}
	}

	sb.WriteString(customerLine + "\n")
	sb.WriteString(fmt.Sprintf("Payment: %s\n\n", cart.PaymentMethod()))

	lines := cart.Lines()
	if len(lines) == 0 {
		sb.WriteString("(empty)\n")
	}

	for _, l := range lines {
		sb.WriteString(fmt.Sprintf("%-20s %2d %-6s %12s\n", l.Name, l.Quantity, l.Unit, FormatRupiah(l.Subtotal)))
	}

	sb.WriteString("\n" + lipgloss.NewStyle().Bold(true).Render("Total: "+FormatRupiah(cart.TotalAmount())))

	return lipgloss.NewStyle().
		Padding(1, 2).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("63")).
		Width(48).
		Render(sb.String())
}
