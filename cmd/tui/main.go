package main

import (
	"log/slog"
	"os"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"

	"github.com/cucikilat/pos/cmd/tui/internal/view"
	"github.com/cucikilat/pos/internal/api"
	"github.com/cucikilat/pos/internal/catalog"
	"github.com/cucikilat/pos/internal/config"
	"github.com/cucikilat/pos/internal/credstore"
	"github.com/cucikilat/pos/internal/importer"
	"github.com/cucikilat/pos/internal/order"
	"github.com/cucikilat/pos/internal/pos"
	"github.com/cucikilat/pos/internal/report"
	"github.com/cucikilat/pos/internal/session"
)

// programNavigator routes session redirects back into the bubbletea event
// loop. The program is attached after tea.NewProgram; redirects fired
// before that (none in practice) are dropped.
type programNavigator struct {
	mu sync.Mutex
	p  *tea.Program
}

func (n *programNavigator) attach(p *tea.Program) {
	n.mu.Lock()
	n.p = p
	n.mu.Unlock()
}

func (n *programNavigator) send(msg tea.Msg) {
	n.mu.Lock()
	p := n.p
	n.mu.Unlock()

	if p != nil {
		go p.Send(msg)
	}
}

func (n *programNavigator) ToLogin() { n.send(view.NavigateLoginMsg{}) }
func (n *programNavigator) ToHome()  { n.send(view.NavigateHomeMsg{}) }

type View int

const (
	ViewLogin     View = 0
	ViewMenu      View = 1
	ViewCheckout  View = 2
	ViewCustomers View = 3
	ViewServices  View = 4
	ViewOrders    View = 5
	ViewReports   View = 6
	ViewImport    View = 7
)

type model struct {
	sessions   *session.Manager
	customers  *catalog.Store[catalog.Customer]
	services   *catalog.Store[catalog.Service]
	tracker    *order.Tracker
	engine     *pos.Engine
	aggregator *report.Aggregator
	importSvc  *importer.Service

	currentView View

	loginView     view.LoginModel
	checkoutView  view.CheckoutModel
	customersView view.CustomersModel
	servicesView  view.ServicesModel
	ordersView    view.OrdersModel
	reportsView   view.ReportsModel
	importView    view.ImportModel
}

func initialModel(nav *programNavigator) model {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	creds, err := credstore.Open(cfg.Credentials.File)
	if err != nil {
		slog.Error("failed to open credential store", "error", err)
		os.Exit(1)
	}

	client := api.NewClient(cfg.API.BaseURL, cfg.API.Timeout, creds, nav)
	sessions := session.NewManager(client, creds, nav)

	sessions.Initialize()

	customers := catalog.NewCustomerStore(client)
	services := catalog.NewServiceStore(client)
	tracker := order.NewTracker(client, nil)
	cart := pos.NewCart()
	engine := pos.NewEngine(client, cart, tracker)
	aggregator := report.NewAggregator(client)
	importSvc := importer.NewService(func(phone string) bool {
		return customers.HasKey(phone, "")
	})

	start := ViewMenu
	if !sessions.Authenticated() {
		start = ViewLogin
	}

	return model{
		sessions:   sessions,
		customers:  customers,
		services:   services,
		tracker:    tracker,
		engine:     engine,
		aggregator: aggregator,
		importSvc:  importSvc,

		currentView: start,

		loginView:     view.NewLoginModel(sessions),
		checkoutView:  view.NewCheckoutModel(engine, customers, services),
		customersView: view.NewCustomersModel(customers),
		servicesView:  view.NewServicesModel(services),
		ordersView:    view.NewOrdersModel(tracker, sessions),
		reportsView:   view.NewReportsModel(aggregator),
		importView:    view.NewImportModel(customers, importSvc),
	}
}

func (m model) Init() tea.Cmd {
	if m.currentView == ViewLogin {
		return m.loginView.Init()
	}

	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.currentView == ViewMenu {
			switch msg.String() {
			case "ctrl+c", "q":
				return m, tea.Quit
			case "1":
				m.currentView = ViewCheckout
				m.checkoutView = view.NewCheckoutModel(m.engine, m.customers, m.services)

				return m, m.checkoutView.Init()
			case "2":
				m.currentView = ViewOrders
				m.ordersView = view.NewOrdersModel(m.tracker, m.sessions)

				return m, m.ordersView.Init()
			case "3":
				m.currentView = ViewCustomers
				m.customersView = view.NewCustomersModel(m.customers)

				return m, m.customersView.Init()
			case "4":
				m.currentView = ViewServices
				m.servicesView = view.NewServicesModel(m.services)

				return m, m.servicesView.Init()
			case "5":
				m.currentView = ViewReports
				m.reportsView = view.NewReportsModel(m.aggregator)

				return m, m.reportsView.Init()
			case "6":
				m.currentView = ViewImport
				m.importView = view.NewImportModel(m.customers, m.importSvc)

				return m, m.importView.Init()
			case "x":
				return m, m.logoutCmd()
			}
		}
	case view.BackMsg:
		m.currentView = ViewMenu
		return m, nil
	case view.NavigateLoginMsg:
		m.currentView = ViewLogin
		m.loginView = view.NewLoginModel(m.sessions)

		return m, m.loginView.Init()
	case view.NavigateHomeMsg:
		m.currentView = ViewMenu
		return m, nil
	}

	switch m.currentView {
	case ViewLogin:
		var newModel tea.Model
		newModel, cmd = m.loginView.Update(msg)
		m.loginView = newModel.(view.LoginModel)
	case ViewCheckout:
		var newModel tea.Model
		newModel, cmd = m.checkoutView.Update(msg)
		m.checkoutView = newModel.(view.CheckoutModel)
	case ViewCustomers:
		var newModel tea.Model
		newModel, cmd = m.customersView.Update(msg)
		m.customersView = newModel.(view.CustomersModel)
	case ViewServices:
		var newModel tea.Model
		newModel, cmd = m.servicesView.Update(msg)
		m.servicesView = newModel.(view.ServicesModel)
	case ViewOrders:
		var newModel tea.Model
		newModel, cmd = m.ordersView.Update(msg)
		m.ordersView = newModel.(view.OrdersModel)
	case ViewReports:
		var newModel tea.Model
		newModel, cmd = m.reportsView.Update(msg)
		m.reportsView = newModel.(view.ReportsModel)
	case ViewImport:
		var newModel tea.Model
		newModel, cmd = m.importView.Update(msg)
		m.importView = newModel.(view.ImportModel)
	}

	return m, cmd
}

func (m model) logoutCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := view.ReqCtx()
		defer cancel()

		m.sessions.Logout(ctx)

		return nil
	}
}

func (m model) View() string {
	switch m.currentView {
	case ViewLogin:
		return m.loginView.View()
	case ViewMenu:
		return m.viewMenu()
	case ViewCheckout:
		return m.checkoutView.View()
	case ViewCustomers:
		return m.customersView.View()
	case ViewServices:
		return m.servicesView.View()
	case ViewOrders:
		return m.ordersView.View()
	case ViewReports:
		return m.reportsView.View()
	case ViewImport:
		return m.importView.View()
	}

	return "Unknown View"
}

func (m model) viewMenu() string {
	greeting := "Cuci Kilat POS"
	if u := m.sessions.User(); u != nil {
		greeting += " - " + u.Name
	}

	return lipgloss.NewStyle().Padding(2).Render(
		greeting + "\n\n" +
			"1. New Order (Checkout)\n" +
			"2. Order Progress\n" +
			"3. Customers\n" +
			"4. Services\n" +
			"5. Reports\n" +
			"6. Import Customers\n\n" +
			"x. Logout\n" +
			"q. Quit",
	)
}

func main() {
	_ = godotenv.Load()

	nav := &programNavigator{}

	p := tea.NewProgram(initialModel(nav))
	nav.attach(p)

	if _, err := p.Run(); err != nil {
		slog.Error("failed to run TUI", "error", err)
		os.Exit(1)
	}
}
