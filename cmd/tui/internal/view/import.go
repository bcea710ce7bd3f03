package view

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/filepicker"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/cucikilat/pos/internal/catalog"
	"github.com/cucikilat/pos/internal/importer"
)

const importTimeout = 2 * time.Minute

type importState int

const (
	importStateFilePick importState = iota
	importStateParsing
	importStatePreview
	importStateImporting
	importStateResult
)

// ImportModel walks the counter staff through importing a customer CSV:
// pick a file, review what will be imported, confirm.
type ImportModel struct {
	customers *catalog.Store[catalog.Customer]
	service   *importer.Service

	state      importState
	filePicker filepicker.Model
	result     *importer.Result

	status string
	err    error
}

func NewImportModel(customers *catalog.Store[catalog.Customer], svc *importer.Service) ImportModel {
	fp := filepicker.New()
	fp.CurrentDirectory, _ = os.Getwd()
	fp.ShowHidden = false
	fp.DirAllowed = false
	fp.FileAllowed = true
	fp.AllowedTypes = []string{".csv"}
	fp.SetHeight(15)

	return ImportModel{
		customers:  customers,
		service:    svc,
		filePicker: fp,
	}
}

func (m ImportModel) Title() string { return "Import Customers" }

func (m ImportModel) ShortHelp() string {
	switch m.state {
	case importStatePreview:
		return "Enter: import | Esc: cancel"
	}

	return "Esc: back | Enter: select"
}

func (m ImportModel) Init() tea.Cmd {
	return m.filePicker.Init()
}

func (m ImportModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyEsc {
			return m.handleEsc()
		}

		if m.state == importStatePreview && msg.Type == tea.KeyEnter {
			if len(m.result.Customers) == 0 {
				m.state = importStateResult
				m.status = "Nothing to import."

				return m, nil
			}

			m.state = importStateImporting
			m.status = fmt.Sprintf("Importing %d customers...", len(m.result.Customers))

			return m, m.importCmd(m.result.Customers)
		}

	case parseResultMsg:
		if msg.err != nil {
			m.state = importStateResult
			m.err = msg.err
			m.status = fmt.Sprintf("Error: %v", msg.err)

			return m, nil
		}

		m.result = msg.result
		m.state = importStatePreview

		return m, nil

	case importDoneMsg:
		m.state = importStateResult
		if msg.err != nil {
			m.err = msg.err
			m.status = fmt.Sprintf("Imported %d of %d customers before failing: %v",
				msg.imported, msg.total, msg.err)

			return m, nil
		}

		m.status = fmt.Sprintf("Imported %d customers.", msg.imported)

		return m, nil
	}

	if m.state != importStateFilePick {
		return m, nil
	}

	var cmd tea.Cmd
	m.filePicker, cmd = m.filePicker.Update(msg)

	if didSelect, path := m.filePicker.DidSelectFile(msg); didSelect {
		m.state = importStateParsing
		m.status = fmt.Sprintf("Reading %s...", path)

		return m, m.parseCmd(path)
	}

	return m, cmd
}

func (m ImportModel) handleEsc() (tea.Model, tea.Cmd) {
	switch m.state {
	case importStatePreview, importStateResult:
		m.state = importStateFilePick
		m.result = nil
		m.err = nil
		m.status = ""

		return m, m.filePicker.Init()
	}

	return m, Back
}

func (m ImportModel) View() string {
	switch m.state {
	case importStateFilePick:
		return lipgloss.NewStyle().Padding(1).Render(
			"Select a customer CSV (name, phone, address, email):\n\n" + m.filePicker.View(),
		)
	case importStateParsing, importStateImporting:
		return lipgloss.NewStyle().Padding(2).Render(m.status)
	case importStatePreview:
		return m.viewPreview()
	case importStateResult:
		return m.viewResult()
	}

	return ""
}

func (m ImportModel) viewPreview() string {
	var b strings.Builder

	fmt.Fprintf(&b, "Ready to import %d customers.\n", len(m.result.Customers))

	for i, c := range m.result.Customers {
		if i == 10 {
			fmt.Fprintf(&b, "  ... and %d more\n", len(m.result.Customers)-i)
			break
		}

		fmt.Fprintf(&b, "  %s  %s\n", c.Name, c.Phone)
	}

	if len(m.result.Duplicates) > 0 {
		fmt.Fprintf(&b, "\nSkipping %d rows whose phone number already exists:\n", len(m.result.Duplicates))

		for _, c := range m.result.Duplicates {
			fmt.Fprintf(&b, "  %s  %s\n", c.Name, c.Phone)
		}
	}

	if len(m.result.Errors) > 0 {
		fmt.Fprintf(&b, "\nRejected %d rows:\n", len(m.result.Errors))

		for _, e := range m.result.Errors {
			fmt.Fprintf(&b, "  line %d: %s\n", e.Line, e.Reason)
		}
	}

	b.WriteString("\nEnter to import, Esc to cancel.")

	return lipgloss.NewStyle().Padding(1).Render(b.String())
}

func (m ImportModel) viewResult() string {
	style := lipgloss.NewStyle().Padding(2)
	if m.err != nil {
		return style.Render(
			lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Render(m.status) +
				"\n\n(Esc to go back)",
		)
	}

	return style.Render(
		lipgloss.NewStyle().Foreground(lipgloss.Color("46")).Render(m.status) +
			"\n\n(Esc to go back)",
	)
}

// Messages

type parseResultMsg struct {
	result *importer.Result
	err    error
}

type importDoneMsg struct {
	imported int
	total    int
	err      error
}

func (m ImportModel) parseCmd(path string) tea.Cmd {
	return func() tea.Msg {
		f, err := os.Open(path)
		if err != nil {
			return parseResultMsg{err: err}
		}
		defer f.Close()

		result, err := m.service.Parse(f)
		if err != nil {
			return parseResultMsg{err: err}
		}

		return parseResultMsg{result: result}
	}
}

func (m ImportModel) importCmd(customers []catalog.Customer) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), importTimeout)
		defer cancel()

		for i, c := range customers {
			if _, err := m.customers.Create(ctx, c); err != nil {
				return importDoneMsg{imported: i, total: len(customers), err: err}
			}
		}

		return importDoneMsg{imported: len(customers), total: len(customers)}
	}
}
