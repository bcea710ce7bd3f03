package view

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/cucikilat/pos/internal/session"
)

type LoginModel struct {
	sessions *session.Manager

	form    *huh.Form
	loading bool
	errMsg  string

	username string
	password string
}

func NewLoginModel(sessions *session.Manager) LoginModel {
	m := LoginModel{sessions: sessions}
	m.form = m.newForm()

	return m
}

func (m LoginModel) newForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("username").
				Title("Username").
				Value(&m.username).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("username is required")
					}
					return nil
				}),

			huh.NewInput().
				Key("password").
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&m.password).
				Validate(func(s string) error {
					if s == "" {
						return fmt.Errorf("password is required")
					}
					return nil
				}),
		),
	).WithWidth(40).WithShowHelp(false)
}

func (m LoginModel) Title() string     { return "Login" }
func (m LoginModel) ShortHelp() string { return "Enter: submit | Ctrl+C: quit" }

func (m LoginModel) Init() tea.Cmd {
	return m.form.Init()
}

type loginDoneMsg struct {
	err error
}

func (m LoginModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loginDoneMsg:
		m.loading = false
		if msg.err != nil {
			m.errMsg = msg.err.Error()
			m.form = m.newForm()

			return m, m.form.Init()
		}

		// Success navigates via the session manager's Navigator.
		return m, nil
	}

	if m.loading {
		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	m.loading = true
	m.errMsg = ""
	username := m.form.GetString("username")
	password := m.form.GetString("password")

	return m, func() tea.Msg {
		ctx, cancel := ReqCtx()
		defer cancel()

		err := m.sessions.Login(ctx, session.Credentials{
			Username: username,
			Password: password,
		})

		return loginDoneMsg{err: err}
	}
}

func (m LoginModel) View() string {
	title := lipgloss.NewStyle().Bold(true).Render("CuciKilat POS")

	body := m.form.View()
	if m.loading {
		body = "Signing in..."
	}

	content := title + "\n\n" + body

	if m.errMsg != "" {
		content += "\n\n" + lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Render(m.errMsg)
	}

	return lipgloss.NewStyle().Padding(2).Render(content)
}
