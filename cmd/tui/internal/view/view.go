package view

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// View is the interface all TUI screens implement.
type View interface {
	tea.Model
	Title() string
	ShortHelp() string
}

type BackMsg struct{}

func Back() tea.Msg {
	return BackMsg{}
}

// NavigateLoginMsg forces the app back to the login screen. Sent when the
// session expires or the user logs out; a no-op if already there.
type NavigateLoginMsg struct{}

// NavigateHomeMsg moves to the main menu after a successful login.
type NavigateHomeMsg struct{}

const requestTimeout = 30 * time.Second

// ReqCtx returns a context with the standard timeout for backend requests.
func ReqCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), requestTimeout)
}
