// Package tui hosts the inspector panel in a terminal, standing in for the
// debugger's window framework: it routes resize, scroll, and stop events to
// the window controller and presents whatever the controller renders.
package tui

import (
	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/taskprobe/taskprobe/internal/app"
)

// chromeLines is the vertical space taken by the title and footer rows.
const chromeLines = 3

// Model is the main bubbletea model for the TUI.
type Model struct {
	session *app.Session
	err     error

	keys   KeyMap
	styles Styles
	help   help.Model

	width    int
	height   int
	running  bool
	showHelp bool
}

// New creates a TUI Model hosting the given session's panel.
func New(session *app.Session) *Model {
	return &Model{
		session: session,
		keys:    DefaultKeyMap(),
		styles:  DefaultStyles(),
		help:    help.New(),
	}
}

// Init starts listening for session events.
func (m *Model) Init() tea.Cmd {
	if !m.session.Live() {
		return nil
	}
	return listenEvents(m.session)
}

// listenEvents returns a command that blocks on the next session event.
func listenEvents(s *app.Session) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-s.Events()
		if !ok {
			return nil
		}
		return MsgSessionEvent{Event: ev}
	}
}

// panelHeight returns the rows available to the panel itself.
func (m *Model) panelHeight() int {
	h := m.height - chromeLines
	if h < 0 {
		return 0
	}
	return h
}

// Run starts the TUI program over the session and blocks until it exits.
func Run(session *app.Session) error {
	p := tea.NewProgram(New(session), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
