package tui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/taskprobe/taskprobe/internal/app"
)

// Update handles incoming messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		// Geometry change only: the controller re-applies its cache, the
		// target is never touched.
		m.session.Controller.Resize(msg.Width, m.panelHeight())
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case MsgSessionEvent:
		return m.handleSessionEvent(msg)

	case MsgResumed:
		m.running = true
		return m, nil

	case MsgError:
		m.err = msg.Err
		return m, nil
	}

	return m, nil
}

// handleKey processes a key press.
func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	ctrl := m.session.Controller

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.session.Close()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		m.help.ShowAll = m.showHelp
		return m, nil

	case key.Matches(msg, m.keys.Up):
		ctrl.Scroll(-1)
		return m, nil

	case key.Matches(msg, m.keys.Down):
		ctrl.Scroll(1)
		return m, nil

	case key.Matches(msg, m.keys.PageUp):
		ctrl.Scroll(-m.panelHeight())
		return m, nil

	case key.Matches(msg, m.keys.PageDown):
		ctrl.Scroll(m.panelHeight())
		return m, nil

	case key.Matches(msg, m.keys.Refresh):
		m.err = nil
		ctrl.Refresh()
		return m, nil

	case key.Matches(msg, m.keys.Continue):
		if !m.session.Live() {
			return m, nil
		}
		m.err = nil
		return m, m.resumeTarget()

	case key.Matches(msg, m.keys.Halt):
		if !m.session.Live() {
			return m, nil
		}
		if err := m.session.Interrupt(); err != nil {
			m.err = err
		}
		return m, nil
	}

	return m, nil
}

// handleSessionEvent reacts to a stop delivered by the debug session. Both
// kinds re-walk memory; only a genuine halt leaves the target stopped and
// control with the user.
func (m *Model) handleSessionEvent(msg MsgSessionEvent) (tea.Model, tea.Cmd) {
	switch ev := msg.Event.(type) {
	case app.EventStopped:
		m.running = false
		m.session.Controller.Refresh()

	case app.EventPollHit:
		m.session.Controller.Refresh()
		ev.Ack() // lets the target resume
	}
	return m, listenEvents(m.session)
}

// resumeTarget returns a command that continues the target.
func (m *Model) resumeTarget() tea.Cmd {
	return func() tea.Msg {
		if err := m.session.Resume(); err != nil {
			return MsgError{Err: err}
		}
		return MsgResumed{}
	}
}
