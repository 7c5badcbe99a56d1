package tui

import (
	"strings"
)

// columnHeader labels the panel columns; kept in sync with the render
// pipeline's field order.
const columnHeader = "  id  state          polls  waker      location"

// View renders the TUI.
func (m *Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	var b strings.Builder

	// Title
	title := m.styles.Title.Render(m.session.Controller.Title())
	status := m.styles.Stopped.Render("stopped")
	if m.running {
		status = m.styles.Running.Render("running")
	}
	b.WriteString(title + "  " + status + "\n")

	if m.err != nil {
		b.WriteString(m.styles.ErrorMsg.Render("Error: "+m.err.Error()) + "\n")
	} else {
		b.WriteString(m.styles.Header.Render(columnHeader) + "\n")
	}

	// Panel content: the controller serves its cached lines for the current
	// geometry.
	lines := m.session.Controller.Render(m.width, m.panelHeight())
	for i, line := range lines {
		b.WriteString(m.styleLine(line))
		if i < len(lines)-1 {
			b.WriteString("\n")
		}
	}
	for i := len(lines); i < m.panelHeight(); i++ {
		b.WriteString("\n")
	}

	// Footer
	b.WriteString("\n")
	b.WriteString(m.styles.Footer.Render(m.help.View(m.keys)))

	return b.String()
}

// styleLine highlights diagnostic lines from the render pipeline.
func (m *Model) styleLine(line string) string {
	switch {
	case strings.HasPrefix(line, "warning:"):
		return m.styles.WarningLine.Render(line)
	case strings.HasPrefix(line, "task registry unavailable:"),
		strings.HasPrefix(line, "inspector error:"):
		return m.styles.ErrorMsg.Render(line)
	default:
		return line
	}
}
