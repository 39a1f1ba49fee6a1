package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mmcdole/moviebase/internal/tui/styles"
)

// InputModal asks for a single line of text, such as a new list name
type InputModal struct {
	visible bool
	title   string
	errText string
	input   textinput.Model
}

// NewInputModal creates a hidden input modal
func NewInputModal() InputModal {
	ti := textinput.New()
	ti.Placeholder = "List name..."
	ti.CharLimit = 60
	ti.Width = 30
	ti.Prompt = "> "
	ti.TextStyle = lipgloss.NewStyle().Foreground(styles.White)
	ti.PlaceholderStyle = styles.DimStyle

	return InputModal{input: ti}
}

// Show displays the modal with a title and an empty input
func (m *InputModal) Show(title string) {
	m.visible = true
	m.title = title
	m.errText = ""
	m.input.SetValue("")
	m.input.Focus()
}

// Hide dismisses the modal
func (m *InputModal) Hide() {
	m.visible = false
	m.input.Blur()
}

// IsVisible returns whether the modal is shown
func (m InputModal) IsVisible() bool {
	return m.visible
}

// Value returns the trimmed input
func (m InputModal) Value() string {
	return strings.TrimSpace(m.input.Value())
}

// Update handles input events, returns (modal, cmd, submitted).
// Enter on blank input is refused in place.
func (m InputModal) Update(msg tea.Msg) (InputModal, tea.Cmd, bool) {
	if !m.visible {
		return m, nil, false
	}

	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "enter":
			if m.Value() == "" {
				m.errText = "Name cannot be empty"
				return m, nil, false
			}
			m.Hide()
			return m, nil, true
		case "esc":
			m.Hide()
			return m, nil, false
		}
	}

	m.errText = ""
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd, false
}

// View renders the input modal
func (m InputModal) View() string {
	if !m.visible {
		return ""
	}

	const modalWidth = 36

	row := lipgloss.NewStyle().
		Width(modalWidth).
		Background(styles.SlateDark)

	hint := styles.DimStyle.Render("Enter: Create  Esc: Cancel")
	if m.errText != "" {
		hint = styles.ErrorStyle.Render(m.errText)
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		row.Foreground(styles.White).Bold(true).Render(m.title),
		row.Render(""),
		row.Render(m.input.View()),
		row.Render(""),
		row.Render(hint),
	)

	return styles.ModalStyle.Render(content)
}
