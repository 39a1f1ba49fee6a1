package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mmcdole/moviebase/internal/domain"
	"github.com/mmcdole/moviebase/internal/tui/styles"
)

// PickerModal is a small popup for choosing a destination list
type PickerModal struct {
	visible bool
	title   string
	options []domain.List
	cursor  int
}

// NewPickerModal creates a hidden picker
func NewPickerModal() PickerModal {
	return PickerModal{}
}

// Show displays the modal with options
func (m *PickerModal) Show(title string, options []domain.List) {
	m.visible = true
	m.title = title
	m.options = options
	m.cursor = 0
}

// Hide dismisses the modal
func (m *PickerModal) Hide() {
	m.visible = false
}

// IsVisible returns whether the modal is shown
func (m PickerModal) IsVisible() bool {
	return m.visible
}

// HandleKey processes a key press, returns (handled, choice).
// choice is non-nil when the user confirmed a list.
func (m *PickerModal) HandleKey(key string) (handled bool, choice *domain.List) {
	if !m.visible {
		return false, nil
	}

	switch key {
	case "j", "down":
		if m.cursor < len(m.options)-1 {
			m.cursor++
		}
	case "k", "up":
		if m.cursor > 0 {
			m.cursor--
		}
	case "enter":
		m.visible = false
		if m.cursor < len(m.options) {
			chosen := m.options[m.cursor]
			return true, &chosen
		}
	case "esc", "q", "m":
		m.visible = false
	}

	return true, nil
}

// View renders the picker
func (m PickerModal) View() string {
	if !m.visible {
		return ""
	}

	const rowWidth = 28

	var lines []string
	if len(m.options) == 0 {
		lines = append(lines, styles.DimStyle.Render(styles.Pad("No other lists", rowWidth)))
	}
	for i, opt := range m.options {
		text := styles.Pad("  "+opt.Name, rowWidth)
		if i == m.cursor {
			lines = append(lines, lipgloss.NewStyle().
				Foreground(styles.White).
				Background(styles.SlateLight).
				Render(text))
			continue
		}
		lines = append(lines, lipgloss.NewStyle().
			Foreground(styles.LightGray).
			Render(text))
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(styles.Amber).
		Background(styles.SlateDark).
		Padding(0, 1).
		Render(styles.ModalTitleStyle.Render(m.title) + "\n" + strings.Join(lines, "\n"))
}
