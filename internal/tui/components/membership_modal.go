package components

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mmcdole/moviebase/internal/domain"
	"github.com/mmcdole/moviebase/internal/tui/styles"
)

// MembershipModal edits which lists one item belongs to
type MembershipModal struct {
	visible bool
	item    domain.CatalogItem
	lists   []domain.List
	checked map[string]bool
	cursor  int
	width   int
}

// NewMembershipModal creates a hidden modal
func NewMembershipModal() MembershipModal {
	return MembershipModal{checked: make(map[string]bool)}
}

// Show opens the modal for item with its current membership pre-checked
func (m *MembershipModal) Show(lists []domain.List, membership map[string]bool, item domain.CatalogItem) {
	m.visible = true
	m.item = item
	m.lists = lists
	m.cursor = 0
	m.checked = make(map[string]bool, len(membership))
	for id, member := range membership {
		m.checked[id] = member
	}
}

// Hide dismisses the modal
func (m *MembershipModal) Hide() {
	m.visible = false
}

// IsVisible returns whether the modal is shown
func (m MembershipModal) IsVisible() bool {
	return m.visible
}

// Item returns the item being edited
func (m MembershipModal) Item() domain.CatalogItem {
	return m.item
}

// SetWidth limits the modal to the terminal width
func (m *MembershipModal) SetWidth(width int) {
	m.width = width
}

// CheckedIDs returns the checked list ids in collection order
func (m MembershipModal) CheckedIDs() []string {
	ids := make([]string, 0, len(m.checked))
	for _, l := range m.lists {
		if m.checked[l.ID] {
			ids = append(ids, l.ID)
		}
	}
	return ids
}

// HandleKeyMsg processes a key, returns (handled, submit). Enter submits the
// checked set, esc discards it.
func (m *MembershipModal) HandleKeyMsg(msg tea.KeyMsg) (handled bool, submit bool) {
	if !m.visible {
		return false, false
	}

	switch msg.String() {
	case "j", "down":
		if m.cursor < len(m.lists)-1 {
			m.cursor++
		}
	case "k", "up":
		if m.cursor > 0 {
			m.cursor--
		}
	case " ", "x":
		if m.cursor < len(m.lists) {
			id := m.lists[m.cursor].ID
			m.checked[id] = !m.checked[id]
		}
	case "enter":
		m.visible = false
		return true, true
	case "esc", "q":
		m.visible = false
	}

	// Consume all keys when visible
	return true, false
}

// View renders the membership modal
func (m MembershipModal) View() string {
	if !m.visible {
		return ""
	}

	modalWidth := 40
	if m.width > 0 && m.width < 60 {
		modalWidth = m.width - 10
	}
	rowWidth := modalWidth - 4

	var lines []string
	lines = append(lines, styles.ModalTitleStyle.Render(styles.Truncate("Lists for "+m.item.Title, rowWidth)))

	for i, l := range m.lists {
		box := styles.UncheckedBox
		if m.checked[l.ID] {
			box = styles.CheckedBox
		}
		text := styles.Pad(box+" "+l.Name, rowWidth)

		style := lipgloss.NewStyle().Foreground(styles.LightGray)
		switch {
		case i == m.cursor:
			style = lipgloss.NewStyle().Foreground(styles.White).Background(styles.SlateLight)
		case m.checked[l.ID]:
			style = lipgloss.NewStyle().Foreground(styles.Amber)
		}
		lines = append(lines, "  "+style.Render(text))
	}

	lines = append(lines, "", styles.DimStyle.Render("Space: Toggle  Enter: Save  Esc: Cancel"))

	return styles.ModalStyle.
		Width(modalWidth).
		Render(strings.Join(lines, "\n"))
}
