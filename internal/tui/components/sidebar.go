package components

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mmcdole/moviebase/internal/domain"
	"github.com/mmcdole/moviebase/internal/tui/styles"
)

// ListEntry implements list.Item for a watchlist
type ListEntry struct {
	List domain.List
}

func (e ListEntry) FilterValue() string { return e.List.Name }

func (e ListEntry) Title() string {
	marker := "  "
	if !e.List.IsDeletable {
		marker = "★ "
	}
	return fmt.Sprintf("%s%s (%d)", marker, e.List.Name, len(e.List.Items))
}

func (e ListEntry) Description() string { return "" }

// BorderSize is the frame overhead of a bordered panel
const BorderSize = 2

// Sidebar shows the actor's lists
type Sidebar struct {
	list    list.Model
	focused bool
	width   int
	height  int
}

// NewSidebar creates a new sidebar component
func NewSidebar() Sidebar {
	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = false
	delegate.SetSpacing(0)

	delegate.Styles.SelectedTitle = lipgloss.NewStyle().
		Foreground(styles.White).
		Background(styles.SlateLight).
		Padding(0, 1)
	delegate.Styles.NormalTitle = lipgloss.NewStyle().
		Foreground(styles.LightGray).
		Padding(0, 1)

	l := list.New([]list.Item{}, delegate, 0, 0)
	l.Title = "Lists"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)
	l.SetShowPagination(false)
	l.Styles.Title = lipgloss.NewStyle().
		Foreground(styles.Amber).
		Bold(true).
		Padding(0, 1)

	return Sidebar{list: l}
}

// SetLists replaces the entries, keeping the cursor on the same list id
// when it still exists
func (s *Sidebar) SetLists(lists []domain.List) {
	current := s.SelectedID()

	items := make([]list.Item, len(lists))
	selected := 0
	for i, l := range lists {
		items[i] = ListEntry{List: l}
		if l.ID == current {
			selected = i
		}
	}
	s.list.SetItems(items)
	if len(items) > 0 {
		s.list.Select(selected)
	}
}

// Select moves the cursor to the list with id
func (s *Sidebar) Select(id string) {
	for i, item := range s.list.Items() {
		if item.(ListEntry).List.ID == id {
			s.list.Select(i)
			return
		}
	}
}

// SetSize updates the component dimensions
func (s *Sidebar) SetSize(width, height int) {
	s.width = width
	s.height = height
	s.list.SetSize(width-BorderSize, height-BorderSize)
}

// SetFocused sets the focus state
func (s *Sidebar) SetFocused(focused bool) {
	s.focused = focused
}

// IsFocused returns the focus state
func (s Sidebar) IsFocused() bool {
	return s.focused
}

// SelectedList returns the list under the cursor
func (s Sidebar) SelectedList() (domain.List, bool) {
	item := s.list.SelectedItem()
	if item == nil {
		return domain.List{}, false
	}
	return item.(ListEntry).List, true
}

// SelectedID returns the id of the list under the cursor, or ""
func (s Sidebar) SelectedID() string {
	l, ok := s.SelectedList()
	if !ok {
		return ""
	}
	return l.ID
}

// Update handles navigation keys while focused
func (s Sidebar) Update(msg tea.Msg) (Sidebar, tea.Cmd) {
	if !s.focused {
		return s, nil
	}

	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "j", "down":
			s.list.CursorDown()
		case "k", "up":
			s.list.CursorUp()
		case "g", "home":
			s.list.Select(0)
		case "G", "end":
			s.list.Select(len(s.list.Items()) - 1)
		}
	}

	return s, nil
}

// View renders the component
func (s Sidebar) View() string {
	style := styles.InactiveBorder
	if s.focused {
		style = styles.ActiveBorder
	}

	frameW, frameH := style.GetFrameSize()

	return style.
		Width(s.width - frameW).
		Height(s.height - frameH).
		Render(s.list.View())
}
