package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mmcdole/moviebase/internal/domain"
	"github.com/mmcdole/moviebase/internal/tui/styles"
)

// View renders the UI
func (m Model) View() string {
	if !m.Ready {
		return "Loading..."
	}

	switch m.State {
	case StateHelp:
		return m.renderHelp()
	case StateConfirm:
		return m.renderConfirm()
	}

	content := lipgloss.JoinHorizontal(
		lipgloss.Top,
		m.Sidebar.View(),
		m.Items.View(),
	)

	view := lipgloss.JoinVertical(
		lipgloss.Left,
		content,
		m.renderFooter(),
	)

	// Only one modal is visible at a time
	var modal string
	switch {
	case m.InputModal.IsVisible():
		modal = m.InputModal.View()
	case m.MembershipModal.IsVisible():
		modal = m.MembershipModal.View()
	case m.PickerModal.IsVisible():
		modal = m.PickerModal.View()
	}
	if modal != "" {
		view = lipgloss.Place(m.Width, m.Height,
			lipgloss.Center, lipgloss.Center,
			modal)
	}

	return view
}

// renderFooter renders a single-line footer: status on the left, write
// state in the middle, view settings on the right
func (m Model) renderFooter() string {
	spinner := styles.SpinnerFrames[m.SpinnerFrame%len(styles.SpinnerFrames)]

	var left string
	switch {
	case !m.ready():
		left = styles.AccentStyle.Render(spinner) + " " + styles.DimStyle.Render("Loading lists...")
	case m.StatusMsg != "" && m.StatusIsErr:
		left = styles.ErrorStyle.Render(m.StatusMsg)
	case m.StatusMsg != "":
		left = styles.DimStyle.Render(m.StatusMsg)
	}
	if n := m.selection.Len(); n > 0 {
		left += styles.AccentStyle.Render(fmt.Sprintf("  %d selected", n))
	}

	var center string
	switch {
	case m.Pending:
		center = styles.AccentStyle.Render(spinner) + styles.DimStyle.Render(" saving")
	case m.Warning != "":
		center = styles.WarningStyle.Render("! " + styles.Truncate(m.Warning, max(m.Width/3, 10)))
	case m.ready():
		center = styles.SuccessStyle.Render("✓") + styles.DimStyle.Render(" saved")
	}

	right := styles.DimStyle.Render(fmt.Sprintf("%s · %s%s · %s ",
		m.query.Kind, m.query.Sort, sortArrow(m.query.Desc), m.actor)) +
		styles.AccentStyle.Render("?") + styles.DimStyle.Render(" help")

	leftWidth := lipgloss.Width(left)
	centerWidth := lipgloss.Width(center)
	rightWidth := lipgloss.Width(right)

	if leftWidth+centerWidth+rightWidth >= m.Width {
		gap := max(m.Width-leftWidth-rightWidth, 0)
		return left + strings.Repeat(" ", gap) + right
	}

	available := m.Width - leftWidth - rightWidth
	leftPad := (available - centerWidth) / 2
	rightPad := available - centerWidth - leftPad

	return left + strings.Repeat(" ", leftPad) + center + strings.Repeat(" ", rightPad) + right
}

func sortArrow(desc bool) string {
	if desc {
		return " ↓"
	}
	return " ↑"
}

// renderHelp renders the help screen
func (m Model) renderHelp() string {
	help := `
NAVIGATION                      SELECTION
  j/k        Up/down               Space  Toggle item
  g/G        First/last item       a      Select all shown
  Tab        Switch pane           A      Deselect all
  Enter      Open list             Esc    Clear selection/filter

ITEMS                           LISTS
  d          Remove from list      n      New list
  m          Move to list          x      Delete list
  l          Lists for item

VIEW                            OTHER
  /          Filter titles         ?      This help
  f          Movies/series         q      Quit
  s / S      Sort / reverse

Press any key to return...
`

	return lipgloss.Place(m.Width, m.Height,
		lipgloss.Center, lipgloss.Center,
		styles.ModalStyle.Render(help))
}

// renderConfirm renders the pending destructive action
func (m Model) renderConfirm() string {
	prompt := ""
	if m.confirm != nil {
		prompt = m.confirm.prompt
	}
	body := styles.TitleStyle.Render(prompt) + "\n\n" +
		styles.AccentStyle.Render("[Y]") + " Yes      " + styles.AccentStyle.Render("[N]") + " No"

	return lipgloss.Place(m.Width, m.Height,
		lipgloss.Center, lipgloss.Center,
		styles.ModalStyle.Render(body))
}

func plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

func membershipStatus(msg MembershipSavedMsg) string {
	if msg.Count == 0 {
		return fmt.Sprintf("Removed %s from all lists", msg.Title)
	}
	return fmt.Sprintf("%s is in %s", msg.Title, plural(msg.Count, "list"))
}

func bulkDeleteStatus(msg BulkDeletedMsg) string {
	return fmt.Sprintf("Removed %s from %s", plural(msg.Removed, "item"), msg.ListName)
}

func bulkMoveStatus(msg BulkMovedMsg) string {
	r := msg.Report
	moved := r.Count(domain.MoveMoved) + r.Count(domain.MoveSkippedAdd)
	text := fmt.Sprintf("Moved %s to %s", plural(moved, "item"), msg.DestName)
	if n := r.Count(domain.MoveFailed); n > 0 {
		text += fmt.Sprintf(", %d failed", n)
	}
	if n := r.Count(domain.MoveDuplicated); n > 0 {
		text += fmt.Sprintf(", %d left in both lists", n)
	}
	return text
}
