package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/moviebase/internal/lists"
	"github.com/mmcdole/moviebase/internal/view"
)

// handleKeyMsg routes a key to the topmost layer: help, confirmation,
// modals, the filter input, then the panes
func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	switch {
	case m.State == StateHelp:
		m.State = StateBrowsing
		return m, nil

	case m.State == StateConfirm:
		return m.handleConfirmKey(msg)

	case m.InputModal.IsVisible():
		var cmd tea.Cmd
		var submitted bool
		m.InputModal, cmd, submitted = m.InputModal.Update(msg)
		if submitted {
			return m, CreateListCmd(m.Lists, m.InputModal.Value())
		}
		return m, cmd

	case m.MembershipModal.IsVisible():
		if _, submit := m.MembershipModal.HandleKeyMsg(msg); submit {
			return m, SetMembershipCmd(m.Lists, m.MembershipModal.Item(), m.MembershipModal.CheckedIDs())
		}
		return m, nil

	case m.PickerModal.IsVisible():
		_, dest := m.PickerModal.HandleKey(msg.String())
		if dest != nil {
			items, source := m.moveItems, m.moveSource
			m.moveItems, m.moveSource = nil, ""
			return m, BulkMoveCmd(m.Lists, source, *dest, items)
		}
		if !m.PickerModal.IsVisible() {
			m.moveItems, m.moveSource = nil, ""
		}
		return m, nil

	case m.Items.IsFiltering():
		return m.handleFilterKey(msg)
	}

	return m.handleBrowseKey(msg)
}

func (m Model) handleBrowseKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, Keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, Keys.Help):
		m.State = StateHelp
		return m, nil

	case key.Matches(msg, Keys.Escape):
		switch {
		case m.selection.Len() > 0:
			m.selection = lists.DeselectAll()
		case m.Items.FilterQuery() != "":
			m.Items.ClearFilter()
		}
		m.setStatus("", false)
		m.project()
		return m, nil

	case key.Matches(msg, Keys.SwitchPane):
		m.focusItems(!m.Items.IsFocused())
		return m, nil

	case key.Matches(msg, Keys.Enter):
		if m.Sidebar.IsFocused() {
			m.focusItems(true)
		}
		return m, nil

	case key.Matches(msg, Keys.Filter):
		m.focusItems(true)
		return m, m.Items.StartFilter()

	case key.Matches(msg, Keys.KindFilter):
		m.query.Kind = m.query.Kind.Next()
		m.Items.ResetCursor()
		m.project()
		m.setStatus("Showing "+m.query.Kind.String(), false)
		return m, nil

	case key.Matches(msg, Keys.Sort):
		m.query.Sort = m.query.Sort.Next()
		m.project()
		m.setStatus("Sorted by "+m.query.Sort.String(), false)
		return m, nil

	case key.Matches(msg, Keys.ReverseSort):
		m.query.Desc = !m.query.Desc
		m.project()
		return m, nil

	case key.Matches(msg, Keys.DeselectAll):
		m.selection = lists.DeselectAll()
		m.project()
		return m, nil

	case key.Matches(msg, Keys.SelectAll):
		m.selection = lists.SelectAll(lists.KeysOf(view.Items(m.rows)))
		m.project()
		return m, nil

	case key.Matches(msg, Keys.ToggleSelect):
		if !m.Items.IsFocused() {
			return m, nil
		}
		if item, ok := m.Items.SelectedItem(); ok {
			m.selection = lists.ToggleSelection(m.selection, item.Key())
			m.project()
			m.Items, _ = m.Items.Update(tea.KeyMsg{Type: tea.KeyDown})
		}
		return m, nil
	}

	// Everything below changes lists
	if isMutation(msg) && !m.ready() {
		m.setStatus("Lists are still loading", true)
		return m, nil
	}

	switch {
	case key.Matches(msg, Keys.NewList):
		m.InputModal.Show("New list")
		return m, nil

	case key.Matches(msg, Keys.DeleteList):
		l, ok := m.currentList()
		if !ok {
			return m, nil
		}
		if !l.IsDeletable {
			m.setStatus(l.Name+" cannot be deleted", true)
			return m, nil
		}
		m.askConfirm(fmt.Sprintf("Delete list %q and its %d items?", l.Name, len(l.Items)), DeleteListCmd(m.Lists, l))
		return m, nil

	case key.Matches(msg, Keys.BulkDelete):
		l, _ := m.currentList()
		items := m.targetItems()
		if len(items) == 0 {
			return m, nil
		}
		m.askConfirm(fmt.Sprintf("Remove %s from %s?", plural(len(items), "item"), l.Name), BulkDeleteCmd(m.Lists, l, items))
		return m, nil

	case key.Matches(msg, Keys.BulkMove):
		l, _ := m.currentList()
		items := m.targetItems()
		if len(items) == 0 {
			return m, nil
		}
		m.moveItems, m.moveSource = items, l.ID
		m.PickerModal.Show(fmt.Sprintf("Move %s to", plural(len(items), "item")), m.destinations(l.ID))
		return m, nil

	case key.Matches(msg, Keys.Membership):
		item, ok := m.Items.SelectedItem()
		if !ok {
			return m, nil
		}
		m.MembershipModal.SetWidth(m.Width)
		m.MembershipModal.Show(m.collection.Lists, m.collection.Membership(item.Key()), item)
		return m, nil
	}

	// Navigation goes to the focused pane
	var cmd tea.Cmd
	if m.Sidebar.IsFocused() {
		before := m.Sidebar.SelectedID()
		m.Sidebar, cmd = m.Sidebar.Update(msg)
		if m.Sidebar.SelectedID() != before {
			m.project()
		}
		return m, cmd
	}
	m.Items, cmd = m.Items.Update(msg)
	return m, cmd
}

// handleFilterKey edits the live filter. Enter keeps the query, esc drops it.
func (m Model) handleFilterKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.Items.ClearFilter()
		m.project()
		return m, nil
	case "enter":
		m.Items.StopFilter()
		return m, nil
	}

	before := m.Items.FilterQuery()
	cmd := m.Items.UpdateFilter(msg)
	if m.Items.FilterQuery() != before {
		m.Items.ResetCursor()
		m.project()
	}
	return m, cmd
}

func (m Model) handleConfirmKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, Keys.Confirm):
		cmd := m.confirm.cmd
		m.confirm = nil
		m.State = StateBrowsing
		return m, cmd
	case key.Matches(msg, Keys.Deny):
		m.confirm = nil
		m.State = StateBrowsing
	}
	return m, nil
}

func (m *Model) askConfirm(prompt string, cmd tea.Cmd) {
	m.confirm = &confirmation{prompt: prompt, cmd: cmd}
	m.State = StateConfirm
}

func (m *Model) focusItems(focused bool) {
	m.Items.SetFocused(focused)
	m.Sidebar.SetFocused(!focused)
}

func isMutation(msg tea.KeyMsg) bool {
	return key.Matches(msg, Keys.NewList, Keys.DeleteList, Keys.BulkDelete, Keys.BulkMove, Keys.Membership)
}
