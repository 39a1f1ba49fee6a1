package tui

// paneLayout holds calculated pane widths for the View
type paneLayout struct {
	sidebarWidth int
	itemsWidth   int
}

// calculateLayout splits the terminal between the sidebar and the item pane
func calculateLayout(availableWidth int) paneLayout {
	sidebar := max(availableWidth*SidebarPercent/100, MinSidebarWidth)
	items := availableWidth - sidebar
	if items < MinColumnWidth {
		// Narrow terminal: give the item pane its minimum first
		items = min(MinColumnWidth, availableWidth)
		sidebar = availableWidth - items
	}
	return paneLayout{sidebarWidth: sidebar, itemsWidth: items}
}

// updateLayout updates component sizes based on window size
func (m *Model) updateLayout() {
	if m.Width == 0 || m.Height == 0 {
		return
	}

	contentHeight := m.Height - ChromeHeight
	layout := calculateLayout(m.Width)

	m.Sidebar.SetSize(layout.sidebarWidth, contentHeight)
	m.Items.SetSize(layout.itemsWidth, contentHeight)
	m.MembershipModal.SetWidth(m.Width)
}
