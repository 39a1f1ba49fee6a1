package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/moviebase/internal/domain"
	"github.com/mmcdole/moviebase/internal/tui/styles"
	"github.com/mmcdole/moviebase/internal/view"
)

// Rows reserved inside the border: title, more-above, more-below
const itemPaneChrome = 3

// ItemPane shows the projected items of one list
type ItemPane struct {
	title    string
	rows     []view.Row
	total    int
	selected func(domain.ItemKey) bool

	cursor int
	offset int

	filterActive bool
	filterInput  textinput.Model

	focused bool
	width   int
	height  int
}

// NewItemPane creates an empty item pane
func NewItemPane() ItemPane {
	ti := textinput.New()
	ti.Prompt = "/"
	ti.PromptStyle = styles.FilterPromptStyle
	ti.Placeholder = "filter titles"
	ti.PlaceholderStyle = styles.DimStyle
	ti.CharLimit = 64

	return ItemPane{
		filterInput: ti,
		selected:    func(domain.ItemKey) bool { return false },
	}
}

// SetRows replaces the visible rows. total is the unfiltered item count.
func (p *ItemPane) SetRows(title string, rows []view.Row, total int) {
	p.title = title
	p.rows = rows
	p.total = total
	p.clamp()
}

// SetSelectedFunc sets the predicate used to draw selection markers
func (p *ItemPane) SetSelectedFunc(fn func(domain.ItemKey) bool) {
	p.selected = fn
}

// SetSize updates the component dimensions
func (p *ItemPane) SetSize(width, height int) {
	p.width = width
	p.height = height
	p.clamp()
}

// SetFocused sets the focus state
func (p *ItemPane) SetFocused(focused bool) {
	p.focused = focused
}

// IsFocused returns the focus state
func (p ItemPane) IsFocused() bool {
	return p.focused
}

// ResetCursor moves back to the first row
func (p *ItemPane) ResetCursor() {
	p.cursor = 0
	p.offset = 0
}

// Cursor returns the cursor index into the visible rows
func (p ItemPane) Cursor() int {
	return p.cursor
}

// SelectedItem returns the item under the cursor
func (p ItemPane) SelectedItem() (domain.CatalogItem, bool) {
	if p.cursor < 0 || p.cursor >= len(p.rows) {
		return domain.CatalogItem{}, false
	}
	return p.rows[p.cursor].Item, true
}

// Filter state

// StartFilter focuses the filter input
func (p *ItemPane) StartFilter() tea.Cmd {
	p.filterActive = true
	return p.filterInput.Focus()
}

// StopFilter leaves the filter input but keeps the query
func (p *ItemPane) StopFilter() {
	p.filterInput.Blur()
	if p.filterInput.Value() == "" {
		p.filterActive = false
	}
}

// ClearFilter drops the query entirely
func (p *ItemPane) ClearFilter() {
	p.filterInput.SetValue("")
	p.filterInput.Blur()
	p.filterActive = false
}

// IsFiltering reports whether the filter input has focus
func (p ItemPane) IsFiltering() bool {
	return p.filterInput.Focused()
}

// FilterQuery returns the current filter text
func (p ItemPane) FilterQuery() string {
	return p.filterInput.Value()
}

// UpdateFilter routes a key to the filter input
func (p *ItemPane) UpdateFilter(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	p.filterInput, cmd = p.filterInput.Update(msg)
	return cmd
}

// Update handles navigation keys while focused
func (p ItemPane) Update(msg tea.Msg) (ItemPane, tea.Cmd) {
	if !p.focused {
		return p, nil
	}

	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "j", "down":
			p.cursor++
		case "k", "up":
			p.cursor--
		case "g", "home":
			p.cursor = 0
		case "G", "end":
			p.cursor = len(p.rows) - 1
		case "ctrl+d":
			p.cursor += p.maxVisible() / 2
		case "ctrl+u":
			p.cursor -= p.maxVisible() / 2
		}
		p.clamp()
	}

	return p, nil
}

func (p ItemPane) maxVisible() int {
	n := p.height - BorderSize - itemPaneChrome
	if p.filterActive {
		n--
	}
	return max(n, 1)
}

func (p *ItemPane) clamp() {
	if p.cursor >= len(p.rows) {
		p.cursor = len(p.rows) - 1
	}
	if p.cursor < 0 {
		p.cursor = 0
	}
	visible := p.maxVisible()
	if p.cursor < p.offset {
		p.offset = p.cursor
	}
	if p.cursor >= p.offset+visible {
		p.offset = p.cursor - visible + 1
	}
	if p.offset < 0 {
		p.offset = 0
	}
}

// Rendering

// View renders the component
func (p ItemPane) View() string {
	style := styles.InactiveBorder
	if p.focused {
		style = styles.ActiveBorder
	}
	frameW, frameH := style.GetFrameSize()

	return style.
		Width(p.width - frameW).
		Height(p.height - frameH).
		Render(p.renderContent())
}

func (p ItemPane) renderContent() string {
	itemWidth := max(p.width-BorderSize, 10)

	heading := fmt.Sprintf("%s (%d)", p.title, p.total)
	titleLine := styles.AccentStyle.Render(styles.Truncate(heading, itemWidth))

	if len(p.rows) == 0 {
		empty := "No items"
		if p.FilterQuery() != "" || p.total > 0 {
			empty = "No matches"
		}
		content := titleLine + "\n \n" + styles.DimStyle.Render(empty) + "\n "
		if p.filterActive {
			content += "\n" + p.renderFilterBar()
		}
		return content
	}

	end := min(p.offset+p.maxVisible(), len(p.rows))
	lines := make([]string, 0, end-p.offset)
	for i := p.offset; i < end; i++ {
		lines = append(lines, p.renderRow(p.rows[i], i == p.cursor && p.focused, itemWidth))
	}

	// Always reserve the scroll hint lines so the layout does not shift
	header := " "
	if p.offset > 0 {
		header = styles.DimStyle.Render("↑ more")
	}
	footer := " "
	if end < len(p.rows) {
		footer = styles.DimStyle.Render("↓ more")
	}

	content := titleLine + "\n" + header + "\n" + strings.Join(lines, "\n") + "\n" + footer
	if p.filterActive {
		content += "\n" + p.renderFilterBar()
	}
	return content
}

func (p ItemPane) renderRow(row view.Row, cursor bool, width int) string {
	item := row.Item

	mark := " "
	if p.selected(item.Key()) {
		mark = styles.SelectedChar
	}

	kind := styles.MovieChar
	kindFg := styles.Blue
	if item.Kind == domain.MediaKindSeries {
		kind = styles.SeriesChar
		kindFg = styles.Green
	}

	year := ""
	if y := item.ReleaseYear(); y > 0 {
		year = fmt.Sprintf(" (%d)", y)
	}

	// mark, space, kind, space, margins
	avail := max(width-6-len(year), 5)
	title := styles.Truncate(item.Title, avail)

	parts := []styles.RowPart{
		{Text: mark, Foreground: styles.Color(styles.Amber)},
		{Text: " " + kind + " ", Foreground: styles.Color(kindFg)},
	}
	parts = append(parts, highlightParts(title, row.MatchedIndexes)...)
	parts = append(parts, styles.RowPart{Text: year, Foreground: styles.Color(styles.DimGray)})

	return styles.RenderListRow(parts, cursor, width)
}

// highlightParts splits title into spans, coloring the bytes the fuzzy
// matcher reported
func highlightParts(title string, matched []int) []styles.RowPart {
	if len(matched) == 0 {
		return []styles.RowPart{{Text: title}}
	}
	hit := make(map[int]bool, len(matched))
	for _, i := range matched {
		hit[i] = true
	}

	var parts []styles.RowPart
	var run strings.Builder
	runHit := false
	flush := func() {
		if run.Len() == 0 {
			return
		}
		part := styles.RowPart{Text: run.String()}
		if runHit {
			part.Foreground = styles.Color(styles.Amber)
			part.Bold = true
		}
		parts = append(parts, part)
		run.Reset()
	}

	for i, r := range title {
		if hit[i] != runHit {
			flush()
			runHit = hit[i]
		}
		run.WriteRune(r)
	}
	flush()
	return parts
}

func (p ItemPane) renderFilterBar() string {
	bar := p.filterInput.View()
	if p.FilterQuery() != "" {
		bar += styles.DimStyle.Render(fmt.Sprintf(" [%d/%d]", len(p.rows), p.total))
	}
	return bar
}
