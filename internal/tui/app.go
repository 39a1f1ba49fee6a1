package tui

import (
	"context"
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/moviebase/internal/domain"
	"github.com/mmcdole/moviebase/internal/lists"
	"github.com/mmcdole/moviebase/internal/tui/components"
	"github.com/mmcdole/moviebase/internal/view"
)

// ListStore is the part of the list store the UI drives
type ListStore interface {
	State() domain.StoreState
	Actor() domain.Actor
	Snapshot() domain.ListCollection
	CreateList(ctx context.Context, name string) (domain.List, error)
	DeleteList(ctx context.Context, listID string) error
	SetMembership(ctx context.Context, item domain.CatalogItem, listIDs []string) error
	BulkDelete(ctx context.Context, sourceID string, items []domain.CatalogItem) (int, error)
	BulkMove(ctx context.Context, sourceID, destID string, items []domain.CatalogItem) (domain.MoveReport, error)
}

// ApplicationState represents the current state of the application
type ApplicationState int

const (
	StateBrowsing ApplicationState = iota
	StateHelp
	StateConfirm
)

// Layout proportions
const (
	SidebarPercent  = 30
	MinSidebarWidth = 22
	MinColumnWidth  = 15

	// Vertical layout: single footer line
	ChromeHeight = 1
)

// confirmation is a destructive action waiting for y/n
type confirmation struct {
	prompt string
	cmd    tea.Cmd
}

// Model is the main Bubble Tea model for the application
type Model struct {
	// Application state
	State ApplicationState
	Ready bool

	Lists  ListStore
	events <-chan domain.CollectionEvent
	logger *slog.Logger

	// UI Components
	Sidebar         components.Sidebar
	Items           components.ItemPane
	MembershipModal components.MembershipModal
	PickerModal     components.PickerModal
	InputModal      components.InputModal

	// Data
	collection   domain.ListCollection
	storeState   domain.StoreState
	actor        domain.Actor
	query        view.Query
	rows         []view.Row
	selection    lists.Selection
	viewedListID string

	// Dimensions
	Width  int
	Height int

	// UI state
	StatusMsg    string
	StatusIsErr  bool
	Pending      bool   // Background writes not yet settled
	Warning      string // Last failed background write or degraded load
	SpinnerFrame int

	confirm    *confirmation
	moveItems  []domain.CatalogItem
	moveSource string
}

// NewModel creates a new application model. events is the channel fed by a
// ChannelObserver registered on store; it may be nil.
func NewModel(store ListStore, events <-chan domain.CollectionEvent, logger *slog.Logger) Model {
	if logger == nil {
		logger = slog.Default()
	}

	m := Model{
		State:           StateBrowsing,
		Lists:           store,
		events:          events,
		logger:          logger,
		Sidebar:         components.NewSidebar(),
		Items:           components.NewItemPane(),
		MembershipModal: components.NewMembershipModal(),
		PickerModal:     components.NewPickerModal(),
		InputModal:      components.NewInputModal(),
		selection:       lists.DeselectAll(),
	}
	m.Sidebar.SetFocused(true)
	m.storeState = store.State()
	m.actor = store.Actor()
	m.setCollection(store.Snapshot())
	return m
}

// Init initializes the application
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{TickCmd(100 * time.Millisecond)}
	if m.events != nil {
		cmds = append(cmds, WaitForEventCmd(m.events))
	}
	return tea.Batch(cmds...)
}

// Update handles all messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.Ready = true
		m.updateLayout()
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case TickMsg:
		m.SpinnerFrame++
		return m, TickCmd(100 * time.Millisecond)

	case CollectionChangedMsg:
		event := msg.Event
		m.storeState = event.State
		m.actor = event.Actor
		m.Pending = event.Pending
		if event.Err != nil {
			m.Warning = event.Err.Error()
		} else if !event.Pending {
			m.Warning = ""
		}
		m.setCollection(event.Snapshot)
		return m, WaitForEventCmd(m.events)

	case ListCreatedMsg:
		m.refresh()
		m.Sidebar.Select(msg.List.ID)
		m.project()
		m.setStatus("Created "+msg.List.Name, false)
		return m, nil

	case ListDeletedMsg:
		m.refresh()
		m.setStatus("Deleted "+msg.Name, false)
		return m, nil

	case MembershipSavedMsg:
		m.refresh()
		m.setStatus(membershipStatus(msg), false)
		return m, nil

	case BulkDeletedMsg:
		m.selection = lists.DeselectAll()
		m.refresh()
		m.setStatus(bulkDeleteStatus(msg), false)
		return m, nil

	case BulkMovedMsg:
		// Items that did not leave the source stay selected for a retry
		var stuck []domain.ItemKey
		for _, r := range msg.Report.Results {
			if r.Status == domain.MoveFailed || r.Status == domain.MoveDuplicated {
				stuck = append(stuck, r.Key)
			}
		}
		m.selection = lists.SelectAll(stuck)
		m.refresh()
		m.setStatus(bulkMoveStatus(msg), !msg.Report.OK())
		return m, nil

	case ErrMsg:
		m.logger.Error("operation failed", "error", msg.Err, "context", msg.Context)
		m.refresh()
		m.setStatus(msg.Error(), true)
		return m, nil
	}

	return m, nil
}

func (m *Model) setStatus(text string, isErr bool) {
	m.StatusMsg = text
	m.StatusIsErr = isErr
}

// refresh pulls the latest collection straight from the store
func (m *Model) refresh() {
	m.storeState = m.Lists.State()
	m.setCollection(m.Lists.Snapshot())
}

func (m *Model) setCollection(coll domain.ListCollection) {
	m.collection = coll
	m.Sidebar.SetLists(coll.Lists)
	m.project()
}

// currentList returns the list selected in the sidebar
func (m Model) currentList() (domain.List, bool) {
	id := m.Sidebar.SelectedID()
	if l := m.collection.Find(id); l != nil {
		return *l, true
	}
	return domain.List{}, false
}

// project recomputes the item pane from the current list and query
func (m *Model) project() {
	l, ok := m.currentList()
	if !ok {
		m.rows = nil
		m.Items.SetRows("", nil, 0)
		return
	}

	if l.ID != m.viewedListID {
		m.viewedListID = l.ID
		m.selection = lists.DeselectAll()
		m.Items.ResetCursor()
	}
	// Drop keys that left the list
	m.selection = lists.SelectAll(lists.KeysOf(m.selection.Items(l)))

	m.query.Text = m.Items.FilterQuery()
	m.rows = view.Project(l.Items, m.query)
	m.Items.SetRows(l.Name, m.rows, len(l.Items))

	sel := m.selection
	m.Items.SetSelectedFunc(sel.Has)
}

// targetItems returns the selected items of the current list, or the item
// under the cursor when nothing is selected
func (m Model) targetItems() []domain.CatalogItem {
	l, ok := m.currentList()
	if !ok {
		return nil
	}
	if m.selection.Len() > 0 {
		return m.selection.Items(l)
	}
	if item, ok := m.Items.SelectedItem(); ok {
		return []domain.CatalogItem{item}
	}
	return nil
}

// destinations returns every list other than sourceID
func (m Model) destinations(sourceID string) []domain.List {
	var out []domain.List
	for _, l := range m.collection.Lists {
		if l.ID != sourceID {
			out = append(out, l)
		}
	}
	return out
}

func (m Model) ready() bool {
	return m.storeState == domain.StateReady
}
