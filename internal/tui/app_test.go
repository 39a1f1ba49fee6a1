package tui

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmcdole/moviebase/internal/domain"
	"github.com/mmcdole/moviebase/internal/lists"
	"github.com/mmcdole/moviebase/internal/store"
	"github.com/mmcdole/moviebase/internal/view"
)

func nullLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newListStore(t *testing.T) *lists.Store {
	t.Helper()
	adapter, err := store.NewLocalStore("", false, nil)
	require.NoError(t, err)
	ls := lists.NewStore(adapter, nullLogger())
	t.Cleanup(func() {
		ls.Close(context.Background())
		adapter.Close()
	})
	return ls
}

// newTestModel returns a sized model over a loaded store holding items in
// the watchlist
func newTestModel(t *testing.T, items ...domain.CatalogItem) (Model, *lists.Store) {
	t.Helper()
	ctx := context.Background()
	ls := newListStore(t)
	_, err := ls.LoadForActor(ctx, domain.Actor{})
	require.NoError(t, err)
	if len(items) > 0 {
		_, err := ls.BulkImport(ctx, items)
		require.NoError(t, err)
	}

	m := NewModel(ls, nil, nullLogger())
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return updated.(Model), ls
}

func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
	}
}

// press sends keys in order and returns the command of the last one
func press(m Model, keys ...string) (Model, tea.Cmd) {
	var cmd tea.Cmd
	for _, k := range keys {
		var updated tea.Model
		updated, cmd = m.Update(keyMsg(k))
		m = updated.(Model)
	}
	return m, cmd
}

// exec runs a store command and feeds its result back into the model
func exec(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	require.NotNil(t, cmd)
	updated, _ := m.Update(cmd())
	return updated.(Model)
}

func movie(id int64, title string) domain.CatalogItem {
	return domain.CatalogItem{ID: id, Kind: domain.MediaKindMovie, Title: title, ReleaseDate: "1990-01-01"}
}

func series(id int64, title string) domain.CatalogItem {
	return domain.CatalogItem{ID: id, Kind: domain.MediaKindSeries, Title: title}
}

func rowTitles(m Model) []string {
	var out []string
	for _, item := range view.Items(m.rows) {
		out = append(out, item.Title)
	}
	return out
}

func TestNewModelShowsWatchlist(t *testing.T) {
	m, _ := newTestModel(t, movie(1, "Alien"), movie(2, "Heat"))

	assert.Equal(t, domain.WatchlistID, m.Sidebar.SelectedID())
	assert.Equal(t, []string{"Alien", "Heat"}, rowTitles(m))
	assert.Contains(t, m.View(), domain.WatchlistName)
}

func TestCreateList(t *testing.T) {
	m, ls := newTestModel(t)

	m, _ = press(m, "n")
	require.True(t, m.InputModal.IsVisible())

	m, cmd := press(m, "Horror", "enter")
	assert.False(t, m.InputModal.IsVisible())
	m = exec(t, m, cmd)

	snap := ls.Snapshot()
	created := snap.FindByName("horror")
	require.NotNil(t, created)
	assert.Equal(t, created.ID, m.Sidebar.SelectedID(), "cursor follows the new list")
	assert.False(t, m.StatusIsErr)
}

func TestCreateDuplicateListReportsError(t *testing.T) {
	m, ls := newTestModel(t)

	m, cmd := press(m, "n", "my WATCHLIST", "enter")
	m = exec(t, m, cmd)

	assert.True(t, m.StatusIsErr)
	assert.Contains(t, m.StatusMsg, "already exists")
	assert.Len(t, ls.Snapshot().Lists, 2)
}

func TestBlankListNameIsRefused(t *testing.T) {
	m, _ := newTestModel(t)

	m, cmd := press(m, "n", "   ", "enter")
	assert.Nil(t, cmd)
	assert.True(t, m.InputModal.IsVisible())
}

func TestMembershipModalAssignsExactLists(t *testing.T) {
	alien := movie(1, "Alien")
	m, ls := newTestModel(t, alien)

	m, _ = press(m, "tab", "l")
	require.True(t, m.MembershipModal.IsVisible())

	// Watchlist is pre-checked; check Watched too
	m, cmd := press(m, "j", " ", "enter")
	require.False(t, m.MembershipModal.IsVisible())
	m = exec(t, m, cmd)

	membership := ls.Membership(alien.Key())
	assert.True(t, membership[domain.WatchlistID])
	assert.True(t, membership[domain.WatchedID])
	assert.Contains(t, m.StatusMsg, "2 lists")
}

func TestMembershipModalEscapeDiscards(t *testing.T) {
	alien := movie(1, "Alien")
	m, ls := newTestModel(t, alien)

	m, cmd := press(m, "tab", "l", " ", "esc")
	assert.Nil(t, cmd)
	assert.False(t, m.MembershipModal.IsVisible())
	assert.True(t, ls.Membership(alien.Key())[domain.WatchlistID])
}

func TestBulkMoveSelectedItems(t *testing.T) {
	ctx := context.Background()
	m, ls := newTestModel(t, movie(1, "Alien"), movie(2, "Heat"), movie(3, "Ran"))
	later, err := ls.CreateList(ctx, "Later")
	require.NoError(t, err)
	m.refresh()

	// Space selects and steps down, so two presses select the first two rows
	m, _ = press(m, "tab", " ", " ")
	assert.Equal(t, 2, m.selection.Len())

	m, _ = press(m, "m")
	require.True(t, m.PickerModal.IsVisible())

	// Destinations exclude the source: Watched, Later
	m, cmd := press(m, "j", "enter")
	m = exec(t, m, cmd)

	got, ok := ls.List(later.ID)
	require.True(t, ok)
	assert.Len(t, got.Items, 2)
	watchlist, _ := ls.List(domain.WatchlistID)
	assert.Len(t, watchlist.Items, 1)
	assert.Equal(t, 0, m.selection.Len())
	assert.Contains(t, m.StatusMsg, "Moved 2 items to Later")
}

func TestBulkMoveCancelledPicker(t *testing.T) {
	m, ls := newTestModel(t, movie(1, "Alien"))

	m, cmd := press(m, "tab", "m", "esc")
	assert.Nil(t, cmd)
	assert.Nil(t, m.moveItems)
	watchlist, _ := ls.List(domain.WatchlistID)
	assert.Len(t, watchlist.Items, 1)
}

func TestBulkDeleteAsksForConfirmation(t *testing.T) {
	m, ls := newTestModel(t, movie(1, "Alien"), movie(2, "Heat"))

	m, _ = press(m, "tab", "a", "d")
	require.Equal(t, StateConfirm, m.State)

	m, cmd := press(m, "n")
	assert.Nil(t, cmd)
	assert.Equal(t, StateBrowsing, m.State)
	watchlist, _ := ls.List(domain.WatchlistID)
	assert.Len(t, watchlist.Items, 2)

	m, _ = press(m, "d")
	m, cmd = press(m, "y")
	m = exec(t, m, cmd)

	watchlist, _ = ls.List(domain.WatchlistID)
	assert.Empty(t, watchlist.Items)
	assert.Contains(t, m.StatusMsg, "Removed 2 items")
}

func TestDeleteDefaultListIsRefused(t *testing.T) {
	m, _ := newTestModel(t)

	m, cmd := press(m, "x")
	assert.Nil(t, cmd)
	assert.Equal(t, StateBrowsing, m.State)
	assert.True(t, m.StatusIsErr)
}

func TestDeleteCustomList(t *testing.T) {
	ctx := context.Background()
	m, ls := newTestModel(t)
	_, err := ls.CreateList(ctx, "Later")
	require.NoError(t, err)
	m.refresh()

	m, _ = press(m, "G", "x")
	require.Equal(t, StateConfirm, m.State)
	m, cmd := press(m, "y")
	m = exec(t, m, cmd)

	assert.Len(t, ls.Snapshot().Lists, 2)
	assert.Equal(t, "Deleted Later", m.StatusMsg)
}

func TestFilterAndKindProjection(t *testing.T) {
	m, _ := newTestModel(t, movie(1, "Alien"), series(2, "Andor"), movie(3, "Heat"))

	m, _ = press(m, "/", "ali")
	assert.True(t, m.Items.IsFiltering())
	assert.Equal(t, []string{"Alien"}, rowTitles(m))

	m, _ = press(m, "esc")
	assert.False(t, m.Items.IsFiltering())
	assert.Len(t, m.rows, 3)

	m, _ = press(m, "f")
	assert.Equal(t, []string{"Alien", "Heat"}, rowTitles(m))
	m, _ = press(m, "f")
	assert.Equal(t, []string{"Andor"}, rowTitles(m))
}

func TestSelectAllOnlyCoversShownRows(t *testing.T) {
	m, _ := newTestModel(t, movie(1, "Alien"), series(2, "Andor"))

	m, _ = press(m, "f", "a")
	assert.Equal(t, 1, m.selection.Len())

	m, _ = press(m, "A")
	assert.Equal(t, 0, m.selection.Len())
}

func TestSwitchingListClearsSelection(t *testing.T) {
	m, _ := newTestModel(t, movie(1, "Alien"))

	m, _ = press(m, "tab", " ")
	require.Equal(t, 1, m.selection.Len())

	m, _ = press(m, "tab", "j")
	assert.Equal(t, domain.WatchedID, m.Sidebar.SelectedID())
	assert.Equal(t, 0, m.selection.Len())
}

func TestMutationsBlockedWhileLoading(t *testing.T) {
	ls := newListStore(t)
	m := NewModel(ls, nil, nullLogger())
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	m = updated.(Model)

	m, cmd := press(m, "n")
	assert.Nil(t, cmd)
	assert.False(t, m.InputModal.IsVisible())
	assert.Equal(t, "Lists are still loading", m.StatusMsg)
}

func TestCollectionChangedShowsWarning(t *testing.T) {
	m, ls := newTestModel(t)
	events := make(chan domain.CollectionEvent, 1)
	m.events = events

	updated, cmd := m.Update(CollectionChangedMsg{Event: domain.CollectionEvent{
		State:    domain.StateReady,
		Snapshot: ls.Snapshot(),
		Err:      errors.New("disk full"),
	}})
	m = updated.(Model)

	assert.NotNil(t, cmd, "keeps listening for the next event")
	assert.Equal(t, "disk full", m.Warning)
	assert.Contains(t, m.View(), "disk full")

	updated, _ = m.Update(CollectionChangedMsg{Event: domain.CollectionEvent{
		State:    domain.StateReady,
		Snapshot: ls.Snapshot(),
	}})
	assert.Empty(t, updated.(Model).Warning, "a settled write clears the warning")
}

func TestChannelObserverKeepsNewest(t *testing.T) {
	ch := make(chan domain.CollectionEvent, 1)
	obs := NewChannelObserver(ch)

	obs.OnChange(domain.CollectionEvent{Actor: domain.Actor{ID: "first"}})
	obs.OnChange(domain.CollectionEvent{Actor: domain.Actor{ID: "second"}})

	got := <-ch
	assert.Equal(t, "second", got.Actor.ID)
}

func TestCalculateLayout(t *testing.T) {
	l := calculateLayout(100)
	assert.Equal(t, 30, l.sidebarWidth)
	assert.Equal(t, 70, l.itemsWidth)

	l = calculateLayout(30)
	assert.Equal(t, MinColumnWidth, l.itemsWidth)
	assert.Equal(t, 30, l.sidebarWidth+l.itemsWidth)
}
