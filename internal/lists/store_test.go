package lists

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/mock/gomock"

	"github.com/mmcdole/moviebase/internal/domain"
	"github.com/mmcdole/moviebase/internal/domain/mocks"
	"github.com/mmcdole/moviebase/internal/store"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var errBackend = errors.New("backend down")

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func movie(id int64, title string) domain.CatalogItem {
	return domain.CatalogItem{ID: id, Kind: domain.MediaKindMovie, Title: title}
}

func series(id int64, title string) domain.CatalogItem {
	return domain.CatalogItem{ID: id, Kind: domain.MediaKindSeries, Title: title}
}

func sequentialIDs() func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("list-%d", n)
	}
}

// countingAdapter records how often the wrapped adapter is written
type countingAdapter struct {
	domain.PersistenceAdapter
	mu    sync.Mutex
	saves int
}

func (c *countingAdapter) Save(ctx context.Context, actor domain.Actor, coll domain.ListCollection) error {
	c.mu.Lock()
	c.saves++
	c.mu.Unlock()
	return c.PersistenceAdapter.Save(ctx, actor, coll)
}

func (c *countingAdapter) Saves() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.saves
}

// recordingObserver keeps every event it receives
type recordingObserver struct {
	mu     sync.Mutex
	events []domain.CollectionEvent
}

func (r *recordingObserver) OnChange(e domain.CollectionEvent) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

func (r *recordingObserver) Events() []domain.CollectionEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.CollectionEvent(nil), r.events...)
}

func memoryAdapter(t *testing.T) *store.LocalStore {
	t.Helper()
	s, err := store.NewLocalStore("", false, nil)
	require.NoError(t, err)
	return s
}

func newTestStore(t *testing.T, adapter domain.PersistenceAdapter, opts ...Option) *Store {
	t.Helper()
	opts = append([]Option{
		WithClock(func() time.Time { return fixedNow }),
		WithIDGenerator(sequentialIDs()),
	}, opts...)
	s := NewStore(adapter, nil, opts...)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		assert.NoError(t, s.Close(ctx))
	})
	return s
}

func loadedStore(t *testing.T, adapter domain.PersistenceAdapter, opts ...Option) *Store {
	t.Helper()
	s := newTestStore(t, adapter, opts...)
	_, err := s.LoadForActor(context.Background(), domain.Actor{})
	require.NoError(t, err)
	return s
}

func assertUniqueItems(t *testing.T, coll domain.ListCollection) {
	t.Helper()
	for _, l := range coll.Lists {
		seen := map[domain.ItemKey]bool{}
		for _, item := range l.Items {
			assert.False(t, seen[item.Key()], "list %s holds %s twice", l.Name, item.Key())
			seen[item.Key()] = true
		}
	}
}

func listNames(coll domain.ListCollection) []string {
	names := make([]string, len(coll.Lists))
	for i, l := range coll.Lists {
		names[i] = l.Name
	}
	return names
}

func TestLoadForActorProvisionsDefaults(t *testing.T) {
	adapter := &countingAdapter{PersistenceAdapter: memoryAdapter(t)}
	s := newTestStore(t, adapter)
	assert.Equal(t, domain.StateLoading, s.State())

	coll, err := s.LoadForActor(context.Background(), domain.Actor{})
	require.NoError(t, err)

	assert.Equal(t, domain.StateReady, s.State())
	require.Len(t, coll.Lists, 2)
	assert.Equal(t, []string{domain.WatchlistName, domain.WatchedName}, listNames(coll))
	for _, l := range coll.Lists {
		assert.Empty(t, l.Items)
		assert.False(t, l.IsDeletable)
	}
	assert.Equal(t, 1, adapter.Saves(), "provisioning is written once")

	_, err = s.LoadForActor(context.Background(), domain.Actor{})
	require.NoError(t, err)
	assert.Equal(t, 1, adapter.Saves(), "second load is a pure read")
}

func TestLoadForActorMigratesLegacyWatchlist(t *testing.T) {
	local := memoryAdapter(t)
	legacy := []domain.CatalogItem{movie(1, "Alien"), movie(2, "Aliens"), series(3, "Dark")}
	require.NoError(t, local.PutLegacy(store.LegacyWatchlistKey, legacy))

	adapter := &countingAdapter{PersistenceAdapter: local}
	s := newTestStore(t, adapter)

	coll, err := s.LoadForActor(context.Background(), domain.Actor{})
	require.NoError(t, err)

	assert.Equal(t, legacy, coll.Watchlist().Items)
	assert.Empty(t, coll.Watched().Items)
	assert.Equal(t, 1, adapter.Saves())

	raw, err := local.Load(context.Background(), domain.Actor{})
	require.NoError(t, err)
	assert.False(t, raw.HasLegacy(), "legacy key is cleared")

	again, err := s.LoadForActor(context.Background(), domain.Actor{})
	require.NoError(t, err)
	assert.Equal(t, 1, adapter.Saves(), "migration runs at most once")
	assert.Equal(t, coll, again)
}

func TestLoadForActorCleanRecordDoesNotWrite(t *testing.T) {
	ctrl := gomock.NewController(t)
	adapter := mocks.NewMockPersistenceAdapter(ctrl)

	stored := domain.NewListCollection()
	stored.Watched().Add(movie(4, "Heat"))
	adapter.EXPECT().Load(gomock.Any(), domain.Actor{ID: "alice"}).
		Return(&domain.PersistedState{Lists: stored.Lists, HasLists: true}, nil)

	s := newTestStore(t, adapter)
	coll, err := s.LoadForActor(context.Background(), domain.Actor{ID: "alice"})
	require.NoError(t, err)
	assert.Equal(t, stored, coll)
	assert.Equal(t, domain.Actor{ID: "alice"}, s.Actor())
}

func TestLoadForActorDegradesWhenStorageUnavailable(t *testing.T) {
	ctrl := gomock.NewController(t)
	adapter := mocks.NewMockPersistenceAdapter(ctrl)
	adapter.EXPECT().Load(gomock.Any(), gomock.Any()).Return(nil, errBackend)

	obs := &recordingObserver{}
	s := newTestStore(t, adapter, WithObserver(obs))

	coll, err := s.LoadForActor(context.Background(), domain.Actor{ID: "bob"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrPersistenceUnavailable)
	assert.ErrorIs(t, err, errBackend)

	var perr *domain.PersistenceError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "load", perr.Op)

	assert.Equal(t, domain.StateReady, s.State())
	assert.Equal(t, []string{domain.WatchlistName, domain.WatchedName}, listNames(coll))

	events := obs.Events()
	require.GreaterOrEqual(t, len(events), 2)
	assert.Equal(t, domain.StateLoading, events[0].State)
	last := events[len(events)-1]
	assert.Equal(t, domain.StateReady, last.State)
	assert.ErrorIs(t, last.Err, domain.ErrPersistenceUnavailable)
}

// flakyLoads fails the first n reads of the wrapped adapter
type flakyLoads struct {
	domain.PersistenceAdapter
	mu    sync.Mutex
	fails int
}

func (f *flakyLoads) Load(ctx context.Context, actor domain.Actor) (*domain.PersistedState, error) {
	f.mu.Lock()
	fail := f.fails > 0
	if fail {
		f.fails--
	}
	f.mu.Unlock()
	if fail {
		return nil, errBackend
	}
	return f.PersistenceAdapter.Load(ctx, actor)
}

func TestMutationAfterFailedLoadKeepsStoredLists(t *testing.T) {
	ctx := context.Background()
	local, err := store.NewLocalStore(t.TempDir(), false, nil)
	require.NoError(t, err)
	t.Cleanup(func() { local.Close() })

	stored := domain.NewListCollection()
	stored.Watchlist().Add(movie(1, "Alien"))
	stored.Watchlist().Add(series(2, "Lost"))
	stored.Lists = append(stored.Lists, domain.List{ID: "c1", Name: "Horror", IsDeletable: true, Items: []domain.CatalogItem{}})
	require.NoError(t, local.Save(ctx, domain.Actor{}, stored))

	s := newTestStore(t, &flakyLoads{PersistenceAdapter: local, fails: 2})
	_, err = s.LoadForActor(ctx, domain.Actor{})
	require.ErrorIs(t, err, domain.ErrPersistenceUnavailable)
	assert.True(t, s.Degraded())

	// Storage still unreadable: the change is refused and nothing is written
	_, err = s.CreateList(ctx, "Comedy")
	require.ErrorIs(t, err, domain.ErrPersistenceUnavailable)
	assert.True(t, s.Degraded())
	assert.Equal(t, []string{domain.WatchlistName, domain.WatchedName}, listNames(s.Snapshot()))

	// Storage is back: the stored lists are reloaded before the change applies
	_, err = s.CreateList(ctx, "Comedy")
	require.NoError(t, err)
	assert.False(t, s.Degraded())

	local.InvalidateCache()
	state, err := local.Load(ctx, domain.Actor{})
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Equal(t, []string{domain.WatchlistName, domain.WatchedName, "Horror", "Comedy"},
		listNames(domain.ListCollection{Lists: state.Lists}))
	assert.Len(t, state.Lists[0].Items, 2)
}

func TestDegradedStoreNeverSaves(t *testing.T) {
	ctrl := gomock.NewController(t)
	adapter := mocks.NewMockPersistenceAdapter(ctrl)
	// No Save expectation: any write fails the test
	adapter.EXPECT().Load(gomock.Any(), gomock.Any()).Return(nil, errBackend).AnyTimes()

	s := newTestStore(t, adapter)
	ctx := context.Background()
	_, err := s.LoadForActor(ctx, domain.Actor{ID: "bob"})
	require.Error(t, err)

	x := movie(1, "Alien")
	_, err = s.CreateList(ctx, "Comedy")
	assert.ErrorIs(t, err, domain.ErrPersistenceUnavailable)
	assert.ErrorIs(t, s.DeleteList(ctx, domain.WatchedID), domain.ErrPersistenceUnavailable)
	assert.ErrorIs(t, s.SetMembership(ctx, x, []string{domain.WatchlistID}), domain.ErrPersistenceUnavailable)
	_, err = s.BulkImport(ctx, []domain.CatalogItem{x})
	assert.ErrorIs(t, err, domain.ErrPersistenceUnavailable)
	_, err = s.BulkDelete(ctx, domain.WatchlistID, []domain.CatalogItem{x})
	assert.ErrorIs(t, err, domain.ErrPersistenceUnavailable)
	_, err = s.BulkMove(ctx, domain.WatchlistID, domain.WatchedID, []domain.CatalogItem{x})
	assert.ErrorIs(t, err, domain.ErrPersistenceUnavailable)

	require.NoError(t, s.Flush(ctx))
	assert.False(t, s.Pending())
	snap := s.Snapshot()
	assert.Empty(t, snap.Watchlist().Items)
}

func TestSetMembershipRejectsInvalidItem(t *testing.T) {
	s := loadedStore(t, memoryAdapter(t))
	ctx := context.Background()

	err := s.SetMembership(ctx, domain.CatalogItem{ID: 9, Title: "No kind"}, []string{domain.WatchlistID})
	assert.ErrorIs(t, err, domain.ErrInvalidItem)
	err = s.SetMembership(ctx, movie(0, "No id"), []string{domain.WatchlistID})
	assert.ErrorIs(t, err, domain.ErrInvalidItem)
	snap := s.Snapshot()
	assert.Empty(t, snap.Watchlist().Items)
}

func TestLoadForActorKeepsMigrationWhenWriteFails(t *testing.T) {
	ctrl := gomock.NewController(t)
	adapter := mocks.NewMockPersistenceAdapter(ctrl)
	adapter.EXPECT().Load(gomock.Any(), gomock.Any()).Return(&domain.PersistedState{
		LegacyWatchlist:    []domain.CatalogItem{movie(1, "Alien")},
		HasLegacyWatchlist: true,
	}, nil)
	adapter.EXPECT().Save(gomock.Any(), gomock.Any(), gomock.Any()).Return(errBackend)

	s := newTestStore(t, adapter)
	coll, err := s.LoadForActor(context.Background(), domain.Actor{})

	var perr *domain.PersistenceError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "migrate", perr.Op)
	assert.Len(t, coll.Watchlist().Items, 1)
	assert.Equal(t, domain.StateReady, s.State())
}

func TestMutationsRejectedWhileLoading(t *testing.T) {
	s := newTestStore(t, memoryAdapter(t))
	ctx := context.Background()

	_, err := s.CreateList(ctx, "Horror")
	assert.ErrorIs(t, err, domain.ErrNotReady)
	assert.ErrorIs(t, s.DeleteList(ctx, "x"), domain.ErrNotReady)
	assert.ErrorIs(t, s.SetMembership(ctx, movie(1, "A"), nil), domain.ErrNotReady)
	_, err = s.BulkImport(ctx, []domain.CatalogItem{movie(1, "A")})
	assert.ErrorIs(t, err, domain.ErrNotReady)
	_, err = s.BulkDelete(ctx, domain.WatchlistID, []domain.CatalogItem{movie(1, "A")})
	assert.ErrorIs(t, err, domain.ErrNotReady)
	_, err = s.BulkMove(ctx, domain.WatchlistID, domain.WatchedID, []domain.CatalogItem{movie(1, "A")})
	assert.ErrorIs(t, err, domain.ErrNotReady)
}

func TestCreateListRejectsDuplicateNames(t *testing.T) {
	s := loadedStore(t, memoryAdapter(t))
	ctx := context.Background()

	created, err := s.CreateList(ctx, "  X  ")
	require.NoError(t, err)
	assert.Equal(t, "X", created.Name)
	assert.Equal(t, "list-1", created.ID)
	assert.True(t, created.IsDeletable)

	_, err = s.CreateList(ctx, "x")
	require.ErrorIs(t, err, domain.ErrDuplicateName)
	var dup *domain.DuplicateNameError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "X", dup.Existing)

	_, err = s.CreateList(ctx, "MY WATCHLIST")
	assert.ErrorIs(t, err, domain.ErrDuplicateName)

	_, err = s.CreateList(ctx, "   ")
	assert.ErrorIs(t, err, domain.ErrEmptyName)

	assert.Len(t, s.Snapshot().Lists, 3)
}

func TestCreateListNotCommittedWhenSaveFails(t *testing.T) {
	ctrl := gomock.NewController(t)
	adapter := mocks.NewMockPersistenceAdapter(ctrl)
	adapter.EXPECT().Load(gomock.Any(), gomock.Any()).Return(nil, nil)
	gomock.InOrder(
		adapter.EXPECT().Save(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil),
		adapter.EXPECT().Save(gomock.Any(), gomock.Any(), gomock.Any()).Return(errBackend),
	)

	s := loadedStore(t, adapter)
	_, err := s.CreateList(context.Background(), "Horror")
	assert.ErrorIs(t, err, domain.ErrPersistenceUnavailable)
	assert.Len(t, s.Snapshot().Lists, 2)
}

func TestDeleteList(t *testing.T) {
	s := loadedStore(t, memoryAdapter(t))
	ctx := context.Background()

	require.NoError(t, s.DeleteList(ctx, domain.WatchlistID))
	require.NoError(t, s.DeleteList(ctx, domain.WatchedID))
	require.NoError(t, s.DeleteList(ctx, "missing"))
	assert.Len(t, s.Snapshot().Lists, 2, "default lists are never deleted")

	custom, err := s.CreateList(ctx, "Horror")
	require.NoError(t, err)
	require.NoError(t, s.DeleteList(ctx, custom.ID))
	assert.Equal(t, []string{domain.WatchlistName, domain.WatchedName}, listNames(s.Snapshot()))

	// The name is free again
	_, err = s.CreateList(ctx, "horror")
	assert.NoError(t, err)
}

func TestDeleteListRevertsWhenSaveFails(t *testing.T) {
	ctrl := gomock.NewController(t)
	adapter := mocks.NewMockPersistenceAdapter(ctrl)
	stored := domain.NewListCollection()
	stored.Lists = append(stored.Lists, domain.List{ID: "c1", Name: "Horror", IsDeletable: true, Items: []domain.CatalogItem{}})
	adapter.EXPECT().Load(gomock.Any(), gomock.Any()).Return(&domain.PersistedState{Lists: stored.Lists, HasLists: true}, nil)
	adapter.EXPECT().Save(gomock.Any(), gomock.Any(), gomock.Any()).Return(errBackend)

	s := loadedStore(t, adapter)
	err := s.DeleteList(context.Background(), "c1")
	assert.ErrorIs(t, err, domain.ErrPersistenceUnavailable)
	_, ok := s.List("c1")
	assert.True(t, ok)
}

func TestSetMembershipAssignsExactLists(t *testing.T) {
	local := memoryAdapter(t)
	s := loadedStore(t, local)
	ctx := context.Background()

	custom, err := s.CreateList(ctx, "CustomList1")
	require.NoError(t, err)

	item := movie(5, "Five")
	require.NoError(t, s.SetMembership(ctx, item, []string{domain.WatchedID}))
	require.NoError(t, s.SetMembership(ctx, item, []string{domain.WatchlistID, custom.ID}))

	membership := s.Membership(item.Key())
	assert.Equal(t, map[string]bool{domain.WatchlistID: true, custom.ID: true}, membership)

	l, _ := s.List(domain.WatchlistID)
	require.Len(t, l.Items, 1)
	assert.Equal(t, fixedNow.UnixMilli(), l.Items[0].AddedAt)

	require.NoError(t, s.Flush(ctx))
	assert.False(t, s.Pending())
	assert.NoError(t, s.LastWriteError())

	raw, err := local.Load(ctx, domain.Actor{})
	require.NoError(t, err)
	persisted := domain.ListCollection{Lists: raw.Lists}
	assert.Equal(t, membership, persisted.Membership(item.Key()))
}

func TestSetMembershipIsIdempotent(t *testing.T) {
	adapter := &countingAdapter{PersistenceAdapter: memoryAdapter(t)}
	s := loadedStore(t, adapter)
	ctx := context.Background()

	target := []string{domain.WatchlistID, domain.WatchedID, "unknown"}
	require.NoError(t, s.SetMembership(ctx, series(9, "Nine"), target))
	require.NoError(t, s.Flush(ctx))
	first := s.Snapshot()
	saves := adapter.Saves()

	require.NoError(t, s.SetMembership(ctx, series(9, "Nine"), target))
	require.NoError(t, s.Flush(ctx))
	assert.Equal(t, first, s.Snapshot())
	assert.Equal(t, saves, adapter.Saves(), "no write when nothing changes")
}

func TestSetMembershipKeepsChangeWhenWriteFails(t *testing.T) {
	ctrl := gomock.NewController(t)
	adapter := mocks.NewMockPersistenceAdapter(ctrl)
	adapter.EXPECT().Load(gomock.Any(), gomock.Any()).Return(nil, nil)
	gomock.InOrder(
		adapter.EXPECT().Save(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil),
		adapter.EXPECT().Save(gomock.Any(), gomock.Any(), gomock.Any()).Return(errBackend),
	)

	obs := &recordingObserver{}
	s := loadedStore(t, adapter, WithObserver(obs))
	ctx := context.Background()

	item := movie(1, "Alien")
	require.NoError(t, s.SetMembership(ctx, item, []string{domain.WatchlistID}))
	require.NoError(t, s.Flush(ctx))

	assert.True(t, s.Membership(item.Key())[domain.WatchlistID], "optimistic change stays applied")
	assert.ErrorIs(t, s.LastWriteError(), domain.ErrPersistenceUnavailable)

	// Settled events are delivered after the queue goes idle
	require.Eventually(t, func() bool {
		for _, e := range obs.Events() {
			if e.Err != nil {
				return true
			}
		}
		return false
	}, time.Second, 10*time.Millisecond)
}

func TestSetMembershipConcurrentCallers(t *testing.T) {
	s := loadedStore(t, memoryAdapter(t))
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			item := movie(int64(i%10), fmt.Sprintf("M%d", i%10))
			assert.NoError(t, s.SetMembership(ctx, item, []string{domain.WatchlistID}))
		}()
	}
	wg.Wait()
	require.NoError(t, s.Flush(ctx))

	snap := s.Snapshot()
	assertUniqueItems(t, snap)
	assert.Len(t, snap.Watchlist().Items, 10)
}

func TestLoadForActorSwitchesActor(t *testing.T) {
	local, err := store.NewLocalStore("", true, nil)
	require.NoError(t, err)
	s := newTestStore(t, local)
	ctx := context.Background()

	alice := domain.Actor{ID: "alice"}
	_, err = s.LoadForActor(ctx, alice)
	require.NoError(t, err)
	require.NoError(t, s.SetMembership(ctx, movie(1, "Alien"), []string{domain.WatchlistID}))

	coll, err := s.LoadForActor(ctx, domain.Actor{ID: "bob"})
	require.NoError(t, err)
	assert.Empty(t, coll.Watchlist().Items)

	coll, err = s.LoadForActor(ctx, alice)
	require.NoError(t, err)
	assert.Len(t, coll.Watchlist().Items, 1, "alice's queued write landed before the switch")
}

func TestClosedStoreRejectsMutations(t *testing.T) {
	s := NewStore(memoryAdapter(t), nil)
	ctx := context.Background()
	_, err := s.LoadForActor(ctx, domain.Actor{})
	require.NoError(t, err)

	require.NoError(t, s.Close(ctx))
	require.NoError(t, s.Close(ctx))

	assert.ErrorIs(t, s.SetMembership(ctx, movie(1, "A"), []string{domain.WatchlistID}), domain.ErrNotReady)
	_, err = s.LoadForActor(ctx, domain.Actor{})
	assert.ErrorIs(t, err, domain.ErrNotReady)
}
