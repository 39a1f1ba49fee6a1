// Package lists owns the in-memory list collection of the active actor and
// every mutation applied to it.
package lists

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mmcdole/moviebase/internal/domain"
	"github.com/mmcdole/moviebase/internal/reconcile"
)

const (
	DefaultLoadTimeout  = 5 * time.Second
	DefaultWriteTimeout = 10 * time.Second
)

// Option configures a Store
type Option func(*Store)

// WithClock overrides the time source used for addedAt stamps
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator overrides how new list ids are allocated
func WithIDGenerator(newID func() string) Option {
	return func(s *Store) { s.newID = newID }
}

// WithObserver registers the receiver of read-model updates
func WithObserver(o domain.CollectionObserver) Option {
	return func(s *Store) { s.observer = o }
}

// WithLoadTimeout bounds each adapter read
func WithLoadTimeout(d time.Duration) Option {
	return func(s *Store) { s.loadTimeout = d }
}

// WithWriteTimeout bounds each adapter write, queued or synchronous
func WithWriteTimeout(d time.Duration) Option {
	return func(s *Store) { s.writeTimeout = d }
}

func newListID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Store is the single writer of one actor's ListCollection.
//
// Mutations are serialized by opMu. List creation and deletion as well as
// bulk operations commit to memory only after the adapter confirms the write.
// Membership toggles commit immediately and persist through the write queue.
type Store struct {
	adapter  domain.PersistenceAdapter
	rows     domain.MembershipWriter // nil for blob backends
	logger   *slog.Logger
	observer domain.CollectionObserver

	now          func() time.Time
	newID        func() string
	loadTimeout  time.Duration
	writeTimeout time.Duration

	opMu sync.Mutex // Serializes mutate-then-persist sequences

	mu       sync.RWMutex // Protects the fields below
	state    domain.StoreState
	actor    domain.Actor
	coll     domain.ListCollection
	degraded bool // coll holds fallback defaults, not what storage holds
	closed   bool

	writes *writeQueue
}

// NewStore creates a store in the Loading state. Call LoadForActor before
// mutating.
func NewStore(adapter domain.PersistenceAdapter, logger *slog.Logger, opts ...Option) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{
		adapter:      adapter,
		logger:       logger,
		observer:     domain.NoOpObserver{},
		now:          time.Now,
		newID:        newListID,
		loadTimeout:  DefaultLoadTimeout,
		writeTimeout: DefaultWriteTimeout,
		state:        domain.StateLoading,
	}
	for _, opt := range opts {
		opt(s)
	}
	if rows, ok := adapter.(domain.MembershipWriter); ok {
		s.rows = rows
	}
	s.writes = newWriteQueue(adapter, s.writeTimeout, logger, s.onWriteSettled)
	return s
}

// === Read model ===

func (s *Store) State() domain.StoreState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Store) Actor() domain.Actor {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.actor
}

// Snapshot returns a deep copy of the current collection
func (s *Store) Snapshot() domain.ListCollection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.coll.Clone()
}

// List returns a copy of the list with id
func (s *Store) List(id string) (domain.List, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l := s.coll.Find(id)
	if l == nil {
		return domain.List{}, false
	}
	return l.Clone(), true
}

// Membership returns the ids of every list containing key
func (s *Store) Membership(key domain.ItemKey) map[string]bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.coll.Membership(key)
}

// Degraded reports whether the last load failed and the lists shown are
// in-memory defaults
func (s *Store) Degraded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.degraded
}

// Pending reports whether optimistic changes are still being written
func (s *Store) Pending() bool {
	return s.writes.pending()
}

// LastWriteError returns the outcome of the most recent background write
func (s *Store) LastWriteError() error {
	return s.writes.lastError()
}

// Flush waits until every queued background write has settled
func (s *Store) Flush(ctx context.Context) error {
	return s.writes.flush(ctx)
}

// Close flushes pending writes and stops the background writer. The adapter
// is not closed; it belongs to the caller.
func (s *Store) Close(ctx context.Context) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	return s.writes.close(ctx)
}

// === Lifecycle ===

// LoadForActor switches the store to actor: it enters Loading, reads and
// reconciles persisted state, writes back any migration, and becomes Ready.
//
// A failed read leaves the store Ready and Degraded with empty default lists
// held only in memory and returns a *domain.PersistenceError. Those defaults
// are never saved: the next mutation retries the read first and fails with
// ErrPersistenceUnavailable while storage stays unreadable. A failed
// migration write keeps the migrated collection in memory and also returns a
// *domain.PersistenceError.
func (s *Store) LoadForActor(ctx context.Context, actor domain.Actor) (domain.ListCollection, error) {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	if s.isClosed() {
		return domain.ListCollection{}, domain.ErrNotReady
	}

	// Writes queued for the previous actor must land before switching
	if err := s.writes.flush(ctx); err != nil {
		s.logger.Warn("switching actor with unsettled writes", "error", err)
	}

	s.mu.Lock()
	s.state = domain.StateLoading
	s.actor = actor
	s.coll = domain.ListCollection{}
	s.mu.Unlock()
	s.notify(nil)

	res, err := s.read(ctx, actor)
	if err != nil {
		perr := &domain.PersistenceError{Op: "load", Err: err}
		s.logger.Error("failed to load lists, using in-memory defaults", "error", err, "actor", actor.String())
		coll := domain.NewListCollection()
		s.setReady(coll, true)
		s.notify(perr)
		return coll.Clone(), perr
	}

	perr := s.writeBack(ctx, actor, res)
	s.setReady(res.Collection, false)
	s.notify(perr)
	s.logger.Debug("loaded lists", "actor", actor.String(), "lists", len(res.Collection.Lists))
	return res.Collection.Clone(), perr
}

// read loads and reconciles actor's persisted lists
func (s *Store) read(ctx context.Context, actor domain.Actor) (reconcile.Result, error) {
	loadCtx, cancel := context.WithTimeout(ctx, s.loadTimeout)
	raw, err := s.adapter.Load(loadCtx, actor)
	cancel()
	if err != nil {
		return reconcile.Result{}, err
	}

	res := reconcile.Normalize(raw, s.newID)
	switch {
	case res.Provisioned:
		s.logger.Info("provisioned default lists", "actor", actor.String())
	case res.Migrated:
		s.logger.Info("migrated legacy lists", "actor", actor.String(), "items", res.Collection.ItemCount())
	}
	if res.DiscardedLegacy > 0 {
		s.logger.Warn("discarded legacy items superseded by current lists", "actor", actor.String(), "count", res.DiscardedLegacy)
	}
	if res.Repaired {
		s.logger.Warn("repaired stored lists", "actor", actor.String())
	}
	return res, nil
}

// writeBack persists a reconciled collection when reconciliation changed it
func (s *Store) writeBack(ctx context.Context, actor domain.Actor, res reconcile.Result) error {
	if !res.NeedsWrite() {
		return nil
	}
	if err := s.save(ctx, actor, res.Collection); err != nil {
		s.logger.Error("failed to write reconciled lists", "error", err, "actor", actor.String())
		return &domain.PersistenceError{Op: "migrate", Err: err}
	}
	return nil
}

// recoverLoad retries the read of a degraded store. The caller holds opMu.
func (s *Store) recoverLoad(ctx context.Context) error {
	actor := s.Actor()
	res, err := s.read(ctx, actor)
	if err != nil {
		s.logger.Warn("lists still unavailable, refusing change", "error", err, "actor", actor.String())
		return &domain.PersistenceError{Op: "load", Err: err}
	}

	perr := s.writeBack(ctx, actor, res)
	s.setReady(res.Collection, false)
	s.notify(perr)
	s.logger.Info("recovered lists after failed load", "actor", actor.String(), "lists", len(res.Collection.Lists))
	return nil
}

// === Single-list mutations ===

// CreateList appends an empty deletable list named name and persists it
// before returning.
func (s *Store) CreateList(ctx context.Context, name string) (domain.List, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.List{}, domain.ErrEmptyName
	}
	if err := s.begin(ctx); err != nil {
		return domain.List{}, err
	}
	defer s.opMu.Unlock()

	actor, coll := s.current()
	if existing := coll.FindByName(name); existing != nil {
		return domain.List{}, &domain.DuplicateNameError{Name: name, Existing: existing.Name}
	}

	list := domain.List{ID: s.newID(), Name: name, Items: []domain.CatalogItem{}, IsDeletable: true}
	coll.Lists = append(coll.Lists, list)

	if err := s.save(ctx, actor, coll); err != nil {
		s.logger.Error("failed to create list", "error", err, "name", name)
		return domain.List{}, &domain.PersistenceError{Op: "save", Err: err}
	}
	s.commit(coll)
	s.notify(nil)
	s.logger.Info("created list", "name", name, "listID", list.ID)
	return list, nil
}

// DeleteList removes a deletable list. Unknown and default lists are ignored.
func (s *Store) DeleteList(ctx context.Context, listID string) error {
	if err := s.begin(ctx); err != nil {
		return err
	}
	defer s.opMu.Unlock()

	actor, coll := s.current()
	l := coll.Find(listID)
	if l == nil || !l.IsDeletable {
		s.logger.Debug("ignoring delete of protected or unknown list", "listID", listID)
		return nil
	}

	kept := coll.Lists[:0]
	for _, l := range coll.Lists {
		if l.ID != listID {
			kept = append(kept, l)
		}
	}
	coll.Lists = kept

	if err := s.save(ctx, actor, coll); err != nil {
		s.logger.Error("failed to delete list", "error", err, "listID", listID)
		return &domain.PersistenceError{Op: "save", Err: err}
	}
	s.commit(coll)
	s.notify(nil)
	s.logger.Info("deleted list", "listID", listID)
	return nil
}

// SetMembership makes item a member of exactly the lists in listIDs. The
// change is applied in memory at once and persisted in the background; a
// failed write surfaces through LastWriteError and the observer while the
// change stays applied. Unknown ids in listIDs are ignored. An item without
// a valid identity is rejected with ErrInvalidItem.
func (s *Store) SetMembership(ctx context.Context, item domain.CatalogItem, listIDs []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !item.Valid() {
		return fmt.Errorf("%w: %s", domain.ErrInvalidItem, item.Key())
	}
	if err := s.begin(ctx); err != nil {
		return err
	}
	defer s.opMu.Unlock()

	want := make(map[string]bool, len(listIDs))
	for _, id := range listIDs {
		want[id] = true
	}

	actor, coll := s.current()
	key := item.Key()
	stamp := s.now().UnixMilli()
	added, removed := 0, 0

	for i := range coll.Lists {
		l := &coll.Lists[i]
		has := l.Contains(key)
		switch {
		case want[l.ID] && !has:
			entry := item
			entry.AddedAt = stamp
			l.Add(entry)
			added++
		case !want[l.ID] && has:
			l.Remove(key)
			removed++
		}
	}

	if added == 0 && removed == 0 {
		return nil
	}

	s.commit(coll)
	s.writes.enqueue(actor, coll.Clone())
	s.notify(nil)
	s.logger.Info("updated membership", "item", key.String(), "added", added, "removed", removed)
	return nil
}

// === Helpers ===

// begin rejects mutations outside Ready and takes opMu. A degraded store
// must reload successfully before any mutation proceeds. The caller must
// release opMu when begin succeeds.
func (s *Store) begin(ctx context.Context) error {
	if !s.isReady() {
		return domain.ErrNotReady
	}
	s.opMu.Lock()
	// A load may have started while waiting for the lock
	if !s.isReady() {
		s.opMu.Unlock()
		return domain.ErrNotReady
	}
	if s.Degraded() {
		if err := s.recoverLoad(ctx); err != nil {
			s.opMu.Unlock()
			return err
		}
	}
	return nil
}

func (s *Store) isReady() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state == domain.StateReady && !s.closed
}

func (s *Store) isClosed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}

// current returns the actor and a working copy of the collection
func (s *Store) current() (domain.Actor, domain.ListCollection) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.actor, s.coll.Clone()
}

func (s *Store) setReady(coll domain.ListCollection, degraded bool) {
	s.mu.Lock()
	s.coll = coll
	s.degraded = degraded
	s.state = domain.StateReady
	s.mu.Unlock()
}

func (s *Store) commit(coll domain.ListCollection) {
	s.mu.Lock()
	s.coll = coll
	s.mu.Unlock()
}

// save writes coll synchronously. Queued background writes are flushed first
// so an older snapshot cannot land after this one.
func (s *Store) save(ctx context.Context, actor domain.Actor, coll domain.ListCollection) error {
	if err := s.writes.flush(ctx); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, s.writeTimeout)
	defer cancel()
	return s.adapter.Save(ctx, actor, coll)
}

func (s *Store) onWriteSettled(err error) {
	s.notify(err)
}

func (s *Store) notify(err error) {
	s.mu.RLock()
	event := domain.CollectionEvent{
		Actor:    s.actor,
		State:    s.state,
		Snapshot: s.coll.Clone(),
		Err:      err,
	}
	s.mu.RUnlock()
	event.Pending = s.writes.pending()
	s.observer.OnChange(event)
}
