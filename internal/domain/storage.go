package domain

//go:generate mockgen -source=storage.go -destination=mocks/mock_storage.go -package=mocks

import "context"

// Actor is the user context a ListCollection is scoped to.
// The zero value is the anonymous, local-only actor.
type Actor struct {
	ID string
}

// AnonymousScope is the storage scope used when no actor is signed in
const AnonymousScope = "local"

// IsAnonymous reports whether no identity is attached
func (a Actor) IsAnonymous() bool {
	return a.ID == ""
}

// Scope returns the storage namespace for the actor
func (a Actor) Scope() string {
	if a.IsAnonymous() {
		return AnonymousScope
	}
	return a.ID
}

func (a Actor) String() string {
	if a.IsAnonymous() {
		return "anonymous"
	}
	return a.ID
}

// PersistedState is what a backend found on load, before reconciliation.
// Current-shape lists and legacy single-list records may coexist.
type PersistedState struct {
	Lists    []List
	HasLists bool

	// Pre multi-list era: one flat watchlist and one flat watched list
	LegacyWatchlist    []CatalogItem
	HasLegacyWatchlist bool
	LegacyWatched      []CatalogItem
	HasLegacyWatched   bool
}

// HasLegacy reports whether any legacy record was found
func (s *PersistedState) HasLegacy() bool {
	return s != nil && (s.HasLegacyWatchlist || s.HasLegacyWatched)
}

// IsEmpty reports whether nothing at all was persisted
func (s *PersistedState) IsEmpty() bool {
	return s == nil || (!s.HasLists && !s.HasLegacy())
}

// PersistenceAdapter is the single writer to durable list storage.
type PersistenceAdapter interface {
	// Load returns the stored state for actor, or nil if nothing is stored
	Load(ctx context.Context, actor Actor) (*PersistedState, error)

	// Save durably replaces the actor's collection. It must be atomic:
	// on failure the previously durable state is left intact.
	Save(ctx context.Context, actor Actor, coll ListCollection) error

	Close() error
}

// MembershipWriter is implemented by row-oriented backends that can
// address individual memberships instead of rewriting the collection.
type MembershipWriter interface {
	AddMembership(ctx context.Context, actor Actor, listID string, item CatalogItem) error

	// RemoveMemberships deletes all keys from one list in a single transaction
	RemoveMemberships(ctx context.Context, actor Actor, listID string, keys []ItemKey) error
}
