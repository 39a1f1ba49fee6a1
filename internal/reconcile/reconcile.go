// Package reconcile turns whatever a backend has stored into a valid,
// current-shape ListCollection.
//
// Three legacy shapes are handled:
//   - a flat watchlist with no named-list concept
//   - a flat watched list stored separately
//   - a list collection missing one or both default lists
//
// When a current-shape record exists it always wins and legacy records are
// discarded without merging.
package reconcile

import (
	"fmt"
	"strings"

	"github.com/mmcdole/moviebase/internal/domain"
)

// UntitledName replaces blank custom list names
const UntitledName = "Untitled list"

// Result is a normalized collection plus what had to change to produce it
type Result struct {
	Collection domain.ListCollection

	Provisioned     bool // Nothing was stored; defaults were created
	Migrated        bool // Legacy records were moved into the default lists
	Repaired        bool // Current-shape data violated an invariant and was fixed
	DiscardedLegacy int  // Legacy items dropped because a current record exists
	LegacyPresent   bool // Legacy keys still exist and must be cleared
}

// NeedsWrite reports whether the normalized collection differs from storage
func (r Result) NeedsWrite() bool {
	return r.Provisioned || r.Migrated || r.Repaired || r.LegacyPresent
}

// Normalize reconciles raw persisted state. newID supplies ids for stored
// lists that lack one.
func Normalize(raw *domain.PersistedState, newID func() string) Result {
	if raw.IsEmpty() {
		return Result{Collection: domain.NewListCollection(), Provisioned: true}
	}

	if raw.HasLists {
		res := normalizeCurrent(raw.Lists, newID)
		if raw.HasLegacy() {
			res.LegacyPresent = true
			res.DiscardedLegacy = len(raw.LegacyWatchlist) + len(raw.LegacyWatched)
		}
		return res
	}

	return migrateLegacy(raw)
}

func migrateLegacy(raw *domain.PersistedState) Result {
	coll := domain.NewListCollection()
	for _, item := range raw.LegacyWatchlist {
		coll.Watchlist().Add(item)
	}
	for _, item := range raw.LegacyWatched {
		coll.Watched().Add(item)
	}
	return Result{Collection: coll, Migrated: true, LegacyPresent: true}
}

func normalizeCurrent(stored []domain.List, newID func() string) Result {
	res := Result{Collection: domain.NewListCollection()}
	coll := &res.Collection

	var foundWatchlist, foundWatched bool
	var custom []domain.List

	for _, l := range stored {
		target := defaultTarget(coll, l)
		if target == nil {
			custom = append(custom, l)
			continue
		}

		switch {
		case l.ID == domain.WatchlistID && !foundWatchlist:
			foundWatchlist = true
		case l.ID == domain.WatchedID && !foundWatched:
			foundWatched = true
		default:
			// Second record for a default list, or a custom list carrying a
			// default name: fold its items into the real default.
			res.Repaired = true
		}
		if l.Name != target.Name || l.IsDeletable {
			res.Repaired = true
		}
		if addAll(target, l.Items) {
			res.Repaired = true
		}
	}

	if !foundWatchlist || !foundWatched {
		res.Repaired = true
	}

	taken := map[string]bool{
		domain.FoldName(domain.WatchlistName): true,
		domain.FoldName(domain.WatchedName):   true,
	}
	seenIDs := map[string]bool{domain.WatchlistID: true, domain.WatchedID: true}

	for _, l := range custom {
		out := domain.List{ID: l.ID, Name: strings.TrimSpace(l.Name), IsDeletable: true, Items: []domain.CatalogItem{}}
		if !l.IsDeletable || out.Name != l.Name {
			res.Repaired = true
		}
		if out.ID == "" || seenIDs[out.ID] {
			out.ID = newID()
			res.Repaired = true
		}
		seenIDs[out.ID] = true

		if out.Name == "" {
			out.Name = UntitledName
			res.Repaired = true
		}
		if unique := uniqueName(out.Name, taken); unique != out.Name {
			out.Name = unique
			res.Repaired = true
		}
		taken[domain.FoldName(out.Name)] = true

		if addAll(&out, l.Items) {
			res.Repaired = true
		}
		coll.Lists = append(coll.Lists, out)
	}

	return res
}

// defaultTarget returns the default list l belongs to, by id or by name
func defaultTarget(coll *domain.ListCollection, l domain.List) *domain.List {
	switch l.ID {
	case domain.WatchlistID:
		return coll.Watchlist()
	case domain.WatchedID:
		return coll.Watched()
	}
	switch domain.FoldName(l.Name) {
	case domain.FoldName(domain.WatchlistName):
		return coll.Watchlist()
	case domain.FoldName(domain.WatchedName):
		return coll.Watched()
	}
	return nil
}

// addAll appends items to l, reporting whether any were duplicates
func addAll(l *domain.List, items []domain.CatalogItem) (dropped bool) {
	for _, item := range items {
		if !l.Add(item) {
			dropped = true
		}
	}
	return dropped
}

func uniqueName(name string, taken map[string]bool) string {
	if !taken[domain.FoldName(name)] {
		return name
	}
	for n := 2; ; n++ {
		candidate := fmt.Sprintf("%s (%d)", name, n)
		if !taken[domain.FoldName(candidate)] {
			return candidate
		}
	}
}
