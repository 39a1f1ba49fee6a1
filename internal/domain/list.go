package domain

import (
	"strings"

	"golang.org/x/text/cases"
)

// Default list identity. These ids match what earlier versions persisted.
const (
	WatchlistID   = "default-watchlist"
	WatchlistName = "My Watchlist"
	WatchedID     = "default-watched"
	WatchedName   = "Watched"
)

// List is a named, ordered, deduplicated collection of catalog items
type List struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Items       []CatalogItem `json:"items"`
	IsDeletable bool          `json:"isDeletable"`
}

// FoldName normalizes a list name for case-insensitive comparison
func FoldName(name string) string {
	return cases.Fold().String(strings.TrimSpace(name))
}

// IsDefaultID reports whether id belongs to one of the system lists
func IsDefaultID(id string) bool {
	return id == WatchlistID || id == WatchedID
}

// DefaultLists returns fresh, empty copies of the two system lists
func DefaultLists() []List {
	return []List{
		{ID: WatchlistID, Name: WatchlistName, Items: []CatalogItem{}, IsDeletable: false},
		{ID: WatchedID, Name: WatchedName, Items: []CatalogItem{}, IsDeletable: false},
	}
}

// IndexOf returns the position of the item with key, or -1
func (l *List) IndexOf(key ItemKey) int {
	for i, item := range l.Items {
		if item.Key() == key {
			return i
		}
	}
	return -1
}

// Contains reports whether an item with key is a member
func (l *List) Contains(key ItemKey) bool {
	return l.IndexOf(key) >= 0
}

// Add appends item unless its key is already present. Returns true if added.
func (l *List) Add(item CatalogItem) bool {
	if idx := l.IndexOf(item.Key()); idx >= 0 {
		l.Items[idx] = Merge(l.Items[idx], item)
		return false
	}
	l.Items = append(l.Items, item)
	return true
}

// InsertAt places item at index i (clamped). No-op if the key is present.
func (l *List) InsertAt(i int, item CatalogItem) bool {
	if l.Contains(item.Key()) {
		return false
	}
	if i < 0 {
		i = 0
	}
	if i > len(l.Items) {
		i = len(l.Items)
	}
	l.Items = append(l.Items, CatalogItem{})
	copy(l.Items[i+1:], l.Items[i:])
	l.Items[i] = item
	return true
}

// Remove deletes the item with key. Returns the removed index, or -1.
func (l *List) Remove(key ItemKey) int {
	idx := l.IndexOf(key)
	if idx < 0 {
		return -1
	}
	l.Items = append(l.Items[:idx], l.Items[idx+1:]...)
	return idx
}

// Clone returns a deep copy of the list
func (l List) Clone() List {
	items := make([]CatalogItem, len(l.Items))
	copy(items, l.Items)
	l.Items = items
	return l
}

// ListCollection is every list owned by one actor.
// The two default lists always occupy the first two positions.
type ListCollection struct {
	Lists []List `json:"lists"`
}

// NewListCollection returns a collection holding only the default lists
func NewListCollection() ListCollection {
	return ListCollection{Lists: DefaultLists()}
}

// Find returns the list with id, or nil
func (c *ListCollection) Find(id string) *List {
	for i := range c.Lists {
		if c.Lists[i].ID == id {
			return &c.Lists[i]
		}
	}
	return nil
}

// FindByName returns the list whose folded name matches, or nil
func (c *ListCollection) FindByName(name string) *List {
	folded := FoldName(name)
	for i := range c.Lists {
		if FoldName(c.Lists[i].Name) == folded {
			return &c.Lists[i]
		}
	}
	return nil
}

// Watchlist returns the default "My Watchlist" list
func (c *ListCollection) Watchlist() *List {
	return c.Find(WatchlistID)
}

// Watched returns the default "Watched" list
func (c *ListCollection) Watched() *List {
	return c.Find(WatchedID)
}

// Membership returns the ids of every list containing key
func (c *ListCollection) Membership(key ItemKey) map[string]bool {
	membership := make(map[string]bool)
	for i := range c.Lists {
		if c.Lists[i].Contains(key) {
			membership[c.Lists[i].ID] = true
		}
	}
	return membership
}

// Clone returns a deep copy of the collection
func (c ListCollection) Clone() ListCollection {
	lists := make([]List, len(c.Lists))
	for i, l := range c.Lists {
		lists[i] = l.Clone()
	}
	return ListCollection{Lists: lists}
}

// ItemCount returns the total number of memberships across all lists
func (c ListCollection) ItemCount() int {
	n := 0
	for _, l := range c.Lists {
		n += len(l.Items)
	}
	return n
}
