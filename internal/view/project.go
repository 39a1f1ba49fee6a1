// Package view builds the read-only projections the presentation layer
// shows for a list: filtered by media kind and title, then sorted.
package view

import (
	"sort"
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/mmcdole/moviebase/internal/domain"
)

// KindFilter restricts a projection to one media kind
type KindFilter int

const (
	KindAll KindFilter = iota
	KindMovies
	KindSeries
)

func (k KindFilter) String() string {
	switch k {
	case KindMovies:
		return "movies"
	case KindSeries:
		return "series"
	default:
		return "all"
	}
}

// Next cycles all -> movies -> series -> all
func (k KindFilter) Next() KindFilter {
	return (k + 1) % 3
}

// ParseKindFilter accepts all, movie(s), series, tv
func ParseKindFilter(s string) (KindFilter, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return KindAll, true
	}
	kind, err := domain.ParseMediaKind(s)
	if err != nil {
		return KindAll, false
	}
	if kind == domain.MediaKindMovie {
		return KindMovies, true
	}
	return KindSeries, true
}

func (k KindFilter) matches(kind domain.MediaKind) bool {
	switch k {
	case KindMovies:
		return kind == domain.MediaKindMovie
	case KindSeries:
		return kind == domain.MediaKindSeries
	default:
		return true
	}
}

// SortOrder selects how a projection is ordered
type SortOrder int

const (
	SortAdded SortOrder = iota // List insertion order
	SortTitle
	SortRelease
)

func (s SortOrder) String() string {
	switch s {
	case SortTitle:
		return "title"
	case SortRelease:
		return "release"
	default:
		return "added"
	}
}

// Next cycles added -> title -> release -> added
func (s SortOrder) Next() SortOrder {
	return (s + 1) % 3
}

func ParseSortOrder(s string) (SortOrder, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "added", "default":
		return SortAdded, true
	case "title", "name":
		return SortTitle, true
	case "release", "date", "year":
		return SortRelease, true
	}
	return SortAdded, false
}

// Query describes a projection
type Query struct {
	Kind KindFilter
	Text string // Fuzzy title filter; empty keeps everything
	Sort SortOrder
	Desc bool
}

// Row is one projected item
type Row struct {
	Item           domain.CatalogItem
	Index          int   // Position in the source list
	MatchedIndexes []int // Title characters matched by Query.Text
}

// rowSource implements fuzzy.Source over kind-filtered rows
type rowSource []Row

func (r rowSource) String(i int) string { return strings.ToLower(r[i].Item.Title) }
func (r rowSource) Len() int            { return len(r) }

// Project filters and sorts items. With a text filter and the default sort,
// rows are ordered by match quality.
func Project(items []domain.CatalogItem, q Query) []Row {
	rows := make([]Row, 0, len(items))
	for i, item := range items {
		if q.Kind.matches(item.Kind) {
			rows = append(rows, Row{Item: item, Index: i})
		}
	}

	if text := strings.TrimSpace(q.Text); text != "" {
		matches := fuzzy.FindFrom(strings.ToLower(text), rowSource(rows))
		filtered := make([]Row, len(matches))
		for i, m := range matches {
			filtered[i] = rows[m.Index]
			filtered[i].MatchedIndexes = m.MatchedIndexes
		}
		rows = filtered
		if q.Sort == SortAdded {
			return rows
		}
	}

	switch q.Sort {
	case SortTitle:
		sort.SliceStable(rows, func(i, j int) bool {
			a, b := strings.ToLower(rows[i].Item.Title), strings.ToLower(rows[j].Item.Title)
			if q.Desc {
				return a > b
			}
			return a < b
		})
	case SortRelease:
		// Items without a parseable year always sort last
		sort.SliceStable(rows, func(i, j int) bool {
			a, b := rows[i].Item.ReleaseYear(), rows[j].Item.ReleaseYear()
			if a == 0 || b == 0 {
				return a != 0 && b == 0
			}
			da, db := rows[i].Item.ReleaseDate, rows[j].Item.ReleaseDate
			if q.Desc {
				return da > db
			}
			return da < db
		})
	default:
		if q.Desc {
			for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
				rows[i], rows[j] = rows[j], rows[i]
			}
		}
	}
	return rows
}

// Items returns the catalog items of rows in order
func Items(rows []Row) []domain.CatalogItem {
	items := make([]domain.CatalogItem, len(rows))
	for i, r := range rows {
		items[i] = r.Item
	}
	return items
}
