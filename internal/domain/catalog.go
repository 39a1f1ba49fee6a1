package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// MediaKind distinguishes the two catalog item types a list can hold
type MediaKind string

const (
	MediaKindMovie  MediaKind = "movie"
	MediaKindSeries MediaKind = "series"
)

// ParseMediaKind maps provider and legacy spellings onto a MediaKind.
// "tv" and "show" are accepted because older persisted data used them.
func ParseMediaKind(s string) (MediaKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "movie", "movies":
		return MediaKindMovie, nil
	case "series", "tv", "show":
		return MediaKindSeries, nil
	default:
		return "", fmt.Errorf("unknown media kind %q", s)
	}
}

// Label returns a human readable name for display
func (k MediaKind) Label() string {
	switch k {
	case MediaKindMovie:
		return "Movie"
	case MediaKindSeries:
		return "Series"
	default:
		return string(k)
	}
}

// Valid reports whether k is one of the known kinds
func (k MediaKind) Valid() bool {
	return k == MediaKindMovie || k == MediaKindSeries
}

// UnmarshalJSON accepts every spelling ParseMediaKind does
func (k *MediaKind) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	kind, err := ParseMediaKind(s)
	if err != nil {
		return err
	}
	*k = kind
	return nil
}

// ItemKey is the identity of a catalog item within a list.
// Provider ids are only unique per media kind, so both parts are required.
type ItemKey struct {
	Kind MediaKind
	ID   int64
}

// String returns the "kind:id" form used in logs and selection sets
func (k ItemKey) String() string {
	return string(k.Kind) + ":" + strconv.FormatInt(k.ID, 10)
}

// ParseItemKey parses the String form of an ItemKey
func ParseItemKey(s string) (ItemKey, error) {
	kindPart, idPart, ok := strings.Cut(s, ":")
	if !ok {
		return ItemKey{}, fmt.Errorf("invalid item key %q", s)
	}
	kind, err := ParseMediaKind(kindPart)
	if err != nil {
		return ItemKey{}, err
	}
	id, err := strconv.ParseInt(idPart, 10, 64)
	if err != nil {
		return ItemKey{}, fmt.Errorf("invalid item key %q: %w", s, err)
	}
	return ItemKey{Kind: kind, ID: id}, nil
}

// CatalogItem is a reference to a movie or series held as list membership data
type CatalogItem struct {
	ID          int64     `json:"id"`
	Kind        MediaKind `json:"media_type"`
	Title       string    `json:"title"`
	PosterPath  *string   `json:"poster_path"`
	ReleaseDate string    `json:"release_date"`
	AddedAt     int64     `json:"added_at,omitempty"` // Unix millis, 0 when unknown
}

// Key returns the identity key of the item
func (c CatalogItem) Key() ItemKey {
	return ItemKey{Kind: c.Kind, ID: c.ID}
}

// Valid reports whether the item has a usable identity key
func (c CatalogItem) Valid() bool {
	return c.ID > 0 && c.Kind.Valid()
}

// SameItem reports whether two items share an identity key
func SameItem(a, b CatalogItem) bool {
	return a.Key() == b.Key()
}

// Merge resolves a re-add of an item that is already a member.
// Membership is idempotent, so the existing record is kept as-is.
func Merge(existing, _ CatalogItem) CatalogItem {
	return existing
}

// ReleaseYear returns the year prefix of ReleaseDate, or 0 if it does not parse
func (c CatalogItem) ReleaseYear() int {
	if len(c.ReleaseDate) < 4 {
		return 0
	}
	year, err := strconv.Atoi(c.ReleaseDate[:4])
	if err != nil {
		return 0
	}
	return year
}

// Poster returns the poster path or an empty string
func (c CatalogItem) Poster() string {
	if c.PosterPath == nil {
		return ""
	}
	return *c.PosterPath
}
