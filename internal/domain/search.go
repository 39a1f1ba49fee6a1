package domain

//go:generate mockgen -source=search.go -destination=mocks/mock_search.go -package=mocks

import "context"

// SearchResult is the raw result shape of the metadata provider's multi search.
// Movies carry Title/ReleaseDate, series carry Name/FirstAirDate.
type SearchResult struct {
	ID           int64   `json:"id"`
	Title        string  `json:"title,omitempty"`
	Name         string  `json:"name,omitempty"`
	PosterPath   *string `json:"poster_path"`
	MediaType    string  `json:"media_type"`
	ReleaseDate  string  `json:"release_date,omitempty"`
	FirstAirDate string  `json:"first_air_date,omitempty"`
}

// DisplayTitle returns Title for movies and Name for series
func (r SearchResult) DisplayTitle() string {
	if r.Title != "" {
		return r.Title
	}
	return r.Name
}

// ItemFromSearchResult normalizes a provider result into a CatalogItem.
// Results that are not a movie or series (e.g. people) are rejected.
func ItemFromSearchResult(r SearchResult) (CatalogItem, bool) {
	kind, err := ParseMediaKind(r.MediaType)
	if err != nil {
		return CatalogItem{}, false
	}
	date := r.ReleaseDate
	if date == "" {
		date = r.FirstAirDate
	}
	return CatalogItem{
		ID:          r.ID,
		Kind:        kind,
		Title:       r.DisplayTitle(),
		PosterPath:  r.PosterPath,
		ReleaseDate: date,
	}, true
}

// CatalogSearcher provides title search against the metadata provider
type CatalogSearcher interface {
	Search(ctx context.Context, query string) ([]SearchResult, error)
}
