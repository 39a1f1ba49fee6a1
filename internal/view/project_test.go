package view

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmcdole/moviebase/internal/domain"
)

func titles(rows []Row) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Item.Title
	}
	return out
}

var sample = []domain.CatalogItem{
	{ID: 1, Kind: domain.MediaKindMovie, Title: "Heat", ReleaseDate: "1995-12-15"},
	{ID: 2, Kind: domain.MediaKindSeries, Title: "Dark", ReleaseDate: "2017-12-01"},
	{ID: 3, Kind: domain.MediaKindMovie, Title: "Alien", ReleaseDate: "1979-05-25"},
	{ID: 4, Kind: domain.MediaKindMovie, Title: "Untitled", ReleaseDate: "TBA"},
	{ID: 5, Kind: domain.MediaKindSeries, Title: "Alien Nation", ReleaseDate: ""},
}

func TestProjectDefaultKeepsInsertionOrder(t *testing.T) {
	rows := Project(sample, Query{})
	assert.Equal(t, []string{"Heat", "Dark", "Alien", "Untitled", "Alien Nation"}, titles(rows))
	assert.Equal(t, 2, rows[2].Index)

	rows = Project(sample, Query{Desc: true})
	assert.Equal(t, "Alien Nation", rows[0].Item.Title)
}

func TestProjectKindFilter(t *testing.T) {
	assert.Equal(t, []string{"Heat", "Alien", "Untitled"}, titles(Project(sample, Query{Kind: KindMovies})))
	assert.Equal(t, []string{"Dark", "Alien Nation"}, titles(Project(sample, Query{Kind: KindSeries})))
}

func TestProjectSortTitle(t *testing.T) {
	rows := Project(sample, Query{Sort: SortTitle})
	assert.Equal(t, []string{"Alien", "Alien Nation", "Dark", "Heat", "Untitled"}, titles(rows))

	rows = Project(sample, Query{Sort: SortTitle, Desc: true})
	assert.Equal(t, []string{"Untitled", "Heat", "Dark", "Alien Nation", "Alien"}, titles(rows))
}

func TestProjectSortReleaseUnparseableLast(t *testing.T) {
	rows := Project(sample, Query{Sort: SortRelease})
	assert.Equal(t, []string{"Alien", "Heat", "Dark", "Untitled", "Alien Nation"}, titles(rows))

	rows = Project(sample, Query{Sort: SortRelease, Desc: true})
	assert.Equal(t, []string{"Dark", "Heat", "Alien", "Untitled", "Alien Nation"}, titles(rows))
}

func TestProjectFuzzyText(t *testing.T) {
	rows := Project(sample, Query{Text: "aln"})
	require.Len(t, rows, 2)
	assert.ElementsMatch(t, []string{"Alien", "Alien Nation"}, titles(rows))
	assert.NotEmpty(t, rows[0].MatchedIndexes)

	rows = Project(sample, Query{Text: "ALIEN", Kind: KindSeries})
	assert.Equal(t, []string{"Alien Nation"}, titles(rows))

	rows = Project(sample, Query{Text: "alien", Sort: SortTitle, Desc: true})
	assert.Equal(t, []string{"Alien Nation", "Alien"}, titles(rows))

	assert.Empty(t, Project(sample, Query{Text: "zzz"}))
}

func TestParseFilters(t *testing.T) {
	k, ok := ParseKindFilter("tv")
	assert.True(t, ok)
	assert.Equal(t, KindSeries, k)
	_, ok = ParseKindFilter("books")
	assert.False(t, ok)
	assert.Equal(t, KindMovies, KindAll.Next())
	assert.Equal(t, KindAll, KindSeries.Next())

	s, ok := ParseSortOrder("Release")
	assert.True(t, ok)
	assert.Equal(t, SortRelease, s)
	assert.Equal(t, "title", SortAdded.Next().String())
}
