package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmcdole/moviebase/internal/domain"
	"github.com/mmcdole/moviebase/internal/importer"
	"github.com/mmcdole/moviebase/internal/view"
)

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"version"})
	t.Cleanup(func() { rootCmd.SetArgs(nil); rootCmd.SetOut(nil) })

	require.NoError(t, rootCmd.Execute())
	assert.Equal(t, "moviebase dev\n", out.String())
}

func TestShowRejectsUnknownKind(t *testing.T) {
	rootCmd.SetArgs([]string{"show", "Watched", "--kind", "podcasts"})
	rootCmd.SetErr(&bytes.Buffer{})
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetErr(nil)
		showKind = "all"
	})

	err := rootCmd.Execute()
	assert.ErrorContains(t, err, "unknown kind")
}

func TestFindList(t *testing.T) {
	coll := domain.NewListCollection()
	coll.Lists = append(coll.Lists, domain.List{ID: "abc", Name: "Horror", IsDeletable: true})

	l, err := findList(coll, "abc")
	require.NoError(t, err)
	assert.Equal(t, "Horror", l.Name)

	l, err = findList(coll, "  my watchlist ")
	require.NoError(t, err)
	assert.Equal(t, domain.WatchlistID, l.ID)

	_, err = findList(coll, "comedy")
	assert.ErrorIs(t, err, domain.ErrListNotFound)
}

func TestRenderTables(t *testing.T) {
	coll := domain.NewListCollection()
	coll.Watchlist().Add(domain.CatalogItem{ID: 348, Kind: domain.MediaKindMovie, Title: "Alien", ReleaseDate: "1979-05-25"})

	lists := renderListsTable(coll)
	assert.Contains(t, lists, "My Watchlist *")
	assert.Contains(t, lists, domain.WatchedID)

	items := renderItemsTable(view.Project(coll.Watchlist().Items, view.Query{}))
	assert.Contains(t, items, "Alien")
	assert.Contains(t, items, "movie:348")
}

func TestPrintImportReport(t *testing.T) {
	var out bytes.Buffer
	printImportReport(&out, importer.Report{
		ImportReport: domain.ImportReport{Added: 1, Skipped: 2},
		Resolved: []importer.Match{{
			Query: "alien",
			Item:  domain.CatalogItem{Title: "Alien", ReleaseDate: "1979-05-25"},
		}},
		Unresolved: []string{"zzz"},
	})

	assert.Contains(t, out.String(), "-> Alien (1979)")
	assert.Contains(t, out.String(), "No match for: zzz")
	assert.Contains(t, out.String(), "Added 1, skipped 2, failed 0")
}
