// Package importer turns pasted or exported title lists into watchlist
// entries by resolving each title against the metadata provider.
package importer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/afero"

	"github.com/mmcdole/moviebase/internal/domain"
)

// BulkImporter receives resolved items. Implemented by lists.Store.
type BulkImporter interface {
	BulkImport(ctx context.Context, items []domain.CatalogItem) (domain.ImportReport, error)
}

// Match pairs an input title with the item it resolved to
type Match struct {
	Query string
	Item  domain.CatalogItem
}

// Report describes a finished import
type Report struct {
	domain.ImportReport
	Resolved   []Match
	Unresolved []string
}

// Importer reads titles, resolves them and adds them to the watchlist
type Importer struct {
	fs       afero.Fs
	resolver *Resolver
	lists    BulkImporter
	logger   *slog.Logger
}

// New creates an importer reading files from fs
func New(fs afero.Fs, resolver *Resolver, lists BulkImporter, logger *slog.Logger) *Importer {
	if logger == nil {
		logger = slog.Default()
	}
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Importer{fs: fs, resolver: resolver, lists: lists, logger: logger}
}

// ImportFile imports the JSON or CSV file at path
func (i *Importer) ImportFile(ctx context.Context, path string) (Report, error) {
	data, err := afero.ReadFile(i.fs, path)
	if err != nil {
		return Report{}, fmt.Errorf("read import file: %w", err)
	}
	return i.ImportText(ctx, string(data))
}

// ImportText imports pasted JSON or CSV text. Titles that cannot be resolved
// are reported, never fatal; only an unparseable input or a failed watchlist
// write returns an error.
func (i *Importer) ImportText(ctx context.Context, text string) (Report, error) {
	titles, err := ParseTitles(text)
	if err != nil {
		return Report{}, err
	}
	i.logger.Info("importing titles", "count", len(titles))

	var report Report
	var items []domain.CatalogItem
	for _, res := range i.resolver.Resolve(ctx, titles) {
		if !res.Resolved {
			report.Unresolved = append(report.Unresolved, res.Query)
			continue
		}
		report.Resolved = append(report.Resolved, Match{Query: res.Query, Item: res.Item})
		items = append(items, res.Item)
	}

	if len(items) > 0 {
		imported, err := i.lists.BulkImport(ctx, items)
		report.ImportReport = imported
		if err != nil {
			i.logger.Error("failed to import titles", "error", err, "count", len(items))
			return report, err
		}
	}

	i.logger.Info("import finished",
		"added", report.Added, "skipped", report.Skipped,
		"unresolved", len(report.Unresolved))
	return report, nil
}
