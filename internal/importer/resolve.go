package importer

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"unicode"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/mozillazg/go-unidecode"
	"golang.org/x/sync/errgroup"

	"github.com/mmcdole/moviebase/internal/domain"
)

const DefaultConcurrency = 4

// Resolution is the outcome of looking up one imported title
type Resolution struct {
	Query    string
	Item     domain.CatalogItem
	Resolved bool
	Err      error // Search failure; nil when the search simply found nothing usable
}

// Resolver looks titles up through a CatalogSearcher
type Resolver struct {
	searcher    domain.CatalogSearcher
	concurrency int
	logger      *slog.Logger
}

// NewResolver creates a resolver running at most concurrency searches at once
func NewResolver(searcher domain.CatalogSearcher, concurrency int, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Resolver{searcher: searcher, concurrency: concurrency, logger: logger}
}

// Resolve searches every title and picks its best match. Results keep the
// order of titles. A failed search marks only that title unresolved.
func (r *Resolver) Resolve(ctx context.Context, titles []string) []Resolution {
	results := make([]Resolution, len(titles))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)

	for i, title := range titles {
		i, title := i, title
		g.Go(func() error {
			results[i] = r.resolveOne(gctx, title)
			return nil
		})
	}
	g.Wait() // Workers never fail the group

	return results
}

func (r *Resolver) resolveOne(ctx context.Context, title string) Resolution {
	res := Resolution{Query: title}
	if err := ctx.Err(); err != nil {
		res.Err = err
		return res
	}

	found, err := r.searcher.Search(ctx, title)
	if err != nil {
		r.logger.Warn("failed to search title", "error", err, "title", title)
		res.Err = err
		return res
	}

	item, ok := BestMatch(title, found)
	if !ok {
		r.logger.Debug("no usable match", "title", title, "results", len(found))
		return res
	}
	res.Item, res.Resolved = item, true
	return res
}

// BestMatch picks the result closest to query among movies and series that
// have a poster. Ties keep the provider's order, so with no better signal
// the first candidate wins.
func BestMatch(query string, results []domain.SearchResult) (domain.CatalogItem, bool) {
	type ranked struct {
		item  domain.CatalogItem
		score int
	}

	q := normalizeTitle(query)
	var candidates []ranked
	for _, res := range results {
		item, ok := domain.ItemFromSearchResult(res)
		if !ok || item.Poster() == "" {
			continue
		}
		candidates = append(candidates, ranked{item: item, score: matchScore(q, normalizeTitle(item.Title))})
	}
	if len(candidates) == 0 {
		return domain.CatalogItem{}, false
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score < candidates[j].score
	})
	return candidates[0].item, true
}

// matchScore ranks how well title matches query. Lower is better.
func matchScore(query, title string) int {
	switch {
	case title == query:
		return 0
	case strings.HasPrefix(title, query):
		return 10
	case strings.Contains(title, query):
		return 50
	}
	if d := fuzzy.RankMatchNormalizedFold(query, title); d >= 0 {
		return 75 + d
	}
	return 100 + fuzzy.LevenshteinDistance(query, title)
}

// normalizeTitle lowercases, transliterates to ASCII and keeps only letters,
// digits and single spaces, so "Amélie!" and "amelie" compare equal.
func normalizeTitle(s string) string {
	s = strings.ToLower(unidecode.Unidecode(s))
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	return strings.Join(fields, " ")
}
