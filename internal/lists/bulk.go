package lists

import (
	"context"

	"github.com/mmcdole/moviebase/internal/domain"
)

// BulkImport adds items to the default watchlist, skipping any already
// present or repeated within items. Items without a valid identity are
// counted as Failed and never stored. All additions are written at once; if
// that write fails they are reverted and also counted as Failed.
func (s *Store) BulkImport(ctx context.Context, items []domain.CatalogItem) (domain.ImportReport, error) {
	var report domain.ImportReport
	if err := s.begin(ctx); err != nil {
		return report, err
	}
	defer s.opMu.Unlock()

	actor, coll := s.current()
	watchlist := coll.Watchlist()
	stamp := s.now().UnixMilli()

	for _, item := range items {
		if !item.Valid() {
			s.logger.Warn("skipping invalid import item", "item", item.Key().String(), "title", item.Title)
			report.Failed++
			continue
		}
		if item.AddedAt == 0 {
			item.AddedAt = stamp
		}
		if watchlist.Add(item) {
			report.Added++
		} else {
			report.Skipped++
		}
	}

	if report.Added == 0 {
		s.logger.Debug("bulk import added nothing", "skipped", report.Skipped)
		return report, nil
	}

	if err := s.save(ctx, actor, coll); err != nil {
		s.logger.Error("failed to save bulk import", "error", err, "count", report.Added)
		report.Failed += report.Added
		report.Added = 0
		return report, &domain.PersistenceError{Op: "save", Err: err}
	}

	s.commit(coll)
	s.notify(nil)
	s.logger.Info("bulk imported items", "added", report.Added, "skipped", report.Skipped)
	return report, nil
}

// BulkDelete removes items from the source list only. It is all or nothing:
// if the write fails no removal is kept. Returns the number removed.
func (s *Store) BulkDelete(ctx context.Context, sourceID string, items []domain.CatalogItem) (int, error) {
	if len(items) == 0 {
		return 0, nil
	}
	if err := s.begin(ctx); err != nil {
		return 0, err
	}
	defer s.opMu.Unlock()

	actor, coll := s.current()
	source := coll.Find(sourceID)
	if source == nil {
		return 0, domain.ErrListNotFound
	}

	var keys []domain.ItemKey
	for _, item := range items {
		if source.Remove(item.Key()) >= 0 {
			keys = append(keys, item.Key())
		}
	}
	if len(keys) == 0 {
		return 0, nil
	}

	if err := s.writeRemove(ctx, actor, coll, sourceID, keys); err != nil {
		s.logger.Error("failed to bulk delete", "error", err, "listID", sourceID, "count", len(keys))
		return 0, &domain.PersistenceError{Op: "remove", Err: err}
	}

	s.commit(coll)
	s.notify(nil)
	s.logger.Info("bulk deleted items", "listID", sourceID, "count", len(keys))
	return len(keys), nil
}

// BulkMove moves items from source to destination one at a time, adding
// before removing. A failed add leaves the item untouched; a failed remove
// leaves it in both lists. The batch never aborts on a per-item failure.
func (s *Store) BulkMove(ctx context.Context, sourceID, destID string, items []domain.CatalogItem) (domain.MoveReport, error) {
	var report domain.MoveReport
	if sourceID == destID {
		return report, domain.ErrInvalidDestination
	}
	if len(items) == 0 {
		return report, nil
	}
	if err := s.begin(ctx); err != nil {
		return report, err
	}
	defer s.opMu.Unlock()

	actor, coll := s.current()
	source, dest := coll.Find(sourceID), coll.Find(destID)
	if source == nil || dest == nil {
		return report, domain.ErrListNotFound
	}

	seen := make(map[domain.ItemKey]bool, len(items))
	changed := false

	for _, item := range items {
		key := item.Key()
		if seen[key] {
			continue
		}
		seen[key] = true

		// Move the stored record when there is one
		if idx := source.IndexOf(key); idx >= 0 {
			item = source.Items[idx]
		}
		result := domain.MoveResult{Key: key, Title: item.Title}

		if !item.Valid() {
			result.Status = domain.MoveFailed
			result.Err = domain.ErrInvalidItem
			report.Results = append(report.Results, result)
			continue
		}

		if dest.Contains(key) {
			result.Status = domain.MoveSkippedAdd
		} else {
			dest.Add(item)
			if err := s.writeAdd(ctx, actor, coll, destID, item); err != nil {
				dest.Remove(key)
				result.Status = domain.MoveFailed
				result.Err = &domain.PersistenceError{Op: "add", Err: err}
				s.logger.Error("failed to add item during move", "error", err, "listID", destID, "item", key.String())
				report.Results = append(report.Results, result)
				continue
			}
			result.Status = domain.MoveMoved
			changed = true
		}

		idx := source.Remove(key)
		if idx >= 0 {
			if err := s.writeRemove(ctx, actor, coll, sourceID, []domain.ItemKey{key}); err != nil {
				source.InsertAt(idx, item)
				result.Status = domain.MoveDuplicated
				result.Err = &domain.PersistenceError{Op: "remove", Err: err}
				s.logger.Error("failed to remove item during move, kept in both lists", "error", err, "listID", sourceID, "item", key.String())
			} else {
				changed = true
			}
		}
		report.Results = append(report.Results, result)
	}

	if changed {
		s.commit(coll)
		s.notify(nil)
	}
	s.logger.Info("bulk moved items",
		"from", sourceID, "to", destID,
		"moved", report.Count(domain.MoveMoved),
		"skippedAdd", report.Count(domain.MoveSkippedAdd),
		"duplicated", report.Count(domain.MoveDuplicated),
		"failed", report.Count(domain.MoveFailed))
	return report, nil
}

// writeAdd persists one new membership. Row backends insert a single row;
// blob backends rewrite the collection, which already contains the item.
func (s *Store) writeAdd(ctx context.Context, actor domain.Actor, coll domain.ListCollection, listID string, item domain.CatalogItem) error {
	if s.rows == nil {
		return s.save(ctx, actor, coll)
	}
	if err := s.writes.flush(ctx); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, s.writeTimeout)
	defer cancel()
	return s.rows.AddMembership(ctx, actor, listID, item)
}

func (s *Store) writeRemove(ctx context.Context, actor domain.Actor, coll domain.ListCollection, listID string, keys []domain.ItemKey) error {
	if s.rows == nil {
		return s.save(ctx, actor, coll)
	}
	if err := s.writes.flush(ctx); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, s.writeTimeout)
	defer cancel()
	return s.rows.RemoveMemberships(ctx, actor, listID, keys)
}
