package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/mmcdole/moviebase/internal/domain"
	bolt "go.etcd.io/bbolt"
)

// Bucket names
var (
	bucketLists  = []byte("lists")
	bucketLegacy = []byte("legacy")
)

// ListsKey holds the full list collection blob
const ListsKey = "moviebase_lists"

// Legacy keys from the single-list era. "watched_list" was written by a
// separate watched tracker and holds the same shape as "watched".
const (
	LegacyWatchlistKey   = "watchlist"
	LegacyWatchedKey     = "watched"
	LegacyWatchedListKey = "watched_list"
)

var legacyKeys = []string{LegacyWatchlistKey, LegacyWatchedKey, LegacyWatchedListKey}

// LocalStore implements domain.PersistenceAdapter as one JSON blob per
// scope in BoltDB. Every save is a single bbolt transaction, so a failed
// write leaves the previous blob intact.
type LocalStore struct {
	db       *bolt.DB
	perActor bool
	logger   *slog.Logger

	mu sync.RWMutex // Protects memory cache

	// In-memory copy of committed values; the only storage in memory mode
	cache map[string][]byte

	// Legacy keys whose record is not a JSON array. Save leaves them alone.
	unreadable map[string]bool
}

// storedList is the blob form of a domain.List. Items are decoded one at a
// time so a single bad entry does not make the whole collection unreadable.
type storedList struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Items       []json.RawMessage `json:"items"`
	IsDeletable bool              `json:"isDeletable"`
}

// NewLocalStore opens (or creates) the database in dir. An empty dir gives a
// memory-only store. With perActor false every actor shares one namespace.
func NewLocalStore(dir string, perActor bool, logger *slog.Logger) (*LocalStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if dir == "" {
		return &LocalStore{perActor: perActor, logger: logger, cache: make(map[string][]byte), unreadable: make(map[string]bool)}, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	dbPath := filepath.Join(dir, "moviebase.db")
	db, err := bolt.Open(dbPath, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{bucketLists, bucketLegacy} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	s := &LocalStore{db: db, perActor: perActor, logger: logger, cache: make(map[string][]byte), unreadable: make(map[string]bool)}
	s.pickUpLegacyFiles(dir)
	return s, nil
}

// pickUpLegacyFiles moves JSON exports from the single-list era
// (watchlist.json, watched.json, watched_list.json) into the legacy bucket
// so reconciliation can migrate them. Files are removed once stored.
func (s *LocalStore) pickUpLegacyFiles(dir string) {
	for _, key := range legacyKeys {
		path := filepath.Join(dir, key+".json")
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var items []json.RawMessage
		if err := json.Unmarshal(data, &items); err != nil {
			s.logger.Warn("ignoring unreadable legacy file", "path", path, "error", err)
			continue
		}
		err = s.db.Update(func(tx *bolt.Tx) error {
			b := tx.Bucket(bucketLegacy)
			if b.Get([]byte(key)) != nil {
				return nil
			}
			return b.Put([]byte(key), data)
		})
		if err != nil {
			s.logger.Error("failed to store legacy file", "path", path, "error", err)
			continue
		}
		os.Remove(path) // Ignore errors
		s.logger.Info("picked up legacy list file", "path", path, "count", len(items))
	}
}

func (s *LocalStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *LocalStore) listsKey(actor domain.Actor) string {
	if !s.perActor {
		return ListsKey
	}
	return ListsKey + ":" + actor.Scope()
}

// === Generic helpers ===

func (s *LocalStore) get(bucket []byte, key string) ([]byte, error) {
	cacheKey := string(bucket) + ":" + key

	// Check memory cache first
	s.mu.RLock()
	if data, ok := s.cache[cacheKey]; ok {
		s.mu.RUnlock()
		return data, nil
	}
	s.mu.RUnlock()

	if s.db == nil {
		return nil, nil
	}

	var data []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		if b == nil {
			return nil
		}
		if v := b.Get([]byte(key)); v != nil {
			data = make([]byte, len(v))
			copy(data, v)
		}
		return nil
	})
	if err != nil || data == nil {
		return nil, err
	}

	// Promote to memory cache
	s.mu.Lock()
	s.cache[cacheKey] = data
	s.mu.Unlock()

	return data, nil
}

// === PersistenceAdapter ===

// Load reads the list blob and any legacy records for actor
func (s *LocalStore) Load(ctx context.Context, actor domain.Actor) (*domain.PersistedState, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	state := &domain.PersistedState{}

	data, err := s.get(bucketLists, s.listsKey(actor))
	if err != nil {
		return nil, fmt.Errorf("read lists: %w", err)
	}
	if data != nil {
		var stored []storedList
		if err := json.Unmarshal(data, &stored); err != nil {
			return nil, fmt.Errorf("decode lists: %w", err)
		}
		state.Lists = make([]domain.List, 0, len(stored))
		for _, l := range stored {
			state.Lists = append(state.Lists, domain.List{
				ID:          l.ID,
				Name:        l.Name,
				Items:       s.decodeItems(l.Items, l.ID),
				IsDeletable: l.IsDeletable,
			})
		}
		state.HasLists = true
	}

	for _, key := range legacyKeys {
		data, err := s.get(bucketLegacy, key)
		if err != nil {
			return nil, fmt.Errorf("read legacy %s: %w", key, err)
		}
		if data == nil {
			continue
		}
		var raw []json.RawMessage
		if err := json.Unmarshal(data, &raw); err != nil {
			// Kept in place for manual recovery
			s.logger.Warn("leaving unreadable legacy record in place", "key", key, "error", err)
			s.mu.Lock()
			s.unreadable[key] = true
			s.mu.Unlock()
			continue
		}
		items := s.decodeItems(raw, key)
		if key == LegacyWatchlistKey {
			state.LegacyWatchlist = items
			state.HasLegacyWatchlist = true
		} else {
			state.LegacyWatched = append(state.LegacyWatched, items...)
			state.HasLegacyWatched = true
		}
	}

	if state.IsEmpty() {
		return nil, nil
	}
	return state, nil
}

// decodeItems decodes stored items, skipping entries without a valid identity
func (s *LocalStore) decodeItems(raw []json.RawMessage, where string) []domain.CatalogItem {
	items := make([]domain.CatalogItem, 0, len(raw))
	for _, r := range raw {
		var item domain.CatalogItem
		if err := json.Unmarshal(r, &item); err != nil || !item.Valid() {
			s.logger.Warn("skipping unreadable stored item", "list", where, "item", string(r), "error", err)
			continue
		}
		items = append(items, item)
	}
	return items
}

// clearableLegacyKeys returns the legacy keys a save may delete
func (s *LocalStore) clearableLegacyKeys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(legacyKeys))
	for _, k := range legacyKeys {
		if !s.unreadable[k] {
			keys = append(keys, k)
		}
	}
	return keys
}

// Save writes the whole collection and clears legacy keys in one transaction
func (s *LocalStore) Save(ctx context.Context, actor domain.Actor, coll domain.ListCollection) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(coll.Lists)
	if err != nil {
		return fmt.Errorf("encode lists: %w", err)
	}
	key := s.listsKey(actor)
	clearKeys := s.clearableLegacyKeys()

	if s.db != nil {
		err = s.db.Update(func(tx *bolt.Tx) error {
			if err := tx.Bucket(bucketLists).Put([]byte(key), data); err != nil {
				return err
			}
			legacy := tx.Bucket(bucketLegacy)
			for _, k := range clearKeys {
				if err := legacy.Delete([]byte(k)); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("write lists: %w", err)
		}
	}

	// Memory cache reflects committed state only
	s.mu.Lock()
	s.cache[string(bucketLists)+":"+key] = data
	for _, k := range clearKeys {
		delete(s.cache, string(bucketLegacy)+":"+k)
	}
	s.mu.Unlock()

	s.logger.Debug("saved lists", "actor", actor.String(), "lists", len(coll.Lists), "bytes", len(data))
	return nil
}

// PutLegacy stores a legacy flat list under key. Used when importing data
// exported by the single-list era.
func (s *LocalStore) PutLegacy(key string, items []domain.CatalogItem) error {
	valid := false
	for _, k := range legacyKeys {
		if k == key {
			valid = true
		}
	}
	if !valid {
		return fmt.Errorf("unknown legacy key %q", key)
	}

	data, err := json.Marshal(items)
	if err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.unreadable, key)
	s.mu.Unlock()
	if s.db != nil {
		err := s.db.Update(func(tx *bolt.Tx) error {
			return tx.Bucket(bucketLegacy).Put([]byte(key), data)
		})
		if err != nil {
			return err
		}
	}
	s.mu.Lock()
	s.cache[string(bucketLegacy)+":"+key] = data
	s.mu.Unlock()
	return nil
}

// InvalidateCache drops the in-memory copies so the next read hits disk.
// In memory-only mode this is a no-op.
func (s *LocalStore) InvalidateCache() {
	if s.db == nil {
		return
	}
	s.mu.Lock()
	s.cache = make(map[string][]byte)
	s.mu.Unlock()
}
