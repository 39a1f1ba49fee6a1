// Package sqlstore keeps lists in SQL tables: one row per list and one row
// per membership. It serves PostgreSQL through pgx and SQLite through either
// the pure-Go or the cgo driver.
package sqlstore

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/mmcdole/moviebase/internal/domain"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Supported database/sql driver names
const (
	DriverPostgres     = "pgx"
	DriverSQLite       = "sqlite"  // modernc.org/sqlite
	DriverSQLiteCgo    = "sqlite3" // github.com/mattn/go-sqlite3
	defaultPingTimeout = 5 * time.Second
)

// Store implements domain.PersistenceAdapter and domain.MembershipWriter
type Store struct {
	db       *sql.DB
	postgres bool
	logger   *slog.Logger
	now      func() time.Time
}

// Open connects with driver and dsn and applies pending migrations
func Open(ctx context.Context, driver, dsn string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var dialect goose.Dialect
	switch driver {
	case DriverPostgres:
		dialect = goose.DialectPostgres
	case DriverSQLite, DriverSQLiteCgo:
		dialect = goose.DialectSQLite3
	default:
		return nil, fmt.Errorf("unsupported sql driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dialect == goose.DialectSQLite3 {
		// SQLite allows one writer; a single connection avoids SQLITE_BUSY
		db.SetMaxOpenConns(1)
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultPingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := migrate(ctx, db, dialect, logger); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db, postgres: dialect == goose.DialectPostgres, logger: logger, now: time.Now}, nil
}

func migrate(ctx context.Context, db *sql.DB, dialect goose.Dialect, logger *slog.Logger) error {
	fsys, err := fs.Sub(migrations, "migrations")
	if err != nil {
		return err
	}
	provider, err := goose.NewProvider(dialect, db, fsys)
	if err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}
	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	for _, r := range results {
		logger.Info("applied migration", "version", r.Source.Version, "duration", r.Duration)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// rebind rewrites ? placeholders as $n for PostgreSQL
func (s *Store) rebind(query string) string {
	if !s.postgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// === Load ===

// Load returns nil when the actor has no lists yet. Row storage never held
// the legacy single-list shapes, so only current-shape data is reported.
func (s *Store) Load(ctx context.Context, actor domain.Actor) (*domain.PersistedState, error) {
	owner := actor.Scope()

	rows, err := s.db.QueryContext(ctx, s.rebind(
		`SELECT id, name, is_deletable FROM lists WHERE owner_id = ? ORDER BY position, created_at`), owner)
	if err != nil {
		return nil, fmt.Errorf("query lists: %w", err)
	}
	var lists []domain.List
	index := make(map[string]int)
	for rows.Next() {
		l := domain.List{Items: []domain.CatalogItem{}}
		if err := rows.Scan(&l.ID, &l.Name, &l.IsDeletable); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan list: %w", err)
		}
		index[l.ID] = len(lists)
		lists = append(lists, l)
	}
	if err := closeRows(rows); err != nil {
		return nil, fmt.Errorf("query lists: %w", err)
	}
	if len(lists) == 0 {
		return nil, nil
	}

	rows, err = s.db.QueryContext(ctx, s.rebind(
		`SELECT list_id, media_id, media_kind, title, poster_path, release_date, created_at
		 FROM memberships WHERE owner_id = ? ORDER BY list_id, position, created_at`), owner)
	if err != nil {
		return nil, fmt.Errorf("query memberships: %w", err)
	}
	for rows.Next() {
		var (
			listID string
			kind   string
			poster sql.NullString
			item   domain.CatalogItem
		)
		if err := rows.Scan(&listID, &item.ID, &kind, &item.Title, &poster, &item.ReleaseDate, &item.AddedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan membership: %w", err)
		}
		i, ok := index[listID]
		if !ok {
			s.logger.Warn("skipping membership of unknown list", "listID", listID, "actor", actor.String())
			continue
		}
		if item.Kind, err = domain.ParseMediaKind(kind); err != nil {
			s.logger.Warn("skipping membership with unknown media kind", "listID", listID, "kind", kind)
			continue
		}
		if poster.Valid {
			p := poster.String
			item.PosterPath = &p
		}
		lists[i].Items = append(lists[i].Items, item)
	}
	if err := closeRows(rows); err != nil {
		return nil, fmt.Errorf("query memberships: %w", err)
	}

	return &domain.PersistedState{Lists: lists, HasLists: true}, nil
}

func closeRows(rows *sql.Rows) error {
	err := rows.Err()
	return errors.Join(err, rows.Close())
}

// === Save ===

// Save makes the actor's rows match coll in one transaction: lists and
// memberships no longer present are deleted, the rest are upserted.
func (s *Store) Save(ctx context.Context, actor domain.Actor, coll domain.ListCollection) error {
	owner := actor.Scope()
	return s.inTx(ctx, func(tx *sql.Tx) error {
		stored, err := s.listIDs(ctx, tx, owner)
		if err != nil {
			return err
		}

		keep := make(map[string]bool, len(coll.Lists))
		for _, l := range coll.Lists {
			keep[l.ID] = true
		}
		for _, id := range stored {
			if keep[id] {
				continue
			}
			if _, err := tx.ExecContext(ctx, s.rebind(`DELETE FROM memberships WHERE owner_id = ? AND list_id = ?`), owner, id); err != nil {
				return fmt.Errorf("delete memberships of %s: %w", id, err)
			}
			if _, err := tx.ExecContext(ctx, s.rebind(`DELETE FROM lists WHERE owner_id = ? AND id = ?`), owner, id); err != nil {
				return fmt.Errorf("delete list %s: %w", id, err)
			}
		}

		now := s.now().UnixMilli()
		for pos, l := range coll.Lists {
			_, err := tx.ExecContext(ctx, s.rebind(
				`INSERT INTO lists (owner_id, id, name, is_deletable, position, created_at)
				 VALUES (?, ?, ?, ?, ?, ?)
				 ON CONFLICT (owner_id, id) DO UPDATE SET
				   name = excluded.name, is_deletable = excluded.is_deletable, position = excluded.position`),
				owner, l.ID, l.Name, l.IsDeletable, pos, now)
			if err != nil {
				return fmt.Errorf("upsert list %s: %w", l.ID, err)
			}
			if err := s.syncMemberships(ctx, tx, owner, l); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) syncMemberships(ctx context.Context, tx *sql.Tx, owner string, l domain.List) error {
	stored, err := s.memberKeys(ctx, tx, owner, l.ID)
	if err != nil {
		return err
	}

	keep := make(map[domain.ItemKey]bool, len(l.Items))
	for _, item := range l.Items {
		keep[item.Key()] = true
	}
	for _, key := range stored {
		if keep[key] {
			continue
		}
		if err := s.deleteMembership(ctx, tx, owner, l.ID, key); err != nil {
			return err
		}
	}

	for pos, item := range l.Items {
		if err := s.upsertMembership(ctx, tx, owner, l.ID, item, pos); err != nil {
			return err
		}
	}
	return nil
}

// === MembershipWriter ===

// AddMembership appends item to the end of a list. Adding an existing
// member changes nothing.
func (s *Store) AddMembership(ctx context.Context, actor domain.Actor, listID string, item domain.CatalogItem) error {
	owner := actor.Scope()
	return s.inTx(ctx, func(tx *sql.Tx) error {
		var next int
		err := tx.QueryRowContext(ctx, s.rebind(
			`SELECT COALESCE(MAX(position) + 1, 0) FROM memberships WHERE owner_id = ? AND list_id = ?`),
			owner, listID).Scan(&next)
		if err != nil {
			return fmt.Errorf("next position in %s: %w", listID, err)
		}
		_, err = tx.ExecContext(ctx, s.rebind(
			`INSERT INTO memberships (owner_id, list_id, media_id, media_kind, title, poster_path, release_date, created_at, position)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT (owner_id, list_id, media_kind, media_id) DO NOTHING`),
			owner, listID, item.ID, string(item.Kind), item.Title, item.PosterPath, item.ReleaseDate, item.AddedAt, next)
		if err != nil {
			return fmt.Errorf("insert membership %s: %w", item.Key(), err)
		}
		return nil
	})
}

// RemoveMemberships deletes keys from one list in a single transaction
func (s *Store) RemoveMemberships(ctx context.Context, actor domain.Actor, listID string, keys []domain.ItemKey) error {
	owner := actor.Scope()
	return s.inTx(ctx, func(tx *sql.Tx) error {
		for _, key := range keys {
			if err := s.deleteMembership(ctx, tx, owner, listID, key); err != nil {
				return err
			}
		}
		return nil
	})
}

// === Helpers ===

func (s *Store) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.logger.Error("failed to roll back", "error", rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *Store) listIDs(ctx context.Context, tx *sql.Tx, owner string) ([]string, error) {
	rows, err := tx.QueryContext(ctx, s.rebind(`SELECT id FROM lists WHERE owner_id = ?`), owner)
	if err != nil {
		return nil, fmt.Errorf("query list ids: %w", err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, closeRows(rows)
}

func (s *Store) memberKeys(ctx context.Context, tx *sql.Tx, owner, listID string) ([]domain.ItemKey, error) {
	rows, err := tx.QueryContext(ctx, s.rebind(
		`SELECT media_kind, media_id FROM memberships WHERE owner_id = ? AND list_id = ?`), owner, listID)
	if err != nil {
		return nil, fmt.Errorf("query memberships of %s: %w", listID, err)
	}
	var keys []domain.ItemKey
	for rows.Next() {
		var kind string
		var key domain.ItemKey
		if err := rows.Scan(&kind, &key.ID); err != nil {
			rows.Close()
			return nil, err
		}
		// Unparseable kinds are kept verbatim so the row is deleted
		key.Kind = domain.MediaKind(kind)
		keys = append(keys, key)
	}
	return keys, closeRows(rows)
}

func (s *Store) upsertMembership(ctx context.Context, tx *sql.Tx, owner, listID string, item domain.CatalogItem, pos int) error {
	_, err := tx.ExecContext(ctx, s.rebind(
		`INSERT INTO memberships (owner_id, list_id, media_id, media_kind, title, poster_path, release_date, created_at, position)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (owner_id, list_id, media_kind, media_id) DO UPDATE SET
		   title = excluded.title, poster_path = excluded.poster_path,
		   release_date = excluded.release_date, position = excluded.position`),
		owner, listID, item.ID, string(item.Kind), item.Title, item.PosterPath, item.ReleaseDate, item.AddedAt, pos)
	if err != nil {
		return fmt.Errorf("upsert membership %s in %s: %w", item.Key(), listID, err)
	}
	return nil
}

func (s *Store) deleteMembership(ctx context.Context, tx *sql.Tx, owner, listID string, key domain.ItemKey) error {
	_, err := tx.ExecContext(ctx, s.rebind(
		`DELETE FROM memberships WHERE owner_id = ? AND list_id = ? AND media_kind = ? AND media_id = ?`),
		owner, listID, string(key.Kind), key.ID)
	if err != nil {
		return fmt.Errorf("delete membership %s from %s: %w", key, listID, err)
	}
	return nil
}
