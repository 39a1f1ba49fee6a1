package adapter

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mmcdole/moviebase/internal/domain"
	"github.com/mmcdole/moviebase/internal/sqlstore"
	"github.com/mmcdole/moviebase/internal/store"
)

// OpenAdapter opens the persistence backend selected by cfg
func OpenAdapter(ctx context.Context, cfg StorageConfig, logger *slog.Logger) (domain.PersistenceAdapter, error) {
	if logger == nil {
		logger = slog.Default()
	}

	switch cfg.Backend {
	case BackendLocal, "":
		dir := expandHome(cfg.Local.Dir)
		s, err := store.NewLocalStore(dir, cfg.Local.PerActor, logger)
		if err != nil {
			return nil, fmt.Errorf("open local store: %w", err)
		}
		if dir == "" {
			logger.Warn("no storage directory configured, lists are kept in memory only")
		}
		logger.Debug("opened local store", "dir", dir, "perActor", cfg.Local.PerActor)
		return s, nil
	case BackendRemote:
		s, err := sqlstore.Open(ctx, cfg.Remote.Driver, cfg.Remote.DSN, logger)
		if err != nil {
			return nil, fmt.Errorf("open remote store: %w", err)
		}
		logger.Debug("opened remote store", "driver", cfg.Remote.Driver)
		return s, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
