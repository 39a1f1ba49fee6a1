package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/mmcdole/moviebase/internal/adapter"
	"github.com/mmcdole/moviebase/internal/domain"
	"github.com/mmcdole/moviebase/internal/lists"
)

// Version is set at build time via -ldflags
var Version = "dev"

const shutdownTimeout = 15 * time.Second

var (
	configPath string
	actorFlag  string
)

var rootCmd = &cobra.Command{
	Use:   "moviebase",
	Short: "Keep movie and series watchlists",
	Long: `moviebase keeps named lists of movies and series: the default
"My Watchlist" and "Watched" lists plus any lists you create.

Run without arguments in a terminal to open the interactive browser.
When output is not a terminal the lists are printed instead.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if term.IsTerminal(int(os.Stdout.Fd())) {
			return runTUI(cmd.Context())
		}
		return runLists(cmd, args)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.config/moviebase/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&actorFlag, "actor", "", "act as this account instead of the configured one")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// app holds the wired services for one command
type app struct {
	cfg     *adapter.Config
	logger  *slog.Logger
	adapter domain.PersistenceAdapter
	lists   *lists.Store
	session *adapter.Session
}

// openApp loads configuration and opens storage. The list store is not
// loaded yet; callers start the session when they are ready.
func openApp(ctx context.Context, opts ...lists.Option) (*app, error) {
	cfg, err := adapter.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if actorFlag != "" {
		cfg.Session.ActorID = actorFlag
	}

	logger, err := adapter.SetupLogger(&cfg.Logging)
	if err != nil {
		// Fall back to null logger if file logging fails
		logger = adapter.NullLogger()
	}
	slog.SetDefault(logger)
	logger.Info("starting moviebase", "version", Version, "backend", cfg.Storage.Backend)

	persistence, err := adapter.OpenAdapter(ctx, cfg.Storage, logger)
	if err != nil {
		return nil, err
	}

	opts = append([]lists.Option{
		lists.WithLoadTimeout(cfg.Storage.LoadTimeout),
		lists.WithWriteTimeout(cfg.Storage.WriteTimeout),
	}, opts...)
	store := lists.NewStore(persistence, logger, opts...)

	// The actor flag is a one-off override and is not remembered
	persist := adapter.SaveActor
	if actorFlag != "" {
		persist = nil
	}

	return &app{
		cfg:     cfg,
		logger:  logger,
		adapter: persistence,
		lists:   store,
		session: adapter.NewSession(store, persist, logger),
	}, nil
}

// start loads the configured actor's lists. A degraded load is reported
// but not fatal: the defaults are shown and every change retries the load
// before it is written.
func (a *app) start(ctx context.Context) error {
	if _, err := a.session.Start(ctx, a.cfg.Session.ActorID); err != nil {
		if errors.Is(err, domain.ErrPersistenceUnavailable) {
			a.logger.Warn("lists loaded with defaults", "error", err)
			fmt.Fprintf(os.Stderr, "Warning: %v (changes are refused until storage is reachable)\n", err)
			return nil
		}
		return err
	}
	return nil
}

// close flushes pending writes and releases storage
func (a *app) close() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := a.lists.Close(ctx); err != nil {
		a.logger.Error("failed to flush lists", "error", err)
		fmt.Fprintf(os.Stderr, "Warning: some changes may not have been saved: %v\n", err)
	}
	if err := a.adapter.Close(); err != nil {
		a.logger.Error("failed to close storage", "error", err)
	}
	a.logger.Info("shutting down")
}
