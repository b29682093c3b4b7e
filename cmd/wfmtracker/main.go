// Command wfmtracker polls the Warframe market for tracked items, stores
// order snapshots and price history, and serves them over HTTP.
//
// Usage:
//
//	wfmtracker -config configs/wfmtracker.yaml          # serve + scheduled jobs
//	wfmtracker -config configs/wfmtracker.yaml -run poll # one poll cycle, JSON summary on stdout
//	wfmtracker -config configs/wfmtracker.yaml -run sync # one catalog sync
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/rickgao/wfm-tracker/internal/aggregate"
	"github.com/rickgao/wfm-tracker/internal/api"
	"github.com/rickgao/wfm-tracker/internal/catalog"
	"github.com/rickgao/wfm-tracker/internal/config"
	"github.com/rickgao/wfm-tracker/internal/database"
	"github.com/rickgao/wfm-tracker/internal/httpapi"
	"github.com/rickgao/wfm-tracker/internal/orderbook"
	"github.com/rickgao/wfm-tracker/internal/poller"
	"github.com/rickgao/wfm-tracker/internal/ratelimit"
	"github.com/rickgao/wfm-tracker/internal/scheduler"
	"github.com/rickgao/wfm-tracker/internal/store"
	"github.com/rickgao/wfm-tracker/internal/store/memory"
	"github.com/rickgao/wfm-tracker/internal/store/postgres"
	"github.com/rickgao/wfm-tracker/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/wfmtracker.yaml", "path to config file (empty for defaults)")
	envFile := flag.String("env", ".env", "optional dotenv file loaded before the config")
	runJob := flag.String("run", "", "run one job and exit: poll or sync")
	flag.Parse()

	if err := run(*configPath, *envFile, *runJob); err != nil {
		fmt.Fprintln(os.Stderr, "wfmtracker:", err)
		os.Exit(1)
	}
}

func run(configPath, envFile, runJob string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.Log, os.Stderr)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	logger.Info("starting wfmtracker",
		"version", version.Version,
		"commit", version.Commit,
		"instance_id", cfg.Instance.ID,
		"config", configPath,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := openStore(ctx, cfg.Storage, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	client := api.NewClient(cfg.API.BaseURL,
		api.WithLogger(logger),
		api.WithTimeout(cfg.API.Timeout),
		api.WithRetries(cfg.API.MaxRetries, api.DefaultRetryBackoff),
		api.WithRateLimiter(ratelimit.New(cfg.API.MinInterval)),
		api.WithPlatform(cfg.API.Platform),
		api.WithLanguage(cfg.API.Language),
	)

	syncer := catalog.NewSyncer(catalog.Config{
		TrackedTag:          cfg.Catalog.TrackedTag,
		NamePrefix:          cfg.Catalog.NamePrefix,
		Category:            cfg.Catalog.Category,
		Language:            cfg.API.Language,
		DefaultTier:         cfg.Catalog.DefaultTier,
		DefaultPollInterval: cfg.Catalog.DefaultPollInterval,
	}, client, st, logger)

	reconciler := orderbook.NewReconciler(client, st, cfg.Poller.Platform, logger)
	runner := poller.NewRunner(poller.Config{
		MaxTier:     cfg.Poller.MaxTier,
		ItemTimeout: cfg.Poller.ItemTimeout,
	}, st, reconciler, aggregate.New(cfg.Poller.Platform), logger)

	switch runJob {
	case "":
		return serve(ctx, cfg, st, runner, syncer, logger)
	case "poll":
		summary, err := runner.RunCycle(ctx)
		if err != nil {
			return fmt.Errorf("poll: %w", err)
		}
		return printJSON(os.Stdout, struct {
			Success bool `json:"success"`
			poller.Summary
		}{true, summary})
	case "sync":
		result, err := syncer.Sync(ctx)
		if err != nil {
			return fmt.Errorf("sync: %w", err)
		}
		return printJSON(os.Stdout, struct {
			Success bool `json:"success"`
			catalog.Result
		}{true, result})
	default:
		return fmt.Errorf("unknown job %q: want poll or sync", runJob)
	}
}

// serve runs the HTTP API and the job scheduler until ctx is cancelled.
func serve(ctx context.Context, cfg *config.Config, st store.Store, runner *poller.Runner, syncer *catalog.Syncer, logger *slog.Logger) error {
	sched := scheduler.New(logger)
	if err := sched.Add(scheduler.Job{
		Name:     "sync-items",
		Schedule: cfg.Catalog.Schedule,
		Run: func(ctx context.Context) error {
			_, err := syncer.Sync(ctx)
			return err
		},
	}); err != nil {
		return err
	}
	if err := sched.Add(scheduler.Job{
		Name:       "poll-market",
		Schedule:   cfg.Poller.Schedule,
		RunOnStart: cfg.Poller.RunOnStart,
		Run: func(ctx context.Context) error {
			_, err := runner.RunCycle(ctx)
			if errors.Is(err, poller.ErrCycleRunning) {
				logger.Info("skipping scheduled poll, a cycle is already running")
				return nil
			}
			return err
		},
	}); err != nil {
		return err
	}

	readAPI := httpapi.New(httpapi.Config{
		HistoryLimit: cfg.HTTP.HistoryLimit,
		BookDepth:    cfg.HTTP.BookDepth,
		MetricsPath:  cfg.Metrics.Path,
	}, st, runner, syncer, logger)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler: readAPI.Routes(),
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting http server", "port", cfg.HTTP.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		if err := sched.Start(gctx); err != nil {
			return fmt.Errorf("start scheduler: %w", err)
		}
		<-gctx.Done()

		logger.Info("shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warn("http server shutdown", "err", err)
		}
		if err := sched.Stop(shutdownCtx); err != nil {
			logger.Warn("scheduler stop timed out", "err", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("wfmtracker stopped")
	return nil
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		cfg := config.Default()
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("validate config: %w", err)
		}
		return cfg, nil
	}
	return config.LoadAndValidate(path)
}

func openStore(ctx context.Context, cfg config.StorageConfig, logger *slog.Logger) (store.Store, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		logger.Warn("using in-memory storage; data is lost on exit")
		return memory.New(), nil
	case config.DriverPostgres:
		logger.Info("connecting to database",
			"host", cfg.Postgres.Host,
			"port", cfg.Postgres.Port,
			"database", cfg.Postgres.Name,
		)
		if cfg.Migrate {
			if err := database.Migrate(cfg.Postgres, logger); err != nil {
				return nil, err
			}
		}
		pool, err := database.Connect(ctx, cfg.Postgres)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		logger.Info("database connected")
		return postgres.New(pool), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

func newLogger(cfg config.LogConfig, w io.Writer) (*slog.Logger, error) {
	level, err := config.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
