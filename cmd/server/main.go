package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/hoanghai1803/bookshelf/internal/api"
	"github.com/hoanghai1803/bookshelf/internal/config"
	"github.com/hoanghai1803/bookshelf/internal/eventlog"
	"github.com/hoanghai1803/bookshelf/internal/feeds"
	"github.com/hoanghai1803/bookshelf/internal/history"
	"github.com/hoanghai1803/bookshelf/internal/readinglists"
	"github.com/hoanghai1803/bookshelf/internal/scheduler"
	"github.com/hoanghai1803/bookshelf/internal/storage"
)

func main() {
	configPath := flag.String("config", "config.toml", "path to config file")
	flag.Parse()

	// Load configuration (auto-creates default if missing).
	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(slog.New(cfg.Log.Handler(os.Stderr)))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Ensure the database directory exists.
	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		slog.Error("failed to create data directory", "error", err)
		os.Exit(1)
	}

	// Open database with WAL mode and pragmas.
	db, err := storage.OpenDatabase(cfg.Database.Path)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Run schema migrations.
	if err := storage.RunMigrations(db); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	store := storage.NewStore(db)
	ctrl := readinglists.NewController(store)
	defer ctrl.Close()

	// Event log with standard fields and the configured sink.
	standard, err := eventlog.LoadStandard(ctx, store)
	if err != nil {
		slog.Error("failed to load standard event fields", "error", err)
		os.Exit(1)
	}

	var sink eventlog.Sink
	switch cfg.History.Sink {
	case "redis":
		client, err := eventlog.DialRedis(ctx, cfg.History.RedisAddr)
		if err != nil {
			slog.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}
		defer client.Close()
		sink = eventlog.NewRedisSink(client, cfg.History.RedisStream, cfg.History.RedisMaxLen)
	default:
		sink = eventlog.NewSlogSink(nil)
	}

	funnel := history.NewFunnel(history.Deps{
		Counter:  ctrl,
		Flags:    cfg.ReadingLists,
		Session:  cfg.Session,
		Locale:   history.NewStaticLocale(cfg.Locale.Language),
		Emitter:  eventlog.NewLogger(sink, standard),
		Baseline: history.NewPreferenceBaseline(store),
	})

	job := scheduler.NewSnapshotJob(funnel, cfg.History.Interval())
	if err := job.Start(ctx); err != nil {
		slog.Error("failed to establish user history baseline", "error", err)
		os.Exit(1)
	}
	defer job.Stop()

	router := api.NewRouter(api.Deps{
		Store:      store,
		Controller: ctrl,
		Funnel:     funnel,
		Fetcher:    feeds.NewFetcher(),
		FeedOptions: feeds.ImportOptions{
			MaxItems:     cfg.Feeds.MaxItemsPerFeed,
			LookbackDays: cfg.Feeds.LookbackDays,
		},
	})

	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown failed", "error", err)
		}
	}()

	slog.Info("starting server", "addr", "http://"+srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}
