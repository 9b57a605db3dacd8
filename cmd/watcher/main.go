// Command watcher polls the order API for one session and prints notifications to the terminal.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/Lixing-Zhang/food-delivery/backend/internal/client"
	"github.com/Lixing-Zhang/food-delivery/backend/internal/config"
	"github.com/Lixing-Zhang/food-delivery/backend/internal/notify"
	"github.com/Lixing-Zhang/food-delivery/backend/internal/poller"
	"github.com/Lixing-Zhang/food-delivery/backend/pkg/logger"
)

func main() {
	cfg, err := config.LoadWatcher()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("watcher exited with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.WatcherConfig, log *slog.Logger) error {
	api, err := client.New(cfg.APIBaseURL, cfg.SessionToken,
		client.WithHTTPClient(&http.Client{Timeout: cfg.RequestTimeout}))
	if err != nil {
		return err
	}
	session := api.Session()

	store, closeStore, err := newStore(ctx, cfg, session.UserID)
	if err != nil {
		return err
	}
	defer closeStore()

	dispatcher := notify.NewDispatcher(session, store,
		notify.WithSignaler(notify.NewTerminalSignaler(os.Stdout)),
		notify.WithDedupWindow(cfg.DedupWindow),
		notify.WithMaxNotifications(cfg.MaxNotifications),
		notify.WithLogger(log),
	)

	p := poller.New(api,
		poller.WithInterval(cfg.PollInterval),
		poller.WithLogger(log),
		poller.WithDiffHandler(func(ctx context.Context, changes []poller.Change) {
			raised := dispatcher.HandleDiff(ctx, changes)
			if unread, err := dispatcher.UnreadCount(ctx); err == nil {
				log.Debug("diff handled", "raised", raised, "unread", unread)
			}
		}),
	)

	log.Info("watching orders",
		"api", cfg.APIBaseURL,
		"user_id", session.UserID,
		"role", session.Role,
		"interval", cfg.PollInterval,
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p.Start(gctx)
		<-gctx.Done()
		p.Stop()
		return gctx.Err()
	})
	g.Go(func() error {
		return dispatcher.RunSweeper(gctx, cfg.SweepInterval)
	})
	return g.Wait()
}

func newStore(ctx context.Context, cfg *config.WatcherConfig, userID string) (notify.Store, func(), error) {
	if cfg.RedisURL == "" {
		return notify.NewMemoryStore(), func() {}, nil
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("parse redis URL: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return notify.NewRedisStore(rdb, userID), func() { rdb.Close() }, nil
}
