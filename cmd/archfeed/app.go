package main

import (
	"context"
	"fmt"
	"os"

	"archfeed/internal/config"
	"archfeed/internal/feed"
	"archfeed/internal/share"
	"archfeed/internal/store"
	"archfeed/internal/wiki"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// app holds the wired components of one feed session.
type app struct {
	session string
	client  *wiki.Client
	ledger  store.Ledger
	source  *feed.Source
	sharer  *share.Sharer
	outbox  *share.RedisOutbox
}

func newApp(ctx context.Context, cfg *config.Config, logger *zap.Logger, notifier share.Notifier) (*app, error) {
	session := cfg.Ledger.Session
	if session == "" {
		session = uuid.New().String()
	}
	logger = logger.With(zap.String("session", session))

	ledger, err := store.Open(ctx, store.Options{
		Backend:    cfg.Ledger.Backend,
		Session:    session,
		RedisAddr:  cfg.Redis.Addr,
		BadgerPath: cfg.Ledger.BadgerPath,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger: %w", err)
	}

	a := &app{
		session: session,
		ledger:  ledger,
		client:  wiki.NewClient(cfg.Wiki.BaseURL, cfg.Wiki.Timeout, logger).WithUserAgent(cfg.Wiki.UserAgent),
	}

	var native share.Native
	if cfg.Share.Outbox {
		a.outbox, err = share.NewRedisOutbox(ctx, cfg.Redis.Addr)
		if err != nil {
			ledger.Close()
			return nil, fmt.Errorf("failed to open share outbox: %w", err)
		}
		native = a.outbox
	}
	a.sharer = share.NewSharer(native, share.NewOSC52Clipboard(os.Stderr), notifier, logger)

	a.source = feed.NewSource(a.client, feed.NewHTTPPreloader(cfg.Wiki.ImageTimeout), ledger, feed.Options{
		Category:          cfg.Feed.Category,
		Strategy:          feed.Strategy(cfg.Feed.Strategy),
		PageSize:          cfg.Feed.PageSize,
		SampleSize:        cfg.Feed.SampleSize,
		MemberLimit:       cfg.Feed.MemberLimit,
		Prefetch:          cfg.Feed.Prefetch,
		ResetOnExhaustion: cfg.Feed.ResetOnExhaustion,
	}, logger)

	logger.Info("Session started",
		zap.String("category", cfg.Feed.Category),
		zap.String("ledger", cfg.Ledger.Backend))
	return a, nil
}

func (a *app) Close() {
	a.source.Close()
	if a.outbox != nil {
		a.outbox.Close()
	}
	a.ledger.Close()
}

// newLogger builds the zap logger. quiet discards output unless a log
// file is configured, so the terminal UI is not overwritten.
func newLogger(lc config.LogConfig, quiet bool) (*zap.Logger, error) {
	if quiet && lc.File == "" {
		return zap.NewNop(), nil
	}
	zc := zap.NewDevelopmentConfig()
	if lc.JSON {
		zc = zap.NewProductionConfig()
	}
	if lc.Debug {
		zc.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	if lc.File != "" {
		zc.OutputPaths = []string{lc.File}
		zc.ErrorOutputPaths = []string{lc.File}
	}
	return zc.Build()
}
