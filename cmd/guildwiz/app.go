package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ormasoftchile/guildwiz/pkg/config"
	"github.com/ormasoftchile/guildwiz/pkg/logging"
	"github.com/ormasoftchile/guildwiz/pkg/metrics"
	"github.com/ormasoftchile/guildwiz/pkg/preview"
	"github.com/ormasoftchile/guildwiz/pkg/schema"
	"github.com/ormasoftchile/guildwiz/pkg/service"
	"github.com/ormasoftchile/guildwiz/pkg/session"
	"github.com/ormasoftchile/guildwiz/pkg/store"
)

// loadConfig reads the manifest named by --config, or the discovered one,
// and applies the command-line overrides.
func loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.Load(configPath)
	} else {
		cfg, err = config.Discover()
	}
	if err != nil {
		return nil, err
	}
	if featuresDir != "" {
		cfg.Features = featuresDir
		cfg.Dir = "."
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	return cfg, nil
}

// app holds everything a conversation-serving command needs.
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	features map[string]*schema.Feature
	store    store.Store
	metrics  *metrics.Metrics
	card     *preview.Card
	svc      *service.Service
}

// setup loads config, features and the store. quiet discards logs unless
// --log-file is set, for commands that own the terminal.
func setup(ctx context.Context, quiet bool) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	logger := zap.NewNop()
	if !quiet || logFile != "" {
		logger, err = logging.New(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Output: logFile})
		if err != nil {
			return nil, err
		}
	}

	features, err := schema.LoadDir(cfg.FeaturesDir())
	if err != nil {
		return nil, err
	}

	dsn := cfg.Store.DSN
	if cfg.Store.Driver == store.DriverSQLite {
		dsn = cfg.SQLitePath()
	}
	st, err := store.Open(ctx, store.Options{
		Driver:   cfg.Store.Driver,
		DSN:      dsn,
		RedisURL: cfg.Cache.Redis,
		CacheTTL: cfg.Cache.TTL,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	a := &app{
		cfg:      cfg,
		logger:   logger,
		features: features,
		store:    st,
		metrics:  metrics.New(),
		card:     preview.NewCard(0),
	}
	a.svc, err = service.New(service.Options{
		Features:  features,
		Caps:      cfg.Caps,
		Locale:    cfg.Locale,
		Store:     st,
		Sessions:  session.NewManager(cfg.Session.TTL, logger),
		Previewer: a.card,
		Observer:  a.metrics,
		Logger:    logger,
	})
	if err != nil {
		st.Close()
		return nil, err
	}
	logger.Debug("ready",
		zap.Int("features", len(features)),
		zap.String("store", cfg.Store.Driver),
		zap.Bool("cache", cfg.Cache.Redis != ""))
	return a, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		a.logger.Warn("close store", zap.Error(err))
	}
	_ = a.logger.Sync()
}
