package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/Skotchmaster/storefront/internal/cache"
	"github.com/Skotchmaster/storefront/internal/config"
	"github.com/Skotchmaster/storefront/internal/events"
	"github.com/Skotchmaster/storefront/internal/httpserver"
	"github.com/Skotchmaster/storefront/internal/kv"
	"github.com/Skotchmaster/storefront/internal/middleware"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/revocation"
	"github.com/Skotchmaster/storefront/internal/search"
	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/pkg/db"
	"github.com/Skotchmaster/storefront/pkg/tokens"
)

type app struct {
	cfg *config.Config
	log *slog.Logger

	repo  *repo.GormRepo
	rdb   *redis.Client
	store *kv.RedisStore
	pub   events.Publisher
	index *search.Index

	auth    *service.AuthService
	catalog *service.CatalogService
	orders  *service.OrderService
	guard   *middleware.Guard

	closers []func() error
}

func newApp(ctx context.Context, cfg *config.Config, log *slog.Logger) (*app, error) {
	a := &app{cfg: cfg, log: log}

	gdb, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func() error { return db.Close(gdb) })
	a.repo = repo.New(gdb)

	a.rdb = redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	a.closers = append(a.closers, a.rdb.Close)
	a.store = kv.NewRedisStore(a.rdb)

	if brokers := cfg.Brokers(); len(brokers) > 0 {
		kp := events.NewKafkaPublisher(brokers)
		a.pub = kp
		a.closers = append(a.closers, kp.Close)
	} else {
		log.Info("kafka_disabled", "reason", "KAFKA_BROKERS is empty")
		a.pub = events.Nop{}
	}

	var idx service.ProductIndex
	if cfg.ESURL != "" {
		es, err := search.NewClient(search.Config{URL: cfg.ESURL, User: cfg.ESUser, Password: cfg.ESPassword, Index: cfg.ESIndex})
		if err != nil {
			_ = a.Close()
			return nil, err
		}
		a.index = search.NewIndex(es, cfg.ESIndex)
		idx = a.index
	} else {
		log.Info("search_disabled", "reason", "ES_URL is empty")
	}

	codec := tokens.NewCodec([]byte(cfg.JWTSecret), cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	rev := revocation.NewStore(a.store)

	a.auth = service.NewAuthService(a.repo, codec, rev, a.pub)
	a.catalog = service.NewCatalogService(a.repo, cache.New(a.rdb, cfg.CacheTTL), idx, a.pub)
	a.orders = service.NewOrderService(a.repo, a.pub)
	a.guard = middleware.NewGuard(codec, rev, a.repo)
	return a, nil
}

func (a *app) httpDeps() *httpserver.Deps {
	ready := map[string]httpserver.Pinger{"database": a.repo, "redis": a.store}
	if a.index != nil {
		ready["search"] = a.index
	}
	return &httpserver.Deps{
		Auth:    a.auth,
		Catalog: a.catalog,
		Orders:  a.orders,
		Guard:   a.guard,
		Ready:   ready,
		CSRF:    a.cfg.CSRFEnabled,
	}
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
