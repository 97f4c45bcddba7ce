package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/Skotchmaster/storefront/internal/cache"
	"github.com/Skotchmaster/storefront/internal/events"
	"github.com/Skotchmaster/storefront/internal/kv"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/repo/repotest"
	"github.com/Skotchmaster/storefront/internal/revocation"
	"github.com/Skotchmaster/storefront/internal/transport"
	"github.com/Skotchmaster/storefront/pkg/tokens"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, _, _ string, ev events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

type testEnv struct {
	repo    *repo.GormRepo
	mr      *miniredis.Miniredis
	rdb     *redis.Client
	codec   *tokens.Codec
	rev     *revocation.Store
	pub     *recordingPublisher
	auth    *AuthService
	catalog *CatalogService
	orders  *OrderService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	r := repotest.NewRepo(t)
	codec := tokens.NewCodec([]byte("test-jwt-secret"), 24*time.Hour, 30*24*time.Hour)
	rev := revocation.NewStore(kv.NewRedisStore(rdb))
	pub := &recordingPublisher{}

	return &testEnv{
		repo:    r,
		mr:      mr,
		rdb:     rdb,
		codec:   codec,
		rev:     rev,
		pub:     pub,
		auth:    NewAuthService(r, codec, rev, pub),
		catalog: NewCatalogService(r, cache.New(rdb, time.Minute), nil, pub),
		orders:  NewOrderService(r, pub),
	}
}

func registerRequest(email, nationalID string) transport.RegisterRequest {
	return transport.RegisterRequest{
		FullName:   "Jane Doe",
		Email:      email,
		Password:   "pw",
		NationalID: nationalID,
		BirthDate:  "1990-05-01",
	}
}
