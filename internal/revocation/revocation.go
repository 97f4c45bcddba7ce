// Package revocation tracks which refresh tokens are live and which access
// tokens have been revoked before their expiry.
package revocation

import (
	"context"
	"fmt"
	"time"

	"github.com/Skotchmaster/storefront/internal/kv"
)

const (
	RefreshPrefix   = "refresh_token:"
	BlacklistPrefix = "blacklist:"
)

type Store struct {
	kv kv.Store
}

func NewStore(store kv.Store) *Store {
	return &Store{kv: store}
}

// RecordRefreshToken marks the refresh token with this jti as live for ttl.
// Recording again overwrites the value and the ttl.
func (s *Store) RecordRefreshToken(ctx context.Context, jti, token string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := s.kv.Set(ctx, RefreshPrefix+jti, token, ttl); err != nil {
		return fmt.Errorf("record refresh token: %w", err)
	}
	return nil
}

func (s *Store) RevokeRefreshToken(ctx context.Context, jti string) error {
	if err := s.kv.Delete(ctx, RefreshPrefix+jti); err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return nil
}

func (s *Store) RefreshTokenIsLive(ctx context.Context, jti string) (bool, error) {
	ok, err := s.kv.Exists(ctx, RefreshPrefix+jti)
	if err != nil {
		return false, fmt.Errorf("lookup refresh token: %w", err)
	}
	return ok, nil
}

// BlacklistAccessToken skips tokens that are already expired (ttl <= 0).
func (s *Store) BlacklistAccessToken(ctx context.Context, jti, token string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := s.kv.Set(ctx, BlacklistPrefix+jti, token, ttl); err != nil {
		return fmt.Errorf("blacklist access token: %w", err)
	}
	return nil
}

func (s *Store) AccessTokenIsBlacklisted(ctx context.Context, jti string) (bool, error) {
	ok, err := s.kv.Exists(ctx, BlacklistPrefix+jti)
	if err != nil {
		return false, fmt.Errorf("lookup blacklist: %w", err)
	}
	return ok, nil
}
