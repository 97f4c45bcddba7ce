// Package tokens issues and parses the HS256 bearer tokens used by the auth API.
//
// Access and refresh tokens share one claim shape; the "use" claim tells them
// apart, and they differ in lifetime and in whether authorities are carried.
package tokens

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrMalformedToken = errors.New("malformed token")

const (
	UseAccess  = "access"
	UseRefresh = "refresh"
)

type Claims struct {
	Use         string   `json:"use"`
	Authorities []string `json:"authorities,omitempty"`
	jwt.RegisteredClaims
}

func (c *Claims) IsAccess() bool  { return c.Use == UseAccess }
func (c *Claims) IsRefresh() bool { return c.Use == UseRefresh }

// Remaining is the time left until expiry, negative once expired.
func (c *Claims) Remaining(now time.Time) time.Duration {
	if c.ExpiresAt == nil {
		return 0
	}
	return c.ExpiresAt.Time.Sub(now)
}

type Codec struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewCodec(secret []byte, accessTTL, refreshTTL time.Duration) *Codec {
	return &Codec{
		secret:     secret,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

// WithClock returns a copy of the codec that reads time from now.
func (c *Codec) WithClock(now func() time.Time) *Codec {
	cp := *c
	cp.now = now
	return &cp
}

func (c *Codec) AccessTTL() time.Duration  { return c.accessTTL }
func (c *Codec) RefreshTTL() time.Duration { return c.refreshTTL }
func (c *Codec) Now() time.Time            { return c.now() }

func (c *Codec) IssueAccessToken(subject string, authorities []string) (string, error) {
	if authorities == nil {
		authorities = []string{}
	}
	return c.issue(UseAccess, subject, authorities, c.accessTTL)
}

func (c *Codec) IssueRefreshToken(subject string) (string, error) {
	return c.issue(UseRefresh, subject, nil, c.refreshTTL)
}

func (c *Codec) issue(use, subject string, authorities []string, ttl time.Duration) (string, error) {
	jti, err := NewJTI()
	if err != nil {
		return "", err
	}
	now := c.now()
	claims := Claims{
		Use:         use,
		Authorities: authorities,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ID:        jti,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Valid checks signature, algorithm and expiry. It never panics.
func (c *Codec) Valid(token string) bool {
	if token == "" {
		return false
	}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	tkn, err := parser.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errors.New("unexpected sign method")
		}
		return c.secret, nil
	})
	return err == nil && tkn.Valid
}

// Decode reads the claims without checking the signature. Callers run Valid first.
func (c *Codec) Decode(token string) (*Claims, error) {
	var claims Claims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
	if claims.Subject == "" || claims.ID == "" || claims.ExpiresAt == nil {
		return nil, fmt.Errorf("%w: missing sub, jti or exp", ErrMalformedToken)
	}
	return &claims, nil
}

// NewJTI returns a UUIDv7: a millisecond timestamp followed by random bits.
func NewJTI() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate jti: %w", err)
	}
	return id.String(), nil
}
