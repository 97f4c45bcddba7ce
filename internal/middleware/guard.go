// Package middleware holds the echo middleware that authenticates bearer
// tokens and enforces role policy.
package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/apperr"
	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/revocation"
	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/pkg/tokens"
)

const (
	principalKey = "principal"
	bearerKey    = "bearer_token"
)

type UserLookup interface {
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
}

type Guard struct {
	Codec      *tokens.Codec
	Revocation *revocation.Store
	Users      UserLookup
}

func NewGuard(codec *tokens.Codec, rev *revocation.Store, users UserLookup) *Guard {
	return &Guard{Codec: codec, Revocation: rev, Users: users}
}

// Authenticate resolves the bearer token into a user and stores both on the context.
// Blacklisted tokens are rejected even while their signature is still valid.
func (g *Guard) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		l := logging.FromContext(ctx).With("middleware", "authenticate")

		token, ok := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
		if !ok {
			l.Warn("auth_failed", "status", 401, "reason", "missing bearer")
			return apperr.Authentication("Missing or invalid Authorization header")
		}
		if !g.Codec.Valid(token) {
			l.Warn("auth_failed", "status", 401, "reason", "invalid token")
			return apperr.Authentication("Invalid JWT token")
		}
		claims, err := g.Codec.Decode(token)
		if err != nil {
			l.Warn("auth_failed", "status", 401, "reason", "malformed claims")
			return apperr.Authentication("Invalid JWT token")
		}
		if !claims.IsAccess() {
			l.Warn("auth_failed", "status", 401, "reason", "not an access token")
			return apperr.Authentication("Invalid JWT token")
		}

		revoked, err := g.Revocation.AccessTokenIsBlacklisted(ctx, claims.ID)
		if err != nil {
			l.Error("auth_failed", "status", 500, "reason", "blacklist lookup", "error", err)
			return err
		}
		if revoked {
			l.Warn("auth_failed", "status", 401, "reason", "token revoked")
			return apperr.Authentication("Token has been revoked")
		}

		user, err := g.Users.FindUserByEmail(ctx, claims.Subject)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				l.Warn("auth_failed", "status", 401, "reason", "unknown subject")
				return apperr.Authentication("User not found")
			}
			return err
		}

		c.Set(principalKey, user)
		c.Set(bearerKey, token)
		reqLog := logging.FromContext(ctx).With("user_id", user.ID)
		c.SetRequest(c.Request().WithContext(logging.IntoContext(ctx, reqLog)))
		return next(c)
	}
}

// RequireRoles must run after Authenticate.
func (g *Guard) RequireRoles(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if err := service.RequireAnyRole(PrincipalFrom(c), roles...); err != nil {
				logging.FromContext(c.Request().Context()).Warn("access_denied", "status", 403, "required", roles)
				return err
			}
			return next(c)
		}
	}
}

// PrincipalFrom returns the authenticated user, or nil on unauthenticated routes.
func PrincipalFrom(c echo.Context) *models.User {
	u, _ := c.Get(principalKey).(*models.User)
	return u
}

func BearerFrom(c echo.Context) string {
	s, _ := c.Get(bearerKey).(string)
	return s
}

func bearerToken(header string) (string, bool) {
	const prefix = "Bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}
