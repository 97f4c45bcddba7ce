package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/middleware"
	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/transport"
)

type AuthHandler struct {
	Auth *service.AuthService
}

func (h *AuthHandler) Register(c echo.Context) error {
	var req transport.RegisterRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	view, err := h.Auth.Register(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, view)
}

func (h *AuthHandler) Login(c echo.Context) error {
	var req transport.LoginRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	sess, err := h.Auth.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}
	setRefreshCookie(c, sess.RefreshToken, sess.RefreshExpiresAt)
	return c.JSON(http.StatusOK, transport.AccessTokenResponse{AccessToken: sess.AccessToken})
}

func (h *AuthHandler) RefreshToken(c echo.Context) error {
	access, err := h.Auth.Refresh(c.Request().Context(), refreshCookie(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, transport.AccessTokenResponse{AccessToken: access})
}

// Logout runs behind Guard.Authenticate so the bearer token is already verified.
func (h *AuthHandler) Logout(c echo.Context) error {
	if err := h.Auth.Logout(c.Request().Context(), refreshCookie(c), middleware.BearerFrom(c)); err != nil {
		return err
	}
	clearRefreshCookie(c)
	return c.NoContent(http.StatusNoContent)
}

// CSRF issues the double-submit token; the csrf middleware does the work.
func (h *AuthHandler) CSRF(c echo.Context) error {
	return c.NoContent(http.StatusNoContent)
}
