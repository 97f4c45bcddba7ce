// Package httpserver wires the HTTP API onto echo.
package httpserver

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/middleware"
	"github.com/Skotchmaster/storefront/internal/middleware/csrf"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/service"
	loggingmw "github.com/Skotchmaster/storefront/pkg/middleware/logging"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type Deps struct {
	Auth    *service.AuthService
	Catalog *service.CatalogService
	Orders  *service.OrderService
	Guard   *middleware.Guard

	// Ready lists the dependencies /health/ready pings, keyed by name.
	Ready map[string]Pinger

	CSRF bool
}

// New builds an echo instance with the standard middleware stack and all routes.
func New(log *slog.Logger, d *Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = HTTPErrorHandler

	e.Pre(echomw.RemoveTrailingSlash())
	e.Use(echomw.RequestID(), loggingmw.RequestLogger(log), echomw.Recover())

	Register(e, d)
	return e
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", ready(d.Ready))

	authH := &AuthHandler{Auth: d.Auth}
	productH := &ProductHandler{Catalog: d.Catalog}
	orderH := &OrderHandler{Orders: d.Orders}
	brandH := namedResource[models.Brand]{
		list:   d.Catalog.ListBrands,
		get:    d.Catalog.GetBrand,
		create: d.Catalog.CreateBrand,
		patch:  d.Catalog.PatchBrand,
		remove: d.Catalog.DeleteBrand,
	}
	categoryH := namedResource[models.Category]{
		list:   d.Catalog.ListCategories,
		get:    d.Catalog.GetCategory,
		create: d.Catalog.CreateCategory,
		patch:  d.Catalog.PatchCategory,
		remove: d.Catalog.DeleteCategory,
	}

	authn := d.Guard.Authenticate
	admin := d.Guard.RequireRoles(models.RoleAdmin)

	var cookieBound []echo.MiddlewareFunc
	if d.CSRF {
		cookieBound = append(cookieBound, csrf.Middleware(csrf.DefaultConfig()))
	}

	auth := e.Group("/auth")
	auth.POST("/register", authH.Register)
	auth.POST("/login", authH.Login)
	auth.POST("/refresh-token", authH.RefreshToken, cookieBound...)
	auth.POST("/logout", authH.Logout, append(cookieBound, authn)...)
	if d.CSRF {
		auth.GET("/csrf", authH.CSRF, cookieBound...)
	}

	products := e.Group("/products")
	products.GET("", productH.List)
	products.GET("/search", productH.Search)
	products.GET("/:id", productH.Get)
	products.POST("", productH.Create, authn, admin)
	products.PATCH("/:id", productH.Patch, authn, admin)
	products.DELETE("/:id", productH.Delete, authn, admin)

	brands := e.Group("/brands")
	brands.GET("", brandH.List)
	brands.GET("/:id", brandH.Get)
	brands.POST("", brandH.Create, authn, admin)
	brands.PATCH("/:id", brandH.Patch, authn, admin)
	brands.DELETE("/:id", brandH.Delete, authn, admin)

	categories := e.Group("/categories")
	categories.GET("", categoryH.List)
	categories.GET("/:id", categoryH.Get)
	categories.POST("", categoryH.Create, authn, admin)
	categories.PATCH("/:id", categoryH.Patch, authn, admin)
	categories.DELETE("/:id", categoryH.Delete, authn, admin)

	orders := e.Group("/orders", authn)
	orders.GET("", orderH.List, admin)
	orders.GET("/:id", orderH.Get)
	orders.POST("", orderH.Create)
}

func ready(checks map[string]Pinger) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()

		status := map[string]string{}
		code := http.StatusOK
		for name, p := range checks {
			if err := p.Ping(ctx); err != nil {
				logging.FromContext(ctx).Warn("readiness_failed", "dependency", name, "error", err)
				status[name] = "down"
				code = http.StatusServiceUnavailable
				continue
			}
			status[name] = "up"
		}
		return c.JSON(code, status)
	}
}
