package httpserver

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/transport"
)

// namedResource adapts the brand and category service calls to one handler shape.
type namedResource[T any] struct {
	list   func(context.Context, transport.PageQuery) (*transport.Page[T], error)
	get    func(context.Context, uint) (*T, error)
	create func(context.Context, transport.NamedRequest) (*T, error)
	patch  func(context.Context, uint, transport.PatchNamedRequest) (*T, error)
	remove func(context.Context, uint) error
}

func (r namedResource[T]) List(c echo.Context) error {
	q, err := pageQuery(c)
	if err != nil {
		return err
	}
	page, err := r.list(c.Request().Context(), q)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, page)
}

func (r namedResource[T]) Get(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	v, err := r.get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, v)
}

func (r namedResource[T]) Create(c echo.Context) error {
	var req transport.NamedRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	v, err := r.create(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, v)
}

func (r namedResource[T]) Patch(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req transport.PatchNamedRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	v, err := r.patch(c.Request().Context(), id, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, v)
}

func (r namedResource[T]) Delete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := r.remove(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
