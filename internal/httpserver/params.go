package httpserver

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/apperr"
	"github.com/Skotchmaster/storefront/internal/transport"
)

func pathID(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, apperr.Validation("ID must be a positive integer")
	}
	return uint(id), nil
}

func pageQuery(c echo.Context) (transport.PageQuery, error) {
	var q transport.PageQuery
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, &q); err != nil {
		return q, apperr.Validation("Page and size must be integers")
	}
	return q, nil
}

// bindJSON decodes the request body. Malformed JSON is a validation error.
func bindJSON(c echo.Context, dst any) error {
	if err := (&echo.DefaultBinder{}).BindBody(c, dst); err != nil {
		return apperr.Validation("Request body must be valid JSON")
	}
	return nil
}
