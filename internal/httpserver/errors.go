package httpserver

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/apperr"
	"github.com/Skotchmaster/storefront/internal/logging"
)

const msgInternal = "Something went wrong"

type ErrorResponse struct {
	Timestamp        time.Time `json:"timestamp"`
	Status           int       `json:"status"`
	Error            string    `json:"error"`
	Message          string    `json:"message"`
	Path             string    `json:"path"`
	ValidationErrors []string  `json:"validationErrors,omitempty"`
}

// HTTPErrorHandler renders every error through the same envelope. Errors
// that are neither *apperr.Error nor *echo.HTTPError become a generic 500.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	resp := ErrorResponse{
		Timestamp: time.Now().UTC(),
		Path:      c.Request().URL.Path,
	}

	var he *echo.HTTPError
	if ae, ok := apperr.As(err); ok {
		resp.Status = ae.Status
		resp.Message = ae.Message
		resp.ValidationErrors = ae.Fields
	} else if errors.As(err, &he) {
		resp.Status = he.Code
		resp.Message = httpErrorMessage(he)
	} else {
		logging.FromContext(c.Request().Context()).Error("unhandled_error", "status", 500, "error", err)
		resp.Status = http.StatusInternalServerError
		resp.Message = msgInternal
	}
	resp.Error = http.StatusText(resp.Status)

	var werr error
	if c.Request().Method == http.MethodHead {
		werr = c.NoContent(resp.Status)
	} else {
		werr = c.JSON(resp.Status, resp)
	}
	if werr != nil {
		logging.FromContext(c.Request().Context()).Error("error_response_failed", "error", werr)
	}
}

func httpErrorMessage(he *echo.HTTPError) string {
	if he.Code >= http.StatusInternalServerError {
		return msgInternal
	}
	if msg, ok := he.Message.(string); ok {
		return msg
	}
	return fmt.Sprint(he.Message)
}
