package apierr

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// Response is the JSON body of every error response.
type Response struct {
	Error string `json:"error"`
}

// HTTPErrorHandler is installed as echo's error handler. It maps classified
// errors and echo's own HTTP errors to {"error": ...}; anything else is
// logged and reported as a generic 500.
func HTTPErrorHandler(logger zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, msg := resolve(err)
		if status >= http.StatusInternalServerError {
			logger.Error().Err(err).
				Str("request_id", requestID(c)).
				Str("path", c.Request().URL.Path).
				Msg("unhandled error")
		} else if KindOf(err) == KindUpstream {
			logger.Warn().Err(err).
				Str("request_id", requestID(c)).
				Msg("upstream failure")
		}

		var writeErr error
		if c.Request().Method == http.MethodHead {
			writeErr = c.NoContent(status)
		} else {
			writeErr = c.JSON(status, Response{Error: msg})
		}
		if writeErr != nil {
			logger.Error().Err(writeErr).Msg("write error response")
		}
	}
}

func resolve(err error) (int, string) {
	// A top-level echo error wins over whatever it wraps as Internal.
	if he, ok := err.(*echo.HTTPError); ok {
		return resolveHTTPError(he)
	}

	var ae *Error
	if errors.As(err, &ae) {
		if ae.Kind == KindInternal {
			return http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError)
		}
		return ae.Kind.Status(), ae.Msg
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		return resolveHTTPError(he)
	}

	return http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError)
}

func resolveHTTPError(he *echo.HTTPError) (int, string) {
	if he.Code >= http.StatusInternalServerError {
		return he.Code, http.StatusText(he.Code)
	}
	msg := http.StatusText(he.Code)
	switch m := he.Message.(type) {
	case string:
		msg = m
	case error:
		msg = m.Error()
	case nil:
	default:
		msg = fmt.Sprint(m)
	}
	return he.Code, msg
}

func requestID(c echo.Context) string {
	rid, _ := c.Get("request_id").(string)
	return rid
}
