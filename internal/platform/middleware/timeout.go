package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// ErrRequestTimeout is returned when a handler fails because the request
// deadline passed.
var ErrRequestTimeout = echo.NewHTTPError(http.StatusGatewayTimeout, "request processing exceeded the allowed time limit")

// RequestTimeout bounds each request with a context deadline. The handler
// runs on the calling goroutine; database and outbound calls observe the
// deadline through the request context. A handler error caused by the
// deadline becomes a 504.
func RequestTimeout(timeout time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx, cancel := context.WithTimeout(c.Request().Context(), timeout)
			defer cancel()

			c.SetRequest(c.Request().WithContext(ctx))

			err := next(c)
			if err != nil && errors.Is(err, context.DeadlineExceeded) && ctx.Err() != nil {
				return ErrRequestTimeout.WithInternal(err)
			}
			return err
		}
	}
}
