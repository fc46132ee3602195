package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// MsgTimedOut is the 504 body when a request outlives RequestTimeout.
const MsgTimedOut = "Request timed out"

// RequestTimeout gives each request a context deadline and races the
// handler against it. A chat turn waits on the LLM, so the deadline is the
// ceiling for one patient reply. On expiry the handler's context is
// cancelled and the middleware waits for the handler to return before
// touching the response, so the context is never shared with a handler
// still running. If nothing was written a 504 goes to the error handler.
func RequestTimeout(timeout time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx, cancel := context.WithTimeout(c.Request().Context(), timeout)
			defer cancel()
			c.SetRequest(c.Request().WithContext(ctx))

			done := make(chan error, 1)
			go func() { done <- next(c) }()

			select {
			case err := <-done:
				return err
			case <-ctx.Done():
			}

			// Handlers honour ctx, so this wait is bounded by how quickly
			// the in-flight database or LLM call gives up.
			handlerErr := <-done

			if !errors.Is(ctx.Err(), context.DeadlineExceeded) {
				// client disconnected
				return ctx.Err()
			}
			if c.Response().Committed {
				return handlerErr
			}
			return echo.NewHTTPError(http.StatusGatewayTimeout, MsgTimedOut).SetInternal(ctx.Err())
		}
	}
}
