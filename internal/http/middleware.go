package http

import (
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/example/campus-planner/internal/application"
	"github.com/example/campus-planner/internal/logging"
)

// TokenVerifier resolves a bearer token to an owner id.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// RequireBearer authenticates requests with an "Authorization: Bearer" token
// and stores the principal in the request context.
func RequireBearer(verifier TokenVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
			if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
				return errMissingBearer
			}

			ownerID, err := verifier.Verify(strings.TrimSpace(token))
			if err != nil {
				return errInvalidBearer.WithInternal(err)
			}

			ctx := ContextWithPrincipal(c.Request().Context(), application.Principal{OwnerID: ownerID})
			if logger := logging.FromContext(ctx); logger != nil {
				ctx = logging.ContextWithLogger(ctx, logger.With("owner_id", ownerID))
			}
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

// RequestLogger attaches a request scoped logger to the context and logs the
// start and completion of every request.
func RequestLogger(base *slog.Logger) echo.MiddlewareFunc {
	base = defaultLogger(base)
	var counter atomic.Uint64

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			id := counter.Add(1)
			logger := base.With(
				"request_id", id,
				"method", req.Method,
				"path", req.URL.Path,
			)

			ctx := logging.ContextWithLogger(req.Context(), logger)
			c.SetRequest(req.WithContext(ctx))
			start := time.Now()
			logger.DebugContext(ctx, "request started")

			err := next(c)
			if err != nil {
				// Let the error handler write the response so the status is known.
				c.Error(err)
			}
			logger.InfoContext(ctx, "request completed",
				"status", c.Response().Status,
				"duration", time.Since(start),
			)
			return nil
		}
	}
}
