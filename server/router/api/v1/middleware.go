package v1

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	apperrors "github.com/hrygo/noterag/server/internal/errors"
	"github.com/hrygo/noterag/internal/observability"
)

// HeaderRequestID carries the request id in and out.
const HeaderRequestID = "X-Request-Id"

// RequestContextMiddleware attaches a request-scoped logger and logs every request.
func RequestContextMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			var reqCtx *observability.RequestContext
			if id := req.Header.Get(HeaderRequestID); id != "" {
				reqCtx = observability.NewRequestContextWithID(slog.Default(), id)
			} else {
				reqCtx = observability.NewRequestContext(slog.Default())
			}
			c.SetRequest(req.WithContext(observability.WithRequestContext(req.Context(), reqCtx)))
			c.Response().Header().Set(HeaderRequestID, reqCtx.RequestID)

			err := next(c)
			if err != nil {
				// Resolve the status now so the log line matches the response.
				c.Error(err)
			}
			reqCtx.Info("request served",
				slog.String(observability.LogFieldMethod, req.Method),
				slog.String(observability.LogFieldPath, c.Path()),
				slog.Int(observability.LogFieldStatus, c.Response().Status),
				slog.Int64(observability.LogFieldDuration, reqCtx.DurationMs()),
			)
			return nil
		}
	}
}

// MetricsMiddleware records request counts and latencies by route.
func MetricsMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			reqCtx, ok := observability.FromContext(c.Request().Context())
			if !ok {
				reqCtx = observability.NewRequestContext(slog.Default())
			}
			err := next(c)
			if err != nil {
				c.Error(err)
			}
			path := c.Path()
			if path == "" {
				path = "unmatched"
			}
			observability.RecordHTTPRequest(
				c.Request().Method,
				path,
				strconv.Itoa(c.Response().Status),
				reqCtx.Duration().Seconds(),
			)
			return nil
		}
	}
}

// HTTPErrorHandler writes err as text/plain with a status derived from its code.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status, message := http.StatusInternalServerError, err.Error()
	var httpErr *echo.HTTPError
	var appErr *apperrors.AppError
	switch {
	case errors.As(err, &httpErr):
		status = httpErr.Code
		message = http.StatusText(status)
		if m, ok := httpErr.Message.(string); ok {
			message = m
		}
	case errors.As(err, &appErr):
		status = apperrors.HTTPStatus(appErr.Code)
		message = appErr.Message
	default:
		code := apperrors.GetCodeFromError(err, apperrors.ErrCodeInternal)
		status = apperrors.HTTPStatus(code)
	}

	logger := observability.LoggerFromContext(c.Request().Context())
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "error", err, "status", status)
	} else {
		logger.Debug("request rejected", "error", err, "status", status)
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = c.String(status, message)
	}
	if err != nil {
		logger.Error("failed to write error response", "error", err)
	}
}
