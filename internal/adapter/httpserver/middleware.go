package httpserver

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/energypatrikhu/obs-ui/internal/platform/correlation"
	apperrors "github.com/energypatrikhu/obs-ui/internal/platform/errors"
	"github.com/labstack/echo/v4"
)

// correlationMiddleware tags the request context with the caller's
// X-Request-ID, or a fresh one, and echoes it back.
func correlationMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := c.Request()
		id := correlation.FromRequest(req)
		c.SetRequest(req.WithContext(correlation.WithID(req.Context(), id)))
		c.Response().Header().Set(correlation.Header, id)
		return next(c)
	}
}

// ErrorHandlingMiddleware renders handler errors as JSON. Routing errors
// from echo itself keep echo's default handling.
func ErrorHandlingMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)
			if err == nil {
				return nil
			}
			if _, isHTTPErr := errors.AsType[*echo.HTTPError](err); isHTTPErr {
				return err
			}
			return HandleError(c, err)
		}
	}
}

var errorLogs = map[apperrors.ErrorType]struct {
	level slog.Level
	msg   string
}{
	apperrors.TypeValidation:   {slog.LevelInfo, "Rejected request"},
	apperrors.TypeNotFound:     {slog.LevelInfo, "Not found"},
	apperrors.TypeUnauthorized: {slog.LevelWarn, "Twitch authorization required"},
	apperrors.TypeInternal:     {slog.LevelError, "Internal error"},
	apperrors.TypeExternal:     {slog.LevelError, "Twitch request failed"},
}

func logError(c echo.Context, err *apperrors.Error) {
	req := c.Request()
	attrs := []any{
		"error_type", err.Type,
		"message", err.Message,
		"method", req.Method,
		"path", req.URL.Path,
		"status", err.HTTPStatus(),
	}
	for k, v := range err.Context {
		attrs = append(attrs, k, v)
	}
	if err.Cause != nil {
		attrs = append(attrs, "cause", err.Cause)
	}

	entry, known := errorLogs[err.Type]
	if !known {
		entry.level, entry.msg = slog.LevelError, "Unknown error type"
	}
	slog.Log(req.Context(), entry.level, entry.msg, attrs...)
}

// HandleError writes err as a structured JSON error response.
func HandleError(c echo.Context, err error) error {
	if err == nil {
		return nil
	}

	appErr := apperrors.AsStructuredError(err)
	logError(c, appErr)
	if err := c.JSON(appErr.HTTPStatus(), appErr.ToResponse()); err != nil {
		return fmt.Errorf("failed to write error response: %w", err)
	}
	return nil
}
