// Package correlation ties log lines of one HTTP request or one background
// job together through an id carried in the context.
package correlation

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// Header carries a caller supplied id, e.g. from the browser extension.
const Header = "X-Request-ID"

const (
	attrKey        = "correlation_id"
	maxHeaderIDLen = 64
	idLen          = 8
)

type ctxKey struct{}

// NewID returns a short random id; uniqueness only matters within one
// process's log.
func NewID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:idLen]
}

func WithID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

func ID(ctx context.Context) (string, bool) {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id, id != ""
}

// Ensure gives ctx an id unless it already has one.
func Ensure(ctx context.Context) context.Context {
	if _, ok := ID(ctx); ok {
		return ctx
	}
	return WithID(ctx, NewID())
}

// FromRequest reuses the request's X-Request-ID when it is short and made of
// safe characters only; anything else gets a fresh id.
func FromRequest(r *http.Request) string {
	if id := r.Header.Get(Header); validHeaderID(id) {
		return id
	}
	return NewID()
}

func validHeaderID(id string) bool {
	if id == "" || len(id) > maxHeaderIDLen {
		return false
	}
	for _, c := range id {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case c == '-', c == '_', c == '.', c == ':':
		default:
			return false
		}
	}
	return true
}

// Handler adds the context's id to every record.
type Handler struct {
	slog.Handler
}

func NewHandler(inner slog.Handler) *Handler {
	return &Handler{Handler: inner}
}

func (h *Handler) Handle(ctx context.Context, r slog.Record) error {
	if id, ok := ID(ctx); ok {
		r.AddAttrs(slog.String(attrKey, id))
	}
	return h.Handler.Handle(ctx, r)
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return NewHandler(h.Handler.WithAttrs(attrs))
}

func (h *Handler) WithGroup(name string) slog.Handler {
	return NewHandler(h.Handler.WithGroup(name))
}
