package app

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/energypatrikhu/obs-ui/internal/adapter/twitch"
	"github.com/energypatrikhu/obs-ui/internal/domain"
	"github.com/energypatrikhu/obs-ui/internal/platform/correlation"
	"github.com/jonboulle/clockwork"
)

const DefaultValidateInterval = time.Hour

type TokenEnsurer interface {
	EnsureTokens(ctx context.Context) error
	Ready() bool
}

// TokenValidator periodically validates the access token so a revoked or
// expired token is refreshed before the next API call needs it.
type TokenValidator struct {
	tokens   TokenEnsurer
	clock    clockwork.Clock
	interval time.Duration
}

func NewTokenValidator(tokens TokenEnsurer, clock clockwork.Clock, interval time.Duration) *TokenValidator {
	if interval <= 0 {
		interval = DefaultValidateInterval
	}
	return &TokenValidator{tokens: tokens, clock: clock, interval: interval}
}

// Run validates on every tick until ctx is cancelled. Ticks before the token
// manager finished initialising are skipped.
func (v *TokenValidator) Run(ctx context.Context) {
	ticker := v.clock.NewTicker(v.interval)
	defer ticker.Stop()

	slog.Info("Token validation ticker started", "interval", v.interval)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			v.validate(ctx)
		}
	}
}

func (v *TokenValidator) validate(ctx context.Context) {
	if !v.tokens.Ready() {
		slog.DebugContext(ctx, "Ticker: tokens not initialised yet, skipping validation")
		return
	}

	tickCtx := correlation.WithID(ctx, correlation.NewID())
	err := v.tokens.EnsureTokens(tickCtx)
	if err == nil {
		slog.DebugContext(tickCtx, "Ticker: access token valid")
		return
	}

	tokenErr, isTokenErr := errors.AsType[*twitch.TokenError](err)
	switch {
	case isTokenErr && tokenErr.Revoked, errors.Is(err, domain.ErrNotAuthenticated):
		slog.ErrorContext(tickCtx, "Ticker: Twitch authorization must be renewed", "error", err)
	default:
		slog.WarnContext(tickCtx, "Ticker: token validation failed", "error", err)
	}
}
