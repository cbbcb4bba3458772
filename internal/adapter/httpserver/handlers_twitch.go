package httpserver

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/energypatrikhu/obs-ui/internal/adapter/twitch"
	"github.com/energypatrikhu/obs-ui/internal/domain"
	apperrors "github.com/energypatrikhu/obs-ui/internal/platform/errors"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

func (s *Server) registerTwitchRoutes() {
	s.echo.GET("/twitch-authorize", s.handleTwitchAuthorize)
	s.echo.GET("/twitch-callback", s.handleTwitchCallback)
}

// handleTwitchAuthorize sends the broadcaster to the Twitch consent page.
// The state is kept in a short lived cookie and checked on the way back.
func (s *Server) handleTwitchAuthorize(c echo.Context) error {
	state := uuid.NewString()

	session, err := s.sessionStore.Get(c.Request(), sessionName)
	if err != nil {
		slog.WarnContext(c.Request().Context(), "Discarding unreadable session cookie", "error", err)
	}
	session.Values[sessionKeyOAuthState] = state
	if err := session.Save(c.Request(), c.Response().Writer); err != nil {
		return apperrors.InternalError("failed to save OAuth state session", err)
	}

	if err := c.Redirect(http.StatusFound, s.twitch.AuthorizeURL(state)); err != nil {
		return fmt.Errorf("failed to redirect: %w", err)
	}
	return nil
}

// handleTwitchCallback receives the authorization code. A missing code is
// only logged so Twitch's error redirects still get a plain 200.
func (s *Server) handleTwitchCallback(c echo.Context) error {
	ctx := c.Request().Context()

	if expected, ok := s.issuedState(c); ok && c.QueryParam("state") != expected {
		return apperrors.ValidationError("invalid OAuth state")
	}

	code := c.QueryParam("code")
	if code == "" {
		slog.ErrorContext(ctx, "No code provided", "error", c.QueryParam("error"), "error_description", c.QueryParam("error_description"))
		return writeOK(c)
	}

	if err := s.twitch.SetAuthCode(ctx, code); err != nil {
		if tokenErr, isTokenErr := errors.AsType[*twitch.TokenError](err); isTokenErr {
			return apperrors.ExternalError("Twitch rejected the authorization code", tokenErr)
		}
		if errors.Is(err, domain.ErrMissingClientCredentials) {
			return apperrors.ValidationError("client id or client secret is missing")
		}
		return apperrors.InternalError("failed to set authorization code", err)
	}

	slog.InfoContext(ctx, "Twitch authorization code received")
	return writeOK(c)
}

// issuedState returns and forgets the OAuth state stored by the authorize
// redirect. ok is false when no state was issued, e.g. when the consent URL
// was opened from the log.
func (s *Server) issuedState(c echo.Context) (string, bool) {
	session, err := s.sessionStore.Get(c.Request(), sessionName)
	if err != nil {
		return "", false
	}
	state, ok := session.Values[sessionKeyOAuthState].(string)
	if !ok || state == "" {
		return "", false
	}

	delete(session.Values, sessionKeyOAuthState)
	if err := session.Save(c.Request(), c.Response().Writer); err != nil {
		slog.WarnContext(c.Request().Context(), "Failed to clear OAuth state", "error", err)
	}
	return state, true
}

func writeOK(c echo.Context) error {
	if err := c.String(http.StatusOK, http.StatusText(http.StatusOK)); err != nil {
		return fmt.Errorf("failed to write response: %w", err)
	}
	return nil
}
