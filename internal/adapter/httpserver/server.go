package httpserver

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/energypatrikhu/obs-ui/internal/adapter/metrics"
	"github.com/energypatrikhu/obs-ui/internal/domain"
	"github.com/energypatrikhu/obs-ui/internal/platform/config"
	"github.com/gorilla/sessions"
	"github.com/labstack/echo/v4"
)

type nowPlayingService interface {
	Current() domain.NowPlaying
	Update(ctx context.Context, update domain.NowPlayingUpdate) (bool, error)
}

type widgetService interface {
	Settings(ctx context.Context) (domain.WidgetSettings, error)
	Enable(ctx context.Context, widget string) (bool, error)
	Disable(ctx context.Context, widget string) (bool, error)
	SaveSettings(ctx context.Context, settings domain.WidgetSettings) error
}

// twitchAuthorizer is the part of the token manager the OAuth redirect needs.
type twitchAuthorizer interface {
	AuthorizeURL(state string) string
	SetAuthCode(ctx context.Context, code string) error
}

// Handlers groups the collaborators of the HTTP server. WebhookHandler is
// nil when EventSub webhooks are disabled.
type Handlers struct {
	NowPlaying     nowPlayingService
	Widgets        widgetService
	Twitch         twitchAuthorizer
	Overlay        http.Handler
	WebhookHandler http.Handler
	Metrics        http.Handler
	HTTPMetrics    *metrics.HTTPMetrics
	HealthChecks   []HealthCheck
}

type Server struct {
	echo   *echo.Echo
	config *config.Config

	nowPlaying nowPlayingService
	widgets    widgetService
	twitch     twitchAuthorizer

	overlayHandler http.Handler
	webhookHandler http.Handler
	metricsHandler http.Handler
	httpMetrics    *metrics.HTTPMetrics

	sessionStore *sessions.CookieStore
	healthChecks []HealthCheck
	startTime    time.Time
}

func NewServer(cfg *config.Config, h Handlers) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	srv := &Server{
		echo:           e,
		config:         cfg,
		nowPlaying:     h.NowPlaying,
		widgets:        h.Widgets,
		twitch:         h.Twitch,
		overlayHandler: h.Overlay,
		webhookHandler: h.WebhookHandler,
		metricsHandler: h.Metrics,
		httpMetrics:    h.HTTPMetrics,
		sessionStore:   setupSessionStore(cfg),
		healthChecks:   h.HealthChecks,
		startTime:      time.Now(),
	}

	srv.registerRoutes()

	return srv
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) Start() error {
	slog.Info("Starting server", "port", s.config.Port, "url", s.config.PublicURL)
	if err := s.echo.Start(":" + s.config.Port); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	return nil
}

// Session keys
const (
	sessionName          = "obs-ui-session"
	sessionKeyOAuthState = "oauth_state"
	sessionMaxAge        = 10 * time.Minute
)

func setupSessionStore(cfg *config.Config) *sessions.CookieStore {
	sessionStore := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	sessionStore.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(sessionMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   cfg.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	}
	return sessionStore
}
