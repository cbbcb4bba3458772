package httpserver

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/energypatrikhu/obs-ui/internal/domain"
	"github.com/energypatrikhu/obs-ui/internal/platform/config"
)

// --- Mock implementations ---

type mockNowPlaying struct {
	current  domain.NowPlaying
	updateFn func(ctx context.Context, update domain.NowPlayingUpdate) (bool, error)
	updates  []domain.NowPlayingUpdate
}

func (m *mockNowPlaying) Current() domain.NowPlaying { return m.current }

func (m *mockNowPlaying) Update(ctx context.Context, update domain.NowPlayingUpdate) (bool, error) {
	m.updates = append(m.updates, update)
	if m.updateFn != nil {
		return m.updateFn(ctx, update)
	}
	return true, nil
}

type mockWidgets struct {
	settings  domain.WidgetSettings
	enabled   []string
	disabled  []string
	saved     []domain.WidgetSettings
	toggleErr error
	saveErr   error
}

func (m *mockWidgets) Settings(context.Context) (domain.WidgetSettings, error) {
	return m.settings, nil
}

func (m *mockWidgets) Enable(_ context.Context, widget string) (bool, error) {
	if m.toggleErr != nil {
		return false, m.toggleErr
	}
	m.enabled = append(m.enabled, widget)
	return true, nil
}

func (m *mockWidgets) Disable(_ context.Context, widget string) (bool, error) {
	if m.toggleErr != nil {
		return false, m.toggleErr
	}
	m.disabled = append(m.disabled, widget)
	return true, nil
}

func (m *mockWidgets) SaveSettings(_ context.Context, settings domain.WidgetSettings) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saved = append(m.saved, settings)
	return nil
}

type mockTwitch struct {
	codes      []string
	setCodeErr error
}

func (m *mockTwitch) AuthorizeURL(state string) string {
	return "https://id.twitch.tv/oauth2/authorize?client_id=test&state=" + state
}

func (m *mockTwitch) SetAuthCode(_ context.Context, code string) error {
	if m.setCodeErr != nil {
		return m.setCodeErr
	}
	m.codes = append(m.codes, code)
	return nil
}

// --- Test server ---

type testServerOption func(*Handlers)

func withHealthChecks(checks ...HealthCheck) testServerOption {
	return func(h *Handlers) { h.HealthChecks = checks }
}

func withWebhook(handler http.Handler) testServerOption {
	return func(h *Handlers) { h.WebhookHandler = handler }
}

func withMetrics(handler http.Handler) testServerOption {
	return func(h *Handlers) { h.Metrics = handler }
}

func testConfig() *config.Config {
	return &config.Config{
		AppEnv:              "test",
		Port:                "2442",
		PublicURL:           "http://localhost:2442",
		SessionSecret:       "test-session-secret-at-least-32-bytes",
		TwitchRedirectURI:   "http://localhost:2442/twitch-callback",
		NowPlayingRateLimit: 100,
		NowPlayingBurst:     100,
	}
}

func newTestServer(t *testing.T, h Handlers, opts ...testServerOption) *Server {
	t.Helper()
	if h.NowPlaying == nil {
		h.NowPlaying = &mockNowPlaying{}
	}
	if h.Widgets == nil {
		h.Widgets = &mockWidgets{settings: domain.DefaultWidgetSettings()}
	}
	if h.Twitch == nil {
		h.Twitch = &mockTwitch{}
	}
	for _, opt := range opts {
		opt(&h)
	}
	return NewServer(testConfig(), h)
}

var errBoom = errors.New("boom")
