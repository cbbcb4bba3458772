package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_AllGroupsRegisterTogether(t *testing.T) {
	reg := NewRegistry()

	require.NotPanics(t, func() {
		NewHTTPMetrics(reg)
		NewWebSocketMetrics(reg)
		NewTwitchMetrics(reg)
		NewStoreMetrics(reg)
	})
}

func TestTwitchMetrics(t *testing.T) {
	m := NewTwitchMetrics(NewRegistry())

	m.APIRequest("/users", 200)
	m.APIRequest("/users", 200)
	m.APIRequest("/users", 401)
	m.TokenRefresh(true)
	m.TokenRefresh(false)
	m.TokenRefresh(false)
	m.SessionEvent("connected")
	m.Notification("channel.follow")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.APIRequests.WithLabelValues("/users", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.APIRequests.WithLabelValues("/users", "401")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TokenRefreshes.WithLabelValues("success")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.TokenRefreshes.WithLabelValues("failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SessionEvents.WithLabelValues("connected")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Notifications.WithLabelValues("channel.follow")))
}

func TestStoreMetrics_BreakerStateChanged(t *testing.T) {
	m := NewStoreMetrics(NewRegistry())

	m.BreakerStateChanged("redis", "open", 2)
	m.BreakerStateChanged("redis", "half-open", 1)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.CircuitBreakerState.WithLabelValues("redis")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CircuitBreakerStateChanges.WithLabelValues("redis", "open")))
}

func TestHTTPMetrics_Middleware(t *testing.T) {
	m := NewHTTPMetrics(NewRegistry())

	e := echo.New()
	e.Use(m.Middleware())
	e.GET("/nowPlaying", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	for _, path := range []string{"/nowPlaying", "/nowPlaying", "/health/live"} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		require.Equal(t, http.StatusOK, rec.Code)
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Requests.WithLabelValues("GET", "/nowPlaying", "200")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.InFlight))
	assert.Equal(t, 1, testutil.CollectAndCount(m.Requests), "health probes are not recorded")
}

func TestHandler_ServesRegistry(t *testing.T) {
	reg := NewRegistry()
	NewTwitchMetrics(reg).TokenRefresh(true)

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "obs_ui_twitch_token_refreshes_total"))
}
