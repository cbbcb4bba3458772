package httpserver

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	extensionAddr = "192.168.1.30:50000"
	otherAddr     = "192.168.1.31:50000"
)

func limitedHandler(ratePerSecond float64, burst int) echo.HandlerFunc {
	return newRateLimiter(ratePerSecond, burst)(func(c echo.Context) error {
		return c.NoContent(http.StatusAccepted)
	})
}

func postFrom(t *testing.T, handler echo.HandlerFunc, remoteAddr string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/nowPlaying", nil)
	req.RemoteAddr = remoteAddr
	rec := httptest.NewRecorder()
	require.NoError(t, handler(echo.New().NewContext(req, rec)))
	return rec
}

func TestRateLimiter_AllowsBurst(t *testing.T) {
	handler := limitedHandler(10, 3)

	for range 3 {
		assert.Equal(t, http.StatusAccepted, postFrom(t, handler, extensionAddr).Code)
	}
}

func TestRateLimiter_RejectsOverLimit(t *testing.T) {
	handler := limitedHandler(0.01, 1)

	assert.Equal(t, http.StatusAccepted, postFrom(t, handler, extensionAddr).Code)

	rec := postFrom(t, handler, extensionAddr)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "rate limit exceeded", resp["error"])
	assert.Equal(t, "rate_limited", resp["type"])
}

func TestRateLimiter_PerClientIP(t *testing.T) {
	handler := limitedHandler(0.01, 1)

	assert.Equal(t, http.StatusAccepted, postFrom(t, handler, extensionAddr).Code)
	assert.Equal(t, http.StatusAccepted, postFrom(t, handler, otherAddr).Code)
	assert.Equal(t, http.StatusTooManyRequests, postFrom(t, handler, extensionAddr).Code)
}
