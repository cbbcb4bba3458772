package websocket

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewCheckOrigin(t *testing.T) {
	const appURL = "http://192.168.1.20:2442"

	cases := map[string]struct {
		origin  string
		allowed []string
		want    bool
	}{
		"no origin header":     {"", nil, true},
		"obs browser source":   {"obs://obs-studio", nil, true},
		"own origin":           {"http://192.168.1.20:2442", nil, true},
		"localhost dev server": {"http://localhost:5173", nil, true},
		"loopback v4":          {"http://127.0.0.1:3000", nil, true},
		"loopback v4 range":    {"http://127.0.0.2:3000", nil, true},
		"loopback v6":          {"http://[::1]:3000", nil, true},
		"foreign host":         {"https://evil.example.com", nil, false},
		"own host wrong port":  {"http://192.168.1.20:9090", nil, false},
		"configured origin":    {"https://overlay.example.com", []string{"https://overlay.example.com/widgets"}, true},
		"not configured":       {"https://other.example.com", []string{"https://overlay.example.com"}, false},
		"wildcard":             {"https://anything.example.com", []string{"*"}, true},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/connection/websocket", nil)
			if tc.origin != "" {
				r.Header.Set("Origin", tc.origin)
			}
			assert.Equal(t, tc.want, NewCheckOrigin(appURL, tc.allowed)(r))
		})
	}
}

func TestExtractOrigin(t *testing.T) {
	assert.Equal(t, "https://example.com", extractOrigin("https://example.com/widgets/chat"))
	assert.Equal(t, "http://localhost:2442", extractOrigin("http://localhost:2442/nowPlaying"))
	assert.Empty(t, extractOrigin(""))
	assert.Empty(t, extractOrigin("mailto:user@example.com"))
}
