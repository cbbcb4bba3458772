package websocket

import (
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
)

type originPolicy struct {
	anyOrigin bool
	trusted   map[string]struct{}
}

// NewCheckOrigin returns the CheckOrigin function of the overlay socket.
// Empty origins, OBS browser sources, loopback pages and the app's own
// origin are always accepted. allowed lists further origins; "*" accepts
// every origin.
func NewCheckOrigin(appURL string, allowed []string) func(r *http.Request) bool {
	p := originPolicy{trusted: make(map[string]struct{}, len(allowed)+1)}
	for _, raw := range append([]string{appURL}, allowed...) {
		if raw == "*" {
			p.anyOrigin = true
			continue
		}
		if o := extractOrigin(raw); o != "" {
			p.trusted[o] = struct{}{}
		}
	}
	return p.check
}

func (p originPolicy) check(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if p.accepts(origin) {
		return true
	}
	slog.Warn("WebSocket origin rejected", "origin", origin, "remote_addr", r.RemoteAddr)
	return false
}

func (p originPolicy) accepts(origin string) bool {
	if p.anyOrigin || origin == "" || strings.HasPrefix(origin, "obs://") {
		return true
	}
	if _, ok := p.trusted[origin]; ok {
		return true
	}
	return isLoopbackOrigin(origin)
}

func extractOrigin(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}

func isLoopbackOrigin(origin string) bool {
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	host := u.Hostname()
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
