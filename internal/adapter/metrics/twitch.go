package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// TwitchMetrics implements twitch.Metrics.
type TwitchMetrics struct {
	APIRequests    *prometheus.CounterVec
	TokenRefreshes *prometheus.CounterVec
	SessionEvents  *prometheus.CounterVec
	Notifications  *prometheus.CounterVec
}

func NewTwitchMetrics(reg prometheus.Registerer) *TwitchMetrics {
	m := &TwitchMetrics{
		APIRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "twitch",
			Name:      "api_requests_total",
			Help:      "Total number of Helix requests, by path and status code.",
		}, []string{"path", "status_code"}),
		TokenRefreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "twitch",
			Name:      "token_refreshes_total",
			Help:      "Total number of token refreshes, by result.",
		}, []string{"result"}),
		SessionEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "twitch",
			Name:      "eventsub_session_events_total",
			Help:      "Total number of EventSub session lifecycle events, by kind.",
		}, []string{"kind"}),
		Notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "twitch",
			Name:      "eventsub_notifications_total",
			Help:      "Total number of EventSub notifications received, by subscription type.",
		}, []string{"type"}),
	}

	reg.MustRegister(m.APIRequests, m.TokenRefreshes, m.SessionEvents, m.Notifications)
	return m
}

func (m *TwitchMetrics) APIRequest(path string, status int) {
	m.APIRequests.WithLabelValues(path, strconv.Itoa(status)).Inc()
}

func (m *TwitchMetrics) TokenRefresh(success bool) {
	result := "success"
	if !success {
		result = "failure"
	}
	m.TokenRefreshes.WithLabelValues(result).Inc()
}

func (m *TwitchMetrics) SessionEvent(kind string) {
	m.SessionEvents.WithLabelValues(kind).Inc()
}

func (m *TwitchMetrics) Notification(subscriptionType string) {
	m.Notifications.WithLabelValues(subscriptionType).Inc()
}
