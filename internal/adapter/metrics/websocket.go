package metrics

import "github.com/prometheus/client_golang/prometheus"

const websocketSubsystem = "websocket"

// WebSocketMetrics tracks the overlay relay socket.
type WebSocketMetrics struct {
	ActiveConnections  prometheus.Gauge
	MessagesPublished  *prometheus.CounterVec
	ClientPublications prometheus.Counter
}

func NewWebSocketMetrics(reg prometheus.Registerer) *WebSocketMetrics {
	published := prometheus.CounterOpts{Namespace: namespace, Subsystem: websocketSubsystem,
		Name: "messages_published_total", Help: "Messages published to overlay clients, by channel."}
	relayed := prometheus.CounterOpts{Namespace: namespace, Subsystem: websocketSubsystem,
		Name: "client_publications_total", Help: "Callback messages relayed between overlay clients."}
	connected := prometheus.GaugeOpts{Namespace: namespace, Subsystem: websocketSubsystem,
		Name: "active_connections", Help: "Connected overlay clients."}

	m := &WebSocketMetrics{
		ActiveConnections:  prometheus.NewGauge(connected),
		MessagesPublished:  prometheus.NewCounterVec(published, []string{"channel"}),
		ClientPublications: prometheus.NewCounter(relayed),
	}
	reg.MustRegister(m.ActiveConnections, m.MessagesPublished, m.ClientPublications)
	return m
}
