package twitch

// Metrics receives counters from the Twitch client.
type Metrics interface {
	APIRequest(path string, status int)
	TokenRefresh(success bool)
	SessionEvent(kind string)
	Notification(subscriptionType string)
}

// Session event kinds reported through Metrics.SessionEvent.
const (
	SessionEventConnected    = "connected"
	SessionEventReconnect    = "reconnect"
	SessionEventDisconnected = "disconnected"
	SessionEventRevoked      = "revoked"
)

type nopMetrics struct{}

func (nopMetrics) APIRequest(string, int) {}
func (nopMetrics) TokenRefresh(bool)      {}
func (nopMetrics) SessionEvent(string)    {}
func (nopMetrics) Notification(string)    {}
