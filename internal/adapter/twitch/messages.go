package twitch

import (
	"encoding/json"
	"time"

	"github.com/energypatrikhu/obs-ui/internal/domain"
)

// EventSub WebSocket message types.
const (
	MessageSessionWelcome   = "session_welcome"
	MessageSessionKeepalive = "session_keepalive"
	MessageSessionReconnect = "session_reconnect"
	MessageNotification     = "notification"
	MessageRevocation       = "revocation"
)

type frame struct {
	Metadata frameMetadata   `json:"metadata"`
	Payload  json.RawMessage `json:"payload"`
}

type frameMetadata struct {
	MessageID           string    `json:"message_id"`
	MessageType         string    `json:"message_type"`
	MessageTimestamp    time.Time `json:"message_timestamp"`
	SubscriptionType    string    `json:"subscription_type,omitempty"`
	SubscriptionVersion string    `json:"subscription_version,omitempty"`
}

type sessionPayload struct {
	Session struct {
		ID                      string    `json:"id"`
		Status                  string    `json:"status"`
		KeepaliveTimeoutSeconds int       `json:"keepalive_timeout_seconds"`
		ReconnectURL            string    `json:"reconnect_url"`
		ConnectedAt             time.Time `json:"connected_at"`
	} `json:"session"`
}

type notificationPayload struct {
	Subscription domain.Subscription `json:"subscription"`
	Event        json.RawMessage     `json:"event"`
}

type revocationPayload struct {
	Subscription domain.Subscription `json:"subscription"`
}
