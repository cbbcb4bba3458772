package domain

import (
	"encoding/json"
	"time"
)

// Transport methods supported by EventSub.
const (
	TransportWebhook   = "webhook"
	TransportWebSocket = "websocket"
	TransportConduit   = "conduit"
)

// Subscription statuses the server cares about.
const (
	SubscriptionEnabled                            = "enabled"
	SubscriptionWebhookCallbackVerificationPending = "webhook_callback_verification_pending"
	SubscriptionUserRemoved                        = "user_removed"
	SubscriptionAuthorizationRevoked               = "authorization_revoked"
	SubscriptionVersionRemoved                     = "version_removed"
)

// Transport tells Twitch where to deliver notifications for a subscription.
type Transport struct {
	Method         string     `json:"method"`
	Callback       string     `json:"callback,omitempty"`
	Secret         string     `json:"secret,omitempty"`
	SessionID      string     `json:"session_id,omitempty"`
	ConduitID      string     `json:"conduit_id,omitempty"`
	ConnectedAt    *time.Time `json:"connected_at,omitempty"`
	DisconnectedAt *time.Time `json:"disconnected_at,omitempty"`
}

// Subscription is an EventSub subscription as reported by Twitch.
type Subscription struct {
	ID        string            `json:"id"`
	Type      string            `json:"type"`
	Version   string            `json:"version"`
	Status    string            `json:"status"`
	Cost      int               `json:"cost"`
	Condition map[string]string `json:"condition"`
	Transport Transport         `json:"transport"`
	CreatedAt time.Time         `json:"created_at"`
}

// Notification is one delivered EventSub event. Event is kept raw so every
// consumer decodes only the fields it needs.
type Notification struct {
	Subscription Subscription    `json:"subscription"`
	Event        json.RawMessage `json:"event"`
}
