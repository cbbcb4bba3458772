package twitch

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/Its-donkey/kappopher/helix"
	"github.com/energypatrikhu/obs-ui/internal/domain"
)

// WebhookReceiver accepts EventSub deliveries over the webhook transport and
// emits them on the same events as the WebSocket session. Signature checks,
// replay protection and the verification challenge are handled by kappopher.
type WebhookReceiver struct {
	handler *helix.EventSubWebhookHandler
	events  *Dispatcher
	metrics Metrics
}

func NewWebhookReceiver(secret string, events *Dispatcher, metrics Metrics) *WebhookReceiver {
	if metrics == nil {
		metrics = nopMetrics{}
	}
	wr := &WebhookReceiver{events: events, metrics: metrics}

	wr.handler = helix.NewEventSubWebhookHandler(
		helix.WithWebhookSecret(secret),
		helix.WithNotificationHandler(wr.handleNotification),
		helix.WithVerificationHandler(func(msg *helix.EventSubWebhookMessage) bool {
			slog.Info("EventSub webhook verification", "subscription_type", msg.SubscriptionType)
			return true
		}),
		helix.WithRevocationHandler(wr.handleRevocation),
	)

	return wr
}

func (wr *WebhookReceiver) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	wr.handler.ServeHTTP(w, r)
}

func (wr *WebhookReceiver) handleNotification(msg *helix.EventSubWebhookMessage) {
	sub, err := webhookSubscription(msg)
	if err != nil {
		slog.Error("Failed to decode webhook subscription", "subscription_type", msg.SubscriptionType, "error", err)
		return
	}

	event, err := helix.ParseEventSubEvent[map[string]any](msg)
	if err != nil {
		slog.Error("Failed to parse webhook event", "subscription_type", msg.SubscriptionType, "error", err)
		return
	}
	raw, err := json.Marshal(event)
	if err != nil {
		slog.Error("Failed to encode webhook event", "subscription_type", msg.SubscriptionType, "error", err)
		return
	}

	slog.Debug("Received EventSub webhook notification", "type", sub.Type)
	wr.metrics.Notification(sub.Type)
	emit(wr.events, EventReceived, domain.Notification{Subscription: sub, Event: raw})
}

func (wr *WebhookReceiver) handleRevocation(msg *helix.EventSubWebhookMessage) {
	reason := fmt.Sprint(helix.GetRevocationReason(msg.Subscription))
	slog.Warn("EventSub webhook subscription revoked", "type", msg.SubscriptionType, "reason", reason)

	sub, err := webhookSubscription(msg)
	if err != nil {
		slog.Error("Failed to decode revoked subscription", "error", err)
	}
	if sub.Status == "" {
		sub.Status = reason
	}

	wr.metrics.SessionEvent(SessionEventRevoked)
	emit(wr.events, WebSocketRevoked, Revocation{Subscription: sub, Reason: reason})
}

func webhookSubscription(msg *helix.EventSubWebhookMessage) (domain.Subscription, error) {
	sub := domain.Subscription{Type: msg.SubscriptionType}

	raw, err := json.Marshal(msg.Subscription)
	if err != nil {
		return sub, fmt.Errorf("failed to encode subscription: %w", err)
	}
	if err := json.Unmarshal(raw, &sub); err != nil {
		return sub, fmt.Errorf("failed to decode subscription: %w", err)
	}
	if sub.Type == "" {
		sub.Type = msg.SubscriptionType
	}
	return sub, nil
}
