package twitch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/energypatrikhu/obs-ui/internal/domain"
	"github.com/energypatrikhu/obs-ui/internal/platform/retry"
)

const (
	retryInitialBackoff   = 1 * time.Second
	retryRateLimitBackoff = 30 * time.Second
)

// SubscriptionRequest is the body of a create subscription call.
type SubscriptionRequest struct {
	Type      string            `json:"type"`
	Version   string            `json:"version"`
	Condition map[string]string `json:"condition"`
	Transport domain.Transport  `json:"transport"`
}

// ListFilter narrows a subscription listing. Twitch accepts at most one of
// Status, Type and UserID per request.
type ListFilter struct {
	Status string
	Type   string
	UserID string
	After  string
}

func (f ListFilter) params() Params {
	query := Params{}
	for key, value := range map[string]string{"status": f.Status, "type": f.Type, "user_id": f.UserID, "after": f.After} {
		if value != "" {
			query[key] = value
		}
	}
	return query
}

// SubscriptionPage is one page of the subscription listing.
type SubscriptionPage struct {
	Data         []domain.Subscription `json:"data"`
	Total        int                   `json:"total"`
	TotalCost    int                   `json:"total_cost"`
	MaxTotalCost int                   `json:"max_total_cost"`
	Pagination   *Pagination           `json:"pagination,omitempty"`
}

// Cursor returns the cursor of the next page, or "" on the last page.
func (p *SubscriptionPage) Cursor() string {
	if p.Pagination == nil {
		return ""
	}
	return p.Pagination.Cursor
}

// EventSubManager creates, lists and deletes EventSub subscriptions.
type EventSubManager struct {
	api    *HelixClient
	events *Dispatcher
	policy retry.Policy
}

func NewEventSubManager(api *HelixClient, events *Dispatcher) *EventSubManager {
	return &EventSubManager{
		api:    api,
		events: events,
		policy: retry.Policy{
			MaxAttempts:      3,
			InitialBackoff:   retryInitialBackoff,
			RateLimitBackoff: retryRateLimitBackoff,
		},
	}
}

// Create registers one subscription. Rate limits, server errors and network
// failures are retried; everything else aborts immediately.
func (m *EventSubManager) Create(ctx context.Context, req SubscriptionRequest) (*domain.Subscription, error) {
	p := m.policy
	p.OnRetry = func(attempt int, err error, backoff time.Duration) {
		slog.WarnContext(ctx, "EventSub subscribe failed, retrying", "type", req.Type, "attempt", attempt, "backoff_seconds", backoff.Seconds(), "error", err)
	}

	page, err := retry.Do(ctx, p, classifyEventSubError, func() (*SubscriptionPage, error) {
		return CallJSON[SubscriptionPage](ctx, m.api, OpCreateEventSubSubscription, nil, req)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create %s subscription: %w", req.Type, err)
	}
	if len(page.Data) == 0 {
		return nil, errors.New("no subscription returned from Twitch API")
	}

	sub := page.Data[0]
	slog.InfoContext(ctx, "Created EventSub subscription", "type", sub.Type, "subscription_id", sub.ID, "status", sub.Status)
	return &sub, nil
}

// List returns one page of subscriptions.
func (m *EventSubManager) List(ctx context.Context, filter ListFilter) (*SubscriptionPage, error) {
	page, err := CallJSON[SubscriptionPage](ctx, m.api, OpGetEventSubSubscriptions, filter.params(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}
	return page, nil
}

// ListAll follows the cursor until every matching subscription is loaded.
func (m *EventSubManager) ListAll(ctx context.Context, filter ListFilter) ([]domain.Subscription, error) {
	var all []domain.Subscription
	for {
		page, err := m.List(ctx, filter)
		if err != nil {
			return nil, err
		}
		all = append(all, page.Data...)

		cursor := page.Cursor()
		if cursor == "" || cursor == filter.After {
			return all, nil
		}
		filter.After = cursor
	}
}

// Delete removes a subscription. A subscription Twitch no longer knows
// counts as deleted.
func (m *EventSubManager) Delete(ctx context.Context, id string) error {
	_, err := m.api.Call(ctx, OpDeleteEventSubSubscription, Params{"id": id}, nil)
	if apiErr, ok := errors.AsType[*APIError](err); ok && apiErr.StatusCode == http.StatusNotFound {
		slog.DebugContext(ctx, "EventSub subscription already gone", "subscription_id", id)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to delete subscription %s: %w", id, err)
	}
	return nil
}

// ClearStale deletes every subscription that is not enabled and returns how
// many were removed. Enabled subscriptions are left to Twitch.
func (m *EventSubManager) ClearStale(ctx context.Context) (int, error) {
	slog.InfoContext(ctx, "Clearing EventSub subscriptions")
	emit(m.events, ClearingSubscriptions, struct{}{})

	deleted, err := m.clearStale(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to clear EventSub subscriptions", "deleted", deleted, "error", err)
		emit(m.events, FailedToClearSubscriptions, ClearResult{Deleted: deleted, Err: err})
		return deleted, err
	}

	slog.InfoContext(ctx, "Cleared EventSub subscriptions", "deleted", deleted)
	emit(m.events, ClearedSubscriptions, ClearResult{Deleted: deleted})
	return deleted, nil
}

func (m *EventSubManager) clearStale(ctx context.Context) (int, error) {
	subs, err := m.ListAll(ctx, ListFilter{})
	if err != nil {
		return 0, err
	}

	deleted := 0
	for _, sub := range subs {
		if sub.Status == domain.SubscriptionEnabled {
			continue
		}
		if err := m.Delete(ctx, sub.ID); err != nil {
			return deleted, err
		}
		slog.DebugContext(ctx, "Deleted stale EventSub subscription", "subscription_id", sub.ID, "type", sub.Type, "status", sub.Status)
		deleted++
	}
	return deleted, nil
}

// SubscribeSession binds reqs to a WebSocket session, one after another in
// the given order. The first failure aborts the rest of the batch.
func (m *EventSubManager) SubscribeSession(ctx context.Context, sessionID string, reqs []SubscriptionRequest) error {
	if sessionID == "" {
		return domain.ErrNoSession
	}
	return m.subscribeAll(ctx, domain.Transport{Method: domain.TransportWebSocket, SessionID: sessionID}, reqs)
}

// SubscribeWebhook binds reqs to a webhook callback.
func (m *EventSubManager) SubscribeWebhook(ctx context.Context, callback, secret string, reqs []SubscriptionRequest) error {
	return m.subscribeAll(ctx, domain.Transport{Method: domain.TransportWebhook, Callback: callback, Secret: secret}, reqs)
}

func (m *EventSubManager) subscribeAll(ctx context.Context, transport domain.Transport, reqs []SubscriptionRequest) error {
	batch := SubscribeBatch{SessionID: transport.SessionID, Types: make([]string, 0, len(reqs))}
	for _, req := range reqs {
		batch.Types = append(batch.Types, req.Type)
	}

	slog.InfoContext(ctx, "Subscribing to EventSub events", "transport", transport.Method, "count", len(reqs))
	emit(m.events, SubscribingToEvents, batch)

	for _, req := range reqs {
		req.Transport = transport
		if _, err := m.Create(ctx, req); err != nil {
			slog.ErrorContext(ctx, "Failed to subscribe to EventSub events", "type", req.Type, "error", err)
			emit(m.events, FailedToSubscribe, SubscribeFailure{SessionID: transport.SessionID, Type: req.Type, Err: err})
			return err
		}
	}

	slog.InfoContext(ctx, "Subscribed to EventSub events", "transport", transport.Method, "count", len(reqs))
	emit(m.events, SubscribedToEvents, batch)
	return nil
}

func classifyEventSubError(err error) retry.Action {
	if errors.Is(err, domain.ErrMissingScope) || errors.Is(err, domain.ErrReauthRequired) || errors.Is(err, context.Canceled) {
		return retry.Stop
	}

	apiErr, ok := errors.AsType[*APIError](err)
	if !ok {
		return retry.Retry
	}

	switch {
	case apiErr.StatusCode == http.StatusTooManyRequests:
		return retry.After
	case apiErr.StatusCode >= 500:
		return retry.Retry
	default:
		return retry.Stop
	}
}
