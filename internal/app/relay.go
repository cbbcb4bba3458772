package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/energypatrikhu/obs-ui/internal/adapter/twitch"
	"github.com/energypatrikhu/obs-ui/internal/domain"
	"github.com/energypatrikhu/obs-ui/internal/platform/correlation"
	"github.com/energypatrikhu/obs-ui/internal/platform/retry"
)

type SessionConnector interface {
	Connect(ctx context.Context) error
}

type CurrentUserSource interface {
	CurrentUser(ctx context.Context) (*twitch.User, error)
}

type SessionSubscriber interface {
	SubscribeSession(ctx context.Context, sessionID string, reqs []twitch.SubscriptionRequest) error
}

var reconnectPolicy = retry.Policy{
	InitialBackoff: 2 * time.Second,
	MaxBackoff:     2 * time.Minute,
}

// Relay forwards Twitch events to the overlay. It connects the EventSub
// session once tokens are ready, subscribes every fresh session to the
// overlay's event types and reconnects when the live connection drops.
type Relay struct {
	events     *twitch.Dispatcher
	session    SessionConnector
	users      CurrentUserSource
	subscriber SessionSubscriber
	publisher  domain.OverlayPublisher
	policy     retry.Policy

	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	unsubs  []func()
	stopped bool
	wg      sync.WaitGroup
}

type RelayOption func(*Relay)

// WithReconnectPolicy overrides the backoff used after a dropped session.
func WithReconnectPolicy(p retry.Policy) RelayOption {
	return func(r *Relay) { r.policy = p }
}

func NewRelay(events *twitch.Dispatcher, session SessionConnector, users CurrentUserSource, subscriber SessionSubscriber, publisher domain.OverlayPublisher, opts ...RelayOption) *Relay {
	r := &Relay{
		events:     events,
		session:    session,
		users:      users,
		subscriber: subscriber,
		publisher:  publisher,
		policy:     reconnectPolicy,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start registers the relay's listeners. Work started by the listeners
// uses ctx and stops with it or with Stop.
func (r *Relay) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.ctx = ctx
	r.cancel = cancel
	r.unsubs = []func(){
		twitch.Once(r.events, twitch.Ready, func(struct{}) { r.connect(ctx) }),
		twitch.On(r.events, twitch.WebSocketConnected, func(info twitch.SessionInfo) { r.onConnected(ctx, info) }),
		twitch.On(r.events, twitch.EventReceived, func(n domain.Notification) { r.onNotification(ctx, n) }),
		twitch.On(r.events, twitch.WebSocketDisconnected, func(d twitch.Disconnect) { r.onDisconnected(ctx, d) }),
		twitch.On(r.events, twitch.WebSocketRevoked, func(rv twitch.Revocation) {
			slog.WarnContext(ctx, "EventSub subscription revoked", "type", rv.Subscription.Type, "reason", rv.Reason)
		}),
	}
}

// Stop removes the listeners and waits for running reconnect attempts.
func (r *Relay) Stop() {
	r.mu.Lock()
	unsubs := r.unsubs
	cancel := r.cancel
	r.unsubs = nil
	r.stopped = true
	r.mu.Unlock()

	for _, unsubscribe := range unsubs {
		unsubscribe()
	}
	if cancel != nil {
		cancel()
	}
	r.wg.Wait()
}

func (r *Relay) connect(ctx context.Context) {
	if err := r.session.Connect(ctx); err != nil {
		slog.ErrorContext(ctx, "Failed to connect to EventSub", "error", err)
		r.reconnect(ctx)
	}
}

func (r *Relay) onConnected(ctx context.Context, info twitch.SessionInfo) {
	if info.Reconnect {
		slog.InfoContext(ctx, "EventSub session replaced, subscriptions carried over", "session_id", info.SessionID)
		return
	}

	ctx = correlation.WithID(ctx, correlation.NewID())
	if err := r.Subscribe(ctx, info.SessionID); err != nil {
		slog.ErrorContext(ctx, "Failed to subscribe to Twitch events", "session_id", info.SessionID, "error", err)
		return
	}
	slog.InfoContext(ctx, "Subscribed to Twitch events", "session_id", info.SessionID)
}

// Subscribe binds the overlay's event types for the token owner to a session.
func (r *Relay) Subscribe(ctx context.Context, sessionID string) error {
	user, err := r.users.CurrentUser(ctx)
	if err != nil {
		return fmt.Errorf("failed to get token owner: %w", err)
	}
	return r.subscriber.SubscribeSession(ctx, sessionID, OverlaySubscriptions(user.ID))
}

func (r *Relay) onNotification(ctx context.Context, n domain.Notification) {
	msg, ok, err := MapNotification(n)
	if err != nil {
		slog.WarnContext(ctx, "Dropping malformed notification", "type", n.Subscription.Type, "error", err)
		return
	}
	if !ok {
		slog.DebugContext(ctx, "Ignoring notification", "type", n.Subscription.Type)
		return
	}

	if err := r.publisher.Publish(ctx, msg.Channel, msg.Payload); err != nil {
		slog.ErrorContext(ctx, "Failed to publish Twitch event", "type", n.Subscription.Type, "channel", msg.Channel, "error", err)
	}
}

func (r *Relay) onDisconnected(ctx context.Context, d twitch.Disconnect) {
	slog.WarnContext(ctx, "EventSub connection lost", "session_id", d.SessionID, "error", d.Err)
	r.reconnect(ctx)
}

// reconnect retries Connect in the background until it succeeds or the
// relay stops.
func (r *Relay) reconnect(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped {
		return
	}
	if r.ctx != nil {
		ctx = r.ctx
	}

	r.wg.Go(func() {
		p := r.policy
		p.OnRetry = func(attempt int, err error, backoff time.Duration) {
			slog.WarnContext(ctx, "EventSub reconnect failed", "attempt", attempt, "backoff", backoff, "error", err)
		}

		err := retry.DoVoid(ctx, p, classifyReconnect, func() error { return r.session.Connect(ctx) })
		switch {
		case err == nil:
			slog.InfoContext(ctx, "EventSub reconnected")
		case errors.Is(err, twitch.ErrSessionOpen):
			slog.InfoContext(ctx, "EventSub session already open, reconnect not needed")
		case errors.Is(err, context.Canceled):
			slog.DebugContext(ctx, "EventSub reconnect stopped")
		default:
			slog.ErrorContext(ctx, "EventSub reconnect gave up", "error", err)
		}
	})
}

// classifyReconnect stops once another caller has opened the session.
func classifyReconnect(err error) retry.Action {
	if errors.Is(err, twitch.ErrSessionOpen) {
		return retry.Stop
	}
	return retry.Retry
}

// OverlaySubscriptions lists the EventSub types the overlay shows, bound to
// userID as broadcaster, moderator and chat reader.
func OverlaySubscriptions(userID string) []twitch.SubscriptionRequest {
	broadcaster := map[string]string{"broadcaster_user_id": userID}
	moderated := map[string]string{"broadcaster_user_id": userID, "moderator_user_id": userID}
	chatReader := map[string]string{"broadcaster_user_id": userID, "user_id": userID}

	return []twitch.SubscriptionRequest{
		{Type: "channel.follow", Version: "2", Condition: moderated},
		{Type: "channel.subscribe", Version: "1", Condition: broadcaster},
		{Type: "channel.subscription.gift", Version: "1", Condition: broadcaster},
		{Type: "channel.subscription.message", Version: "1", Condition: broadcaster},
		{Type: "channel.cheer", Version: "1", Condition: broadcaster},
		{Type: "channel.raid", Version: "1", Condition: map[string]string{"to_broadcaster_user_id": userID}},
		{Type: "channel.ban", Version: "1", Condition: broadcaster},
		{Type: "channel.chat.message", Version: "1", Condition: chatReader},
		{Type: "channel.chat.message_delete", Version: "1", Condition: chatReader},
		{Type: "channel.suspicious_user.message", Version: "1", Condition: moderated},
	}
}
