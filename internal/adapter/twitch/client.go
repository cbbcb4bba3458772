package twitch

import (
	"context"
	"net/http"

	"github.com/energypatrikhu/obs-ui/internal/domain"
)

// Config selects endpoints and optional features of the Twitch client.
// Empty URLs fall back to the public Twitch endpoints.
type Config struct {
	RedirectURL   string
	IdentityURL   string
	HelixURL      string
	EventSubURL   string
	WebhookSecret string
	HTTPClient    *http.Client
	Metrics       Metrics
	// FailWithoutAuthorization makes Initialize return instead of waiting
	// for a new authorization code.
	FailWithoutAuthorization bool
}

// Client wires the Twitch components together. Each component receives only
// the capability it needs: the REST client sees the token manager through
// Authorizer, the session manager sees EventSub only to clear stale
// subscriptions.
type Client struct {
	Events   *Dispatcher
	Tokens   *TokenManager
	API      *HelixClient
	EventSub *EventSubManager
	Session  *SessionManager
	Webhook  *WebhookReceiver
}

func New(store domain.CredentialStore, cfg Config) *Client {
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = nopMetrics{}
	}

	events := NewDispatcher()

	tokenOpts := []TokenOption{WithTokenMetrics(metrics)}
	if cfg.IdentityURL != "" {
		tokenOpts = append(tokenOpts, WithIdentityURL(cfg.IdentityURL))
	}
	if cfg.HTTPClient != nil {
		tokenOpts = append(tokenOpts, WithTokenHTTPClient(cfg.HTTPClient))
	}
	if cfg.FailWithoutAuthorization {
		tokenOpts = append(tokenOpts, WithoutWaitingForCode())
	}
	tokens := NewTokenManager(store, events, cfg.RedirectURL, tokenOpts...)

	helixOpts := []HelixOption{WithHelixMetrics(metrics)}
	if cfg.HelixURL != "" {
		helixOpts = append(helixOpts, WithHelixBaseURL(cfg.HelixURL))
	}
	if cfg.HTTPClient != nil {
		helixOpts = append(helixOpts, WithHelixHTTPClient(cfg.HTTPClient))
	}
	api := NewHelixClient(tokens, helixOpts...)

	eventSub := NewEventSubManager(api, events)

	sessionOpts := []SessionOption{WithSessionMetrics(metrics)}
	if cfg.EventSubURL != "" {
		sessionOpts = append(sessionOpts, WithEventSubURL(cfg.EventSubURL))
	}
	session := NewSessionManager(eventSub, events, sessionOpts...)

	c := &Client{
		Events:   events,
		Tokens:   tokens,
		API:      api,
		EventSub: eventSub,
		Session:  session,
	}
	if cfg.WebhookSecret != "" {
		c.Webhook = NewWebhookReceiver(cfg.WebhookSecret, events, metrics)
	}
	return c
}

// SubscribeToWebsocketEvents binds reqs to the live WebSocket session.
func (c *Client) SubscribeToWebsocketEvents(ctx context.Context, reqs []SubscriptionRequest) error {
	return c.EventSub.SubscribeSession(ctx, c.Session.SessionID(), reqs)
}

// Close shuts the session down and delivers every pending event.
func (c *Client) Close() error {
	err := c.Session.Close()
	c.Events.Close()
	return err
}
