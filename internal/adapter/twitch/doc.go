// Package twitch is the Twitch integration of the companion server.
//
// TokenManager owns the OAuth credentials, HelixClient performs scope gated
// REST calls, EventSubManager manages subscriptions, SessionManager keeps the
// EventSub WebSocket session alive across reconnects and WebhookReceiver
// accepts webhook deliveries. All of them report through a Dispatcher, which
// is the only surface the rest of the application listens on.
package twitch
