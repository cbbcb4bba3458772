// Package app provides the application service layer.
//
// Relay turns Twitch lifecycle events into overlay traffic. NowPlayingService and
// WidgetService back the HTTP handlers. Services depend on domain interfaces and the
// Twitch client's capabilities, never on a concrete store.
package app
