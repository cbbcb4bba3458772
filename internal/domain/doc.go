// Package domain holds the types shared by the Twitch core, the application
// services and the adapters: the credential record, EventSub subscriptions
// and notifications, overlay channels, now playing state and widget
// settings, plus the store and publisher ports they are persisted and
// delivered through.
package domain
