package domain

import "context"

// Overlay channels on the relay socket.
const (
	ChannelNowPlaying       = "nowPlaying"
	ChannelWidgetsSettings  = "widgets-settings"
	ChannelTwitchEvent      = "twitch:event"
	ChannelTwitchModeration = "twitch:event:moderation"
	ChannelTwitchChat       = "twitch:chat"
	ChannelCallback         = "callback"
)

// OverlayChannels lists every channel an overlay client is subscribed to.
var OverlayChannels = []string{
	ChannelNowPlaying,
	ChannelWidgetsSettings,
	ChannelTwitchEvent,
	ChannelTwitchModeration,
	ChannelTwitchChat,
	ChannelCallback,
}

// OverlayPublisher pushes a payload to every overlay client on a channel.
type OverlayPublisher interface {
	Publish(ctx context.Context, channel string, payload any) error
}
