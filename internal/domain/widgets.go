package domain

import (
	"context"
	"slices"
)

const DefaultActivityFeedMaxEvents = 5

type ActivityFeedSettings struct {
	MaxEvents int `json:"maxEvents"`
}

type TwitchWidgetSettings struct {
	ActivityFeed ActivityFeedSettings `json:"activityFeed"`
}

// WidgetSettings is the overlay configuration edited from the dashboard.
// The JSON layout matches data/widgets.json.
type WidgetSettings struct {
	DisabledWidgets []string             `json:"disabledWidgets"`
	Twitch          TwitchWidgetSettings `json:"twitch"`
}

func DefaultWidgetSettings() WidgetSettings {
	return WidgetSettings{
		DisabledWidgets: []string{},
		Twitch: TwitchWidgetSettings{
			ActivityFeed: ActivityFeedSettings{MaxEvents: DefaultActivityFeedMaxEvents},
		},
	}
}

func (s WidgetSettings) IsDisabled(widget string) bool {
	return slices.Contains(s.DisabledWidgets, widget)
}

// WidgetStore persists widget settings.
type WidgetStore interface {
	GetWidgetSettings(ctx context.Context) (WidgetSettings, error)
	SaveWidgetSettings(ctx context.Context, settings WidgetSettings) error
}
