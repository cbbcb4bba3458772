package app

import (
	"encoding/json"
	"fmt"

	"github.com/energypatrikhu/obs-ui/internal/domain"
)

const anonymous = "Anonymous"

// OverlayMessage is a notification translated for the overlay: the channel
// it goes to and the JSON payload the widgets read.
type OverlayMessage struct {
	Channel string
	Payload map[string]any
}

type userEvent struct {
	UserName string `json:"user_name"`
}

type tierEvent struct {
	UserName string `json:"user_name"`
	Tier     string `json:"tier"`
}

type giftEvent struct {
	UserName *string `json:"user_name"`
	Tier     string  `json:"tier"`
	Total    int     `json:"total"`
}

type chatText struct {
	Text string `json:"text"`
}

type resubEvent struct {
	UserName       string `json:"user_name"`
	Tier           string `json:"tier"`
	StreakMonths   *int   `json:"streak_months"`
	DurationMonths int    `json:"duration_months"`
	Message        struct {
		Text string `json:"text"`
	} `json:"message"`
}

type cheerEvent struct {
	UserName *string `json:"user_name"`
	Bits     int     `json:"bits"`
	Message  string  `json:"message"`
}

type raidEvent struct {
	FromBroadcasterUserName string `json:"from_broadcaster_user_name"`
	Viewers                 int    `json:"viewers"`
}

type banEvent struct {
	UserName          string  `json:"user_name"`
	ModeratorUserName string  `json:"moderator_user_name"`
	Reason            string  `json:"reason"`
	IsPermanent       bool    `json:"is_permanent"`
	EndsAt            *string `json:"ends_at"`
}

type chatMessageEvent struct {
	ChatterUserName string   `json:"chatter_user_name"`
	MessageID       string   `json:"message_id"`
	Message         chatText `json:"message"`
	Color           string   `json:"color"`
	Badges          []struct {
		SetID string `json:"set_id"`
	} `json:"badges"`
}

type messageDeleteEvent struct {
	TargetUserName string `json:"target_user_name"`
	MessageID      string `json:"message_id"`
}

type suspiciousMessageEvent struct {
	UserName string `json:"user_name"`
	Message  struct {
		MessageID string `json:"message_id"`
		Text      string `json:"text"`
	} `json:"message"`
}

// MapNotification translates an EventSub notification into the overlay
// message for it. ok is false for subscription types the overlay does not
// show.
func MapNotification(n domain.Notification) (OverlayMessage, bool, error) {
	switch n.Subscription.Type {
	case "channel.follow":
		var ev userEvent
		if err := decodeEvent(n, &ev); err != nil {
			return OverlayMessage{}, false, err
		}
		return activity("follow", map[string]any{"username": ev.UserName}), true, nil

	case "channel.subscribe":
		var ev tierEvent
		if err := decodeEvent(n, &ev); err != nil {
			return OverlayMessage{}, false, err
		}
		return activity("subscribe", map[string]any{"username": ev.UserName, "tier": ev.Tier}), true, nil

	case "channel.subscription.gift":
		var ev giftEvent
		if err := decodeEvent(n, &ev); err != nil {
			return OverlayMessage{}, false, err
		}
		return activity("subscription.gift", map[string]any{
			"username": orAnonymous(ev.UserName),
			"tier":     ev.Tier,
			"total":    ev.Total,
		}), true, nil

	case "channel.subscription.message":
		var ev resubEvent
		if err := decodeEvent(n, &ev); err != nil {
			return OverlayMessage{}, false, err
		}
		return activity("subscription.message", map[string]any{
			"username": ev.UserName,
			"message":  ev.Message.Text,
			"tier":     ev.Tier,
			"streak":   ev.StreakMonths,
			"duration": ev.DurationMonths,
		}), true, nil

	case "channel.cheer":
		var ev cheerEvent
		if err := decodeEvent(n, &ev); err != nil {
			return OverlayMessage{}, false, err
		}
		return activity("cheer", map[string]any{
			"username": orAnonymous(ev.UserName),
			"amount":   ev.Bits,
			"message":  ev.Message,
		}), true, nil

	case "channel.raid":
		var ev raidEvent
		if err := decodeEvent(n, &ev); err != nil {
			return OverlayMessage{}, false, err
		}
		return activity("raid", map[string]any{"username": ev.FromBroadcasterUserName, "viewers": ev.Viewers}), true, nil

	case "channel.ban":
		var ev banEvent
		if err := decodeEvent(n, &ev); err != nil {
			return OverlayMessage{}, false, err
		}
		return OverlayMessage{Channel: domain.ChannelTwitchModeration, Payload: map[string]any{
			"type":         "ban",
			"username":     ev.UserName,
			"moderator":    ev.ModeratorUserName,
			"reason":       ev.Reason,
			"is_permanent": ev.IsPermanent,
			"ends_at":      ev.EndsAt,
		}}, true, nil

	case "channel.chat.message":
		var ev chatMessageEvent
		if err := decodeEvent(n, &ev); err != nil {
			return OverlayMessage{}, false, err
		}
		badges := make([]string, 0, len(ev.Badges))
		for _, b := range ev.Badges {
			badges = append(badges, b.SetID)
		}
		return chat("message", map[string]any{
			"username":  ev.ChatterUserName,
			"messageId": ev.MessageID,
			"message":   ev.Message.Text,
			"badges":    badges,
			"color":     ev.Color,
		}), true, nil

	case "channel.chat.message_delete":
		var ev messageDeleteEvent
		if err := decodeEvent(n, &ev); err != nil {
			return OverlayMessage{}, false, err
		}
		return chat("message_delete", map[string]any{"username": ev.TargetUserName, "messageId": ev.MessageID}), true, nil

	case "channel.suspicious_user.message":
		var ev suspiciousMessageEvent
		if err := decodeEvent(n, &ev); err != nil {
			return OverlayMessage{}, false, err
		}
		return chat("suspicious_message", map[string]any{
			"username":  ev.UserName,
			"messageId": ev.Message.MessageID,
			"message":   ev.Message.Text,
		}), true, nil
	}

	return OverlayMessage{}, false, nil
}

func decodeEvent(n domain.Notification, v any) error {
	if err := json.Unmarshal(n.Event, v); err != nil {
		return fmt.Errorf("failed to decode %s event: %w", n.Subscription.Type, err)
	}
	return nil
}

func activity(kind string, fields map[string]any) OverlayMessage {
	fields["type"] = kind
	return OverlayMessage{Channel: domain.ChannelTwitchEvent, Payload: fields}
}

func chat(kind string, fields map[string]any) OverlayMessage {
	fields["type"] = kind
	return OverlayMessage{Channel: domain.ChannelTwitchChat, Payload: fields}
}

func orAnonymous(name *string) string {
	if name == nil || *name == "" {
		return anonymous
	}
	return *name
}
