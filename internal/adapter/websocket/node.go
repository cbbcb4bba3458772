// Package websocket serves the overlay relay socket. Overlay pages connect
// anonymously, are subscribed to every overlay channel by the server and may
// only publish on the callback channel.
package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/centrifugal/centrifuge"
	"github.com/energypatrikhu/obs-ui/internal/adapter/metrics"
	"github.com/energypatrikhu/obs-ui/internal/domain"
)

// CallbackMessage is relayed between overlay clients on the callback channel.
type CallbackMessage struct {
	EventName string          `json:"eventName"`
	Data      json.RawMessage `json:"data,omitempty"`
}

var errMissingEventName = errors.New("callback message without eventName")

func NewNode(wsMetrics *metrics.WebSocketMetrics, logLevel string) (*centrifuge.Node, error) {
	conf := centrifuge.Config{LogLevel: parseCentrifugeLogLevel(logLevel), LogHandler: slogHandler}
	node, err := centrifuge.New(conf)
	if err != nil {
		return nil, fmt.Errorf("failed to create centrifuge node: %w", err)
	}

	node.OnConnecting(onConnecting)
	node.OnConnect(onConnect(wsMetrics))

	return node, nil
}

func onConnecting(_ context.Context, e centrifuge.ConnectEvent) (centrifuge.ConnectReply, error) {
	subs := make(map[string]centrifuge.SubscribeOptions, len(domain.OverlayChannels))
	for _, channel := range domain.OverlayChannels {
		subs[channel] = centrifuge.SubscribeOptions{}
	}

	slog.Debug("Overlay client connecting", "client_id", e.ClientID)
	return centrifuge.ConnectReply{
		Credentials:   &centrifuge.Credentials{UserID: ""},
		Subscriptions: subs,
	}, nil
}

func onConnect(wsMetrics *metrics.WebSocketMetrics) func(client *centrifuge.Client) {
	return func(client *centrifuge.Client) {
		slog.Debug("Overlay client connected", "client_id", client.ID())
		if wsMetrics != nil {
			wsMetrics.ActiveConnections.Inc()
		}

		client.OnSubscribe(func(e centrifuge.SubscribeEvent, cb centrifuge.SubscribeCallback) {
			if !slices.Contains(domain.OverlayChannels, e.Channel) {
				cb(centrifuge.SubscribeReply{}, centrifuge.ErrorPermissionDenied)
				return
			}
			cb(centrifuge.SubscribeReply{}, nil)
		})

		client.OnPublish(func(e centrifuge.PublishEvent, cb centrifuge.PublishCallback) {
			if e.Channel != domain.ChannelCallback {
				cb(centrifuge.PublishReply{}, centrifuge.ErrorPermissionDenied)
				return
			}
			msg, err := decodeCallback(e.Data)
			if err != nil {
				slog.Warn("Rejected callback message", "client_id", client.ID(), "error", err)
				cb(centrifuge.PublishReply{}, centrifuge.ErrorBadRequest)
				return
			}

			slog.Debug("Relaying callback message", "client_id", client.ID(), "event_name", msg.EventName)
			if wsMetrics != nil {
				wsMetrics.ClientPublications.Inc()
			}
			cb(centrifuge.PublishReply{}, nil)
		})

		client.OnDisconnect(func(e centrifuge.DisconnectEvent) {
			slog.Debug("Overlay client disconnected", "client_id", client.ID(), "reason", e.Reason)
			if wsMetrics != nil {
				wsMetrics.ActiveConnections.Dec()
			}
		})
	}
}

func decodeCallback(data []byte) (CallbackMessage, error) {
	var msg CallbackMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return CallbackMessage{}, fmt.Errorf("failed to decode callback message: %w", err)
	}
	if msg.EventName == "" {
		return CallbackMessage{}, errMissingEventName
	}
	return msg, nil
}

// SetupRedis fans publications out through Redis so several server
// instances can share overlay clients.
func SetupRedis(node *centrifuge.Node, redisAddr string) error {
	shard, err := centrifuge.NewRedisShard(node, centrifuge.RedisShardConfig{Address: redisAddr})
	if err != nil {
		return fmt.Errorf("failed to create redis shard: %w", err)
	}

	broker, err := centrifuge.NewRedisBroker(node, centrifuge.RedisBrokerConfig{Prefix: "obs-ui", Shards: []*centrifuge.RedisShard{shard}})
	if err != nil {
		return fmt.Errorf("failed to create redis broker: %w", err)
	}
	node.SetBroker(broker)
	return nil
}

func slogHandler(entry centrifuge.LogEntry) {
	attrs := make([]any, 0, len(entry.Fields)*2)
	for k, v := range entry.Fields {
		attrs = append(attrs, k, v)
	}
	attrs = append(attrs, "component", "centrifuge")

	switch entry.Level {
	case centrifuge.LogLevelTrace, centrifuge.LogLevelDebug:
		slog.Debug(entry.Message, attrs...)
	case centrifuge.LogLevelInfo:
		slog.Info(entry.Message, attrs...)
	case centrifuge.LogLevelWarn:
		slog.Warn(entry.Message, attrs...)
	case centrifuge.LogLevelError:
		slog.Error(entry.Message, attrs...)
	case centrifuge.LogLevelNone:
	}
}

func parseCentrifugeLogLevel(level string) centrifuge.LogLevel {
	switch level {
	case "debug":
		return centrifuge.LogLevelDebug
	case "warn":
		return centrifuge.LogLevelWarn
	case "error":
		return centrifuge.LogLevelError
	default:
		return centrifuge.LogLevelInfo
	}
}
