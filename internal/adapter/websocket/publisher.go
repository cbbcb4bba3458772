package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/centrifugal/centrifuge"
	"github.com/energypatrikhu/obs-ui/internal/adapter/metrics"
	"github.com/energypatrikhu/obs-ui/internal/domain"
)

// Publisher implements domain.OverlayPublisher on top of a centrifuge node.
type Publisher struct {
	node      *centrifuge.Node
	wsMetrics *metrics.WebSocketMetrics
}

var _ domain.OverlayPublisher = (*Publisher)(nil)

func NewPublisher(node *centrifuge.Node, wsMetrics *metrics.WebSocketMetrics) *Publisher {
	return &Publisher{node: node, wsMetrics: wsMetrics}
}

// Publish sends payload as JSON to every client subscribed to channel.
func (p *Publisher) Publish(ctx context.Context, channel string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal %s payload: %w", channel, err)
	}

	if _, err := p.node.Publish(channel, data); err != nil {
		return fmt.Errorf("failed to publish to channel %s: %w", channel, err)
	}

	slog.DebugContext(ctx, "Published overlay message", "channel", channel, "bytes", len(data))
	if p.wsMetrics != nil {
		p.wsMetrics.MessagesPublished.WithLabelValues(channel).Inc()
	}
	return nil
}
