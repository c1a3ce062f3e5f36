package notifications

import (
	"context"

	"github.com/Shashank-Jadhav9718/Timeout-Cafe/internal/domain"
)

// FeedPublisher публикует outbox-сообщения прямо в ленту, когда брокер не настроен.
type FeedPublisher struct {
	projector *OrderEventProjector
}

// NewFeedPublisher создаёт publisher поверх проектора.
func NewFeedPublisher(projector *OrderEventProjector) *FeedPublisher {
	return &FeedPublisher{projector: projector}
}

// Publish передаёт событие заказа проектору; события других агрегатов игнорируются.
func (p *FeedPublisher) Publish(ctx context.Context, msg domain.OutboxMessage) error {
	if msg.AggregateType != domain.AggregateTypeOrder {
		return nil
	}
	return p.projector.Handle(ctx, msg.Payload)
}

var _ domain.OutboxPublisher = (*FeedPublisher)(nil)
