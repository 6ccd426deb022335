package messaging

import (
	"context"

	"github.com/wyfcoding/exchange/internal/exchange/domain"
)

// NopEventPublisher 空实现，供不接 Kafka 的部署与单元测试使用
type NopEventPublisher struct{}

func (NopEventPublisher) PublishOrderCreated(ctx context.Context, event domain.OrderCreatedEvent) error {
	return nil
}

func (NopEventPublisher) PublishOrderMatched(ctx context.Context, event domain.OrderMatchedEvent) error {
	return nil
}

func (NopEventPublisher) PublishOrderCancelled(ctx context.Context, event domain.OrderCancelledEvent) error {
	return nil
}
