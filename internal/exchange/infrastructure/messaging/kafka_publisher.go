// Package messaging 领域事件的 Kafka 投递实现
package messaging

import (
	"context"

	"github.com/wyfcoding/exchange/internal/exchange/domain"
	"github.com/wyfcoding/exchange/pkg/mq"
)

// KafkaEventPublisher 将订单领域事件发布到 Kafka
// 主题为 <prefix>.created / <prefix>.matched / <prefix>.cancelled，
// 以交易标的作为消息键，同一标的的事件保持分区内有序。
type KafkaEventPublisher struct {
	producer    *mq.KafkaProducer
	topicPrefix string
}

// NewKafkaEventPublisher 创建事件发布器
func NewKafkaEventPublisher(producer *mq.KafkaProducer, topicPrefix string) *KafkaEventPublisher {
	if topicPrefix == "" {
		topicPrefix = "exchange.order"
	}
	return &KafkaEventPublisher{
		producer:    producer,
		topicPrefix: topicPrefix,
	}
}

// PublishOrderCreated 发布订单创建事件
func (p *KafkaEventPublisher) PublishOrderCreated(ctx context.Context, event domain.OrderCreatedEvent) error {
	return p.producer.SendMessage(ctx, p.topicPrefix+".created", event.Order.Symbol, event)
}

// PublishOrderMatched 发布订单撮合成交事件
func (p *KafkaEventPublisher) PublishOrderMatched(ctx context.Context, event domain.OrderMatchedEvent) error {
	return p.producer.SendMessage(ctx, p.topicPrefix+".matched", event.BuyOrder.Symbol, event)
}

// PublishOrderCancelled 发布订单取消事件
func (p *KafkaEventPublisher) PublishOrderCancelled(ctx context.Context, event domain.OrderCancelledEvent) error {
	return p.producer.SendMessage(ctx, p.topicPrefix+".cancelled", event.Order.Symbol, event)
}
