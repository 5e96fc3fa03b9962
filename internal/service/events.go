package service

import (
	"context"
	"encoding/json"

	amqp "github.com/rabbitmq/amqp091-go"
)

const orderEventsQueue = "order_events"

// OrderEventItem 事件里的订单行快照
type OrderEventItem struct {
	ProductName string `json:"product_name"`
	Quantity    int64  `json:"quantity"`
	Price       int64  `json:"price"`
	TotalPrice  int64  `json:"total_price"`
	ImageURL    string `json:"image_url"`
}

// OrderPlacedEvent 下单成功事件，worker 消费后发邮件和站内通知
type OrderPlacedEvent struct {
	UserID        int64            `json:"user_id"`
	Email         string           `json:"email"`
	FirstName     string           `json:"first_name"`
	UniqueOrderID string           `json:"unique_order_id"`
	TotalAmount   int64            `json:"total_amount"`
	Items         []OrderEventItem `json:"items"`
}

// EventPublisher 把提交后的副作用投递到 MQ，由独立 worker 异步处理
type EventPublisher struct {
	conn *amqp.Connection
}

// NewEventPublisher 创建事件发布器
func NewEventPublisher(conn *amqp.Connection) *EventPublisher {
	return &EventPublisher{conn: conn}
}

// PublishOrderPlaced 投递下单事件。只在事务提交之后调用。
func (p *EventPublisher) PublishOrderPlaced(ctx context.Context, ev *OrderPlacedEvent) error {
	ch, err := p.conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	if _, err = ch.QueueDeclare(orderEventsQueue, true, false, false, false, nil); err != nil {
		return err
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	return ch.PublishWithContext(
		ctx,
		"",
		orderEventsQueue,
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	)
}
