// Package events publishes order-lifecycle events for downstream
// consumers (fulfilment, analytics). Publishing is best-effort: failures
// are the caller's to log, never to surface.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	OrderPlacedQueue  = "order.placed"
	OrderUpdatedQueue = "order.updated"
	OrderClearedQueue = "order.cleared"
)

// OrderEvent is the JSON payload shared by all lifecycle queues.
type OrderEvent struct {
	EventType  string    `json:"eventType"`
	SessionID  string    `json:"sessionId"`
	OrderID    string    `json:"orderId"`
	ItemCount  int       `json:"itemCount"`
	TotalCents int64     `json:"totalCents"`
	Currency   string    `json:"currency"`
	Timestamp  time.Time `json:"timestamp"`
}

type Publisher struct {
	ch *amqp.Channel
}

// NewPublisher opens a channel and declares the lifecycle queues so
// publishing never fails on missing infra.
func NewPublisher(conn *amqp.Connection) (*Publisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}
	for _, q := range []string{OrderPlacedQueue, OrderUpdatedQueue, OrderClearedQueue} {
		if _, err := ch.QueueDeclare(q, true, false, false, false, nil); err != nil {
			return nil, fmt.Errorf("declare %s: %w", q, err)
		}
	}
	return &Publisher{ch: ch}, nil
}

func (p *Publisher) Close() error {
	return p.ch.Close()
}

func (p *Publisher) OrderPlaced(ctx context.Context, ev OrderEvent) error {
	ev.EventType = "OrderPlaced"
	return p.publish(ctx, OrderPlacedQueue, ev)
}

func (p *Publisher) OrderUpdated(ctx context.Context, ev OrderEvent) error {
	ev.EventType = "OrderUpdated"
	return p.publish(ctx, OrderUpdatedQueue, ev)
}

func (p *Publisher) OrderCleared(ctx context.Context, ev OrderEvent) error {
	ev.EventType = "OrderCleared"
	return p.publish(ctx, OrderClearedQueue, ev)
}

func (p *Publisher) publish(ctx context.Context, queue string, ev OrderEvent) error {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", ev.EventType, err)
	}

	pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return p.ch.PublishWithContext(pubCtx, "", queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
}

// Noop satisfies the session controller's sink when no broker is
// configured.
type Noop struct{}

func (Noop) OrderPlaced(context.Context, OrderEvent) error  { return nil }
func (Noop) OrderUpdated(context.Context, OrderEvent) error { return nil }
func (Noop) OrderCleared(context.Context, OrderEvent) error { return nil }
