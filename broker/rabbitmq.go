package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"foodscan/models"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const publishTimeout = 5 * time.Second

// RabbitMQ publishes on a single channel guarded by a mutex; amqp channels are not safe for
// concurrent publishing.
type RabbitMQ struct {
	conn *amqp.Connection
	ch   *amqp.Channel
	log  *zap.Logger
	mu   sync.Mutex
}

func Dial(url string, log *zap.Logger) (*RabbitMQ, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := declareExchanges(ch); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}
	log.Info("rabbitmq connected", zap.String("exchange", OrdersExchange))
	return &RabbitMQ{conn: conn, ch: ch, log: log}, nil
}

func declareExchanges(ch *amqp.Channel) error {
	if err := ch.ExchangeDeclare(OrdersExchange, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare %s: %w", OrdersExchange, err)
	}
	if err := ch.ExchangeDeclare(NotificationsExchange, "fanout", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare %s: %w", NotificationsExchange, err)
	}
	return nil
}

func (r *RabbitMQ) Close() error {
	if r.ch != nil && !r.ch.IsClosed() {
		if err := r.ch.Close(); err != nil {
			return fmt.Errorf("close rabbitmq channel: %w", err)
		}
	}
	if r.conn != nil && !r.conn.IsClosed() {
		if err := r.conn.Close(); err != nil {
			return fmt.Errorf("close rabbitmq connection: %w", err)
		}
	}
	return nil
}

func (r *RabbitMQ) PublishOrderCreated(ctx context.Context, order models.Order) error {
	return r.publish(ctx, Event{Type: EventOrderCreated, Order: &order, OccurredAt: time.Now().UTC()})
}

func (r *RabbitMQ) PublishStatusChanged(ctx context.Context, change models.StatusChange) error {
	return r.publish(ctx, Event{Type: EventStatusChanged, Change: &change, OccurredAt: time.Now().UTC()})
}

// publish sends e to the topic exchange and mirrors it on the fanout exchange.
func (r *RabbitMQ) publish(ctx context.Context, e Event) error {
	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	msg := amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		ContentType:  "application/json",
		Timestamp:    e.OccurredAt,
		Body:         body,
	}
	key := e.RoutingKey()

	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.ch.PublishWithContext(ctx, OrdersExchange, key, false, false, msg); err != nil {
		return fmt.Errorf("publish %s: %w", key, err)
	}
	if err := r.ch.PublishWithContext(ctx, NotificationsExchange, "", false, false, msg); err != nil {
		return fmt.Errorf("publish notification %s: %w", key, err)
	}
	r.log.Debug("event published", zap.String("routing_key", key))
	return nil
}

// Handler processes one event. Returning an error nacks the delivery without requeue.
type Handler func(ctx context.Context, e Event) error

// Consume binds queue to the orders exchange with keys and feeds deliveries to h until ctx ends.
func (r *RabbitMQ) Consume(ctx context.Context, queue string, keys []string, h Handler) error {
	ch, err := r.conn.Channel()
	if err != nil {
		return fmt.Errorf("open consumer channel: %w", err)
	}
	defer ch.Close()

	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue %s: %w", queue, err)
	}
	for _, k := range keys {
		if err := ch.QueueBind(queue, k, OrdersExchange, false, nil); err != nil {
			return fmt.Errorf("bind %s to %s: %w", queue, k, err)
		}
	}
	if err := ch.Qos(10, 0, false); err != nil {
		return fmt.Errorf("qos: %w", err)
	}
	deliveries, err := ch.ConsumeWithContext(ctx, queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %s: %w", queue, err)
	}
	r.log.Info("consuming", zap.String("queue", queue), zap.Strings("keys", keys))

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("delivery channel closed for %s", queue)
			}
			r.handle(ctx, d, h)
		}
	}
}

func (r *RabbitMQ) handle(ctx context.Context, d amqp.Delivery, h Handler) {
	e, err := decodeEvent(d.Body)
	if err != nil {
		r.log.Warn("dropping malformed event", zap.String("routing_key", d.RoutingKey), zap.Error(err))
		_ = d.Nack(false, false)
		return
	}
	if err := h(ctx, e); err != nil {
		r.log.Error("event handler failed", zap.String("routing_key", d.RoutingKey), zap.Error(err))
		_ = d.Nack(false, false)
		return
	}
	_ = d.Ack(false)
}
