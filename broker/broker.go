// Package broker publishes order events to RabbitMQ and consumes them back for the bot.
package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"foodscan/models"
)

const (
	OrdersExchange        = "orders_topic"
	NotificationsExchange = "notifications_fanout"

	KeyOrderCreated      = "order.created"
	keyStatusChangedBase = "order.status."

	EventOrderCreated  = "order_created"
	EventStatusChanged = "status_changed"
)

// StatusKey is the routing key for a move into status.
func StatusKey(status models.OrderStatus) string {
	return keyStatusChangedBase + string(status)
}

// Event is the JSON body of every message.
type Event struct {
	Type       string               `json:"type"`
	Order      *models.Order        `json:"order,omitempty"`
	Change     *models.StatusChange `json:"change,omitempty"`
	OccurredAt time.Time            `json:"occurredAt"`
}

func (e Event) RoutingKey() string {
	if e.Type == EventStatusChanged && e.Change != nil {
		return StatusKey(e.Change.NewStatus)
	}
	return KeyOrderCreated
}

func decodeEvent(body []byte) (Event, error) {
	var e Event
	if err := json.Unmarshal(body, &e); err != nil {
		return Event{}, fmt.Errorf("decode event: %w", err)
	}
	if e.Type != EventOrderCreated && e.Type != EventStatusChanged {
		return Event{}, fmt.Errorf("unknown event type %q", e.Type)
	}
	return e, nil
}

type Publisher interface {
	PublishOrderCreated(ctx context.Context, order models.Order) error
	PublishStatusChanged(ctx context.Context, change models.StatusChange) error
}

// Nop discards events. Used when RABBITMQ_URL is empty.
type Nop struct{}

func (Nop) PublishOrderCreated(context.Context, models.Order) error         { return nil }
func (Nop) PublishStatusChanged(context.Context, models.StatusChange) error { return nil }

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	Events []Event
}

func (r *Recorder) PublishOrderCreated(_ context.Context, order models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Events = append(r.Events, Event{Type: EventOrderCreated, Order: &order, OccurredAt: time.Now()})
	return nil
}

func (r *Recorder) PublishStatusChanged(_ context.Context, change models.StatusChange) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Events = append(r.Events, Event{Type: EventStatusChanged, Change: &change, OccurredAt: time.Now()})
	return nil
}

// Snapshot returns a copy of the recorded events.
func (r *Recorder) Snapshot() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.Events...)
}
