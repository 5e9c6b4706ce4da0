package broker

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"foodscan/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoutingKey(t *testing.T) {
	tests := []struct {
		name string
		e    Event
		want string
	}{
		{"created", Event{Type: EventOrderCreated}, "order.created"},
		{"ready", Event{Type: EventStatusChanged, Change: &models.StatusChange{NewStatus: models.StatusReady}}, "order.status.READY"},
		{"cancelled", Event{Type: EventStatusChanged, Change: &models.StatusChange{NewStatus: models.StatusCancelled}}, "order.status.CANCELLED"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.e.RoutingKey())
		})
	}
}

func TestDecodeEvent(t *testing.T) {
	in := Event{
		Type:       EventStatusChanged,
		Change:     &models.StatusChange{OrderID: "o1", OldStatus: models.StatusPending, NewStatus: models.StatusConfirmed},
		OccurredAt: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
	}
	body, err := json.Marshal(in)
	require.NoError(t, err)

	got, err := decodeEvent(body)
	require.NoError(t, err)
	assert.Equal(t, "o1", got.Change.OrderID)
	assert.Equal(t, models.StatusConfirmed, got.Change.NewStatus)

	_, err = decodeEvent([]byte(`{"type":"mystery"}`))
	assert.Error(t, err)
	_, err = decodeEvent([]byte(`nope`))
	assert.Error(t, err)
}

func TestRecorder(t *testing.T) {
	var r Recorder
	ctx := context.Background()
	require.NoError(t, r.PublishOrderCreated(ctx, models.Order{ID: "o1"}))
	require.NoError(t, r.PublishStatusChanged(ctx, models.StatusChange{OrderID: "o1", NewStatus: models.StatusReady}))

	events := r.Snapshot()
	require.Len(t, events, 2)
	assert.Equal(t, "order.created", events[0].RoutingKey())
	assert.Equal(t, "order.status.READY", events[1].RoutingKey())
}
