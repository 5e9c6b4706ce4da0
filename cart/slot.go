package cart

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Slot is a single durable key holding one serialized cart.
type Slot interface {
	Key() string
	// Load returns nil data and nil error when nothing is stored yet.
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, data []byte) error
}

// SlotProvider hands out the slot for a session key.
type SlotProvider interface {
	Slot(session string) Slot
}

// SlotKey builds the namespaced key for a session.
func SlotKey(session string) string {
	return Namespace + ":" + session
}

// Sink receives snapshots to persist. Submit must not report failures to the caller.
type Sink interface {
	Submit(slot Slot, snapshot []byte)
}

// InlineSink saves on the caller's goroutine and logs failures.
type InlineSink struct {
	Log *zap.Logger
}

func (s InlineSink) Submit(slot Slot, snapshot []byte) {
	if err := slot.Save(context.Background(), snapshot); err != nil && s.Log != nil {
		s.Log.Error("cart save failed", zap.String("slot", slot.Key()), zap.Error(err))
	}
}

// MemorySlots keeps snapshots in process memory. Used by tests and when no database is configured.
type MemorySlots struct {
	mu   sync.Mutex
	data map[string][]byte
}

func NewMemorySlots() *MemorySlots {
	return &MemorySlots{data: make(map[string][]byte)}
}

func (m *MemorySlots) Slot(session string) Slot {
	return &memorySlot{parent: m, key: SlotKey(session)}
}

// Raw returns a copy of what is stored for a session.
func (m *MemorySlots) Raw(session string) []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.data[SlotKey(session)]
	if !ok {
		return nil
	}
	return append([]byte(nil), b...)
}

type memorySlot struct {
	parent *MemorySlots
	key    string
}

func (s *memorySlot) Key() string { return s.key }

func (s *memorySlot) Load(context.Context) ([]byte, error) {
	s.parent.mu.Lock()
	defer s.parent.mu.Unlock()
	b, ok := s.parent.data[s.key]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), b...), nil
}

func (s *memorySlot) Save(_ context.Context, data []byte) error {
	s.parent.mu.Lock()
	defer s.parent.mu.Unlock()
	s.parent.data[s.key] = append([]byte(nil), data...)
	return nil
}
