package cart

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

const defaultWriteTimeout = 5 * time.Second

type pendingWrite struct {
	slot Slot
	data []byte
}

// Writer persists snapshots on a background goroutine. Pending snapshots for the same slot key
// are coalesced: only the latest one is written.
type Writer struct {
	log     *zap.Logger
	timeout time.Duration

	mu      sync.Mutex
	pending map[string]pendingWrite
	order   []string
	closed  bool

	wake  chan struct{}
	flush chan chan struct{}
	stop  chan struct{}
	done  chan struct{}
	once  sync.Once
}

// NewWriter starts the background goroutine. Call Close to stop it.
func NewWriter(log *zap.Logger, timeout time.Duration) *Writer {
	if log == nil {
		log = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = defaultWriteTimeout
	}
	w := &Writer{
		log:     log,
		timeout: timeout,
		pending: make(map[string]pendingWrite),
		wake:    make(chan struct{}, 1),
		flush:   make(chan chan struct{}),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go w.run()
	return w
}

// Submit queues snapshot for slot and returns immediately. After Close it saves inline.
func (w *Writer) Submit(slot Slot, snapshot []byte) {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		w.save(pendingWrite{slot: slot, data: snapshot})
		return
	}
	key := slot.Key()
	if _, ok := w.pending[key]; !ok {
		w.order = append(w.order, key)
	}
	w.pending[key] = pendingWrite{slot: slot, data: snapshot}
	w.mu.Unlock()

	select {
	case w.wake <- struct{}{}:
	default:
	}
}

// Flush blocks until everything submitted before the call has been written.
func (w *Writer) Flush(ctx context.Context) error {
	ack := make(chan struct{})
	select {
	case w.flush <- ack:
	case <-w.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-ack:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close writes whatever is pending and stops the goroutine.
func (w *Writer) Close() {
	w.once.Do(func() {
		w.mu.Lock()
		w.closed = true
		w.mu.Unlock()
		close(w.stop)
	})
	<-w.done
}

func (w *Writer) run() {
	defer close(w.done)
	for {
		select {
		case <-w.wake:
			w.drain()
		case ack := <-w.flush:
			w.drain()
			close(ack)
		case <-w.stop:
			w.drain()
			return
		}
	}
}

func (w *Writer) drain() {
	for {
		w.mu.Lock()
		if len(w.order) == 0 {
			w.mu.Unlock()
			return
		}
		batch := make([]pendingWrite, 0, len(w.order))
		for _, key := range w.order {
			batch = append(batch, w.pending[key])
		}
		w.pending = make(map[string]pendingWrite)
		w.order = nil
		w.mu.Unlock()

		for _, p := range batch {
			w.save(p)
		}
	}
}

func (w *Writer) save(p pendingWrite) {
	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()
	if err := p.slot.Save(ctx, p.data); err != nil {
		w.log.Error("cart save failed", zap.String("slot", p.slot.Key()), zap.Error(err))
	}
}
