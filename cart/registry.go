package cart

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Flusher is implemented by sinks that buffer writes, such as Writer.
type Flusher interface {
	Flush(ctx context.Context) error
}

type session struct {
	mu       sync.Mutex
	store    *Store
	lastUsed time.Time
	evicted  bool
}

// Registry owns one Store per session key and lets a single caller at a time use it.
type Registry struct {
	slots SlotProvider
	sink  Sink
	log   *zap.Logger
	now   func() time.Time

	mu       sync.Mutex
	sessions map[string]*session
}

func NewRegistry(slots SlotProvider, sink Sink, log *zap.Logger) *Registry {
	if log == nil {
		log = zap.NewNop()
	}
	return &Registry{
		slots:    slots,
		sink:     sink,
		log:      log,
		now:      time.Now,
		sessions: make(map[string]*session),
	}
}

// With runs fn with exclusive access to the session's store, hydrating it on first use.
// The store must not be retained after fn returns.
func (r *Registry) With(ctx context.Context, key string, fn func(*Store) error) error {
	for {
		sess := r.session(key)
		sess.mu.Lock()
		if sess.evicted {
			sess.mu.Unlock()
			continue
		}
		if sess.store == nil {
			sess.store = Open(ctx, r.slots.Slot(key), r.sink, r.log.With(zap.String("session", key)))
		}
		sess.lastUsed = r.now()
		err := fn(sess.store)
		sess.mu.Unlock()
		return err
	}
}

// Sweep drops stores idle for longer than idle. Buffered writes are flushed first so a later
// hydration reads the latest snapshot.
func (r *Registry) Sweep(ctx context.Context, idle time.Duration) (int, error) {
	if f, ok := r.sink.(Flusher); ok {
		if err := f.Flush(ctx); err != nil {
			return 0, err
		}
	}
	cutoff := r.now().Add(-idle)

	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for key, sess := range r.sessions {
		if !sess.mu.TryLock() {
			continue
		}
		if sess.lastUsed.Before(cutoff) {
			sess.evicted = true
			delete(r.sessions, key)
			n++
		}
		sess.mu.Unlock()
	}
	return n, nil
}

// Len is the number of live stores.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

func (r *Registry) session(key string) *session {
	r.mu.Lock()
	defer r.mu.Unlock()
	sess, ok := r.sessions[key]
	if !ok {
		sess = &session{}
		r.sessions[key] = sess
	}
	return sess
}
