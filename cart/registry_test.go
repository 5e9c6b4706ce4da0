package cart

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestRegistryReusesStore(t *testing.T) {
	r := NewRegistry(NewMemorySlots(), nil, nil)
	ctx := context.Background()

	require.NoError(t, r.With(ctx, "t1", func(s *Store) error {
		s.Add(item("a", "1"), 1)
		return nil
	}))
	require.NoError(t, r.With(ctx, "t1", func(s *Store) error {
		assert.Equal(t, 1, s.Quantity("a"))
		return nil
	}))
	assert.Equal(t, 1, r.Len())
}

func TestRegistryPropagatesError(t *testing.T) {
	r := NewRegistry(NewMemorySlots(), nil, nil)
	want := errors.New("nope")
	err := r.With(context.Background(), "t1", func(*Store) error { return want })
	assert.ErrorIs(t, err, want)
}

func TestRegistrySerializesSession(t *testing.T) {
	r := NewRegistry(NewMemorySlots(), nil, nil)
	ctx := context.Background()
	a := item("a", "1")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = r.With(ctx, "t1", func(s *Store) error {
				s.Add(a, 1)
				return nil
			})
		}()
	}
	wg.Wait()

	require.NoError(t, r.With(ctx, "t1", func(s *Store) error {
		assert.Equal(t, 50, s.Quantity("a"))
		return nil
	}))
}

func TestRegistrySweepRehydrates(t *testing.T) {
	defer goleak.VerifyNone(t)

	slots := NewMemorySlots()
	w := NewWriter(nil, time.Second)
	defer w.Close()
	r := NewRegistry(slots, w, nil)
	ctx := context.Background()

	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return now }

	require.NoError(t, r.With(ctx, "old", func(s *Store) error {
		s.Add(item("a", "1"), 2)
		return nil
	}))
	now = now.Add(time.Hour)
	require.NoError(t, r.With(ctx, "fresh", func(s *Store) error {
		s.Add(item("b", "1"), 1)
		return nil
	}))

	n, err := r.Sweep(ctx, 30*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, r.Len())

	require.NoError(t, r.With(ctx, "old", func(s *Store) error {
		assert.Equal(t, 2, s.Quantity("a"))
		return nil
	}))
}
