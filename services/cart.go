package services

import (
	"context"
	"errors"
	"fmt"

	"foodscan/cart"
	"foodscan/db"

	"github.com/jackc/pgx/v5"
)

// CartSlots stores cart snapshots in the carts table, one row per slot key.
type CartSlots struct{}

func (CartSlots) Slot(session string) cart.Slot {
	return pgCartSlot{key: cart.SlotKey(session)}
}

type pgCartSlot struct {
	key string
}

func (s pgCartSlot) Key() string { return s.key }

func (s pgCartSlot) Load(ctx context.Context) ([]byte, error) {
	var items []byte
	err := db.Pool.QueryRow(ctx, `SELECT items FROM carts WHERE slot_key = $1`, s.key).Scan(&items)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("load cart %s: %w", s.key, err)
	}
	return items, nil
}

func (s pgCartSlot) Save(ctx context.Context, data []byte) error {
	_, err := db.Pool.Exec(ctx, `
		INSERT INTO carts (slot_key, items, updated_at)
		VALUES ($1, $2::jsonb, now())
		ON CONFLICT (slot_key) DO UPDATE SET
			items = EXCLUDED.items,
			updated_at = now()`,
		s.key, string(data),
	)
	if err != nil {
		return fmt.Errorf("save cart %s: %w", s.key, err)
	}
	return nil
}

// DeleteStaleCarts drops snapshots untouched for olderThanHours.
func DeleteStaleCarts(ctx context.Context, olderThanHours int) (int64, error) {
	tag, err := db.Pool.Exec(ctx, `
		DELETE FROM carts WHERE updated_at < now() - make_interval(hours => $1)`,
		olderThanHours,
	)
	if err != nil {
		return 0, fmt.Errorf("delete stale carts: %w", err)
	}
	return tag.RowsAffected(), nil
}
