package services

import (
	"context"
	"encoding/json"
	"fmt"

	"foodscan/db"
	"foodscan/models"
)

const outboundRole = "system/outbound"

// SaveOutboundMessage persists an outbound system message (e.g. order status notify).
func SaveOutboundMessage(ctx context.Context, chatID int64, content string, meta map[string]any) error {
	metaJSON := "{}"
	if len(meta) > 0 {
		b, err := json.Marshal(meta)
		if err != nil {
			return fmt.Errorf("marshal meta: %w", err)
		}
		metaJSON = string(b)
	}
	_, err := db.Pool.Exec(ctx, `
		INSERT INTO messages (chat_id, role, content, meta)
		VALUES ($1, $2, $3, $4::jsonb)`,
		chatID, outboundRole, content, metaJSON,
	)
	if err != nil {
		return fmt.Errorf("save outbound message: %w", err)
	}
	return nil
}

// StatusNotifySentRecently reports whether the same order/status notification went out in the
// last 30 seconds. Broker redeliveries and button double-taps both land here.
func StatusNotifySentRecently(ctx context.Context, orderID string, status models.OrderStatus) (bool, error) {
	var count int
	err := db.Pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM messages
		WHERE role = $1 AND meta->>'sent_via' = 'order_status_notify'
		  AND meta->>'order_id' = $2 AND meta->>'status' = $3
		  AND created_at > now() - interval '30 seconds'`,
		outboundRole, orderID, string(status),
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("status notify lookup: %w", err)
	}
	return count > 0, nil
}
