package services

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"foodscan/db"
	"foodscan/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const startPayloadPrefix = "t_"

// BotDeepLink returns the t.me link that opens the bot on a restaurant table.
// Telegram limits start payloads to [A-Za-z0-9_-], so ids are expected to be uuids or slugs.
func BotDeepLink(botUsername, restaurantID, tableNumber string) string {
	if botUsername == "" {
		return ""
	}
	return "https://t.me/" + botUsername + "?start=" + StartPayload(restaurantID, tableNumber)
}

// StartPayload encodes restaurant and table as t_<restaurant>_<table>.
func StartPayload(restaurantID, tableNumber string) string {
	p := startPayloadPrefix + restaurantID
	if tableNumber != "" {
		p += "_" + tableNumber
	}
	return p
}

// ParseStartPayload reverses StartPayload. The table is whatever follows the last underscore,
// which keeps restaurant ids containing dashes intact.
func ParseStartPayload(payload string) (restaurantID, tableNumber string, ok bool) {
	rest, found := strings.CutPrefix(strings.TrimSpace(payload), startPayloadPrefix)
	if !found || rest == "" {
		return "", "", false
	}
	i := strings.LastIndexByte(rest, '_')
	if i < 0 {
		return rest, "", true
	}
	if i == 0 {
		return "", "", false
	}
	return rest[:i], rest[i+1:], true
}

// MenuURL is the web menu a QR code points at.
func MenuURL(publicURL, restaurantID, tableNumber string) string {
	u := strings.TrimRight(publicURL, "/") + "/menu/" + url.PathEscape(restaurantID)
	if tableNumber != "" {
		u += "?table=" + url.QueryEscape(tableNumber)
	}
	return u
}

func scanTable(row pgx.Row) (models.Table, error) {
	var t models.Table
	err := row.Scan(&t.ID, &t.RestaurantID, &t.Number, &t.Seats, &t.Status)
	return t, err
}

func ListTables(ctx context.Context, restaurantID string) ([]models.Table, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT id, restaurant_id, number, seats, status FROM restaurant_tables
		WHERE restaurant_id = $1
		ORDER BY length(number), number`,
		restaurantID,
	)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer rows.Close()

	out := []models.Table{}
	for rows.Next() {
		t, err := scanTable(rows)
		if err != nil {
			return nil, fmt.Errorf("scan table: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func CreateTable(ctx context.Context, restaurantID string, req models.CreateTableRequest) (models.Table, error) {
	t, err := scanTable(db.Pool.QueryRow(ctx, `
		INSERT INTO restaurant_tables (restaurant_id, number, seats)
		VALUES ($1, $2, $3)
		RETURNING id, restaurant_id, number, seats, status`,
		restaurantID, req.Number, req.Seats,
	))
	if err != nil {
		return models.Table{}, fmt.Errorf("create table: %w", err)
	}
	return t, nil
}

func DeleteTable(ctx context.Context, restaurantID string, tableID int64) error {
	tag, err := db.Pool.Exec(ctx, `DELETE FROM restaurant_tables WHERE id = $1 AND restaurant_id = $2`, tableID, restaurantID)
	if err != nil {
		return fmt.Errorf("delete table: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete table %d: %w", tableID, ErrNotFound)
	}
	return nil
}

// ToggleTable flips available <-> occupied. A reserved table becomes available.
func ToggleTable(ctx context.Context, restaurantID string, tableID int64) (models.Table, error) {
	t, err := scanTable(db.Pool.QueryRow(ctx, `
		UPDATE restaurant_tables SET status = CASE status WHEN 'available' THEN 'occupied' ELSE 'available' END
		WHERE id = $1 AND restaurant_id = $2
		RETURNING id, restaurant_id, number, seats, status`,
		tableID, restaurantID,
	))
	if err != nil {
		return models.Table{}, notFound(err, fmt.Sprintf("toggle table %d", tableID))
	}
	return t, nil
}

const qrColumns = `id, restaurant_id, table_number, qr_code_url, bot_url, is_active, scanned_count, created_at, updated_at`

func scanQRCode(row pgx.Row) (models.QRCode, error) {
	var q models.QRCode
	err := row.Scan(&q.ID, &q.RestaurantID, &q.TableNumber, &q.QRCodeURL, &q.BotURL, &q.IsActive,
		&q.ScannedCount, &q.CreatedAt, &q.UpdatedAt)
	return q, err
}

// GenerateQRCode stores a QR code for the restaurant (and table, if given). The encoded URL is
// the web menu; the bot deep link is returned alongside when a bot username is configured.
func GenerateQRCode(ctx context.Context, req models.GenerateQRRequest, publicURL, botUsername string) (models.QRCode, error) {
	if _, err := GetRestaurant(ctx, req.RestaurantID); err != nil {
		return models.QRCode{}, err
	}
	q, err := scanQRCode(db.Pool.QueryRow(ctx, `
		INSERT INTO qr_codes (id, restaurant_id, table_number, qr_code_url, bot_url)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+qrColumns,
		uuid.NewString(), req.RestaurantID, req.TableNumber,
		MenuURL(publicURL, req.RestaurantID, req.TableNumber),
		BotDeepLink(botUsername, req.RestaurantID, req.TableNumber),
	))
	if err != nil {
		return models.QRCode{}, fmt.Errorf("generate qr code: %w", err)
	}
	return q, nil
}

// ScanQRCode returns the code and counts the scan.
func ScanQRCode(ctx context.Context, id string) (models.QRCode, error) {
	q, err := scanQRCode(db.Pool.QueryRow(ctx, `
		UPDATE qr_codes SET scanned_count = scanned_count + 1, updated_at = now()
		WHERE id = $1 AND is_active
		RETURNING `+qrColumns,
		id,
	))
	if err != nil {
		return models.QRCode{}, notFound(err, "scan qr code "+id)
	}
	return q, nil
}
