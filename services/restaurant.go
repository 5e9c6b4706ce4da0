package services

import (
	"context"
	"fmt"

	"foodscan/db"
	"foodscan/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const restaurantColumns = `id, name, description, address, phone, email, image_url, is_active, created_at, updated_at`

func scanRestaurant(row pgx.Row) (models.Restaurant, error) {
	var r models.Restaurant
	err := row.Scan(&r.ID, &r.Name, &r.Description, &r.Address, &r.Phone, &r.Email, &r.ImageURL,
		&r.IsActive, &r.CreatedAt, &r.UpdatedAt)
	return r, err
}

func ListRestaurants(ctx context.Context) ([]models.Restaurant, error) {
	rows, err := db.Pool.Query(ctx, `SELECT `+restaurantColumns+` FROM restaurants ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list restaurants: %w", err)
	}
	defer rows.Close()

	out := []models.Restaurant{}
	for rows.Next() {
		r, err := scanRestaurant(rows)
		if err != nil {
			return nil, fmt.Errorf("scan restaurant: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func GetRestaurant(ctx context.Context, id string) (models.Restaurant, error) {
	r, err := scanRestaurant(db.Pool.QueryRow(ctx, `SELECT `+restaurantColumns+` FROM restaurants WHERE id = $1`, id))
	if err != nil {
		return models.Restaurant{}, notFound(err, "get restaurant "+id)
	}
	return r, nil
}

func CreateRestaurant(ctx context.Context, req models.CreateRestaurantRequest) (models.Restaurant, error) {
	r, err := scanRestaurant(db.Pool.QueryRow(ctx, `
		INSERT INTO restaurants (id, name, description, address, phone, email, image_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+restaurantColumns,
		uuid.NewString(), req.Name, req.Description, req.Address, req.Phone, req.Email, req.ImageURL,
	))
	if err != nil {
		return models.Restaurant{}, fmt.Errorf("create restaurant: %w", err)
	}
	return r, nil
}

func UpdateRestaurant(ctx context.Context, id string, req models.CreateRestaurantRequest) (models.Restaurant, error) {
	r, err := scanRestaurant(db.Pool.QueryRow(ctx, `
		UPDATE restaurants SET
			name = $2, description = $3, address = $4, phone = $5, email = $6, image_url = $7,
			updated_at = now()
		WHERE id = $1
		RETURNING `+restaurantColumns,
		id, req.Name, req.Description, req.Address, req.Phone, req.Email, req.ImageURL,
	))
	if err != nil {
		return models.Restaurant{}, notFound(err, "update restaurant "+id)
	}
	return r, nil
}

func DeleteRestaurant(ctx context.Context, id string) error {
	tag, err := db.Pool.Exec(ctx, `DELETE FROM restaurants WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete restaurant: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete restaurant %s: %w", id, ErrNotFound)
	}
	return nil
}
