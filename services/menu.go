package services

import (
	"context"
	"fmt"
	"strings"

	"foodscan/db"
	"foodscan/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const menuColumns = `
	id, restaurant_id, name, description, price, category, image_url,
	available, preparation_time, allergens, created_at, updated_at`

var menuSortColumns = map[string]string{
	models.SortByName:      "name",
	models.SortByPrice:     "price",
	models.SortByCategory:  "category",
	models.SortByCreatedAt: "created_at",
}

// menuQuery builds the listing SQL for f. Unknown sort fields fall back to category, name.
func menuQuery(restaurantID string, f models.MenuFilter) (string, []any) {
	var b strings.Builder
	args := []any{restaurantID}
	b.WriteString(`SELECT ` + menuColumns + ` FROM menu_items WHERE restaurant_id = $1`)

	if f.Category != "" && !strings.EqualFold(f.Category, "all") {
		args = append(args, f.Category)
		fmt.Fprintf(&b, " AND category = $%d", len(args))
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		args = append(args, "%"+s+"%")
		fmt.Fprintf(&b, " AND (name ILIKE $%d OR description ILIKE $%d)", len(args), len(args))
	}
	if f.Available != nil {
		args = append(args, *f.Available)
		fmt.Fprintf(&b, " AND available = $%d", len(args))
	}
	if f.MinPrice != nil {
		args = append(args, *f.MinPrice)
		fmt.Fprintf(&b, " AND price >= $%d::numeric", len(args))
	}
	if f.MaxPrice != nil {
		args = append(args, *f.MaxPrice)
		fmt.Fprintf(&b, " AND price <= $%d::numeric", len(args))
	}

	if col, ok := menuSortColumns[f.SortField]; ok {
		dir := "ASC"
		if f.SortDesc {
			dir = "DESC"
		}
		fmt.Fprintf(&b, " ORDER BY %s %s, id", col, dir)
	} else {
		b.WriteString(" ORDER BY category, name, id")
	}
	return b.String(), args
}

func scanMenuItem(row pgx.Row) (models.MenuItem, error) {
	var m models.MenuItem
	err := row.Scan(
		&m.ID, &m.RestaurantID, &m.Name, &m.Description, &m.Price, &m.Category, &m.ImageURL,
		&m.Available, &m.PreparationTime, &m.Allergens, &m.CreatedAt, &m.UpdatedAt,
	)
	return m, err
}

func ListMenu(ctx context.Context, restaurantID string, f models.MenuFilter) ([]models.MenuItem, error) {
	sql, args := menuQuery(restaurantID, f)
	rows, err := db.Pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list menu: %w", err)
	}
	defer rows.Close()

	items := []models.MenuItem{}
	for rows.Next() {
		m, err := scanMenuItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan menu item: %w", err)
		}
		items = append(items, m)
	}
	return items, rows.Err()
}

// ListCategories returns the distinct categories that have at least one available item.
func ListCategories(ctx context.Context, restaurantID string) ([]string, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT DISTINCT category FROM menu_items
		WHERE restaurant_id = $1 AND available
		ORDER BY category`,
		restaurantID,
	)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var cats []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		cats = append(cats, c)
	}
	return cats, rows.Err()
}

func GetMenuItem(ctx context.Context, id string) (models.MenuItem, error) {
	m, err := scanMenuItem(db.Pool.QueryRow(ctx, `SELECT `+menuColumns+` FROM menu_items WHERE id = $1`, id))
	if err != nil {
		return models.MenuItem{}, notFound(err, "get menu item "+id)
	}
	return m, nil
}

func CreateMenuItem(ctx context.Context, restaurantID string, req models.CreateMenuItemRequest) (models.MenuItem, error) {
	available := true
	if req.Available != nil {
		available = *req.Available
	}
	allergens := req.Allergens
	if allergens == nil {
		allergens = []string{}
	}
	m, err := scanMenuItem(db.Pool.QueryRow(ctx, `
		INSERT INTO menu_items (
			id, restaurant_id, name, description, price, category, image_url,
			available, preparation_time, allergens
		) VALUES ($1, $2, $3, $4, $5::numeric, $6, $7, $8, $9, $10)
		RETURNING `+menuColumns,
		uuid.NewString(), restaurantID, req.Name, req.Description, req.Price, req.Category, req.ImageURL,
		available, req.PreparationTime, allergens,
	))
	if err != nil {
		return models.MenuItem{}, fmt.Errorf("create menu item: %w", err)
	}
	return m, nil
}

func UpdateMenuItem(ctx context.Context, id string, req models.CreateMenuItemRequest) (models.MenuItem, error) {
	allergens := req.Allergens
	if allergens == nil {
		allergens = []string{}
	}
	m, err := scanMenuItem(db.Pool.QueryRow(ctx, `
		UPDATE menu_items SET
			name = $2, description = $3, price = $4::numeric, category = $5, image_url = $6,
			available = COALESCE($7, available), preparation_time = $8, allergens = $9,
			updated_at = now()
		WHERE id = $1
		RETURNING `+menuColumns,
		id, req.Name, req.Description, req.Price, req.Category, req.ImageURL,
		req.Available, req.PreparationTime, allergens,
	))
	if err != nil {
		return models.MenuItem{}, notFound(err, "update menu item "+id)
	}
	return m, nil
}

func SetMenuItemAvailability(ctx context.Context, id string, available bool) (models.MenuItem, error) {
	m, err := scanMenuItem(db.Pool.QueryRow(ctx, `
		UPDATE menu_items SET available = $2, updated_at = now()
		WHERE id = $1
		RETURNING `+menuColumns,
		id, available,
	))
	if err != nil {
		return models.MenuItem{}, notFound(err, "set availability "+id)
	}
	return m, nil
}

func DeleteMenuItem(ctx context.Context, id string) error {
	tag, err := db.Pool.Exec(ctx, `DELETE FROM menu_items WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete menu item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete menu item %s: %w", id, ErrNotFound)
	}
	return nil
}
