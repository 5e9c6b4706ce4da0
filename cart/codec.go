package cart

import (
	"encoding/json"
	"fmt"

	"foodscan/models"
)

// wireLine flattens the menu item fields next to the quantity, so a stored cart is an array of
// {"id":..., "name":..., "price":..., ..., "quantity": n} objects.
type wireLine struct {
	models.MenuItem
	Quantity int `json:"quantity"`
}

// Encode serializes lines as the durable snapshot.
func Encode(lines []Line) ([]byte, error) {
	wire := make([]wireLine, len(lines))
	for i, l := range lines {
		wire[i] = wireLine{MenuItem: l.Item, Quantity: l.Quantity}
	}
	return json.Marshal(wire)
}

// Decode parses a snapshot. Entries without an id or with a non-positive quantity are dropped;
// a repeated id is folded into its first occurrence so the result never holds duplicates.
// Quantities are capped at models.MaxLineQuantity.
func Decode(data []byte) ([]Line, error) {
	var wire []wireLine
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("decode cart snapshot: %w", err)
	}
	lines := make([]Line, 0, len(wire))
	seen := make(map[string]int, len(wire))
	for _, w := range wire {
		if w.ID == "" || w.Quantity <= 0 {
			continue
		}
		if i, ok := seen[w.ID]; ok {
			lines[i].Quantity = min(lines[i].Quantity+min(w.Quantity, models.MaxLineQuantity), models.MaxLineQuantity)
			continue
		}
		seen[w.ID] = len(lines)
		lines = append(lines, Line{Item: w.MenuItem, Quantity: min(w.Quantity, models.MaxLineQuantity)})
	}
	return lines, nil
}
