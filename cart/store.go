// Package cart holds the customer's pending order: an ordered list of menu items with
// quantities, persisted to a durable slot after every change.
package cart

import (
	"context"

	"foodscan/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Namespace prefixes every durable slot key.
const Namespace = "foodscan-cart"

// Line is one menu item plus the quantity the customer intends to order. Quantity is always >= 1.
type Line struct {
	Item     models.MenuItem
	Quantity int
}

// Subtotal is price * quantity for the line.
func (l Line) Subtotal() decimal.Decimal {
	return l.Item.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Store is the authoritative view of one customer's cart.
// A Store is not safe for concurrent use; Registry serializes access per session.
type Store struct {
	lines []Line
	slot  Slot
	sink  Sink
	log   *zap.Logger
}

// Open builds a store hydrated from slot. A read or decode failure is logged and the store
// starts empty. A nil sink saves inline on the caller's goroutine.
func Open(ctx context.Context, slot Slot, sink Sink, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	if sink == nil {
		sink = InlineSink{Log: log}
	}
	s := &Store{slot: slot, sink: sink, log: log}

	data, err := slot.Load(ctx)
	if err != nil {
		log.Warn("cart load failed, starting empty", zap.String("slot", slot.Key()), zap.Error(err))
		return s
	}
	if len(data) == 0 {
		return s
	}
	lines, err := Decode(data)
	if err != nil {
		log.Warn("cart decode failed, starting empty", zap.String("slot", slot.Key()), zap.Error(err))
		return s
	}
	s.lines = lines
	return s
}

// Add applies delta to the line for item. A line whose quantity would drop to zero or below is
// removed; a missing line is only created for a positive delta. Quantities saturate at
// models.MaxLineQuantity.
func (s *Store) Add(item models.MenuItem, delta int) {
	delta = max(-models.MaxLineQuantity, min(delta, models.MaxLineQuantity))
	if i := s.index(item.ID); i >= 0 {
		if delta == 0 {
			return
		}
		q := s.lines[i].Quantity + delta
		if q <= 0 {
			s.lines = append(s.lines[:i], s.lines[i+1:]...)
		} else {
			s.lines[i].Quantity = min(q, models.MaxLineQuantity)
		}
		s.persist()
		return
	}
	if delta <= 0 {
		return
	}
	s.lines = append(s.lines, Line{Item: item, Quantity: delta})
	s.persist()
}

// Remove drops the line for itemID if present.
func (s *Store) Remove(itemID string) {
	i := s.index(itemID)
	if i < 0 {
		return
	}
	s.lines = append(s.lines[:i], s.lines[i+1:]...)
	s.persist()
}

// Clear empties the cart.
func (s *Store) Clear() {
	s.lines = nil
	s.persist()
}

// TotalItems is the sum of all line quantities.
func (s *Store) TotalItems() int {
	n := 0
	for _, l := range s.lines {
		n += l.Quantity
	}
	return n
}

// TotalPrice is the sum of price * quantity over all lines, unrounded.
func (s *Store) TotalPrice() decimal.Decimal {
	total := decimal.Zero
	for _, l := range s.lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

// Lines returns a copy of the lines in insertion order.
func (s *Store) Lines() []Line {
	out := make([]Line, len(s.lines))
	copy(out, s.lines)
	return out
}

// Empty reports whether the cart has no lines.
func (s *Store) Empty() bool {
	return len(s.lines) == 0
}

// RestaurantID is the restaurant of the first line, empty for an empty cart.
func (s *Store) RestaurantID() string {
	if len(s.lines) == 0 {
		return ""
	}
	return s.lines[0].Item.RestaurantID
}

// Quantity returns the quantity held for itemID, 0 when absent.
func (s *Store) Quantity(itemID string) int {
	if i := s.index(itemID); i >= 0 {
		return s.lines[i].Quantity
	}
	return 0
}

func (s *Store) index(itemID string) int {
	for i := range s.lines {
		if s.lines[i].Item.ID == itemID {
			return i
		}
	}
	return -1
}

func (s *Store) persist() {
	data, err := Encode(s.lines)
	if err != nil {
		s.log.Error("cart encode failed", zap.String("slot", s.slot.Key()), zap.Error(err))
		return
	}
	s.sink.Submit(s.slot, data)
}
