package book

import "fmt"

type Side int

const (
	Bid Side = iota
	Ask
)

func (s Side) String() string {
	if s == Ask {
		return "sell"
	}
	return "buy"
}

// ParseSide maps the wire spelling of a side onto its domain value.
func ParseSide(s string) (Side, error) {
	switch s {
	case "buy":
		return Bid, nil
	case "sell":
		return Ask, nil
	default:
		return 0, fmt.Errorf("parse side %q: %w", s, ErrInvalidArgument)
	}
}

// Order is a pure domain entity. Identity (ID, Side, Price, OriginalQty)
// is immutable after creation; only RemainingQty and Cancelled change,
// and only the owning Book changes them.
type Order struct {
	ID          uint64
	Side        Side
	Price       int64
	OriginalQty int64

	// RemainingQty decreases monotonically toward zero as the order
	// is matched. Never negative.
	RemainingQty int64

	// Cancelled is one-way: once set it never reverts. A cancelled
	// order stays in its level queue until a match scan reaches it.
	Cancelled bool

	next *Order
	prev *Order
}

func (o *Order) Resting() bool {
	return !o.Cancelled && o.RemainingQty > 0
}

// Read-only traversal helper
func (o *Order) Next() *Order {
	return o.next
}

// Snapshot is a detached value copy of an order's state. Callers may
// mutate it freely without touching book-owned state.
type Snapshot struct {
	ID           uint64
	Side         Side
	Price        int64
	OriginalQty  int64
	RemainingQty int64
	Cancelled    bool
}

func (o *Order) Snapshot() Snapshot {
	return Snapshot{
		ID:           o.ID,
		Side:         o.Side,
		Price:        o.Price,
		OriginalQty:  o.OriginalQty,
		RemainingQty: o.RemainingQty,
		Cancelled:    o.Cancelled,
	}
}
