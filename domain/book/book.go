package book

import (
	"errors"
	"fmt"

	"github.com/huandu/skiplist"
)

var (
	// ErrOrderNotFound reports an order id this book never issued.
	ErrOrderNotFound = errors.New("order not found")

	// ErrInvalidArgument reports a submission the engine refuses to
	// run: non-positive price or quantity, or an unknown side.
	ErrInvalidArgument = errors.New("invalid argument")
)

// IDSource issues process-unique, monotonically increasing order ids.
type IDSource interface {
	Next() uint64
}

// Trade is one fill produced by a match: the resting maker order was
// executed against the incoming taker order at the maker's price.
type Trade struct {
	Symbol  string `json:"symbol"`
	MakerID uint64 `json:"maker_id"`
	TakerID uint64 `json:"taker_id"`
	Price   int64  `json:"price"`
	Qty     int64  `json:"qty"`
}

// Book is the limit order book for a single instrument.
//
// It is single-writer and deterministic: no internal locking, no
// goroutines. Hosts that take writes concurrently must serialize
// above it (see service.OrderService).
type Book struct {
	symbol string

	bids *skiplist.SkipList // best bid first (highest price at Front)
	asks *skiplist.SkipList // best ask first (lowest price at Front)

	// orders covers every order ever submitted to this book, resting
	// or not. Entries are never removed; status lookups must work for
	// filled and cancelled orders for the life of the process.
	orders map[uint64]*Order

	ids IDSource
}

func New(symbol string, ids IDSource) *Book {
	return &Book{
		symbol: symbol,
		bids:   skiplist.New(bidComparator{}),
		asks:   skiplist.New(askComparator{}),
		orders: make(map[uint64]*Order),
		ids:    ids,
	}
}

func (b *Book) Symbol() string {
	return b.symbol
}

// Submit matches the incoming order against resting contra liquidity
// under price-time priority, rests any unfilled remainder, and returns
// the new order's id together with the fills it produced.
//
// An id is assigned even when the order fills completely: it never
// enters a level queue, but it stays queryable by Status. Validation
// happens before any state is touched, so a rejected submission leaves
// the book exactly as it was.
func (b *Book) Submit(side Side, price, qty int64) (uint64, []Trade, error) {
	if side != Bid && side != Ask {
		return 0, nil, fmt.Errorf("submit: side %d: %w", side, ErrInvalidArgument)
	}
	if price <= 0 {
		return 0, nil, fmt.Errorf("submit: price %d: %w", price, ErrInvalidArgument)
	}
	if qty <= 0 {
		return 0, nil, fmt.Errorf("submit: qty %d: %w", qty, ErrInvalidArgument)
	}

	remaining, trades := b.match(side, price, qty)

	o := &Order{
		ID:           b.ids.Next(),
		Side:         side,
		Price:        price,
		OriginalQty:  qty,
		RemainingQty: remaining,
	}
	b.orders[o.ID] = o
	for i := range trades {
		trades[i].TakerID = o.ID
	}

	if remaining > 0 {
		b.levelFor(side, price).Enqueue(o)
	}
	return o.ID, trades, nil
}

// match drains the contra side from the best price inward and returns
// the unfilled remainder. Within a level the queue is strict FIFO;
// cancelled entries found at the head are discarded without quantity
// effect. A level whose queue empties is removed from the index so
// best-price lookups never land on an exhausted level.
func (b *Book) match(side Side, limit, qty int64) (int64, []Trade) {
	contra := b.asks
	if side == Ask {
		contra = b.bids
	}

	var trades []Trade
	for qty > 0 && contra.Len() > 0 {
		elem := contra.Front()
		level := elem.Value.(*PriceLevel)

		if side == Bid && level.Price > limit {
			break
		}
		if side == Ask && level.Price < limit {
			break
		}

		for qty > 0 {
			head := level.Head()
			if head == nil {
				break
			}
			switch {
			case head.Cancelled:
				// lazy-cancellation cleanup point
				level.PopHead()
			case qty >= head.RemainingQty:
				trades = append(trades, Trade{
					Symbol:  b.symbol,
					MakerID: head.ID,
					Price:   level.Price,
					Qty:     head.RemainingQty,
				})
				qty -= head.RemainingQty
				head.RemainingQty = 0
				level.PopHead()
			default:
				trades = append(trades, Trade{
					Symbol:  b.symbol,
					MakerID: head.ID,
					Price:   level.Price,
					Qty:     qty,
				})
				head.RemainingQty -= qty
				qty = 0
			}
		}

		if level.Empty() {
			contra.RemoveElement(elem)
		}
	}
	return qty, trades
}

// Cancel flags the order as cancelled and returns its state at that
// moment. The order is not unlinked from its level queue; the next
// match scan that reaches it discards it. Cancelling an already
// cancelled or fully filled order is a no-op beyond the flag.
func (b *Book) Cancel(id uint64) (Snapshot, error) {
	o, ok := b.orders[id]
	if !ok {
		return Snapshot{}, fmt.Errorf("cancel order %d: %w", id, ErrOrderNotFound)
	}
	o.Cancelled = true
	return o.Snapshot(), nil
}

// Status returns a detached copy of the order's current state.
func (b *Book) Status(id uint64) (Snapshot, error) {
	o, ok := b.orders[id]
	if !ok {
		return Snapshot{}, fmt.Errorf("order status %d: %w", id, ErrOrderNotFound)
	}
	return o.Snapshot(), nil
}

func (b *Book) levelFor(side Side, price int64) *PriceLevel {
	index := b.bids
	if side == Ask {
		index = b.asks
	}
	if elem := index.Get(price); elem != nil {
		return elem.Value.(*PriceLevel)
	}
	level := &PriceLevel{Price: price}
	index.Set(price, level)
	return level
}

// DepthLevel is one aggregated book level: total live resting quantity
// at a price.
type DepthLevel struct {
	Price int64 `json:"price"`
	Qty   int64 `json:"qty"`
}

// Depth aggregates visible liquidity per price, best first on each
// side. Cancelled-but-still-queued orders do not contribute.
type Depth struct {
	Symbol string       `json:"symbol"`
	Bids   []DepthLevel `json:"bids"`
	Asks   []DepthLevel `json:"asks"`
}

func (b *Book) Depth() Depth {
	d := Depth{Symbol: b.symbol}
	for elem := b.bids.Front(); elem != nil; elem = elem.Next() {
		level := elem.Value.(*PriceLevel)
		if qty := level.VisibleQty(); qty > 0 {
			d.Bids = append(d.Bids, DepthLevel{Price: level.Price, Qty: qty})
		}
	}
	for elem := b.asks.Front(); elem != nil; elem = elem.Next() {
		level := elem.Value.(*PriceLevel)
		if qty := level.VisibleQty(); qty > 0 {
			d.Asks = append(d.Asks, DepthLevel{Price: level.Price, Qty: qty})
		}
	}
	return d
}

// ---- skiplist price ordering ----
//
// Both sides keep their best price at Front: bids order descending,
// asks ascending. CalcScore must agree with Compare, hence the
// negated score on the bid side.

type bidComparator struct{}

func (bidComparator) Compare(l, r interface{}) int {
	lp, rp := l.(int64), r.(int64)
	if lp > rp {
		return -1
	}
	if lp < rp {
		return 1
	}
	return 0
}

func (bidComparator) CalcScore(key interface{}) float64 {
	return -float64(key.(int64))
}

type askComparator struct{}

func (askComparator) Compare(l, r interface{}) int {
	lp, rp := l.(int64), r.(int64)
	if lp < rp {
		return -1
	}
	if lp > rp {
		return 1
	}
	return 0
}

func (askComparator) CalcScore(key interface{}) float64 {
	return float64(key.(int64))
}
