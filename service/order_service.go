package service

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"kestrel/domain/book"
	"kestrel/engine"
	"kestrel/infra/journal"
	"kestrel/infra/metrics"
	"kestrel/infra/outbox"
)

/*
OrderService is the ONLY write entry point into the system.

All coordination between:
- engine (per-symbol routing)
- domain (book)
- infra (journal, outbox)
happens here.

The domain core is single-writer by design; the mutex below is what
makes that safe under a concurrent HTTP host.
*/

type OrderService struct {
	mu sync.Mutex

	mgr     *engine.Manager
	journal *journal.Journal
	outbox  *outbox.Outbox
	log     zerolog.Logger
}

// NewOrderService wires all dependencies.
// No globals. No magic.
func NewOrderService(
	mgr *engine.Manager,
	j *journal.Journal,
	ob *outbox.Outbox,
	log zerolog.Logger,
) *OrderService {
	return &OrderService{
		mgr:     mgr,
		journal: j,
		outbox:  ob,
		log:     log,
	}
}

//
// ──────────────────────────────────────────────────────────
// Commands
// ──────────────────────────────────────────────────────────
//

type submitEvent struct {
	OrderID uint64 `json:"order_id"`
	Symbol  string `json:"symbol"`
	Side    string `json:"side"`
	Price   int64  `json:"price"`
	Qty     int64  `json:"qty"`
}

type cancelEvent struct {
	OrderID uint64 `json:"order_id"`
}

// Submit routes one limit order through matching and returns its id
// together with the fills it produced. Rejected submissions mutate
// nothing and are not journalled.
func (s *OrderService) Submit(symbol string, side book.Side, price, qty int64) (uint64, []book.Trade, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	id, trades, err := s.mgr.Submit(symbol, side, price, qty)
	if err != nil {
		metrics.OrdersRejectedTotal.Inc()
		return 0, nil, err
	}

	payload, _ := json.Marshal(submitEvent{
		OrderID: id, Symbol: symbol, Side: side.String(), Price: price, Qty: qty,
	})
	if err := s.journal.Append(journal.RecordSubmit, payload); err != nil {
		s.log.Error().Err(err).Uint64("order_id", id).Msg("journal append failed")
	}

	for _, t := range trades {
		body, _ := json.Marshal(t)
		if _, err := s.outbox.Put(body); err != nil {
			s.log.Error().Err(err).Uint64("maker_id", t.MakerID).Msg("outbox put failed")
			continue
		}
		metrics.OutboxPending.Inc()
	}

	metrics.OrdersSubmittedTotal.WithLabelValues(symbol).Inc()
	metrics.TradesMatchedTotal.WithLabelValues(symbol).Add(float64(len(trades)))
	metrics.MatchLatencyUs.Observe(float64(time.Since(start).Microseconds()))

	s.log.Debug().
		Uint64("order_id", id).
		Str("symbol", symbol).
		Stringer("side", side).
		Int64("price", price).
		Int64("qty", qty).
		Int("trades", len(trades)).
		Msg("order submitted")
	return id, trades, nil
}

// Cancel flags the order and returns its post-cancellation snapshot.
func (s *OrderService) Cancel(id uint64) (book.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.mgr.Cancel(id)
	if err != nil {
		return book.Snapshot{}, err
	}

	payload, _ := json.Marshal(cancelEvent{OrderID: id})
	if err := s.journal.Append(journal.RecordCancel, payload); err != nil {
		s.log.Error().Err(err).Uint64("order_id", id).Msg("journal append failed")
	}

	metrics.OrdersCancelledTotal.Inc()
	s.log.Debug().Uint64("order_id", id).Msg("order cancelled")
	return snap, nil
}

//
// ──────────────────────────────────────────────────────────
// Queries
// ──────────────────────────────────────────────────────────
//

// Status returns a detached snapshot of one order.
func (s *OrderService) Status(id uint64) (book.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mgr.Status(id)
}

// Depth returns the aggregated book for one symbol.
func (s *OrderService) Depth(symbol string) book.Depth {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mgr.Depth(symbol)
}

// Symbols lists instruments that have seen at least one order.
func (s *OrderService) Symbols() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mgr.Symbols()
}
