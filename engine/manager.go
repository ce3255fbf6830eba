// Package engine routes orders to per-symbol books. The manager is the
// dictionary layer above domain/book: it creates a book the first time
// a symbol is referenced and remembers which symbol owns each order id
// so cancel and status calls need only the id.
package engine

import (
	"fmt"
	"sort"

	"kestrel/domain/book"
	"kestrel/infra/sequence"
)

type Manager struct {
	ids     *sequence.Sequencer
	books   map[string]*book.Book
	symbols map[uint64]string // order id -> owning symbol
}

func NewManager() *Manager {
	return &Manager{
		ids:     sequence.New(0),
		books:   make(map[string]*book.Book),
		symbols: make(map[uint64]string),
	}
}

// Submit routes the order to the symbol's book, creating the book on
// first reference. The id->symbol mapping is recorded only for
// accepted submissions.
func (m *Manager) Submit(symbol string, side book.Side, price, qty int64) (uint64, []book.Trade, error) {
	id, trades, err := m.book(symbol).Submit(side, price, qty)
	if err != nil {
		return 0, nil, err
	}
	m.symbols[id] = symbol
	return id, trades, nil
}

func (m *Manager) Cancel(id uint64) (book.Snapshot, error) {
	b, err := m.owner(id)
	if err != nil {
		return book.Snapshot{}, err
	}
	return b.Cancel(id)
}

func (m *Manager) Status(id uint64) (book.Snapshot, error) {
	b, err := m.owner(id)
	if err != nil {
		return book.Snapshot{}, err
	}
	return b.Status(id)
}

// Depth returns the aggregated book for a symbol. An unknown symbol
// yields an empty depth rather than instantiating a book.
func (m *Manager) Depth(symbol string) book.Depth {
	if b, ok := m.books[symbol]; ok {
		return b.Depth()
	}
	return book.Depth{Symbol: symbol}
}

// Symbols lists every instrument that has received at least one
// submission, in stable order.
func (m *Manager) Symbols() []string {
	out := make([]string, 0, len(m.books))
	for s := range m.books {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

func (m *Manager) book(symbol string) *book.Book {
	b, ok := m.books[symbol]
	if !ok {
		b = book.New(symbol, m.ids)
		m.books[symbol] = b
	}
	return b
}

func (m *Manager) owner(id uint64) (*book.Book, error) {
	symbol, ok := m.symbols[id]
	if !ok {
		return nil, fmt.Errorf("order %d: %w", id, book.ErrOrderNotFound)
	}
	return m.books[symbol], nil
}
