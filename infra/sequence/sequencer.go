package sequence

import "sync/atomic"

// Sequencer issues strictly monotonic order ids. One instance is
// shared by every book in the process, so ids are process-unique
// regardless of which instrument an order lands on.
type Sequencer struct {
	next atomic.Uint64
}

// New creates a sequencer whose first issued id is start+1.
func New(start uint64) *Sequencer {
	s := &Sequencer{}
	s.next.Store(start)
	return s
}

// Next returns the next id.
func (s *Sequencer) Next() uint64 {
	return s.next.Add(1)
}

// Current returns the last issued id.
func (s *Sequencer) Current() uint64 {
	return s.next.Load()
}
