package book

// PriceLevel is a FIFO queue of resting orders at a single price.
// Cancelled orders are not unlinked here; the matching scan discards
// them when it reaches the head (lazy cancellation).
type PriceLevel struct {
	Price int64

	head *Order
	tail *Order
}

func (p *PriceLevel) Enqueue(o *Order) {
	if p.head == nil {
		p.head = o
		p.tail = o
	} else {
		p.tail.next = o
		o.prev = p.tail
		p.tail = o
	}
}

func (p *PriceLevel) PopHead() *Order {
	o := p.head
	if o == nil {
		return nil
	}

	p.head = o.next
	if p.head != nil {
		p.head.prev = nil
	} else {
		p.tail = nil
	}

	o.next = nil
	o.prev = nil

	return o
}

func (p *PriceLevel) Empty() bool {
	return p.head == nil
}

// Read-only helper
func (p *PriceLevel) Head() *Order {
	return p.head
}

// VisibleQty sums the remaining quantity of live orders in the queue.
// Cancelled entries still physically present do not count.
func (p *PriceLevel) VisibleQty() int64 {
	var qty int64
	for o := p.head; o != nil; o = o.next {
		if !o.Cancelled {
			qty += o.RemainingQty
		}
	}
	return qty
}
