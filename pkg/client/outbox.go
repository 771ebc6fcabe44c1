package client

// Outbox is a FIFO of messages that could not be sent. It is owned by the
// session loop and not safe for concurrent use.
//
// An unbounded outbox never drops a message. A bounded outbox evicts the
// oldest message when full.
type Outbox struct {
	items    [][]byte
	capacity int // 0 means unbounded
	evicted  uint64
}

// NewOutbox creates an outbox holding at most capacity messages.
func NewOutbox(capacity int) *Outbox {
	if capacity < 0 {
		capacity = 0
	}
	return &Outbox{capacity: capacity}
}

// Push appends a message. It returns the evicted message, if any.
func (o *Outbox) Push(msg []byte) (evicted []byte) {
	if o.capacity > 0 && len(o.items) >= o.capacity {
		evicted = o.items[0]
		o.items[0] = nil
		o.items = o.items[1:]
		o.evicted++
	}
	o.items = append(o.items, msg)
	return evicted
}

// Drain removes and returns every message in order.
func (o *Outbox) Drain() [][]byte {
	items := o.items
	o.items = nil
	return items
}

// Len returns the number of buffered messages.
func (o *Outbox) Len() int {
	return len(o.items)
}

// Evicted returns how many messages were dropped because the outbox was full.
func (o *Outbox) Evicted() uint64 {
	return o.evicted
}
