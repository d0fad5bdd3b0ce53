package library

import (
	"github.com/nbd-wtf/go-nostr"
	"github.com/sasha-s/go-deadlock"
)

// NewEventStack returns a new Event stack (FIFO) with the given initial size.
func NewEventStack(size int) *Stack {
	if size < 1 {
		size = 1
	}
	return &Stack{
		nodes: make([]*nostr.Event, size),
		size:  size,
		mu:    &deadlock.Mutex{},
	}
}

// Stack is a FIFO stack that resizes as needed. It is safe for concurrent use.
type Stack struct {
	nodes []*nostr.Event
	size  int
	head  int
	tail  int
	count int
	mu    *deadlock.Mutex
}

// Push adds an Event to the stack.
func (q *Stack) Push(n *nostr.Event) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.head == q.tail && q.count > 0 {
		nodes := make([]*nostr.Event, len(q.nodes)+q.size)
		copy(nodes, q.nodes[q.head:])
		copy(nodes[len(q.nodes)-q.head:], q.nodes[:q.head])
		q.head = 0
		q.tail = len(q.nodes)
		q.nodes = nodes
	}
	q.nodes[q.tail] = n
	q.tail = (q.tail + 1) % len(q.nodes)
	q.count++
}

// Pop removes and returns an Event from the stack in first to last order.
func (q *Stack) Pop() (*nostr.Event, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.count == 0 {
		return nil, false
	}
	node := q.nodes[q.head]
	q.nodes[q.head] = nil
	q.head = (q.head + 1) % len(q.nodes)
	q.count--
	return node, true
}

// Len is the number of events waiting in the stack.
func (q *Stack) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.count
}

// Peek returns every waiting event in first to last order without removing them.
func (q *Stack) Peek() []nostr.Event {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]nostr.Event, 0, q.count)
	for i := 0; i < q.count; i++ {
		out = append(out, *q.nodes[(q.head+i)%len(q.nodes)])
	}
	return out
}
