// ABOUTME: Per-chat mailbox buffering inbound messages with a blocking read
// ABOUTME: Deliver hands off directly to a parked reader, otherwise queues FIFO

package conversation

import "sync"

// Message is a single inbound message routed to one conversation.
type Message struct {
	Text string
}

// Mailbox buffers pending messages for one chat and parks at most one reader.
// The invariant: a waiter is only installed while pending is empty, so a
// delivered message either hands off directly or lands at the back of the
// queue, never both.
type Mailbox struct {
	mu      sync.Mutex
	pending []Message
	waiter  chan Message
}

// Deliver routes one message into the mailbox. If a reader is parked in
// ReadNext, the message is handed to it directly and never touches the queue;
// otherwise it is appended in arrival order. Deliver never blocks.
func (m *Mailbox) Deliver(msg Message) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.waiter != nil {
		w := m.waiter
		m.waiter = nil
		w <- msg // cap 1, never blocks
		return
	}
	m.pending = append(m.pending, msg)
}

// ReadNext returns the oldest undelivered message, blocking until one arrives.
// There is no timeout: callers that need one wrap ReadNext themselves.
//
// At most one ReadNext may be outstanding per mailbox. A second concurrent
// call is a caller bug and panics rather than silently racing for the waiter.
func (m *Mailbox) ReadNext() Message {
	m.mu.Lock()

	if len(m.pending) > 0 {
		msg := m.pending[0]
		m.pending = m.pending[1:]
		m.mu.Unlock()
		return msg
	}

	if m.waiter != nil {
		m.mu.Unlock()
		panic("conversation: concurrent ReadNext on the same mailbox")
	}

	w := make(chan Message, 1)
	m.waiter = w
	m.mu.Unlock()

	return <-w
}

// Pending reports the number of buffered messages. Diagnostic only: the value
// may be stale by the time the caller looks at it.
func (m *Mailbox) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}
