// ABOUTME: Mux maps chat IDs to mailboxes with insert-if-absent semantics
// ABOUTME: The newly-created flag drives exactly-once new-conversation dispatch

package conversation

import (
	"log/slog"
	"sync"
)

// Mux owns the chat-to-mailbox mapping. Mailboxes are created lazily on first
// reference and live for the rest of the process; the map only ever grows,
// bounded by the number of distinct chats seen.
type Mux struct {
	mu     sync.Mutex
	boxes  map[int64]*Mailbox
	logger *slog.Logger
}

// NewMux creates an empty multiplexer. Pass nil logger for the default.
func NewMux(logger *slog.Logger) *Mux {
	if logger == nil {
		logger = slog.Default()
	}
	return &Mux{
		boxes:  make(map[int64]*Mailbox),
		logger: logger.With("component", "mux"),
	}
}

// GetOrCreate returns the mailbox for chatID, creating it on first reference.
// The bool reports whether this call created it; concurrent calls for a new
// chatID agree on a single mailbox and exactly one caller sees true.
func (x *Mux) GetOrCreate(chatID int64) (*Mailbox, bool) {
	x.mu.Lock()
	defer x.mu.Unlock()

	if box, ok := x.boxes[chatID]; ok {
		return box, false
	}
	box := &Mailbox{}
	x.boxes[chatID] = box
	x.logger.Debug("mailbox created", "chat_id", chatID)
	return box, true
}

// Deliver routes a message to the mailbox for chatID, creating it if needed,
// and reports whether the mailbox was newly created.
func (x *Mux) Deliver(chatID int64, msg Message) bool {
	box, created := x.GetOrCreate(chatID)
	box.Deliver(msg)
	return created
}

// Size reports the number of chats ever seen.
func (x *Mux) Size() int {
	x.mu.Lock()
	defer x.mu.Unlock()
	return len(x.boxes)
}
