// ABOUTME: Conversation is the per-chat handle given to handler goroutines
// ABOUTME: Couples the blocking mailbox read with outbound send and transcripting

package gateway

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/2389/booking-gateway/internal/conversation"
	"github.com/2389/booking-gateway/internal/ledger"
)

// Conversation is one chat's bidirectional channel. ReadNext blocks on the
// chat's mailbox; Send goes out through the Telegram client. A handler
// goroutine is the only reader, so ReadNext calls never overlap.
type Conversation struct {
	chatID   int64
	box      *conversation.Mailbox
	sender   MessageSender
	recorder Recorder
	logger   *slog.Logger
}

// ChatID identifies the external party of this conversation.
func (c *Conversation) ChatID() int64 {
	return c.chatID
}

// ReadNext blocks until the user's next message arrives. Messages come back
// in arrival order. There is no timeout in the core contract.
func (c *Conversation) ReadNext() conversation.Message {
	return c.box.ReadNext()
}

// Send delivers text to the chat, best effort, and records it in the
// transcript. A send failure is returned but typically only logged by
// callers: the conversation carries on.
func (c *Conversation) Send(ctx context.Context, text string) error {
	if c.recorder != nil {
		ev := &ledger.Event{
			ID:        uuid.New().String(),
			ChatID:    c.chatID,
			Direction: ledger.DirectionOut,
			Text:      text,
			CreatedAt: time.Now().UTC(),
		}
		if err := c.recorder.Append(ctx, ev); err != nil {
			c.logger.Error("recording outbound event failed", "error", err, "chat_id", c.chatID)
		}
	}
	return c.sender.SendMessage(ctx, c.chatID, text)
}
