// ABOUTME: Update poller turning the getUpdates feed into per-chat conversations
// ABOUTME: Routes each update through the mux and spawns one handler per new chat

package gateway

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/2389/booking-gateway/internal/conversation"
	"github.com/2389/booking-gateway/internal/ledger"
	"github.com/2389/booking-gateway/internal/telegram"
)

const (
	// defaultPollTimeout is the server-side long-poll window per fetch.
	defaultPollTimeout = 50 * time.Second
	// defaultRetryDelay spaces out retries after a failed fetch.
	defaultRetryDelay = 3 * time.Second
)

// UpdateSource is the inbound feed: an ordered batch of updates at or after
// the given cursor, blocking server-side up to timeout when none are pending.
type UpdateSource interface {
	GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]telegram.Update, error)
}

// MessageSender is the outbound side: fire-and-forget text to a chat.
type MessageSender interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
}

// Recorder appends transcript events. May be nil to disable recording.
type Recorder interface {
	Append(ctx context.Context, ev *ledger.Event) error
}

// Handler runs one conversation. The gateway invokes it exactly once per
// newly observed chat, on its own goroutine; it owns the blocking ReadNext
// side of the conversation from then on.
type Handler func(conv *Conversation)

// Gateway owns the poll loop and the conversation multiplexer.
type Gateway struct {
	source   UpdateSource
	sender   MessageSender
	handler  Handler
	recorder Recorder
	mux      *conversation.Mux
	logger   *slog.Logger

	// PollTimeout is the long-poll window passed to the feed. Defaults to
	// defaultPollTimeout when zero.
	PollTimeout time.Duration
	// RetryDelay is the pause after a failed fetch. Defaults to
	// defaultRetryDelay when zero.
	RetryDelay time.Duration

	offset int64
}

// New wires a gateway. recorder may be nil.
func New(source UpdateSource, sender MessageSender, handler Handler, recorder Recorder, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "gateway")
	return &Gateway{
		source:   source,
		sender:   sender,
		handler:  handler,
		recorder: recorder,
		mux:      conversation.NewMux(logger),
		logger:   logger,
	}
}

// Run polls the feed until ctx is cancelled. Fetch failures are logged and
// retried; the cursor only ever moves forward, so an update is never
// processed twice.
func (g *Gateway) Run(ctx context.Context) error {
	pollTimeout := g.PollTimeout
	if pollTimeout == 0 {
		pollTimeout = defaultPollTimeout
	}
	retryDelay := g.RetryDelay
	if retryDelay == 0 {
		retryDelay = defaultRetryDelay
	}

	g.logger.Info("update poller started", "poll_timeout", pollTimeout)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		updates, err := g.source.GetUpdates(ctx, g.offset, pollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			g.logger.Warn("fetching updates failed", "error", err, "offset", g.offset)
			select {
			case <-time.After(retryDelay):
			case <-ctx.Done():
				return ctx.Err()
			}
			continue
		}

		for _, u := range updates {
			g.dispatch(ctx, u)
			if u.UpdateID >= g.offset {
				g.offset = u.UpdateID + 1
			}
		}
	}
}

// dispatch routes one update into its chat's mailbox, spawning the handler if
// this chat was never seen before. Delivery happens before the handler spawn:
// the mailbox buffers the message, so nothing is lost and nothing blocks.
func (g *Gateway) dispatch(ctx context.Context, u telegram.Update) {
	if u.Message == nil {
		g.logger.Debug("skipping update without message", "update_id", u.UpdateID)
		return
	}

	chatID := u.Message.Chat.ID
	msg := conversation.Message{Text: u.Message.Text}

	box, created := g.mux.GetOrCreate(chatID)
	box.Deliver(msg)
	g.record(ctx, chatID, ledger.DirectionIn, u.Message.Text)

	if created {
		g.logger.Info("new conversation", "chat_id", chatID)
		conv := &Conversation{
			chatID:   chatID,
			box:      box,
			sender:   g.sender,
			recorder: g.recorder,
			logger:   g.logger,
		}
		go g.handler(conv)
	}
}

// record appends a transcript event, best effort.
func (g *Gateway) record(ctx context.Context, chatID int64, direction, text string) {
	if g.recorder == nil {
		return
	}
	ev := &ledger.Event{
		ID:        uuid.New().String(),
		ChatID:    chatID,
		Direction: direction,
		Text:      text,
		CreatedAt: time.Now().UTC(),
	}
	if err := g.recorder.Append(ctx, ev); err != nil {
		g.logger.Error("recording transcript event failed", "error", err, "chat_id", chatID)
	}
}
