// ABOUTME: Booking dialogue driving one conversation against the reservation engine
// ABOUTME: One Run per chat: check, book and cancel flows over blocking reads

package agent

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/2389/booking-gateway/internal/conversation"
	"github.com/2389/booking-gateway/internal/schedule"
)

// payloadKeyChat is the booking payload key carrying the chat id. It is the
// lookup key for check and cancel, and is unique per conversation, which is
// what makes the engine's first-match-wins payload scan safe here.
const payloadKeyChat = "id"

// slotTimeFormat is how slot times are shown to the user.
const slotTimeFormat = "Monday 2006-01-02 15:04"

// Conversation is what the agent needs from a chat: the blocking read/send
// pair plus the chat identity. Satisfied by *gateway.Conversation.
type Conversation interface {
	ChatID() int64
	ReadNext() conversation.Message
	Send(ctx context.Context, text string) error
}

// Agent runs the booking dialogue. One Agent serves every conversation; all
// shared state lives in the engine, which serializes access itself.
type Agent struct {
	engine *schedule.Engine
	loc    *Locale
	logger *slog.Logger

	// now is stubbed in tests to pin "first available" and weekday parsing.
	now func() time.Time
}

// New creates an agent over the given engine. Pass nil locale for the
// built-in English catalog.
func New(engine *schedule.Engine, loc *Locale, logger *slog.Logger) *Agent {
	if loc == nil {
		loc = DefaultLocale()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Agent{
		engine: engine,
		loc:    loc,
		logger: logger.With("component", "agent"),
		now:    time.Now,
	}
}

// Run serves one conversation until the process exits: greet once, then
// handle one command per inbound message. Blocks on ReadNext between
// commands.
func (a *Agent) Run(ctx context.Context, conv Conversation) {
	a.send(ctx, conv, a.loc.Welcome)

	for {
		msg := conv.ReadNext()
		cmd := strings.ToLower(strings.TrimSpace(msg.Text))

		switch {
		case strings.Contains(cmd, "check"):
			a.check(ctx, conv)
		case strings.Contains(cmd, "cancel"):
			a.cancel(ctx, conv)
		case strings.Contains(cmd, "book"):
			a.book(ctx, conv)
		default:
			a.send(ctx, conv, a.loc.UnknownCommand)
		}
	}
}

// check reports the conversation's current booking, if any.
func (a *Agent) check(ctx context.Context, conv Conversation) {
	begin, found := a.engine.FindWhere(payloadKeyChat, chatKey(conv))
	if !found {
		a.send(ctx, conv, a.loc.NoBookingFound)
		return
	}
	a.send(ctx, conv, a.loc.BookingFound+begin.Format(slotTimeFormat))
}

// cancel confirms and cancels the conversation's booking.
func (a *Agent) cancel(ctx context.Context, conv Conversation) {
	begin, found := a.engine.FindWhere(payloadKeyChat, chatKey(conv))
	if !found {
		a.send(ctx, conv, a.loc.NoBookingFound)
		return
	}

	a.send(ctx, conv, a.loc.ConfirmCancel+begin.Format(slotTimeFormat))
	reply := strings.ToLower(strings.TrimSpace(conv.ReadNext().Text))
	if reply != "yes" {
		a.send(ctx, conv, a.loc.CancelAborted)
		return
	}

	ok, err := a.engine.CancelWhere(payloadKeyChat, chatKey(conv))
	if err != nil {
		a.logger.Error("cancellation failed", "error", err, "chat_id", conv.ChatID())
		a.send(ctx, conv, a.loc.BookingFailed)
		return
	}
	if !ok {
		a.send(ctx, conv, a.loc.NoBookingFound)
		return
	}
	a.send(ctx, conv, a.loc.CancelConfirmed)
}

// book runs the reservation loop: ask for a time, reserve a candidate, offer
// it, book on confirmation. Loops until booked or aborted.
func (a *Agent) book(ctx context.Context, conv Conversation) {
	if begin, found := a.engine.FindWhere(payloadKeyChat, chatKey(conv)); found {
		a.send(ctx, conv, a.loc.BookingFound+begin.Format(slotTimeFormat))
		return
	}

	for {
		a.send(ctx, conv, a.loc.QueryBookTime)
		txt := strings.ToLower(strings.TrimSpace(conv.ReadNext().Text))
		if strings.Contains(txt, "abort") {
			return
		}

		var res *schedule.Reservation
		switch {
		case strings.Contains(txt, "rand"):
			res = a.engine.ReserveRandom()
		case strings.Contains(txt, "first"):
			res = a.engine.ReserveAt(a.now())
		default:
			when, ok := parseWhen(txt, a.now())
			if !ok {
				a.send(ctx, conv, a.loc.DateNotUnderstood)
				continue
			}
			res = a.engine.ReserveAt(when)
		}

		if res == nil {
			a.send(ctx, conv, a.loc.NoCandidateFound)
			continue
		}
		if a.offer(ctx, conv, res) {
			return
		}
	}
}

// offer presents one reserved slot and books it on a 'yes'. The reservation
// is released on every path that does not book it.
func (a *Agent) offer(ctx context.Context, conv Conversation, res *schedule.Reservation) bool {
	defer res.Release()

	a.send(ctx, conv, a.loc.QueryConfirmBooking+res.Begin().Format(slotTimeFormat))
	reply := strings.ToLower(strings.TrimSpace(conv.ReadNext().Text))
	if !strings.Contains(reply, "yes") {
		return false
	}

	ref, err := res.Book(map[string]string{payloadKeyChat: chatKey(conv)})
	if err != nil {
		a.logger.Error("booking failed", "error", err, "chat_id", conv.ChatID(), "begin", res.Begin())
		a.send(ctx, conv, a.loc.BookingFailed)
		return false
	}

	a.logger.Info("booking made", "chat_id", conv.ChatID(), "begin", res.Begin(), "ref", ref)
	a.send(ctx, conv, a.loc.BookingConfirmed+res.Begin().Format(slotTimeFormat))
	return true
}

// send delivers one reply, logging failures; the dialogue carries on either
// way.
func (a *Agent) send(ctx context.Context, conv Conversation, text string) {
	if err := conv.Send(ctx, text); err != nil {
		a.logger.Warn("sending reply failed", "error", err, "chat_id", conv.ChatID())
	}
}

func chatKey(conv Conversation) string {
	return strconv.FormatInt(conv.ChatID(), 10)
}
