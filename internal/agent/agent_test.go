package agent

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/booking-gateway/internal/bookings"
	"github.com/2389/booking-gateway/internal/conversation"
	"github.com/2389/booking-gateway/internal/schedule"
)

// scriptedConv drives the agent from a test: the test pushes user messages
// into inbox and pops the agent's replies from outbox.
type scriptedConv struct {
	chatID int64
	inbox  chan conversation.Message
	outbox chan string
}

func newScriptedConv(chatID int64) *scriptedConv {
	return &scriptedConv{
		chatID: chatID,
		inbox:  make(chan conversation.Message, 16),
		outbox: make(chan string, 16),
	}
}

func (c *scriptedConv) ChatID() int64 { return c.chatID }

func (c *scriptedConv) ReadNext() conversation.Message { return <-c.inbox }

func (c *scriptedConv) Send(_ context.Context, s string) error {
	c.outbox <- s
	return nil
}

func (c *scriptedConv) say(t *testing.T, text string) {
	t.Helper()
	c.inbox <- conversation.Message{Text: text}
}

func (c *scriptedConv) reply(t *testing.T) string {
	t.Helper()
	select {
	case s := <-c.outbox:
		return s
	case <-time.After(5 * time.Second):
		t.Fatal("agent sent no reply")
		return ""
	}
}

func testEngine(t *testing.T) *schedule.Engine {
	t.Helper()
	store, err := bookings.NewStore(t.TempDir(), nil)
	require.NoError(t, err)

	day := time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC)
	eng, err := schedule.NewEngine(schedule.Spec{
		SlotDuration: 30 * time.Minute,
		Openings: []schedule.Interval{
			{Begin: day.Add(9 * time.Hour), End: day.Add(10*time.Hour + 30*time.Minute)},
		},
	}, store, nil)
	require.NoError(t, err)
	return eng
}

func startAgent(t *testing.T, eng *schedule.Engine, conv *scriptedConv) {
	t.Helper()
	a := New(eng, nil, nil)
	a.now = func() time.Time {
		return time.Date(2026, 9, 14, 8, 0, 0, 0, time.UTC)
	}
	go a.Run(context.Background(), conv)

	welcome := conv.reply(t)
	assert.Equal(t, DefaultLocale().Welcome, welcome)
}

func TestAgent_CheckWithoutBooking(t *testing.T) {
	eng := testEngine(t)
	conv := newScriptedConv(42)
	startAgent(t, eng, conv)

	conv.say(t, "check")
	assert.Equal(t, DefaultLocale().NoBookingFound, conv.reply(t))
}

func TestAgent_BookAtRequestedTime(t *testing.T) {
	eng := testEngine(t)
	conv := newScriptedConv(42)
	startAgent(t, eng, conv)

	conv.say(t, "book")
	assert.Equal(t, DefaultLocale().QueryBookTime, conv.reply(t))

	conv.say(t, "9:15")
	offer := conv.reply(t)
	assert.Contains(t, offer, DefaultLocale().QueryConfirmBooking)
	assert.Contains(t, offer, "09:30", "9:15 must offer the 09:30 slot")

	conv.say(t, "yes")
	confirmed := conv.reply(t)
	assert.Contains(t, confirmed, DefaultLocale().BookingConfirmed)
	assert.Contains(t, confirmed, "09:30")

	begin, found := eng.FindWhere("id", "42")
	require.True(t, found)
	assert.Equal(t, 30, begin.Minute())

	// A follow-up check reports the booking.
	conv.say(t, "check")
	assert.Contains(t, conv.reply(t), "09:30")
}

func TestAgent_BookWhenAlreadyBooked(t *testing.T) {
	eng := testEngine(t)
	conv := newScriptedConv(42)
	startAgent(t, eng, conv)

	conv.say(t, "book")
	conv.reply(t) // query
	conv.say(t, "first")
	conv.reply(t) // offer 09:00
	conv.say(t, "yes")
	conv.reply(t) // confirmed

	conv.say(t, "book")
	assert.Contains(t, conv.reply(t), DefaultLocale().BookingFound)
}

func TestAgent_DeclinedOfferFreesSlot(t *testing.T) {
	eng := testEngine(t)
	conv := newScriptedConv(42)
	startAgent(t, eng, conv)

	conv.say(t, "book")
	conv.reply(t) // query
	conv.say(t, "first")
	offer := conv.reply(t)
	assert.Contains(t, offer, "09:00")

	// Decline: the loop asks again, and the slot went back to free, so
	// "first" offers the same 09:00 slot once more.
	conv.say(t, "no")
	assert.Equal(t, DefaultLocale().QueryBookTime, conv.reply(t))

	conv.say(t, "first")
	assert.Contains(t, conv.reply(t), "09:00")

	conv.say(t, "abort")
	// After abort the agent waits for the next command; nothing else is sent.
	conv.say(t, "check")
	assert.Equal(t, DefaultLocale().NoBookingFound, conv.reply(t))
}

func TestAgent_UnparseableTimeRepeatsQuery(t *testing.T) {
	eng := testEngine(t)
	conv := newScriptedConv(42)
	startAgent(t, eng, conv)

	conv.say(t, "book")
	conv.reply(t) // query
	conv.say(t, "gibberish")
	assert.Equal(t, DefaultLocale().DateNotUnderstood, conv.reply(t))
	assert.Equal(t, DefaultLocale().QueryBookTime, conv.reply(t))
	conv.say(t, "abort")
}

func TestAgent_NoCandidateForLateTime(t *testing.T) {
	eng := testEngine(t)
	conv := newScriptedConv(42)
	startAgent(t, eng, conv)

	conv.say(t, "book")
	conv.reply(t) // query
	conv.say(t, "23:00")
	assert.Equal(t, DefaultLocale().NoCandidateFound, conv.reply(t))
	assert.Equal(t, DefaultLocale().QueryBookTime, conv.reply(t))
	conv.say(t, "abort")
}

func TestAgent_CancelFlow(t *testing.T) {
	eng := testEngine(t)
	conv := newScriptedConv(42)
	startAgent(t, eng, conv)

	conv.say(t, "book")
	conv.reply(t)
	conv.say(t, "first")
	conv.reply(t)
	conv.say(t, "yes")
	conv.reply(t)

	// Abort the first cancellation attempt.
	conv.say(t, "cancel")
	assert.Contains(t, conv.reply(t), DefaultLocale().ConfirmCancel)
	conv.say(t, "no")
	assert.Equal(t, DefaultLocale().CancelAborted, conv.reply(t))

	_, found := eng.FindWhere("id", "42")
	assert.True(t, found, "aborted cancellation must keep the booking")

	// Now cancel for real.
	conv.say(t, "cancel")
	conv.reply(t)
	conv.say(t, "yes")
	assert.Equal(t, DefaultLocale().CancelConfirmed, conv.reply(t))

	_, found = eng.FindWhere("id", "42")
	assert.False(t, found)
}

func TestAgent_UnknownCommand(t *testing.T) {
	eng := testEngine(t)
	conv := newScriptedConv(42)
	startAgent(t, eng, conv)

	conv.say(t, "help me")
	assert.Equal(t, DefaultLocale().UnknownCommand, conv.reply(t))
}
