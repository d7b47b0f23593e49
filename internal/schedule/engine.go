// ABOUTME: Reservation engine serializing all slot-store access behind one lock
// ABOUTME: Reservations are single-use handles; Book persists before returning

package schedule

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/2389/booking-gateway/internal/bookings"
)

// ErrSlotVanished means a live reservation pointed at a slot the store no
// longer knows. The slot set is fixed at startup, so this is an internal
// invariant violation, not a condition callers can recover from by retrying.
var ErrSlotVanished = errors.New("blocked slot vanished from the store")

// RecordStore is what the engine needs from booking persistence.
type RecordStore interface {
	Save(rec *bookings.Record) error
	Delete(begin time.Time) error
	Load() ([]*bookings.Record, error)
}

// Engine owns the slot store. Every operation runs inside one global critical
// section: coarse by design, correct under any interleaving, and fast enough
// for one caller per live conversation.
type Engine struct {
	mu      sync.Mutex
	slots   []*slot
	records RecordStore
	logger  *slog.Logger
}

// NewEngine generates the slot store from the spec and reconciles persisted
// booking records into it. A record whose begin time matches no generated slot
// means the schedule changed incompatibly with existing bookings; that aborts
// startup rather than silently dropping a booking.
func NewEngine(spec Spec, records RecordStore, logger *slog.Logger) (*Engine, error) {
	if logger == nil {
		logger = slog.Default()
	}
	slots, err := buildSlots(spec)
	if err != nil {
		return nil, fmt.Errorf("building slot store: %w", err)
	}

	e := &Engine{
		slots:   slots,
		records: records,
		logger:  logger.With("component", "schedule"),
	}

	persisted, err := records.Load()
	if err != nil {
		return nil, fmt.Errorf("loading booking records: %w", err)
	}
	for _, rec := range persisted {
		s := e.findByBegin(rec.Begin)
		if s == nil {
			return nil, fmt.Errorf("booking record %s matches no slot in the schedule: schedule changed incompatibly with existing bookings", bookings.TimeKey(rec.Begin))
		}
		s.status = StatusBooked
		s.payload = copyPayload(rec.Payload)
	}

	e.logger.Info("slot store ready", "slots", len(slots), "booked", len(persisted))
	return e, nil
}

// Reservation is a single-use handle on one blocked slot. It is consumed by
// Book or by Release; Release on every exit path (typically deferred) is the
// caller's obligation, and is a no-op once the handle is consumed.
type Reservation struct {
	eng      *Engine
	begin    time.Time
	consumed bool // guarded by eng.mu
}

// Begin returns the begin time of the reserved slot.
func (r *Reservation) Begin() time.Time {
	return r.begin
}

// ReserveFirst blocks the first free slot in schedule order. Nil when no slot
// is free; that is a normal outcome, not an error.
func (e *Engine) ReserveFirst() *Reservation {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, s := range e.slots {
		if s.status == StatusFree {
			return e.block(s)
		}
	}
	return nil
}

// ReserveRandom blocks a slot drawn uniformly from the set of slots free at
// the instant of the call. Nil when none are free.
func (e *Engine) ReserveRandom() *Reservation {
	e.mu.Lock()
	defer e.mu.Unlock()

	free := 0
	for _, s := range e.slots {
		if s.status == StatusFree {
			free++
		}
	}
	if free == 0 {
		return nil
	}

	idx := rand.Intn(free)
	for _, s := range e.slots {
		if s.status != StatusFree {
			continue
		}
		if idx == 0 {
			return e.block(s)
		}
		idx--
	}
	return nil // unreachable
}

// ReserveAt blocks the first free slot beginning at or after t. Nil when no
// free slot qualifies.
func (e *Engine) ReserveAt(t time.Time) *Reservation {
	e.mu.Lock()
	defer e.mu.Unlock()

	var best *slot
	for _, s := range e.slots {
		if s.status != StatusFree || s.begin.Before(t) {
			continue
		}
		if best == nil || s.begin.Before(best.begin) {
			best = s
		}
	}
	if best == nil {
		return nil
	}
	return e.block(best)
}

// block transitions a free slot to blocked and mints its handle.
// Must be called with e.mu held.
func (e *Engine) block(s *slot) *Reservation {
	s.status = StatusBlocked
	e.logger.Debug("slot blocked", "begin", s.begin)
	return &Reservation{eng: e, begin: s.begin}
}

// Book consumes the reservation, transitions the slot to booked with the given
// payload, and persists the booking record before returning. On persistence
// failure the slot stays blocked (the caller's deferred Release frees it) and
// the whole reserve-and-book sequence must be redone.
//
// The returned reference is a unique id stamped into the durable record.
func (r *Reservation) Book(payload map[string]string) (string, error) {
	e := r.eng
	e.mu.Lock()
	defer e.mu.Unlock()

	if r.consumed {
		return "", errors.New("reservation already consumed")
	}

	s := e.findByBegin(r.begin)
	if s == nil {
		return "", fmt.Errorf("booking slot at %s: %w", r.begin, ErrSlotVanished)
	}

	ref := uuid.New().String()
	rec := &bookings.Record{
		Begin:    s.begin,
		Payload:  copyPayload(payload),
		Ref:      ref,
		BookedAt: time.Now().UTC(),
	}
	if err := e.records.Save(rec); err != nil {
		// Not booked: without a durable record the booking does not exist.
		return "", fmt.Errorf("persisting booking: %w", err)
	}

	s.status = StatusBooked
	s.payload = copyPayload(payload)
	r.consumed = true

	e.logger.Info("slot booked", "begin", s.begin, "ref", ref)
	return ref, nil
}

// Release returns the slot to free unless the reservation was already
// consumed. Safe to call any number of times and on any exit path.
func (r *Reservation) Release() {
	e := r.eng
	e.mu.Lock()
	defer e.mu.Unlock()

	if r.consumed {
		return
	}
	r.consumed = true

	s := e.findByBegin(r.begin)
	if s == nil || s.status != StatusBlocked {
		return
	}
	s.status = StatusFree
	s.payload = nil
	e.logger.Debug("slot released", "begin", s.begin)
}

// CancelWhere frees the first booked slot whose payload carries key=value and
// deletes its durable record. False when no booked slot matches. Matching is
// first-wins: callers must use a key that is unique across bookings, such as
// the chat id.
func (e *Engine) CancelWhere(key, value string) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, s := range e.slots {
		if s.status != StatusBooked || s.payload[key] != value {
			continue
		}
		// Delete the record first: a booked slot without a record would
		// resurrect nothing, but a record without a booked slot would
		// resurrect a cancelled booking on restart.
		if err := e.records.Delete(s.begin); err != nil {
			return false, fmt.Errorf("deleting booking record: %w", err)
		}
		s.status = StatusFree
		s.payload = nil
		e.logger.Info("booking cancelled", "begin", s.begin, key, value)
		return true, nil
	}
	return false, nil
}

// FindWhere returns the begin time of the first slot whose payload carries
// key=value. Read-only; scans every slot with a payload regardless of status.
func (e *Engine) FindWhere(key, value string) (time.Time, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, s := range e.slots {
		if len(s.payload) == 0 {
			continue
		}
		if s.payload[key] == value {
			return s.begin, true
		}
	}
	return time.Time{}, false
}

// ListBooked returns snapshots of all booked slots with begin times in the
// inclusive range [from, to], in schedule order.
func (e *Engine) ListBooked(from, to time.Time) []BookedSlot {
	e.mu.Lock()
	defer e.mu.Unlock()

	var out []BookedSlot
	for _, s := range e.slots {
		if s.status != StatusBooked {
			continue
		}
		if s.begin.Before(from) || s.begin.After(to) {
			continue
		}
		out = append(out, BookedSlot{Begin: s.begin, Payload: copyPayload(s.payload)})
	}
	return out
}

// Counts reports how many slots are in each status.
func (e *Engine) Counts() (free, blocked, booked int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, s := range e.slots {
		switch s.status {
		case StatusFree:
			free++
		case StatusBlocked:
			blocked++
		case StatusBooked:
			booked++
		}
	}
	return free, blocked, booked
}

// findByBegin locates a slot by identity. Must be called with e.mu held.
func (e *Engine) findByBegin(begin time.Time) *slot {
	for _, s := range e.slots {
		if s.begin.Equal(begin) {
			return s
		}
	}
	return nil
}
