// ABOUTME: Slot model and slot-store generation from the opening schedule
// ABOUTME: The slot set is fixed at startup; only status and payload ever change

package schedule

import (
	"fmt"
	"time"
)

// Status is the tri-state lifecycle of a slot.
type Status int

const (
	// StatusFree means the slot is available for reservation.
	StatusFree Status = iota
	// StatusBlocked means a live reservation holds the slot, pending booking
	// or release.
	StatusBlocked
	// StatusBooked means the slot is taken and durably recorded.
	StatusBooked
)

func (s Status) String() string {
	switch s {
	case StatusFree:
		return "free"
	case StatusBlocked:
		return "blocked"
	case StatusBooked:
		return "booked"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Interval is one contiguous opening window in the schedule.
type Interval struct {
	Begin time.Time
	End   time.Time
}

// Spec describes the bookable schedule: slots of SlotDuration stepped across
// each opening interval.
type Spec struct {
	SlotDuration time.Duration
	Openings     []Interval
}

// Validate checks the spec is well formed.
func (s Spec) Validate() error {
	if s.SlotDuration <= 0 {
		return fmt.Errorf("slot duration must be positive, got %s", s.SlotDuration)
	}
	if len(s.Openings) == 0 {
		return fmt.Errorf("schedule has no opening intervals")
	}
	for i, intv := range s.Openings {
		if !intv.Begin.Before(intv.End) {
			return fmt.Errorf("opening %d: begin %s is not before end %s", i, intv.Begin, intv.End)
		}
	}
	return nil
}

// slot is one bookable unit. Identified by its begin time, which is unique
// across the store.
type slot struct {
	begin   time.Time
	status  Status
	payload map[string]string
}

// BookedSlot is an immutable snapshot of a booked slot handed out by queries.
type BookedSlot struct {
	Begin   time.Time
	Payload map[string]string
}

// buildSlots generates the full slot store from the spec, all free, in
// opening order. Duplicate begin times (overlapping openings) are rejected:
// the begin time is the slot's identity.
func buildSlots(spec Spec) ([]*slot, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	var slots []*slot
	seen := make(map[int64]struct{})
	for _, intv := range spec.Openings {
		for cur := intv.Begin; cur.Before(intv.End); cur = cur.Add(spec.SlotDuration) {
			key := cur.UnixNano()
			if _, dup := seen[key]; dup {
				return nil, fmt.Errorf("overlapping openings produce duplicate slot at %s", cur)
			}
			seen[key] = struct{}{}
			slots = append(slots, &slot{begin: cur, status: StatusFree})
		}
	}
	return slots, nil
}

// copyPayload returns a defensive copy; nil stays nil.
func copyPayload(p map[string]string) map[string]string {
	if p == nil {
		return nil
	}
	out := make(map[string]string, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}
