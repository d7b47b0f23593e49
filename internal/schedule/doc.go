// Package schedule implements the appointment slot store and its reservation
// engine.
//
// The slot store is generated once at startup from the opening schedule and
// never grows or shrinks afterwards; only slot status and payload change. All
// access is serialized behind a single engine lock, which keeps every
// invariant trivial to state: no two live reservations reference the same
// slot, and the set of durable booking records always equals the set of
// booked slots.
//
// A Reservation is a single-use handle. The intended shape at call sites:
//
//	res := engine.ReserveAt(when)
//	if res == nil {
//		// no candidate: normal outcome, ask for different criteria
//	}
//	defer res.Release()
//	...
//	ref, err := res.Book(payload)
//
// Release after a successful Book is a no-op, so the deferred call covers
// every exit path without flags at the call site.
package schedule
