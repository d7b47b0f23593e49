// Package bookings persists booked slots as one JSON file per slot, named by
// the sortable UTC form of the slot's begin time.
package bookings
