// ABOUTME: Reply string catalog for the booking dialogue
// ABOUTME: Built-in English defaults, individually overridable from a TOML file

package agent

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// Locale is the catalog of user-facing reply strings. Times are appended to
// the prompts that reference a slot.
type Locale struct {
	Welcome             string `toml:"welcome"`
	NoBookingFound      string `toml:"no_booking_found"`
	BookingFound        string `toml:"booking_found"`
	QueryBookTime       string `toml:"query_book_time"`
	DateNotUnderstood   string `toml:"date_not_understood"`
	QueryConfirmBooking string `toml:"query_confirm_booking"`
	BookingConfirmed    string `toml:"booking_confirmed"`
	BookingFailed       string `toml:"booking_failed"`
	NoCandidateFound    string `toml:"no_candidate_found"`
	ConfirmCancel       string `toml:"confirm_cancel"`
	CancelConfirmed     string `toml:"cancel_confirmed"`
	CancelAborted       string `toml:"cancel_aborted"`
	UnknownCommand      string `toml:"unknown_command"`
}

// DefaultLocale returns the built-in English catalog.
func DefaultLocale() *Locale {
	return &Locale{
		Welcome:             "Welcome to the booking service. Type 'check' to see your current booking, 'book' to make one, or 'cancel' to cancel an existing booking.",
		NoBookingFound:      "No booking found for you.",
		BookingFound:        "You are booked for the following time: ",
		QueryBookTime:       "At what time do you want to book? Type 'first' for the next slot, 'random' for a random one, or a time (and optional day or date). Type 'abort' to stop.",
		DateNotUnderstood:   "I couldn't understand what you typed, try again or type 'abort' to stop.",
		QueryConfirmBooking: "We found a slot for you. Reply 'yes' to confirm the following slot (anything else to try another one): ",
		BookingConfirmed:    "Your booking is confirmed, please remember your allocated slot: ",
		BookingFailed:       "Something went wrong while confirming your booking, please try again.",
		NoCandidateFound:    "Could not find anything for that time, try again.",
		ConfirmCancel:       "Reply 'yes' to confirm cancellation of slot: ",
		CancelConfirmed:     "Your booking was cancelled, feel free to book again.",
		CancelAborted:       "Operation aborted.",
		UnknownCommand:      "I only understand 'check', 'book' and 'cancel'.",
	}
}

// LoadLocale returns the default catalog with any entries present in the TOML
// file at path overriding the built-ins. Entries absent from the file keep
// their defaults.
func LoadLocale(path string) (*Locale, error) {
	loc := DefaultLocale()
	if _, err := toml.DecodeFile(path, loc); err != nil {
		return nil, fmt.Errorf("loading locale file: %w", err)
	}
	return loc, nil
}
