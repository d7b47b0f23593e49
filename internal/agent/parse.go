// ABOUTME: Free-text date/time parsing for booking requests
// ABOUTME: Understands clock times, weekday names (en/fr) and ISO dates

package agent

import (
	"strconv"
	"strings"
	"time"
	"unicode"
)

// weekdays maps lowercase weekday names to time.Weekday. English and French,
// matching the audiences the original deployment served.
var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"dimanche":  time.Sunday,
	"monday":    time.Monday,
	"lundi":     time.Monday,
	"tuesday":   time.Tuesday,
	"mardi":     time.Tuesday,
	"wednesday": time.Wednesday,
	"mercredi":  time.Wednesday,
	"thursday":  time.Thursday,
	"jeudi":     time.Thursday,
	"friday":    time.Friday,
	"vendredi":  time.Friday,
	"saturday":  time.Saturday,
	"samedi":    time.Saturday,
}

// parseWhen extracts a point in time from free text like "friday 14:30",
// "2026-09-14 9:00" or "15:00". A time without a date means today; a date or
// weekday without a time means midnight. The weekday resolves to its next
// occurrence counting today. Returns false when no word parses.
func parseWhen(text string, now time.Time) (time.Time, bool) {
	var clock *time.Duration
	var day *time.Time

	for _, word := range strings.Fields(strings.ToLower(text)) {
		r := []rune(word)[0]
		if unicode.IsDigit(r) {
			if d, ok := parseClock(word); ok {
				clock = &d
				continue
			}
			if t, err := time.ParseInLocation("2006-01-02", word, now.Location()); err == nil {
				day = &t
			}
			continue
		}
		if wd, ok := weekdays[word]; ok {
			t := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
			for t.Weekday() != wd {
				t = t.AddDate(0, 0, 1)
			}
			day = &t
		}
	}

	if clock == nil && day == nil {
		return time.Time{}, false
	}
	if day == nil {
		t := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		day = &t
	}
	if clock == nil {
		return *day, true
	}
	return day.Add(*clock), true
}

// parseClock parses "14:30", "9:00" or a bare hour like "9" into an offset
// from midnight.
func parseClock(word string) (time.Duration, bool) {
	parts := strings.SplitN(word, ":", 2)

	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, false
	}

	minute := 0
	if len(parts) == 2 {
		minute, err = strconv.Atoi(parts[1])
		if err != nil || minute < 0 || minute > 59 {
			return 0, false
		}
	}

	return time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute, true
}
