package agent

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Tuesday.
var parseNow = time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)

func TestParseWhen_ClockTimeMeansToday(t *testing.T) {
	got, ok := parseWhen("14:30", parseNow)
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 9, 1, 14, 30, 0, 0, time.UTC), got)
}

func TestParseWhen_BareHour(t *testing.T) {
	got, ok := parseWhen("9", parseNow)
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC), got)
}

func TestParseWhen_WeekdayNextOccurrence(t *testing.T) {
	got, ok := parseWhen("friday", parseNow)
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 9, 4, 0, 0, 0, 0, time.UTC), got)
	assert.Equal(t, time.Friday, got.Weekday())
}

func TestParseWhen_WeekdayCountsToday(t *testing.T) {
	got, ok := parseWhen("tuesday", parseNow)
	require.True(t, ok)
	assert.Equal(t, parseNow.Truncate(24*time.Hour), got)
}

func TestParseWhen_FrenchWeekdayWithTime(t *testing.T) {
	got, ok := parseWhen("vendredi 10:00", parseNow)
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 9, 4, 10, 0, 0, 0, time.UTC), got)
}

func TestParseWhen_ISODate(t *testing.T) {
	got, ok := parseWhen("2026-09-14", parseNow)
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC), got)
}

func TestParseWhen_ISODateWithTime(t *testing.T) {
	got, ok := parseWhen("2026-09-14 9:30", parseNow)
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 9, 14, 9, 30, 0, 0, time.UTC), got)
}

func TestParseWhen_Nothing(t *testing.T) {
	for _, input := range []string{"gibberish", "", "25:99", "99", "not a time at all"} {
		_, ok := parseWhen(input, parseNow)
		assert.False(t, ok, "input %q should not parse", input)
	}
}
