package dates

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestEndDate(t *testing.T) {
	tests := []struct {
		name   string
		start  time.Time
		months int
		want   time.Time
	}{
		{
			name:   "simple month addition",
			start:  day(2026, time.March, 15),
			months: 1,
			want:   day(2026, time.April, 15),
		},
		{
			name:   "jan 31 clamps to feb 28",
			start:  day(2026, time.January, 31),
			months: 1,
			want:   day(2026, time.February, 28),
		},
		{
			name:   "jan 31 clamps to feb 29 in a leap year",
			start:  day(2028, time.January, 31),
			months: 1,
			want:   day(2028, time.February, 29),
		},
		{
			name:   "oct 31 clamps to nov 30",
			start:  day(2026, time.October, 31),
			months: 1,
			want:   day(2026, time.November, 30),
		},
		{
			name:   "year rollover",
			start:  day(2026, time.November, 10),
			months: 3,
			want:   day(2027, time.February, 10),
		},
		{
			name:   "twelve months lands on the same day",
			start:  day(2026, time.August, 29),
			months: 12,
			want:   day(2027, time.August, 29),
		},
		{
			name:   "clamped day does not carry into later months",
			start:  day(2026, time.January, 31),
			months: 2,
			want:   day(2026, time.March, 31),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EndDate(tt.start, tt.months)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEndDateRejectsNonPositiveDuration(t *testing.T) {
	for _, months := range []int{0, -1} {
		_, err := EndDate(day(2026, time.January, 1), months)
		assert.Error(t, err)
	}
}

func TestDueDate(t *testing.T) {
	end := day(2026, time.March, 1)
	assert.Equal(t, day(2026, time.February, 26), DueDate(end))
}

func TestRemainingDays(t *testing.T) {
	tests := []struct {
		name string
		now  time.Time
		end  time.Time
		want int
	}{
		{
			name: "whole days ahead",
			now:  day(2026, time.August, 29),
			end:  day(2026, time.September, 3),
			want: 5,
		},
		{
			name: "same day",
			now:  day(2026, time.August, 29),
			end:  day(2026, time.August, 29),
			want: 0,
		},
		{
			name: "past end is negative",
			now:  day(2026, time.August, 29),
			end:  day(2026, time.August, 27),
			want: -2,
		},
		{
			name: "time of day is ignored",
			now:  time.Date(2026, time.August, 29, 23, 59, 0, 0, time.UTC),
			end:  time.Date(2026, time.August, 30, 0, 1, 0, 0, time.UTC),
			want: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RemainingDays(tt.now, tt.end))
		})
	}
}

func TestDaysInMonth(t *testing.T) {
	assert.Equal(t, 28, DaysInMonth(2026, time.February))
	assert.Equal(t, 29, DaysInMonth(2028, time.February))
	assert.Equal(t, 31, DaysInMonth(2026, time.December))
	assert.Equal(t, 30, DaysInMonth(2026, time.April))
}

func TestParseDay(t *testing.T) {
	got, err := ParseDay("2026-01-31")
	require.NoError(t, err)
	assert.Equal(t, day(2026, time.January, 31), got)

	_, err = ParseDay("31/01/2026")
	assert.Error(t, err)
}

func TestFormatDay(t *testing.T) {
	assert.Equal(t, "2026-02-28", FormatDay(day(2026, time.February, 28)))
}
