package dates

import (
	"fmt"
	"time"
)

// DueDateOffset is how many days before the end date the payment reminder
// threshold falls.
const DueDateOffset = 3

// EndDate adds months calendar months to start, clamping the day of month to
// the last day of the target month: Jan 31 + 1 month = Feb 28 (Feb 29 in a
// leap year). time.Time's AddDate would normalize Jan 31 + 1 month into
// early March, which is not what a monthly rent period means, so the month
// arithmetic is done by hand.
func EndDate(start time.Time, months int) (time.Time, error) {
	if months < 1 {
		return time.Time{}, fmt.Errorf("duration must be at least 1 month, got %d", months)
	}

	year := start.Year()
	month := int(start.Month()) + months
	year += (month - 1) / 12
	month = (month-1)%12 + 1

	day := start.Day()
	if max := DaysInMonth(year, time.Month(month)); day > max {
		day = max
	}

	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, start.Location()), nil
}

// DueDate is the fixed reminder threshold: end minus 3 days.
func DueDate(end time.Time) time.Time {
	return end.AddDate(0, 0, -DueDateOffset)
}

// RemainingDays returns the number of whole days from now until end,
// negative once end has passed. Both instants are truncated to their
// calendar date so time-of-day never shifts the count.
func RemainingDays(now, end time.Time) int {
	n := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	e := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)
	return int(e.Sub(n).Hours() / 24)
}

// DaysInMonth returns the number of days in the given month.
func DaysInMonth(year int, month time.Month) int {
	// Day 0 of the next month is the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// ParseDay parses a yyyy-mm-dd date string.
func ParseDay(s string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected yyyy-mm-dd", s)
	}
	return t, nil
}

// FormatDay renders a time as the backend's yyyy-mm-dd wire format.
func FormatDay(t time.Time) string {
	return t.Format("2006-01-02")
}
