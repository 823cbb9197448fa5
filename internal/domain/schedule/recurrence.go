package schedule

import "time"

// NextExecution advances a point in time by one recurrence unit. Monthly
// advancement is calendar-aware: Jan 31 lands on the last valid day of
// February, not March 2.
func NextExecution(from time.Time, pattern Pattern) (time.Time, error) {
	switch pattern {
	case PatternDaily:
		return from.AddDate(0, 0, 1), nil
	case PatternWeekly:
		return from.AddDate(0, 0, 7), nil
	case PatternMonthly:
		return addMonthClamped(from), nil
	default:
		return time.Time{}, ErrInvalidPattern
	}
}

// addMonthClamped adds one calendar month, clamping the day of month to the
// target month's length. Plain AddDate would normalize Jan 31 + 1 month into
// March.
func addMonthClamped(t time.Time) time.Time {
	year, month, day := t.Date()
	hour, minute, sec := t.Clock()

	// Day 0 of the month after next is the last day of the next month
	lastDay := time.Date(year, month+2, 0, 0, 0, 0, 0, t.Location()).Day()
	if day > lastDay {
		day = lastDay
	}
	return time.Date(year, month+1, day, hour, minute, sec, t.Nanosecond(), t.Location())
}

// InitialExecution computes the first firing time for a new schedule: the
// parent's due date when it has one, otherwise one recurrence unit from now.
func InitialExecution(dueDate *time.Time, pattern Pattern, now time.Time) (time.Time, error) {
	if dueDate != nil {
		return *dueDate, nil
	}
	return NextExecution(now, pattern)
}
