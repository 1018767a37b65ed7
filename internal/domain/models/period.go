package models

import "time"

// TruncatePeriod aligns t to the start of its period: midnight UTC for daily,
// the Monday of the ISO week for weekly.
func (g Granularity) TruncatePeriod(t time.Time) time.Time {
	t = t.UTC()
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	if g != GranularityWeekly {
		return day
	}
	// weekly buckets are anchored on Monday
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

// NextPeriod returns the start of the period immediately after t.
func (g Granularity) NextPeriod(t time.Time) time.Time {
	if g == GranularityWeekly {
		return t.AddDate(0, 0, 7)
	}
	return t.AddDate(0, 0, 1)
}

// AddPeriods returns the period start n steps after t.
func (g Granularity) AddPeriods(t time.Time, n int) time.Time {
	if g == GranularityWeekly {
		return t.AddDate(0, 0, 7*n)
	}
	return t.AddDate(0, 0, n)
}

// PeriodsBetween counts whole periods from first to last, inclusive of both
// endpoints. first and last must already be period-aligned.
func (g Granularity) PeriodsBetween(first, last time.Time) int {
	if last.Before(first) {
		return 0
	}
	days := int(last.Sub(first).Hours() / 24)
	if g == GranularityWeekly {
		return days/7 + 1
	}
	return days + 1
}
