package service

import (
	"fmt"
	"time"
)

// DateRange is a rental period in whole calendar days. Both bounds are
// normalized to midnight so duration math never sees partial days or DST drift.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// NewDateRange normalizes and validates a rental period. End must be strictly
// after start.
func NewDateRange(start, end time.Time) (DateRange, error) {
	r := DateRange{Start: atMidnight(start), End: atMidnight(end)}
	if !r.End.After(r.Start) {
		return DateRange{}, ErrEndNotAfterStart
	}
	return r, nil
}

// ValidateNotPast rejects ranges starting before today relative to now.
func (r DateRange) ValidateNotPast(now time.Time) error {
	if r.Start.Before(atMidnight(now.In(r.Start.Location()))) {
		return ErrStartInPast
	}
	return nil
}

// Days returns the rental duration in days, always >= 1 for a valid range.
func (r DateRange) Days() int {
	return DurationDays(r.Start, r.End)
}

// DurationDays counts calendar days between two midnight-normalized dates.
// Rounding absorbs the hour lost or gained across a DST transition, so a
// five-calendar-day range bills five days regardless of wall-clock length.
func DurationDays(start, end time.Time) int {
	return int(end.Sub(start).Hours()/24 + 0.5)
}

func atMidnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// ComputeTotal returns durationDays * dailyRate for an already validated range.
// Pure and cheap enough to re-run on every date change.
func ComputeTotal(dailyRate int64, r DateRange) (int64, error) {
	if dailyRate < 0 {
		return 0, ErrInvalidDailyRate
	}
	if !r.End.After(r.Start) {
		return 0, fmt.Errorf("compute total: %w", ErrEndNotAfterStart)
	}
	return int64(r.Days()) * dailyRate, nil
}
