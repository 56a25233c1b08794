package entities

import "time"

// BookingDraft is the user's not-yet-confirmed selection. Exactly one draft
// exists per user; saving a new one overwrites any prior unconfirmed draft.
type BookingDraft struct {
	VehicleID      string    `json:"vehicle_id"`
	StartDate      time.Time `json:"start_date"`
	EndDate        time.Time `json:"end_date"`
	DailyRateMinor int64     `json:"daily_rate_minor"`
	TotalMinor     int64     `json:"total_minor"`
	Currency       string    `json:"currency"`
	CorrelationID  string    `json:"correlation_id"`
	CreatedAt      time.Time `json:"created_at"`
}
