package entities

import "time"

// Booking statuses.
const (
	BookingStatusPending       = "pending"
	BookingStatusConfirmed     = "confirmed"
	BookingStatusActive        = "active"
	BookingStatusFinished      = "finished"
	BookingStatusCanceled      = "canceled"
	BookingStatusPaymentReview = "payment_review"
)

// Payment statuses.
const (
	PaymentStatusPending   = "pending"
	PaymentStatusSucceeded = "succeeded"
	PaymentStatusFailed    = "failed"
	PaymentStatusRefunded  = "refunded"
)

type BookingResponse struct {
	ID                string    `json:"id"`
	Code              string    `json:"code"`
	CorrelationID     string    `json:"correlation_id"`
	VehicleID         string    `json:"vehicle_id"`
	StartDate         time.Time `json:"start_date"`
	EndDate           time.Time `json:"end_date"`
	AmountMinor       int64     `json:"amount_minor"`
	Currency          string    `json:"currency"`
	PaymentMethod     string    `json:"payment_method"`
	ProviderPaymentID string    `json:"provider_payment_id,omitempty"`
	Status            string    `json:"status"`
	PaymentStatus     string    `json:"payment_status"`
	CreatedAt         time.Time `json:"created_at"`
}

// BookingEmailData feeds the confirmation email template.
type BookingEmailData struct {
	UserName           string
	BookingCode        string
	VehicleName        string
	StartDateFormatted string
	EndDateFormatted   string
	TotalFormatted     string
	CurrentYear        int
}
