package api

// Drafts
type CreateDraftRequest struct {
	VehicleID string `json:"vehicle_id"`
	StartDate string `json:"start_date"` // YYYY-MM-DD
	EndDate   string `json:"end_date"`   // YYYY-MM-DD
}

type DraftResponse struct {
	VehicleID      string `json:"vehicle_id"`
	StartDate      string `json:"start_date"`
	EndDate        string `json:"end_date"`
	DurationDays   int    `json:"duration_days"`
	DailyRateMinor int64  `json:"daily_rate_minor"`
	TotalMinor     int64  `json:"total_minor"`
	Currency       string `json:"currency"`
	CorrelationID  string `json:"correlation_id"`
}

// Payments
type CreateIntentResponse struct {
	ProviderSecret string `json:"provider_secret"`
	CorrelationID  string `json:"correlation_id"`
	AmountMinor    int64  `json:"amount_minor"`
	Currency       string `json:"currency"`
	Status         string `json:"status"`
}

type ConfirmPaymentRequest struct {
	PaymentMethod     string `json:"payment_method"`
	ProviderPaymentID string `json:"provider_payment_id"`
}

type MpesaPaymentRequest struct {
	Phone string `json:"phone"`
}

type BookingResultResponse struct {
	Success       bool   `json:"success"`
	BookingID     string `json:"booking_id,omitempty"`
	BookingCode   string `json:"booking_code,omitempty"`
	CorrelationID string `json:"correlation_id,omitempty"`
}

// Fleet
type SetAvailabilityRequest struct {
	Available bool `json:"available"`
}

// Auth
type RegisterRequest struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type TokenResponse struct {
	Token string `json:"token"`
}
