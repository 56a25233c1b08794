package db

import "time"

type User struct {
	ID           string
	FullName     string
	Email        string
	Phone        string
	PasswordHash string
	Role         string
	CreatedAt    time.Time
}

type Vehicle struct {
	ID             string
	Make           string
	Model          string
	Year           int
	FuelType       string
	Seats          int
	Transmission   string
	Features       []string
	DailyRateMinor int64
	Currency       string
	PickupLocation string
	Available      bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type Booking struct {
	ID                string
	CorrelationID     string
	Code              string
	UserID            string
	VehicleID         string
	StartDate         time.Time
	EndDate           time.Time
	AmountMinor       int64
	Currency          string
	PaymentMethod     string
	ProviderPaymentID string
	Status            string
	PaymentStatus     string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
