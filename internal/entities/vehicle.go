package entities

// VehicleResponse is the catalog view of a rental vehicle.
type VehicleResponse struct {
	ID             string   `json:"id"`
	Make           string   `json:"make"`
	Model          string   `json:"model"`
	Year           int      `json:"year"`
	FuelType       string   `json:"fuel_type"`
	Seats          int      `json:"seats"`
	Transmission   string   `json:"transmission"`
	Features       []string `json:"features,omitempty"`
	DailyRateMinor int64    `json:"daily_rate_minor"`
	Currency       string   `json:"currency"`
	PickupLocation string   `json:"pickup_location,omitempty"`
	Available      bool     `json:"available"`
}
