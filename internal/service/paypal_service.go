package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"autorent/internal/config"
)

// PayPalService is the wallet gateway. Orders are created and captured in one
// round-trip; the capture id is the provider payment reference.
type PayPalService struct {
	cfg    config.PayPalConfig
	client *http.Client
}

func NewPayPalService(cfg config.PayPalConfig) *PayPalService {
	return &PayPalService{
		cfg:    cfg,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

type paypalAmount struct {
	CurrencyCode string `json:"currency_code"`
	Value        string `json:"value"`
}

type paypalPurchaseUnit struct {
	ReferenceID string       `json:"reference_id"`
	Amount      paypalAmount `json:"amount"`
}

type paypalOrderRequest struct {
	Intent        string               `json:"intent"`
	PurchaseUnits []paypalPurchaseUnit `json:"purchase_units"`
}

type paypalOrderResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// Charge creates and captures a wallet order for the given amount.
func (s *PayPalService) Charge(ctx context.Context, amountMinor int64, currency, reference string) (string, error) {
	order := paypalOrderRequest{
		Intent: "CAPTURE",
		PurchaseUnits: []paypalPurchaseUnit{{
			ReferenceID: reference,
			Amount: paypalAmount{
				CurrencyCode: currency,
				Value:        fmt.Sprintf("%d.%02d", amountMinor/100, amountMinor%100),
			},
		}},
	}

	body, err := json.Marshal(order)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		s.cfg.BaseURL+"/v2/checkout/orders", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(s.cfg.ClientID, s.cfg.ClientSecret)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("paypal charge: %v: %w", err, ErrProviderUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return "", fmt.Errorf("paypal charge: status %d: %w", resp.StatusCode, ErrProviderUnavailable)
	}

	var result paypalOrderResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("paypal charge: decoding response: %w", err)
	}
	if resp.StatusCode >= 400 || result.ID == "" {
		return "", fmt.Errorf("paypal charge: status %d (%s): %w", resp.StatusCode, result.Status, ErrPaymentDeclined)
	}
	return result.ID, nil
}
