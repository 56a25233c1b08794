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

// MpesaService drives the mobile-money STK push. The user approves the charge
// on their handset, so the call resolves asynchronously on the provider side;
// the gateway response carries the checkout request id used as the provider
// payment reference.
type MpesaService struct {
	cfg    config.MpesaConfig
	client *http.Client
}

func NewMpesaService(cfg config.MpesaConfig) *MpesaService {
	return &MpesaService{
		cfg:    cfg,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

type stkPushRequest struct {
	ShortCode   string `json:"BusinessShortCode"`
	Amount      int64  `json:"Amount"`
	PhoneNumber string `json:"PhoneNumber"`
	CallBackURL string `json:"CallBackURL"`
	AccountRef  string `json:"AccountReference"`
	Description string `json:"TransactionDesc"`
}

type stkPushResponse struct {
	CheckoutRequestID string `json:"CheckoutRequestID"`
	ResponseCode      string `json:"ResponseCode"`
	ResponseDesc      string `json:"ResponseDescription"`
	ErrorMessage      string `json:"errorMessage"`
}

// Push initiates an STK push for an already normalized E.164 number.
func (s *MpesaService) Push(ctx context.Context, phone string, amountMinor int64, reference string) (string, error) {
	payload := stkPushRequest{
		ShortCode:   s.cfg.ShortCode,
		Amount:      amountMinor / 100, // M-Pesa amounts are whole shillings
		PhoneNumber: phone,
		CallBackURL: s.cfg.CallbackURL,
		AccountRef:  reference,
		Description: "Vehicle rental booking",
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		s.cfg.BaseURL+"/mpesa/stkpush/v1/processrequest", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.cfg.APIKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("mpesa push: %v: %w", err, ErrProviderUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return "", fmt.Errorf("mpesa push: status %d: %w", resp.StatusCode, ErrProviderUnavailable)
	}

	var result stkPushResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("mpesa push: decoding response: %w", err)
	}
	if resp.StatusCode != http.StatusOK || result.ResponseCode != "0" {
		msg := result.ErrorMessage
		if msg == "" {
			msg = result.ResponseDesc
		}
		return "", fmt.Errorf("mpesa push: %s: %w", msg, ErrPaymentDeclined)
	}
	return result.CheckoutRequestID, nil
}
