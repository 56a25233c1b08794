package service

import (
	"context"
	"fmt"
	"log"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/paymentintent"
	"github.com/stripe/stripe-go/v82/refund"
)

// StripeService is the card gateway. The client secret of the created
// PaymentIntent is the provider secret handed to the embedded card widget.
type StripeService struct{}

func NewStripeService(apiKey string) *StripeService {
	stripe.Key = apiKey
	return &StripeService{}
}

func (s *StripeService) CreateIntent(ctx context.Context, amountMinor int64, currency string, metadata map[string]string) (string, string, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amountMinor),
		Currency: stripe.String(currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}

	pi, err := paymentintent.New(params)
	if err != nil {
		return "", "", classifyStripeErr("create payment intent", err)
	}
	log.Printf("PaymentIntent %s created with status %s", pi.ID, pi.Status)
	return pi.ClientSecret, pi.ID, nil
}

func (s *StripeService) Refund(ctx context.Context, paymentIntentID string) error {
	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(paymentIntentID),
	}
	params.Context = ctx
	if _, err := refund.New(params); err != nil {
		return classifyStripeErr("refund", err)
	}
	return nil
}

func classifyStripeErr(op string, err error) error {
	if stripeErr, ok := err.(*stripe.Error); ok {
		if stripeErr.HTTPStatusCode >= 500 {
			return fmt.Errorf("stripe %s: %v: %w", op, stripeErr.Code, ErrProviderUnavailable)
		}
		if stripeErr.Type == stripe.ErrorTypeCard {
			return fmt.Errorf("stripe %s: %v: %w", op, stripeErr.Code, ErrPaymentDeclined)
		}
		return fmt.Errorf("stripe %s: %w", op, err)
	}
	// Transport-level failure, retryable.
	return fmt.Errorf("stripe %s: %v: %w", op, err, ErrProviderUnavailable)
}
