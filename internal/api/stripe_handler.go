package api

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"

	"autorent/internal/service"
)

// StripeWebhookHandler reconciles provider-side payment events with bookings.
// The client confirms bookings itself; the webhook is the safety net for
// refunds and for payments that never got a matching confirmation.
type StripeWebhookHandler struct {
	WebhookSecret string
	bookings      *service.BookingService
}

func NewStripeWebhookHandler(webhookSecret string, bookings *service.BookingService) *StripeWebhookHandler {
	return &StripeWebhookHandler{WebhookSecret: webhookSecret, bookings: bookings}
}

func (h *StripeWebhookHandler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	const maxBodyBytes = int64(65536)
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		log.Printf("Error reading webhook body: %v", err)
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	sigHeader := r.Header.Get("Stripe-Signature")
	event, err := webhook.ConstructEvent(payload, sigHeader, h.WebhookSecret)
	if err != nil {
		log.Printf("Webhook signature verification failed: %v", err)
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	switch event.Type {
	case "charge.refunded":
		var charge stripe.Charge
		if err := json.Unmarshal(event.Data.Raw, &charge); err != nil {
			log.Printf("Error parsing charge: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if charge.PaymentIntent == nil || charge.PaymentIntent.ID == "" {
			w.WriteHeader(http.StatusOK)
			return
		}
		if err := h.bookings.MarkRefunded(charge.PaymentIntent.ID); err != nil {
			if errors.Is(err, service.ErrBookingNotFound) {
				log.Printf("Refund for unknown payment %s", charge.PaymentIntent.ID)
				w.WriteHeader(http.StatusOK)
				return
			}
			log.Printf("DB error handling refund: %v", err)
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

	case "payment_intent.succeeded":
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
			log.Printf("Error parsing payment intent: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		// Safety net for captures whose confirmation never arrived.
		if err := h.bookings.ReconcilePaymentSucceeded(r.Context(), pi.ID,
			pi.Metadata["correlation_id"], pi.Metadata["user_id"]); err != nil {
			log.Printf("DB error reconciling payment %s: %v", pi.ID, err)
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

	case "payment_intent.payment_failed":
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
			log.Printf("Error parsing payment intent: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		// A booking recorded against a failed payment needs human eyes.
		if err := h.bookings.MarkPaymentReview(pi.ID); err != nil && !errors.Is(err, service.ErrBookingNotFound) {
			log.Printf("DB error flagging payment %s for review: %v", pi.ID, err)
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

	default:
		log.Printf("Unhandled event type: %s", event.Type)
	}

	w.WriteHeader(http.StatusOK)
}
