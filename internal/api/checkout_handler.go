package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"autorent/internal/auth"
	"autorent/internal/entities"
	"autorent/internal/service"
)

const dateLayout = "2006-01-02"

// CheckoutHandler exposes the booking checkout flow: draft management, the
// three payment paths, and booking confirmation/cancellation.
type CheckoutHandler struct {
	Checkout *service.CheckoutService
	Bookings *service.BookingService
}

func NewCheckoutHandler(checkout *service.CheckoutService, bookings *service.BookingService) *CheckoutHandler {
	return &CheckoutHandler{Checkout: checkout, Bookings: bookings}
}

// CreateDraft saves the user's vehicle + date selection, overwriting any
// previous draft. Dates are calendar days without a time component.
func (h *CheckoutHandler) CreateDraft(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req CreateDraftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	start, err := time.Parse(dateLayout, req.StartDate)
	if err != nil {
		http.Error(w, "start_date must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	end, err := time.Parse(dateLayout, req.EndDate)
	if err != nil {
		http.Error(w, "end_date must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	draft, err := h.Checkout.CreateDraft(r.Context(), claims.UserID, req.VehicleID, start, end)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, draftResponse(draft))
}

func (h *CheckoutHandler) GetDraft(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	draft, err := h.Checkout.LoadDraft(r.Context(), claims.UserID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, draftResponse(draft))
}

func (h *CheckoutHandler) CancelDraft(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	if err := h.Checkout.CancelDraft(r.Context(), claims.UserID); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Draft discarded"})
}

// CreateIntent starts a card payment session for the current draft and returns
// the provider secret for the embedded card widget.
func (h *CheckoutHandler) CreateIntent(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	sess, err := h.Checkout.SelectMethod(r.Context(), claims.UserID, service.CardPayment{})
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, CreateIntentResponse{
		ProviderSecret: sess.ProviderSecret,
		CorrelationID:  sess.CorrelationID,
		AmountMinor:    sess.AmountMinor,
		Currency:       sess.Currency,
		Status:         string(sess.Status),
	})
}

// ConfirmPayment records the booking after the card widget reported success.
func (h *CheckoutHandler) ConfirmPayment(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req ConfirmPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	result, err := h.Bookings.Confirm(r.Context(), claims.UserID, service.ConfirmRequest{
		PaymentMethod:     req.PaymentMethod,
		ProviderPaymentID: req.ProviderPaymentID,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, BookingResultResponse{
		Success:       true,
		BookingID:     result.BookingID,
		BookingCode:   result.Code,
		CorrelationID: result.CorrelationID,
	})
}

// MpesaPayment runs the full mobile-money path: local phone validation, STK
// push, then booking confirmation with the push receipt.
func (h *CheckoutHandler) MpesaPayment(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req MpesaPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if _, err := h.Checkout.SelectMethod(r.Context(), claims.UserID, service.MobileMoneyPayment{Phone: req.Phone}); err != nil {
		respondError(w, err)
		return
	}
	sess, err := h.Checkout.ConfirmMobileMoney(r.Context(), claims.UserID, req.Phone)
	if err != nil {
		respondError(w, err)
		return
	}
	h.confirmBooking(w, r, claims.UserID, service.MethodMobileMoney, sess.ProviderPaymentID)
}

// PaypalPayment charges the wallet and confirms the booking.
func (h *CheckoutHandler) PaypalPayment(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if _, err := h.Checkout.SelectMethod(r.Context(), claims.UserID, service.WalletPayment{}); err != nil {
		respondError(w, err)
		return
	}
	sess, err := h.Checkout.ConfirmWallet(r.Context(), claims.UserID)
	if err != nil {
		respondError(w, err)
		return
	}
	h.confirmBooking(w, r, claims.UserID, service.MethodWallet, sess.ProviderPaymentID)
}

func (h *CheckoutHandler) confirmBooking(w http.ResponseWriter, r *http.Request, userID, method, providerPaymentID string) {
	result, err := h.Bookings.Confirm(r.Context(), userID, service.ConfirmRequest{
		PaymentMethod:     method,
		ProviderPaymentID: providerPaymentID,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, BookingResultResponse{
		Success:       true,
		BookingID:     result.BookingID,
		BookingCode:   result.Code,
		CorrelationID: result.CorrelationID,
	})
}

func (h *CheckoutHandler) GetBooking(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	code := mux.Vars(r)["code"]
	booking, err := h.Bookings.GetBooking(claims.UserID, code)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, entities.BookingResponse{
		ID:                booking.ID,
		Code:              booking.Code,
		CorrelationID:     booking.CorrelationID,
		VehicleID:         booking.VehicleID,
		StartDate:         booking.StartDate,
		EndDate:           booking.EndDate,
		AmountMinor:       booking.AmountMinor,
		Currency:          booking.Currency,
		PaymentMethod:     booking.PaymentMethod,
		ProviderPaymentID: booking.ProviderPaymentID,
		Status:            booking.Status,
		PaymentStatus:     booking.PaymentStatus,
		CreatedAt:         booking.CreatedAt,
	})
}

func (h *CheckoutHandler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	code := mux.Vars(r)["code"]
	if err := h.Bookings.Cancel(r.Context(), claims.UserID, code); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Booking canceled"})
}

func draftResponse(draft *entities.BookingDraft) DraftResponse {
	days := service.DurationDays(draft.StartDate, draft.EndDate)
	return DraftResponse{
		VehicleID:      draft.VehicleID,
		StartDate:      draft.StartDate.Format(dateLayout),
		EndDate:        draft.EndDate.Format(dateLayout),
		DurationDays:   days,
		DailyRateMinor: draft.DailyRateMinor,
		TotalMinor:     draft.TotalMinor,
		Currency:       draft.Currency,
		CorrelationID:  draft.CorrelationID,
	}
}
