package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"autorent/internal/service"
)

// Suggested client actions per error class.
const (
	actionFixInput = "fix_input"
	actionRetry    = "retry"
	actionReselect = "reselect"
	actionLogin    = "login"
	actionSupport  = "contact_support"
	actionNone     = "none"
)

// ErrorResponse tells the client what went wrong and what to offer the user.
type ErrorResponse struct {
	Error  string `json:"error"`
	Action string `json:"action"`
}

func respondJSON(w http.ResponseWriter, code int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

// respondError converts a classified service error into a status code, a safe
// user-facing message, and a suggested action. Raw errors never reach the user.
func respondError(w http.ResponseWriter, err error) {
	var review *service.PaymentReviewError
	if errors.As(err, &review) {
		respondJSON(w, http.StatusConflict, ErrorResponse{
			Error: "Your payment was received but the booking could not be completed. " +
				"Please contact support with payment reference " + review.Reference + ".",
			Action: actionSupport,
		})
		return
	}

	if errors.Is(err, service.ErrBookingNotFound) {
		respondJSON(w, http.StatusNotFound, ErrorResponse{Error: "Booking not found.", Action: actionNone})
		return
	}

	switch service.Classify(err) {
	case service.ClassValidation:
		respondJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error(), Action: actionFixInput})
	case service.ClassTransient:
		respondJSON(w, http.StatusServiceUnavailable, ErrorResponse{
			Error:  "Something went wrong, please try again.",
			Action: actionRetry,
		})
	case service.ClassBusiness:
		respondJSON(w, http.StatusConflict, ErrorResponse{
			Error:  businessMessage(err),
			Action: actionReselect,
		})
	case service.ClassAuth:
		respondJSON(w, http.StatusUnauthorized, ErrorResponse{
			Error:  "Your session has expired. Please log in again.",
			Action: actionLogin,
		})
	case service.ClassFatal:
		log.Printf("Fatal client-side defect: %v", err)
		respondJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error:  "Something went wrong. Please start your booking again.",
			Action: actionNone,
		})
	default:
		log.Printf("Internal error: %v", err)
		respondJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error:  "Internal server error.",
			Action: actionRetry,
		})
	}
}

func businessMessage(err error) string {
	switch {
	case errors.Is(err, service.ErrVehicleUnavailable):
		return "This vehicle is no longer available for the selected dates. Please choose again."
	case errors.Is(err, service.ErrPaymentDeclined):
		return "The payment was declined by your provider."
	case errors.Is(err, service.ErrCancellationWindowClosed):
		return "This booking can no longer be canceled online. Please contact support."
	case errors.Is(err, service.ErrStaleSession):
		return "Your payment session changed. Please confirm again."
	default:
		return "This booking can no longer be completed. Please start again."
	}
}
