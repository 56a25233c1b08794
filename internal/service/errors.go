package service

import "errors"

var (
	// ErrEndNotAfterStart is returned when a rental range ends on or before its start date.
	ErrEndNotAfterStart = errors.New("end date must be after start date")

	// ErrStartInPast is returned when a rental range starts before today.
	ErrStartInPast = errors.New("start date is in the past")

	// ErrInvalidDailyRate is returned when a vehicle carries a negative daily rate.
	ErrInvalidDailyRate = errors.New("invalid daily rate")

	// ErrInvalidVehicleID is returned when a vehicle id is missing or malformed.
	ErrInvalidVehicleID = errors.New("invalid vehicle id")

	// ErrInvalidUserID is returned when a user id is missing.
	ErrInvalidUserID = errors.New("invalid user id")

	// ErrInvalidCorrelationID is returned when a generated correlation id fails
	// format validation. Indicates a client defect, not a transient condition.
	ErrInvalidCorrelationID = errors.New("invalid correlation id")

	// ErrInvalidPhone is returned when a mobile-money number does not match the
	// expected numbering plan. No network call is made.
	ErrInvalidPhone = errors.New("invalid mobile money phone number")

	// ErrNoDraft is returned when checkout is entered without a saved booking draft.
	ErrNoDraft = errors.New("no booking draft")

	// ErrVehicleUnavailable is returned when the drafted vehicle can no longer be booked.
	ErrVehicleUnavailable = errors.New("vehicle no longer available")

	// ErrDuplicateBooking is returned when a confirmation would create a second
	// booking for the same correlation id and the original cannot be returned.
	ErrDuplicateBooking = errors.New("duplicate booking")

	// ErrUnsupportedMethod is returned for a payment method outside card/mpesa/paypal.
	ErrUnsupportedMethod = errors.New("unsupported payment method")

	// ErrSessionNotReady is returned when a confirmation references a payment
	// session that never reached the ready state.
	ErrSessionNotReady = errors.New("payment session not ready")

	// ErrStaleSession is returned when a provider result arrives for a session
	// that was replaced by a method switch or a total change.
	ErrStaleSession = errors.New("stale payment session")

	// ErrConfirmationInFlight is returned when a confirmation is submitted while
	// another one for the same draft is still outstanding.
	ErrConfirmationInFlight = errors.New("confirmation already in progress")

	// ErrBookingNotFound is returned when a booking lookup misses.
	ErrBookingNotFound = errors.New("booking not found")

	// ErrCancellationWindowClosed is returned when a cancellation arrives too
	// close to the rental start.
	ErrCancellationWindowClosed = errors.New("cancellation window closed")

	// ErrProviderUnavailable wraps provider/network failures that the user may retry.
	ErrProviderUnavailable = errors.New("payment provider unavailable")

	// ErrPaymentDeclined is returned when the provider rejects the charge itself.
	ErrPaymentDeclined = errors.New("payment declined")

	// ErrPaymentNeedsReview is returned when the provider captured the payment
	// but the booking could not be recorded. The payment reference is preserved
	// so support can reconcile; the caller must not present this as a plain failure.
	ErrPaymentNeedsReview = errors.New("payment captured but booking needs review")
)

// PaymentReviewError carries the provider payment reference for a captured
// payment whose booking could not be recorded, so the user-facing message can
// point support at the right transaction.
type PaymentReviewError struct {
	Reference string
}

func (e *PaymentReviewError) Error() string {
	return "payment " + e.Reference + " captured but booking needs review"
}

func (e *PaymentReviewError) Unwrap() error { return ErrPaymentNeedsReview }

// ErrorClass buckets a failure by what the user can do about it.
type ErrorClass int

const (
	// ClassValidation covers locally detected input problems. Fix the field and resubmit.
	ClassValidation ErrorClass = iota
	// ClassTransient covers network/5xx failures. The same action may be retried.
	ClassTransient
	// ClassBusiness covers rejections that make the draft unactionable. Go back
	// to vehicle selection.
	ClassBusiness
	// ClassAuth covers missing/expired credentials. Log in again; the draft is preserved.
	ClassAuth
	// ClassFatal covers client defects such as a malformed generated id. No retry offered.
	ClassFatal
	// ClassPaymentReview covers captured payments without a recorded booking.
	// Direct the user to support with the payment reference.
	ClassPaymentReview
	// ClassInternal is everything else.
	ClassInternal
)

// Classify maps an error to its ErrorClass. Every failure crossing the api
// boundary goes through here so no raw error reaches the user.
func Classify(err error) ErrorClass {
	switch {
	case errors.Is(err, ErrEndNotAfterStart),
		errors.Is(err, ErrStartInPast),
		errors.Is(err, ErrInvalidDailyRate),
		errors.Is(err, ErrInvalidPhone),
		errors.Is(err, ErrNoDraft),
		errors.Is(err, ErrInvalidVehicleID),
		errors.Is(err, ErrSessionNotReady),
		errors.Is(err, ErrUnsupportedMethod):
		return ClassValidation
	case errors.Is(err, ErrProviderUnavailable),
		errors.Is(err, ErrConfirmationInFlight):
		return ClassTransient
	case errors.Is(err, ErrVehicleUnavailable),
		errors.Is(err, ErrDuplicateBooking),
		errors.Is(err, ErrPaymentDeclined),
		errors.Is(err, ErrCancellationWindowClosed),
		errors.Is(err, ErrStaleSession):
		return ClassBusiness
	case errors.Is(err, ErrInvalidUserID):
		return ClassAuth
	case errors.Is(err, ErrInvalidCorrelationID):
		return ClassFatal
	case errors.Is(err, ErrPaymentNeedsReview):
		return ClassPaymentReview
	default:
		return ClassInternal
	}
}
