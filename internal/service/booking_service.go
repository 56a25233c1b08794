package service

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"autorent/internal/db"
	"autorent/internal/entities"
	"autorent/internal/ident"
	"autorent/internal/repository"
)

// BookingRepo is the persistence surface the confirmation flow needs.
type BookingRepo interface {
	CreateBooking(b *db.Booking) error
	GetByCorrelationID(correlationID string) (*db.Booking, error)
	GetByCode(code string) (*db.Booking, error)
	GetByProviderPaymentID(providerPaymentID string) (*db.Booking, error)
	UpdateStatuses(id, status, paymentStatus string) error
	HasOverlap(vehicleID string, start, end time.Time) (bool, error)
}

// UserRepo looks up the booking owner for notifications.
type UserRepo interface {
	GetUserByID(id string) (*db.User, error)
}

// Notifier fans out booking lifecycle notifications. Implementations must not
// block the confirmation path.
type Notifier interface {
	BookingConfirmed(user *db.User, booking *db.Booking, vehicle *db.Vehicle)
	BookingCanceled(user *db.User, booking *db.Booking)
}

// ConfirmRequest is the confirmation payload after the provider reported success.
type ConfirmRequest struct {
	PaymentMethod     string
	ProviderPaymentID string
}

// ConfirmResult references the booking the server created.
type ConfirmResult struct {
	BookingID     string
	Code          string
	CorrelationID string
}

// BookingService turns a paid draft into a confirmed booking. It owns the
// single concurrency hazard of the flow: at most one confirmation may be in
// flight per user, and replays of the same correlation id are answered with
// the original booking instead of a duplicate.
type BookingService struct {
	mu         sync.Mutex
	submitting map[string]struct{}

	Bookings     BookingRepo
	Users        UserRepo
	Checkout     *CheckoutService
	card         CardGateway
	notifier     Notifier
	cancelCutoff time.Duration
}

func NewBookingService(bookings BookingRepo, users UserRepo, checkout *CheckoutService, card CardGateway, notifier Notifier, cancelCutoff time.Duration) *BookingService {
	return &BookingService{
		submitting:   make(map[string]struct{}),
		Bookings:     bookings,
		Users:        users,
		Checkout:     checkout,
		card:         card,
		notifier:     notifier,
		cancelCutoff: cancelCutoff,
	}
}

// Confirm validates the draft and payment result, records the booking under
// the draft's correlation id, and cleans up the draft and payment session.
func (s *BookingService) Confirm(ctx context.Context, userID string, req ConfirmRequest) (*ConfirmResult, error) {
	if userID == "" {
		return nil, ErrInvalidUserID
	}
	if !s.acquire(userID) {
		return nil, ErrConfirmationInFlight
	}
	defer s.release(userID)

	draft, err := s.Checkout.LoadDraft(ctx, userID)
	if err != nil {
		return nil, err
	}

	r, err := NewDateRange(draft.StartDate, draft.EndDate)
	if err != nil {
		return nil, err
	}
	if err := r.ValidateNotPast(time.Now()); err != nil {
		return nil, err
	}
	if draft.VehicleID == "" {
		return nil, ErrInvalidVehicleID
	}
	if !ident.Valid(draft.CorrelationID) {
		// A malformed generated id is a client defect. Log the detail, let the
		// api layer show a generic message with no retry.
		log.Printf("Correlation id %q for user %s failed format validation", draft.CorrelationID, userID)
		return nil, ErrInvalidCorrelationID
	}
	switch req.PaymentMethod {
	case MethodCard, MethodMobileMoney, MethodWallet:
	default:
		return nil, ErrUnsupportedMethod
	}
	if req.ProviderPaymentID == "" {
		return nil, ErrSessionNotReady
	}

	// A pending correlation id left over from an earlier draft means a card
	// intent was minted for totals that no longer exist. The charge, if it ever
	// lands, is reconciled by the webhook; here it is only worth flagging.
	if pending, perr := s.Checkout.Drafts.LoadPendingCorrelation(ctx, userID); perr == nil && pending != draft.CorrelationID {
		log.Printf("Pending correlation %s predates draft %s for user %s", pending, draft.CorrelationID, userID)
	}

	// Replay of an already confirmed attempt: answer with the original.
	if existing, err := s.Bookings.GetByCorrelationID(draft.CorrelationID); err == nil {
		log.Printf("Confirmation replay for correlation id %s, returning existing booking %s", draft.CorrelationID, existing.ID)
		s.cleanup(ctx, userID)
		return &ConfirmResult{BookingID: existing.ID, Code: existing.Code, CorrelationID: existing.CorrelationID}, nil
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	overlapping, err := s.Bookings.HasOverlap(draft.VehicleID, r.Start, r.End)
	if err != nil {
		return nil, err
	}
	if overlapping {
		return nil, ErrVehicleUnavailable
	}

	booking := &db.Booking{
		CorrelationID:     draft.CorrelationID,
		Code:              newBookingCode(),
		UserID:            userID,
		VehicleID:         draft.VehicleID,
		StartDate:         r.Start,
		EndDate:           r.End,
		AmountMinor:       draft.TotalMinor,
		Currency:          draft.Currency,
		PaymentMethod:     req.PaymentMethod,
		ProviderPaymentID: req.ProviderPaymentID,
		Status:            entities.BookingStatusConfirmed,
		PaymentStatus:     entities.PaymentStatusSucceeded,
	}

	if err := s.Bookings.CreateBooking(booking); err != nil {
		if errors.Is(err, repository.ErrDuplicateCorrelation) {
			existing, lookupErr := s.Bookings.GetByCorrelationID(draft.CorrelationID)
			if lookupErr != nil {
				return nil, ErrDuplicateBooking
			}
			s.cleanup(ctx, userID)
			return &ConfirmResult{BookingID: existing.ID, Code: existing.Code, CorrelationID: existing.CorrelationID}, nil
		}
		// The provider already captured the payment but the booking could not
		// be recorded. Surface the payment reference so support can reconcile
		// instead of reporting a plain failure.
		log.Printf("Booking insert failed after captured payment %s: %v", req.ProviderPaymentID, err)
		return nil, &PaymentReviewError{Reference: req.ProviderPaymentID}
	}

	s.cleanup(ctx, userID)
	s.notifyConfirmed(booking)

	return &ConfirmResult{BookingID: booking.ID, Code: booking.Code, CorrelationID: booking.CorrelationID}, nil
}

// GetBooking returns a booking by code, scoped to its owner.
func (s *BookingService) GetBooking(userID, code string) (*db.Booking, error) {
	booking, err := s.Bookings.GetByCode(code)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	if booking.UserID != userID {
		return nil, ErrBookingNotFound
	}
	return booking, nil
}

// Cancel cancels a confirmed booking before the cutoff and refunds card
// payments through the provider. Non-card refunds are queued for manual
// processing by support.
func (s *BookingService) Cancel(ctx context.Context, userID, code string) error {
	booking, err := s.GetBooking(userID, code)
	if err != nil {
		return err
	}
	if booking.Status != entities.BookingStatusConfirmed {
		return ErrBookingNotFound
	}
	if time.Until(booking.StartDate) < s.cancelCutoff {
		return ErrCancellationWindowClosed
	}

	paymentStatus := booking.PaymentStatus
	if booking.PaymentMethod == MethodCard && booking.PaymentStatus == entities.PaymentStatusSucceeded {
		if err := s.card.Refund(ctx, booking.ProviderPaymentID); err != nil {
			return err
		}
		paymentStatus = entities.PaymentStatusRefunded
	} else {
		log.Printf("Manual refund required for booking %s (%s payment %s)",
			booking.Code, booking.PaymentMethod, booking.ProviderPaymentID)
	}

	if err := s.Bookings.UpdateStatuses(booking.ID, entities.BookingStatusCanceled, paymentStatus); err != nil {
		return err
	}

	booking.Status = entities.BookingStatusCanceled
	booking.PaymentStatus = paymentStatus
	if user, err := s.Users.GetUserByID(booking.UserID); err == nil {
		s.notifier.BookingCanceled(user, booking)
	} else {
		log.Printf("Could not load user %s for cancellation notice: %v", booking.UserID, err)
	}
	return nil
}

// MarkRefunded records a provider-side refund reported by webhook.
func (s *BookingService) MarkRefunded(providerPaymentID string) error {
	booking, err := s.Bookings.GetByProviderPaymentID(providerPaymentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrBookingNotFound
		}
		return err
	}
	return s.Bookings.UpdateStatuses(booking.ID, entities.BookingStatusCanceled, entities.PaymentStatusRefunded)
}

// ReconcilePaymentSucceeded checks a provider-reported capture against the
// recorded bookings. A capture with no booking under either its payment id or
// its correlation id is an orphan: the money moved but the confirmation never
// landed. Orphans are logged for support with every identifier the provider
// sent; the webhook acknowledges them so the provider stops retrying.
func (s *BookingService) ReconcilePaymentSucceeded(ctx context.Context, providerPaymentID, correlationID, userID string) error {
	if _, err := s.Bookings.GetByProviderPaymentID(providerPaymentID); err == nil {
		return nil
	} else if !errors.Is(err, repository.ErrNotFound) {
		return err
	}

	if correlationID != "" {
		if existing, err := s.Bookings.GetByCorrelationID(correlationID); err == nil {
			log.Printf("Captured payment %s matches booking %s under correlation %s but a different payment id",
				providerPaymentID, existing.ID, correlationID)
			return nil
		} else if !errors.Is(err, repository.ErrNotFound) {
			return err
		}
	}

	if userID != "" {
		if pending, err := s.Checkout.Drafts.LoadPendingCorrelation(ctx, userID); err == nil && pending == correlationID {
			// The user's confirmation may still be on its way.
			log.Printf("Captured payment %s for user %s awaits confirmation (correlation %s)",
				providerPaymentID, userID, correlationID)
			return nil
		}
	}

	log.Printf("Captured payment %s (correlation %s, user %s) has no booking, needs manual review",
		providerPaymentID, correlationID, userID)
	return nil
}

// MarkPaymentReview flags a booking whose captured payment no longer matches
// its recorded state (webhook reconciliation path).
func (s *BookingService) MarkPaymentReview(providerPaymentID string) error {
	booking, err := s.Bookings.GetByProviderPaymentID(providerPaymentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrBookingNotFound
		}
		return err
	}
	return s.Bookings.UpdateStatuses(booking.ID, entities.BookingStatusPaymentReview, booking.PaymentStatus)
}

func (s *BookingService) cleanup(ctx context.Context, userID string) {
	if err := s.Checkout.Drafts.Clear(ctx, userID); err != nil {
		log.Printf("Clearing draft for user %s: %v", userID, err)
	}
	if err := s.Checkout.Drafts.ClearPendingCorrelation(ctx, userID); err != nil {
		log.Printf("Clearing pending correlation for user %s: %v", userID, err)
	}
	s.Checkout.InvalidateSession(userID)
}

func (s *BookingService) notifyConfirmed(booking *db.Booking) {
	user, err := s.Users.GetUserByID(booking.UserID)
	if err != nil {
		log.Printf("Could not load user %s for confirmation notice: %v", booking.UserID, err)
		return
	}
	vehicle, err := s.Checkout.Vehicles.GetVehicleByID(booking.VehicleID)
	if err != nil {
		log.Printf("Could not load vehicle %s for confirmation notice: %v", booking.VehicleID, err)
		return
	}
	s.notifier.BookingConfirmed(user, booking, vehicle)
}

func (s *BookingService) acquire(userID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.submitting[userID]; busy {
		return false
	}
	s.submitting[userID] = struct{}{}
	return true
}

func (s *BookingService) release(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.submitting, userID)
}

// newBookingCode returns the short human-facing booking reference.
func newBookingCode() string {
	return strings.ToUpper(uuid.NewString()[:8])
}
