package service

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"autorent/internal/db"
	"autorent/internal/entities"
	"autorent/internal/ident"
	"autorent/internal/repository"
)

// Payment method names as they travel on the wire.
const (
	MethodCard        = "card"
	MethodMobileMoney = "mpesa"
	MethodWallet      = "paypal"
)

// SessionStatus is the payment session state.
type SessionStatus string

const (
	SessionUninitialized SessionStatus = "uninitialized"
	SessionInitializing  SessionStatus = "initializing"
	SessionReady         SessionStatus = "ready"
	SessionError         SessionStatus = "error"
	SessionAwaitingInput SessionStatus = "awaiting_input"
	SessionProcessing    SessionStatus = "processing"
	SessionSucceeded     SessionStatus = "succeeded"
	SessionFailed        SessionStatus = "failed"
)

// PaymentMethod is a closed set of payment paths. Each variant carries only
// the fields that apply to it, so a handler can never read a card field off a
// mobile-money selection.
type PaymentMethod interface {
	name() string
}

type CardPayment struct{}

type MobileMoneyPayment struct {
	Phone string
}

type WalletPayment struct{}

func (CardPayment) name() string        { return MethodCard }
func (MobileMoneyPayment) name() string { return MethodMobileMoney }
func (WalletPayment) name() string      { return MethodWallet }

// PaymentSession is the per-user state of the selected payment path. Owned
// exclusively by the checkout service; callers only ever see copies.
type PaymentSession struct {
	Method            string
	CorrelationID     string
	AmountMinor       int64
	Currency          string
	ProviderSecret    string
	ProviderPaymentID string
	Status            SessionStatus
	FailureReason     string

	generation uint64
}

// CardGateway creates a provider-side payment session for the embedded card widget.
type CardGateway interface {
	CreateIntent(ctx context.Context, amountMinor int64, currency string, metadata map[string]string) (clientSecret, intentID string, err error)
	Refund(ctx context.Context, paymentIntentID string) error
}

// MobileMoneyGateway pushes a charge approval to the subscriber's handset.
type MobileMoneyGateway interface {
	Push(ctx context.Context, phone string, amountMinor int64, reference string) (receiptID string, err error)
}

// WalletGateway charges a wallet account.
type WalletGateway interface {
	Charge(ctx context.Context, amountMinor int64, currency, reference string) (captureID string, err error)
}

// VehicleRepo is the catalog access the checkout flow needs.
type VehicleRepo interface {
	ListVehicles() ([]db.Vehicle, error)
	GetVehicleByID(id string) (*db.Vehicle, error)
}

// CheckoutService owns the booking draft and the payment session state machine.
//
// Sessions are guarded by a per-user generation counter: selecting a method,
// changing dates, or clearing the draft bumps the generation, and any provider
// result that comes back for an older generation is discarded instead of
// mutating the fresh session.
type CheckoutService struct {
	mu       sync.Mutex
	sessions map[string]*PaymentSession
	gens     map[string]uint64

	Drafts   repository.DraftStore
	Vehicles VehicleRepo
	card     CardGateway
	mobile   MobileMoneyGateway
	wallet   WalletGateway
	currency string
}

func NewCheckoutService(drafts repository.DraftStore, vehicles VehicleRepo, card CardGateway, mobile MobileMoneyGateway, wallet WalletGateway, currency string) *CheckoutService {
	return &CheckoutService{
		sessions: make(map[string]*PaymentSession),
		gens:     make(map[string]uint64),
		Drafts:   drafts,
		Vehicles: vehicles,
		card:     card,
		mobile:   mobile,
		wallet:   wallet,
		currency: currency,
	}
}

// CreateDraft validates the dates, computes the total, and saves the draft,
// overwriting any previous one. A fresh correlation id is minted here and
// reused across retries of the same confirmation attempt. Any existing payment
// session is invalidated because its total may now be stale.
func (s *CheckoutService) CreateDraft(ctx context.Context, userID, vehicleID string, start, end time.Time) (*entities.BookingDraft, error) {
	if vehicleID == "" {
		return nil, ErrInvalidVehicleID
	}

	r, err := NewDateRange(start, end)
	if err != nil {
		return nil, err
	}
	if err := r.ValidateNotPast(time.Now()); err != nil {
		return nil, err
	}

	vehicle, err := s.Vehicles.GetVehicleByID(vehicleID)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, ErrInvalidVehicleID
		}
		return nil, err
	}
	if !vehicle.Available {
		return nil, ErrVehicleUnavailable
	}

	total, err := ComputeTotal(vehicle.DailyRateMinor, r)
	if err != nil {
		return nil, err
	}

	draft := &entities.BookingDraft{
		VehicleID:      vehicle.ID,
		StartDate:      r.Start,
		EndDate:        r.End,
		DailyRateMinor: vehicle.DailyRateMinor,
		TotalMinor:     total,
		Currency:       s.currency,
		CorrelationID:  ident.New(),
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.Drafts.Save(ctx, userID, draft); err != nil {
		return nil, fmt.Errorf("saving draft: %w", err)
	}

	// Dates changed, so a ready card session would carry a stale total.
	s.InvalidateSession(userID)

	return draft, nil
}

// LoadDraft returns the current draft or ErrNoDraft.
func (s *CheckoutService) LoadDraft(ctx context.Context, userID string) (*entities.BookingDraft, error) {
	draft, err := s.Drafts.Load(ctx, userID)
	if err != nil {
		if err == repository.ErrNoDraft {
			return nil, ErrNoDraft
		}
		return nil, err
	}
	return draft, nil
}

// CancelDraft discards the draft and its payment session on explicit user cancellation.
func (s *CheckoutService) CancelDraft(ctx context.Context, userID string) error {
	s.InvalidateSession(userID)
	if err := s.Drafts.ClearPendingCorrelation(ctx, userID); err != nil {
		log.Printf("Clearing pending correlation for user %s: %v", userID, err)
	}
	return s.Drafts.Clear(ctx, userID)
}

// InvalidateSession drops the user's payment session and bumps the generation
// so results from in-flight provider calls for the old session are discarded.
func (s *CheckoutService) InvalidateSession(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gens[userID]++
	delete(s.sessions, userID)
}

// Session returns a snapshot of the user's payment session, if any.
func (s *CheckoutService) Session(userID string) (PaymentSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[userID]
	if !ok {
		return PaymentSession{}, false
	}
	return *sess, true
}

// SelectMethod starts a fresh payment session for the chosen method. The card
// path synchronously requests a provider session and lands in ready or error;
// mobile money waits for a phone number; wallet waits for an explicit confirm.
func (s *CheckoutService) SelectMethod(ctx context.Context, userID string, method PaymentMethod) (PaymentSession, error) {
	// A number supplied at selection time is checked before any session state
	// is touched, so the user sees the field error immediately.
	if m, ok := method.(MobileMoneyPayment); ok && m.Phone != "" {
		if _, err := NormalizeMpesaPhone(m.Phone); err != nil {
			return PaymentSession{}, err
		}
	}

	draft, err := s.LoadDraft(ctx, userID)
	if err != nil {
		return PaymentSession{}, err
	}

	sess := &PaymentSession{
		Method:        method.name(),
		CorrelationID: ident.New(),
		AmountMinor:   draft.TotalMinor,
		Currency:      draft.Currency,
		Status:        SessionUninitialized,
	}

	s.mu.Lock()
	s.gens[userID]++
	sess.generation = s.gens[userID]
	s.sessions[userID] = sess
	s.mu.Unlock()

	switch method.(type) {
	case CardPayment:
		return s.initCardSession(ctx, userID, draft, sess.generation)
	case MobileMoneyPayment:
		s.transition(userID, sess.generation, func(p *PaymentSession) {
			p.Status = SessionAwaitingInput
		})
	case WalletPayment:
		// Stays uninitialized until ConfirmWallet.
	default:
		return PaymentSession{}, ErrUnsupportedMethod
	}

	snap, _ := s.Session(userID)
	return snap, nil
}

func (s *CheckoutService) initCardSession(ctx context.Context, userID string, draft *entities.BookingDraft, gen uint64) (PaymentSession, error) {
	if !s.transition(userID, gen, func(p *PaymentSession) { p.Status = SessionInitializing }) {
		return PaymentSession{}, ErrStaleSession
	}

	secret, intentID, err := s.card.CreateIntent(ctx, draft.TotalMinor, draft.Currency, map[string]string{
		"correlation_id": draft.CorrelationID,
		"vehicle_id":     draft.VehicleID,
		"user_id":        userID,
	})

	var applied bool
	if err != nil {
		applied = s.transition(userID, gen, func(p *PaymentSession) {
			p.Status = SessionError
			p.FailureReason = "could not start card payment"
		})
	} else {
		applied = s.transition(userID, gen, func(p *PaymentSession) {
			p.Status = SessionReady
			p.ProviderSecret = secret
			p.ProviderPaymentID = intentID
		})
	}
	if !applied {
		// The user switched away while the provider call was in flight.
		log.Printf("Discarding stale card session result for user %s", userID)
		return PaymentSession{}, ErrStaleSession
	}
	if err != nil {
		return PaymentSession{}, err
	}

	if err := s.Drafts.SavePendingCorrelation(ctx, userID, draft.CorrelationID); err != nil {
		log.Printf("Saving pending correlation for user %s: %v", userID, err)
	}

	snap, _ := s.Session(userID)
	return snap, nil
}

// ConfirmMobileMoney validates the number locally, then pushes the charge.
// A malformed number fails with ErrInvalidPhone before any network call.
func (s *CheckoutService) ConfirmMobileMoney(ctx context.Context, userID, phone string) (PaymentSession, error) {
	normalized, err := NormalizeMpesaPhone(phone)
	if err != nil {
		return PaymentSession{}, err
	}

	sess, gen, err := s.currentSession(userID, MethodMobileMoney)
	if err != nil {
		return PaymentSession{}, err
	}

	if !s.transition(userID, gen, func(p *PaymentSession) { p.Status = SessionProcessing }) {
		return PaymentSession{}, ErrStaleSession
	}

	receipt, pushErr := s.mobile.Push(ctx, normalized, sess.AmountMinor, sess.CorrelationID)
	return s.settle(userID, gen, receipt, pushErr)
}

// ConfirmWallet charges the wallet for the session amount.
func (s *CheckoutService) ConfirmWallet(ctx context.Context, userID string) (PaymentSession, error) {
	sess, gen, err := s.currentSession(userID, MethodWallet)
	if err != nil {
		return PaymentSession{}, err
	}

	if !s.transition(userID, gen, func(p *PaymentSession) { p.Status = SessionProcessing }) {
		return PaymentSession{}, ErrStaleSession
	}

	captureID, chargeErr := s.wallet.Charge(ctx, sess.AmountMinor, sess.Currency, sess.CorrelationID)
	return s.settle(userID, gen, captureID, chargeErr)
}

// settle applies a provider result to the session, unless the session was
// replaced while the call was outstanding.
func (s *CheckoutService) settle(userID string, gen uint64, providerID string, callErr error) (PaymentSession, error) {
	var applied bool
	if callErr != nil {
		applied = s.transition(userID, gen, func(p *PaymentSession) {
			p.Status = SessionFailed
			p.FailureReason = "payment was not completed"
		})
	} else {
		applied = s.transition(userID, gen, func(p *PaymentSession) {
			p.Status = SessionSucceeded
			p.ProviderPaymentID = providerID
		})
	}
	if !applied {
		log.Printf("Discarding stale payment result for user %s", userID)
		return PaymentSession{}, ErrStaleSession
	}
	if callErr != nil {
		return PaymentSession{}, callErr
	}
	snap, _ := s.Session(userID)
	return snap, nil
}

func (s *CheckoutService) currentSession(userID, wantMethod string) (PaymentSession, uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[userID]
	if !ok || sess.Method != wantMethod {
		return PaymentSession{}, 0, ErrSessionNotReady
	}
	return *sess, sess.generation, nil
}

// transition mutates the session only if gen is still the current generation.
// Returns false when the result belongs to an abandoned session.
func (s *CheckoutService) transition(userID string, gen uint64, mutate func(*PaymentSession)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[userID]
	if !ok || sess.generation != gen {
		return false
	}
	mutate(sess)
	return true
}
