package service

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"autorent/internal/db"
	"autorent/internal/entities"
	"autorent/internal/repository"
)

// ──────────────────────────────────────────────
// FAKE DRAFT STORE
// ──────────────────────────────────────────────

type fakeDraftStore struct {
	mu       sync.Mutex
	drafts   map[string]*entities.BookingDraft
	pending  map[string]string
	SaveErr  error
	LoadErr  error
	ClearErr error
}

func newFakeDraftStore() *fakeDraftStore {
	return &fakeDraftStore{
		drafts:  make(map[string]*entities.BookingDraft),
		pending: make(map[string]string),
	}
}

func (f *fakeDraftStore) Save(ctx context.Context, userID string, draft *entities.BookingDraft) error {
	if f.SaveErr != nil {
		return f.SaveErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *draft
	f.drafts[userID] = &copied
	return nil
}

func (f *fakeDraftStore) Load(ctx context.Context, userID string) (*entities.BookingDraft, error) {
	if f.LoadErr != nil {
		return nil, f.LoadErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	draft, ok := f.drafts[userID]
	if !ok {
		return nil, repository.ErrNoDraft
	}
	copied := *draft
	return &copied, nil
}

func (f *fakeDraftStore) Clear(ctx context.Context, userID string) error {
	if f.ClearErr != nil {
		return f.ClearErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.drafts, userID)
	return nil
}

func (f *fakeDraftStore) SavePendingCorrelation(ctx context.Context, userID, correlationID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pending[userID] = correlationID
	return nil
}

func (f *fakeDraftStore) LoadPendingCorrelation(ctx context.Context, userID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, ok := f.pending[userID]
	if !ok {
		return "", repository.ErrNoDraft
	}
	return id, nil
}

func (f *fakeDraftStore) ClearPendingCorrelation(ctx context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.pending, userID)
	return nil
}

func (f *fakeDraftStore) hasDraft(userID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.drafts[userID]
	return ok
}

// ──────────────────────────────────────────────
// FAKE VEHICLE REPOSITORY
// ──────────────────────────────────────────────

type fakeVehicleRepo struct {
	mu       sync.Mutex
	vehicles map[string]*db.Vehicle
	GetErr   error
}

func newFakeVehicleRepo() *fakeVehicleRepo {
	return &fakeVehicleRepo{vehicles: make(map[string]*db.Vehicle)}
}

func (f *fakeVehicleRepo) add(v *db.Vehicle) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.vehicles[v.ID] = v
}

func (f *fakeVehicleRepo) ListVehicles() ([]db.Vehicle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []db.Vehicle
	for _, v := range f.vehicles {
		out = append(out, *v)
	}
	return out, nil
}

func (f *fakeVehicleRepo) GetVehicleByID(id string) (*db.Vehicle, error) {
	if f.GetErr != nil {
		return nil, f.GetErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.vehicles[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *v
	return &copied, nil
}

// ──────────────────────────────────────────────
// FAKE BOOKING REPOSITORY
// ──────────────────────────────────────────────

type fakeBookingRepo struct {
	mu       sync.Mutex
	bookings map[string]*db.Booking // by correlation id
	nextID   int

	CreateCallCount int32
	CreateErr       error
	OnCreate        func() // runs inside CreateBooking, before insert
	OverlapResult   bool
	OverlapErr      error
}

func newFakeBookingRepo() *fakeBookingRepo {
	return &fakeBookingRepo{bookings: make(map[string]*db.Booking)}
}

func (f *fakeBookingRepo) CreateBooking(b *db.Booking) error {
	atomic.AddInt32(&f.CreateCallCount, 1)
	if f.OnCreate != nil {
		f.OnCreate()
	}
	if f.CreateErr != nil {
		return f.CreateErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.bookings[b.CorrelationID]; exists {
		return repository.ErrDuplicateCorrelation
	}
	f.nextID++
	b.ID = "booking-" + strconv.Itoa(f.nextID)
	b.CreatedAt = time.Now()
	b.UpdatedAt = b.CreatedAt
	copied := *b
	f.bookings[b.CorrelationID] = &copied
	return nil
}

// seed inserts a booking directly, bypassing the create hook and counters.
func (f *fakeBookingRepo) seed(b *db.Booking) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	if b.ID == "" {
		b.ID = "booking-" + strconv.Itoa(f.nextID)
	}
	copied := *b
	f.bookings[b.CorrelationID] = &copied
}

func (f *fakeBookingRepo) GetByCorrelationID(correlationID string) (*db.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[correlationID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *b
	return &copied, nil
}

func (f *fakeBookingRepo) GetByCode(code string) (*db.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, b := range f.bookings {
		if b.Code == code {
			copied := *b
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeBookingRepo) GetByProviderPaymentID(providerPaymentID string) (*db.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, b := range f.bookings {
		if b.ProviderPaymentID == providerPaymentID {
			copied := *b
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeBookingRepo) UpdateStatuses(id, status, paymentStatus string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, b := range f.bookings {
		if b.ID == id {
			b.Status = status
			b.PaymentStatus = paymentStatus
			return nil
		}
	}
	return repository.ErrNotFound
}

func (f *fakeBookingRepo) HasOverlap(vehicleID string, start, end time.Time) (bool, error) {
	if f.OverlapErr != nil {
		return false, f.OverlapErr
	}
	return f.OverlapResult, nil
}

// ──────────────────────────────────────────────
// FAKE USER REPOSITORY
// ──────────────────────────────────────────────

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*db.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*db.User)}
}

func (f *fakeUserRepo) add(u *db.User) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[u.ID] = u
}

func (f *fakeUserRepo) GetUserByID(id string) (*db.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *u
	return &copied, nil
}

func (f *fakeUserRepo) GetUserByEmail(email string) (*db.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeUserRepo) CreateUser(u *db.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u.ID = "user-" + u.Email
	f.users[u.ID] = u
	return nil
}

// ──────────────────────────────────────────────
// FAKE PAYMENT GATEWAYS
// ──────────────────────────────────────────────

type fakeCardGateway struct {
	CreateCallCount int32
	RefundCallCount int32
	CreateErr       error
	RefundErr       error
	Secret          string
	IntentID        string
	OnCreate        func() // runs inside CreateIntent, before returning
}

func (f *fakeCardGateway) CreateIntent(ctx context.Context, amountMinor int64, currency string, metadata map[string]string) (string, string, error) {
	atomic.AddInt32(&f.CreateCallCount, 1)
	if f.OnCreate != nil {
		f.OnCreate()
	}
	if f.CreateErr != nil {
		return "", "", f.CreateErr
	}
	return f.Secret, f.IntentID, nil
}

func (f *fakeCardGateway) Refund(ctx context.Context, paymentIntentID string) error {
	atomic.AddInt32(&f.RefundCallCount, 1)
	return f.RefundErr
}

type fakeMobileGateway struct {
	PushCallCount int32
	PushErr       error
	Receipt       string
	LastPhone     string
}

func (f *fakeMobileGateway) Push(ctx context.Context, phone string, amountMinor int64, reference string) (string, error) {
	atomic.AddInt32(&f.PushCallCount, 1)
	f.LastPhone = phone
	if f.PushErr != nil {
		return "", f.PushErr
	}
	return f.Receipt, nil
}

type fakeWalletGateway struct {
	ChargeCallCount int32
	ChargeErr       error
	CaptureID       string
}

func (f *fakeWalletGateway) Charge(ctx context.Context, amountMinor int64, currency, reference string) (string, error) {
	atomic.AddInt32(&f.ChargeCallCount, 1)
	if f.ChargeErr != nil {
		return "", f.ChargeErr
	}
	return f.CaptureID, nil
}

// ──────────────────────────────────────────────
// FAKE NOTIFIER
// ──────────────────────────────────────────────

type fakeNotifier struct {
	ConfirmedCount int32
	CanceledCount  int32
}

func (f *fakeNotifier) BookingConfirmed(user *db.User, booking *db.Booking, vehicle *db.Vehicle) {
	atomic.AddInt32(&f.ConfirmedCount, 1)
}

func (f *fakeNotifier) BookingCanceled(user *db.User, booking *db.Booking) {
	atomic.AddInt32(&f.CanceledCount, 1)
}
