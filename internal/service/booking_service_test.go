package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autorent/internal/db"
	"autorent/internal/entities"
)

type bookingFixture struct {
	checkout *checkoutFixture
	svc      *BookingService
	bookings *fakeBookingRepo
	users    *fakeUserRepo
	notifier *fakeNotifier
}

func newBookingFixture() *bookingFixture {
	cf := newCheckoutFixture()
	bf := &bookingFixture{
		checkout: cf,
		bookings: newFakeBookingRepo(),
		users:    newFakeUserRepo(),
		notifier: &fakeNotifier{},
	}
	bf.users.add(&db.User{ID: "user-1", FullName: "Jane Wanjiku", Email: "jane@example.com"})
	bf.svc = NewBookingService(bf.bookings, bf.users, cf.svc, cf.card, bf.notifier, 24*time.Hour)
	return bf
}

func cardConfirm() ConfirmRequest {
	return ConfirmRequest{PaymentMethod: MethodCard, ProviderPaymentID: "pi_123"}
}

func TestConfirmCreatesBookingAndClearsDraft(t *testing.T) {
	t.Parallel()

	f := newBookingFixture()
	f.checkout.mustCreateDraft(t, "user-1", 5)

	res, err := f.svc.Confirm(context.Background(), "user-1", cardConfirm())
	require.NoError(t, err)

	assert.NotEmpty(t, res.BookingID)
	assert.Len(t, res.Code, 8)
	assert.NotEmpty(t, res.CorrelationID)

	booking, err := f.bookings.GetByCorrelationID(res.CorrelationID)
	require.NoError(t, err)
	assert.Equal(t, entities.BookingStatusConfirmed, booking.Status)
	assert.Equal(t, entities.PaymentStatusSucceeded, booking.PaymentStatus)
	assert.Equal(t, int64(5*9000), booking.AmountMinor)
	assert.Equal(t, "pi_123", booking.ProviderPaymentID)

	// Draft and session are gone once the booking exists.
	assert.False(t, f.checkout.drafts.hasDraft("user-1"))
	_, ok := f.checkout.svc.Session("user-1")
	assert.False(t, ok)

	assert.EqualValues(t, 1, f.notifier.ConfirmedCount)
}

func TestConfirmWithoutDraftFails(t *testing.T) {
	t.Parallel()

	f := newBookingFixture()
	_, err := f.svc.Confirm(context.Background(), "user-1", cardConfirm())
	assert.ErrorIs(t, err, ErrNoDraft)
	assert.EqualValues(t, 0, f.bookings.CreateCallCount)
}

func TestConfirmReplayReturnsOriginalBooking(t *testing.T) {
	t.Parallel()

	f := newBookingFixture()
	f.checkout.mustCreateDraft(t, "user-1", 5)

	draft, err := f.checkout.svc.LoadDraft(context.Background(), "user-1")
	require.NoError(t, err)

	first, err := f.svc.Confirm(context.Background(), "user-1", cardConfirm())
	require.NoError(t, err)

	// A retried request re-sends the same draft with the same correlation id.
	require.NoError(t, f.checkout.drafts.Save(context.Background(), "user-1", draft))

	second, err := f.svc.Confirm(context.Background(), "user-1", cardConfirm())
	require.NoError(t, err)

	assert.Equal(t, first.BookingID, second.BookingID)
	assert.Equal(t, first.Code, second.Code)
	assert.EqualValues(t, 1, f.bookings.CreateCallCount, "replay must not insert a second booking")
}

func TestConfirmDuplicateAtInsertReturnsWinner(t *testing.T) {
	t.Parallel()

	f := newBookingFixture()
	f.checkout.mustCreateDraft(t, "user-1", 5)

	draft, err := f.checkout.svc.LoadDraft(context.Background(), "user-1")
	require.NoError(t, err)

	// A racing confirmation wins between the replay check and the insert.
	f.bookings.OnCreate = func() {
		f.bookings.seed(&db.Booking{
			ID:            "booking-winner",
			CorrelationID: draft.CorrelationID,
			Code:          "ABCD1234",
			UserID:        "user-1",
			Status:        entities.BookingStatusConfirmed,
			PaymentStatus: entities.PaymentStatusSucceeded,
		})
	}

	res, err := f.svc.Confirm(context.Background(), "user-1", cardConfirm())
	require.NoError(t, err)

	assert.Equal(t, "booking-winner", res.BookingID)
	assert.Equal(t, "ABCD1234", res.Code)
	assert.False(t, f.checkout.drafts.hasDraft("user-1"))
}

func TestConfirmOverlapRejectsAndKeepsDraft(t *testing.T) {
	t.Parallel()

	f := newBookingFixture()
	f.checkout.mustCreateDraft(t, "user-1", 5)

	f.bookings.OverlapResult = true
	_, err := f.svc.Confirm(context.Background(), "user-1", cardConfirm())
	assert.ErrorIs(t, err, ErrVehicleUnavailable)

	assert.EqualValues(t, 0, f.bookings.CreateCallCount)
	assert.True(t, f.checkout.drafts.hasDraft("user-1"), "draft survives so the user can pick new dates")
}

func TestConfirmInsertFailureSurfacesPaymentReference(t *testing.T) {
	t.Parallel()

	f := newBookingFixture()
	f.checkout.mustCreateDraft(t, "user-1", 5)

	f.bookings.CreateErr = errors.New("connection reset")
	_, err := f.svc.Confirm(context.Background(), "user-1", cardConfirm())

	var review *PaymentReviewError
	require.ErrorAs(t, err, &review)
	assert.Equal(t, "pi_123", review.Reference)
	assert.ErrorIs(t, err, ErrPaymentNeedsReview)

	// The money moved; the draft must stay for reconciliation.
	assert.True(t, f.checkout.drafts.hasDraft("user-1"))
	assert.EqualValues(t, 0, f.notifier.ConfirmedCount)
}

func TestConfirmRejectsMalformedCorrelationID(t *testing.T) {
	t.Parallel()

	f := newBookingFixture()
	start, end := futureRange(t, 5)
	require.NoError(t, f.checkout.drafts.Save(context.Background(), "user-1", &entities.BookingDraft{
		VehicleID:      "veh-1",
		StartDate:      start,
		EndDate:        end,
		DailyRateMinor: 9000,
		TotalMinor:     45000,
		Currency:       "kes",
		CorrelationID:  "not-a-uuid",
	}))

	_, err := f.svc.Confirm(context.Background(), "user-1", cardConfirm())
	assert.ErrorIs(t, err, ErrInvalidCorrelationID)
	assert.EqualValues(t, 0, f.bookings.CreateCallCount)
}

func TestConfirmInputValidation(t *testing.T) {
	t.Parallel()

	f := newBookingFixture()
	f.checkout.mustCreateDraft(t, "user-1", 5)
	ctx := context.Background()

	_, err := f.svc.Confirm(ctx, "", cardConfirm())
	assert.ErrorIs(t, err, ErrInvalidUserID)

	_, err = f.svc.Confirm(ctx, "user-1", ConfirmRequest{PaymentMethod: "cash", ProviderPaymentID: "x"})
	assert.ErrorIs(t, err, ErrUnsupportedMethod)

	_, err = f.svc.Confirm(ctx, "user-1", ConfirmRequest{PaymentMethod: MethodCard})
	assert.ErrorIs(t, err, ErrSessionNotReady)
}

func TestConfirmRejectsConcurrentSubmission(t *testing.T) {
	t.Parallel()

	f := newBookingFixture()
	f.checkout.mustCreateDraft(t, "user-1", 5)

	var reentrantErr error
	f.bookings.OnCreate = func() {
		_, reentrantErr = f.svc.Confirm(context.Background(), "user-1", cardConfirm())
	}

	_, err := f.svc.Confirm(context.Background(), "user-1", cardConfirm())
	require.NoError(t, err)
	assert.ErrorIs(t, reentrantErr, ErrConfirmationInFlight)
	assert.EqualValues(t, 1, f.bookings.CreateCallCount)
}

func TestGetBookingIsOwnerScoped(t *testing.T) {
	t.Parallel()

	f := newBookingFixture()
	f.checkout.mustCreateDraft(t, "user-1", 5)

	res, err := f.svc.Confirm(context.Background(), "user-1", cardConfirm())
	require.NoError(t, err)

	booking, err := f.svc.GetBooking("user-1", res.Code)
	require.NoError(t, err)
	assert.Equal(t, res.BookingID, booking.ID)

	_, err = f.svc.GetBooking("user-2", res.Code)
	assert.ErrorIs(t, err, ErrBookingNotFound)

	_, err = f.svc.GetBooking("user-1", "NOPE0000")
	assert.ErrorIs(t, err, ErrBookingNotFound)
}

func TestCancelRefundsCardPayment(t *testing.T) {
	t.Parallel()

	f := newBookingFixture()
	f.checkout.mustCreateDraft(t, "user-1", 5)

	res, err := f.svc.Confirm(context.Background(), "user-1", cardConfirm())
	require.NoError(t, err)

	require.NoError(t, f.svc.Cancel(context.Background(), "user-1", res.Code))

	assert.EqualValues(t, 1, f.checkout.card.RefundCallCount)
	booking, err := f.bookings.GetByCorrelationID(res.CorrelationID)
	require.NoError(t, err)
	assert.Equal(t, entities.BookingStatusCanceled, booking.Status)
	assert.Equal(t, entities.PaymentStatusRefunded, booking.PaymentStatus)
	assert.EqualValues(t, 1, f.notifier.CanceledCount)
}

func TestCancelMobileMoneyLeavesRefundToSupport(t *testing.T) {
	t.Parallel()

	f := newBookingFixture()
	f.checkout.mustCreateDraft(t, "user-1", 5)

	res, err := f.svc.Confirm(context.Background(), "user-1", ConfirmRequest{
		PaymentMethod:     MethodMobileMoney,
		ProviderPaymentID: "ws_CO_191220191020363925",
	})
	require.NoError(t, err)

	require.NoError(t, f.svc.Cancel(context.Background(), "user-1", res.Code))

	assert.EqualValues(t, 0, f.checkout.card.RefundCallCount)
	booking, err := f.bookings.GetByCorrelationID(res.CorrelationID)
	require.NoError(t, err)
	assert.Equal(t, entities.BookingStatusCanceled, booking.Status)
	assert.Equal(t, entities.PaymentStatusSucceeded, booking.PaymentStatus)
}

func TestCancelRejectsInsideCutoffWindow(t *testing.T) {
	t.Parallel()

	f := newBookingFixture()

	// Booking starts tomorrow at midnight, inside the 24h cutoff.
	start := time.Now().AddDate(0, 0, 1)
	_, err := f.checkout.svc.CreateDraft(context.Background(), "user-1", "veh-1", start, start.AddDate(0, 0, 3))
	require.NoError(t, err)

	res, err := f.svc.Confirm(context.Background(), "user-1", cardConfirm())
	require.NoError(t, err)

	err = f.svc.Cancel(context.Background(), "user-1", res.Code)
	assert.ErrorIs(t, err, ErrCancellationWindowClosed)
	assert.EqualValues(t, 0, f.checkout.card.RefundCallCount)
}

func TestCancelFailedRefundLeavesBookingConfirmed(t *testing.T) {
	t.Parallel()

	f := newBookingFixture()
	f.checkout.mustCreateDraft(t, "user-1", 5)

	res, err := f.svc.Confirm(context.Background(), "user-1", cardConfirm())
	require.NoError(t, err)

	f.checkout.card.RefundErr = ErrProviderUnavailable
	err = f.svc.Cancel(context.Background(), "user-1", res.Code)
	assert.ErrorIs(t, err, ErrProviderUnavailable)

	booking, err := f.bookings.GetByCorrelationID(res.CorrelationID)
	require.NoError(t, err)
	assert.Equal(t, entities.BookingStatusConfirmed, booking.Status)
}

func TestReconcilePaymentSucceeded(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("known payment id is a no-op", func(t *testing.T) {
		t.Parallel()
		f := newBookingFixture()
		f.checkout.mustCreateDraft(t, "user-1", 5)
		res, err := f.svc.Confirm(ctx, "user-1", cardConfirm())
		require.NoError(t, err)

		require.NoError(t, f.svc.ReconcilePaymentSucceeded(ctx, "pi_123", res.CorrelationID, "user-1"))
		assert.EqualValues(t, 1, f.bookings.CreateCallCount)
	})

	t.Run("booking found under correlation id", func(t *testing.T) {
		t.Parallel()
		f := newBookingFixture()
		f.bookings.seed(&db.Booking{
			CorrelationID:     "11111111-2222-3333-4444-555555555555",
			Code:              "AAAA1111",
			UserID:            "user-1",
			ProviderPaymentID: "pi_original",
		})

		err := f.svc.ReconcilePaymentSucceeded(ctx, "pi_retry", "11111111-2222-3333-4444-555555555555", "user-1")
		assert.NoError(t, err)
	})

	t.Run("capture awaiting confirmation", func(t *testing.T) {
		t.Parallel()
		f := newBookingFixture()
		require.NoError(t, f.checkout.drafts.SavePendingCorrelation(ctx, "user-1", "11111111-2222-3333-4444-555555555555"))

		err := f.svc.ReconcilePaymentSucceeded(ctx, "pi_inflight", "11111111-2222-3333-4444-555555555555", "user-1")
		assert.NoError(t, err)
		assert.EqualValues(t, 0, f.bookings.CreateCallCount)
	})

	t.Run("orphaned capture is acknowledged without a booking", func(t *testing.T) {
		t.Parallel()
		f := newBookingFixture()

		err := f.svc.ReconcilePaymentSucceeded(ctx, "pi_orphan", "99999999-8888-7777-6666-555555555555", "user-9")
		assert.NoError(t, err)
		assert.EqualValues(t, 0, f.bookings.CreateCallCount)
	})
}

func TestMarkRefundedAndPaymentReview(t *testing.T) {
	t.Parallel()

	f := newBookingFixture()
	f.checkout.mustCreateDraft(t, "user-1", 5)

	res, err := f.svc.Confirm(context.Background(), "user-1", cardConfirm())
	require.NoError(t, err)

	require.NoError(t, f.svc.MarkPaymentReview("pi_123"))
	booking, err := f.bookings.GetByCorrelationID(res.CorrelationID)
	require.NoError(t, err)
	assert.Equal(t, entities.BookingStatusPaymentReview, booking.Status)

	require.NoError(t, f.svc.MarkRefunded("pi_123"))
	booking, err = f.bookings.GetByCorrelationID(res.CorrelationID)
	require.NoError(t, err)
	assert.Equal(t, entities.PaymentStatusRefunded, booking.PaymentStatus)

	assert.ErrorIs(t, f.svc.MarkRefunded("pi_unknown"), ErrBookingNotFound)
}
