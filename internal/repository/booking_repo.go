package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"autorent/internal/db"
)

const uniqueViolation = "23505"

type BookingRepository struct {
	DB *sql.DB
}

func NewBookingRepository(database *sql.DB) *BookingRepository {
	return &BookingRepository{DB: database}
}

// CreateBooking inserts a booking keyed by its correlation id. A second insert
// with the same correlation id returns ErrDuplicateCorrelation, which is how
// the server-side half of confirmation idempotency works.
func (r *BookingRepository) CreateBooking(b *db.Booking) error {
	query := `
		INSERT INTO bookings
		(correlation_id, code, user_id, vehicle_id, start_date, end_date,
		 amount_minor, currency, payment_method, provider_payment_id, status, payment_status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at, updated_at`
	err := r.DB.QueryRow(query,
		b.CorrelationID,
		b.Code,
		b.UserID,
		b.VehicleID,
		b.StartDate,
		b.EndDate,
		b.AmountMinor,
		b.Currency,
		b.PaymentMethod,
		b.ProviderPaymentID,
		b.Status,
		b.PaymentStatus,
	).Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return ErrDuplicateCorrelation
		}
		return fmt.Errorf("error creating booking: %w", err)
	}
	return nil
}

func (r *BookingRepository) GetByCorrelationID(correlationID string) (*db.Booking, error) {
	return r.getOne(`WHERE correlation_id = $1`, correlationID)
}

func (r *BookingRepository) GetByCode(code string) (*db.Booking, error) {
	return r.getOne(`WHERE code = $1`, code)
}

func (r *BookingRepository) GetByProviderPaymentID(providerPaymentID string) (*db.Booking, error) {
	return r.getOne(`WHERE provider_payment_id = $1`, providerPaymentID)
}

func (r *BookingRepository) getOne(where string, arg any) (*db.Booking, error) {
	var b db.Booking
	query := `
		SELECT id, correlation_id, code, user_id, vehicle_id, start_date, end_date,
		       amount_minor, currency, payment_method, provider_payment_id,
		       status, payment_status, created_at, updated_at
		FROM bookings ` + where
	err := r.DB.QueryRow(query, arg).Scan(
		&b.ID, &b.CorrelationID, &b.Code, &b.UserID, &b.VehicleID, &b.StartDate, &b.EndDate,
		&b.AmountMinor, &b.Currency, &b.PaymentMethod, &b.ProviderPaymentID,
		&b.Status, &b.PaymentStatus, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error querying booking: %w", err)
	}
	return &b, nil
}

func (r *BookingRepository) UpdateStatuses(id, status, paymentStatus string) error {
	_, err := r.DB.Exec(
		`UPDATE bookings SET status = $2, payment_status = $3, updated_at = NOW() WHERE id = $1`,
		id, status, paymentStatus)
	if err != nil {
		return fmt.Errorf("error updating booking %s statuses: %w", id, err)
	}
	return nil
}

// HasOverlap reports whether the vehicle already has a confirmed or active
// booking intersecting the given range.
func (r *BookingRepository) HasOverlap(vehicleID string, start, end time.Time) (bool, error) {
	var exists bool
	query := `
		SELECT EXISTS (
			SELECT 1 FROM bookings
			WHERE vehicle_id = $1
			  AND status IN ('confirmed', 'active')
			  AND start_date < $3
			  AND end_date > $2
		)`
	if err := r.DB.QueryRow(query, vehicleID, start, end).Scan(&exists); err != nil {
		return false, fmt.Errorf("error checking booking overlap: %w", err)
	}
	return exists, nil
}
