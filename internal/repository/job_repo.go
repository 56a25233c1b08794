package repository

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/lib/pq"
)

type JobRepository struct {
	DB *sql.DB
}

func NewJobRepository(database *sql.DB) *JobRepository {
	return &JobRepository{DB: database}
}

// GetConfirmedBookingIDsPastEndDate returns confirmed/active bookings whose
// rental period has already ended.
func (r *JobRepository) GetConfirmedBookingIDsPastEndDate() ([]string, error) {
	query := `SELECT id FROM bookings WHERE status IN ('confirmed', 'active') AND end_date < NOW()`
	rows, err := r.DB.Query(query)
	if err != nil {
		return nil, fmt.Errorf("error querying bookings past end date: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("error scanning booking id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error after iterating rows: %w", err)
	}
	return ids, nil
}

// UpdateBookingStatuses sets the status of a batch of bookings.
func (r *JobRepository) UpdateBookingStatuses(ids []string, newStatus string) error {
	if len(ids) == 0 {
		return nil
	}
	result, err := r.DB.Exec(
		`UPDATE bookings SET status = $1, updated_at = NOW() WHERE id = ANY($2)`,
		newStatus, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("error updating booking statuses: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		log.Printf("Could not get rows affected: %v", err)
	} else {
		log.Printf("Updated status for %d bookings to '%s'", rowsAffected, newStatus)
	}
	return nil
}

// DeletePendingBookingsOlderThan removes bookings that never got paid.
func (r *JobRepository) DeletePendingBookingsOlderThan(before time.Time) (int64, error) {
	result, err := r.DB.Exec(
		`DELETE FROM bookings WHERE status = 'pending' AND created_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("error deleting old pending bookings: %w", err)
	}
	return result.RowsAffected()
}
