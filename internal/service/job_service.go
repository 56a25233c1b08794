package service

import (
	"fmt"
	"log"
	"time"

	"autorent/internal/repository"
)

type JobService struct {
	Repo *repository.JobRepository
}

func NewJobService(repo *repository.JobRepository) *JobService {
	return &JobService{Repo: repo}
}

// FinishEndedBookings marks confirmed/active bookings whose rental period has
// ended as finished.
func (s *JobService) FinishEndedBookings() error {
	ids, err := s.Repo.GetConfirmedBookingIDsPastEndDate()
	if err != nil {
		return fmt.Errorf("cron job: failed to get bookings past end date: %w", err)
	}
	if len(ids) == 0 {
		return nil
	}

	log.Printf("Cron Job: marking %d bookings as finished", len(ids))
	if err := s.Repo.UpdateBookingStatuses(ids, "finished"); err != nil {
		return fmt.Errorf("cron job: failed to update booking statuses: %w", err)
	}
	return nil
}

// DeleteStalePendingBookings removes pending bookings that never got paid.
func (s *JobService) DeleteStalePendingBookings(maxAge time.Duration) error {
	deleted, err := s.Repo.DeletePendingBookingsOlderThan(time.Now().Add(-maxAge))
	if err != nil {
		return fmt.Errorf("cron job: failed to delete stale pending bookings: %w", err)
	}
	if deleted > 0 {
		log.Printf("Cron Job: deleted %d stale pending bookings", deleted)
	}
	return nil
}
