package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"autorent/internal/db"
)

type VehicleRepository struct {
	DB *sql.DB
}

func NewVehicleRepository(database *sql.DB) *VehicleRepository {
	return &VehicleRepository{DB: database}
}

func (r *VehicleRepository) ListVehicles() ([]db.Vehicle, error) {
	query := `
		SELECT id, make, model, year, fuel_type, seats, transmission, features,
		       daily_rate_minor, currency, pickup_location, available, created_at, updated_at
		FROM vehicles
		ORDER BY make, model`

	rows, err := r.DB.Query(query)
	if err != nil {
		return nil, fmt.Errorf("error querying vehicles: %w", err)
	}
	defer rows.Close()

	var vehicles []db.Vehicle
	for rows.Next() {
		var v db.Vehicle
		if err := rows.Scan(
			&v.ID, &v.Make, &v.Model, &v.Year, &v.FuelType, &v.Seats, &v.Transmission,
			pq.Array(&v.Features), &v.DailyRateMinor, &v.Currency, &v.PickupLocation,
			&v.Available, &v.CreatedAt, &v.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("error scanning vehicle: %w", err)
		}
		vehicles = append(vehicles, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error after iterating vehicles: %w", err)
	}
	return vehicles, nil
}

func (r *VehicleRepository) GetVehicleByID(id string) (*db.Vehicle, error) {
	var v db.Vehicle
	query := `
		SELECT id, make, model, year, fuel_type, seats, transmission, features,
		       daily_rate_minor, currency, pickup_location, available, created_at, updated_at
		FROM vehicles WHERE id = $1`
	err := r.DB.QueryRow(query, id).Scan(
		&v.ID, &v.Make, &v.Model, &v.Year, &v.FuelType, &v.Seats, &v.Transmission,
		pq.Array(&v.Features), &v.DailyRateMinor, &v.Currency, &v.PickupLocation,
		&v.Available, &v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error querying vehicle %s: %w", id, err)
	}
	return &v, nil
}

func (r *VehicleRepository) SetAvailability(id string, available bool) error {
	result, err := r.DB.Exec(
		`UPDATE vehicles SET available = $2, updated_at = NOW() WHERE id = $1`, id, available)
	if err != nil {
		return fmt.Errorf("error updating vehicle %s availability: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err == nil && affected == 0 {
		return ErrNotFound
	}
	return nil
}
