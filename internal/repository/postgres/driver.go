package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"dispatch/internal/domain"
	"dispatch/internal/repository"
)

// DriverRepository is a PostgreSQL implementation of
// repository.DriverRepository.
type DriverRepository struct {
	q Querier
}

// NewDriverRepository creates a new PostgreSQL driver repository.
func NewDriverRepository(db *sql.DB) *DriverRepository {
	return &DriverRepository{q: db}
}

// NewDriverRepositoryWithTx creates a driver repository using a transaction.
func NewDriverRepositoryWithTx(tx *sql.Tx) *DriverRepository {
	return &DriverRepository{q: tx}
}

// GetByID retrieves a driver by ID.
func (r *DriverRepository) GetByID(ctx context.Context, id string) (*domain.Driver, error) {
	query := `
		SELECT driver_id, user_id, driving_licence_number, driver_rating, driver_online_status, current_h3_index, location_updated_at
		FROM drivers WHERE driver_id = $1
	`

	var driver domain.Driver
	var rating sql.NullFloat64
	var status, cell sql.NullString
	var locationUpdatedAt sql.NullTime

	err := r.q.QueryRowContext(ctx, query, id).Scan(
		&driver.ID,
		&driver.UserID,
		&driver.LicenceNumber,
		&rating,
		&status,
		&cell,
		&locationUpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	driver.Rating = rating.Float64
	driver.Status = domain.DriverStatus(status.String)
	driver.CurrentCell = cell.String
	if locationUpdatedAt.Valid {
		driver.LocationUpdatedAt = locationUpdatedAt.Time
	}

	return &driver, nil
}

// UpdateLocation stores the driver's raw cell index and ping time.
func (r *DriverRepository) UpdateLocation(ctx context.Context, id, cellIndex string, at time.Time) error {
	result, err := r.q.ExecContext(ctx,
		`UPDATE drivers SET current_h3_index = $1, location_updated_at = $2 WHERE driver_id = $3`,
		cellIndex, at, id)
	if err != nil {
		return err
	}
	return requireRow(result)
}

// UpdateStatus updates the online status of a driver.
func (r *DriverRepository) UpdateStatus(ctx context.Context, id string, status domain.DriverStatus) error {
	result, err := r.q.ExecContext(ctx,
		`UPDATE drivers SET driver_online_status = $1 WHERE driver_id = $2`,
		string(status), id)
	if err != nil {
		return err
	}
	return requireRow(result)
}

// ActiveVehicleAssignment returns the vehicle assignment whose window
// contains the given instant. With overlapping assignments the earliest
// start wins; whether overlaps should be possible at all is an open data
// question upstream.
func (r *DriverRepository) ActiveVehicleAssignment(ctx context.Context, driverID string, at time.Time) (*domain.VehicleAssignment, error) {
	query := `
		SELECT vehicle_driver_assign_id, vehicle_id, driver_id, start_time, end_time
		FROM vehicle_driver_assignments
		WHERE driver_id = $1 AND start_time <= $2 AND end_time >= $2
		ORDER BY start_time ASC
		LIMIT 1
	`

	var assignment domain.VehicleAssignment
	err := r.q.QueryRowContext(ctx, query, driverID, at).Scan(
		&assignment.ID,
		&assignment.VehicleID,
		&assignment.DriverID,
		&assignment.StartTime,
		&assignment.EndTime,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return &assignment, nil
}
