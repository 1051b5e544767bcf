package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	"dispatch/internal/domain"
	"dispatch/internal/repository"
)

// RideRepository is a PostgreSQL implementation of repository.RideRepository.
type RideRepository struct {
	q Querier
}

// NewRideRepository creates a new PostgreSQL ride repository.
func NewRideRepository(db *sql.DB) *RideRepository {
	return &RideRepository{q: db}
}

// NewRideRepositoryWithTx creates a ride repository using a transaction.
func NewRideRepositoryWithTx(tx *sql.Tx) *RideRepository {
	return &RideRepository{q: tx}
}

// Create persists a new ride.
func (r *RideRepository) Create(ctx context.Context, ride *domain.Ride) error {
	query := `
		INSERT INTO rides (ride_id, driver_id, vehicle_id, region_code, currency_code, timezone, ride_eta_seconds, started_at, ended_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.q.ExecContext(ctx, query,
		ride.ID,
		nullString(ride.DriverID),
		nullString(ride.VehicleID),
		ride.RegionCode,
		ride.CurrencyCode,
		ride.Timezone,
		ride.ETASeconds,
		nullTime(ride.StartedAt),
		nullTime(ride.EndedAt),
		time.Now(),
	)

	return err
}

// GetByID retrieves a ride by ID.
func (r *RideRepository) GetByID(ctx context.Context, id string) (*domain.Ride, error) {
	query := `
		SELECT ride_id, driver_id, vehicle_id, region_code, currency_code, timezone, ride_eta_seconds, started_at, ended_at, updated_at
		FROM rides WHERE ride_id = $1
	`

	var ride domain.Ride
	var driverID, vehicleID sql.NullString
	var etaSeconds sql.NullInt64
	var startedAt, endedAt sql.NullTime

	err := r.q.QueryRowContext(ctx, query, id).Scan(
		&ride.ID,
		&driverID,
		&vehicleID,
		&ride.RegionCode,
		&ride.CurrencyCode,
		&ride.Timezone,
		&etaSeconds,
		&startedAt,
		&endedAt,
		&ride.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	ride.DriverID = driverID.String
	ride.VehicleID = vehicleID.String
	ride.ETASeconds = int(etaSeconds.Int64)
	if startedAt.Valid {
		ride.StartedAt = startedAt.Time
	}
	if endedAt.Valid {
		ride.EndedAt = endedAt.Time
	}

	return &ride, nil
}

// AssignDriver binds the winning driver and optional vehicle to the ride.
func (r *RideRepository) AssignDriver(ctx context.Context, rideID, driverID, vehicleID string) error {
	query := `UPDATE rides SET driver_id = $1, vehicle_id = $2, updated_at = $3 WHERE ride_id = $4`

	result, err := r.q.ExecContext(ctx, query, driverID, nullString(vehicleID), time.Now(), rideID)
	if err != nil {
		return err
	}
	return requireRow(result)
}

// SetStartedAt stamps the ride start time.
func (r *RideRepository) SetStartedAt(ctx context.Context, rideID string, at time.Time) error {
	result, err := r.q.ExecContext(ctx,
		`UPDATE rides SET started_at = $1, updated_at = $1 WHERE ride_id = $2`, at, rideID)
	if err != nil {
		return err
	}
	return requireRow(result)
}

// SetEndedAt stamps the ride end time.
func (r *RideRepository) SetEndedAt(ctx context.Context, rideID string, at time.Time) error {
	result, err := r.q.ExecContext(ctx,
		`UPDATE rides SET ended_at = $1, updated_at = $1 WHERE ride_id = $2`, at, rideID)
	if err != nil {
		return err
	}
	return requireRow(result)
}

// RideDetailsRepository is a PostgreSQL implementation of
// repository.RideDetailsRepository.
type RideDetailsRepository struct {
	q Querier
}

// NewRideDetailsRepository creates a new PostgreSQL ride details repository.
func NewRideDetailsRepository(db *sql.DB) *RideDetailsRepository {
	return &RideDetailsRepository{q: db}
}

// NewRideDetailsRepositoryWithTx creates a ride details repository using a
// transaction.
func NewRideDetailsRepositoryWithTx(tx *sql.Tx) *RideDetailsRepository {
	return &RideDetailsRepository{q: tx}
}

const rideDetailsColumns = `ride_id, rider_id, otp, from_location, to_location, ride_fare, ride_status, verification_status, created_at`

// Create persists a new detail row.
func (r *RideDetailsRepository) Create(ctx context.Context, details *domain.RideDetails) error {
	query := `
		INSERT INTO ride_details_for_riders (ride_id, rider_id, otp, from_location, to_location, ride_fare, ride_status, verification_status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.q.ExecContext(ctx, query,
		details.RideID,
		details.RiderID,
		details.OTP,
		details.FromCell,
		details.ToCell,
		details.Fare,
		details.Status.Code(),
		details.Verified,
		details.CreatedAt,
	)

	return err
}

// GetByRideID retrieves the detail row for a ride.
func (r *RideDetailsRepository) GetByRideID(ctx context.Context, rideID string) (*domain.RideDetails, error) {
	query := `SELECT ` + rideDetailsColumns + ` FROM ride_details_for_riders WHERE ride_id = $1`
	return r.scanOne(r.q.QueryRowContext(ctx, query, rideID))
}

// GetByRideIDForUpdate retrieves the detail row under an exclusive row
// lock. The lock is held until the surrounding transaction finishes.
func (r *RideDetailsRepository) GetByRideIDForUpdate(ctx context.Context, rideID string) (*domain.RideDetails, error) {
	query := `SELECT ` + rideDetailsColumns + ` FROM ride_details_for_riders WHERE ride_id = $1 FOR UPDATE`
	return r.scanOne(r.q.QueryRowContext(ctx, query, rideID))
}

// UpdateStatus sets the lifecycle status of the detail row.
func (r *RideDetailsRepository) UpdateStatus(ctx context.Context, rideID string, status domain.RideStatus) error {
	result, err := r.q.ExecContext(ctx,
		`UPDATE ride_details_for_riders SET ride_status = $1 WHERE ride_id = $2`,
		status.Code(), rideID)
	if err != nil {
		return err
	}
	return requireRow(result)
}

// MarkVerified flips verification_status and sets the new status in one
// statement.
func (r *RideDetailsRepository) MarkVerified(ctx context.Context, rideID string, status domain.RideStatus) error {
	result, err := r.q.ExecContext(ctx,
		`UPDATE ride_details_for_riders SET verification_status = TRUE, ride_status = $1 WHERE ride_id = $2`,
		status.Code(), rideID)
	if err != nil {
		return err
	}
	return requireRow(result)
}

// FindBookedInCells returns BOOKED rides whose pickup cell is in cells,
// excluding rides the driver has already rejected, oldest booking first.
func (r *RideDetailsRepository) FindBookedInCells(ctx context.Context, cells []string, excludeDriverID string) ([]*domain.RideDetails, error) {
	if len(cells) == 0 {
		return nil, nil
	}

	query := `
		SELECT ` + rideDetailsColumns + `
		FROM ride_details_for_riders
		WHERE ride_status = $1
		  AND from_location = ANY($2)
		  AND ride_id NOT IN (
			SELECT ride_id FROM driver_ride_rejections WHERE driver_id = $3
		  )
		ORDER BY created_at ASC
	`

	rows, err := r.q.QueryContext(ctx, query,
		domain.RideStatusBooked.Code(), pq.Array(cells), excludeDriverID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.RideDetails
	for rows.Next() {
		details, err := scanDetails(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, details)
	}
	return out, rows.Err()
}

// ListByRider returns a rider's rides, newest first.
func (r *RideDetailsRepository) ListByRider(ctx context.Context, riderID string) ([]*domain.RideDetails, error) {
	query := `SELECT ` + rideDetailsColumns + ` FROM ride_details_for_riders WHERE rider_id = $1 ORDER BY created_at DESC`

	rows, err := r.q.QueryContext(ctx, query, riderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.RideDetails
	for rows.Next() {
		details, err := scanDetails(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, details)
	}
	return out, rows.Err()
}

func (r *RideDetailsRepository) scanOne(row *sql.Row) (*domain.RideDetails, error) {
	var details domain.RideDetails
	var fare sql.NullFloat64
	var statusCode int16

	err := row.Scan(
		&details.RideID,
		&details.RiderID,
		&details.OTP,
		&details.FromCell,
		&details.ToCell,
		&fare,
		&statusCode,
		&details.Verified,
		&details.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	details.Fare = fare.Float64
	status, ok := domain.RideStatusFromCode(statusCode)
	if !ok {
		return nil, errors.New("unknown ride status code")
	}
	details.Status = status

	return &details, nil
}

func scanDetails(rows *sql.Rows) (*domain.RideDetails, error) {
	var details domain.RideDetails
	var fare sql.NullFloat64
	var statusCode int16

	if err := rows.Scan(
		&details.RideID,
		&details.RiderID,
		&details.OTP,
		&details.FromCell,
		&details.ToCell,
		&fare,
		&statusCode,
		&details.Verified,
		&details.CreatedAt,
	); err != nil {
		return nil, err
	}

	details.Fare = fare.Float64
	status, ok := domain.RideStatusFromCode(statusCode)
	if !ok {
		return nil, errors.New("unknown ride status code")
	}
	details.Status = status

	return &details, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t, Valid: true}
}

func requireRow(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return repository.ErrNotFound
	}
	return nil
}
