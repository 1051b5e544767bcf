package postgres

import (
	"context"
	"database/sql"
	"errors"

	"dispatch/internal/domain"
)

// EventLogRepository is a PostgreSQL implementation of
// repository.EventLogRepository. Insert-only.
type EventLogRepository struct {
	q Querier
}

// NewEventLogRepository creates a new PostgreSQL event log repository.
func NewEventLogRepository(db *sql.DB) *EventLogRepository {
	return &EventLogRepository{q: db}
}

// NewEventLogRepositoryWithTx creates an event log repository using a
// transaction.
func NewEventLogRepositoryWithTx(tx *sql.Tx) *EventLogRepository {
	return &EventLogRepository{q: tx}
}

// Append inserts one audit entry.
func (r *EventLogRepository) Append(ctx context.Context, entry *domain.EventLog) error {
	query := `
		INSERT INTO event_log (event_id, ride_id, ride_status_id, latitude, longitude, event_time)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	var lat, lng sql.NullFloat64
	if entry.HasCoords {
		lat = sql.NullFloat64{Float64: entry.Latitude, Valid: true}
		lng = sql.NullFloat64{Float64: entry.Longitude, Valid: true}
	}

	_, err := r.q.ExecContext(ctx, query,
		entry.EventID,
		entry.RideID,
		entry.Status.Code(),
		lat,
		lng,
		entry.EventTime,
	)

	return err
}

// ListByRide returns a ride's audit entries, oldest first.
func (r *EventLogRepository) ListByRide(ctx context.Context, rideID string) ([]*domain.EventLog, error) {
	query := `
		SELECT event_id, ride_id, ride_status_id, latitude, longitude, event_time
		FROM event_log WHERE ride_id = $1 ORDER BY event_time ASC
	`

	rows, err := r.q.QueryContext(ctx, query, rideID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.EventLog
	for rows.Next() {
		var entry domain.EventLog
		var statusCode int16
		var lat, lng sql.NullFloat64

		if err := rows.Scan(&entry.EventID, &entry.RideID, &statusCode, &lat, &lng, &entry.EventTime); err != nil {
			return nil, err
		}

		status, ok := domain.RideStatusFromCode(statusCode)
		if !ok {
			return nil, errors.New("unknown ride status code")
		}
		entry.Status = status
		if lat.Valid && lng.Valid {
			entry.Latitude = lat.Float64
			entry.Longitude = lng.Float64
			entry.HasCoords = true
		}
		out = append(out, &entry)
	}
	return out, rows.Err()
}

// CancellationLogRepository is a PostgreSQL implementation of
// repository.CancellationLogRepository. Insert-only.
type CancellationLogRepository struct {
	q Querier
}

// NewCancellationLogRepository creates a new PostgreSQL cancellation log
// repository.
func NewCancellationLogRepository(db *sql.DB) *CancellationLogRepository {
	return &CancellationLogRepository{q: db}
}

// NewCancellationLogRepositoryWithTx creates a cancellation log repository
// using a transaction.
func NewCancellationLogRepositoryWithTx(tx *sql.Tx) *CancellationLogRepository {
	return &CancellationLogRepository{q: tx}
}

// Append inserts one cancellation record.
func (r *CancellationLogRepository) Append(ctx context.Context, entry *domain.RideCancellationLog) error {
	query := `
		INSERT INTO ride_cancellation_log (cancellation_id, ride_id, cancelled_by_id, cancelled_by_driver_id, reason, cancelled_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.q.ExecContext(ctx, query,
		entry.CancellationID,
		entry.RideID,
		nullString(entry.CancelledBy),
		nullString(entry.CancelledByDrv),
		nullString(entry.Reason),
		entry.CancelledAt,
	)

	return err
}

// RejectionRepository is a PostgreSQL implementation of
// repository.RejectionRepository. Insert-only; duplicate (ride, driver)
// pairs are allowed and collapse at query time.
type RejectionRepository struct {
	q Querier
}

// NewRejectionRepository creates a new PostgreSQL rejection repository.
func NewRejectionRepository(db *sql.DB) *RejectionRepository {
	return &RejectionRepository{q: db}
}

// Append inserts one rejection record.
func (r *RejectionRepository) Append(ctx context.Context, rejection *domain.DriverRideRejection) error {
	query := `
		INSERT INTO driver_ride_rejections (rejection_id, ride_id, driver_id, rejected_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := r.q.ExecContext(ctx, query,
		rejection.RejectionID,
		rejection.RideID,
		rejection.DriverID,
		rejection.RejectedAt,
	)

	return err
}

// ListRideIDsByDriver returns the distinct ride ids a driver has rejected.
func (r *RejectionRepository) ListRideIDsByDriver(ctx context.Context, driverID string) ([]string, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT DISTINCT ride_id FROM driver_ride_rejections WHERE driver_id = $1`, driverID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// LocationLogRepository is a PostgreSQL implementation of
// repository.LocationLogRepository. Insert-only.
type LocationLogRepository struct {
	q Querier
}

// NewLocationLogRepository creates a new PostgreSQL ride location log
// repository.
func NewLocationLogRepository(db *sql.DB) *LocationLogRepository {
	return &LocationLogRepository{q: db}
}

// Append inserts one ride location ping.
func (r *LocationLogRepository) Append(ctx context.Context, entry *domain.RideLocationLog) error {
	query := `
		INSERT INTO ride_location_log (log_id, ride_id, driver_id, latitude, longitude, heading_towards, h3_index, speed, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.q.ExecContext(ctx, query,
		entry.LogID,
		entry.RideID,
		entry.DriverID,
		entry.Latitude,
		entry.Longitude,
		nullString(entry.HeadingTowards),
		entry.CellIndex,
		entry.SpeedKmh,
		entry.UpdatedAt,
	)

	return err
}
