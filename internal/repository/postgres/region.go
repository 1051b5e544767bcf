package postgres

import (
	"context"
	"database/sql"
	"errors"

	"dispatch/internal/domain"
	"dispatch/internal/repository"
)

// RegionRepository is a PostgreSQL implementation of
// repository.RegionRepository. Regions join their country row for the
// currency and timezone copied onto rides.
type RegionRepository struct {
	q Querier
}

// NewRegionRepository creates a new PostgreSQL region repository.
func NewRegionRepository(db *sql.DB) *RegionRepository {
	return &RegionRepository{q: db}
}

// GetByCode retrieves a region by its code.
func (r *RegionRepository) GetByCode(ctx context.Context, code string) (*domain.Region, error) {
	query := `
		SELECT r.region_code, r.country_code, r.region_name, c.currency_code, c.default_timezone, r.is_surge_enabled, r.is_service_active, r.created_at
		FROM regions r
		JOIN country c ON c.country_code = r.country_code
		WHERE r.region_code = $1
	`

	var region domain.Region
	err := r.q.QueryRowContext(ctx, query, code).Scan(
		&region.Code,
		&region.CountryCode,
		&region.Name,
		&region.CurrencyCode,
		&region.Timezone,
		&region.SurgeEnabled,
		&region.ServiceActive,
		&region.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return &region, nil
}
