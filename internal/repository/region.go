package repository

import (
	"context"

	"dispatch/internal/domain"
)

// RegionRepository defines read access to region reference data.
type RegionRepository interface {
	// GetByCode retrieves a region by its code.
	GetByCode(ctx context.Context, code string) (*domain.Region, error)
}
