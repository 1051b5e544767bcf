package repository

import (
	"context"

	"dispatch/internal/domain"
)

// WalletRepository defines the persistence operations for wallets and
// their transaction ledger.
type WalletRepository interface {
	// Create persists a new wallet.
	Create(ctx context.Context, wallet *domain.Wallet) error

	// GetByID retrieves a wallet by ID.
	GetByID(ctx context.Context, id string) (*domain.Wallet, error)

	// GetByUser retrieves a user's wallet.
	GetByUser(ctx context.Context, userID string) (*domain.Wallet, error)

	// GetByIDForUpdate retrieves a wallet under an exclusive row lock.
	// Only meaningful on a transaction-scoped repository.
	GetByIDForUpdate(ctx context.Context, id string) (*domain.Wallet, error)

	// SetAmount stores the new balance.
	SetAmount(ctx context.Context, id string, amount float64) error

	// AppendTransaction appends one ledger entry. Ledger rows are never
	// updated or deleted.
	AppendTransaction(ctx context.Context, tx *domain.WalletTransaction) error

	// ListTransactions returns a wallet's ledger entries, oldest first.
	ListTransactions(ctx context.Context, walletID string) ([]*domain.WalletTransaction, error)
}
