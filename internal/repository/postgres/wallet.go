package postgres

import (
	"context"
	"database/sql"
	"errors"

	"dispatch/internal/domain"
	"dispatch/internal/repository"
)

// WalletRepository is a PostgreSQL implementation of
// repository.WalletRepository.
type WalletRepository struct {
	q Querier
}

// NewWalletRepository creates a new PostgreSQL wallet repository.
func NewWalletRepository(db *sql.DB) *WalletRepository {
	return &WalletRepository{q: db}
}

// NewWalletRepositoryWithTx creates a wallet repository using a transaction.
func NewWalletRepositoryWithTx(tx *sql.Tx) *WalletRepository {
	return &WalletRepository{q: tx}
}

// Create persists a new wallet.
func (r *WalletRepository) Create(ctx context.Context, wallet *domain.Wallet) error {
	query := `
		INSERT INTO wallets (wallet_id, user_id, currency_code, amount)
		VALUES ($1, $2, $3, $4)
	`

	_, err := r.q.ExecContext(ctx, query,
		wallet.ID,
		wallet.UserID,
		wallet.CurrencyCode,
		wallet.Amount,
	)

	return err
}

// GetByID retrieves a wallet by ID.
func (r *WalletRepository) GetByID(ctx context.Context, id string) (*domain.Wallet, error) {
	query := `SELECT wallet_id, user_id, currency_code, amount FROM wallets WHERE wallet_id = $1`
	return r.scanOne(r.q.QueryRowContext(ctx, query, id))
}

// GetByUser retrieves a user's wallet.
func (r *WalletRepository) GetByUser(ctx context.Context, userID string) (*domain.Wallet, error) {
	query := `SELECT wallet_id, user_id, currency_code, amount FROM wallets WHERE user_id = $1`
	return r.scanOne(r.q.QueryRowContext(ctx, query, userID))
}

// GetByIDForUpdate retrieves a wallet under an exclusive row lock. The
// lock is held until the surrounding transaction finishes.
func (r *WalletRepository) GetByIDForUpdate(ctx context.Context, id string) (*domain.Wallet, error) {
	query := `SELECT wallet_id, user_id, currency_code, amount FROM wallets WHERE wallet_id = $1 FOR UPDATE`
	return r.scanOne(r.q.QueryRowContext(ctx, query, id))
}

// SetAmount stores the new balance.
func (r *WalletRepository) SetAmount(ctx context.Context, id string, amount float64) error {
	result, err := r.q.ExecContext(ctx,
		`UPDATE wallets SET amount = $1 WHERE wallet_id = $2`, amount, id)
	if err != nil {
		return err
	}
	return requireRow(result)
}

// AppendTransaction appends one ledger entry.
func (r *WalletRepository) AppendTransaction(ctx context.Context, tx *domain.WalletTransaction) error {
	query := `
		INSERT INTO wallet_transactions (transaction_id, wallet_id, amount, transaction_type, reference_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.q.ExecContext(ctx, query,
		tx.ID,
		tx.WalletID,
		tx.Amount,
		string(tx.Type),
		nullString(tx.ReferenceID),
		tx.CreatedAt,
	)

	return err
}

// ListTransactions returns a wallet's ledger entries, oldest first.
func (r *WalletRepository) ListTransactions(ctx context.Context, walletID string) ([]*domain.WalletTransaction, error) {
	query := `
		SELECT transaction_id, wallet_id, amount, transaction_type, reference_id, created_at
		FROM wallet_transactions WHERE wallet_id = $1 ORDER BY created_at ASC
	`

	rows, err := r.q.QueryContext(ctx, query, walletID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.WalletTransaction
	for rows.Next() {
		var tx domain.WalletTransaction
		var txType string
		var reference sql.NullString
		if err := rows.Scan(&tx.ID, &tx.WalletID, &tx.Amount, &txType, &reference, &tx.CreatedAt); err != nil {
			return nil, err
		}
		tx.Type = domain.TransactionType(txType)
		tx.ReferenceID = reference.String
		out = append(out, &tx)
	}
	return out, rows.Err()
}

func (r *WalletRepository) scanOne(row *sql.Row) (*domain.Wallet, error) {
	var wallet domain.Wallet
	var currency sql.NullString

	err := row.Scan(&wallet.ID, &wallet.UserID, &currency, &wallet.Amount)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	wallet.CurrencyCode = currency.String
	return &wallet, nil
}
