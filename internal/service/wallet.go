package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"dispatch/internal/domain"
	"dispatch/internal/repository"
	"dispatch/internal/repository/postgres"
)

// WalletService handles wallet balances and their transaction ledger.
// Every balance mutation and its ledger row commit together or not at
// all; the balance is only ever touched under a row lock.
type WalletService struct {
	db         *sql.DB
	walletRepo repository.WalletRepository
}

// NewWalletService creates a new WalletService.
func NewWalletService(db *sql.DB, walletRepo repository.WalletRepository) *WalletService {
	return &WalletService{
		db:         db,
		walletRepo: walletRepo,
	}
}

// CreateWallet opens a zero-balance wallet for a user.
func (s *WalletService) CreateWallet(ctx context.Context, userID, currencyCode string) (*domain.Wallet, error) {
	if userID == "" {
		return nil, ErrInvalidRiderID
	}

	wallet := &domain.Wallet{
		ID:           uuid.New().String(),
		UserID:       userID,
		CurrencyCode: currencyCode,
		Amount:       0,
	}
	if err := s.walletRepo.Create(ctx, wallet); err != nil {
		return nil, err
	}
	return wallet, nil
}

// Balance returns a wallet with its current balance.
func (s *WalletService) Balance(ctx context.Context, walletID string) (*domain.Wallet, error) {
	if walletID == "" {
		return nil, ErrInvalidWalletID
	}
	return s.walletRepo.GetByID(ctx, walletID)
}

// Transactions returns a wallet's ledger entries, oldest first.
func (s *WalletService) Transactions(ctx context.Context, walletID string) ([]*domain.WalletTransaction, error) {
	if walletID == "" {
		return nil, ErrInvalidWalletID
	}
	if _, err := s.walletRepo.GetByID(ctx, walletID); err != nil {
		return nil, err
	}
	return s.walletRepo.ListTransactions(ctx, walletID)
}

// Credit adds amount to the wallet and appends the matching ledger entry.
func (s *WalletService) Credit(ctx context.Context, walletID string, amount float64, referenceID string) (*domain.Wallet, error) {
	return s.apply(ctx, walletID, amount, domain.TransactionCredit, referenceID)
}

// Debit removes amount from the wallet and appends the matching ledger
// entry. The balance check happens on the row-locked wallet, so two
// concurrent debits cannot both pass it.
func (s *WalletService) Debit(ctx context.Context, walletID string, amount float64, referenceID string) (*domain.Wallet, error) {
	return s.apply(ctx, walletID, amount, domain.TransactionDebit, referenceID)
}

func (s *WalletService) apply(ctx context.Context, walletID string, amount float64, txType domain.TransactionType, referenceID string) (wallet *domain.Wallet, err error) {
	if walletID == "" {
		return nil, ErrInvalidWalletID
	}
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	// Create transaction-scoped repository.
	txWalletRepo := postgres.NewWalletRepositoryWithTx(tx)

	wallet, err = txWalletRepo.GetByIDForUpdate(ctx, walletID)
	if err != nil {
		return nil, err
	}

	newAmount := wallet.Amount
	switch txType {
	case domain.TransactionCredit:
		newAmount += amount
	case domain.TransactionDebit:
		if wallet.Amount < amount {
			err = ErrInsufficientBalance
			return nil, err
		}
		newAmount -= amount
	}

	if err = txWalletRepo.SetAmount(ctx, walletID, newAmount); err != nil {
		return nil, err
	}
	if err = txWalletRepo.AppendTransaction(ctx, &domain.WalletTransaction{
		ID:          uuid.New().String(),
		WalletID:    walletID,
		Amount:      amount,
		Type:        txType,
		ReferenceID: referenceID,
		CreatedAt:   time.Now(),
	}); err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, err
	}

	wallet.Amount = newAmount
	return wallet, nil
}
