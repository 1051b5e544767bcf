package domain

import "time"

// TransactionType classifies a wallet transaction.
type TransactionType string

const (
	TransactionCredit TransactionType = "credit"
	TransactionDebit  TransactionType = "debit"
)

// Wallet holds a user's balance in a single currency. Amount always equals
// the signed sum of the wallet's transactions and is mutated only by the
// wallet ledger.
type Wallet struct {
	ID           string
	UserID       string
	CurrencyCode string
	Amount       float64
}

// WalletTransaction is one append-only ledger entry. Every wallet mutation
// appends exactly one of these in the same unit of work.
type WalletTransaction struct {
	ID          string
	WalletID    string
	Amount      float64
	Type        TransactionType
	ReferenceID string
	CreatedAt   time.Time
}
