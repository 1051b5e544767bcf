package tests

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"dispatch/internal/domain"
	"dispatch/internal/service"
)

// walletEngine replays the ledger discipline against the mock: lock the
// wallet row, check the balance, then write the new amount and its
// ledger entry together. The mock's mutex stands in for the row lock.
type walletEngine struct {
	mu         sync.Mutex
	walletRepo *MockWalletRepository
}

func newWalletEngine() *walletEngine {
	return &walletEngine{walletRepo: NewMockWalletRepository()}
}

func (e *walletEngine) apply(ctx context.Context, walletID string, amount float64, txType domain.TransactionType, referenceID string) (*domain.Wallet, error) {
	if amount <= 0 {
		return nil, service.ErrInvalidAmount
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	wallet, err := e.walletRepo.GetByIDForUpdate(ctx, walletID)
	if err != nil {
		return nil, err
	}

	newAmount := wallet.Amount
	switch txType {
	case domain.TransactionCredit:
		newAmount += amount
	case domain.TransactionDebit:
		if wallet.Amount < amount {
			return nil, service.ErrInsufficientBalance
		}
		newAmount -= amount
	}

	if err := e.walletRepo.SetAmount(ctx, walletID, newAmount); err != nil {
		return nil, err
	}
	if err := e.walletRepo.AppendTransaction(ctx, &domain.WalletTransaction{
		WalletID:    walletID,
		Amount:      amount,
		Type:        txType,
		ReferenceID: referenceID,
		CreatedAt:   time.Now(),
	}); err != nil {
		return nil, err
	}

	wallet.Amount = newAmount
	return wallet, nil
}

func TestWalletLedger_CreditPairsBalanceAndEntry(t *testing.T) {
	ctx := context.Background()
	engine := newWalletEngine()
	engine.walletRepo.AddWallet(&domain.Wallet{ID: "w1", UserID: "rider-1", Amount: 0})

	wallet, err := engine.apply(ctx, "w1", 250, domain.TransactionCredit, "topup-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if wallet.Amount != 250 {
		t.Errorf("balance = %v, want 250", wallet.Amount)
	}

	txs, err := engine.walletRepo.ListTransactions(ctx, "w1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(txs) != 1 {
		t.Fatalf("expected 1 ledger entry, got %d", len(txs))
	}
	if txs[0].Type != domain.TransactionCredit || txs[0].Amount != 250 || txs[0].ReferenceID != "topup-1" {
		t.Errorf("unexpected ledger entry: %+v", txs[0])
	}
}

func TestWalletLedger_DebitChecksLockedBalance(t *testing.T) {
	ctx := context.Background()
	engine := newWalletEngine()
	engine.walletRepo.AddWallet(&domain.Wallet{ID: "w1", UserID: "rider-1", Amount: 100})

	wallet, err := engine.apply(ctx, "w1", 60, domain.TransactionDebit, "ride-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if wallet.Amount != 40 {
		t.Errorf("balance = %v, want 40", wallet.Amount)
	}

	// The second debit exceeds the remaining balance.
	_, err = engine.apply(ctx, "w1", 60, domain.TransactionDebit, "ride-2")
	if !errors.Is(err, service.ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}

	// The failed debit changed nothing: balance and ledger still agree.
	if got := engine.walletRepo.GetWallet("w1").Amount; got != 40 {
		t.Errorf("balance = %v after failed debit, want 40", got)
	}
	txs, _ := engine.walletRepo.ListTransactions(ctx, "w1")
	if len(txs) != 1 {
		t.Errorf("expected 1 ledger entry after failed debit, got %d", len(txs))
	}
}

func TestWalletLedger_ConcurrentDebitsCannotOverdraw(t *testing.T) {
	ctx := context.Background()
	engine := newWalletEngine()
	engine.walletRepo.AddWallet(&domain.Wallet{ID: "w1", UserID: "rider-1", Amount: 100})

	var successes int32
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := engine.apply(ctx, "w1", 60, domain.TransactionDebit, "race")
			switch {
			case err == nil:
				atomic.AddInt32(&successes, 1)
			case errors.Is(err, service.ErrInsufficientBalance):
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if successes != 1 {
		t.Errorf("expected exactly 1 debit to pass, got %d", successes)
	}
	if got := engine.walletRepo.GetWallet("w1").Amount; got != 40 {
		t.Errorf("balance = %v, want 40", got)
	}
	txs, _ := engine.walletRepo.ListTransactions(ctx, "w1")
	if len(txs) != 1 {
		t.Errorf("expected 1 ledger entry, got %d", len(txs))
	}
}

func TestWalletLedger_BalanceMatchesLedgerSum(t *testing.T) {
	ctx := context.Background()
	engine := newWalletEngine()
	engine.walletRepo.AddWallet(&domain.Wallet{ID: "w1", UserID: "rider-1", Amount: 0})

	steps := []struct {
		amount float64
		txType domain.TransactionType
	}{
		{500, domain.TransactionCredit},
		{120, domain.TransactionDebit},
		{80, domain.TransactionCredit},
		{200, domain.TransactionDebit},
	}
	for _, s := range steps {
		if _, err := engine.apply(ctx, "w1", s.amount, s.txType, "ref"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	txs, err := engine.walletRepo.ListTransactions(ctx, "w1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var sum float64
	for _, tx := range txs {
		switch tx.Type {
		case domain.TransactionCredit:
			sum += tx.Amount
		case domain.TransactionDebit:
			sum -= tx.Amount
		}
	}
	if got := engine.walletRepo.GetWallet("w1").Amount; got != sum {
		t.Errorf("balance %v does not match ledger sum %v", got, sum)
	}
	if sum != 260 {
		t.Errorf("ledger sum = %v, want 260", sum)
	}
}

func TestWalletService_CreateAndRead(t *testing.T) {
	ctx := context.Background()
	walletRepo := NewMockWalletRepository()
	svc := service.NewWalletService(nil, walletRepo)

	wallet, err := svc.CreateWallet(ctx, "rider-1", "INR")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if wallet.ID == "" {
		t.Error("expected a generated wallet id")
	}
	if wallet.Amount != 0 {
		t.Errorf("expected a zero opening balance, got %v", wallet.Amount)
	}

	got, err := svc.Balance(ctx, wallet.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.UserID != "rider-1" || got.CurrencyCode != "INR" {
		t.Errorf("unexpected wallet: %+v", got)
	}

	txs, err := svc.Transactions(ctx, wallet.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(txs) != 0 {
		t.Errorf("expected an empty ledger, got %d entries", len(txs))
	}
}

func TestWalletService_ValidatesInput(t *testing.T) {
	ctx := context.Background()
	svc := service.NewWalletService(nil, NewMockWalletRepository())

	if _, err := svc.CreateWallet(ctx, "", "INR"); err == nil {
		t.Error("expected an error for a missing user id")
	}
	if _, err := svc.Balance(ctx, ""); !errors.Is(err, service.ErrInvalidWalletID) {
		t.Errorf("expected ErrInvalidWalletID, got %v", err)
	}
	if _, err := svc.Transactions(ctx, "ghost"); err == nil {
		t.Error("expected an error for an unknown wallet")
	}

	// Amount validation runs before anything is touched.
	if _, err := svc.Credit(ctx, "w1", 0, "ref"); !errors.Is(err, service.ErrInvalidAmount) {
		t.Errorf("expected ErrInvalidAmount for a zero credit, got %v", err)
	}
	if _, err := svc.Debit(ctx, "w1", -5, "ref"); !errors.Is(err, service.ErrInvalidAmount) {
		t.Errorf("expected ErrInvalidAmount for a negative debit, got %v", err)
	}
	if _, err := svc.Credit(ctx, "", 10, "ref"); !errors.Is(err, service.ErrInvalidWalletID) {
		t.Errorf("expected ErrInvalidWalletID, got %v", err)
	}
}
