package billing

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is a mutex-guarded in-memory Store. It honors the same
// atomicity contract as the Postgres store and backs tests and local
// development without a database.
type MemoryStore struct {
	mu       sync.Mutex
	accounts map[uuid.UUID]*Account
	ledger   map[string]LedgerEntry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		accounts: make(map[uuid.UUID]*Account),
		ledger:   make(map[string]LedgerEntry),
	}
}

func (s *MemoryStore) EnsureAccount(_ context.Context, userID uuid.UUID) (*Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ensureLocked(userID), nil
}

func (s *MemoryStore) ensureLocked(userID uuid.UUID) *Account {
	if account, ok := s.accounts[userID]; ok {
		return account
	}
	now := time.Now()
	account := &Account{
		UserID:    userID,
		Plan:      PlanFree,
		Status:    StatusInactive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.accounts[userID] = account
	return account
}

func (s *MemoryStore) GetAccount(_ context.Context, userID uuid.UUID) (*Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.accounts[userID]
	if !ok {
		return nil, ErrAccountNotFound
	}
	copied := *account
	return &copied, nil
}

func (s *MemoryStore) SetPlan(_ context.Context, userID uuid.UUID, plan Plan, status SubscriptionStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	account := s.ensureLocked(userID)
	account.Plan = plan
	account.Status = status
	account.UpdatedAt = time.Now()
	return nil
}

func (s *MemoryStore) SetStatus(_ context.Context, userID uuid.UUID, status SubscriptionStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	account := s.ensureLocked(userID)
	account.Status = status
	account.UpdatedAt = time.Now()
	return nil
}

func (s *MemoryStore) SetProviderCustomerID(_ context.Context, userID uuid.UUID, customerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	account := s.ensureLocked(userID)
	account.ProviderCustomerID = customerID
	account.UpdatedAt = time.Now()
	return nil
}

func (s *MemoryStore) GrantCredits(_ context.Context, entry LedgerEntry) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.ledger[entry.ExternalOrderID]; exists {
		return false, nil
	}
	entry.CreatedAt = time.Now()
	s.ledger[entry.ExternalOrderID] = entry

	account := s.ensureLocked(entry.UserID)
	account.CreditBalance += entry.CreditsGranted
	account.UpdatedAt = time.Now()
	return true, nil
}

func (s *MemoryStore) DebitCredits(_ context.Context, userID uuid.UUID, amount int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	account := s.ensureLocked(userID)
	if account.CreditBalance < amount {
		return false, nil
	}
	account.CreditBalance -= amount
	account.UpdatedAt = time.Now()
	return true, nil
}

func (s *MemoryStore) AddCredits(_ context.Context, userID uuid.UUID, amount int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	account := s.ensureLocked(userID)
	account.CreditBalance += amount
	account.UpdatedAt = time.Now()
	return nil
}

// LedgerEntry returns a recorded entry by its external order id.
func (s *MemoryStore) LedgerEntry(orderID string) (LedgerEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.ledger[orderID]
	return entry, ok
}

// MemoryLocker is an in-process Locker for tests and single-node setups.
type MemoryLocker struct {
	mu   sync.Mutex
	held map[string]time.Time
}

func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{held: make(map[string]time.Time)}
}

func (l *MemoryLocker) Acquire(_ context.Context, key string, ttl time.Duration) (func(), bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if expiry, ok := l.held[key]; ok && time.Now().Before(expiry) {
		return nil, false, nil
	}
	l.held[key] = time.Now().Add(ttl)

	release := func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.held, key)
	}
	return release, true, nil
}
