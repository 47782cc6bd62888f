package billing

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/grimbang/nailart/pkg/pg"
)

// PgStore implements Store on Postgres. Atomicity contracts map directly
// onto SQL: conditional single-row UPDATEs for balance mutations and one
// transaction for the ledger insert plus increment.
type PgStore struct {
	pool *pgxpool.Pool
}

func NewPgStore(pool *pgxpool.Pool) *PgStore {
	if pool == nil {
		panic("billing: pgx pool is required")
	}
	return &PgStore{pool: pool}
}

func (s *PgStore) EnsureAccount(ctx context.Context, userID uuid.UUID) (*Account, error) {
	const query = `
		INSERT INTO accounts (user_id)
		VALUES ($1)
		ON CONFLICT (user_id) DO UPDATE SET user_id = EXCLUDED.user_id
		RETURNING user_id, plan, subscription_status, credit_balance,
			COALESCE(provider_customer_id, ''), created_at, updated_at`

	return s.scanAccount(s.pool.QueryRow(ctx, query, userID))
}

func (s *PgStore) GetAccount(ctx context.Context, userID uuid.UUID) (*Account, error) {
	const query = `
		SELECT user_id, plan, subscription_status, credit_balance,
			COALESCE(provider_customer_id, ''), created_at, updated_at
		FROM accounts
		WHERE user_id = $1`

	account, err := s.scanAccount(s.pool.QueryRow(ctx, query, userID))
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return account, nil
}

func (s *PgStore) scanAccount(row pgx.Row) (*Account, error) {
	var account Account
	err := row.Scan(
		&account.UserID,
		&account.Plan,
		&account.Status,
		&account.CreditBalance,
		&account.ProviderCustomerID,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (s *PgStore) SetPlan(ctx context.Context, userID uuid.UUID, plan Plan, status SubscriptionStatus) error {
	const query = `
		UPDATE accounts
		SET plan = $2, subscription_status = $3, updated_at = now()
		WHERE user_id = $1`

	tag, err := s.pool.Exec(ctx, query, userID, plan, status)
	if err != nil {
		return fmt.Errorf("failed to set plan: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAccountNotFound
	}
	return nil
}

func (s *PgStore) SetStatus(ctx context.Context, userID uuid.UUID, status SubscriptionStatus) error {
	const query = `
		UPDATE accounts
		SET subscription_status = $2, updated_at = now()
		WHERE user_id = $1`

	tag, err := s.pool.Exec(ctx, query, userID, status)
	if err != nil {
		return fmt.Errorf("failed to set subscription status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAccountNotFound
	}
	return nil
}

func (s *PgStore) SetProviderCustomerID(ctx context.Context, userID uuid.UUID, customerID string) error {
	const query = `
		UPDATE accounts
		SET provider_customer_id = $2, updated_at = now()
		WHERE user_id = $1`

	tag, err := s.pool.Exec(ctx, query, userID, customerID)
	if err != nil {
		return fmt.Errorf("failed to set provider customer id: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAccountNotFound
	}
	return nil
}

// GrantCredits commits the ledger row and the balance increment together.
// The unique key on external_order_id makes redelivery a clean no-op: the
// insert affects zero rows and the increment never runs.
func (s *PgStore) GrantCredits(ctx context.Context, entry LedgerEntry) (bool, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	const insert = `
		INSERT INTO credit_ledger (external_order_id, user_id, plan, amount_charged, credits_granted, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (external_order_id) DO NOTHING`

	tag, err := tx.Exec(ctx, insert,
		entry.ExternalOrderID, entry.UserID, entry.Plan,
		entry.AmountCharged, entry.CreditsGranted, entry.Status)
	if err != nil {
		return false, fmt.Errorf("failed to record ledger entry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}

	const increment = `
		UPDATE accounts
		SET credit_balance = credit_balance + $2, updated_at = now()
		WHERE user_id = $1`

	tag, err = tx.Exec(ctx, increment, entry.UserID, entry.CreditsGranted)
	if err != nil {
		return false, fmt.Errorf("failed to credit account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return false, errors.Join(ErrAccountNotFound, fmt.Errorf("user %s", entry.UserID))
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("failed to commit credit grant: %w", err)
	}
	return true, nil
}

// DebitCredits is a single conditional UPDATE; the balance check and the
// decrement cannot interleave with a concurrent writer.
func (s *PgStore) DebitCredits(ctx context.Context, userID uuid.UUID, amount int64) (bool, error) {
	const query = `
		UPDATE accounts
		SET credit_balance = credit_balance - $2, updated_at = now()
		WHERE user_id = $1 AND credit_balance >= $2`

	tag, err := s.pool.Exec(ctx, query, userID, amount)
	if err != nil {
		return false, fmt.Errorf("failed to debit credits: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *PgStore) AddCredits(ctx context.Context, userID uuid.UUID, amount int64) error {
	const query = `
		UPDATE accounts
		SET credit_balance = credit_balance + $2, updated_at = now()
		WHERE user_id = $1`

	tag, err := s.pool.Exec(ctx, query, userID, amount)
	if err != nil {
		return fmt.Errorf("failed to add credits: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAccountNotFound
	}
	return nil
}
