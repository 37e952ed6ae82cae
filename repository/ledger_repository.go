package repository

import (
	"context"
	"errors"
	"fmt"

	"bicho/database"
	"bicho/domain/entities"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	uniqueViolation          = "23505"
	ledgerIdempotencyKeyName = "ledger_entries_idempotency_key_key"
)

// LedgerRepository implements the append-only ledger and its balance projection
type LedgerRepository struct {
	q queryable
}

// NewLedgerRepository creates a new ledger repository
func NewLedgerRepository(db *database.DB) *LedgerRepository {
	return &LedgerRepository{q: db.Pool}
}

func newLedgerRepositoryWithTx(tx queryable) *LedgerRepository {
	return &LedgerRepository{q: tx}
}

// Append inserts the entry and applies it to the account projection in a single
// statement, so the balance_after stored with the entry is computed under the
// projection's row lock. A reused idempotency key aborts the whole statement.
func (r *LedgerRepository) Append(ctx context.Context, entry *entities.LedgerEntry) error {
	if err := entry.Validate(); err != nil {
		return fmt.Errorf("invalid ledger entry: %w", err)
	}
	if entry.Metadata == nil {
		entry.Metadata = map[string]any{}
	}

	query := `
		WITH next AS (
			SELECT nextval(pg_get_serial_sequence('ledger_entries', 'id')) AS id
		),
		projection AS (
			INSERT INTO account_balances (account_id, balance, last_entry_id, updated_at)
			SELECT $1::bigint, $2::bigint, next.id, NOW() FROM next
			ON CONFLICT (account_id) DO UPDATE
			SET balance = account_balances.balance + EXCLUDED.balance,
			    last_entry_id = GREATEST(account_balances.last_entry_id, EXCLUDED.last_entry_id),
			    updated_at = NOW()
			RETURNING balance
		)
		INSERT INTO ledger_entries (
			id, account_id, amount, entry_type, related_type, related_id,
			idempotency_key, balance_after, metadata
		)
		SELECT next.id, $1::bigint, $2::bigint, $3::text, $4::text, $5::bigint, $6::text, projection.balance, $7::jsonb
		FROM next, projection
		RETURNING id, balance_after, created_at
	`

	err := r.q.QueryRow(ctx, query,
		entry.AccountID,
		entry.Amount,
		entry.EntryType,
		entry.RelatedType,
		entry.RelatedID,
		entry.IdempotencyKey,
		entry.Metadata,
	).Scan(&entry.ID, &entry.BalanceAfter, &entry.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation && pgErr.ConstraintName == ledgerIdempotencyKeyName {
			return entities.ErrDuplicateLedgerEntry
		}
		return fmt.Errorf("failed to append ledger entry %s: %w", entry.IdempotencyKey, err)
	}

	return nil
}

const ledgerColumns = `
	id, account_id, amount, entry_type, related_type, related_id,
	idempotency_key, balance_after, metadata, created_at
`

func scanLedgerEntry(row pgx.Row) (*entities.LedgerEntry, error) {
	var e entities.LedgerEntry
	err := row.Scan(
		&e.ID,
		&e.AccountID,
		&e.Amount,
		&e.EntryType,
		&e.RelatedType,
		&e.RelatedID,
		&e.IdempotencyKey,
		&e.BalanceAfter,
		&e.Metadata,
		&e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// GetByAccount returns the newest entries of an account
func (r *LedgerRepository) GetByAccount(ctx context.Context, accountID int64, limit int) ([]*entities.LedgerEntry, error) {
	query := `SELECT ` + ledgerColumns + `
		FROM ledger_entries
		WHERE account_id = $1
		ORDER BY id DESC
		LIMIT $2
	`

	rows, err := r.q.Query(ctx, query, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger for account %d: %w", accountID, err)
	}
	defer rows.Close()

	var entries []*entities.LedgerEntry
	for rows.Next() {
		entry, err := scanLedgerEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ledger entries: %w", err)
	}

	return entries, nil
}

// GetByIdempotencyKey returns the entry recorded under key, or nil
func (r *LedgerRepository) GetByIdempotencyKey(ctx context.Context, key string) (*entities.LedgerEntry, error) {
	query := `SELECT ` + ledgerColumns + ` FROM ledger_entries WHERE idempotency_key = $1`

	entry, err := scanLedgerEntry(r.q.QueryRow(ctx, query, key))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get ledger entry %s: %w", key, err)
	}
	return entry, nil
}

// SumByAccount folds the ledger into a balance
func (r *LedgerRepository) SumByAccount(ctx context.Context, accountID int64) (entities.Cents, error) {
	var total entities.Cents
	err := r.q.QueryRow(ctx, `SELECT COALESCE(SUM(amount), 0) FROM ledger_entries WHERE account_id = $1`, accountID).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to sum ledger for account %d: %w", accountID, err)
	}
	return total, nil
}

// GetProjectedBalance reads the account's projection row, or nil if it has none
func (r *LedgerRepository) GetProjectedBalance(ctx context.Context, accountID int64) (*entities.BalanceProjection, error) {
	query := `
		SELECT account_id, balance, COALESCE(last_entry_id, 0)
		FROM account_balances
		WHERE account_id = $1
	`

	var p entities.BalanceProjection
	err := r.q.QueryRow(ctx, query, accountID).Scan(&p.AccountID, &p.Balance, &p.LastEntryID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get projected balance for account %d: %w", accountID, err)
	}
	return &p, nil
}

// RebuildProjections recomputes every projection row from the ledger
func (r *LedgerRepository) RebuildProjections(ctx context.Context) (int64, error) {
	query := `
		INSERT INTO account_balances (account_id, balance, last_entry_id, updated_at)
		SELECT account_id, SUM(amount), MAX(id), NOW()
		FROM ledger_entries
		GROUP BY account_id
		ON CONFLICT (account_id) DO UPDATE
		SET balance = EXCLUDED.balance,
		    last_entry_id = EXCLUDED.last_entry_id,
		    updated_at = NOW()
	`

	tag, err := r.q.Exec(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("failed to rebuild balance projections: %w", err)
	}
	return tag.RowsAffected(), nil
}
