package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/WagnerMushayija/momo-summative/internal/transaction"
)

var (
	// ErrNotConfigured indicates the storage pool was not initialised.
	ErrNotConfigured = errors.New("storage: pool not configured")
)

// TransactionStore persists extracted records downstream of the pipeline.
// transaction_id uniqueness is enforced here: re-inserting a known id is a
// no-op.
type TransactionStore interface {
	InsertTransactions(ctx context.Context, records []transaction.Record) (int, error)
	ListTransactions(ctx context.Context, filter Filter) ([]Transaction, error)
	CountTransactions(ctx context.Context, filter Filter) (int64, error)
	Close() error
}

// AdvisoryLocker exposes advisory lock helpers.
type AdvisoryLocker interface {
	TryAdvisoryLock(ctx context.Context, key int64) (unlock func(), acquired bool, err error)
}

const (
	tryAdvisoryLockSQL = `SELECT pg_try_advisory_lock($1);`
	advisoryUnlockSQL  = `SELECT pg_advisory_unlock($1);`
)

// PostgresStore is the pgx-backed TransactionStore.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore wires a pgx pool into a PostgresStore.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Close releases the underlying pool resources.
func (s *PostgresStore) Close() error {
	if s == nil || s.pool == nil {
		return nil
	}
	s.pool.Close()
	return nil
}

// TryAdvisoryLock attempts to acquire a postgres advisory lock and returns a
// release func. The lock lives on one pooled connection until released.
func (s *PostgresStore) TryAdvisoryLock(ctx context.Context, key int64) (func(), bool, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, false, err
	}

	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("acquire connection: %w", err)
	}

	var acquired bool
	if err := conn.QueryRow(ctx, tryAdvisoryLockSQL, key).Scan(&acquired); err != nil {
		conn.Release()
		return nil, false, fmt.Errorf("try advisory lock: %w", err)
	}
	if !acquired {
		conn.Release()
		return nil, false, nil
	}

	unlock := func() {
		ctxUnlock, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		// a failed unlock is released with the session
		_, _ = conn.Exec(ctxUnlock, advisoryUnlockSQL, key)
		conn.Release()
	}
	return unlock, true, nil
}

func (s *PostgresStore) getPool() (*pgxpool.Pool, error) {
	if s == nil || s.pool == nil {
		return nil, ErrNotConfigured
	}
	return s.pool, nil
}

// InsertTransactions stores records in one transaction and returns how many
// rows were new.
func (s *PostgresStore) InsertTransactions(ctx context.Context, records []transaction.Record) (int, error) {
	pool, err := s.getPool()
	if err != nil {
		return 0, err
	}
	if len(records) == 0 {
		return 0, nil
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin insert: %w", err)
	}
	defer tx.Rollback(ctx)

	query := postgresDialect.insertSQL()
	inserted := 0
	for _, rec := range records {
		row := FromRecord(rec)
		tag, execErr := tx.Exec(ctx, query,
			string(row.Category),
			row.DateTime,
			row.Amount.String(),
			row.Sender,
			row.Receiver,
			row.TransactionID,
			row.RawMessage,
		)
		if execErr != nil {
			return 0, fmt.Errorf("insert transaction: %w", execErr)
		}
		inserted += int(tag.RowsAffected())
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit insert: %w", err)
	}
	return inserted, nil
}

// ListTransactions returns matching rows, newest first.
func (s *PostgresStore) ListTransactions(ctx context.Context, filter Filter) ([]Transaction, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	query, args := postgresDialect.listSQL(filter)
	rows, queryErr := pool.Query(ctx, query, args...)
	if queryErr != nil {
		return nil, fmt.Errorf("list transactions: %w", queryErr)
	}
	defer rows.Close()

	out := make([]Transaction, 0)
	for rows.Next() {
		row, scanErr := scanPostgresTransaction(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		out = append(out, row)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

// CountTransactions counts matching rows; Limit is ignored.
func (s *PostgresStore) CountTransactions(ctx context.Context, filter Filter) (int64, error) {
	pool, err := s.getPool()
	if err != nil {
		return 0, err
	}
	query, args := postgresDialect.countSQL(filter)
	var count int64
	if scanErr := pool.QueryRow(ctx, query, args...).Scan(&count); scanErr != nil {
		return 0, fmt.Errorf("count transactions: %w", scanErr)
	}
	return count, nil
}

func scanPostgresTransaction(rows pgx.Rows) (Transaction, error) {
	var (
		row       Transaction
		category  string
		amountStr string
		createdAt time.Time
	)
	if err := rows.Scan(
		&row.ID,
		&category,
		&row.DateTime,
		&amountStr,
		&row.Sender,
		&row.Receiver,
		&row.TransactionID,
		&row.RawMessage,
		&createdAt,
	); err != nil {
		return Transaction{}, err
	}

	amount, err := decimal.NewFromString(amountStr)
	if err != nil {
		return Transaction{}, fmt.Errorf("parse amount: %w", err)
	}
	row.Category = transaction.Category(category)
	row.Amount = amount
	row.CreatedAt = createdAt
	return row, nil
}

var (
	_ TransactionStore = (*PostgresStore)(nil)
	_ AdvisoryLocker   = (*PostgresStore)(nil)
)
