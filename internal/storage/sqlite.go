package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"github.com/WagnerMushayija/momo-summative/internal/transaction"
)

// SQLiteStore is the single-file TransactionStore.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// one writer at a time; sqlite serialises anyway
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStore) getDB() (*sql.DB, error) {
	if s == nil || s.db == nil {
		return nil, ErrNotConfigured
	}
	return s.db, nil
}

// InsertTransactions stores records in one transaction and returns how many
// rows were new.
func (s *SQLiteStore) InsertTransactions(ctx context.Context, records []transaction.Record) (int, error) {
	db, err := s.getDB()
	if err != nil {
		return 0, err
	}
	if len(records) == 0 {
		return 0, nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin insert: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, sqliteDialect.insertSQL())
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, rec := range records {
		row := FromRecord(rec)
		var txID any
		if row.TransactionID != nil {
			txID = *row.TransactionID
		}
		res, execErr := stmt.ExecContext(ctx,
			string(row.Category),
			row.DateTime.UTC().Format(sqliteTimeLayout),
			row.Amount.StringFixed(2),
			row.Sender,
			row.Receiver,
			txID,
			row.RawMessage,
		)
		if execErr != nil {
			return 0, fmt.Errorf("insert transaction: %w", execErr)
		}
		n, _ := res.RowsAffected()
		inserted += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit insert: %w", err)
	}
	return inserted, nil
}

// ListTransactions returns matching rows, newest first.
func (s *SQLiteStore) ListTransactions(ctx context.Context, filter Filter) ([]Transaction, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	query, args := sqliteDialect.listSQL(filter)
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	out := make([]Transaction, 0)
	for rows.Next() {
		var (
			row       Transaction
			category  string
			dateTime  string
			amountStr string
			txID      sql.NullString
			createdAt string
		)
		if err := rows.Scan(
			&row.ID,
			&category,
			&dateTime,
			&amountStr,
			&row.Sender,
			&row.Receiver,
			&txID,
			&row.RawMessage,
			&createdAt,
		); err != nil {
			return nil, err
		}

		row.Category = transaction.Category(category)
		if row.DateTime, err = time.ParseInLocation(sqliteTimeLayout, dateTime, time.UTC); err != nil {
			return nil, fmt.Errorf("parse date_time: %w", err)
		}
		if row.Amount, err = decimal.NewFromString(amountStr); err != nil {
			return nil, fmt.Errorf("parse amount: %w", err)
		}
		if row.CreatedAt, err = time.ParseInLocation(sqliteTimeLayout, createdAt, time.UTC); err != nil {
			return nil, fmt.Errorf("parse created_at: %w", err)
		}
		if txID.Valid {
			id := txID.String
			row.TransactionID = &id
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// CountTransactions counts matching rows; Limit is ignored.
func (s *SQLiteStore) CountTransactions(ctx context.Context, filter Filter) (int64, error) {
	db, err := s.getDB()
	if err != nil {
		return 0, err
	}
	query, args := sqliteDialect.countSQL(filter)
	var count int64
	if err := db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count transactions: %w", err)
	}
	return count, nil
}

var _ TransactionStore = (*SQLiteStore)(nil)
