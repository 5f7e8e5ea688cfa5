package storage

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/WagnerMushayija/momo-summative/internal/transaction"
)

// DefaultLimit caps listings when the filter does not.
const DefaultLimit = 100

// Transaction is a persisted record.
type Transaction struct {
	ID            int64
	Category      transaction.Category
	DateTime      time.Time
	Amount        decimal.Decimal
	Sender        string
	Receiver      string
	TransactionID *string
	RawMessage    string
	CreatedAt     time.Time
}

// FromRecord maps an extracted record onto its row.
func FromRecord(rec transaction.Record) Transaction {
	return Transaction{
		Category:      rec.Category,
		DateTime:      rec.OccurredAt,
		Amount:        rec.Amount.Round(2),
		Sender:        rec.Sender,
		Receiver:      rec.Receiver,
		TransactionID: rec.TransactionID,
		RawMessage:    rec.RawText,
	}
}

// Filter narrows ListTransactions and CountTransactions. Zero fields do not
// constrain the query.
type Filter struct {
	Category  transaction.Category
	From      time.Time
	To        time.Time
	MinAmount *decimal.Decimal
	MaxAmount *decimal.Decimal
	// Search matches sender, receiver, category or message text, case-insensitively.
	Search string
	Limit  int
}

func (f Filter) limit() int {
	if f.Limit <= 0 {
		return DefaultLimit
	}
	return f.Limit
}
