package transaction

import (
	"time"

	"github.com/shopspring/decimal"
)

// Record is one classified mobile-money message.
type Record struct {
	Category   Category
	OccurredAt time.Time
	// TimestampInferred is set when the message carried no timestamp and
	// OccurredAt holds the processing clock instead.
	TimestampInferred bool
	Amount            decimal.Decimal
	Sender            string
	Receiver          string
	TransactionID     *string
	RawText           string
}

// TxID returns the transaction identifier or an empty string.
func (r Record) TxID() string {
	if r.TransactionID == nil {
		return ""
	}
	return *r.TransactionID
}

// Summary holds per-category statistics computed from a record collection.
type Summary struct {
	Category Category
	Count    int
	Total    decimal.Decimal
	Min      decimal.Decimal
	Max      decimal.Decimal
	Average  decimal.Decimal
}
