// Package extract turns a classified message into a transaction record.
package extract

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/WagnerMushayija/momo-summative/internal/transaction"
)

const (
	// DefaultParty stands in for a counterparty that cannot be read from the text.
	DefaultParty    = "Momo Balance"
	DefaultCurrency = "RWF"

	timestampLayout      = "2006-01-02 15:04:05"
	defaultSnippetLength = 100
)

// ErrEmptyMessage marks a message without any text.
var ErrEmptyMessage = errors.New("empty message")

var (
	timestampRe = regexp.MustCompile(`(\d{4}-\d{2}-\d{2})\s+(\d{2}:\d{2}:\d{2})`)
	txIDRe      = regexp.MustCompile(`(?:Transaction Id:|TxId:)\s*(\d+)`)
)

// ExtractionFault reports an unexpected failure while reading one message.
// The message is dropped; the pipeline keeps going.
type ExtractionFault struct {
	Snippet string
	Err     error
}

func (e *ExtractionFault) Error() string {
	return fmt.Sprintf("extraction fault: %v (message: %q)", e.Err, e.Snippet)
}

func (e *ExtractionFault) Unwrap() error { return e.Err }

// Result is either a record or a skip with its reason.
type Result struct {
	Record  transaction.Record
	Skipped bool
	Reason  error
}

// OK reports whether Record is usable.
func (r Result) OK() bool { return !r.Skipped }

// Options tune the extractor. Zero values fall back to defaults.
type Options struct {
	Currency      string
	Location      *time.Location
	Clock         func() time.Time
	DefaultParty  string
	SnippetLength int
	Parties       map[transaction.Category]PartyRule
}

// Extractor applies the shared field extraction plus the per-category
// counterparty table.
type Extractor struct {
	amountRe   *regexp.Regexp
	location   *time.Location
	clock      func() time.Time
	fallback   string
	snippetLen int
	parties    map[transaction.Category]PartyRule
}

// New builds an Extractor.
func New(opts Options) *Extractor {
	currency := strings.TrimSpace(opts.Currency)
	if currency == "" {
		currency = DefaultCurrency
	}
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	fallback := opts.DefaultParty
	if fallback == "" {
		fallback = DefaultParty
	}
	snippetLen := opts.SnippetLength
	if snippetLen <= 0 {
		snippetLen = defaultSnippetLength
	}
	parties := opts.Parties
	if parties == nil {
		parties = DefaultParties()
	}

	return &Extractor{
		amountRe:   regexp.MustCompile(`(\d+(?:,\d+)*(?:\.\d+)?)\s*` + regexp.QuoteMeta(currency)),
		location:   loc,
		clock:      clock,
		fallback:   fallback,
		snippetLen: snippetLen,
		parties:    parties,
	}
}

// Extract builds the record for msg under category. Individual fields that are
// missing degrade to their defaults; anything unexpected drops the message.
func (e *Extractor) Extract(msg string, category transaction.Category) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			res = e.fault(msg, fmt.Errorf("panic: %v", r))
		}
	}()

	if strings.TrimSpace(msg) == "" {
		return Result{Skipped: true, Reason: ErrEmptyMessage}
	}

	rule, ok := e.parties[category]
	if !ok {
		return e.fault(msg, fmt.Errorf("no party rule for category %q", category))
	}

	amount, err := e.amount(msg)
	if err != nil {
		return e.fault(msg, err)
	}

	occurredAt, inferred, err := e.timestamp(msg)
	if err != nil {
		return e.fault(msg, err)
	}

	return Result{Record: transaction.Record{
		Category:          category,
		OccurredAt:        occurredAt,
		TimestampInferred: inferred,
		Amount:            amount,
		Sender:            rule.Sender.resolve(msg, e.fallback),
		Receiver:          rule.Receiver.resolve(msg, e.fallback),
		TransactionID:     transactionID(msg),
		RawText:           msg,
	}}
}

// Snippet truncates msg for log lines.
func (e *Extractor) Snippet(msg string) string {
	return Snippet(msg, e.snippetLen)
}

func (e *Extractor) fault(msg string, err error) Result {
	return Result{Skipped: true, Reason: &ExtractionFault{Snippet: e.Snippet(msg), Err: err}}
}

func (e *Extractor) amount(msg string) (decimal.Decimal, error) {
	m := e.amountRe.FindStringSubmatch(msg)
	if m == nil {
		return decimal.Zero, nil
	}
	amount, err := decimal.NewFromString(strings.ReplaceAll(m[1], ",", ""))
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse amount %q: %w", m[1], err)
	}
	return amount, nil
}

func (e *Extractor) timestamp(msg string) (time.Time, bool, error) {
	m := timestampRe.FindStringSubmatch(msg)
	if m == nil {
		return e.clock().In(e.location), true, nil
	}
	ts, err := time.ParseInLocation(timestampLayout, m[1]+" "+m[2], e.location)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("parse timestamp: %w", err)
	}
	return ts, false, nil
}

func transactionID(msg string) *string {
	m := txIDRe.FindStringSubmatch(msg)
	if m == nil {
		return nil
	}
	id := m[1]
	return &id
}

// Snippet returns at most n runes of msg with line breaks flattened.
func Snippet(msg string, n int) string {
	cleaned := strings.NewReplacer("\r", " ", "\n", " ").Replace(msg)
	runes := []rune(cleaned)
	if n <= 0 || len(runes) <= n {
		return cleaned
	}
	return string(runes[:n]) + "..."
}
