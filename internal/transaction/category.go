package transaction

import (
	"fmt"
	"strings"
)

// Category is the closed set of transaction kinds recognised in mobile-money messages.
type Category string

const (
	IncomingMoney     Category = "INCOMING_MONEY"
	CodePayments      Category = "CODE_PAYMENTS"
	MobileTransfers   Category = "MOBILE_TRANSFERS"
	BankDeposits      Category = "BANK_DEPOSITS"
	AirtimePayments   Category = "AIRTIME_PAYMENTS"
	CashPowerPayments Category = "CASHPOWER_PAYMENTS"
	ThirdParty        Category = "THIRD_PARTY"
	BankTransfers     Category = "BANK_TRANSFERS"
	Bundles           Category = "BUNDLES"
	Withdrawals       Category = "WITHDRAWALS"
	Uncategorized     Category = "UNCATEGORIZED"
)

// Direction tells whether money enters or leaves the wallet.
type Direction string

const (
	DirectionIncome  Direction = "income"
	DirectionExpense Direction = "expense"
	DirectionUnknown Direction = "unknown"
)

var allCategories = []Category{
	IncomingMoney,
	CodePayments,
	MobileTransfers,
	BankDeposits,
	AirtimePayments,
	CashPowerPayments,
	ThirdParty,
	BankTransfers,
	Bundles,
	Withdrawals,
	Uncategorized,
}

// Categories returns every category in classification priority order, the
// uncategorized sentinel last.
func Categories() []Category {
	out := make([]Category, len(allCategories))
	copy(out, allCategories)
	return out
}

// Valid reports whether c belongs to the closed set.
func (c Category) Valid() bool {
	for _, known := range allCategories {
		if c == known {
			return true
		}
	}
	return false
}

// Slug is the lower-case label used to name per-category destinations.
func (c Category) Slug() string {
	return strings.ToLower(string(c))
}

// Rank is the position of c in priority order, or len(Categories()) when unknown.
func (c Category) Rank() int {
	for i, known := range allCategories {
		if c == known {
			return i
		}
	}
	return len(allCategories)
}

// Direction maps a category onto the income/expense split used by reports.
func (c Category) Direction() Direction {
	switch c {
	case IncomingMoney:
		return DirectionIncome
	case Uncategorized:
		return DirectionUnknown
	default:
		if c.Valid() {
			return DirectionExpense
		}
		return DirectionUnknown
	}
}

// ParseCategory accepts either the canonical label or its slug.
func ParseCategory(v string) (Category, error) {
	c := Category(strings.ToUpper(strings.TrimSpace(v)))
	if !c.Valid() {
		return "", fmt.Errorf("unknown category %q", v)
	}
	return c, nil
}
