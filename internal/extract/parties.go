package extract

import (
	"regexp"
	"strings"

	"github.com/WagnerMushayija/momo-summative/internal/transaction"
)

// Fixed counterparty labels.
const (
	LabelBank           = "BANK"
	LabelMe             = "ME"
	LabelCashPower      = "CASH_POWER"
	LabelAirtimeBalance = "AIRTIME_BALANCE"
)

// Party describes how one side of a transaction is resolved: a fixed label, a
// capture expression whose first group is the party, or neither (default).
type Party struct {
	Label   string
	Capture *regexp.Regexp
}

func (p Party) resolve(msg, fallback string) string {
	if p.Label != "" {
		return p.Label
	}
	if p.Capture == nil {
		return fallback
	}
	m := p.Capture.FindStringSubmatch(msg)
	if len(m) < 2 {
		return fallback
	}
	if v := strings.TrimSpace(m[1]); v != "" {
		return v
	}
	return fallback
}

// PartyRule holds the sender and receiver resolution for one category.
type PartyRule struct {
	Sender   Party
	Receiver Party
}

var (
	fromUntilParen  = regexp.MustCompile(`from\s+([^(]*)`)
	toUntilParen    = regexp.MustCompile(`to\s+([^(]*)`)
	toBeforeCode    = regexp.MustCompile(`to\s+([A-Za-z\s]+)\s+\d+`)
	upperRunAfterBy = regexp.MustCompile(`(?:by|to)\s+([A-Z]+)(?:\s|$)`)
)

func fixed(label string) Party { return Party{Label: label} }

func captured(re *regexp.Regexp) Party { return Party{Capture: re} }

// DefaultParties is the counterparty table. It covers every category,
// including the uncategorized sentinel.
func DefaultParties() map[transaction.Category]PartyRule {
	return map[transaction.Category]PartyRule{
		transaction.IncomingMoney:     {Sender: captured(fromUntilParen)},
		transaction.CodePayments:      {Receiver: captured(toBeforeCode)},
		transaction.MobileTransfers:   {Receiver: captured(toUntilParen)},
		transaction.BankDeposits:      {Sender: fixed(LabelBank)},
		transaction.BankTransfers:     {Sender: fixed(LabelBank), Receiver: captured(toUntilParen)},
		transaction.ThirdParty:        {Receiver: captured(upperRunAfterBy)},
		transaction.Withdrawals:       {Receiver: fixed(LabelMe)},
		transaction.CashPowerPayments: {Receiver: fixed(LabelCashPower)},
		transaction.Bundles:           {Receiver: fixed(LabelAirtimeBalance)},
		transaction.AirtimePayments:   {Receiver: fixed(LabelAirtimeBalance)},
		transaction.Uncategorized:     {},
	}
}
