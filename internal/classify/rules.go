package classify

import (
	"regexp"

	"github.com/WagnerMushayija/momo-summative/internal/transaction"
)

// RulesVersion identifies the built-in rule table. Bump it whenever the order
// or a pattern changes, since reclassifying an old backup may then differ.
const RulesVersion = 3

// failedMarker excludes notifications about transactions that did not go through.
const failedMarker = "failed"

// DefaultRules returns the built-in rule table, highest priority first.
//
// Several patterns overlap (bundle purchases are announced through the same
// *164* channel as third-party payments, bank transfers look like mobile
// transfers), so the order is load-bearing.
func DefaultRules() []Rule {
	return []Rule{
		{
			Category: transaction.IncomingMoney,
			Pattern:  mustCompile(`You have received \d+|has been reversed`),
			Forbid:   []string{failedMarker},
		},
		{
			Category: transaction.CodePayments,
			Pattern:  mustCompile(` your payment`),
			Forbid:   []string{failedMarker},
		},
		{
			Category: transaction.MobileTransfers,
			Pattern:  mustCompile(`\*165\*S\*.*transferred to |You have transferred|[A-Z][a-zA-Z\s]+ \(\d{12}\) has been completed`),
			Forbid:   []string{failedMarker, "imbank.bank"},
		},
		{
			Category: transaction.BankDeposits,
			Pattern:  mustCompile(`bank deposit`),
			Forbid:   []string{failedMarker},
		},
		{
			Category: transaction.AirtimePayments,
			Pattern:  mustCompile(`payment .* to Airtime`),
			Forbid:   []string{failedMarker},
		},
		{
			Category: transaction.CashPowerPayments,
			Pattern:  mustCompile(`payment .* to MTN Cash Power |ESICIA LTD `),
			Forbid:   []string{failedMarker},
		},
		{
			Category: transaction.ThirdParty,
			Pattern:  mustCompile(`^\*164\*S\*Y'ello,A transaction of \d+ RWF by [^ ]+ |ONAFRIQ MAURITIUS|WASAC.`),
			Forbid:   []string{failedMarker, "data bundle mtn"},
		},
		{
			Category: transaction.BankTransfers,
			Pattern:  mustCompile(`imbank\.bank`),
			Forbid:   []string{failedMarker},
		},
		{
			Category: transaction.Bundles,
			Pattern:  mustCompile(`Data Bundle|Bundle MTN|Yello!Umaze kugura|Bundles and Packs`),
			Forbid:   []string{failedMarker},
		},
		{
			Category: transaction.Withdrawals,
			Pattern:  mustCompile(`withdrawn`),
			Forbid:   []string{failedMarker},
		},
	}
}

func mustCompile(expr string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)` + expr)
}
