package classify

import (
	"regexp"
	"testing"

	"github.com/WagnerMushayija/momo-summative/internal/transaction"
)

func TestClassifyDefaultRules(t *testing.T) {
	cases := []struct {
		name string
		msg  string
		want transaction.Category
	}{
		{"incoming", "You have received 5,000 RWF from John Doe (12345678).", transaction.IncomingMoney},
		{"reversal", "Your transaction to Alice of 2000 RWF has been reversed at 2024-05-11 10:00:00.", transaction.IncomingMoney},
		{"code payment", "TxId: 987654. Your payment of 2,000 RWF to Jane Shop 123456 completed.", transaction.CodePayments},
		{"mobile transfer", "*165*S*10,000 RWF transferred to Alice Mukamana (250788123456) from 36521838 at 2024-05-10 12:00:00.", transaction.MobileTransfers},
		{"bank deposit", "*113*R*A bank deposit of 40000 RWF has been added to your mobile money account at 2024-05-11 18:43:49.", transaction.BankDeposits},
		{"airtime", "*162*TxId:13913173274*S*Your payment of 3000 RWF to Airtime with token  has been completed at 2024-05-12 11:41:28.", transaction.AirtimePayments},
		{"cash power", "*162*TxId:13913173275*S*Your payment of 5000 RWF to MTN Cash Power with token 1234 has been completed.", transaction.CashPowerPayments},
		{"third party", "*164*S*Y'ello,A transaction of 7000 RWF by Bralirwa Ltd on your MOMO account was successfully completed.", transaction.ThirdParty},
		{"third party wasac", "A payment to WASAC. of 4500 RWF was made.", transaction.ThirdParty},
		{"bank transfer", "You have transferred 50000 RWF to Imbank.bank (250788000000) at 2024-05-20 09:00:00.", transaction.BankTransfers},
		{"bundle", "Yello!Umaze kugura 1GB for 1000 RWF.", transaction.Bundles},
		{"withdrawal", "You Abebe (*********036) have via agent: Agent Sophia (250790777777), withdrawn 20000 RWF from your mobile money account.", transaction.Withdrawals},
		{"nothing", "Hello, see you tomorrow.", transaction.Uncategorized},
		{"empty", "", transaction.Uncategorized},
	}

	c := New()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := c.Classify(tc.msg); got != tc.want {
				t.Fatalf("Classify(%q) = %s, want %s", tc.msg, got, tc.want)
			}
		})
	}
}

func TestClassifyFailedTransactionsExcluded(t *testing.T) {
	c := New()
	msgs := []string{
		"You have received 1000 RWF from Bob but the transaction FAILED.",
		"*165*S*500 RWF transferred to Carol (250788123456) failed.",
		"Cash withdrawn of 2000 RWF failed.",
	}
	for _, msg := range msgs {
		if got := c.Classify(msg); got != transaction.Uncategorized {
			t.Fatalf("Classify(%q) = %s, want %s", msg, got, transaction.Uncategorized)
		}
	}
}

func TestClassifyBundleBeatsThirdPartyExclusion(t *testing.T) {
	msg := "*164*S*Y'ello,A transaction of 2000 RWF by Data Bundle MTN on your MOMO account was successfully completed."
	if got := New().Classify(msg); got != transaction.Bundles {
		t.Fatalf("bundle purchase classified as %s", got)
	}
}

func TestFirstMatchingRuleWins(t *testing.T) {
	msg := "You have received 2000 RWF from Dan. Your payment of 500 RWF was withdrawn."
	cat, idx := New().Match(msg)
	if cat != transaction.IncomingMoney || idx != 0 {
		t.Fatalf("Match = (%s, %d), want (%s, 0)", cat, idx, transaction.IncomingMoney)
	}

	// Reversing a custom table flips the outcome for the same text.
	a := Rule{Category: transaction.Withdrawals, Pattern: regexp.MustCompile(`(?i)withdrawn`)}
	b := Rule{Category: transaction.CodePayments, Pattern: regexp.MustCompile(`(?i)payment`)}
	if got := New(a, b).Classify(msg); got != transaction.Withdrawals {
		t.Fatalf("got %s with withdrawals first", got)
	}
	if got := New(b, a).Classify(msg); got != transaction.CodePayments {
		t.Fatalf("got %s with code payments first", got)
	}
}

func TestRuleTableIsImmutable(t *testing.T) {
	rules := []Rule{{Category: transaction.Withdrawals, Pattern: regexp.MustCompile(`withdrawn`), Forbid: []string{"failed"}}}
	c := New(rules...)

	rules[0].Category = transaction.Bundles
	rules[0].Forbid[0] = "nothing"

	if got := c.Classify("withdrawn"); got != transaction.Withdrawals {
		t.Fatalf("classifier followed caller mutation: %s", got)
	}
	if got := c.Classify("withdrawn failed"); got != transaction.Uncategorized {
		t.Fatalf("forbid list was shared with caller: %s", got)
	}
}

func TestDefaultRulesPriorityOrder(t *testing.T) {
	want := []transaction.Category{
		transaction.IncomingMoney,
		transaction.CodePayments,
		transaction.MobileTransfers,
		transaction.BankDeposits,
		transaction.AirtimePayments,
		transaction.CashPowerPayments,
		transaction.ThirdParty,
		transaction.BankTransfers,
		transaction.Bundles,
		transaction.Withdrawals,
	}
	rules := New().Rules()
	if len(rules) != len(want) {
		t.Fatalf("got %d rules, want %d", len(rules), len(want))
	}
	for i, r := range rules {
		if r.Category != want[i] {
			t.Fatalf("rule %d is %s, want %s", i, r.Category, want[i])
		}
		if len(r.Forbid) == 0 || r.Forbid[0] != failedMarker {
			t.Fatalf("rule %s does not exclude failed transactions", r.Category)
		}
	}
}
