// Package aggregate folds transaction records into report statistics.
package aggregate

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/WagnerMushayija/momo-summative/internal/transaction"
)

// Summarize computes per-category statistics for the categories present in
// records, in classification priority order. Categories without records get no
// entry, so Average never divides by zero.
func Summarize(records []transaction.Record) []transaction.Summary {
	byCat := make(map[transaction.Category]*transaction.Summary)
	for _, rec := range records {
		s, ok := byCat[rec.Category]
		if !ok {
			s = &transaction.Summary{
				Category: rec.Category,
				Total:    decimal.Zero,
				Min:      rec.Amount,
				Max:      rec.Amount,
			}
			byCat[rec.Category] = s
		}
		s.Count++
		s.Total = s.Total.Add(rec.Amount)
		if rec.Amount.LessThan(s.Min) {
			s.Min = rec.Amount
		}
		if rec.Amount.GreaterThan(s.Max) {
			s.Max = rec.Amount
		}
	}

	out := make([]transaction.Summary, 0, len(byCat))
	for _, s := range byCat {
		s.Average = s.Total.Div(decimal.NewFromInt(int64(s.Count)))
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool {
		ri, rj := out[i].Category.Rank(), out[j].Category.Rank()
		if ri != rj {
			return ri < rj
		}
		return out[i].Category < out[j].Category
	})
	return out
}

// MonthlyTotal is the per calendar month roll-up of every record.
type MonthlyTotal struct {
	Year  int
	Month int
	Count int
	Total decimal.Decimal
}

// Monthly groups records by the year and month they occurred in, oldest first.
func Monthly(records []transaction.Record) []MonthlyTotal {
	type key struct{ year, month int }
	totals := make(map[key]*MonthlyTotal)
	for _, rec := range records {
		k := key{rec.OccurredAt.Year(), int(rec.OccurredAt.Month())}
		m, ok := totals[k]
		if !ok {
			m = &MonthlyTotal{Year: k.year, Month: k.month, Total: decimal.Zero}
			totals[k] = m
		}
		m.Count++
		m.Total = m.Total.Add(rec.Amount)
	}

	out := make([]MonthlyTotal, 0, len(totals))
	for _, m := range totals {
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year < out[j].Year
		}
		return out[i].Month < out[j].Month
	})
	return out
}

// Overview splits the money flow into income and expenses.
type Overview struct {
	Income        decimal.Decimal
	Expenses      decimal.Decimal
	Net           decimal.Decimal
	Uncategorized decimal.Decimal
}

// OverviewOf builds the income/expense overview. Uncategorized amounts are
// reported separately and excluded from Net.
func OverviewOf(records []transaction.Record) Overview {
	ov := Overview{Income: decimal.Zero, Expenses: decimal.Zero, Uncategorized: decimal.Zero}
	for _, rec := range records {
		switch rec.Category.Direction() {
		case transaction.DirectionIncome:
			ov.Income = ov.Income.Add(rec.Amount)
		case transaction.DirectionExpense:
			ov.Expenses = ov.Expenses.Add(rec.Amount)
		default:
			ov.Uncategorized = ov.Uncategorized.Add(rec.Amount)
		}
	}
	ov.Net = ov.Income.Sub(ov.Expenses)
	return ov
}
