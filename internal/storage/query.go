package storage

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const sqliteTimeLayout = "2006-01-02 15:04:05"

// dialect captures the differences between the Postgres and SQLite schemas.
type dialect struct {
	placeholder func(n int) string
	amountCol   string
	amountText  string
	timeArg     func(time.Time) any
	amountArg   func(decimal.Decimal) any
}

var postgresDialect = dialect{
	placeholder: func(n int) string { return "$" + strconv.Itoa(n) },
	amountCol:   "amount",
	amountText:  "amount::text",
	timeArg:     func(t time.Time) any { return t },
	amountArg:   func(d decimal.Decimal) any { return d.String() },
}

var sqliteDialect = dialect{
	placeholder: func(int) string { return "?" },
	amountCol:   "CAST(amount AS REAL)",
	amountText:  "amount",
	timeArg:     func(t time.Time) any { return t.UTC().Format(sqliteTimeLayout) },
	amountArg:   func(d decimal.Decimal) any { return d.InexactFloat64() },
}

func (d dialect) insertSQL() string {
	ph := make([]string, 7)
	for i := range ph {
		ph[i] = d.placeholder(i + 1)
	}
	return `INSERT INTO transactions (
        category,
        date_time,
        amount,
        sender,
        receiver,
        transaction_id,
        raw_message
    ) VALUES (` + strings.Join(ph, ",") + `)
    ON CONFLICT (transaction_id) DO NOTHING;`
}

// where renders the filter predicates and their arguments.
func (d dialect) where(f Filter) (string, []any) {
	var (
		clauses []string
		args    []any
	)
	next := func(v any) string {
		args = append(args, v)
		return d.placeholder(len(args))
	}

	if f.Category != "" {
		clauses = append(clauses, "category = "+next(string(f.Category)))
	}
	if !f.From.IsZero() {
		clauses = append(clauses, "date_time >= "+next(d.timeArg(f.From)))
	}
	if !f.To.IsZero() {
		clauses = append(clauses, "date_time < "+next(d.timeArg(f.To)))
	}
	if f.MinAmount != nil {
		clauses = append(clauses, d.amountCol+" >= "+next(d.amountArg(*f.MinAmount)))
	}
	if f.MaxAmount != nil {
		clauses = append(clauses, d.amountCol+" <= "+next(d.amountArg(*f.MaxAmount)))
	}
	if term := strings.TrimSpace(f.Search); term != "" {
		pattern := "%" + strings.ToLower(term) + "%"
		var ors []string
		for _, col := range []string{"sender", "receiver", "category", "raw_message"} {
			ors = append(ors, "LOWER("+col+") LIKE "+next(pattern))
		}
		clauses = append(clauses, "("+strings.Join(ors, " OR ")+")")
	}

	if len(clauses) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func (d dialect) listSQL(f Filter) (string, []any) {
	where, args := d.where(f)
	args = append(args, f.limit())
	query := `SELECT
        id,
        category,
        date_time,
        ` + d.amountText + `,
        sender,
        receiver,
        transaction_id,
        raw_message,
        created_at
    FROM transactions` + where + `
    ORDER BY date_time DESC, id DESC
    LIMIT ` + d.placeholder(len(args)) + `;`
	return query, args
}

func (d dialect) countSQL(f Filter) (string, []any) {
	where, args := d.where(f)
	return "SELECT COUNT(*) FROM transactions" + where + ";", args
}
