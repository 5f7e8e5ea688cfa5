package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"
)

// Show prints stored transactions matching the filter, newest first.
func (a *App) Show(ctx context.Context, opts ShowOptions) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database not configured; cannot show transactions")
	}
	if closeStore != nil {
		defer closeStore()
	}

	rows, err := store.ListTransactions(ctx, opts.Filter)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		fmt.Fprintln(a.Out, "no transactions found")
		return nil
	}
	total, err := store.CountTransactions(ctx, opts.Filter)
	if err != nil {
		return err
	}

	writer := tabwriter.NewWriter(a.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Time (UTC)\tCategory\tAmount\tSender\tReceiver\tTx ID\tMessage")

	for _, row := range rows {
		txID := ""
		if row.TransactionID != nil {
			txID = *row.TransactionID
		}
		fmt.Fprintf(
			writer,
			"%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			row.DateTime.UTC().Format(time.RFC3339),
			row.Category,
			formatDecimal(row.Amount, 2),
			sanitizeInline(row.Sender),
			sanitizeInline(row.Receiver),
			txID,
			truncate(sanitizeInline(row.RawMessage), a.Config.Pipeline.SnippetLength),
		)
	}

	writer.Flush()
	fmt.Fprintf(a.Out, "showing %d of %d\n", len(rows), total)
	return nil
}

func sanitizeInline(v string) string {
	cleaned := strings.ReplaceAll(v, "\n", " ")
	cleaned = strings.ReplaceAll(cleaned, "\r", " ")
	cleaned = strings.ReplaceAll(cleaned, "\t", " ")
	return cleaned
}

func truncate(v string, n int) string {
	runes := []rune(v)
	if n <= 0 || len(runes) <= n {
		return v
	}
	return string(runes[:n]) + "..."
}
