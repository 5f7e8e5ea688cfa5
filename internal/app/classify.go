package app

import (
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/WagnerMushayija/momo-summative/internal/classify"
)

// Classify explains how a single message would be handled: which rule wins
// and which fields are extracted.
func (a *App) Classify(msg string) error {
	if strings.TrimSpace(msg) == "" {
		return errors.New("message must not be empty")
	}

	extractor, err := a.newExtractor()
	if err != nil {
		return err
	}

	classifier := classify.New()
	category, rule := classifier.Match(msg)
	res := extractor.Extract(msg, category)

	writer := tabwriter.NewWriter(a.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(writer, "Category\t%s\n", category)
	if rule >= 0 {
		fmt.Fprintf(writer, "Rule\t#%d (v%d) %s\n", rule, classify.RulesVersion, classifier.Rules()[rule].Pattern)
	} else {
		fmt.Fprintf(writer, "Rule\tnone (v%d)\n", classify.RulesVersion)
	}

	if !res.OK() {
		fmt.Fprintf(writer, "Dropped\t%v\n", res.Reason)
		return writer.Flush()
	}

	rec := res.Record
	when := rec.OccurredAt.Format(time.RFC3339)
	if rec.TimestampInferred {
		when += " (inferred)"
	}
	txID := "-"
	if rec.TransactionID != nil {
		txID = *rec.TransactionID
	}
	fmt.Fprintf(writer, "Amount\t%s %s\n", rec.Amount.String(), a.Config.Pipeline.Currency)
	fmt.Fprintf(writer, "Date\t%s\n", when)
	fmt.Fprintf(writer, "Sender\t%s\n", rec.Sender)
	fmt.Fprintf(writer, "Receiver\t%s\n", rec.Receiver)
	fmt.Fprintf(writer, "Tx ID\t%s\n", txID)
	return writer.Flush()
}
