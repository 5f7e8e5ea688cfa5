// Package sink writes one JSON document per category to a pluggable destination.
package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/WagnerMushayija/momo-summative/internal/transaction"
)

// Destination stores a named document. Implementations must be safe for
// concurrent use; the sink writes categories in parallel.
type Destination interface {
	Put(ctx context.Context, name string, payload []byte) error
	Location(name string) string
}

// DestinationWriteError lists every category that could not be written.
type DestinationWriteError struct {
	Failed []transaction.Category
	Err    error
}

func (e *DestinationWriteError) Error() string {
	names := make([]string, len(e.Failed))
	for i, c := range e.Failed {
		names[i] = string(c)
	}
	return fmt.Sprintf("write destinations [%s]: %v", strings.Join(names, ","), e.Err)
}

func (e *DestinationWriteError) Unwrap() error { return e.Err }

// Group is the ordered record list of one category.
type Group struct {
	Category transaction.Category
	Records  []transaction.Record
}

// Groups indexes records by category, preserving input order within each list.
type Groups map[transaction.Category][]transaction.Record

// GroupRecords builds Groups from records.
func GroupRecords(records []transaction.Record) Groups {
	g := make(Groups)
	for _, rec := range records {
		g[rec.Category] = append(g[rec.Category], rec)
	}
	return g
}

// Merge concatenates per-worker partial groups in the order given, so that
// contiguous chunks merged in chunk order reproduce the source order.
func Merge(parts ...Groups) Groups {
	out := make(Groups)
	for _, part := range parts {
		for cat, recs := range part {
			out[cat] = append(out[cat], recs...)
		}
	}
	return out
}

// Ordered returns the non-empty groups in classification priority order.
func (g Groups) Ordered() []Group {
	out := make([]Group, 0, len(g))
	for cat, recs := range g {
		if len(recs) == 0 {
			continue
		}
		out = append(out, Group{Category: cat, Records: recs})
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

// DocumentName is the destination name of a category's document.
func DocumentName(c transaction.Category) string {
	return c.Slug() + ".json"
}

// Sink encodes and writes category documents.
type Sink struct {
	dest   Destination
	logger zerolog.Logger
}

// New wires a destination into a Sink.
func New(dest Destination, logger zerolog.Logger) *Sink {
	return &Sink{dest: dest, logger: logger.With().Str("component", "sink").Logger()}
}

// Write groups records by category and writes each group.
func (s *Sink) Write(ctx context.Context, records []transaction.Record) (map[transaction.Category]int, error) {
	return s.WriteGroups(ctx, GroupRecords(records))
}

// WriteGroups writes every group independently: a failing category does not
// stop or cancel the others. All failures are reported together.
func (s *Sink) WriteGroups(ctx context.Context, groups Groups) (map[transaction.Category]int, error) {
	var (
		g       errgroup.Group
		mu      sync.Mutex
		written = make(map[transaction.Category]int)
		failed  []transaction.Category
		errs    []error
	)

	for _, group := range groups.Ordered() {
		group := group
		g.Go(func() error {
			name := DocumentName(group.Category)
			payload, err := Encode(group.Records)
			if err == nil {
				err = s.dest.Put(ctx, name, payload)
			}

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed = append(failed, group.Category)
				errs = append(errs, fmt.Errorf("%s: %w", group.Category, err))
				s.logger.Error().Err(err).Str("category", string(group.Category)).Msg("failed to write category")
				return nil
			}
			written[group.Category] = len(group.Records)
			s.logger.Info().
				Str("category", string(group.Category)).
				Int("records", len(group.Records)).
				Str("destination", s.dest.Location(name)).
				Msg("category written")
			return nil
		})
	}
	_ = g.Wait()

	if len(errs) > 0 {
		sort.Slice(failed, func(i, j int) bool { return failed[i].Rank() < failed[j].Rank() })
		return written, &DestinationWriteError{Failed: failed, Err: errors.Join(errs...)}
	}
	return written, nil
}

type document struct {
	Datetime      string      `json:"datetime"`
	Amount        json.Number `json:"amount"`
	Sender        string      `json:"sender"`
	Receiver      string      `json:"receiver"`
	TransactionID *string     `json:"transaction_id"`
	RawMessage    string      `json:"raw_message"`
}

// Encode renders records as an indented JSON array.
func Encode(records []transaction.Record) ([]byte, error) {
	docs := make([]document, len(records))
	for i, rec := range records {
		docs[i] = document{
			Datetime:      rec.OccurredAt.Format(time.RFC3339),
			Amount:        json.Number(rec.Amount.String()),
			Sender:        rec.Sender,
			Receiver:      rec.Receiver,
			TransactionID: rec.TransactionID,
			RawMessage:    rec.RawText,
		}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(docs); err != nil {
		return nil, fmt.Errorf("encode records: %w", err)
	}
	return buf.Bytes(), nil
}
