// Package pipeline runs one SMS backup through classification, extraction,
// aggregation and the category sink.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/WagnerMushayija/momo-summative/internal/aggregate"
	"github.com/WagnerMushayija/momo-summative/internal/classify"
	"github.com/WagnerMushayija/momo-summative/internal/extract"
	"github.com/WagnerMushayija/momo-summative/internal/metrics"
	"github.com/WagnerMushayija/momo-summative/internal/sink"
	"github.com/WagnerMushayija/momo-summative/internal/source"
	"github.com/WagnerMushayija/momo-summative/internal/transaction"
)

// Drop reasons reported in logs and metrics.
const (
	ReasonEmpty = "empty"
	ReasonFault = "fault"
)

// Options wires the pipeline stages. Classifier and Extractor default to the
// built-in rule and party tables; Sink may be nil to skip writing.
type Options struct {
	Workers    int
	Classifier *classify.Classifier
	Extractor  *extract.Extractor
	Sink       *sink.Sink
	Metrics    *metrics.Metrics
	Logger     zerolog.Logger
}

// Pipeline is safe for concurrent Runs; every stage is immutable.
type Pipeline struct {
	workers    int
	classifier *classify.Classifier
	extractor  *extract.Extractor
	sink       *sink.Sink
	metrics    *metrics.Metrics
	logger     zerolog.Logger
}

// Report describes one run.
type Report struct {
	RunID     uuid.UUID
	Source    string
	Started   time.Time
	Finished  time.Time
	Parsed    int
	Processed int
	Dropped   int
	// Records are in source order.
	Records   []transaction.Record
	Groups    sink.Groups
	Written   map[transaction.Category]int
	Summaries []transaction.Summary
}

// New builds a Pipeline.
func New(opts Options) *Pipeline {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	classifier := opts.Classifier
	if classifier == nil {
		classifier = classify.New()
	}
	extractor := opts.Extractor
	if extractor == nil {
		extractor = extract.New(extract.Options{})
	}

	return &Pipeline{
		workers:    workers,
		classifier: classifier,
		extractor:  extractor,
		sink:       opts.Sink,
		metrics:    opts.Metrics,
		logger:     opts.Logger.With().Str("component", "pipeline").Logger(),
	}
}

// Run loads uri, processes every message and writes the category documents.
// A destination failure is returned together with the report; dropped
// messages never fail the run.
func (p *Pipeline) Run(ctx context.Context, uri string) (*Report, error) {
	started := time.Now()
	runID := uuid.New()
	logger := p.logger.With().Str("run_id", runID.String()).Str("source", uri).Logger()

	messages, err := source.Load(ctx, uri)
	if err != nil {
		logger.Error().Err(err).Msg("failed to load backup")
		return nil, err
	}

	report, err := p.process(ctx, logger, messages)
	if err != nil {
		return nil, err
	}
	report.RunID = runID
	report.Source = uri
	report.Started = started

	if p.sink != nil {
		report.Written, err = p.sink.WriteGroups(ctx, report.Groups)
	}
	report.Finished = time.Now()

	p.metrics.ObserveParsed(report.Parsed)
	p.metrics.ObserveRecords(categoryCounts(report.Groups))
	p.metrics.ObserveRun(report.Finished.Sub(started), report.Finished)

	event := logger.Info()
	if err != nil {
		event = logger.Error().Err(err)
	}
	event.Int("parsed", report.Parsed).
		Int("processed", report.Processed).
		Int("dropped", report.Dropped).
		Dur("duration", report.Finished.Sub(started)).
		Msg("run finished")

	return report, err
}

// Process classifies and extracts messages without writing anything.
func (p *Pipeline) Process(ctx context.Context, messages []string) (*Report, error) {
	return p.process(ctx, p.logger, messages)
}

type chunkResult struct {
	records []transaction.Record
	groups  sink.Groups
	dropped int
}

func (p *Pipeline) process(ctx context.Context, logger zerolog.Logger, messages []string) (*Report, error) {
	bounds := chunkBounds(len(messages), p.workers)
	results := make([]chunkResult, len(bounds))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i, b := range bounds {
		i, b := i, b
		g.Go(func() error {
			res, err := p.processChunk(gctx, logger, messages[b[0]:b[1]], b[0])
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("process messages: %w", err)
	}

	report := &Report{Parsed: len(messages)}
	parts := make([]sink.Groups, len(results))
	for i, res := range results {
		report.Records = append(report.Records, res.records...)
		report.Dropped += res.dropped
		parts[i] = res.groups
	}
	report.Processed = len(report.Records)
	report.Groups = sink.Merge(parts...)
	report.Summaries = aggregate.Summarize(report.Records)
	return report, nil
}

func (p *Pipeline) processChunk(ctx context.Context, logger zerolog.Logger, messages []string, offset int) (chunkResult, error) {
	res := chunkResult{
		records: make([]transaction.Record, 0, len(messages)),
		groups:  make(sink.Groups),
	}
	for i, msg := range messages {
		if err := ctx.Err(); err != nil {
			return chunkResult{}, err
		}

		category := p.classifier.Classify(msg)
		out := p.extractor.Extract(msg, category)
		if !out.OK() {
			res.dropped++
			reason := ReasonFault
			if errors.Is(out.Reason, extract.ErrEmptyMessage) {
				reason = ReasonEmpty
			}
			p.metrics.ObserveDrop(reason)
			logger.Warn().
				Int("index", offset+i).
				Str("category", string(category)).
				Str("reason", reason).
				Str("snippet", p.extractor.Snippet(msg)).
				Err(out.Reason).
				Msg("message dropped")
			continue
		}

		res.records = append(res.records, out.Record)
		res.groups[category] = append(res.groups[category], out.Record)
	}
	return res, nil
}

// chunkBounds splits n items into at most workers contiguous [start, end) ranges.
func chunkBounds(n, workers int) [][2]int {
	if n == 0 {
		return nil
	}
	if workers > n {
		workers = n
	}
	size := (n + workers - 1) / workers
	bounds := make([][2]int, 0, workers)
	for start := 0; start < n; start += size {
		end := start + size
		if end > n {
			end = n
		}
		bounds = append(bounds, [2]int{start, end})
	}
	return bounds
}

func categoryCounts(groups sink.Groups) map[string]int {
	counts := make(map[string]int, len(groups))
	for cat, recs := range groups {
		counts[string(cat)] = len(recs)
	}
	return counts
}
