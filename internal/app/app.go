package app

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"

	"github.com/WagnerMushayija/momo-summative/internal/classify"
	"github.com/WagnerMushayija/momo-summative/internal/config"
	"github.com/WagnerMushayija/momo-summative/internal/extract"
	"github.com/WagnerMushayija/momo-summative/internal/metrics"
	"github.com/WagnerMushayija/momo-summative/internal/notify"
	"github.com/WagnerMushayija/momo-summative/internal/pipeline"
	"github.com/WagnerMushayija/momo-summative/internal/scheduler"
	"github.com/WagnerMushayija/momo-summative/internal/service"
	"github.com/WagnerMushayija/momo-summative/internal/sink"
	"github.com/WagnerMushayija/momo-summative/internal/storage"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
	// Out receives human-readable command output.
	Out io.Writer
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{Config: cfg, Logger: logger.With().Str("component", "app").Logger(), Out: os.Stdout}
}

func (a *App) newExtractor() (*extract.Extractor, error) {
	loc, err := a.Config.Pipeline.Location()
	if err != nil {
		return nil, err
	}
	return extract.New(extract.Options{
		Currency:      a.Config.Pipeline.Currency,
		Location:      loc,
		DefaultParty:  a.Config.Pipeline.DefaultParty,
		SnippetLength: a.Config.Pipeline.SnippetLength,
	}), nil
}

// newDestination opens the configured sink backend. The closer is never nil.
func (a *App) newDestination(ctx context.Context) (sink.Destination, func(), error) {
	noop := func() {}
	switch a.Config.Sink.Backend {
	case config.SinkGCS:
		dest, err := sink.NewGCSDestination(ctx, a.Config.Sink.GCS.URI())
		if err != nil {
			return nil, noop, err
		}
		return dest, func() { dest.Close() }, nil
	case config.SinkAMQP:
		dest, err := sink.NewAMQPDestination(a.Config.Sink.AMQP.URL, a.Config.Sink.AMQP.Exchange)
		if err != nil {
			return nil, noop, err
		}
		return dest, func() { dest.Close() }, nil
	case config.SinkFile, "":
		return sink.NewFileDestination(a.Config.Pipeline.OutputDir), noop, nil
	default:
		return nil, noop, fmt.Errorf("unsupported sink backend %q", a.Config.Sink.Backend)
	}
}

// newPipeline builds the pipeline; withSink false yields a dry pipeline that
// only classifies and extracts.
func (a *App) newPipeline(ctx context.Context, workers int, withSink bool, m *metrics.Metrics) (*pipeline.Pipeline, func(), error) {
	extractor, err := a.newExtractor()
	if err != nil {
		return nil, nil, err
	}

	closer := func() {}
	var s *sink.Sink
	if withSink {
		dest, closeDest, err := a.newDestination(ctx)
		if err != nil {
			return nil, nil, err
		}
		closer = closeDest
		s = sink.New(dest, a.Logger)
	}

	p := pipeline.New(pipeline.Options{
		Workers:    a.Config.ResolveWorkers(workers),
		Classifier: classify.New(),
		Extractor:  extractor,
		Sink:       s,
		Metrics:    m,
		Logger:     a.Logger,
	})
	return p, closer, nil
}

func (a *App) newNotifier() notify.Notifier {
	if a.Config.Notify.Telegram.Enabled {
		cfg := a.Config.Notify.Telegram
		return notify.NewTelegramNotifier(cfg.BotToken, cfg.ChatID, cfg.APIBase, cfg.Timeout, a.Logger)
	}
	return nil
}

func (a *App) openStore(ctx context.Context) (storage.TransactionStore, func(), error) {
	store, err := storage.Open(ctx, a.Config.Database)
	if err != nil {
		return nil, nil, err
	}
	if store == nil {
		return nil, nil, nil
	}
	closer := func() {
		if err := store.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("failed to close store")
		}
	}
	return store, closer, nil
}

// newService wires the pipeline, store, metrics and notifier. sched may be nil
// for one-shot runs.
func (a *App) newService(ctx context.Context, workers int, persist bool, sched *scheduler.Scheduler) (*service.Service, func(), error) {
	m := metrics.New()
	p, closePipeline, err := a.newPipeline(ctx, workers, true, m)
	if err != nil {
		return nil, nil, err
	}

	var store storage.TransactionStore
	closeStore := func() {}
	if persist {
		s, closer, err := a.openStore(ctx)
		if err != nil {
			closePipeline()
			return nil, nil, err
		}
		if s == nil {
			a.Logger.Warn().Msg("database.dsn not configured; persistence disabled")
		} else {
			store, closeStore = s, closer
		}
	}

	svc := service.New(service.Options{
		Pipeline:    p,
		Store:       store,
		Notifier:    a.newNotifier(),
		Metrics:     m,
		MetricsPath: a.Config.Metrics.Textfile,
		Scheduler:   sched,
		Inbox:       a.Config.Watch.Inbox,
		Archive:     a.Config.Watch.Archive,
		LockKey:     a.Config.Watch.AdvisoryLockKey,
	}, a.Logger)

	return svc, func() {
		closeStore()
		closePipeline()
	}, nil
}

// ProcessOptions configure the process command.
type ProcessOptions struct {
	Source  string
	Workers int
	NoStore bool
}

// SummaryOptions configure the summary command.
type SummaryOptions struct {
	Source  string
	Workers int
	CSVPath string
	PNGPath string
	Monthly bool
}

// ShowOptions configure the show command.
type ShowOptions struct {
	Filter storage.Filter
}
