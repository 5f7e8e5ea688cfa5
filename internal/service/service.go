package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/WagnerMushayija/momo-summative/internal/metrics"
	"github.com/WagnerMushayija/momo-summative/internal/notify"
	"github.com/WagnerMushayija/momo-summative/internal/pipeline"
	"github.com/WagnerMushayija/momo-summative/internal/scheduler"
	"github.com/WagnerMushayija/momo-summative/internal/storage"
)

const failedDir = "failed"

// Options wires the collaborators around the pipeline. Everything except
// Pipeline is optional.
type Options struct {
	Pipeline    *pipeline.Pipeline
	Store       storage.TransactionStore
	Notifier    notify.Notifier
	Metrics     *metrics.Metrics
	MetricsPath string
	Scheduler   *scheduler.Scheduler
	Inbox       string
	Archive     string
	LockKey     int64
}

// Service orchestrates a pipeline run with persistence, metrics and reporting.
type Service struct {
	pipeline    *pipeline.Pipeline
	store       storage.TransactionStore
	notifier    notify.Notifier
	metrics     *metrics.Metrics
	metricsPath string
	scheduler   *scheduler.Scheduler
	inbox       string
	archive     string
	locker      storage.AdvisoryLocker
	lockKey     int64
	logger      zerolog.Logger
}

// New constructs the processing service.
func New(opts Options, logger zerolog.Logger) *Service {
	var locker storage.AdvisoryLocker
	if l, ok := opts.Store.(storage.AdvisoryLocker); ok {
		locker = l
	}

	return &Service{
		pipeline:    opts.Pipeline,
		store:       opts.Store,
		notifier:    opts.Notifier,
		metrics:     opts.Metrics,
		metricsPath: opts.MetricsPath,
		scheduler:   opts.Scheduler,
		inbox:       opts.Inbox,
		archive:     opts.Archive,
		locker:      locker,
		lockKey:     opts.LockKey,
		logger:      logger.With().Str("component", "service").Logger(),
	}
}

// ProcessFile runs one backup end to end. Records reach the store only when
// every category document was written.
func (s *Service) ProcessFile(ctx context.Context, uri string) (*pipeline.Report, error) {
	report, err := s.pipeline.Run(ctx, uri)

	if err == nil && s.store != nil {
		inserted, storeErr := s.store.InsertTransactions(ctx, report.Records)
		if storeErr != nil {
			s.logger.Error().Err(storeErr).Str("run_id", report.RunID.String()).Msg("failed to persist transactions")
			err = fmt.Errorf("store transactions: %w", storeErr)
		} else {
			s.metrics.ObserveInserted(inserted)
			s.logger.Info().
				Str("run_id", report.RunID.String()).
				Int("inserted", inserted).
				Int("duplicates", len(report.Records)-inserted).
				Msg("transactions persisted")
		}
	}

	if mErr := s.metrics.WriteTextfile(s.metricsPath); mErr != nil {
		s.logger.Error().Err(mErr).Str("path", s.metricsPath).Msg("failed to write metrics")
	}

	s.notify(ctx, uri, report, err)
	return report, err
}

func (s *Service) notify(ctx context.Context, uri string, report *pipeline.Report, runErr error) {
	if s.notifier == nil {
		return
	}
	note := notify.RunReport{Source: uri, Finished: time.Now(), Err: runErr}
	if report != nil {
		note.RunID = report.RunID.String()
		note.Finished = report.Finished
		note.Parsed = report.Parsed
		note.Processed = report.Processed
		note.Dropped = report.Dropped
		note.Summaries = report.Summaries
	}
	if err := s.notifier.Notify(ctx, note); err != nil {
		s.logger.Error().Err(err).Str("source", uri).Msg("failed to dispatch run report")
	}
}

// Run begins the inbox polling loop.
func (s *Service) Run(ctx context.Context) error {
	if s.scheduler == nil {
		return fmt.Errorf("scheduler not configured")
	}
	for _, dir := range []string{s.inbox, s.archive, filepath.Join(s.archive, failedDir)} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return s.scheduler.Run(ctx, s.ProcessInbox)
}

// ProcessInbox processes every *.xml backup in the inbox, oldest name first,
// and moves each into the archive (or its failed/ subdirectory).
func (s *Service) ProcessInbox(ctx context.Context, tick time.Time) error {
	unlock, proceed, err := s.acquireLock(ctx)
	if err != nil {
		return err
	}
	if !proceed {
		s.logger.Debug().Time("tick", tick).Msg("skip inbox scan because advisory lock held elsewhere")
		return nil
	}
	if unlock != nil {
		defer unlock()
	}

	files, err := s.pending()
	if err != nil {
		return err
	}
	if len(files) == 0 {
		s.logger.Debug().Str("inbox", s.inbox).Msg("inbox empty")
		return nil
	}

	var errs []error
	for _, path := range files {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		_, runErr := s.ProcessFile(ctx, path)
		dest := s.archive
		if runErr != nil {
			errs = append(errs, fmt.Errorf("%s: %w", filepath.Base(path), runErr))
			dest = filepath.Join(s.archive, failedDir)
		}
		if err := archiveFile(path, dest, tick); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *Service) pending() ([]string, error) {
	entries, err := os.ReadDir(s.inbox)
	if err != nil {
		return nil, fmt.Errorf("read inbox: %w", err)
	}
	files := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".xml") {
			continue
		}
		files = append(files, filepath.Join(s.inbox, entry.Name()))
	}
	sort.Strings(files)
	return files, nil
}

// archiveFile moves path into dir, prefixed with the tick time so repeated
// uploads of the same name never collide.
func archiveFile(path, dir string, tick time.Time) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create archive dir: %w", err)
	}
	target := filepath.Join(dir, tick.UTC().Format("20060102T150405")+"-"+filepath.Base(path))
	if err := os.Rename(path, target); err != nil {
		return fmt.Errorf("archive %s: %w", filepath.Base(path), err)
	}
	return nil
}

func (s *Service) acquireLock(ctx context.Context) (func(), bool, error) {
	if s.lockKey == 0 || s.locker == nil {
		return nil, true, nil
	}
	unlock, acquired, err := s.locker.TryAdvisoryLock(ctx, s.lockKey)
	if err != nil {
		return nil, false, fmt.Errorf("acquire advisory lock: %w", err)
	}
	if !acquired {
		return nil, false, nil
	}
	return unlock, true, nil
}
