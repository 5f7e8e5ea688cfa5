package service

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/WagnerMushayija/momo-summative/internal/config"
	"github.com/WagnerMushayija/momo-summative/internal/extract"
	"github.com/WagnerMushayija/momo-summative/internal/metrics"
	"github.com/WagnerMushayija/momo-summative/internal/notify"
	"github.com/WagnerMushayija/momo-summative/internal/pipeline"
	"github.com/WagnerMushayija/momo-summative/internal/sink"
	"github.com/WagnerMushayija/momo-summative/internal/storage"
)

const backup = `<smses>
  <sms body="You have received 2000 RWF from Jane Smith (*********013) at 2024-05-10 16:30:51. Financial Transaction Id: 76662021700." />
  <sms body="TxId: 73214484437. Your payment of 1,000 RWF to Jane Smith 12845 has been completed at 2024-05-10 16:31:39." />
  <sms body="" />
</smses>`

type recordingNotifier struct {
	mu      sync.Mutex
	reports []notify.RunReport
}

func (n *recordingNotifier) Notify(_ context.Context, report notify.RunReport) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.reports = append(n.reports, report)
	return nil
}

type fixture struct {
	svc      *Service
	store    *storage.SQLiteStore
	notifier *recordingNotifier
	inbox    string
	archive  string
	output   string
	prom     string
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	root := t.TempDir()
	f := fixture{
		notifier: &recordingNotifier{},
		inbox:    filepath.Join(root, "inbox"),
		archive:  filepath.Join(root, "archive"),
		output:   filepath.Join(root, "out"),
		prom:     filepath.Join(root, "momo.prom"),
	}
	if err := os.MkdirAll(f.inbox, 0o755); err != nil {
		t.Fatalf("mkdir inbox: %v", err)
	}

	dbPath := filepath.Join(root, "momo.db")
	if err := storage.Migrate(config.DriverSQLite, dbPath); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	store, err := storage.OpenSQLite(dbPath)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	f.store = store

	m := metrics.New()
	p := pipeline.New(pipeline.Options{
		Workers:   2,
		Extractor: extract.New(extract.Options{}),
		Sink:      sink.New(sink.NewFileDestination(f.output), zerolog.Nop()),
		Metrics:   m,
		Logger:    zerolog.Nop(),
	})
	f.svc = New(Options{
		Pipeline:    p,
		Store:       store,
		Notifier:    f.notifier,
		Metrics:     m,
		MetricsPath: f.prom,
		Inbox:       f.inbox,
		Archive:     f.archive,
	}, zerolog.Nop())
	return f
}

func (f fixture) drop(t *testing.T, name, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(f.inbox, name), []byte(body), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestProcessInboxArchivesAndPersists(t *testing.T) {
	f := newFixture(t)
	f.drop(t, "a.xml", backup)
	f.drop(t, "notes.txt", "ignored")

	tick := time.Date(2024, 5, 10, 17, 0, 0, 0, time.UTC)
	if err := f.svc.ProcessInbox(context.Background(), tick); err != nil {
		t.Fatalf("ProcessInbox returned error: %v", err)
	}

	if _, err := os.Stat(filepath.Join(f.archive, "20240510T170000-a.xml")); err != nil {
		t.Fatalf("expected archived backup: %v", err)
	}
	if _, err := os.Stat(filepath.Join(f.inbox, "notes.txt")); err != nil {
		t.Fatalf("non-xml files must stay in the inbox: %v", err)
	}
	if _, err := os.Stat(filepath.Join(f.output, "code_payments.json")); err != nil {
		t.Fatalf("expected category output: %v", err)
	}

	count, err := f.store.CountTransactions(context.Background(), storage.Filter{})
	if err != nil {
		t.Fatalf("CountTransactions: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 stored transactions, got %d", count)
	}

	prom, err := os.ReadFile(f.prom)
	if err != nil {
		t.Fatalf("read metrics: %v", err)
	}
	if !strings.Contains(string(prom), "momo_store_inserted_total 2") {
		t.Fatalf("unexpected metrics:\n%s", prom)
	}

	if len(f.notifier.reports) != 1 {
		t.Fatalf("expected one run report, got %d", len(f.notifier.reports))
	}
	report := f.notifier.reports[0]
	if report.Parsed != 3 || report.Processed != 2 || report.Dropped != 1 || report.Err != nil {
		t.Fatalf("unexpected run report %+v", report)
	}
}

func TestProcessInboxReprocessingSkipsKnownIDs(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.drop(t, "a.xml", backup)
	if err := f.svc.ProcessInbox(ctx, time.Date(2024, 5, 10, 17, 0, 0, 0, time.UTC)); err != nil {
		t.Fatalf("first scan: %v", err)
	}
	f.drop(t, "a.xml", backup)
	if err := f.svc.ProcessInbox(ctx, time.Date(2024, 5, 10, 17, 1, 0, 0, time.UTC)); err != nil {
		t.Fatalf("second scan: %v", err)
	}

	count, err := f.store.CountTransactions(ctx, storage.Filter{})
	if err != nil {
		t.Fatalf("CountTransactions: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected duplicates to be skipped, got %d rows", count)
	}
}

func TestProcessInboxMovesBrokenBackupsAside(t *testing.T) {
	f := newFixture(t)
	f.drop(t, "broken.xml", "<smses><sms body='x'>")

	tick := time.Date(2024, 5, 10, 17, 0, 0, 0, time.UTC)
	err := f.svc.ProcessInbox(context.Background(), tick)
	if err == nil || !strings.Contains(err.Error(), "broken.xml") {
		t.Fatalf("expected error naming the backup, got %v", err)
	}
	if _, statErr := os.Stat(filepath.Join(f.archive, failedDir, "20240510T170000-broken.xml")); statErr != nil {
		t.Fatalf("expected backup in failed dir: %v", statErr)
	}
	if len(f.notifier.reports) != 1 || f.notifier.reports[0].Err == nil {
		t.Fatalf("expected a failure report, got %+v", f.notifier.reports)
	}
}
