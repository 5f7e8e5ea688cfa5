package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/WagnerMushayija/momo-summative/internal/extract"
	"github.com/WagnerMushayija/momo-summative/internal/metrics"
	"github.com/WagnerMushayija/momo-summative/internal/sink"
	"github.com/WagnerMushayija/momo-summative/internal/source"
	"github.com/WagnerMushayija/momo-summative/internal/transaction"
)

var fixedNow = time.Date(2024, 6, 1, 8, 30, 0, 0, time.UTC)

const backup = `<?xml version='1.0' encoding='UTF-8' standalone='yes' ?>
<smses count="6">
  <sms protocol="0" address="M-Money" body="You have received 2000 RWF from Jane Smith (*********013) on your mobile money account at 2024-05-10 16:30:51. Financial Transaction Id: 76662021700." />
  <sms protocol="0" address="M-Money" body="TxId: 73214484437. Your payment of 1,000 RWF to Jane Smith 12845 has been completed at 2024-05-10 16:31:39." />
  <sms protocol="0" address="M-Money" body="" />
  <sms protocol="0" address="M-Money" body="You have received 12,345 RWF from Samuel Carter (*********591) at 2024-05-11 18:43:49." />
  <sms protocol="0" address="M-Money" body="Reminder: see you at the meeting." />
  <sms protocol="0" address="M-Money" body="Yello!Umaze kugura 1GB for 1000 RWF at 2024-05-12 10:00:00." />
</smses>
`

func writeBackup(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "backup.xml")
	if err := os.WriteFile(path, []byte(backup), 0o600); err != nil {
		t.Fatalf("write backup: %v", err)
	}
	return path
}

func newPipeline(workers int, dir string) *Pipeline {
	var s *sink.Sink
	if dir != "" {
		s = sink.New(sink.NewFileDestination(dir), zerolog.Nop())
	}
	return New(Options{
		Workers:   workers,
		Extractor: extract.New(extract.Options{Clock: func() time.Time { return fixedNow }}),
		Sink:      s,
		Metrics:   metrics.New(),
		Logger:    zerolog.Nop(),
	})
}

func TestRunProducesCategoryDocuments(t *testing.T) {
	out := t.TempDir()
	report, err := newPipeline(2, out).Run(context.Background(), writeBackup(t))
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if report.Parsed != 6 || report.Processed != 5 || report.Dropped != 1 {
		t.Fatalf("unexpected counts parsed=%d processed=%d dropped=%d", report.Parsed, report.Processed, report.Dropped)
	}
	if report.Written[transaction.IncomingMoney] != 2 {
		t.Fatalf("expected 2 incoming records written, got %v", report.Written)
	}

	for _, name := range []string{"incoming_money.json", "code_payments.json", "bundles.json", "uncategorized.json"} {
		if _, err := os.Stat(filepath.Join(out, name)); err != nil {
			t.Fatalf("expected %s: %v", name, err)
		}
	}

	var incoming transaction.Summary
	for _, s := range report.Summaries {
		if s.Category == transaction.IncomingMoney {
			incoming = s
		}
	}
	if incoming.Count != 2 || !incoming.Total.Equal(decimal.NewFromInt(14345)) {
		t.Fatalf("unexpected incoming summary %+v", incoming)
	}
	if report.RunID.String() == "" {
		t.Fatalf("expected run id")
	}
}

func TestRunIsIdempotent(t *testing.T) {
	path := writeBackup(t)
	first, second := t.TempDir(), t.TempDir()

	if _, err := newPipeline(3, first).Run(context.Background(), path); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if _, err := newPipeline(3, second).Run(context.Background(), path); err != nil {
		t.Fatalf("second run: %v", err)
	}

	entries, err := os.ReadDir(first)
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	if len(entries) == 0 {
		t.Fatalf("expected output files")
	}
	for _, entry := range entries {
		a, err := os.ReadFile(filepath.Join(first, entry.Name()))
		if err != nil {
			t.Fatalf("read %s: %v", entry.Name(), err)
		}
		b, err := os.ReadFile(filepath.Join(second, entry.Name()))
		if err != nil {
			t.Fatalf("read %s: %v", entry.Name(), err)
		}
		if string(a) != string(b) {
			t.Fatalf("%s differs between runs", entry.Name())
		}
	}
}

func TestProcessPreservesOrderAcrossWorkerCounts(t *testing.T) {
	messages, err := source.Decode(strings.NewReader(backup))
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}

	var want []string
	for _, workers := range []int{1, 2, 4, 16} {
		report, err := newPipeline(workers, "").Process(context.Background(), messages)
		if err != nil {
			t.Fatalf("Process(%d workers) returned error: %v", workers, err)
		}
		got := make([]string, len(report.Records))
		for i, rec := range report.Records {
			got[i] = rec.RawText
		}
		if want == nil {
			want = got
			continue
		}
		if strings.Join(got, "|") != strings.Join(want, "|") {
			t.Fatalf("order differs with %d workers:\n%v\nwant:\n%v", workers, got, want)
		}
		incoming := report.Groups[transaction.IncomingMoney]
		if len(incoming) != 2 || !strings.Contains(incoming[1].RawText, "Samuel Carter") {
			t.Fatalf("group order differs with %d workers: %+v", workers, incoming)
		}
	}
}

func TestRunRejectsMalformedBackup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.xml")
	if err := os.WriteFile(path, []byte("<smses><sms body='x'>"), 0o600); err != nil {
		t.Fatalf("write backup: %v", err)
	}
	out := t.TempDir()

	_, err := newPipeline(2, out).Run(context.Background(), path)
	var formatErr *source.SourceFormatError
	if !errors.As(err, &formatErr) {
		t.Fatalf("expected SourceFormatError, got %v", err)
	}
	entries, _ := os.ReadDir(out)
	if len(entries) != 0 {
		t.Fatalf("expected no output, got %d files", len(entries))
	}
}

func TestProcessEmptyBackup(t *testing.T) {
	report, err := newPipeline(4, "").Process(context.Background(), nil)
	if err != nil {
		t.Fatalf("Process returned error: %v", err)
	}
	if report.Parsed != 0 || report.Processed != 0 || len(report.Summaries) != 0 {
		t.Fatalf("unexpected report %+v", report)
	}
}

func TestProcessHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := newPipeline(2, "").Process(ctx, []string{"a", "b"}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestChunkBounds(t *testing.T) {
	cases := []struct {
		n, workers int
		want       int
	}{
		{0, 4, 0},
		{3, 8, 3},
		{10, 3, 3},
		{10, 1, 1},
	}
	for _, tc := range cases {
		bounds := chunkBounds(tc.n, tc.workers)
		if len(bounds) != tc.want {
			t.Fatalf("chunkBounds(%d, %d) produced %d chunks, want %d", tc.n, tc.workers, len(bounds), tc.want)
		}
		covered := 0
		for i, b := range bounds {
			if i > 0 && b[0] != bounds[i-1][1] {
				t.Fatalf("chunks not contiguous: %v", bounds)
			}
			covered += b[1] - b[0]
		}
		if covered != tc.n {
			t.Fatalf("chunks cover %d of %d items", covered, tc.n)
		}
	}
}
