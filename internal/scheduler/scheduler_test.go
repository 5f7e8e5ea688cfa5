package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestRunFiresImmediatelyAndRepeats(t *testing.T) {
	sched := New(Options{Interval: 10 * time.Millisecond, Immediate: true}, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var ticks atomic.Int32
	done := make(chan error, 1)
	go func() {
		done <- sched.Run(ctx, func(ctx context.Context, tick time.Time) error {
			if ticks.Add(1) == 3 {
				cancel()
			}
			return errors.New("tick errors are logged, not fatal")
		})
	}()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop")
	}
	if ticks.Load() < 3 {
		t.Fatalf("expected at least 3 ticks, got %d", ticks.Load())
	}
}

func TestRunStopsDuringStartupDelay(t *testing.T) {
	sched := New(Options{Interval: time.Hour, StartupDelay: time.Hour}, zerolog.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := sched.Run(ctx, func(context.Context, time.Time) error {
		t.Fatal("tick must not fire")
		return nil
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestNextTickAlignment(t *testing.T) {
	now := time.Date(2024, 5, 10, 16, 7, 30, 0, time.UTC)

	aligned := New(Options{Interval: 5 * time.Minute, AlignToStart: true}, zerolog.Nop())
	if got := aligned.nextTick(now); !got.Equal(time.Date(2024, 5, 10, 16, 10, 0, 0, time.UTC)) {
		t.Fatalf("unexpected aligned tick %s", got)
	}

	loose := New(Options{Interval: 5 * time.Minute}, zerolog.Nop())
	if got := loose.nextTick(now); !got.Equal(now.Add(5 * time.Minute)) {
		t.Fatalf("unexpected unaligned tick %s", got)
	}
}

func TestNewRejectsNonPositiveInterval(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	New(Options{}, zerolog.Nop())
}
