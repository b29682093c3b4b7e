package scheduler

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestAdd_InvalidSchedule(t *testing.T) {
	s := New(nil)
	err := s.Add(Job{Name: "poll", Schedule: "not a schedule", Run: func(context.Context) error { return nil }})
	if err == nil {
		t.Fatal("expected error for invalid schedule, got nil")
	}
	if !strings.Contains(err.Error(), "job poll") {
		t.Errorf("error = %q, want job name", err.Error())
	}
}

func TestAdd_MissingRun(t *testing.T) {
	if err := New(nil).Add(Job{Name: "poll", Schedule: "@hourly"}); err == nil {
		t.Fatal("expected error for missing run func, got nil")
	}
}

func TestStart_RunOnStart(t *testing.T) {
	s := New(nil)

	ran := make(chan struct{}, 1)
	var skipped atomic.Int32
	if err := s.Add(Job{
		Name:       "poll",
		Schedule:   "@every 1h",
		RunOnStart: true,
		Run: func(context.Context) error {
			ran <- struct{}{}
			return nil
		},
	}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := s.Add(Job{
		Name:     "sync",
		Schedule: "@every 1h",
		Run: func(context.Context) error {
			skipped.Add(1)
			return nil
		},
	}); err != nil {
		t.Fatalf("Add: %v", err)
	}

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("run-on-start job did not run")
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.Stop(stopCtx); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	if got := skipped.Load(); got != 0 {
		t.Errorf("sync job ran %d times, want 0", got)
	}
}

func TestStop_CancelsRunningJob(t *testing.T) {
	s := New(nil)

	started := make(chan struct{})
	var cancelled atomic.Bool
	if err := s.Add(Job{
		Name:       "poll",
		Schedule:   "@every 1h",
		RunOnStart: true,
		Run: func(ctx context.Context) error {
			close(started)
			<-ctx.Done()
			cancelled.Store(true)
			return ctx.Err()
		},
	}); err != nil {
		t.Fatalf("Add: %v", err)
	}

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	<-started

	stopCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.Stop(stopCtx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if !cancelled.Load() {
		t.Error("running job did not observe cancellation before Stop returned")
	}
}

func TestRunJob_RecoversPanic(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	s := New(logger)

	done := make(chan struct{})
	if err := s.Add(Job{
		Name:       "explode",
		Schedule:   "@every 1h",
		RunOnStart: true,
		Run: func(context.Context) error {
			defer close(done)
			panic("kaboom")
		},
	}); err != nil {
		t.Fatalf("Add: %v", err)
	}

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	<-done

	stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.Stop(stopCtx); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	if !strings.Contains(buf.String(), "panic") {
		t.Errorf("log output missing recovered panic: %s", buf.String())
	}
}

func TestRunJob_LogsError(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	s := New(logger)
	s.ctx = context.Background()

	s.runJob(Job{Name: "sync", Run: func(context.Context) error { return errors.New("upstream down") }})

	out := buf.String()
	if !strings.Contains(out, "job failed") || !strings.Contains(out, "upstream down") {
		t.Errorf("log output = %q, want job failure with error", out)
	}
}
