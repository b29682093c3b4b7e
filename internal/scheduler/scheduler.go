// Package scheduler runs the poll and catalog-sync jobs on cron schedules.
//
// Jobs never overlap with themselves: a run that fires while the previous one
// is still in progress is skipped. Panics inside a job are recovered and logged.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Job is a named unit of scheduled work.
type Job struct {
	Name       string
	Schedule   string // standard 5-field cron expression or @every/@hourly descriptor
	RunOnStart bool   // also run once as soon as the scheduler starts
	Run        func(ctx context.Context) error
}

// Scheduler runs jobs on their cron schedules.
type Scheduler struct {
	cron   *cron.Cron
	logger *slog.Logger

	entries []entry

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type entry struct {
	job Job
	id  cron.EntryID
}

// New creates a Scheduler.
func New(logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	cl := cronLogger{logger: logger}
	return &Scheduler{
		cron: cron.New(
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		logger: logger,
	}
}

// Add registers a job. It must be called before Start.
func (s *Scheduler) Add(job Job) error {
	if job.Run == nil {
		return fmt.Errorf("job %s: no run function", job.Name)
	}
	id, err := s.cron.AddFunc(job.Schedule, func() { s.runJob(job) })
	if err != nil {
		return fmt.Errorf("job %s: parse schedule %q: %w", job.Name, job.Schedule, err)
	}
	s.entries = append(s.entries, entry{job: job, id: id})
	return nil
}

// Start begins running jobs on their schedules.
func (s *Scheduler) Start(ctx context.Context) error {
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.cron.Start()

	for _, e := range s.entries {
		s.logger.Info("job scheduled",
			"job", e.job.Name,
			"schedule", e.job.Schedule,
			"next", s.cron.Entry(e.id).Next,
		)
		if e.job.RunOnStart {
			wrapped := s.cron.Entry(e.id).WrappedJob
			s.wg.Add(1)
			go func() {
				defer s.wg.Done()
				wrapped.Run()
			}()
		}
	}

	s.logger.Info("scheduler started", "jobs", len(s.entries))
	return nil
}

// Stop halts scheduling and waits for running jobs to finish or ctx to expire.
// Running jobs see their context cancelled.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.cancel != nil {
		s.cancel()
	}
	cronDone := s.cron.Stop()

	done := make(chan struct{})
	go func() {
		<-cronDone.Done()
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) runJob(job Job) {
	start := time.Now()
	s.logger.Debug("job started", "job", job.Name)

	if err := job.Run(s.ctx); err != nil {
		s.logger.Error("job failed", "job", job.Name, "err", err, "duration", time.Since(start))
		return
	}
	s.logger.Debug("job finished", "job", job.Name, "duration", time.Since(start))
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron: "+msg, append([]any{"err", err}, keysAndValues...)...)
}
