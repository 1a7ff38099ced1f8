// Package scheduler triggers the daily settlement pass and the hourly
// housekeeping task on UTC cron schedules.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mohitbudhwar0786/earning-website/settlement"
)

// DefaultSpec fires at 00:00 UTC every day.
const DefaultSpec = "0 0 * * *"

// Job is one settlement pass. force re-posts users already settled today.
type Job func(ctx context.Context, force bool) (settlement.Result, error)

// Task is a periodic maintenance step returning how many rows it touched.
type Task func(ctx context.Context) (int, error)

type task struct {
	name string
	spec string
	fn   Task
}

type Scheduler struct {
	job     Job
	spec    string
	timeout time.Duration
	tasks   []task
	log     *zap.Logger

	cron   *cron.Cron
	entry  cron.EntryID
	ctx    context.Context
	cancel context.CancelFunc

	// runs serializes settlement passes, scheduled or manual.
	runs sync.Mutex
}

type Option func(*Scheduler)

// WithSpec overrides DefaultSpec. Standard five-field cron syntax and
// descriptors such as @daily are accepted.
func WithSpec(spec string) Option {
	return func(s *Scheduler) {
		if spec != "" {
			s.spec = spec
		}
	}
}

// WithTimeout bounds each scheduled pass.
func WithTimeout(d time.Duration) Option {
	return func(s *Scheduler) { s.timeout = d }
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Scheduler) {
		if l != nil {
			s.log = l
		}
	}
}

// WithTask registers an extra periodic task.
func WithTask(name, spec string, fn Task) Option {
	return func(s *Scheduler) {
		s.tasks = append(s.tasks, task{name: name, spec: spec, fn: fn})
	}
}

func New(job Job, opts ...Option) (*Scheduler, error) {
	if job == nil {
		return nil, errors.New("scheduler: nil job")
	}
	s := &Scheduler{job: job, spec: DefaultSpec, log: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())

	cl := cronLogger{s.log.Sugar()}
	s.cron = cron.New(
		cron.WithLocation(time.UTC),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	entry, err := s.cron.AddFunc(s.spec, s.scheduledRun)
	if err != nil {
		return nil, fmt.Errorf("scheduler: settlement spec %q: %w", s.spec, err)
	}
	s.entry = entry
	for _, t := range s.tasks {
		t := t
		if _, err := s.cron.AddFunc(t.spec, func() { s.runTask(t) }); err != nil {
			return nil, fmt.Errorf("scheduler: task %s spec %q: %w", t.name, t.spec, err)
		}
	}
	return s, nil
}

func (s *Scheduler) Start() {
	s.log.Info("scheduler started", zap.String("spec", s.spec), zap.Int("tasks", len(s.tasks)))
	s.cron.Start()
}

// Stop cancels in-flight scheduled work and waits for it to return, or for
// ctx to end.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.cancel()
	done := s.cron.Stop()
	select {
	case <-done.Done():
		s.log.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Next reports when the settlement pass fires next. Zero before Start.
func (s *Scheduler) Next() time.Time {
	return s.cron.Entry(s.entry).Next
}

// RunNow runs a pass immediately, waiting for any pass already in flight.
func (s *Scheduler) RunNow(ctx context.Context, force bool) (settlement.Result, error) {
	s.runs.Lock()
	defer s.runs.Unlock()
	return s.job(ctx, force)
}

func (s *Scheduler) scheduledRun() {
	ctx := s.ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	res, err := s.RunNow(ctx, false)
	if err != nil {
		s.log.Error("scheduled settlement failed", zap.String("run_id", res.RunID), zap.Error(err))
		return
	}
	s.log.Info("scheduled settlement done", zap.String("run_id", res.RunID), zap.Int("processed", res.Processed))
}

func (s *Scheduler) runTask(t task) {
	n, err := t.fn(s.ctx)
	if err != nil {
		s.log.Error("task failed", zap.String("task", t.name), zap.Error(err))
		return
	}
	s.log.Info("task done", zap.String("task", t.name), zap.Int("affected", n))
}

// cronLogger routes cron's own messages to zap.
type cronLogger struct {
	l *zap.SugaredLogger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debugw(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Errorw(msg, append(keysAndValues, "error", err)...)
}
