package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/robfig/cron/v3"
)

// DefaultBatchSize is how many items a tick asks its task for.
const DefaultBatchSize = 3

// Tick outcomes reported to a Recorder.
const (
	TickOK      = "ok"
	TickError   = "error"
	TickExpired = "expired"
	TickSkipped = "skipped"
)

// TaskFunc collects and processes up to limit items for topic, starting at
// cursor, and returns a display line.
type TaskFunc func(ctx context.Context, topic string, cursor, limit int) (string, error)

// Recorder observes scheduler activity.
type Recorder interface {
	RecordTick(outcome string)
	SetActiveJobs(n int)
}

type noopRecorder struct{}

func (noopRecorder) RecordTick(string) {}
func (noopRecorder) SetActiveJobs(int) {}

// Scheduler owns the set of live jobs, one per topic.
type Scheduler struct {
	mu      sync.Mutex
	jobs    map[string]*Job
	stopped bool

	task      TaskFunc
	results   *ResultQueue
	cron      *cron.Cron
	pool      *ants.Pool
	poolSize  int
	batchSize int
	now       func() time.Time
	recorder  Recorder
	logger    *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Option configures a Scheduler.
type Option func(*Scheduler) error

// WithBatchSize sets how many items each tick requests.
func WithBatchSize(n int) Option {
	return func(s *Scheduler) error {
		if n > 0 {
			s.batchSize = n
		}
		return nil
	}
}

// WithPoolSize sets how many ticks may run at once across all jobs.
func WithPoolSize(n int) Option {
	return func(s *Scheduler) error {
		if n > 0 {
			s.poolSize = n
		}
		return nil
	}
}

// WithClock sets the time source used for expiry.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) error {
		if now != nil {
			s.now = now
		}
		return nil
	}
}

// WithResultQueue shares an existing result queue.
func WithResultQueue(q *ResultQueue) Option {
	return func(s *Scheduler) error {
		if q != nil {
			s.results = q
		}
		return nil
	}
}

// WithRecorder reports tick outcomes and the live job count to r.
func WithRecorder(r Recorder) Option {
	return func(s *Scheduler) error {
		if r != nil {
			s.recorder = r
		}
		return nil
	}
}

// WithLogger sets the logger. A nil logger selects slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// New creates a scheduler that runs task on every tick. Call Start to begin
// firing timers.
func New(task TaskFunc, opts ...Option) (*Scheduler, error) {
	if task == nil {
		return nil, ErrTaskRequired
	}

	s := &Scheduler{
		jobs:      make(map[string]*Job),
		task:      task,
		results:   NewResultQueue(),
		poolSize:  4,
		batchSize: DefaultBatchSize,
		now:       time.Now,
		recorder:  noopRecorder{},
		logger:    slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	s.logger = s.logger.With("component", "scheduler")

	pool, err := ants.NewPool(s.poolSize)
	if err != nil {
		return nil, fmt.Errorf("create tick pool: %w", err)
	}
	s.pool = pool

	logger := cronLogger{logger: s.logger}
	s.cron = cron.New(cron.WithLogger(logger), cron.WithChain(cron.Recover(logger)))
	s.ctx, s.cancel = context.WithCancel(context.Background())

	return s, nil
}

// Results returns the queue ticks push into.
func (s *Scheduler) Results() *ResultQueue {
	return s.results
}

// Start begins firing job timers.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("scheduler started")
}

// Stop halts the timers, cancels in-flight ticks and waits for them to return.
// Jobs are discarded; no terminal results are emitted.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	for topic, job := range s.jobs {
		s.cron.Remove(job.entryID)
		delete(s.jobs, topic)
	}
	s.mu.Unlock()

	<-s.cron.Stop().Done()
	s.cancel()
	s.wg.Wait()
	s.pool.Release()
	s.recorder.SetActiveJobs(0)
	s.logger.Info("scheduler stopped")
}

// Schedule registers a job researching topic every interval until duration
// has elapsed. An existing job for topic is replaced, including its expiry
// and cursor. It returns a confirmation line.
func (s *Scheduler) Schedule(topic string, duration, interval time.Duration) (string, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return "", ErrTopicRequired
	}
	if duration <= 0 {
		return "", ErrInvalidDuration
	}
	if interval < time.Second {
		return "", ErrInvalidInterval
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return "", ErrSchedulerStopped
	}

	if old, ok := s.jobs[topic]; ok {
		s.cron.Remove(old.entryID)
		delete(s.jobs, topic)
		s.logger.Debug("replacing job", "topic", topic, "job_id", old.ID)
	}

	job := &Job{
		ID:        newJobID(topic),
		Topic:     topic,
		Interval:  interval,
		ExpiresAt: s.now().Add(duration),
	}
	job.entryID = s.cron.Schedule(cron.Every(interval), cron.FuncJob(func() {
		s.dispatch(job)
	}))
	s.jobs[topic] = job
	s.recorder.SetActiveJobs(len(s.jobs))

	s.logger.Info("job scheduled", "topic", topic, "job_id", job.ID,
		"interval", interval, "expires_at", job.ExpiresAt)
	return fmt.Sprintf("✅ Scheduled: '%s' for %dmin every %ds.",
		topic, int(duration.Minutes()), int(interval.Seconds())), nil
}

// Cancel removes the job for topic immediately. No terminal result is emitted.
func (s *Scheduler) Cancel(topic string) string {
	topic = strings.TrimSpace(topic)

	s.mu.Lock()
	job, ok := s.jobs[topic]
	if ok {
		s.cron.Remove(job.entryID)
		delete(s.jobs, topic)
		s.recorder.SetActiveJobs(len(s.jobs))
	}
	s.mu.Unlock()

	if !ok {
		return fmt.Sprintf("No active task for '%s'.", topic)
	}
	s.logger.Info("job cancelled", "topic", topic, "job_id", job.ID)
	return fmt.Sprintf("❌ Task for '%s' cancelled.", topic)
}

// Jobs returns a snapshot of live jobs ordered by topic.
func (s *Scheduler) Jobs() []JobInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]JobInfo, 0, len(s.jobs))
	for _, job := range s.jobs {
		out = append(out, job.info())
	}
	slices.SortFunc(out, func(a, b JobInfo) int {
		return strings.Compare(a.Topic, b.Topic)
	})
	return out
}

// Job returns a snapshot of the live job for topic.
func (s *Scheduler) Job(topic string) (JobInfo, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[topic]
	if !ok {
		return JobInfo{}, false
	}
	return job.info(), true
}

// DrainResults returns and clears every buffered tick result.
func (s *Scheduler) DrainResults() []string {
	return s.results.Drain()
}

// Tick runs one tick of the live job for topic on the calling goroutine.
// It reports false when there is no such job or its previous tick is still
// running.
func (s *Scheduler) Tick(ctx context.Context, topic string) bool {
	s.mu.Lock()
	job, ok := s.jobs[topic]
	s.mu.Unlock()
	if !ok {
		return false
	}
	return s.tick(ctx, job)
}

// dispatch hands a timer firing to the worker pool.
func (s *Scheduler) dispatch(job *Job) {
	s.wg.Add(1)
	err := s.pool.Submit(func() {
		defer s.wg.Done()
		s.tick(s.ctx, job)
	})
	if err != nil {
		s.wg.Done()
		s.logger.Warn("tick dropped", "topic", job.Topic, "job_id", job.ID, "err", err)
		s.recorder.RecordTick(TickSkipped)
	}
}

func (s *Scheduler) tick(ctx context.Context, job *Job) bool {
	s.mu.Lock()
	if s.jobs[job.Topic] != job {
		// Replaced or cancelled after the timer fired
		s.mu.Unlock()
		return false
	}
	if !s.now().Before(job.ExpiresAt) {
		s.cron.Remove(job.entryID)
		delete(s.jobs, job.Topic)
		s.recorder.SetActiveJobs(len(s.jobs))
		ticks := job.Ticks
		s.mu.Unlock()

		s.results.Push(fmt.Sprintf("🛑 Task '%s' finished.", job.Topic))
		s.recorder.RecordTick(TickExpired)
		s.logger.Info("job finished", "topic", job.Topic, "job_id", job.ID, "ticks", ticks)
		return true
	}
	if !job.running.CompareAndSwap(false, true) {
		s.mu.Unlock()
		s.logger.Debug("previous tick still running", "topic", job.Topic, "job_id", job.ID)
		s.recorder.RecordTick(TickSkipped)
		return false
	}
	cursor := job.Cursor
	s.mu.Unlock()
	defer job.running.Store(false)

	s.logger.Debug("tick", "topic", job.Topic, "job_id", job.ID, "cursor", cursor)
	out, err := s.runTask(ctx, job.Topic, cursor)
	if err != nil {
		s.logger.Error("tick failed", "topic", job.Topic, "job_id", job.ID, "err", err)
		s.results.Push(fmt.Sprintf("❌ [%s] %v", job.Topic, err))
		s.recorder.RecordTick(TickError)
		return true
	}

	s.mu.Lock()
	job.Cursor += s.batchSize
	job.Ticks++
	s.mu.Unlock()

	s.results.Push(fmt.Sprintf("🔍 [%s] %s", job.Topic, out))
	s.recorder.RecordTick(TickOK)
	return true
}

// runTask invokes the task, converting a panic into an error.
func (s *Scheduler) runTask(ctx context.Context, topic string, cursor int) (out string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return s.task(ctx, topic, cursor, s.batchSize)
}
