// Package queue provides background job processing.
//
//	type ConfirmationJob struct{ OrderID uint }
//	func (j *ConfirmationJob) Handle(ctx context.Context) error { ... }
//
//	q := queue.New(queue.NewMemoryDriver(1000))
//	q.Register(func() queue.Job { return &ConfirmationJob{} })
//	q.Start(ctx, 2)
//	q.Dispatch(ctx, &ConfirmationJob{OrderID: 7})
//
// Jobs travel through the driver as JSON, so only exported fields survive.
// Dependencies a job needs at run time are captured by its factory.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shashiranjanraj/carby/pkg/logger"
	"github.com/shashiranjanraj/carby/pkg/metrics"
	"gorm.io/gorm"
)

// Job is the interface every queued job must satisfy.
type Job interface {
	// Handle executes the job. Return a non-nil error to signal failure.
	Handle(ctx context.Context) error
}

// Driver is the queue storage backend.
type Driver interface {
	Push(ctx context.Context, payload []byte) error
	// Pop blocks until a payload is available or ctx ends. A nil payload
	// with a nil error means "nothing yet, poll again".
	Pop(ctx context.Context) ([]byte, error)
}

// ErrUnregistered is returned by Dispatch for a job type with no factory.
var ErrUnregistered = errors.New("queue: job type not registered")

// FailedJob holds information about a job that exhausted its retries.
type FailedJob struct {
	Type     string
	Payload  []byte
	Err      error
	FailedAt time.Time
	Attempts int
}

// Option configures a Manager.
type Option func(*Manager)

// WithMaxRetry sets how many attempts a job gets before it is failed.
func WithMaxRetry(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.maxRetry = n
		}
	}
}

// WithBackoff sets the delay unit between attempts; attempt k waits k×d.
func WithBackoff(d time.Duration) Option {
	return func(m *Manager) { m.backoff = d }
}

// WithJobTimeout bounds every single attempt.
func WithJobTimeout(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.jobTimeout = d
		}
	}
}

// WithDB persists exhausted jobs to the failed_jobs table.
func WithDB(db *gorm.DB) Option {
	return func(m *Manager) { m.db = db }
}

// Manager is the central queue hub.
type Manager struct {
	mu       sync.RWMutex
	driver   Driver
	registry map[string]func() Job
	failed   []FailedJob

	maxRetry   int
	backoff    time.Duration
	jobTimeout time.Duration
	db         *gorm.DB

	wg sync.WaitGroup
}

// New creates a Manager on top of driver.
func New(driver Driver, opts ...Option) *Manager {
	m := &Manager{
		driver:     driver,
		registry:   map[string]func() Job{},
		maxRetry:   3,
		backoff:    time.Second,
		jobTimeout: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Register makes a job type available for dispatch and deserialization.
// The type name is taken from the value the factory returns.
func (m *Manager) Register(factory func() Job) {
	name := typeName(factory())
	m.mu.Lock()
	defer m.mu.Unlock()
	m.registry[name] = factory
}

func typeName(job Job) string { return fmt.Sprintf("%T", job) }

type envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Dispatch pushes job onto the queue. It never waits for the job to run.
func (m *Manager) Dispatch(ctx context.Context, job Job) error {
	name := typeName(job)

	m.mu.RLock()
	_, ok := m.registry[name]
	d := m.driver
	m.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnregistered, name)
	}

	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("queue: marshal job %s: %w", name, err)
	}
	env, err := json.Marshal(envelope{Type: name, Payload: payload})
	if err != nil {
		return fmt.Errorf("queue: marshal envelope: %w", err)
	}

	return d.Push(ctx, env)
}

// Start launches n workers that process jobs until ctx is cancelled.
func (m *Manager) Start(ctx context.Context, n int) {
	if n < 1 {
		n = 1
	}
	for i := 0; i < n; i++ {
		m.wg.Add(1)
		go m.work(ctx)
	}
	logger.Info("queue: workers started", "count", n)
}

// Wait blocks until every worker started by Start has returned.
func (m *Manager) Wait() { m.wg.Wait() }

func (m *Manager) work(ctx context.Context) {
	defer m.wg.Done()
	for {
		if ctx.Err() != nil {
			return
		}

		m.mu.RLock()
		d := m.driver
		m.mu.RUnlock()

		raw, err := d.Pop(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Warn("queue: pop failed", "error", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(500 * time.Millisecond):
			}
			continue
		}
		if raw == nil {
			continue
		}

		m.process(ctx, raw)
	}
}

func (m *Manager) process(ctx context.Context, raw []byte) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		logger.Error("queue: bad envelope", "error", err)
		return
	}

	m.mu.RLock()
	factory, ok := m.registry[env.Type]
	m.mu.RUnlock()
	if !ok {
		logger.Warn("queue: unregistered job type", "type", env.Type)
		return
	}

	job := factory()
	if err := json.Unmarshal(env.Payload, job); err != nil {
		logger.Error("queue: unmarshal payload", "type", env.Type, "error", err)
		return
	}

	m.runWithRetry(ctx, job, env)
}

func (m *Manager) runWithRetry(ctx context.Context, job Job, env envelope) {
	start := time.Now()
	defer func() {
		metrics.QueueJobDuration.WithLabelValues(env.Type).Observe(time.Since(start).Seconds())
	}()

	var lastErr error
retry:
	for attempt := 1; attempt <= m.maxRetry; attempt++ {
		if lastErr = m.attempt(ctx, job); lastErr == nil {
			metrics.QueueJobsProcessed.WithLabelValues("success").Inc()
			logger.Debug("queue: job processed", "type", env.Type, "attempt", attempt)
			return
		}

		logger.Warn("queue: job failed", "type", env.Type, "attempt", attempt, "error", lastErr)
		if attempt == m.maxRetry {
			break
		}
		select {
		case <-ctx.Done():
			break retry
		case <-time.After(time.Duration(attempt) * m.backoff):
		}
	}

	metrics.QueueJobsProcessed.WithLabelValues("failed").Inc()
	m.persistFailed(env, lastErr, m.maxRetry)
	logger.Error("queue: job exhausted retries", "type", env.Type, "error", lastErr)
}

// attempt runs job once under the per-attempt timeout, turning a panic into
// an error so a bad job cannot kill its worker.
func (m *Manager) attempt(ctx context.Context, job Job) (err error) {
	ctx, cancel := context.WithTimeout(ctx, m.jobTimeout)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("queue: job panicked: %v", r)
		}
	}()
	return job.Handle(ctx)
}

// FailedJobs returns a snapshot of the jobs that exhausted their retries
// since this Manager was created.
func (m *Manager) FailedJobs() []FailedJob {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]FailedJob, len(m.failed))
	copy(out, m.failed)
	return out
}
