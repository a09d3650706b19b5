// Package schedule runs periodic maintenance tasks in-process.
//
// Usage:
//
//	s := schedule.New()
//	s.Hourly().Name("prune-configurations").WithoutOverlapping().Run(prune)
//	s.Start(ctx) // returns immediately; stops when ctx is cancelled
//	defer s.Wait()
package schedule

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shashiranjanraj/carby/pkg/logger"
)

// Task is the function signature for a scheduled task.
type Task func(ctx context.Context) error

type entry struct {
	id        string
	interval  time.Duration
	task      Task
	noOverlap bool

	mu      sync.Mutex
	lastRun time.Time
	running bool
}

// Scheduler dispatches registered tasks when their interval elapses.
type Scheduler struct {
	mu      sync.Mutex
	entries []*entry
	tick    time.Duration
	wg      sync.WaitGroup
}

// New returns an empty Scheduler that checks for due tasks every second.
func New() *Scheduler {
	return &Scheduler{tick: time.Second}
}

// Builder configures one entry before it is registered.
type Builder struct {
	s *Scheduler
	e *entry
}

// Every schedules a task at a fixed interval.
func (s *Scheduler) Every(d time.Duration) *Builder {
	return &Builder{s: s, e: &entry{interval: d}}
}

// EveryMinute schedules the task to run every 60 seconds.
func (s *Scheduler) EveryMinute() *Builder { return s.Every(time.Minute) }

// Hourly schedules the task to run every hour.
func (s *Scheduler) Hourly() *Builder { return s.Every(time.Hour) }

// WithoutOverlapping prevents a new run if the previous one is still executing.
func (b *Builder) WithoutOverlapping() *Builder {
	b.e.noOverlap = true
	return b
}

// Name gives the entry an identifier for logging.
func (b *Builder) Name(id string) *Builder {
	b.e.id = id
	return b
}

// Run registers the task.
func (b *Builder) Run(fn Task) {
	b.e.task = fn
	b.s.mu.Lock()
	defer b.s.mu.Unlock()
	if b.e.id == "" {
		b.e.id = fmt.Sprintf("task-%d", len(b.s.entries)+1)
	}
	b.s.entries = append(b.s.entries, b.e)
}

// Start begins the scheduler loop in the background. Every task runs once
// on the first tick, then whenever its interval has elapsed.
func (s *Scheduler) Start(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop(ctx)
	}()
	logger.Info("schedule: scheduler started", "tasks", len(s.snapshot()))
}

// Wait blocks until the loop and all in-flight tasks have returned.
func (s *Scheduler) Wait() { s.wg.Wait() }

func (s *Scheduler) loop(ctx context.Context) {
	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("schedule: scheduler stopped")
			return
		case now := <-ticker.C:
			s.dispatchDue(ctx, now)
		}
	}
}

func (s *Scheduler) snapshot() []*entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*entry(nil), s.entries...)
}

func (s *Scheduler) dispatchDue(ctx context.Context, now time.Time) {
	for _, e := range s.snapshot() {
		if !e.claim(now) {
			continue
		}
		s.wg.Add(1)
		go func(e *entry) {
			defer s.wg.Done()
			runEntry(ctx, e)
		}(e)
	}
}

// RunAll runs every task once, synchronously, and returns the first error.
// It backs the schedule:run command, meant to be invoked by system cron.
func (s *Scheduler) RunAll(ctx context.Context) error {
	var first error
	for _, e := range s.snapshot() {
		e.mu.Lock()
		e.running = true
		e.lastRun = time.Now()
		e.mu.Unlock()
		if err := runEntry(ctx, e); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// claim marks e as running if it is due. Reports whether the caller should run it.
func (e *entry) claim(now time.Time) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.lastRun.IsZero() && now.Sub(e.lastRun) < e.interval {
		return false
	}
	if e.noOverlap && e.running {
		logger.Warn("schedule: skipping overlapping task", "id", e.id)
		return false
	}
	e.running = true
	e.lastRun = now
	return true
}

func runEntry(ctx context.Context, e *entry) (err error) {
	defer func() {
		e.mu.Lock()
		e.running = false
		e.mu.Unlock()
		if r := recover(); r != nil {
			err = fmt.Errorf("schedule: task %s panicked: %v", e.id, r)
			logger.Error("schedule: task panicked", "id", e.id, "panic", r)
		}
	}()

	start := time.Now()
	if err = e.task(ctx); err != nil {
		logger.Error("schedule: task failed", "id", e.id, "error", err)
		return err
	}
	logger.Info("schedule: task finished", "id", e.id, "duration", time.Since(start).String())
	return nil
}

// List returns the registered entries as "id  [interval]" lines (for CLI display).
func (s *Scheduler) List() []string {
	entries := s.snapshot()
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, fmt.Sprintf("%s  [every %s]", e.id, e.interval))
	}
	sort.Strings(out)
	return out
}
