package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/fadedpez/reverseroulette/internal/logging"
)

// Task represents a scheduled task
type Task struct {
	Name     string
	Interval time.Duration
	Fn       func(context.Context) error
	// Immediate runs the task once as soon as the scheduler starts
	Immediate bool
}

// Scheduler manages scheduled tasks. Each task runs on its own goroutine and
// is invoked synchronously from its ticker loop, so a run never overlaps the
// previous run of the same task; ticks that fire while a run is in progress
// are dropped.
type Scheduler struct {
	tasks   []*Task
	running bool
	mutex   sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	logger  *logging.Logger
}

// NewScheduler creates a new scheduler
func NewScheduler(logger *logging.Logger) *Scheduler {
	if logger == nil {
		logger = logging.Default
	}
	return &Scheduler{
		tasks:  make([]*Task, 0),
		logger: logger.Named("scheduler"),
	}
}

// AddTask adds a task to the scheduler. Tasks added after Start are picked up
// on the next Start.
func (s *Scheduler) AddTask(name string, interval time.Duration, fn func(context.Context) error) *Task {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	task := &Task{
		Name:      name,
		Interval:  interval,
		Fn:        fn,
		Immediate: true,
	}
	s.tasks = append(s.tasks, task)
	return task
}

// Start starts the scheduler
func (s *Scheduler) Start(ctx context.Context) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.running {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.running = true

	for _, task := range s.tasks {
		s.wg.Add(1)
		go s.runTask(ctx, task)
	}

	s.logger.Debug("Scheduler started with %d tasks", len(s.tasks))
}

// Stop stops the scheduler. It does not wait for an in-flight run to return,
// so it is safe to call from inside a task; use Wait for that.
func (s *Scheduler) Stop() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if !s.running {
		return
	}

	s.cancel()
	s.running = false
	s.logger.Debug("Scheduler stopped")
}

// Wait blocks until every task goroutine has exited
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

// Running reports whether the scheduler has been started and not stopped
func (s *Scheduler) Running() bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.running
}

// runTask runs a task at the specified interval
func (s *Scheduler) runTask(ctx context.Context, task *Task) {
	defer s.wg.Done()

	ticker := time.NewTicker(task.Interval)
	defer ticker.Stop()

	if task.Immediate {
		s.run(ctx, task)
	}

	for {
		select {
		case <-ticker.C:
			// a tick can race with cancellation; cancellation wins
			if ctx.Err() != nil {
				return
			}
			s.run(ctx, task)
		case <-ctx.Done():
			s.logger.Debug("Task %s stopped", task.Name)
			return
		}
	}
}

func (s *Scheduler) run(ctx context.Context, task *Task) {
	if err := task.Fn(ctx); err != nil {
		s.logger.Warn("Error running task %s: %v", task.Name, err)
	}
}
