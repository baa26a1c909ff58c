package online

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fadedpez/reverseroulette/internal/logging"
	"github.com/fadedpez/reverseroulette/internal/metrics"
	"github.com/fadedpez/reverseroulette/internal/types"
	"github.com/fadedpez/reverseroulette/pkg/scheduler"
)

// DefaultMaxPollFailures is how many consecutive failed polls end a session
const DefaultMaxPollFailures = 5

// poller runs a role's poll on a fixed interval and counts consecutive
// failures. Reaching the limit stops it and reports the connection lost.
type poller struct {
	role        string
	maxFailures int
	logger      *logging.Logger
	sched       *scheduler.Scheduler
	poll        func(ctx context.Context) error
	lost        func(err error)

	mu       sync.Mutex
	failures int
	done     bool
}

func newPoller(role string, interval time.Duration, maxFailures int, logger *logging.Logger, poll func(context.Context) error, lost func(error)) *poller {
	if maxFailures < 1 {
		maxFailures = DefaultMaxPollFailures
	}
	p := &poller{
		role:        role,
		maxFailures: maxFailures,
		logger:      logger,
		sched:       scheduler.NewScheduler(logger),
		poll:        poll,
		lost:        lost,
	}
	p.sched.AddTask(role+"_poll", interval, p.tick)
	return p
}

func (p *poller) start(ctx context.Context) {
	p.sched.Start(ctx)
}

func (p *poller) stop() {
	p.mu.Lock()
	p.done = true
	p.mu.Unlock()
	p.sched.Stop()
}

// tick is the scheduled task. Failures are counted and logged by runOnce.
func (p *poller) tick(ctx context.Context) error {
	p.runOnce(ctx)
	return nil
}

// runOnce runs one poll and updates the failure count. A poll cut short by
// cancellation is not counted.
func (p *poller) runOnce(ctx context.Context) error {
	err := p.poll(ctx)
	if ctx.Err() != nil {
		return ctx.Err()
	}
	p.record(err)
	return err
}

// record applies a poll result to the failure count
func (p *poller) record(err error) {
	p.mu.Lock()
	if p.done {
		p.mu.Unlock()
		return
	}
	if err == nil {
		p.failures = 0
		p.mu.Unlock()
		metrics.Polls.WithLabelValues(p.role, metrics.ResultOK).Inc()
		return
	}

	p.failures++
	failures := p.failures
	lost := failures >= p.maxFailures
	if lost {
		p.done = true
	}
	p.mu.Unlock()

	metrics.Polls.WithLabelValues(p.role, metrics.ResultError).Inc()
	p.logger.Warn("Poll failed (%d/%d): %v", failures, p.maxFailures, err)

	if lost {
		p.sched.Stop()
		if p.lost != nil {
			p.lost(types.WrapError(types.ErrConnectionLost,
				fmt.Sprintf("lost connection after %d failed polls", failures), err))
		}
	}
}

// consecutiveFailures reports the current failure streak
func (p *poller) consecutiveFailures() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.failures
}
