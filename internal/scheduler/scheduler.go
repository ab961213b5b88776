// Package scheduler provides single-shot deferred execution of
// registered actions. A periodic sweep fires due entries, each in its
// own goroutine, with at-least-once semantics and no ordering
// guarantee between independently scheduled entries.
package scheduler

import (
	"container/heap"
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// Common scheduler errors.
var (
	// ErrUnknownAction is returned when scheduling against an action ID
	// that has not been registered.
	ErrUnknownAction = errors.New("unknown action")

	// ErrStopped is returned when scheduling after the scheduler has
	// been stopped.
	ErrStopped = errors.New("scheduler stopped")
)

// Action is the unit of deferred work. The arg carries the entity ID
// the action should operate on; actions are responsible for their own
// error handling since there is no caller to report back to.
type Action func(ctx context.Context, arg string)

// Scheduler schedules a single-shot execution of a registered action
// after at least delay. Implementations guarantee at-least-once
// execution within the process lifetime.
type Scheduler interface {
	ScheduleOnce(delay time.Duration, actionID string, arg string) error
}

// entry is a pending execution: fire time, action, argument.
type entry struct {
	fireAt   time.Time
	actionID string
	arg      string
}

// entryHeap orders entries by fire time.
type entryHeap []entry

func (h entryHeap) Len() int            { return len(h) }
func (h entryHeap) Less(i, j int) bool  { return h[i].fireAt.Before(h[j].fireAt) }
func (h entryHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *entryHeap) Push(x interface{}) { *h = append(*h, x.(entry)) }
func (h *entryHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// SweepScheduler is an in-process Scheduler implementation. Pending
// entries sit in a min-heap; a single sweep loop pops due entries and
// runs each in its own goroutine, so executions for different IDs may
// overlap but only one sweep dispatches at a time.
type SweepScheduler struct {
	mu      sync.Mutex
	pending entryHeap
	actions map[string]Action
	stopped bool

	interval   time.Duration
	logger     *slog.Logger
	ctx        context.Context
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
}

// NewSweepScheduler creates a SweepScheduler that checks for due
// entries every interval. If interval is zero, it defaults to one
// second.
func NewSweepScheduler(interval time.Duration, logger *slog.Logger) *SweepScheduler {
	if interval == 0 {
		interval = time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &SweepScheduler{
		pending:    entryHeap{},
		actions:    make(map[string]Action),
		interval:   interval,
		logger:     logger,
		ctx:        ctx,
		cancelFunc: cancel,
	}
}

// Register binds an action ID to its handler. Must be called before
// Start; the worker and dispatcher are the only registered actions.
func (s *SweepScheduler) Register(actionID string, action Action) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.actions[actionID] = action
}

// ScheduleOnce enqueues a single execution of actionID with arg after
// at least delay. Returns ErrUnknownAction for unregistered actions
// and ErrStopped after shutdown.
func (s *SweepScheduler) ScheduleOnce(delay time.Duration, actionID string, arg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return ErrStopped
	}
	if _, ok := s.actions[actionID]; !ok {
		return ErrUnknownAction
	}

	heap.Push(&s.pending, entry{
		fireAt:   time.Now().Add(delay),
		actionID: actionID,
		arg:      arg,
	})

	s.logger.Debug("scheduled execution",
		"action_id", actionID,
		"arg", arg,
		"delay", delay)
	return nil
}

// Start launches the sweep loop.
func (s *SweepScheduler) Start() {
	s.wg.Add(1)
	go s.sweepLoop()
}

// Stop halts the sweep loop and waits for in-flight executions to
// finish. Entries still pending are dropped; store TTLs bound the
// lifetime of any work they referenced.
func (s *SweepScheduler) Stop() {
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()

	s.cancelFunc()
	s.wg.Wait()
}

// sweepLoop periodically dispatches all due entries.
func (s *SweepScheduler) sweepLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.dispatchDue()
		}
	}
}

// dispatchDue pops every entry whose fire time has passed and runs its
// action in a fresh goroutine.
func (s *SweepScheduler) dispatchDue() {
	now := time.Now()

	s.mu.Lock()
	var due []entry
	for len(s.pending) > 0 && !s.pending[0].fireAt.After(now) {
		due = append(due, heap.Pop(&s.pending).(entry))
	}
	actions := make([]Action, len(due))
	for i, e := range due {
		actions[i] = s.actions[e.actionID]
	}
	s.mu.Unlock()

	for i, e := range due {
		action := actions[i]

		s.wg.Add(1)
		go func(e entry) {
			defer s.wg.Done()
			action(s.ctx, e.arg)
		}(e)
	}
}
