package pacing

import (
	"context"
	"sync"
	"time"
)

// Registry tracks the two cooperative scheduled tasks an in-progress attempt
// carries: the countdown to the quiz deadline and the periodic snapshot
// loop. The tasks share only the attempt id; each has its own cancellation
// and neither blocks the other. Stop tears both down, and completion or page
// teardown is expected to call it.
type Registry struct {
	mu       sync.Mutex
	attempts map[string]*tasks
}

type tasks struct {
	cancelCountdown context.CancelFunc
	cancelSnapshots context.CancelFunc
}

func NewRegistry() *Registry {
	return &Registry{attempts: map[string]*tasks{}}
}

// StartCountdown schedules onExpire to fire once after d, unless the attempt
// is stopped first. A second countdown for the same attempt replaces the
// first.
func (r *Registry) StartCountdown(attemptID string, d time.Duration, onExpire func(attemptID string)) {
	ctx, cancel := context.WithCancel(context.Background())
	r.mu.Lock()
	t := r.tasksLocked(attemptID)
	if t.cancelCountdown != nil {
		t.cancelCountdown()
	}
	t.cancelCountdown = cancel
	r.mu.Unlock()

	go func() {
		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-ctx.Done():
		case <-timer.C:
			onExpire(attemptID)
		}
	}()
}

// StartSnapshots runs capture every interval until the attempt is stopped.
func (r *Registry) StartSnapshots(attemptID string, every time.Duration, capture func(attemptID string)) {
	ctx, cancel := context.WithCancel(context.Background())
	r.mu.Lock()
	t := r.tasksLocked(attemptID)
	if t.cancelSnapshots != nil {
		t.cancelSnapshots()
	}
	t.cancelSnapshots = cancel
	r.mu.Unlock()

	go func() {
		ticker := time.NewTicker(every)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				capture(attemptID)
			}
		}
	}()
}

// Stop cancels both tasks for the attempt. It is safe to call for unknown
// ids and to call more than once.
func (r *Registry) Stop(attemptID string) {
	r.mu.Lock()
	t, ok := r.attempts[attemptID]
	if ok {
		delete(r.attempts, attemptID)
	}
	r.mu.Unlock()
	if !ok {
		return
	}
	if t.cancelCountdown != nil {
		t.cancelCountdown()
	}
	if t.cancelSnapshots != nil {
		t.cancelSnapshots()
	}
}

// Active reports how many attempts currently hold at least one task.
func (r *Registry) Active() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.attempts)
}

func (r *Registry) tasksLocked(attemptID string) *tasks {
	t, ok := r.attempts[attemptID]
	if !ok {
		t = &tasks{}
		r.attempts[attemptID] = t
	}
	return t
}
