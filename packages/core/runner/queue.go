package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/abdul-hamid-achik/reqchain/packages/core/graph"
)

// Pacer delays the next call. *rate.Limiter satisfies it.
type Pacer interface {
	Wait(ctx context.Context) error
}

type queueConfig struct {
	pacer    Pacer
	observer func(*CallResult)
}

type QueueOption func(*queueConfig)

// WithPacer waits on p before every call.
func WithPacer(p Pacer) QueueOption {
	return func(c *queueConfig) {
		c.pacer = p
	}
}

// WithObserver is called after every call, skipped ones included.
func WithObserver(fn func(*CallResult)) QueueOption {
	return func(c *queueConfig) {
		c.observer = fn
	}
}

type RunResult struct {
	// Label names the request or sequence the queue was computed for.
	Label    string
	Queue    []string
	Calls    []*CallResult
	Duration time.Duration
	Passed   int
	Failed   int
	Skipped  int
	// Err is the first failure, nil when every call passed.
	Err error
}

// RunQueue calls each name in order. After the first failure the remaining
// names are recorded as skipped and not called.
func (r *Runner) RunQueue(ctx context.Context, queue []string, opts ...QueueOption) *RunResult {
	cfg := &queueConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	start := time.Now()
	result := &RunResult{Queue: queue}

	notify := func(c *CallResult) {
		result.Calls = append(result.Calls, c)
		if cfg.observer != nil {
			cfg.observer(c)
		}
	}

	for _, name := range queue {
		if result.Err != nil {
			result.Skipped++
			notify(&CallResult{Name: name, State: StateIdle, Skipped: true})
			continue
		}

		if cfg.pacer != nil {
			if err := cfg.pacer.Wait(ctx); err != nil {
				res := &CallResult{Name: name, State: StateFailed, FailedAt: StateIdle, Err: fmt.Errorf("request %q: %w", name, err)}
				result.Failed++
				result.Err = res.Err
				notify(res)
				continue
			}
		}

		res := r.Call(ctx, name)
		if res.Passed() {
			result.Passed++
		} else {
			result.Failed++
			result.Err = res.Err
		}
		notify(res)
	}

	result.Duration = time.Since(start)
	return result
}

// RunRequest computes the call queue for name and runs it.
func (r *Runner) RunRequest(ctx context.Context, name string, opts ...QueueOption) (*RunResult, error) {
	queue, err := r.CallQueue(name)
	if err != nil {
		return nil, err
	}
	result := r.RunQueue(ctx, queue, opts...)
	result.Label = name
	return result, nil
}

// RunSequence runs every step queue of the named sequence back to back.
// Dependencies shared between steps run once per step.
func (r *Runner) RunSequence(ctx context.Context, name string, opts ...QueueOption) (*RunResult, error) {
	queues, err := r.SequenceQueue(name)
	if err != nil {
		return nil, err
	}
	result := r.RunQueue(ctx, graph.Flatten(queues), opts...)
	result.Label = name
	return result, nil
}
