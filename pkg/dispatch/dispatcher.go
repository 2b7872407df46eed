// Package dispatch runs background analysis requests without blocking the
// interactive prompt.
package dispatch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aretw0/silvershell/pkg/assistant"
	"github.com/aretw0/silvershell/pkg/domain"
	"github.com/aretw0/silvershell/pkg/observability"
	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"
)

const (
	// DefaultTimeout bounds a single assistant call once it has a slot.
	DefaultTimeout = 60 * time.Second
	// DefaultMaxInFlight bounds concurrent assistant calls.
	DefaultMaxInFlight = 4
	// DefaultQueueLimit bounds tasks that are submitted but not yet delivered.
	DefaultQueueLimit = 32
)

// Sink receives finished analyses. Implementations must serialise their writes.
type Sink interface {
	Deliver(result domain.AnalysisResult)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(result domain.AnalysisResult)

func (f SinkFunc) Deliver(result domain.AnalysisResult) {
	f(result)
}

// Dispatcher starts one goroutine per submitted prompt and delivers each
// reply or failure to the sink exactly once. Delivery order across tasks is
// whatever order they finish in.
type Dispatcher struct {
	client     assistant.Client
	sink       Sink
	timeout    time.Duration
	maxFlight  int64
	queueLimit int64
	slots      *semaphore.Weighted
	pending    atomic.Int64
	wg         sync.WaitGroup

	logger     *slog.Logger
	metrics    *observability.Metrics
	onComplete func(domain.AnalysisResult)
}

// Option configures the Dispatcher.
type Option func(*Dispatcher)

// WithTimeout sets the per-call timeout. Zero or negative keeps the default.
func WithTimeout(timeout time.Duration) Option {
	return func(d *Dispatcher) {
		if timeout > 0 {
			d.timeout = timeout
		}
	}
}

// WithMaxInFlight bounds concurrent assistant calls. Zero means unbounded.
func WithMaxInFlight(n int) Option {
	return func(d *Dispatcher) {
		d.maxFlight = int64(n)
	}
}

// WithQueueLimit bounds pending tasks. Zero means unbounded.
func WithQueueLimit(n int) Option {
	return func(d *Dispatcher) {
		d.queueLimit = int64(n)
	}
}

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

// WithMetrics records analysis counters and the in-flight gauge.
func WithMetrics(m *observability.Metrics) Option {
	return func(d *Dispatcher) {
		d.metrics = m
	}
}

// WithCompletionHook runs fn after each delivery, on the task's goroutine.
func WithCompletionHook(fn func(domain.AnalysisResult)) Option {
	return func(d *Dispatcher) {
		d.onComplete = fn
	}
}

// New creates a Dispatcher that calls client and delivers to sink.
func New(client assistant.Client, sink Sink, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		client:     client,
		sink:       sink,
		timeout:    DefaultTimeout,
		maxFlight:  DefaultMaxInFlight,
		queueLimit: DefaultQueueLimit,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.maxFlight > 0 {
		d.slots = semaphore.NewWeighted(d.maxFlight)
	}
	return d
}

// Submit schedules prompt for analysis and returns immediately.
// When the pending limit is reached the task is rejected and a notice is
// delivered instead of a reply.
func (d *Dispatcher) Submit(prompt string) domain.AnalysisTask {
	task := domain.AnalysisTask{
		ID:          uuid.NewString(),
		Prompt:      prompt,
		SubmittedAt: time.Now(),
	}

	if !d.reserve() {
		d.logger.Warn("analysis rejected", "task_id", task.ID, "pending", d.pending.Load())
		d.metrics.AnalysisRejected()
		d.deliver(domain.AnalysisResult{
			Task:    task,
			Failure: fmt.Sprintf("[Analysis skipped: %d analyses already pending]", d.queueLimit),
		})
		return task
	}

	d.metrics.AnalysisStarted()
	d.wg.Add(1)
	go d.run(task)

	d.logger.Debug("analysis submitted", "task_id", task.ID, "prompt_bytes", len(prompt))
	return task
}

// Pending returns the number of tasks submitted but not yet delivered.
func (d *Dispatcher) Pending() int {
	return int(d.pending.Load())
}

// Wait blocks until every submitted task has been delivered.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Drain waits for pending tasks until ctx is done.
func (d *Dispatcher) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) reserve() bool {
	for {
		n := d.pending.Load()
		if d.queueLimit > 0 && n >= d.queueLimit {
			return false
		}
		if d.pending.CompareAndSwap(n, n+1) {
			return true
		}
	}
}

func (d *Dispatcher) run(task domain.AnalysisTask) {
	defer d.wg.Done()
	defer d.pending.Add(-1)

	result := d.analyze(task)

	status := observability.ResultOK
	if !result.OK() {
		status = observability.ResultFailed
	}
	d.metrics.AnalysisFinished(status, result.Duration)
	d.logger.Debug("analysis finished", "task_id", task.ID, "ok", result.OK(), "duration", result.Duration)

	d.deliver(result)
	if d.onComplete != nil {
		d.onComplete(result)
	}
}

func (d *Dispatcher) analyze(task domain.AnalysisTask) (result domain.AnalysisResult) {
	result.Task = task
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("analysis panicked", "task_id", task.ID, "panic", r)
			result.Reply = ""
			result.Failure = fmt.Sprintf("[Analysis Error]: %v", r)
		}
		result.Duration = time.Since(start)
	}()

	if d.slots != nil {
		// Background context: queued tasks are never cancelled, only bounded.
		_ = d.slots.Acquire(context.Background(), 1)
		defer d.slots.Release(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	reply, err := d.client.Send(ctx, task.Prompt)
	if err != nil {
		result.Failure = assistant.Describe(err)
		return result
	}
	result.Reply = reply.Text
	return result
}

func (d *Dispatcher) deliver(result domain.AnalysisResult) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("analysis delivery panicked", "task_id", result.Task.ID, "panic", r)
		}
	}()
	d.sink.Deliver(result)
}
