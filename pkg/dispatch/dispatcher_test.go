package dispatch

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aretw0/silvershell/pkg/assistant"
	"github.com/aretw0/silvershell/pkg/domain"
	"github.com/aretw0/silvershell/pkg/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	mu      sync.Mutex
	results []domain.AnalysisResult
}

func (s *recordingSink) Deliver(result domain.AnalysisResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append(s.results, result)
}

func (s *recordingSink) snapshot() []domain.AnalysisResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.AnalysisResult(nil), s.results...)
}

func TestDispatcher_SubmitDoesNotBlock(t *testing.T) {
	release := make(chan struct{})
	client := assistant.ClientFunc(func(ctx context.Context, prompt string) (assistant.Reply, error) {
		<-release
		return assistant.Reply{Text: "reply to " + prompt}, nil
	})
	sink := &recordingSink{}
	d := New(client, sink)

	start := time.Now()
	task := d.Submit("scan output")
	assert.Less(t, time.Since(start), 100*time.Millisecond)
	assert.NotEmpty(t, task.ID)
	assert.Equal(t, "scan output", task.Prompt)
	assert.False(t, task.SubmittedAt.IsZero())
	assert.Equal(t, 1, d.Pending())
	assert.Empty(t, sink.snapshot())

	close(release)
	d.Wait()

	results := sink.snapshot()
	require.Len(t, results, 1)
	assert.True(t, results[0].OK())
	assert.Equal(t, "reply to scan output", results[0].Reply)
	assert.Equal(t, task.ID, results[0].Task.ID)
	assert.Equal(t, 0, d.Pending())
}

func TestDispatcher_OutOfOrderCompletion(t *testing.T) {
	firstRelease := make(chan struct{})
	client := assistant.ClientFunc(func(ctx context.Context, prompt string) (assistant.Reply, error) {
		if prompt == "first" {
			<-firstRelease
		}
		return assistant.Reply{Text: prompt + " done"}, nil
	})
	sink := &recordingSink{}
	d := New(client, sink)

	d.Submit("first")
	d.Submit("second")

	require.Eventually(t, func() bool { return len(sink.snapshot()) == 1 }, time.Second, 5*time.Millisecond)
	close(firstRelease)
	d.Wait()

	results := sink.snapshot()
	require.Len(t, results, 2)
	assert.Equal(t, "second done", results[0].Reply)
	assert.Equal(t, "first done", results[1].Reply)
}

func TestDispatcher_FailuresBecomeMessages(t *testing.T) {
	tests := []struct {
		name     string
		client   assistant.ClientFunc
		contains string
	}{
		{
			name: "Service Failure",
			client: func(ctx context.Context, prompt string) (assistant.Reply, error) {
				return assistant.Reply{}, &assistant.Failure{Kind: assistant.FailureService, Message: "quota exceeded"}
			},
			contains: "[API Error: quota exceeded]",
		},
		{
			name: "Empty Content",
			client: func(ctx context.Context, prompt string) (assistant.Reply, error) {
				return assistant.Reply{}, &assistant.Failure{Kind: assistant.FailureEmpty}
			},
			contains: "possible safety block",
		},
		{
			name: "Panic",
			client: func(ctx context.Context, prompt string) (assistant.Reply, error) {
				panic("boom")
			},
			contains: "[Analysis Error]: boom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sink := &recordingSink{}
			d := New(tt.client, sink)

			d.Submit("x")
			d.Wait()

			results := sink.snapshot()
			require.Len(t, results, 1)
			assert.False(t, results[0].OK())
			assert.Contains(t, results[0].Text(), tt.contains)
		})
	}
}

func TestDispatcher_Timeout(t *testing.T) {
	client := assistant.ClientFunc(func(ctx context.Context, prompt string) (assistant.Reply, error) {
		<-ctx.Done()
		return assistant.Reply{}, &assistant.Failure{Kind: assistant.FailureNetwork, Message: "request failed", Err: ctx.Err()}
	})
	sink := &recordingSink{}
	d := New(client, sink, WithTimeout(50*time.Millisecond))

	d.Submit("slow")
	require.NoError(t, d.Drain(contextWithTimeout(t, 2*time.Second)))

	results := sink.snapshot()
	require.Len(t, results, 1)
	assert.Contains(t, results[0].Failure, "deadline exceeded")
}

func TestDispatcher_MaxInFlight(t *testing.T) {
	var current, peak atomic.Int32
	client := assistant.ClientFunc(func(ctx context.Context, prompt string) (assistant.Reply, error) {
		n := current.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		current.Add(-1)
		return assistant.Reply{Text: "ok"}, nil
	})
	sink := &recordingSink{}
	d := New(client, sink, WithMaxInFlight(2))

	for i := 0; i < 6; i++ {
		d.Submit("p")
	}
	d.Wait()

	assert.Len(t, sink.snapshot(), 6)
	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestDispatcher_QueueLimitRejects(t *testing.T) {
	release := make(chan struct{})
	client := assistant.ClientFunc(func(ctx context.Context, prompt string) (assistant.Reply, error) {
		<-release
		return assistant.Reply{Text: "ok"}, nil
	})
	sink := &recordingSink{}
	metrics := observability.NewMetrics()
	d := New(client, sink, WithQueueLimit(1), WithMetrics(metrics))

	d.Submit("kept")
	d.Submit("dropped")

	rejected := sink.snapshot()
	require.Len(t, rejected, 1, "rejection is delivered synchronously")
	assert.Equal(t, "dropped", rejected[0].Task.Prompt)
	assert.Contains(t, rejected[0].Failure, "Analysis skipped")

	close(release)
	d.Wait()
	assert.Len(t, sink.snapshot(), 2)
}

func TestDispatcher_CompletionHook(t *testing.T) {
	var hooked atomic.Int32
	client := assistant.ClientFunc(func(ctx context.Context, prompt string) (assistant.Reply, error) {
		return assistant.Reply{Text: "ok"}, nil
	})
	d := New(client, SinkFunc(func(domain.AnalysisResult) {}), WithCompletionHook(func(r domain.AnalysisResult) {
		hooked.Add(1)
	}))

	d.Submit("a")
	d.Submit("b")
	d.Wait()

	assert.Equal(t, int32(2), hooked.Load())
}

func TestDispatcher_SinkPanicIsContained(t *testing.T) {
	client := assistant.ClientFunc(func(ctx context.Context, prompt string) (assistant.Reply, error) {
		return assistant.Reply{Text: "ok"}, nil
	})
	d := New(client, SinkFunc(func(domain.AnalysisResult) { panic("sink broke") }))

	assert.NotPanics(t, func() {
		d.Submit("a")
		d.Wait()
	})
}

func contextWithTimeout(t *testing.T, timeout time.Duration) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	t.Cleanup(cancel)
	return ctx
}
