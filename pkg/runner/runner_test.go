package runner

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/silvershell/pkg/adapters/memory"
	"github.com/aretw0/silvershell/pkg/assistant"
	"github.com/aretw0/silvershell/pkg/domain"
	"github.com/aretw0/silvershell/pkg/safety"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeExecutor struct {
	mu       sync.Mutex
	commands []domain.Command
	output   string
}

func (f *fakeExecutor) Execute(ctx context.Context, cmd domain.Command) domain.ExecutionResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commands = append(f.commands, cmd)
	return domain.ExecutionResult{Command: cmd, Output: f.output, Succeeded: true}
}

func (f *fakeExecutor) calls() []domain.Command {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.Command(nil), f.commands...)
}

type fakeAnalyzer struct {
	mu      sync.Mutex
	prompts []string
}

func (f *fakeAnalyzer) Submit(prompt string) domain.AnalysisTask {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
	return domain.AnalysisTask{ID: "task", Prompt: prompt, SubmittedAt: time.Now()}
}

func (f *fakeAnalyzer) submitted() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.prompts...)
}

func newTestRunner(input string, opts ...Option) (*Runner, *bytes.Buffer) {
	out := &bytes.Buffer{}
	sink := NewSink(out)
	reader := NewTextReader(strings.NewReader(input), sink)
	return NewRunner(reader, sink, opts...), out
}

func TestRunner_EchoCommand(t *testing.T) {
	analyzer := &fakeAnalyzer{}
	r, out := newTestRunner("!echo hello\nexit\n", WithAnalyzer(analyzer))

	require.NoError(t, r.Run(context.Background()))

	assert.Contains(t, out.String(), "hello")
	assert.Contains(t, out.String(), FarewellMessage)
	assert.Equal(t, domain.StateStopped, r.State())

	prompts := analyzer.submitted()
	require.Len(t, prompts, 1)
	assert.Equal(t, assistant.ComposeAnalysis("hello\n"), prompts[0])
}

func TestRunner_DangerousCommandDenied(t *testing.T) {
	executor := &fakeExecutor{}
	analyzer := &fakeAnalyzer{}
	r, out := newTestRunner("!rm -rf /\nn\nexit\n", WithExecutor(executor), WithAnalyzer(analyzer))

	require.NoError(t, r.Run(context.Background()))

	assert.Contains(t, out.String(), safety.ConfirmQuestion)
	assert.Contains(t, out.String(), domain.BlockedMessage)
	assert.Empty(t, executor.calls(), "denied command must not run")
	assert.Empty(t, analyzer.submitted(), "denied command must not be analysed")
}

func TestRunner_DangerousCommandConfirmed(t *testing.T) {
	executor := &fakeExecutor{output: "removed"}
	r, out := newTestRunner("!rm -rf /tmp/x\nY\r\nexit\n", WithExecutor(executor))

	require.NoError(t, r.Run(context.Background()))

	require.Len(t, executor.calls(), 1)
	assert.Equal(t, domain.Command("rm -rf /tmp/x"), executor.calls()[0])
	assert.NotContains(t, out.String(), domain.BlockedMessage)
}

func TestRunner_ChatTurn(t *testing.T) {
	var got string
	client := assistant.ClientFunc(func(ctx context.Context, prompt string) (assistant.Reply, error) {
		got = prompt
		return assistant.Reply{Text: "Wake up, samurai."}, nil
	})
	analyzer := &fakeAnalyzer{}
	r, out := newTestRunner("what now?\nquit\n", WithAssistant(client), WithAnalyzer(analyzer))

	require.NoError(t, r.Run(context.Background()))

	assert.Equal(t, assistant.Compose("what now?"), got)
	assert.Contains(t, out.String(), "JS >> Wake up, samurai.")
	assert.Empty(t, analyzer.submitted(), "chat turns are not analysed")
}

func TestRunner_ChatFailureIsShown(t *testing.T) {
	client := assistant.ClientFunc(func(ctx context.Context, prompt string) (assistant.Reply, error) {
		return assistant.Reply{}, &assistant.Failure{Kind: assistant.FailureService, Message: "API key not valid"}
	})
	r, out := newTestRunner("", WithAssistant(client))

	state := r.Step(context.Background(), "hi")

	assert.Equal(t, domain.StateAwaitingInput, state)
	assert.Contains(t, out.String(), "JS >> [API Error: API key not valid]")
}

func TestRunner_Step_Routing(t *testing.T) {
	tests := []struct {
		name         string
		line         string
		wantState    domain.LoopState
		wantCommands int
		wantChats    int
	}{
		{"Exit Lowercase", "exit", domain.StateStopped, 0, 0},
		{"Quit Uppercase", "QUIT", domain.StateStopped, 0, 0},
		{"Exit With Spaces Is Chat", " exit ", domain.StateAwaitingInput, 0, 1},
		{"Marker Only", "!", domain.StateAwaitingInput, 0, 0},
		{"Marker With Spaces", "!   ", domain.StateAwaitingInput, 0, 0},
		{"Blank Line", "   ", domain.StateAwaitingInput, 0, 0},
		{"Command", "! whoami ", domain.StateAwaitingInput, 1, 0},
		{"Chat", "scan this", domain.StateAwaitingInput, 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			executor := &fakeExecutor{}
			chats := 0
			client := assistant.ClientFunc(func(ctx context.Context, prompt string) (assistant.Reply, error) {
				chats++
				return assistant.Reply{Text: "ok"}, nil
			})
			r, _ := newTestRunner("", WithExecutor(executor), WithAssistant(client))

			assert.Equal(t, tt.wantState, r.Step(context.Background(), tt.line))
			assert.Len(t, executor.calls(), tt.wantCommands)
			assert.Equal(t, tt.wantChats, chats)
		})
	}
}

func TestRunner_CommandIsTrimmed(t *testing.T) {
	executor := &fakeExecutor{}
	r, _ := newTestRunner("", WithExecutor(executor))

	r.Step(context.Background(), "!  ls -la  ")

	require.Len(t, executor.calls(), 1)
	assert.Equal(t, domain.Command("ls -la"), executor.calls()[0])
}

func TestRunner_SuggestionsPrinted(t *testing.T) {
	executor := &fakeExecutor{output: "80/tcp open http nginx 1.18"}
	r, out := newTestRunner("", WithExecutor(executor))

	r.Step(context.Background(), "!nmap -A 10.0.0.1")

	text := out.String()
	assert.Contains(t, text, SuggestionsHeader)
	assert.Contains(t, text, "TARGET")
	assert.Less(t, strings.Index(text, "nginx"), strings.Index(text, SuggestionsHeader), "output precedes suggestions")
}

func TestRunner_NoSuggestionHeaderWithoutMatches(t *testing.T) {
	executor := &fakeExecutor{output: "total 0"}
	r, out := newTestRunner("", WithExecutor(executor))

	r.Step(context.Background(), "!true")

	assert.NotContains(t, out.String(), SuggestionsHeader)
}

func TestRunner_StopsOnEOF(t *testing.T) {
	r, out := newTestRunner("")

	require.NoError(t, r.Run(context.Background()))

	assert.Equal(t, domain.StateStopped, r.State())
	assert.NotContains(t, out.String(), FarewellMessage)
}

func TestRunner_StopsOnCancel(t *testing.T) {
	out := &bytes.Buffer{}
	sink := NewSink(out)
	blocking := &blockingReader{}
	r := NewRunner(blocking, sink)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
}

func TestRunner_InterruptContinues(t *testing.T) {
	reader := &scriptedReader{results: []scripted{
		{err: ErrInterrupted},
		{line: "exit"},
	}}
	out := &bytes.Buffer{}
	r := NewRunner(reader, NewSink(out))

	require.NoError(t, r.Run(context.Background()))
	assert.Contains(t, out.String(), FarewellMessage)
}

func TestRunner_SanitizesInput(t *testing.T) {
	executor := &fakeExecutor{}
	r, _ := newTestRunner("", WithExecutor(executor))

	r.Step(context.Background(), "!echo \x1b[31mred")

	require.Len(t, executor.calls(), 1)
	assert.Equal(t, domain.Command("echo [31mred"), executor.calls()[0])
}

func TestRunner_RecordsJournal(t *testing.T) {
	journal := memory.NewJournal()
	recorder := NewRecorder(journal, "s1", nil)
	executor := &fakeExecutor{output: "Ubuntu 22.04"}
	client := assistant.ClientFunc(func(ctx context.Context, prompt string) (assistant.Reply, error) {
		return assistant.Reply{Text: "meh"}, nil
	})
	r, _ := newTestRunner("!uname -a\n!rm -rf /\nn\nhello\nexit\n",
		WithExecutor(executor), WithAssistant(client), WithRecorder(recorder))

	require.NoError(t, r.Run(context.Background()))

	entries, err := journal.List(context.Background(), "s1")
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, domain.EntryCommand, entries[0].Kind)
	assert.Equal(t, "uname -a", entries[0].Input)
	assert.NotEmpty(t, entries[0].Suggestions)
	assert.Equal(t, domain.EntryBlocked, entries[1].Kind)
	assert.Equal(t, domain.EntryChat, entries[2].Kind)
	assert.Equal(t, "meh", entries[2].Output)
}

type blockingReader struct{}

func (blockingReader) ReadLine(ctx context.Context, prompt string) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func (blockingReader) Close() error { return nil }

type scripted struct {
	line string
	err  error
}

type scriptedReader struct {
	results []scripted
}

func (s *scriptedReader) ReadLine(ctx context.Context, prompt string) (string, error) {
	if len(s.results) == 0 {
		return "", context.Canceled
	}
	next := s.results[0]
	s.results = s.results[1:]
	return next.line, next.err
}

func (s *scriptedReader) Close() error { return nil }
