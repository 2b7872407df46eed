package runner

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/aretw0/silvershell/pkg/adapters/process"
	"github.com/aretw0/silvershell/pkg/assistant"
	"github.com/aretw0/silvershell/pkg/domain"
	"github.com/aretw0/silvershell/pkg/observability"
	"github.com/aretw0/silvershell/pkg/recon"
	"github.com/aretw0/silvershell/pkg/safety"
)

// Gatekeeper decides whether a command may run.
type Gatekeeper interface {
	Evaluate(ctx context.Context, cmd domain.Command) domain.Verdict
}

// Executor runs an allowed command to completion.
type Executor interface {
	Execute(ctx context.Context, cmd domain.Command) domain.ExecutionResult
}

// Detector suggests follow-up commands for command output.
type Detector interface {
	Detect(output string) domain.SuggestionList
}

// Analyzer accepts a prompt for background analysis without blocking.
type Analyzer interface {
	Submit(prompt string) domain.AnalysisTask
}

// Runner is the interactive loop. It is driven by a single goroutine; only the
// Sink is shared with background analyses.
type Runner struct {
	reader   LineReader
	sink     *Sink
	gate     Gatekeeper
	executor Executor
	detector Detector
	client   assistant.Client
	analyzer Analyzer
	recorder *Recorder
	logger   *slog.Logger
	metrics  *observability.Metrics
	prompt   string

	state domain.LoopState
}

// NewRunner creates a Runner reading from reader and writing to sink.
func NewRunner(reader LineReader, sink *Sink, opts ...Option) *Runner {
	r := &Runner{
		reader: reader,
		sink:   sink,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		prompt: DefaultPrompt,
		state:  domain.StateAwaitingInput,
	}
	for _, opt := range opts {
		opt(r)
	}

	if r.gate == nil {
		r.gate = safety.NewGate(ReaderConfirmer(reader, sink), safety.WithLogger(r.logger))
	}
	if r.executor == nil {
		r.executor = process.NewExecutor(process.WithLogger(r.logger))
	}
	if r.detector == nil {
		r.detector = recon.Default()
	}
	return r
}

// State returns the loop's current state.
func (r *Runner) State() domain.LoopState {
	return r.state
}

// Run reads and processes lines until the operator exits, input ends or ctx
// is cancelled. None of those is an error; only unexpected read failures are
// returned.
func (r *Runner) Run(ctx context.Context) error {
	for !r.state.Terminal() {
		line, err := r.reader.ReadLine(ctx, r.prompt)
		if err != nil {
			switch {
			case errors.Is(err, ErrInterrupted):
				continue
			case errors.Is(err, io.EOF):
				r.logger.Debug("input closed")
				r.state = domain.StateStopped
				return nil
			case ctx.Err() != nil:
				r.logger.Debug("loop cancelled", "err", ctx.Err())
				r.state = domain.StateStopped
				return nil
			default:
				r.state = domain.StateStopped
				return err
			}
		}
		r.Step(ctx, line)
	}
	return nil
}

// Step routes one operator line and returns the resulting state.
// Exit tokens stop the loop; "!"-prefixed lines run commands; any other
// non-blank line is a chat turn.
func (r *Runner) Step(ctx context.Context, line string) domain.LoopState {
	if r.state.Terminal() {
		return r.state
	}

	clean, err := SanitizeInput(line)
	if err != nil {
		r.sink.Emitf(KindError, "Error: %v. Please try again.", err)
		return r.state
	}

	switch {
	case isExit(clean):
		r.sink.Emit(KindFarewell, FarewellMessage)
		r.state = domain.StateStopped
	case strings.HasPrefix(clean, domain.CommandMarker):
		r.state = domain.StateDispatching
		r.runCommand(ctx, domain.Command(strings.TrimPrefix(clean, domain.CommandMarker)))
		r.state = domain.StateAwaitingInput
	case strings.TrimSpace(clean) == "":
		// Nothing to do.
	default:
		r.state = domain.StateDispatching
		r.chat(ctx, clean)
		r.state = domain.StateAwaitingInput
	}
	return r.state
}

func isExit(line string) bool {
	for _, token := range domain.ExitTokens {
		if strings.EqualFold(line, token) {
			return true
		}
	}
	return false
}

func (r *Runner) runCommand(ctx context.Context, raw domain.Command) {
	cmd, err := raw.Normalize()
	if err != nil {
		return
	}

	verdict := r.gate.Evaluate(ctx, cmd)
	if !verdict.Allowed {
		r.logger.Info("command blocked", "command", cmd.String(), "prefix", verdict.MatchedPrefix)
		r.metrics.CommandBlocked()
		r.sink.Emit(KindWarning, verdict.Message)
		r.recorder.Record(ctx, domain.Entry{
			Kind:   domain.EntryBlocked,
			Input:  cmd.String(),
			Output: verdict.Message,
		})
		return
	}

	result := r.executor.Execute(ctx, cmd)
	r.metrics.CommandFinished(result.Failed(), result.Duration)
	r.logger.Debug("command finished",
		"command", cmd.String(),
		"succeeded", result.Succeeded,
		"exit_code", result.ExitCode,
		"duration", result.Duration,
	)
	r.sink.CommandOutput(result.Output)

	suggestions := r.detector.Detect(result.Output)
	r.sink.Suggestions(suggestions)
	r.metrics.SuggestionsShown(len(suggestions))

	r.recorder.Record(ctx, domain.Entry{
		Kind:        domain.EntryCommand,
		Input:       cmd.String(),
		Output:      result.Output,
		Succeeded:   result.Succeeded,
		Suggestions: suggestions,
		Duration:    result.Duration,
	})

	if r.analyzer != nil {
		task := r.analyzer.Submit(assistant.ComposeAnalysis(result.Output))
		r.logger.Debug("analysis dispatched", "task_id", task.ID)
	}
}

func (r *Runner) chat(ctx context.Context, text string) {
	start := time.Now()
	var reply string
	succeeded := false

	if r.client == nil {
		reply = assistant.Describe(&assistant.Failure{Kind: assistant.FailureNetwork, Message: "assistant not configured"})
	} else {
		resp, err := r.client.Send(ctx, assistant.Compose(text))
		if err != nil {
			r.logger.Warn("chat failed", "kind", assistant.KindOf(err), "err", err)
			reply = assistant.Describe(err)
		} else {
			reply = resp.Text
			succeeded = true
		}
	}
	duration := time.Since(start)
	r.metrics.ChatFinished(duration)

	if reply != "" {
		r.sink.Reply(ChatTag, reply)
	}
	r.recorder.Record(ctx, domain.Entry{
		Kind:      domain.EntryChat,
		Input:     text,
		Output:    reply,
		Succeeded: succeeded,
		Duration:  duration,
	})
}
