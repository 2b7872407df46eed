package runner

import (
	"log/slog"

	"github.com/aretw0/silvershell/pkg/assistant"
	"github.com/aretw0/silvershell/pkg/observability"
)

// DefaultPrompt is shown while waiting for an operator line.
const DefaultPrompt = "Σ >> "

// Option defines a functional option for configuring the Runner.
type Option func(*Runner)

// WithGate configures the safety gate. Defaults to the built-in denylist,
// confirming through the Runner's reader.
func WithGate(gate Gatekeeper) Option {
	return func(r *Runner) {
		r.gate = gate
	}
}

// WithExecutor configures the command executor.
func WithExecutor(executor Executor) Option {
	return func(r *Runner) {
		r.executor = executor
	}
}

// WithDetector configures the reconnaissance detector.
func WithDetector(detector Detector) Option {
	return func(r *Runner) {
		r.detector = detector
	}
}

// WithAssistant configures the client used for chat turns.
func WithAssistant(client assistant.Client) Option {
	return func(r *Runner) {
		r.client = client
	}
}

// WithAnalyzer configures where command output is sent for background analysis.
func WithAnalyzer(analyzer Analyzer) Option {
	return func(r *Runner) {
		r.analyzer = analyzer
	}
}

// WithRecorder configures the session journal recorder.
func WithRecorder(recorder *Recorder) Option {
	return func(r *Runner) {
		r.recorder = recorder
	}
}

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.logger = logger
	}
}

// WithMetrics configures the metrics recorder.
func WithMetrics(m *observability.Metrics) Option {
	return func(r *Runner) {
		r.metrics = m
	}
}

// WithPrompt overrides DefaultPrompt.
func WithPrompt(prompt string) Option {
	return func(r *Runner) {
		r.prompt = prompt
	}
}
