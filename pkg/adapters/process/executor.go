package process

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/aretw0/silvershell/pkg/domain"
	"github.com/kballard/go-shellquote"
)

// DefaultWaitDelay bounds how long Wait blocks on pipes held open by orphaned
// grandchildren after the command itself has exited or been killed.
const DefaultWaitDelay = 2 * time.Second

// Executor runs operator commands as direct child processes.
// Commands are split with POSIX shell-word rules but never handed to a shell:
// pipes, redirects, globs and variables are passed through as literal arguments.
type Executor struct {
	baseDir string
	timeout time.Duration
	env     []string
	logger  *slog.Logger
}

// Option configures the Executor.
type Option func(*Executor)

// WithBaseDir sets the working directory for executed processes.
func WithBaseDir(dir string) Option {
	return func(e *Executor) {
		e.baseDir = dir
	}
}

// WithTimeout bounds each command's run time. Zero disables the bound.
func WithTimeout(timeout time.Duration) Option {
	return func(e *Executor) {
		e.timeout = timeout
	}
}

// WithEnv appends KEY=VALUE pairs to the inherited environment.
func WithEnv(env ...string) Option {
	return func(e *Executor) {
		e.env = append(e.env, env...)
	}
}

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Executor) {
		e.logger = logger
	}
}

// NewExecutor creates a new Executor.
func NewExecutor(opts ...Option) *Executor {
	e := &Executor{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Tokenize splits a command line into argv honouring quotes and backslash escapes.
func Tokenize(cmd string) ([]string, error) {
	args, err := shellquote.Split(cmd)
	if err != nil {
		return nil, err
	}
	if len(args) == 0 {
		return nil, domain.ErrEmptyCommand
	}
	return args, nil
}

// Execute runs cmd and waits for it. Every failure is folded into the returned
// result; Execute never returns an error and never panics on bad input.
func (e *Executor) Execute(ctx context.Context, cmd domain.Command) domain.ExecutionResult {
	start := time.Now()
	result := domain.ExecutionResult{Command: cmd}

	args, err := Tokenize(string(cmd))
	if err != nil {
		return e.finish(spawnFailure(result, err), start)
	}

	path, err := exec.LookPath(args[0])
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
			result.Failure = domain.FailureProgramNotFound
			result.ErrorDetail = err.Error()
			result.Output = fmt.Sprintf("Err: Command not found: '%s'", args[0])
			result.ExitCode = -1
			return e.finish(result, start)
		}
		return e.finish(spawnFailure(result, err), start)
	}

	runCtx := ctx
	if e.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	proc := exec.CommandContext(runCtx, path, args[1:]...)
	proc.Args[0] = args[0]
	proc.Dir = e.baseDir
	proc.WaitDelay = DefaultWaitDelay
	if len(e.env) > 0 {
		proc.Env = append(proc.Environ(), e.env...)
	}

	// Same *bytes.Buffer for both streams: os/exec serialises the writes.
	var combined bytes.Buffer
	proc.Stdout = &combined
	proc.Stderr = &combined

	err = proc.Run()
	output := combined.String()

	if err == nil {
		result.Output = output
		result.Succeeded = true
		return e.finish(result, start)
	}

	if runCtx.Err() != nil {
		result.ExitCode = -1
		failed := spawnFailure(result, fmt.Errorf("%w: %v", runCtx.Err(), err))
		failed.Output = joinOutput(output, failed.Output)
		return e.finish(failed, start)
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		result.ExitCode = exitErr.ExitCode()
		if strings.TrimSpace(output) != "" {
			// A failing exit status with output is still a usable result.
			result.Output = output
			result.Succeeded = true
			result.ErrorDetail = err.Error()
			return e.finish(result, start)
		}
	}

	return e.finish(spawnFailure(result, err), start)
}

func (e *Executor) finish(result domain.ExecutionResult, start time.Time) domain.ExecutionResult {
	result.Duration = time.Since(start)
	e.logger.Debug("command finished",
		"command", string(result.Command),
		"succeeded", result.Succeeded,
		"failure", string(result.Failure),
		"exit_code", result.ExitCode,
		"duration", result.Duration,
	)
	return result
}

func spawnFailure(result domain.ExecutionResult, err error) domain.ExecutionResult {
	result.Succeeded = false
	result.Failure = domain.FailureSpawnOrRuntime
	result.ErrorDetail = err.Error()
	result.Output = fmt.Sprintf("Err: Execution failed: %v", err)
	if result.ExitCode == 0 {
		result.ExitCode = -1
	}
	return result
}

func joinOutput(partial, tail string) string {
	if partial == "" {
		return tail
	}
	if !strings.HasSuffix(partial, "\n") {
		partial += "\n"
	}
	return partial + tail
}
