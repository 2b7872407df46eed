package runner

import (
	"context"
	"errors"
	"io"

	"github.com/chzyer/readline"
)

// ReadlineReader is a LineReader backed by github.com/chzyer/readline, with
// line editing and a persistent history file.
type ReadlineReader struct {
	rl *readline.Instance
}

// ReadlineConfig configures NewReadlineReader.
type ReadlineConfig struct {
	Prompt      string
	HistoryFile string
	Stdin       io.ReadCloser
	Stdout      io.Writer
	Stderr      io.Writer
}

// NewReadlineReader creates a terminal line reader.
func NewReadlineReader(cfg ReadlineConfig) (*ReadlineReader, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:            cfg.Prompt,
		HistoryFile:       cfg.HistoryFile,
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
		Stdin:             cfg.Stdin,
		Stdout:            cfg.Stdout,
		Stderr:            cfg.Stderr,
	})
	if err != nil {
		return nil, err
	}
	return &ReadlineReader{rl: rl}, nil
}

// Stdout returns a writer that redraws the prompt after each write.
// Use it as the Sink's writer so background output does not clobber the line being edited.
func (r *ReadlineReader) Stdout() io.Writer {
	return r.rl.Stdout()
}

// ReadLine shows prompt and reads one line. Ctrl+C yields ErrInterrupted,
// Ctrl+D yields io.EOF.
func (r *ReadlineReader) ReadLine(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	r.rl.SetPrompt(prompt)

	type result struct {
		line string
		err  error
	}
	done := make(chan result, 1)
	go func() {
		line, err := r.rl.Readline()
		done <- result{line: line, err: err}
	}()

	select {
	case <-ctx.Done():
		// Closing the instance unblocks the pending Readline call.
		_ = r.rl.Close()
		return "", ctx.Err()
	case res := <-done:
		switch {
		case errors.Is(res.err, readline.ErrInterrupt):
			return "", ErrInterrupted
		case res.err != nil:
			return "", res.err
		}
		return res.line, nil
	}
}

// Close restores the terminal and flushes history.
func (r *ReadlineReader) Close() error {
	return r.rl.Close()
}
