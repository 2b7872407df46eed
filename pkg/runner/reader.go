package runner

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// ErrInterrupted is returned by a LineReader when the operator abandons the
// current line (Ctrl+C at a readline prompt). The loop treats it as an empty line.
var ErrInterrupted = errors.New("input interrupted")

// LineReader reads one operator line after showing prompt.
// It returns io.EOF when input is exhausted.
type LineReader interface {
	ReadLine(ctx context.Context, prompt string) (string, error)
	Close() error
}

// TextReader reads newline-terminated lines from any io.Reader.
// A single pump goroutine owns the underlying reader, so a cancelled
// ReadLine never loses or duplicates a line.
type TextReader struct {
	reader *bufio.Reader
	prompt io.Writer

	lines     chan inputResult
	startOnce sync.Once
}

type inputResult struct {
	text string
	err  error
}

// NewTextReader creates a reader over r (stdin when nil) that writes prompts to w.
// Pass the Sink as w so prompts never interleave with background output.
func NewTextReader(r io.Reader, w io.Writer) *TextReader {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = io.Discard
	}
	return &TextReader{
		reader: bufio.NewReader(r),
		prompt: w,
	}
}

func (t *TextReader) initPump() {
	t.startOnce.Do(func() {
		t.lines = make(chan inputResult)
		go t.pump()
	})
}

func (t *TextReader) pump() {
	for {
		text, err := t.reader.ReadString('\n')

		// If we got text (even with EOF), send it
		if text != "" {
			t.lines <- inputResult{text: text}
		}

		if err != nil {
			if err == io.EOF {
				close(t.lines)
				return
			}
			t.lines <- inputResult{err: err}
			// Backoff for non-fatal errors to prevent CPU spikes on persistent failure
			time.Sleep(50 * time.Millisecond)
		}
	}
}

// ReadLine writes prompt and waits for the next line or ctx cancellation.
// The line terminator is stripped; other whitespace is kept.
func (t *TextReader) ReadLine(ctx context.Context, prompt string) (string, error) {
	t.initPump()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
		if prompt != "" {
			_, _ = io.WriteString(t.prompt, prompt)
		}
	}

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res, ok := <-t.lines:
		if !ok {
			return "", io.EOF
		}
		if res.err != nil {
			return "", res.err
		}
		return strings.TrimRight(res.text, "\r\n"), nil
	}
}

// Close is a no-op; the pump exits when the source reaches EOF.
func (t *TextReader) Close() error {
	return nil
}
