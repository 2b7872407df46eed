package runner

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/aretw0/silvershell/pkg/domain"
)

// Output tags prefixed to assistant replies.
const (
	ChatTag           = "JS >> "
	AnalysisTag       = "JS // analysis >> "
	SuggestionsHeader = "// Vibe Check (SilverShell Auto-Suggestions):"
	FarewellMessage   = "Get lost, samurai."
)

// Kind classifies a message so a Styler can colour it.
type Kind int

const (
	KindPlain Kind = iota
	KindPrompt
	KindCommandOutput
	KindSuggestionHeader
	KindSuggestion
	KindTag
	KindReply
	KindWarning
	KindError
	KindFarewell
)

// Styler decorates text for a terminal. Implementations must be pure.
type Styler interface {
	Style(kind Kind, text string) string
}

// ContentRenderer is a function that transforms the content before outputting it.
// This allows for TUI rendering (markdown to ANSI) without coupling the core package.
type ContentRenderer func(string) (string, error)

type plainStyler struct{}

func (plainStyler) Style(_ Kind, text string) string { return text }

// Sink is the only writer of operator-visible output. The loop and every
// background analysis share one Sink; each message is formatted completely and
// then written with a single Write while holding the lock, so concurrent
// messages never interleave.
type Sink struct {
	mu       sync.Mutex
	w        io.Writer
	styler   Styler
	renderer ContentRenderer
}

// SinkOption configures the Sink.
type SinkOption func(*Sink)

// WithStyler configures the terminal styler.
func WithStyler(styler Styler) SinkOption {
	return func(s *Sink) {
		if styler != nil {
			s.styler = styler
		}
	}
}

// WithRenderer configures the renderer used for command output.
func WithRenderer(renderer ContentRenderer) SinkOption {
	return func(s *Sink) {
		s.renderer = renderer
	}
}

// NewSink creates a Sink writing to w (stdout when nil).
func NewSink(w io.Writer, opts ...SinkOption) *Sink {
	if w == nil {
		w = os.Stdout
	}
	s := &Sink{w: w, styler: plainStyler{}}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Write implements io.Writer so prompts and readers share the lock.
func (s *Sink) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

func (s *Sink) write(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, _ = io.WriteString(s.w, msg)
}

// Emit writes text styled as kind, followed by a newline.
func (s *Sink) Emit(kind Kind, text string) {
	s.write(s.styler.Style(kind, text) + "\n")
}

// Emitf formats according to a format specifier and emits the result.
func (s *Sink) Emitf(kind Kind, format string, args ...any) {
	s.Emit(kind, fmt.Sprintf(format, args...))
}

// Prompt writes a prompt without a trailing newline.
func (s *Sink) Prompt(text string) {
	s.write(s.styler.Style(KindPrompt, text))
}

// Reply writes a tagged assistant reply preceded by a blank line.
func (s *Sink) Reply(tag, text string) {
	s.write("\n" + s.styler.Style(KindTag, strings.TrimSpace(tag)) + " " + s.styler.Style(KindReply, text) + "\n")
}

// CommandOutput writes command output, rendered as a fenced bash block when a
// renderer is configured.
func (s *Sink) CommandOutput(output string) {
	text := output
	if s.renderer != nil {
		if rendered, err := s.renderer(FenceBash(output)); err == nil {
			text = strings.TrimRight(rendered, "\n")
		}
	}
	s.write(s.styler.Style(KindCommandOutput, text) + "\n")
}

// Suggestions writes the suggestion header and one line per template.
// Nothing is written for an empty list.
func (s *Sink) Suggestions(list domain.SuggestionList) {
	if list.Empty() {
		return
	}
	var b strings.Builder
	b.WriteString(s.styler.Style(KindSuggestionHeader, SuggestionsHeader))
	b.WriteByte('\n')
	for _, item := range list {
		b.WriteString(s.styler.Style(KindSuggestion, item))
		b.WriteByte('\n')
	}
	s.write(b.String())
}

// Deliver writes a finished background analysis. It satisfies dispatch.Sink.
func (s *Sink) Deliver(result domain.AnalysisResult) {
	if result.Text() == "" {
		return
	}
	s.Reply(AnalysisTag, result.Text())
}

// FenceBash wraps text in a fenced bash code block.
func FenceBash(text string) string {
	return "```bash\n" + strings.TrimRight(text, "\n") + "\n```"
}
