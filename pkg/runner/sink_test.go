package runner

import (
	"bytes"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/aretw0/silvershell/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeLog records every Write call separately.
type writeLog struct {
	mu     sync.Mutex
	writes []string
}

func (w *writeLog) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.writes = append(w.writes, string(p))
	return len(p), nil
}

type tagStyler struct{}

func (tagStyler) Style(kind Kind, text string) string {
	return fmt.Sprintf("<%d>%s", kind, text)
}

func TestSink_ReplyFormat(t *testing.T) {
	out := &bytes.Buffer{}
	sink := NewSink(out)

	sink.Reply(ChatTag, "Never fade away.")

	assert.Equal(t, "\nJS >> Never fade away.\n", out.String())
}

func TestSink_DeliverAnalysis(t *testing.T) {
	out := &bytes.Buffer{}
	sink := NewSink(out)

	sink.Deliver(domain.AnalysisResult{Reply: "Port 80. Boring."})
	sink.Deliver(domain.AnalysisResult{Failure: "[API Error: quota]"})
	sink.Deliver(domain.AnalysisResult{})

	assert.Equal(t, "\nJS // analysis >> Port 80. Boring.\n\nJS // analysis >> [API Error: quota]\n", out.String())
}

func TestSink_Suggestions(t *testing.T) {
	out := &bytes.Buffer{}
	sink := NewSink(out)

	sink.Suggestions(nil)
	assert.Empty(t, out.String())

	sink.Suggestions(domain.SuggestionList{"whatweb TARGET", "nikto -h TARGET"})
	assert.Equal(t, SuggestionsHeader+"\nwhatweb TARGET\nnikto -h TARGET\n", out.String())
}

func TestSink_CommandOutputRenderer(t *testing.T) {
	out := &bytes.Buffer{}
	var rendered string
	sink := NewSink(out, WithRenderer(func(s string) (string, error) {
		rendered = s
		return "RENDERED\n\n", nil
	}))

	sink.CommandOutput("uid=0(root)\n")

	assert.Equal(t, "```bash\nuid=0(root)\n```", rendered)
	assert.Equal(t, "RENDERED\n", out.String())
}

func TestSink_CommandOutputRendererFailureFallsBack(t *testing.T) {
	out := &bytes.Buffer{}
	sink := NewSink(out, WithRenderer(func(s string) (string, error) {
		return "", assert.AnError
	}))

	sink.CommandOutput("raw")

	assert.Equal(t, "raw\n", out.String())
}

func TestSink_Styler(t *testing.T) {
	out := &bytes.Buffer{}
	sink := NewSink(out, WithStyler(tagStyler{}))

	sink.Emit(KindFarewell, FarewellMessage)
	sink.Prompt(DefaultPrompt)

	assert.Equal(t, fmt.Sprintf("<%d>%s\n<%d>%s", KindFarewell, FarewellMessage, KindPrompt, DefaultPrompt), out.String())
}

func TestSink_ConcurrentMessagesAreAtomic(t *testing.T) {
	log := &writeLog{}
	sink := NewSink(log)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				sink.Deliver(domain.AnalysisResult{Reply: fmt.Sprintf("analysis %d", i)})
			} else {
				sink.Suggestions(domain.SuggestionList{fmt.Sprintf("a-%d", i), fmt.Sprintf("b-%d", i)})
			}
		}(i)
	}
	wg.Wait()

	require.Len(t, log.writes, 50, "each message is a single write")
	for _, w := range log.writes {
		if strings.HasPrefix(w, SuggestionsHeader) {
			lines := strings.Split(strings.TrimSuffix(w, "\n"), "\n")
			require.Len(t, lines, 3)
			assert.Equal(t, strings.TrimPrefix(lines[1], "a-"), strings.TrimPrefix(lines[2], "b-"))
			continue
		}
		assert.True(t, strings.HasPrefix(w, "\nJS // analysis >> analysis "), "unexpected write %q", w)
	}
}
