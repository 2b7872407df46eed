package runner

import (
	"context"

	"github.com/aretw0/silvershell/pkg/safety"
)

// ConfirmPrompt is shown while waiting for a confirmation answer.
const ConfirmPrompt = "> "

// ReaderConfirmer asks safety questions on the sink and reads the answer from
// the same LineReader the loop uses. The loop is blocked while it waits.
func ReaderConfirmer(reader LineReader, sink *Sink) safety.Confirmer {
	return safety.ConfirmerFunc(func(ctx context.Context, question string) (string, error) {
		sink.Emit(KindWarning, question)
		return reader.ReadLine(ctx, ConfirmPrompt)
	})
}
