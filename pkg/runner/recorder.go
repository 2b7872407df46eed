package runner

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/aretw0/silvershell/pkg/domain"
	"github.com/aretw0/silvershell/pkg/ports"
	"github.com/google/uuid"
)

// recordTimeout bounds a single journal append.
const recordTimeout = 5 * time.Second

// Recorder appends session outcomes to a Journal. A nil Recorder, or one
// without a journal, records nothing. Append failures are logged and dropped.
type Recorder struct {
	journal   ports.Journal
	sessionID string
	logger    *slog.Logger
}

// NewRecorder creates a Recorder for sessionID.
func NewRecorder(journal ports.Journal, sessionID string, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Recorder{journal: journal, sessionID: sessionID, logger: logger}
}

// SessionID returns the session entries are recorded under.
func (r *Recorder) SessionID() string {
	if r == nil {
		return ""
	}
	return r.sessionID
}

// Record stamps entry with an ID and timestamp when missing and appends it.
func (r *Recorder) Record(ctx context.Context, entry domain.Entry) {
	if r == nil || r.journal == nil {
		return
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	defer cancel()
	if err := r.journal.Append(ctx, r.sessionID, entry); err != nil {
		r.logger.Warn("journal append failed", "session_id", r.sessionID, "kind", entry.Kind, "err", err)
	}
}

// RecordAnalysis records a finished background analysis.
// It has the signature expected by dispatch.WithCompletionHook.
func (r *Recorder) RecordAnalysis(result domain.AnalysisResult) {
	r.Record(context.Background(), domain.Entry{
		ID:        result.Task.ID,
		Kind:      domain.EntryAnalysis,
		Input:     result.Task.Prompt,
		Output:    result.Text(),
		Succeeded: result.OK(),
		Duration:  result.Duration,
	})
}
