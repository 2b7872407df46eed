package memory

import (
	"context"
	"sync"

	"github.com/aretw0/silvershell/pkg/domain"
	"github.com/aretw0/silvershell/pkg/ports"
)

// Journal implements ports.Journal in memory.
// Safe for concurrent use.
type Journal struct {
	data   map[string][]domain.Entry
	closed bool
	mu     sync.RWMutex
}

// NewJournal creates a new in-memory journal.
func NewJournal() *Journal {
	return &Journal{
		data: make(map[string][]domain.Entry),
	}
}

// Append stores a copy of the entry under the session.
func (j *Journal) Append(ctx context.Context, sessionID string, entry domain.Entry) error {
	entry.SessionID = sessionID
	entry.Suggestions = append(domain.SuggestionList(nil), entry.Suggestions...)

	j.mu.Lock()
	defer j.mu.Unlock()
	if j.closed {
		return ports.ErrJournalClosed
	}
	j.data[sessionID] = append(j.data[sessionID], entry)
	return nil
}

// List returns a copy of the session's entries so callers cannot mutate the journal.
func (j *Journal) List(ctx context.Context, sessionID string) ([]domain.Entry, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	if j.closed {
		return nil, ports.ErrJournalClosed
	}

	entries, ok := j.data[sessionID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return append([]domain.Entry(nil), entries...), nil
}

// Sessions returns the sessions with at least one entry.
func (j *Journal) Sessions(ctx context.Context) ([]string, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	if j.closed {
		return nil, ports.ErrJournalClosed
	}

	sessions := make([]string, 0, len(j.data))
	for id := range j.data {
		sessions = append(sessions, id)
	}
	return sessions, nil
}

// Close marks the journal closed and drops its entries.
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.closed = true
	j.data = nil
	return nil
}
