package ports

import (
	"context"
	"errors"

	"github.com/aretw0/silvershell/pkg/domain"
)

// ErrJournalClosed is returned by operations on a closed Journal.
var ErrJournalClosed = errors.New("journal is closed")

// Journal records the entries of interactive sessions.
// Implementations must be safe for concurrent use: background analyses append
// from their own goroutines while the loop appends command entries.
type Journal interface {
	// Append adds an entry to the end of the session's journal.
	Append(ctx context.Context, sessionID string, entry domain.Entry) error

	// List returns the session's entries in append order.
	// Returns domain.ErrSessionNotFound if the session has no entries.
	List(ctx context.Context, sessionID string) ([]domain.Entry, error)

	// Sessions returns the IDs of the sessions that have entries.
	Sessions(ctx context.Context) ([]string, error)

	// Close releases the backend. Further calls return ErrJournalClosed.
	Close() error
}
