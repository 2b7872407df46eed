package file

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/aretw0/silvershell/pkg/domain"
	"github.com/aretw0/silvershell/pkg/ports"
)

// ErrInvalidSessionID is returned for session IDs that are empty or would
// escape the journal directory.
var ErrInvalidSessionID = errors.New("invalid session ID")

const journalExt = ".jsonl"

// Journal implements ports.Journal on the local filesystem.
// Each session is one JSON Lines file in BasePath; entries are appended and
// never rewritten.
type Journal struct {
	BasePath string

	mu     sync.Mutex
	closed bool
}

// New creates a Journal rooted at basePath.
// If basePath is empty, it defaults to ".silvershell/journal".
func New(basePath string) *Journal {
	if basePath == "" {
		basePath = filepath.Join(".silvershell", "journal")
	}
	return &Journal{BasePath: basePath}
}

func (j *Journal) path(sessionID string) (string, error) {
	if sessionID == "" || strings.ContainsAny(sessionID, `/\`) || sessionID == "." || sessionID == ".." {
		return "", fmt.Errorf("%w: %q", ErrInvalidSessionID, sessionID)
	}
	return filepath.Join(j.BasePath, sessionID+journalExt), nil
}

// Append writes the entry as one line and fsyncs the file.
func (j *Journal) Append(ctx context.Context, sessionID string, entry domain.Entry) error {
	path, err := j.path(sessionID)
	if err != nil {
		return err
	}
	entry.SessionID = sessionID

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal entry: %w", err)
	}
	data = append(data, '\n')

	j.mu.Lock()
	defer j.mu.Unlock()
	if j.closed {
		return ports.ErrJournalClosed
	}

	if err := os.MkdirAll(j.BasePath, 0755); err != nil {
		return fmt.Errorf("failed to ensure journal directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open journal file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("failed to append entry: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("failed to fsync journal file: %w", err)
	}
	return nil
}

// List reads the session file line by line.
func (j *Journal) List(ctx context.Context, sessionID string) ([]domain.Entry, error) {
	path, err := j.path(sessionID)
	if err != nil {
		return nil, err
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	if j.closed {
		return nil, ports.ErrJournalClosed
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to open journal file: %w", err)
	}
	defer f.Close()

	var entries []domain.Entry
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for line := 1; scanner.Scan(); line++ {
		if len(strings.TrimSpace(scanner.Text())) == 0 {
			continue
		}
		var entry domain.Entry
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			return nil, fmt.Errorf("failed to unmarshal entry at line %d: %w", line, err)
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read journal file: %w", err)
	}
	if len(entries) == 0 {
		return nil, domain.ErrSessionNotFound
	}
	return entries, nil
}

// Sessions lists the journal files in BasePath.
func (j *Journal) Sessions(ctx context.Context) ([]string, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.closed {
		return nil, ports.ErrJournalClosed
	}

	entries, err := os.ReadDir(j.BasePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	var sessions []string
	for _, entry := range entries {
		if !entry.IsDir() && filepath.Ext(entry.Name()) == journalExt {
			sessions = append(sessions, strings.TrimSuffix(entry.Name(), journalExt))
		}
	}
	return sessions, nil
}

// Close marks the journal closed. Files are opened per call, so nothing else is released.
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.closed = true
	return nil
}
