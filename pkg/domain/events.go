package domain

import "time"

// EntryKind defines the category of a journal entry.
type EntryKind string

const (
	EntryCommand  EntryKind = "command"
	EntryBlocked  EntryKind = "blocked"
	EntryChat     EntryKind = "chat"
	EntryAnalysis EntryKind = "analysis"
)

// Entry is one journal record of a session.
type Entry struct {
	ID          string         `json:"id"`
	SessionID   string         `json:"session_id"`
	Kind        EntryKind      `json:"kind"`
	Timestamp   time.Time      `json:"timestamp"`
	Input       string         `json:"input,omitempty"`
	Output      string         `json:"output,omitempty"`
	Succeeded   bool           `json:"succeeded"`
	Suggestions SuggestionList `json:"suggestions,omitempty"`
	Duration    time.Duration  `json:"duration,omitempty"`
}
