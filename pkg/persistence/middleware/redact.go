package middleware

import (
	"context"
	"fmt"
	"regexp"

	"github.com/aretw0/silvershell/pkg/domain"
	"github.com/aretw0/silvershell/pkg/ports"
)

// Mask replaces every redacted match.
const Mask = "***"

// DefaultRedactPatterns catch credentials commonly typed on a command line or
// echoed by recon tools. A first capture group, when present, is kept.
var DefaultRedactPatterns = []string{
	`(?i)((?:password|passwd|pwd|secret|token|api[_-]?key)\s*[=:]\s*)\S+`,
	`(?i)(authorization:\s*(?:bearer|basic)\s+)\S+`,
	`(?i)(--password[= ])\S+`,
	`AIza[0-9A-Za-z_\-]{35}`,
}

type redactMiddleware struct {
	next     ports.Journal
	patterns []*regexp.Regexp
}

// NewRedactMiddleware creates a middleware that masks secrets in entry input,
// output and suggestions before they are stored. Reads are passed through.
func NewRedactMiddleware(patternStrings []string) (Middleware, error) {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid redact pattern %q: %w", p, err)
		}
		patterns[i] = re
	}
	return func(next ports.Journal) ports.Journal {
		return &redactMiddleware{next: next, patterns: patterns}
	}, nil
}

func (m *redactMiddleware) Append(ctx context.Context, sessionID string, entry domain.Entry) error {
	// entry is a copy; only the suggestion slice is shared with the caller.
	entry.Input = m.mask(entry.Input)
	entry.Output = m.mask(entry.Output)
	if len(entry.Suggestions) > 0 {
		masked := make(domain.SuggestionList, len(entry.Suggestions))
		for i, s := range entry.Suggestions {
			masked[i] = m.mask(s)
		}
		entry.Suggestions = masked
	}
	return m.next.Append(ctx, sessionID, entry)
}

func (m *redactMiddleware) List(ctx context.Context, sessionID string) ([]domain.Entry, error) {
	return m.next.List(ctx, sessionID)
}

func (m *redactMiddleware) Sessions(ctx context.Context) ([]string, error) {
	return m.next.Sessions(ctx)
}

func (m *redactMiddleware) Close() error {
	return m.next.Close()
}

func (m *redactMiddleware) mask(s string) string {
	if s == "" {
		return s
	}
	for _, p := range m.patterns {
		if p.NumSubexp() > 0 {
			s = p.ReplaceAllString(s, "${1}"+Mask)
		} else {
			s = p.ReplaceAllLiteralString(s, Mask)
		}
	}
	return s
}
