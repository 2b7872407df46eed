package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/aretw0/silvershell/internal/config"
	"github.com/aretw0/silvershell/pkg/domain"
	"github.com/aretw0/silvershell/pkg/ports"
)

// HistoryOptions configures the history command.
type HistoryOptions struct {
	ConfigPath string
	SessionID  string
	JSON       bool
}

// RunHistory prints the recorded sessions, or one session's entries when
// opts.SessionID is set.
func RunHistory(ctx context.Context, opts HistoryOptions, w io.Writer) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return err
	}
	logger, logCloser, err := createLogger(cfg, false)
	if err != nil {
		return err
	}
	defer logCloser.Close()

	journal, err := openJournal(ctx, cfg.Journal, logger)
	if err != nil {
		return err
	}
	if journal == nil {
		return fmt.Errorf("no journal configured; set journal.backend to %q or %q", config.JournalFile, config.JournalRedis)
	}
	defer journal.Close()

	if opts.SessionID == "" {
		return printSessions(ctx, journal, w)
	}
	return printEntries(ctx, journal, opts.SessionID, opts.JSON, w)
}

func printSessions(ctx context.Context, journal ports.Journal, w io.Writer) error {
	sessions, err := journal.Sessions(ctx)
	if err != nil {
		return fmt.Errorf("error listing sessions: %w", err)
	}
	if len(sessions) == 0 {
		fmt.Fprintln(w, "No recorded sessions found.")
		return nil
	}
	sort.Strings(sessions)
	fmt.Fprintln(w, "Recorded Sessions:")
	for _, s := range sessions {
		fmt.Fprintln(w, "- "+s)
	}
	return nil
}

func printEntries(ctx context.Context, journal ports.Journal, sessionID string, asJSON bool, w io.Writer) error {
	entries, err := journal.List(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("error loading session '%s': %w", sessionID, err)
	}

	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	for _, e := range entries {
		fmt.Fprintf(w, "[%s] %s%s\n", e.Timestamp.Local().Format("2006-01-02 15:04:05"), e.Kind, status(e))
		if e.Input != "" {
			fmt.Fprintf(w, "  > %s\n", firstLine(e.Input))
		}
		if e.Output != "" {
			fmt.Fprintln(w, indent(strings.TrimRight(e.Output, "\n"), "  "))
		}
		if len(e.Suggestions) > 0 {
			fmt.Fprintf(w, "  suggestions: %s\n", strings.Join(e.Suggestions, " | "))
		}
	}
	return nil
}

func status(e domain.Entry) string {
	if e.Kind != domain.EntryBlocked && !e.Succeeded {
		return " (failed)"
	}
	return ""
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i] + " ..."
	}
	return s
}

func indent(s, prefix string) string {
	return prefix + strings.ReplaceAll(s, "\n", "\n"+prefix)
}
