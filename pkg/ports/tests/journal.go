package tests

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/silvershell/pkg/domain"
	"github.com/aretw0/silvershell/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// JournalContractTest is a reusable suite that verifies an adapter complies with ports.Journal.
// The journal must be empty and open; the suite does not close it.
func JournalContractTest(t *testing.T, journal ports.Journal) {
	t.Helper()
	ctx := context.Background()
	sessionID := "contract-" + time.Now().Format("20060102150405.000000000")

	t.Run("Append and List", func(t *testing.T) {
		first := domain.Entry{
			ID:        "1",
			Kind:      domain.EntryCommand,
			Timestamp: time.Now().UTC().Truncate(time.Millisecond),
			Input:     "nmap -A 10.0.0.1",
			Output:    "80/tcp open http nginx",
			Succeeded: true,
			Suggestions: domain.SuggestionList{
				"gobuster dir -u http://TARGET -w /usr/share/wordlists/dirb/common.txt",
			},
			Duration: 1500 * time.Millisecond,
		}
		second := domain.Entry{
			ID:        "2",
			Kind:      domain.EntryAnalysis,
			Timestamp: first.Timestamp.Add(time.Second),
			Output:    "Nginx. Cute.",
			Succeeded: true,
		}

		require.NoError(t, journal.Append(ctx, sessionID, first))
		require.NoError(t, journal.Append(ctx, sessionID, second))

		entries, err := journal.List(ctx, sessionID)
		require.NoError(t, err)
		require.Len(t, entries, 2)

		assert.Equal(t, "1", entries[0].ID)
		assert.Equal(t, sessionID, entries[0].SessionID, "Append stamps the session ID")
		assert.Equal(t, domain.EntryCommand, entries[0].Kind)
		assert.Equal(t, first.Input, entries[0].Input)
		assert.Equal(t, first.Suggestions, entries[0].Suggestions)
		assert.Equal(t, first.Duration, entries[0].Duration)
		assert.True(t, first.Timestamp.Equal(entries[0].Timestamp))

		assert.Equal(t, "2", entries[1].ID)
		assert.Equal(t, domain.EntryAnalysis, entries[1].Kind)
	})

	t.Run("List Non-Existent", func(t *testing.T) {
		_, err := journal.List(ctx, "missing-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Sessions", func(t *testing.T) {
		other := sessionID + "-other"
		require.NoError(t, journal.Append(ctx, other, domain.Entry{ID: "x", Kind: domain.EntryChat}))

		sessions, err := journal.Sessions(ctx)
		require.NoError(t, err)
		assert.Contains(t, sessions, sessionID)
		assert.Contains(t, sessions, other)
	})

	t.Run("Concurrent Appends", func(t *testing.T) {
		concurrent := sessionID + "-concurrent"
		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				assert.NoError(t, journal.Append(ctx, concurrent, domain.Entry{
					ID:   fmt.Sprintf("c-%d", i),
					Kind: domain.EntryAnalysis,
				}))
			}(i)
		}
		wg.Wait()

		entries, err := journal.List(ctx, concurrent)
		require.NoError(t, err)
		assert.Len(t, entries, 20)
	})
}

// ClosedJournalContractTest verifies that a closed journal rejects further use.
func ClosedJournalContractTest(t *testing.T, journal ports.Journal) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, journal.Close())

	err := journal.Append(ctx, "s", domain.Entry{ID: "1", Kind: domain.EntryChat})
	assert.ErrorIs(t, err, ports.ErrJournalClosed)

	_, err = journal.List(ctx, "s")
	assert.ErrorIs(t, err, ports.ErrJournalClosed)
}
