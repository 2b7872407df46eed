// Package safety screens commands against a denylist of destructive operations
// before they reach the executor.
package safety

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/aretw0/silvershell/pkg/domain"
)

// DefaultDenylist holds the command prefixes that require explicit confirmation.
// Matching is prefix-based on the trimmed command, so "sudo rm -rf /" is not caught.
var DefaultDenylist = []string{
	"rm", "dd", "mkfs", "shutdown", "reboot", "poweroff",
	"mv /", "chmod -R", "chown -R", "wipe", "format",
}

// ConfirmQuestion is shown before reading the operator's answer.
const ConfirmQuestion = "⚠ DANGEROUS COMMAND DETECTED. Confirm (y/n)"

// Confirmer asks the operator a single yes/no question and returns the raw answer.
type Confirmer interface {
	Confirm(ctx context.Context, question string) (string, error)
}

// ConfirmerFunc adapts a function to the Confirmer interface.
type ConfirmerFunc func(ctx context.Context, question string) (string, error)

func (f ConfirmerFunc) Confirm(ctx context.Context, question string) (string, error) {
	return f(ctx, question)
}

// DenyAll is a Confirmer that never confirms. Used by non-interactive surfaces.
var DenyAll = ConfirmerFunc(func(ctx context.Context, question string) (string, error) {
	return "", nil
})

// Gate classifies commands as allowed or denied.
type Gate struct {
	denylist  []string
	confirmer Confirmer
	logger    *slog.Logger
}

// Option configures the Gate.
type Option func(*Gate)

// WithDenylist replaces the default denylist.
func WithDenylist(prefixes []string) Option {
	return func(g *Gate) {
		g.denylist = append([]string(nil), prefixes...)
	}
}

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Gate) {
		g.logger = logger
	}
}

// NewGate creates a Gate that asks confirmer about flagged commands.
// A nil confirmer behaves like DenyAll.
func NewGate(confirmer Confirmer, opts ...Option) *Gate {
	if confirmer == nil {
		confirmer = DenyAll
	}
	g := &Gate{
		denylist:  DefaultDenylist,
		confirmer: confirmer,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Match reports whether cmd starts with a denylisted prefix and which one.
// It never prompts.
func (g *Gate) Match(cmd domain.Command) (string, bool) {
	trimmed := strings.TrimSpace(string(cmd))
	for _, prefix := range g.denylist {
		if strings.HasPrefix(trimmed, prefix) {
			return prefix, true
		}
	}
	return "", false
}

// Evaluate returns the verdict for cmd. Flagged commands are allowed only when
// the confirmer answers with the affirmative token; read errors deny.
func (g *Gate) Evaluate(ctx context.Context, cmd domain.Command) domain.Verdict {
	prefix, flagged := g.Match(cmd)
	if !flagged {
		return domain.Allow(false, "")
	}

	answer, err := g.confirmer.Confirm(ctx, ConfirmQuestion)
	if err != nil {
		g.logger.Debug("confirmation failed", "command", string(cmd), "err", err)
		return domain.Deny(prefix)
	}
	if !IsAffirmative(answer) {
		g.logger.Info("command denied", "command", string(cmd), "prefix", prefix)
		return domain.Deny(prefix)
	}

	g.logger.Info("command confirmed", "command", string(cmd), "prefix", prefix)
	return domain.Allow(true, prefix)
}

// IsAffirmative reports whether answer is the affirmative token.
// Only the line terminator is stripped; surrounding spaces deny.
func IsAffirmative(answer string) bool {
	answer = strings.TrimRight(answer, "\r\n")
	return strings.ToLower(answer) == domain.AffirmativeToken
}
