package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/aretw0/silvershell/internal/config"
	httpAdapter "github.com/aretw0/silvershell/pkg/adapters/http"
	"github.com/aretw0/silvershell/pkg/adapters/mcp"
	"github.com/aretw0/silvershell/pkg/observability"
	"github.com/aretw0/silvershell/pkg/recon"
	"github.com/aretw0/silvershell/pkg/safety"
)

// Supported MCP transports.
const (
	TransportStdio = "stdio"
	TransportSSE   = "sse"
)

// ServeOptions configures the serve and mcp commands.
type ServeOptions struct {
	ConfigPath string
	Debug      bool
	Addr       string
	Transport  string
	Port       int
	Version    string
}

// newScreeningGate returns a gate that never asks; the servers only use Match.
func newScreeningGate(cfg config.Config, logger *slog.Logger) *safety.Gate {
	opts := []safety.Option{safety.WithLogger(logger)}
	if len(cfg.Denylist) > 0 {
		opts = append(opts, safety.WithDenylist(cfg.Denylist))
	}
	return safety.NewGate(safety.DenyAll, opts...)
}

// RunServe exposes the safety gate, the recon detector, metrics and the
// journal over HTTP until interrupted.
func RunServe(opts ServeOptions, stdout io.Writer) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return err
	}
	logger, logCloser, err := createLogger(cfg, opts.Debug)
	if err != nil {
		return err
	}
	defer logCloser.Close()

	ctx := NewSignalContext(context.Background())
	defer ctx.Cancel()

	rules, err := recon.LoadRules(cfg.RulesPath)
	if err != nil {
		return err
	}
	journal, err := openJournal(ctx, cfg.Journal, logger)
	if err != nil {
		return err
	}
	if journal != nil {
		defer journal.Close()
	}

	handler := httpAdapter.NewHandler(&httpAdapter.Server{
		Gate:    newScreeningGate(cfg, logger),
		Rules:   rules,
		Journal: journal,
		Metrics: observability.NewMetrics(),
		Version: opts.Version,
		Logger:  logger,
	})

	printSystemMessage(stdout, "SilverShell API listening on %s", opts.Addr)
	if err := httpAdapter.Serve(ctx, opts.Addr, handler, logger); err != nil {
		return err
	}
	printSystemMessage(stdout, "SilverShell API stopped gracefully")
	return nil
}

// RunMCP serves the detect_recon and check_command tools to agents.
func RunMCP(opts ServeOptions) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return err
	}
	// Stdout carries JSON-RPC, so diagnostics stay on stderr or in the log file.
	logger, logCloser, err := createLogger(cfg, opts.Debug)
	if err != nil {
		return err
	}
	defer logCloser.Close()

	rules, err := recon.LoadRules(cfg.RulesPath)
	if err != nil {
		return err
	}
	gate := newScreeningGate(cfg, logger)

	denylist := cfg.Denylist
	if len(denylist) == 0 {
		denylist = safety.DefaultDenylist
	}
	srv := mcp.NewServer(gate, rules, opts.Version, mcp.WithLogger(logger), mcp.WithDenylist(denylist))

	switch opts.Transport {
	case "", TransportStdio:
		logger.Info("starting MCP server", "transport", TransportStdio)
		return srv.ServeStdio()
	case TransportSSE:
		ctx := NewSignalContext(context.Background())
		defer ctx.Cancel()
		logger.Info("starting MCP server", "transport", TransportSSE, "port", opts.Port)
		return srv.ServeSSE(ctx, opts.Port)
	default:
		return fmt.Errorf("unknown transport: %s. Supported: %s, %s", opts.Transport, TransportStdio, TransportSSE)
	}
}
