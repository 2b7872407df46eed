package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/aretw0/silvershell/internal/config"
	"github.com/aretw0/silvershell/internal/presentation/tui"
	httpAdapter "github.com/aretw0/silvershell/pkg/adapters/http"
	"github.com/aretw0/silvershell/pkg/adapters/process"
	"github.com/aretw0/silvershell/pkg/assistant"
	"github.com/aretw0/silvershell/pkg/dispatch"
	"github.com/aretw0/silvershell/pkg/observability"
	"github.com/aretw0/silvershell/pkg/ports"
	"github.com/aretw0/silvershell/pkg/recon"
	"github.com/aretw0/silvershell/pkg/runner"
	"github.com/aretw0/silvershell/pkg/safety"
	"github.com/google/uuid"
	"golang.org/x/term"
)

// RunOptions contains all the configuration for the run command.
type RunOptions struct {
	ConfigPath  string
	Debug       bool
	MetricsAddr string
	SessionID   string
	NoColor     bool
	Version     string
}

// session holds everything one interactive run owns.
type session struct {
	runner     *runner.Runner
	sink       *runner.Sink
	dispatcher *dispatch.Dispatcher
	journal    ports.Journal
	metrics    *observability.Metrics
	gate       *safety.Gate
	rules      *recon.RuleSet
	sessionID  string
}

// Close releases the journal.
func (s *session) Close() error {
	if s.journal == nil {
		return nil
	}
	return s.journal.Close()
}

// RunSession loads configuration, wires the components and runs the
// interactive loop until the operator exits.
func RunSession(opts RunOptions) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return err
	}
	if err := cfg.RequireCredential(); err != nil {
		return err
	}

	logger, logCloser, err := createLogger(cfg, opts.Debug)
	if err != nil {
		return err
	}
	defer logCloser.Close()

	ctx := NewSignalContext(context.Background())
	defer ctx.Cancel()

	profile := tui.DetectProfile(opts.NoColor)
	var reader runner.LineReader
	var out io.Writer = os.Stdout
	if term.IsTerminal(int(os.Stdin.Fd())) {
		rl, err := runner.NewReadlineReader(runner.ReadlineConfig{
			Prompt:      runner.DefaultPrompt,
			HistoryFile: cfg.HistoryFile,
			Stdin:       os.Stdin,
			Stdout:      os.Stdout,
			Stderr:      os.Stderr,
		})
		if err != nil {
			return fmt.Errorf("failed to initialise terminal: %w", err)
		}
		reader = rl
		out = rl.Stdout()
	} else {
		reader = runner.NewTextReader(os.Stdin, os.Stdout)
	}
	defer reader.Close()

	sinkOpts := []runner.SinkOption{runner.WithStyler(tui.NewStyler(profile))}
	if !opts.NoColor {
		renderer, err := tui.NewRenderer()
		if err != nil {
			logger.Warn("markdown renderer unavailable", "err", err)
		} else {
			sinkOpts = append(sinkOpts, runner.WithRenderer(renderer))
		}
	}
	sink := runner.NewSink(out, sinkOpts...)

	s, err := newSession(ctx, cfg, opts, reader, sink, logger)
	if err != nil {
		return err
	}
	defer s.Close()

	metricsAddr := opts.MetricsAddr
	if metricsAddr == "" {
		metricsAddr = cfg.Metrics.Addr
	}
	if metricsAddr != "" {
		go func() {
			handler := httpAdapter.NewHandler(&httpAdapter.Server{
				Gate:    s.gate,
				Rules:   s.rules,
				Journal: s.journal,
				Metrics: s.metrics,
				Version: opts.Version,
				Logger:  logger,
			})
			if err := httpAdapter.Serve(ctx, metricsAddr, handler, logger); err != nil {
				logger.Error("metrics server failed", "err", err)
			}
		}()
	}

	tui.PrintBanner(sink, profile)
	if s.journal != nil {
		printSystemMessage(sink, "Session '%s' active.", s.sessionID)
	}

	err = s.runner.Run(ctx)
	if pending := s.dispatcher.Pending(); pending > 0 {
		logger.Debug("abandoning background analyses", "pending", pending)
	}
	if sig := ctx.Signal(); sig != nil {
		logger.Info("interrupted", "signal", sig.String())
	}
	return err
}

// newSession builds the component graph around an already configured reader and sink.
func newSession(ctx context.Context, cfg config.Config, opts RunOptions, reader runner.LineReader, sink *runner.Sink, logger *slog.Logger) (*session, error) {
	client, err := assistant.NewGeminiClient(assistant.GeminiConfig{
		APIKey:  cfg.APIKey,
		Model:   cfg.Assistant.Model,
		BaseURL: cfg.Assistant.BaseURL,
		Timeout: cfg.Assistant.Timeout,
		Logger:  logger,
	})
	if err != nil {
		if errors.Is(err, assistant.ErrMissingAPIKey) {
			return nil, config.ErrMissingCredential
		}
		return nil, err
	}

	rules, err := recon.LoadRules(cfg.RulesPath)
	if err != nil {
		return nil, err
	}

	journal, err := openJournal(ctx, cfg.Journal, logger)
	if err != nil {
		return nil, err
	}

	sessionID := opts.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	recorder := runner.NewRecorder(journal, sessionID, logger)
	metrics := observability.NewMetrics()

	gateOpts := []safety.Option{safety.WithLogger(logger)}
	if len(cfg.Denylist) > 0 {
		gateOpts = append(gateOpts, safety.WithDenylist(cfg.Denylist))
	}
	gate := safety.NewGate(runner.ReaderConfirmer(reader, sink), gateOpts...)

	execOpts := []process.Option{process.WithLogger(logger)}
	if cfg.Exec.Timeout > 0 {
		execOpts = append(execOpts, process.WithTimeout(cfg.Exec.Timeout))
	}
	if cfg.Exec.Dir != "" {
		execOpts = append(execOpts, process.WithBaseDir(cfg.Exec.Dir))
	}

	dispatcher := dispatch.New(client, sink,
		dispatch.WithTimeout(cfg.Assistant.Timeout),
		dispatch.WithMaxInFlight(cfg.Assistant.MaxInFlight),
		dispatch.WithQueueLimit(cfg.Assistant.QueueLimit),
		dispatch.WithLogger(logger),
		dispatch.WithMetrics(metrics),
		dispatch.WithCompletionHook(recorder.RecordAnalysis),
	)

	r := runner.NewRunner(reader, sink,
		runner.WithGate(gate),
		runner.WithExecutor(process.NewExecutor(execOpts...)),
		runner.WithDetector(rules),
		runner.WithAssistant(client),
		runner.WithAnalyzer(dispatcher),
		runner.WithRecorder(recorder),
		runner.WithLogger(logger),
		runner.WithMetrics(metrics),
	)

	logger.Debug("session ready",
		"session_id", sessionID,
		"journal", cfg.Journal.Backend,
		"rules", rules.Len(),
		"model", cfg.Assistant.Model,
	)

	return &session{
		runner:     r,
		sink:       sink,
		dispatcher: dispatcher,
		journal:    journal,
		metrics:    metrics,
		gate:       gate,
		rules:      rules,
		sessionID:  sessionID,
	}, nil
}
