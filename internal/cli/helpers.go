package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/aretw0/silvershell/internal/config"
	"github.com/aretw0/silvershell/internal/logging"
	"github.com/aretw0/silvershell/pkg/adapters/file"
	"github.com/aretw0/silvershell/pkg/adapters/memory"
	"github.com/aretw0/silvershell/pkg/adapters/redis"
	"github.com/aretw0/silvershell/pkg/persistence/middleware"
	"github.com/aretw0/silvershell/pkg/ports"
)

// SignalContext wraps a context and captures the signal that cancelled it.
type SignalContext struct {
	context.Context
	Cancel func()
	start  sync.Once
	stop   sync.Once
	sigCh  chan os.Signal
	sigVal os.Signal
	mu     sync.Mutex
}

// NewSignalContext creates a context that is cancelled on SIGINT or SIGTERM.
// It acts as a drop-in replacement for signal.NotifyContext but allows retrieving the signal.
func NewSignalContext(parent context.Context) *SignalContext {
	ctx, cancel := context.WithCancel(parent)
	sc := &SignalContext{
		Context: ctx,
		Cancel:  cancel,
		sigCh:   make(chan os.Signal, 1),
	}

	sc.start.Do(func() {
		signal.Notify(sc.sigCh, os.Interrupt, syscall.SIGTERM)
		go func() {
			select {
			case sig := <-sc.sigCh:
				sc.mu.Lock()
				sc.sigVal = sig
				sc.mu.Unlock()
				sc.Cancel()
			case <-sc.Context.Done():
			}
			sc.stop.Do(func() {
				signal.Stop(sc.sigCh)
			})
		}()
	})

	return sc
}

// Signal returns the signal that caused the context to be cancelled, or nil.
func (sc *SignalContext) Signal() os.Signal {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.sigVal
}

// printSystemMessage prints a standardized system message.
func printSystemMessage(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, ">>> %s\n", fmt.Sprintf(format, args...))
}

// createLogger configures the application logger. The --debug flag and the
// log.debug setting are equivalent.
func createLogger(cfg config.Config, debug bool) (*slog.Logger, io.Closer, error) {
	return logging.Open(debug || cfg.Log.Debug, cfg.Log.File)
}

// openJournal builds the journal selected by cfg.Backend, wrapped in the
// configured redaction and encryption middleware. It returns nil for the
// "none" backend.
func openJournal(ctx context.Context, cfg config.JournalConfig, logger *slog.Logger) (ports.Journal, error) {
	mws, err := journalMiddleware(cfg)
	if err != nil {
		return nil, err
	}
	journal, err := openBackend(ctx, cfg, logger)
	if err != nil || journal == nil {
		return journal, err
	}
	return middleware.Chain(journal, mws...), nil
}

func journalMiddleware(cfg config.JournalConfig) ([]middleware.Middleware, error) {
	var mws []middleware.Middleware
	if cfg.Redact {
		patterns := cfg.RedactPatterns
		if len(patterns) == 0 {
			patterns = middleware.DefaultRedactPatterns
		}
		redact, err := middleware.NewRedactMiddleware(patterns)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", config.ErrInvalidConfig, err)
		}
		mws = append(mws, redact)
	}
	if cfg.EncryptionKey != "" {
		active, err := middleware.DecodeKey(cfg.EncryptionKey)
		if err != nil {
			return nil, fmt.Errorf("%w: journal.encryption_key: %v", config.ErrInvalidConfig, err)
		}
		encCfg := middleware.EncryptionConfig{ActiveKey: active}
		for _, k := range cfg.FallbackKeys {
			key, err := middleware.DecodeKey(k)
			if err != nil {
				return nil, fmt.Errorf("%w: journal.fallback_keys: %v", config.ErrInvalidConfig, err)
			}
			encCfg.FallbackKeys = append(encCfg.FallbackKeys, key)
		}
		encrypt, err := middleware.NewEncryptionMiddleware(encCfg)
		if err != nil {
			return nil, err
		}
		mws = append(mws, encrypt)
	}
	return mws, nil
}

func openBackend(ctx context.Context, cfg config.JournalConfig, logger *slog.Logger) (ports.Journal, error) {
	switch cfg.Backend {
	case "", config.JournalNone:
		return nil, nil
	case config.JournalMemory:
		return memory.NewJournal(), nil
	case config.JournalFile:
		return file.New(cfg.Path), nil
	case config.JournalRedis:
		var opts []redis.Option
		if cfg.TTL > 0 {
			opts = append(opts, redis.WithTTL(cfg.TTL))
		}
		if cfg.MaxEntries > 0 {
			opts = append(opts, redis.WithMaxEntries(cfg.MaxEntries))
		}
		journal := redis.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, opts...)
		if err := journal.Ping(ctx); err != nil {
			_ = journal.Close()
			return nil, fmt.Errorf("redis journal unavailable at %s: %w", cfg.RedisAddr, err)
		}
		logger.Debug("redis journal connected", "address", cfg.RedisAddr)
		return journal, nil
	default:
		return nil, fmt.Errorf("%w: unknown journal backend %q", config.ErrInvalidConfig, cfg.Backend)
	}
}
