package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/aretw0/silvershell/pkg/domain"
	"github.com/aretw0/silvershell/pkg/ports"
	backend "github.com/redis/go-redis/v9"
)

// DefaultPrefix namespaces every key written by the journal.
const DefaultPrefix = "silvershell:journal:"

// Journal implements ports.Journal using Redis.
// Each session is a list of JSON entries; an index ZSET scored by expiry
// tracks the live sessions.
type Journal struct {
	client     *backend.Client
	prefix     string
	ttl        time.Duration
	maxEntries int64
	closed     atomic.Bool
}

type Option func(*Journal)

// WithTTL sets the expiration of a session, refreshed on every append.
func WithTTL(ttl time.Duration) Option {
	return func(j *Journal) {
		j.ttl = ttl
	}
}

// WithPrefix sets the key prefix for sessions.
func WithPrefix(prefix string) Option {
	return func(j *Journal) {
		j.prefix = prefix
	}
}

// WithMaxEntries keeps only the newest n entries per session. Zero keeps all.
func WithMaxEntries(n int) Option {
	return func(j *Journal) {
		j.maxEntries = int64(n)
	}
}

// New creates a Redis journal with its own client.
func New(address, password string, db int, opts ...Option) *Journal {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a Redis journal from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Journal {
	j := &Journal{
		client: client,
		prefix: DefaultPrefix,
	}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

func (j *Journal) key(sessionID string) string {
	return j.prefix + sessionID
}

func (j *Journal) indexKey() string {
	return j.prefix + "index"
}

// Ping checks connectivity, used at startup to fail fast on a bad address.
func (j *Journal) Ping(ctx context.Context) error {
	if err := j.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to reach redis: %w", err)
	}
	return nil
}

// Append pushes the entry and refreshes trimming, expiry and the index in one pipeline.
func (j *Journal) Append(ctx context.Context, sessionID string, entry domain.Entry) error {
	if j.closed.Load() {
		return ports.ErrJournalClosed
	}
	entry.SessionID = sessionID

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal entry: %w", err)
	}

	pipe := j.client.Pipeline()
	pipe.RPush(ctx, j.key(sessionID), data)
	if j.maxEntries > 0 {
		pipe.LTrim(ctx, j.key(sessionID), -j.maxEntries, -1)
	}
	if j.ttl > 0 {
		pipe.Expire(ctx, j.key(sessionID), j.ttl)
	}

	// Score = Now + TTL. If TTL = 0, Score = far future.
	score := float64(time.Now().Add(j.ttl).Unix())
	if j.ttl == 0 {
		score = 4102444800 // 2100-01-01
	}
	pipe.ZAdd(ctx, j.indexKey(), backend.Z{
		Score:  score,
		Member: sessionID,
	})

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to append to redis: %w", err)
	}
	return nil
}

// List returns the session's entries in append order.
func (j *Journal) List(ctx context.Context, sessionID string) ([]domain.Entry, error) {
	if j.closed.Load() {
		return nil, ports.ErrJournalClosed
	}

	values, err := j.client.LRange(ctx, j.key(sessionID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read from redis: %w", err)
	}
	if len(values) == 0 {
		return nil, domain.ErrSessionNotFound
	}

	entries := make([]domain.Entry, 0, len(values))
	for i, val := range values {
		var entry domain.Entry
		if err := json.Unmarshal([]byte(val), &entry); err != nil {
			return nil, fmt.Errorf("failed to unmarshal entry %d: %w", i, err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// Sessions returns live sessions, pruning expired ones from the index first.
func (j *Journal) Sessions(ctx context.Context) ([]string, error) {
	if j.closed.Load() {
		return nil, ports.ErrJournalClosed
	}

	now := float64(time.Now().Unix())
	if err := j.client.ZRemRangeByScore(ctx, j.indexKey(), "-inf", fmt.Sprintf("%f", now)).Err(); err != nil {
		return nil, fmt.Errorf("failed to prune expired sessions: %w", err)
	}

	sessions, err := j.client.ZRange(ctx, j.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return sessions, nil
}

// Close closes the redis client.
func (j *Journal) Close() error {
	if j.closed.Swap(true) {
		return nil
	}
	return j.client.Close()
}
