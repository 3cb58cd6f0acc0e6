package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nudgekit-dev/nudgekit/internal/history"
)

const defaultPrefix = "nudgekit:"

// RedisStore implements Store on Redis. History documents are stored as one
// JSON array per session, matching the host's conversation format.
type RedisStore struct {
	client *redis.Client
	prefix string
	mu     sync.RWMutex
	closed bool
}

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	// Addr is the Redis server address (host:port).
	Addr string
	// Password is the Redis password (optional).
	Password string
	// DB is the Redis database number.
	DB int
	// Prefix is the key prefix for all store keys (default: "nudgekit:").
	Prefix string
	// PoolSize is the connection pool size (default: 10).
	PoolSize int
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(cfg RedisConfig) (*RedisStore, error) {
	if cfg.Addr == "" {
		return nil, errors.New("redis address is required")
	}

	prefix := cfg.Prefix
	if prefix == "" {
		prefix = defaultPrefix
	}

	poolSize := cfg.PoolSize
	if poolSize <= 0 {
		poolSize = 10
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: poolSize,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &RedisStore{client: client, prefix: prefix}, nil
}

// NewRedisStoreFromClient wraps an existing client. Useful for testing with
// miniredis.
func NewRedisStoreFromClient(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &RedisStore{client: client, prefix: prefix}
}

// Key helpers
func (s *RedisStore) sessionsKey() string {
	return s.prefix + "sessions"
}

func (s *RedisStore) activityKey(sessionID string) string {
	return s.prefix + "activity:" + sessionID
}

func (s *RedisStore) historyKey(sessionID string) string {
	return s.prefix + "history:" + sessionID
}

func (s *RedisStore) checkOpen() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrStoreClosed
	}
	return nil
}

// ListSessions returns the raw ids of all registered sessions.
func (s *RedisStore) ListSessions(ctx context.Context) ([]string, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	ids, err := s.client.SMembers(ctx, s.sessionsKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return ids, nil
}

// LastActivity returns the Unix-seconds timestamp of the session's latest
// message, or 0 when no activity is recorded.
func (s *RedisStore) LastActivity(ctx context.Context, sessionID string) (int64, error) {
	if err := s.checkOpen(); err != nil {
		return 0, err
	}

	ts, err := s.client.Get(ctx, s.activityKey(sessionID)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("get last activity: %w", err)
	}
	return ts, nil
}

// History returns the session's transcript. Missing and malformed documents
// both resolve to an empty transcript; malformed ones are logged.
func (s *RedisStore) History(ctx context.Context, sessionID string) (history.Transcript, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	data, err := s.client.Get(ctx, s.historyKey(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("get history: %w", err)
	}

	transcript, err := history.Parse(data)
	if err != nil {
		log.Printf("store: malformed history for session %s, treating as empty: %v", sessionID, err)
		return nil, nil
	}
	return transcript, nil
}

// RegisterSession adds a session id to the discovery index.
func (s *RedisStore) RegisterSession(ctx context.Context, sessionID string) error {
	if err := s.checkOpen(); err != nil {
		return err
	}

	if err := s.client.SAdd(ctx, s.sessionsKey(), sessionID).Err(); err != nil {
		return fmt.Errorf("register session: %w", err)
	}
	return nil
}

// AppendTurn appends a turn to the session's history document and advances
// the activity timestamp. Intended for hosts embedding the store and for
// test seeding; the nudge engine itself never writes.
func (s *RedisStore) AppendTurn(ctx context.Context, sessionID string, turn history.Turn) error {
	if err := s.checkOpen(); err != nil {
		return err
	}

	transcript, err := s.History(ctx, sessionID)
	if err != nil {
		return err
	}
	transcript = append(transcript, turn)

	data, err := json.Marshal(transcript)
	if err != nil {
		return fmt.Errorf("marshal history: %w", err)
	}

	ts := turn.Timestamp
	if ts == 0 {
		ts = time.Now().Unix()
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, s.historyKey(sessionID), data, 0)
	pipe.Set(ctx, s.activityKey(sessionID), ts, 0)
	pipe.SAdd(ctx, s.sessionsKey(), sessionID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("append turn: %w", err)
	}
	return nil
}

// Ping checks if the Redis connection is alive.
func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	return s.client.Ping(ctx).Err()
}

// Close releases the connection pool.
func (s *RedisStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.client.Close()
}
