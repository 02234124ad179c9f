package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/redis/go-redis/v9"
)

const redisLogPrefix = "audit:redis"

// DefaultStream is the Redis stream key used when none is configured.
const DefaultStream = "orchestrator:audit"

// RedisConfig describes the Redis connection for the stream sink.
type RedisConfig struct {
	Address  string
	Password string
	DB       int
	Stream   string
}

// RedisSink appends entries to a Redis stream with XADD. The stream is never trimmed.
type RedisSink struct {
	client *redis.Client
	stream string
}

// NewRedisSink connects to Redis and verifies the connection with PING.
func NewRedisSink(ctx context.Context, cfg RedisConfig) (*RedisSink, error) {
	if cfg.Address == "" {
		return nil, errors.New(redisLogPrefix + " - redis address is empty")
	}
	stream := cfg.Stream
	if stream == "" {
		stream = DefaultStream
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%s - connect to %s: %w", redisLogPrefix, cfg.Address, err)
	}
	slog.Info(fmt.Sprintf("%s - Audit stream ready", redisLogPrefix), "addr", cfg.Address, "stream", stream)
	return &RedisSink{client: client, stream: stream}, nil
}

// Stream returns the stream key.
func (s *RedisSink) Stream() string { return s.stream }

// Append adds e to the stream.
func (s *RedisSink) Append(ctx context.Context, e Entry) error {
	values, err := streamValues(e)
	if err != nil {
		return err
	}
	if err := s.client.XAdd(ctx, &redis.XAddArgs{Stream: s.stream, Values: values}).Err(); err != nil {
		return fmt.Errorf("%s - xadd %s: %w", redisLogPrefix, e.ID, err)
	}
	return nil
}

// Read returns the last count entries of the stream, oldest first.
func (s *RedisSink) Read(ctx context.Context, count int64) ([]Entry, error) {
	msgs, err := s.client.XRevRangeN(ctx, s.stream, "+", "-", count).Result()
	if err != nil {
		return nil, fmt.Errorf("%s - xrevrange: %w", redisLogPrefix, err)
	}
	slices.Reverse(msgs)
	out := make([]Entry, 0, len(msgs))
	for _, m := range msgs {
		raw, ok := m.Values["entry"].(string)
		if !ok {
			continue
		}
		var e Entry
		if err := json.Unmarshal([]byte(raw), &e); err != nil {
			return out, fmt.Errorf("%s - decode %s: %w", redisLogPrefix, m.ID, err)
		}
		out = append(out, e)
	}
	return out, nil
}

// Close closes the Redis client.
func (s *RedisSink) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Close()
}

// streamValues flattens an entry into stream fields. The full entry is kept
// as JSON under "entry"; the other fields allow filtering without decoding.
func streamValues(e Entry) (map[string]any, error) {
	raw, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("%s - encode entry %s: %w", redisLogPrefix, e.ID, err)
	}
	return map[string]any{
		"id":        e.ID,
		"timestamp": e.Timestamp,
		"agent":     e.Agent,
		"task":      e.Task,
		"ok":        fmt.Sprint(e.Result.OK),
		"entry":     string(raw),
	}, nil
}
