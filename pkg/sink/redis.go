package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Sternrassler/servicenow-client/pkg/record"
	"github.com/redis/go-redis/v9"
)

// DefaultKeyPrefix prefixes the Redis list keys written by exports.
const DefaultKeyPrefix = "servicenow:export:"

// stagingSuffix names the list an export is written to before Commit.
const stagingSuffix = ":tmp"

// Redis writes records as JSON to a Redis list.
//
// Records are staged under Key()+":tmp" and only replace the list at Key()
// on Commit, so a failed export leaves the previous one intact.
type Redis struct {
	redis  *redis.Client
	key    string
	ttl    time.Duration
	staged int
}

// NewRedis creates a Redis sink writing to key. A positive ttl is applied
// to the list after every write.
func NewRedis(redisClient *redis.Client, key string, ttl time.Duration) *Redis {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	return &Redis{
		redis: redisClient,
		key:   key,
		ttl:   ttl,
	}
}

// Key returns the list key.
func (s *Redis) Key() string {
	return s.key
}

// StagingKey returns the key records are written to before Commit.
func (s *Redis) StagingKey() string {
	return s.key + stagingSuffix
}

// Reset discards staged records, including leftovers of an interrupted run.
// The committed list is not touched.
func (s *Redis) Reset(ctx context.Context) error {
	if err := s.redis.Del(ctx, s.StagingKey()).Err(); err != nil {
		sinkErrorsTotal.WithLabelValues(NameRedis).Inc()
		return fmt.Errorf("redis del: %w", err)
	}
	s.staged = 0
	return nil
}

// Write implements Sink.
func (s *Redis) Write(ctx context.Context, records []record.Record) error {
	if len(records) == 0 {
		return nil
	}

	values := make([]any, 0, len(records))
	for _, rec := range records {
		data, err := json.Marshal(rec)
		if err != nil {
			sinkErrorsTotal.WithLabelValues(NameRedis).Inc()
			return fmt.Errorf("marshal record: %w", err)
		}
		values = append(values, data)
	}

	staging := s.StagingKey()
	pipe := s.redis.Pipeline()
	pipe.RPush(ctx, staging, values...)
	if s.ttl > 0 {
		pipe.Expire(ctx, staging, s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		sinkErrorsTotal.WithLabelValues(NameRedis).Inc()
		return fmt.Errorf("store records in redis: %w", err)
	}

	s.staged += len(records)
	sinkRecordsTotal.WithLabelValues(NameRedis).Add(float64(len(records)))
	return nil
}

// Commit implements Sink. The staged list atomically replaces the list at
// Key(); an export without records leaves Key() empty.
func (s *Redis) Commit(ctx context.Context) error {
	var err error
	if s.staged == 0 {
		err = s.redis.Del(ctx, s.key).Err()
	} else {
		err = s.redis.Rename(ctx, s.StagingKey(), s.key).Err()
	}
	if err != nil {
		sinkErrorsTotal.WithLabelValues(NameRedis).Inc()
		return fmt.Errorf("commit redis export: %w", err)
	}
	s.staged = 0
	return nil
}

// Abort implements Sink. Staged records are dropped.
func (s *Redis) Abort(ctx context.Context) error {
	return s.Reset(ctx)
}

// Records reads back every committed record.
func (s *Redis) Records(ctx context.Context) ([]record.Record, error) {
	items, err := s.redis.LRange(ctx, s.key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis lrange: %w", err)
	}

	records := make([]record.Record, 0, len(items))
	for _, item := range items {
		var rec record.Record
		if err := json.Unmarshal([]byte(item), &rec); err != nil {
			return nil, fmt.Errorf("unmarshal record: %w", err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// Close implements Sink. The Redis client is owned by the caller.
func (s *Redis) Close() error {
	return nil
}
