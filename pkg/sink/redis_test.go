package sink

import (
	"context"
	"testing"
	"time"

	"github.com/Sternrassler/servicenow-client/pkg/record"
	"github.com/redis/go-redis/v9"
)

// setupTestRedis creates a test Redis client.
// Tests are skipped when no Redis is listening on localhost; the
// integration suite covers the same paths against a container.
func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   15, // Use a separate DB for tests
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available for testing: %v", err)
	}

	// Flush test DB
	if err := client.FlushDB(ctx).Err(); err != nil {
		t.Fatalf("Failed to flush test DB: %v", err)
	}

	t.Cleanup(func() {
		client.FlushDB(context.Background())
		client.Close()
	})

	return client
}

func TestNewRedis(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
	defer client.Close()

	s := NewRedis(client, DefaultKeyPrefix+"hardware", 0)
	if s == nil {
		t.Fatal("NewRedis returned nil")
	}
	if s.redis != client {
		t.Error("Sink redis client not set correctly")
	}
	if s.Key() != "servicenow:export:hardware" {
		t.Errorf("Key() = %q", s.Key())
	}
	if s.StagingKey() != "servicenow:export:hardware:tmp" {
		t.Errorf("StagingKey() = %q", s.StagingKey())
	}
}

func TestNewRedis_Panic(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("NewRedis should panic with nil redis client")
		}
	}()
	NewRedis(nil, "key", 0)
}

// writePages stages pages in order.
func writePages(t *testing.T, s *Redis, pages ...[]record.Record) {
	t.Helper()
	for _, page := range pages {
		if err := s.Write(context.Background(), page); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
	}
}

func children(t *testing.T, s *Redis) []string {
	t.Helper()
	got, err := s.Records(context.Background())
	if err != nil {
		t.Fatalf("Records failed: %v", err)
	}
	out := make([]string, 0, len(got))
	for _, rec := range got {
		out = append(out, rec.String("child"))
	}
	return out
}

func TestRedis_WriteAndCommit(t *testing.T) {
	client := setupTestRedis(t)
	s := NewRedis(client, DefaultKeyPrefix+"test", 0)
	ctx := context.Background()

	writePages(t, s,
		[]record.Record{{"child": "a"}, {"child": "b"}},
		[]record.Record{{"child": "c"}},
	)

	if got := children(t, s); len(got) != 0 {
		t.Errorf("Staged records should not be visible before commit, got %v", got)
	}

	if err := s.Commit(ctx); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}

	got := children(t, s)
	if len(got) != 3 || got[0] != "a" || got[1] != "b" || got[2] != "c" {
		t.Errorf("Records = %v, want [a b c]", got)
	}

	exists, err := client.Exists(ctx, s.StagingKey()).Result()
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if exists != 0 {
		t.Error("Staging key should be gone after commit")
	}
}

func TestRedis_CommitReplacesPreviousExport(t *testing.T) {
	client := setupTestRedis(t)
	ctx := context.Background()

	first := NewRedis(client, DefaultKeyPrefix+"replace", 0)
	writePages(t, first, []record.Record{{"child": "old1"}, {"child": "old2"}})
	if err := first.Commit(ctx); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}

	second := NewRedis(client, DefaultKeyPrefix+"replace", 0)
	writePages(t, second, []record.Record{{"child": "new"}})
	if err := second.Commit(ctx); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}

	got := children(t, second)
	if len(got) != 1 || got[0] != "new" {
		t.Errorf("Records = %v, want [new]", got)
	}
}

func TestRedis_AbortKeepsPreviousExport(t *testing.T) {
	client := setupTestRedis(t)
	ctx := context.Background()

	previous := NewRedis(client, DefaultKeyPrefix+"abort", 0)
	writePages(t, previous, []record.Record{{"child": "old1"}, {"child": "old2"}})
	if err := previous.Commit(ctx); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}

	// The next export fails after its first page.
	failed := NewRedis(client, DefaultKeyPrefix+"abort", 0)
	if err := failed.Reset(ctx); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	writePages(t, failed, []record.Record{{"child": "partial"}})
	if err := failed.Abort(ctx); err != nil {
		t.Fatalf("Abort failed: %v", err)
	}

	got := children(t, failed)
	if len(got) != 2 || got[0] != "old1" || got[1] != "old2" {
		t.Errorf("Records = %v, want [old1 old2]", got)
	}

	exists, err := client.Exists(ctx, failed.StagingKey()).Result()
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if exists != 0 {
		t.Error("Abort should drop the staging key")
	}
}

func TestRedis_ResetDropsLeftoverStaging(t *testing.T) {
	client := setupTestRedis(t)
	ctx := context.Background()
	s := NewRedis(client, DefaultKeyPrefix+"leftover", 0)

	if err := client.RPush(ctx, s.StagingKey(), `{"child":"crashed"}`).Err(); err != nil {
		t.Fatalf("RPush failed: %v", err)
	}
	if err := s.Reset(ctx); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	writePages(t, s, []record.Record{{"child": "fresh"}})
	if err := s.Commit(ctx); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}

	got := children(t, s)
	if len(got) != 1 || got[0] != "fresh" {
		t.Errorf("Records = %v, want [fresh]", got)
	}
}

func TestRedis_EmptyCommitClearsExport(t *testing.T) {
	client := setupTestRedis(t)
	ctx := context.Background()

	previous := NewRedis(client, DefaultKeyPrefix+"empty-commit", 0)
	writePages(t, previous, []record.Record{{"child": "old"}})
	if err := previous.Commit(ctx); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}

	empty := NewRedis(client, DefaultKeyPrefix+"empty-commit", 0)
	if err := empty.Commit(ctx); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}

	if got := children(t, empty); len(got) != 0 {
		t.Errorf("Expected an empty export, got %v", got)
	}
}

func TestRedis_TTL(t *testing.T) {
	client := setupTestRedis(t)
	s := NewRedis(client, DefaultKeyPrefix+"ttl", time.Hour)
	ctx := context.Background()

	writePages(t, s, []record.Record{{"child": "a"}})
	if err := s.Commit(ctx); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}

	ttl, err := client.TTL(ctx, s.Key()).Result()
	if err != nil {
		t.Fatalf("TTL failed: %v", err)
	}
	if ttl <= 0 || ttl > time.Hour {
		t.Errorf("TTL = %v, want (0, 1h]", ttl)
	}
}

func TestRedis_EmptyWriteIsNoop(t *testing.T) {
	client := setupTestRedis(t)
	s := NewRedis(client, DefaultKeyPrefix+"empty", 0)
	ctx := context.Background()

	if err := s.Write(ctx, nil); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	exists, err := client.Exists(ctx, s.StagingKey()).Result()
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if exists != 0 {
		t.Error("Empty write should not create the staging key")
	}
}
