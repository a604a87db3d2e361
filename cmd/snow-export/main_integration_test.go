//go:build integration

package main

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/Sternrassler/servicenow-client/internal/testutil"
	"github.com/Sternrassler/servicenow-client/pkg/client"
	"github.com/Sternrassler/servicenow-client/pkg/sink"
	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupTestRedis(t *testing.T) (*redis.Client, string, func()) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections"),
	}

	redisC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("Failed to start Redis container: %v", err)
	}

	host, err := redisC.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}

	port, err := redisC.MappedPort(ctx, "6379")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	addr := host + ":" + port.Port()
	redisClient := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	cleanup := func() {
		redisClient.Close()
		redisC.Terminate(ctx)
	}

	return redisClient, addr, cleanup
}

func TestHardwareCommand_RedisSink(t *testing.T) {
	clearEnv(t)
	redisClient, addr, cleanup := setupTestRedis(t)
	defer cleanup()

	mock := testutil.NewMockServiceNow()
	defer mock.Close()
	mock.SetSequence(client.TablePath(client.TableRelCI), hardwarePages()...)

	ctx := context.Background()
	key := sink.DefaultKeyPrefix + exportHardware

	// Stale entries from a previous export are replaced.
	if err := redisClient.RPush(ctx, key, `{"child":"stale"}`).Err(); err != nil {
		t.Fatalf("Failed to seed Redis: %v", err)
	}

	out, err := runCmd(t, mock, "hardware", "--sink", "redis", "--redis-addr", addr)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if out != "" {
		t.Errorf("Expected no stdout output, got %q", out)
	}

	got, err := sink.NewRedis(redisClient, key, 0).Records(ctx)
	if err != nil {
		t.Fatalf("Failed to read records: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(got))
	}
	if got[0].String("child") != "srv1" || got[1].String("child") != "srv3" {
		t.Errorf("Unexpected records: %v", got)
	}
}

func TestHardwareCommand_RedisSinkKeepsExportOnFailure(t *testing.T) {
	clearEnv(t)
	redisClient, addr, cleanup := setupTestRedis(t)
	defer cleanup()

	mock := testutil.NewMockServiceNow()
	defer mock.Close()
	mock.SetSequence(client.TablePath(client.TableRelCI),
		testutil.NewPageResponse(
			map[string]any{"child": "srv1", "child.hardware_status": "In Use"},
		),
		testutil.NewErrorResponse(http.StatusForbidden, "User Not Authorized"),
	)

	ctx := context.Background()
	key := sink.DefaultKeyPrefix + exportHardware
	if err := redisClient.RPush(ctx, key, `{"child":"good1"}`, `{"child":"good2"}`).Err(); err != nil {
		t.Fatalf("Failed to seed Redis: %v", err)
	}

	_, err := runCmd(t, mock, "hardware", "--sink", "redis", "--redis-addr", addr)
	if !errors.Is(err, client.ErrRequestFailed) {
		t.Fatalf("Expected request failure, got %v", err)
	}

	s := sink.NewRedis(redisClient, key, 0)
	got, err := s.Records(ctx)
	if err != nil {
		t.Fatalf("Failed to read records: %v", err)
	}
	if len(got) != 2 || got[0].String("child") != "good1" || got[1].String("child") != "good2" {
		t.Errorf("Previous export should be intact, got %v", got)
	}

	exists, err := redisClient.Exists(ctx, s.StagingKey()).Result()
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if exists != 0 {
		t.Error("Staged records should be discarded after a failed export")
	}
}
