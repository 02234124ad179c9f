//go:build integration

package audit

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
)

func TestIntegration_RedisSinkAppendAndRead(t *testing.T) {
	addr := os.Getenv("AUDIT_REDIS_ADDR")
	if addr == "" {
		t.Skip("audit:redis_integration_test - AUDIT_REDIS_ADDR not set, skipping")
	}
	ctx := context.Background()
	stream := "orchestrator:audit:test:" + uuid.NewString()

	sink, err := NewRedisSink(ctx, RedisConfig{Address: addr, Stream: stream})
	if err != nil {
		t.Fatalf("audit:redis_integration_test - NewRedisSink: %v", err)
	}
	defer func() {
		_ = sink.client.Del(ctx, stream).Err()
		_ = sink.Close()
	}()

	first, second := sampleEntry("one"), sampleEntry("two")
	for _, e := range []Entry{first, second} {
		if err := sink.Append(ctx, e); err != nil {
			t.Fatalf("audit:redis_integration_test - Append: %v", err)
		}
	}

	entries, err := sink.Read(ctx, 10)
	if err != nil {
		t.Fatalf("audit:redis_integration_test - Read: %v", err)
	}
	if len(entries) != 2 || entries[0].ID != first.ID || entries[1].ID != second.ID {
		t.Errorf("audit:redis_integration_test - entries = %+v", entries)
	}

	last, err := sink.Read(ctx, 1)
	if err != nil {
		t.Fatalf("audit:redis_integration_test - Read(1): %v", err)
	}
	if len(last) != 1 || last[0].ID != second.ID {
		t.Errorf("audit:redis_integration_test - Read(1) = %+v, want newest entry", last)
	}
}
