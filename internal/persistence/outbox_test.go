package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/squareit/account-service/internal/domain"
)

func unreachableRedis(t *testing.T) *redis.Client {
	t.Helper()
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestOutboxEnqueueReportsTransportErrors(t *testing.T) {
	outbox := NewOutbox(unreachableRedis(t), "test:outbox")

	err := outbox.Enqueue(context.Background(), domain.NotificationMessage{Kind: domain.NotificationNewAccount})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "enqueue notification")
}

func TestOutboxDequeueReportsTransportErrors(t *testing.T) {
	outbox := NewOutbox(unreachableRedis(t), "test:outbox")

	_, err := outbox.Dequeue(context.Background(), 10*time.Millisecond)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrOutboxEmpty)
}

func TestOutboxPingReportsUnreachableServer(t *testing.T) {
	outbox := NewOutbox(unreachableRedis(t), "test:outbox")

	err := outbox.Ping(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "outbox test:outbox")
}
