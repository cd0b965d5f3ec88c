package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/squareit/account-service/internal/domain"
)

// ErrOutboxEmpty is returned by Dequeue when no message arrived before the timeout.
var ErrOutboxEmpty = errors.New("outbox: empty")

// Outbox is a Redis list of pending notification messages. Producers LPUSH and
// the worker BRPOPs, so delivery is FIFO.
type Outbox struct {
	client redis.Cmdable
	key    string
}

// NewOutbox returns an outbox stored under key.
func NewOutbox(client redis.Cmdable, key string) *Outbox {
	return &Outbox{client: client, key: key}
}

// Enqueue appends msg to the outbox.
func (o *Outbox) Enqueue(ctx context.Context, msg domain.NotificationMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}
	if err := o.client.LPush(ctx, o.key, payload).Err(); err != nil {
		return fmt.Errorf("enqueue notification: %w", err)
	}
	return nil
}

// Dequeue blocks up to timeout for the next message.
func (o *Outbox) Dequeue(ctx context.Context, timeout time.Duration) (domain.NotificationMessage, error) {
	var msg domain.NotificationMessage

	res, err := o.client.BRPop(ctx, timeout, o.key).Result()
	if errors.Is(err, redis.Nil) {
		return msg, ErrOutboxEmpty
	}
	if err != nil {
		return msg, fmt.Errorf("dequeue notification: %w", err)
	}
	// BRPOP replies with [key, value].
	if len(res) != 2 {
		return msg, fmt.Errorf("dequeue notification: unexpected reply length %d", len(res))
	}
	if err := json.Unmarshal([]byte(res[1]), &msg); err != nil {
		return msg, fmt.Errorf("decode notification: %w", err)
	}
	return msg, nil
}
