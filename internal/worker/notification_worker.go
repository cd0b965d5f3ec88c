package worker

import (
	"context"
	"errors"
	"time"

	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"

	"github.com/squareit/account-service/internal/config"
	"github.com/squareit/account-service/internal/domain"
	"github.com/squareit/account-service/internal/observability"
	"github.com/squareit/account-service/internal/persistence"
	"github.com/squareit/account-service/internal/service"
)

// Queue yields queued notification messages.
type Queue interface {
	Dequeue(ctx context.Context, timeout time.Duration) (domain.NotificationMessage, error)
}

// Sender delivers a single message. Errors wrapped with retry.RetryableError
// are retried; anything else is final.
type Sender interface {
	Send(ctx context.Context, msg domain.NotificationMessage) error
}

// NotificationWorker drains the outbox and hands messages to a Sender.
type NotificationWorker struct {
	queue       Queue
	sender      Sender
	logger      *zap.Logger
	metrics     *observability.Metrics
	pollTimeout time.Duration
	maxAttempts uint64
	baseBackoff time.Duration
}

// NewNotificationWorker creates a worker.
func NewNotificationWorker(queue Queue, sender Sender, logger *zap.Logger, metrics *observability.Metrics, cfg config.NotificationConfig) *NotificationWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	attempts := cfg.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	return &NotificationWorker{
		queue:       queue,
		sender:      sender,
		logger:      logger,
		metrics:     metrics,
		pollTimeout: cfg.PollTimeout(),
		maxAttempts: uint64(attempts),
		baseBackoff: 200 * time.Millisecond,
	}
}

// Run processes messages until ctx is cancelled.
func (w *NotificationWorker) Run(ctx context.Context) {
	w.logger.Info("notification worker started")
	defer w.logger.Info("notification worker stopped")

	for {
		if ctx.Err() != nil {
			return
		}
		msg, err := w.queue.Dequeue(ctx, w.pollTimeout)
		switch {
		case errors.Is(err, persistence.ErrOutboxEmpty):
			continue
		case err != nil:
			if ctx.Err() != nil {
				return
			}
			w.logger.Warn("outbox read failed", zap.Error(err))
			if !sleep(ctx, w.pollTimeout) {
				return
			}
			continue
		}
		w.deliver(ctx, msg)
	}
}

func (w *NotificationWorker) deliver(ctx context.Context, msg domain.NotificationMessage) {
	backoff := retry.WithMaxRetries(w.maxAttempts-1, retry.NewExponential(w.baseBackoff))

	attempt := 0
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		return w.sender.Send(ctx, msg)
	})
	if err != nil {
		w.metrics.RecordNotification(msg.Kind, "undelivered")
		w.logger.Error("notification undelivered",
			zap.String("id", msg.ID),
			zap.String("kind", string(msg.Kind)),
			zap.String("account_id", msg.AccountID),
			zap.Int("attempts", attempt),
			zap.Error(err))
		return
	}
	w.metrics.RecordNotification(msg.Kind, "delivered")
	w.logger.Debug("notification delivered",
		zap.String("id", msg.ID),
		zap.String("kind", string(msg.Kind)),
		zap.Int("attempts", attempt))
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// StartNotificationWorker registers notification handlers and, when a queue
// is available, starts the delivery loop. The returned channel closes once
// the loop has exited.
func StartNotificationWorker(ctx context.Context, notificationService *service.NotificationService, w *NotificationWorker) <-chan struct{} {
	done := make(chan struct{})
	if notificationService != nil {
		notificationService.RegisterHandlers()
	}
	if w == nil || w.queue == nil {
		close(done)
		return done
	}
	go func() {
		defer close(done)
		w.Run(ctx)
	}()
	return done
}
