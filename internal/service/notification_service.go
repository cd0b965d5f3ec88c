package service

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/squareit/account-service/internal/config"
	"github.com/squareit/account-service/internal/domain"
	"github.com/squareit/account-service/internal/events"
	"github.com/squareit/account-service/internal/observability"
)

// Notifier sends account emails. Implementations must not fail the caller:
// delivery problems are logged and swallowed.
type Notifier interface {
	Notify(ctx context.Context, account *domain.Account, kind domain.NotificationKind)
}

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, *domain.Account, domain.NotificationKind) {}

// Enqueuer accepts messages for asynchronous delivery.
type Enqueuer interface {
	Enqueue(ctx context.Context, msg domain.NotificationMessage) error
}

// NotificationService turns account notifications into events and queues
// them for the delivery worker.
type NotificationService struct {
	dispatcher events.Dispatcher
	outbox     Enqueuer
	logger     *zap.Logger
	metrics    *observability.Metrics
	cfg        config.NotificationConfig
	now        func() time.Time
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, outbox Enqueuer, logger *zap.Logger, metrics *observability.Metrics, cfg config.NotificationConfig) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		dispatcher: dispatcher,
		outbox:     outbox,
		logger:     logger,
		metrics:    metrics,
		cfg:        cfg,
		now:        time.Now,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventConfirmationRequested, n.handleNotification)
	n.dispatcher.Subscribe(events.EventConfirmationReissued, n.handleNotification)
	n.dispatcher.Subscribe(events.EventAccountConfirmed, n.handleNotification)
	n.dispatcher.Subscribe(events.EventAccountCreated, n.handleLifecycle)
	n.dispatcher.Subscribe(events.EventAccountDeleted, n.handleLifecycle)
}

// Notify publishes the notification for account. It never fails.
func (n *NotificationService) Notify(ctx context.Context, account *domain.Account, kind domain.NotificationKind) {
	msg := n.buildMessage(account, kind)
	if n.dispatcher == nil {
		n.logger.Warn("no dispatcher; notification dropped", zap.String("kind", string(kind)))
		n.metrics.RecordNotification(kind, "dropped")
		return
	}
	_ = n.dispatcher.Publish(ctx, events.Event{
		ID:        msg.ID,
		Type:      events.EventForKind(kind),
		AccountID: account.ID,
		Timestamp: n.now(),
		Payload:   events.NotificationPayload{Message: msg},
	})
}

func (n *NotificationService) handleNotification(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.NotificationPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T for %s", event.Payload, event.Type)
	}
	msg := payload.Message

	if n.outbox == nil {
		n.logger.Warn("no outbox configured; notification dropped",
			zap.String("kind", string(msg.Kind)),
			zap.String("account_id", msg.AccountID))
		n.metrics.RecordNotification(msg.Kind, "dropped")
		return nil
	}
	if err := n.outbox.Enqueue(ctx, msg); err != nil {
		n.metrics.RecordNotification(msg.Kind, "failed")
		return err
	}
	n.metrics.RecordNotification(msg.Kind, "queued")
	n.logger.Debug("notification queued",
		zap.String("id", msg.ID),
		zap.String("kind", string(msg.Kind)),
		zap.String("account_id", msg.AccountID))
	return nil
}

func (n *NotificationService) handleLifecycle(_ context.Context, event events.Event) error {
	n.logger.Info(string(event.Type), zap.String("account_id", event.AccountID))
	return nil
}

func (n *NotificationService) buildMessage(account *domain.Account, kind domain.NotificationKind) domain.NotificationMessage {
	base := strings.TrimRight(n.cfg.PublicBaseURL, "/")
	msg := domain.NotificationMessage{
		ID:        uuid.NewString(),
		Kind:      kind,
		AccountID: account.ID,
		Email:     account.Email,
		FirstName: account.FirstName,
		Subject:   kind.Subject(),
		Token:     account.Token.Value,
		From:      n.cfg.EmailFrom,
	}
	if kind != domain.NotificationAccountConfirmed {
		msg.ConfirmURL = base + "/rest/email/v1/confirmRegistration/" + url.PathEscape(account.Token.Value)
		msg.ResendURL = base + "/rest/email/v1/resendRegistrationEmail/" + url.PathEscape(account.Email)
	}
	return msg
}
