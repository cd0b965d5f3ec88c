package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/squareit/account-service/internal/config"
	"github.com/squareit/account-service/internal/domain"
	"github.com/squareit/account-service/internal/events"
	"github.com/squareit/account-service/internal/observability"
)

type fakeOutbox struct {
	mu   sync.Mutex
	msgs []domain.NotificationMessage
	err  error
}

func (o *fakeOutbox) Enqueue(_ context.Context, msg domain.NotificationMessage) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.err != nil {
		return o.err
	}
	o.msgs = append(o.msgs, msg)
	return nil
}

func newNotificationService(outbox Enqueuer, metrics *observability.Metrics) *NotificationService {
	cfg := config.NotificationConfig{
		EmailFrom:     "noreply@squareit.test",
		PublicBaseURL: "http://squareit.test/",
	}
	svc := NewNotificationService(events.NewInMemoryDispatcher(nil), outbox, nil, metrics, cfg)
	svc.RegisterHandlers()
	return svc
}

func TestNotifyQueuesMessageWithLinks(t *testing.T) {
	outbox := &fakeOutbox{}
	svc := newNotificationService(outbox, nil)

	account := &domain.Account{
		ID:        "acc-1",
		Email:     "a+b@x.com",
		FirstName: "Alice",
		Token:     domain.SessionToken{Value: "00000000-0000-0000-0000-000000000001"},
	}
	svc.Notify(context.Background(), account, domain.NotificationNewAccount)

	require.Len(t, outbox.msgs, 1)
	msg := outbox.msgs[0]
	assert.NotEmpty(t, msg.ID)
	assert.Equal(t, domain.NotificationNewAccount, msg.Kind)
	assert.Equal(t, "acc-1", msg.AccountID)
	assert.Equal(t, "noreply@squareit.test", msg.From)
	assert.Equal(t, domain.NotificationNewAccount.Subject(), msg.Subject)
	assert.Equal(t, "http://squareit.test/rest/email/v1/confirmRegistration/00000000-0000-0000-0000-000000000001", msg.ConfirmURL)
	assert.Equal(t, "http://squareit.test/rest/email/v1/resendRegistrationEmail/a+b@x.com", msg.ResendURL)
}

func TestNotifyConfirmedHasNoLinks(t *testing.T) {
	outbox := &fakeOutbox{}
	svc := newNotificationService(outbox, nil)

	svc.Notify(context.Background(), &domain.Account{ID: "acc-1", Email: "a@x.com"}, domain.NotificationAccountConfirmed)

	require.Len(t, outbox.msgs, 1)
	assert.Empty(t, outbox.msgs[0].ConfirmURL)
	assert.Empty(t, outbox.msgs[0].ResendURL)
}

func TestNotifySwallowsOutboxFailure(t *testing.T) {
	metrics := observability.NewMetrics(prometheus.NewRegistry())
	svc := newNotificationService(&fakeOutbox{err: errors.New("redis down")}, metrics)

	assert.NotPanics(t, func() {
		svc.Notify(context.Background(), &domain.Account{ID: "acc-1"}, domain.NotificationResendNewAccount)
	})
	assert.Equal(t, 1.0, testutil.ToFloat64(
		metrics.NotificationsTotal.WithLabelValues(string(domain.NotificationResendNewAccount), "failed")))
}

func TestNotifyWithoutOutboxDrops(t *testing.T) {
	metrics := observability.NewMetrics(prometheus.NewRegistry())
	svc := newNotificationService(nil, metrics)

	svc.Notify(context.Background(), &domain.Account{ID: "acc-1"}, domain.NotificationNewAccount)

	assert.Equal(t, 1.0, testutil.ToFloat64(
		metrics.NotificationsTotal.WithLabelValues(string(domain.NotificationNewAccount), "dropped")))
}

func TestIdentityServiceFeedsOutbox(t *testing.T) {
	f := newFixture(t)
	outbox := &fakeOutbox{}
	svc := newNotificationService(outbox, nil)
	f.identity.notifier = svc
	f.guard.notifier = svc

	account := f.create(t, "a@x.com", "alice")
	_, err := f.guard.Confirm(context.Background(), account.Token.Value)
	require.NoError(t, err)

	require.Len(t, outbox.msgs, 2)
	assert.Equal(t, domain.NotificationNewAccount, outbox.msgs[0].Kind)
	assert.Equal(t, account.Token.Value, outbox.msgs[0].Token)
	assert.Equal(t, domain.NotificationAccountConfirmed, outbox.msgs[1].Kind)
}
