package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/squareit/account-service/internal/config"
	"github.com/squareit/account-service/internal/domain"
	"github.com/squareit/account-service/internal/repository"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type sequenceTokens struct {
	mu sync.Mutex
	n  int
}

func (s *sequenceTokens) Next() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return fmt.Sprintf("00000000-0000-0000-0000-%012d", s.n)
}

type sentNotification struct {
	AccountID string
	Token     string
	Kind      domain.NotificationKind
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentNotification
}

func (r *recordingNotifier) Notify(_ context.Context, account *domain.Account, kind domain.NotificationKind) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, sentNotification{AccountID: account.ID, Token: account.Token.Value, Kind: kind})
}

func (r *recordingNotifier) kinds() []domain.NotificationKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.NotificationKind, 0, len(r.sent))
	for _, n := range r.sent {
		out = append(out, n.Kind)
	}
	return out
}

func (r *recordingNotifier) last() sentNotification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sent[len(r.sent)-1]
}

type fakeHasher struct{}

func (fakeHasher) Hash(plain string) (string, error) { return "hashed:" + plain, nil }

func (fakeHasher) Verify(plain, hashed string) bool {
	return strings.TrimPrefix(hashed, "hashed:") == plain
}

const testPassword = "Secret#123"

type fixture struct {
	store    *repository.MemoryStore
	clock    *fakeClock
	notifier *recordingNotifier
	guard    *SessionGuard
	identity *IdentityService
	records  *RecordService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	cfg := config.AuthConfig{SessionWindowMinutes: 120, ConfirmationWindowMinutes: 24 * 60}
	f := &fixture{
		store:    repository.NewMemoryStore(),
		clock:    &fakeClock{now: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)},
		notifier: &recordingNotifier{},
	}
	tokens := &sequenceTokens{}

	f.guard = NewSessionGuard(cfg, GuardDependencies{
		Store:       f.store,
		Notifier:    f.notifier,
		Clock:       f.clock.Now,
		TokenSource: tokens.Next,
	})
	f.identity = NewIdentityService(cfg, IdentityDependencies{
		Store:       f.store,
		Hasher:      fakeHasher{},
		Guard:       f.guard,
		Notifier:    f.notifier,
		Clock:       f.clock.Now,
		TokenSource: tokens.Next,
	})
	f.records = NewRecordService(config.RecordsConfig{DefaultFetchLimit: 3}, f.store, f.guard)
	return f
}

func profile(email, username string) Profile {
	return Profile{
		Username:  username,
		Email:     email,
		FirstName: "Test",
		Password:  testPassword,
	}
}

func (f *fixture) create(t *testing.T, email, username string) *domain.Account {
	t.Helper()
	account, err := f.identity.CreateAccount(context.Background(), profile(email, username))
	require.NoError(t, err)
	return account
}

// createConfirmed returns an active account and its current token.
func (f *fixture) createConfirmed(t *testing.T, email, username string) (*domain.Account, string) {
	t.Helper()
	account := f.create(t, email, username)
	result, err := f.guard.Confirm(context.Background(), account.Token.Value)
	require.NoError(t, err)
	require.Equal(t, ConfirmationConfirmed, result.Status)
	return result.Account, result.Token
}
