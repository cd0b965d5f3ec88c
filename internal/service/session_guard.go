package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/squareit/account-service/internal/auth"
	"github.com/squareit/account-service/internal/config"
	"github.com/squareit/account-service/internal/domain"
	"github.com/squareit/account-service/internal/observability"
	"github.com/squareit/account-service/internal/repository"
	apperrors "github.com/squareit/account-service/pkg/util/errorutil"
)

// ConfirmationStatus is the outcome of a confirmation attempt.
type ConfirmationStatus string

const (
	ConfirmationConfirmed ConfirmationStatus = "CONFIRMED"
	// ConfirmationPending means the link expired and a new one was sent.
	ConfirmationPending ConfirmationStatus = "PENDING"
)

// ConfirmationResult is returned by Confirm. Token is always the value that is
// valid after the call.
type ConfirmationResult struct {
	Status  ConfirmationStatus
	Token   string
	Account *domain.Account
}

// SessionGuard validates presented session tokens and owns token rotation.
type SessionGuard struct {
	store              repository.Store
	notifier           Notifier
	metrics            *observability.Metrics
	logger             *zap.Logger
	now                func() time.Time
	newToken           func() string
	sessionWindow      time.Duration
	confirmationWindow time.Duration
}

// GuardDependencies bundles collaborators for the session guard.
type GuardDependencies struct {
	Store       repository.Store
	Notifier    Notifier
	Metrics     *observability.Metrics
	Logger      *zap.Logger
	Clock       func() time.Time
	TokenSource func() string
}

// NewSessionGuard builds the guard.
func NewSessionGuard(cfg config.AuthConfig, deps GuardDependencies) *SessionGuard {
	g := &SessionGuard{
		store:              deps.Store,
		notifier:           deps.Notifier,
		metrics:            deps.Metrics,
		logger:             deps.Logger,
		now:                deps.Clock,
		newToken:           deps.TokenSource,
		sessionWindow:      cfg.SessionWindow(),
		confirmationWindow: cfg.ConfirmationWindow(),
	}
	if g.logger == nil {
		g.logger = zap.NewNop()
	}
	if g.now == nil {
		g.now = time.Now
	}
	if g.newToken == nil {
		g.newToken = auth.NewTokenValue
	}
	if g.notifier == nil {
		g.notifier = nopNotifier{}
	}
	return g
}

// Resolve runs the validation chain for token and returns its account:
// well-formedness, lookup, deleted, activation (when requireActive) and
// finally sliding-window liveness.
func (g *SessionGuard) Resolve(ctx context.Context, token string, requireActive bool) (*domain.Account, error) {
	account, err := g.lookup(ctx, token)
	if err != nil {
		return nil, err
	}
	if requireActive && !account.Enabled {
		return nil, g.reject(apperrors.NewAccountNotActivated(""), account)
	}
	if !account.Token.Sliding.Live(g.now(), g.sessionWindow) {
		return nil, g.reject(apperrors.NewSessionExpired(""), account)
	}
	return account, nil
}

// Rotate replaces the account's token value per mode and persists it.
func (g *SessionGuard) Rotate(ctx context.Context, account *domain.Account, mode domain.RotationMode) (string, error) {
	account.Token.Rotate(g.newToken(), mode, g.now(), g.confirmationWindow)
	if err := g.store.Accounts().Save(ctx, account); err != nil {
		return "", storeError(err)
	}
	g.metrics.RecordRotation(mode)
	return account.Token.Value, nil
}

// Guarded resolves token, runs fn and rotates the token with EXTEND, all in one
// transaction. fn's result is returned together with the new token. Any error
// rolls back fn's effects and leaves the presented token valid.
func Guarded[T any](ctx context.Context, g *SessionGuard, token string, requireActive bool, fn func(ctx context.Context, account *domain.Account) (T, error)) (T, string, error) {
	var (
		result   T
		newToken string
	)
	err := g.store.InTransaction(ctx, func(ctx context.Context) error {
		account, err := g.Resolve(ctx, token, requireActive)
		if err != nil {
			return err
		}
		if result, err = fn(ctx, account); err != nil {
			return err
		}
		newToken, err = g.Rotate(ctx, account, domain.RotationExtend)
		return err
	})
	if err != nil {
		var zero T
		return zero, "", err
	}
	return result, newToken, nil
}

// Confirm activates the account owning token. An unconfirmed account past its
// confirmation deadline is not activated; its token is reissued, a new
// confirmation is sent and the reissued token is returned as pending.
func (g *SessionGuard) Confirm(ctx context.Context, token string) (ConfirmationResult, error) {
	var (
		result ConfirmationResult
		notify domain.NotificationKind
	)
	err := g.store.InTransaction(ctx, func(ctx context.Context) error {
		account, err := g.lookup(ctx, token)
		if err != nil {
			return err
		}

		if !account.Enabled && account.Token.Confirmation.Expired(g.now()) {
			newToken, err := g.Rotate(ctx, account, domain.RotationReissue)
			if err != nil {
				return err
			}
			result = ConfirmationResult{Status: ConfirmationPending, Token: newToken, Account: account}
			notify = domain.NotificationResendNewAccount
			return nil
		}

		if !account.Enabled {
			notify = domain.NotificationAccountConfirmed
		}
		account.Enabled = true
		newToken, err := g.Rotate(ctx, account, domain.RotationExtend)
		if err != nil {
			return err
		}
		result = ConfirmationResult{Status: ConfirmationConfirmed, Token: newToken, Account: account}
		return nil
	})
	if err != nil {
		return ConfirmationResult{}, err
	}

	g.logger.Info("confirmation processed",
		zap.String("account_id", result.Account.ID),
		zap.String("status", string(result.Status)))
	if notify != "" {
		g.notifier.Notify(ctx, result.Account, notify)
	}
	return result, nil
}

// SendConfirmation (re)sends the confirmation email for an unconfirmed account
// without rotating its token.
func (g *SessionGuard) SendConfirmation(ctx context.Context, token string) (*domain.Account, error) {
	account, err := g.lookup(ctx, token)
	if err != nil {
		return nil, err
	}
	if account.Enabled {
		return nil, g.reject(apperrors.NewAccountAlreadyActivated(""), account)
	}
	g.notifier.Notify(ctx, account, domain.NotificationNewAccount)
	return account, nil
}

// ResendConfirmation reissues the token of the unconfirmed account registered
// under email and mails the new confirmation link.
func (g *SessionGuard) ResendConfirmation(ctx context.Context, email string) (*domain.Account, error) {
	var account *domain.Account
	err := g.store.InTransaction(ctx, func(ctx context.Context) error {
		found, err := g.store.Accounts().FindByEmail(ctx, email)
		if errors.Is(err, repository.ErrNotFound) {
			return g.reject(apperrors.NewAccountNotFound("no account registered with this email"), nil)
		}
		if err != nil {
			return storeError(err)
		}
		if found.Deleted {
			return g.reject(apperrors.NewAccountDeleted(""), found)
		}
		if found.Enabled {
			return g.reject(apperrors.NewAccountAlreadyActivated(""), found)
		}
		if _, err := g.Rotate(ctx, found, domain.RotationReissue); err != nil {
			return err
		}
		account = found
		return nil
	})
	if err != nil {
		return nil, err
	}

	g.notifier.Notify(ctx, account, domain.NotificationResendNewAccount)
	return account, nil
}

// lookup runs the first three steps of the chain: well-formedness, lookup by
// value and the deleted check.
func (g *SessionGuard) lookup(ctx context.Context, token string) (*domain.Account, error) {
	if !auth.WellFormed(token) {
		return nil, g.reject(apperrors.NewTokenMalformed("token must be a non-null value of 36 characters"), nil)
	}
	account, err := g.store.Accounts().FindByTokenValue(ctx, token)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, g.reject(apperrors.NewAccountNotFound("no account holds this token"), nil)
	}
	if err != nil {
		return nil, storeError(err)
	}
	if account.Deleted {
		return nil, g.reject(apperrors.NewAccountDeleted(""), account)
	}
	return account, nil
}

func (g *SessionGuard) reject(err error, account *domain.Account) error {
	code := apperrors.CodeOf(err)
	g.metrics.RecordRejection(code)
	fields := []zap.Field{zap.String("code", code)}
	if account != nil {
		fields = append(fields, zap.String("account_id", account.ID))
	}
	g.logger.Debug("session rejected", fields...)
	return err
}

// storeError passes domain errors through and maps repository misses.
func storeError(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NewAccountNotFound("")
	}
	var de *apperrors.DomainError
	if errors.As(err, &de) {
		return err
	}
	return apperrors.NewInternalError(err)
}
