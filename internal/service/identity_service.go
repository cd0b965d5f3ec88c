package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/squareit/account-service/internal/auth"
	"github.com/squareit/account-service/internal/config"
	"github.com/squareit/account-service/internal/domain"
	"github.com/squareit/account-service/internal/events"
	"github.com/squareit/account-service/internal/repository"
	apperrors "github.com/squareit/account-service/pkg/util/errorutil"
)

// CredentialHasher hashes and verifies passwords.
type CredentialHasher interface {
	Hash(plain string) (string, error)
	Verify(plain, hashed string) bool
}

// Profile carries the user-editable fields of an account.
type Profile struct {
	Username  string
	Email     string
	FirstName string
	LastName  string
	// Password is optional on update; empty keeps the current hash.
	Password string
	Role     domain.Role
}

// IdentityService coordinates account creation, update, deletion and login.
type IdentityService struct {
	store              repository.Store
	hasher             CredentialHasher
	guard              *SessionGuard
	notifier           Notifier
	dispatcher         events.Dispatcher
	logger             *zap.Logger
	now                func() time.Time
	newToken           func() string
	sessionWindow      time.Duration
	confirmationWindow time.Duration
}

// IdentityDependencies bundles collaborators for the identity service.
type IdentityDependencies struct {
	Store       repository.Store
	Hasher      CredentialHasher
	Guard       *SessionGuard
	Notifier    Notifier
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
	Clock       func() time.Time
	TokenSource func() string
}

// NewIdentityService builds the service.
func NewIdentityService(cfg config.AuthConfig, deps IdentityDependencies) *IdentityService {
	s := &IdentityService{
		store:              deps.Store,
		hasher:             deps.Hasher,
		guard:              deps.Guard,
		notifier:           deps.Notifier,
		dispatcher:         deps.Dispatcher,
		logger:             deps.Logger,
		now:                deps.Clock,
		newToken:           deps.TokenSource,
		sessionWindow:      cfg.SessionWindow(),
		confirmationWindow: cfg.ConfirmationWindow(),
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.newToken == nil {
		s.newToken = auth.NewTokenValue
	}
	if s.notifier == nil {
		s.notifier = nopNotifier{}
	}
	return s
}

// CreateAccount registers a new unconfirmed account and sends its confirmation.
func (s *IdentityService) CreateAccount(ctx context.Context, profile Profile) (*domain.Account, error) {
	hash, err := s.hasher.Hash(profile.Password)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	role := profile.Role
	if role == "" {
		role = domain.RoleUser
	}

	account := &domain.Account{
		Username:     profile.Username,
		Email:        profile.Email,
		FirstName:    profile.FirstName,
		LastName:     profile.LastName,
		PasswordHash: hash,
		Role:         role,
		Token:        domain.NewSessionToken(s.newToken(), s.now(), s.confirmationWindow),
	}

	err = s.store.InTransaction(ctx, func(ctx context.Context) error {
		if err := s.ensureEmailFree(ctx, account.Email); err != nil {
			return err
		}
		if err := s.ensureUsernameFree(ctx, account.Username); err != nil {
			return err
		}
		if err := s.store.Accounts().Create(ctx, account); err != nil {
			return storeError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("account created", zap.String("account_id", account.ID))
	s.publish(ctx, events.EventAccountCreated, account)
	s.notifier.Notify(ctx, account, domain.NotificationNewAccount)
	return account, nil
}

// UpdateAccount changes the profile of the account currently registered under
// currentEmail. The presented token must be live and equal the stored value.
// The token is not rotated; see UpdateProfile.
func (s *IdentityService) UpdateAccount(ctx context.Context, currentEmail, presentedToken string, profile Profile) (*domain.Account, error) {
	if !auth.WellFormed(presentedToken) {
		return nil, apperrors.NewTokenMalformed("token must be a non-null value of 36 characters")
	}

	var hash string
	if profile.Password != "" {
		h, err := s.hasher.Hash(profile.Password)
		if err != nil {
			return nil, apperrors.NewInternalError(err)
		}
		hash = h
	}

	var account *domain.Account
	err := s.store.InTransaction(ctx, func(ctx context.Context) error {
		found, err := s.store.Accounts().FindByEmail(ctx, currentEmail)
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NewAccountNotFound("no account registered with this email")
		}
		if err != nil {
			return storeError(err)
		}
		if !found.Token.Sliding.Live(s.now(), s.sessionWindow) {
			return apperrors.NewSessionExpired("")
		}
		if found.Token.Value != presentedToken {
			return apperrors.NewTokenMismatch("")
		}
		if found.Deleted {
			return apperrors.NewAccountDeleted("")
		}
		if !found.Enabled {
			return apperrors.NewAccountNotActivated("")
		}

		if profile.Email != found.Email {
			if err := s.ensureEmailFree(ctx, profile.Email); err != nil {
				return err
			}
		}
		if profile.Username != found.Username {
			if err := s.ensureUsernameFree(ctx, profile.Username); err != nil {
				return err
			}
		}

		found.Username = profile.Username
		found.Email = profile.Email
		found.FirstName = profile.FirstName
		found.LastName = profile.LastName
		if profile.Role != "" {
			found.Role = profile.Role
		}
		if hash != "" {
			found.PasswordHash = hash
		}
		if err := s.store.Accounts().Save(ctx, found); err != nil {
			return storeError(err)
		}
		account = found
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("account updated", zap.String("account_id", account.ID))
	return account, nil
}

// UpdateProfile applies UpdateAccount and rotates the token in the same
// transaction, returning the account and its new token.
func (s *IdentityService) UpdateProfile(ctx context.Context, currentEmail, presentedToken string, profile Profile) (*domain.Account, string, error) {
	var (
		account  *domain.Account
		newToken string
	)
	err := s.store.InTransaction(ctx, func(ctx context.Context) error {
		updated, err := s.UpdateAccount(ctx, currentEmail, presentedToken, profile)
		if err != nil {
			return err
		}
		if newToken, err = s.guard.Rotate(ctx, updated, domain.RotationExtend); err != nil {
			return err
		}
		account = updated
		return nil
	})
	if err != nil {
		return nil, "", err
	}
	return account, newToken, nil
}

// DeleteAccount tombstones account. Owned records are left in place.
func (s *IdentityService) DeleteAccount(ctx context.Context, account *domain.Account) error {
	if account.Deleted {
		return nil
	}
	account.Deleted = true
	if err := s.store.Accounts().Save(ctx, account); err != nil {
		return storeError(err)
	}
	return nil
}

// DeleteByToken resolves token without requiring activation and deletes its account.
func (s *IdentityService) DeleteByToken(ctx context.Context, token string) error {
	var account *domain.Account
	err := s.store.InTransaction(ctx, func(ctx context.Context) error {
		found, err := s.guard.Resolve(ctx, token, false)
		if err != nil {
			return err
		}
		account = found
		return s.DeleteAccount(ctx, found)
	})
	if err != nil {
		return err
	}

	s.logger.Info("account deleted", zap.String("account_id", account.ID))
	s.publish(ctx, events.EventAccountDeleted, account)
	return nil
}

// Login authenticates by email or username. A still-live token is returned
// unchanged; a stale one is rotated.
func (s *IdentityService) Login(ctx context.Context, identifier, password string) (string, error) {
	var token string
	err := s.store.InTransaction(ctx, func(ctx context.Context) error {
		account, err := s.findByIdentifier(ctx, identifier)
		if err != nil {
			return err
		}
		if account.Deleted {
			return apperrors.NewAccountDeleted("")
		}
		if !account.Enabled {
			return apperrors.NewAccountNotActivated("")
		}
		if !s.hasher.Verify(password, account.PasswordHash) {
			return apperrors.NewCredentialMismatch("")
		}

		if account.Token.Sliding.Live(s.now(), s.sessionWindow) {
			token = account.Token.Value
			return nil
		}
		token, err = s.guard.Rotate(ctx, account, domain.RotationExtend)
		return err
	})
	if err != nil {
		return "", err
	}
	return token, nil
}

// GetAccount returns the active account owning token and its rotated token.
func (s *IdentityService) GetAccount(ctx context.Context, token string) (*domain.Account, string, error) {
	return Guarded(ctx, s.guard, token, true, func(_ context.Context, account *domain.Account) (*domain.Account, error) {
		return account, nil
	})
}

// CountActive returns the number of confirmed, non-deleted accounts.
func (s *IdentityService) CountActive(ctx context.Context, token string) (int64, string, error) {
	return Guarded(ctx, s.guard, token, true, func(ctx context.Context, _ *domain.Account) (int64, error) {
		count, err := s.store.Accounts().CountActive(ctx)
		if err != nil {
			return 0, storeError(err)
		}
		return count, nil
	})
}

func (s *IdentityService) findByIdentifier(ctx context.Context, identifier string) (*domain.Account, error) {
	account, err := s.store.Accounts().FindByEmail(ctx, identifier)
	if errors.Is(err, repository.ErrNotFound) {
		account, err = s.store.Accounts().FindByUsername(ctx, identifier)
	}
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NewAccountNotFound("no account matches this email or username")
	}
	if err != nil {
		return nil, storeError(err)
	}
	return account, nil
}

// Uniqueness is checked against every row, deleted accounts included.
func (s *IdentityService) ensureEmailFree(ctx context.Context, email string) error {
	taken, err := s.store.Accounts().ExistsByEmail(ctx, email)
	if err != nil {
		return storeError(err)
	}
	if taken {
		return apperrors.NewAccountExists(apperrors.FieldEmail, email)
	}
	return nil
}

func (s *IdentityService) ensureUsernameFree(ctx context.Context, username string) error {
	taken, err := s.store.Accounts().ExistsByUsername(ctx, username)
	if err != nil {
		return storeError(err)
	}
	if taken {
		return apperrors.NewAccountExists(apperrors.FieldUsername, username)
	}
	return nil
}

func (s *IdentityService) publish(ctx context.Context, eventType events.EventType, account *domain.Account) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		AccountID: account.ID,
		Timestamp: s.now(),
	})
}
