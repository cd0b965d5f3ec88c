package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/squareit/account-service/internal/domain"
	apperrors "github.com/squareit/account-service/pkg/util/errorutil"
)

type memoryTxKey struct{}

var _ Store = (*MemoryStore)(nil)

// MemoryStore keeps accounts and records in process memory. Transactions are
// serialized on a single mutex and rolled back by restoring a snapshot.
type MemoryStore struct {
	mu           sync.Mutex
	accounts     map[string]*domain.Account
	records      map[int64]*domain.Record
	nextRecordID int64
	now          func() time.Time
}

// NewMemoryStore returns an empty in-memory Store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		accounts: make(map[string]*domain.Account),
		records:  make(map[int64]*domain.Record),
		now:      time.Now,
	}
}

func (s *MemoryStore) Accounts() AccountRepository { return memoryAccounts{s} }

func (s *MemoryStore) Records() RecordRepository { return memoryRecords{s} }

// InTransaction runs fn while holding the store lock. Changes made by fn are
// discarded if it returns an error.
func (s *MemoryStore) InTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.inTx(ctx) {
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	accounts, records, nextID := s.snapshot()
	if err := fn(context.WithValue(ctx, memoryTxKey{}, s)); err != nil {
		s.accounts, s.records, s.nextRecordID = accounts, records, nextID
		return err
	}
	return nil
}

// AccountCount returns the number of stored accounts, deleted ones included.
func (s *MemoryStore) AccountCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.accounts)
}

func (s *MemoryStore) inTx(ctx context.Context) bool {
	owner, ok := ctx.Value(memoryTxKey{}).(*MemoryStore)
	return ok && owner == s
}

// lock acquires the mutex unless ctx already holds it and returns the release func.
func (s *MemoryStore) lock(ctx context.Context) func() {
	if s.inTx(ctx) {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *MemoryStore) snapshot() (map[string]*domain.Account, map[int64]*domain.Record, int64) {
	accounts := make(map[string]*domain.Account, len(s.accounts))
	for id, account := range s.accounts {
		accounts[id] = account.Clone()
	}
	records := make(map[int64]*domain.Record, len(s.records))
	for id, record := range s.records {
		cp := *record
		records[id] = &cp
	}
	return accounts, records, s.nextRecordID
}

type memoryAccounts struct {
	s *MemoryStore
}

func (m memoryAccounts) Create(ctx context.Context, account *domain.Account) error {
	defer m.s.lock(ctx)()

	if err := m.checkUnique(account); err != nil {
		return err
	}
	now := m.s.now()
	account.ID = uuid.NewString()
	account.CreatedAt = now
	account.UpdatedAt = now
	m.s.accounts[account.ID] = account.Clone()
	return nil
}

func (m memoryAccounts) Save(ctx context.Context, account *domain.Account) error {
	defer m.s.lock(ctx)()

	if _, ok := m.s.accounts[account.ID]; !ok {
		return ErrNotFound
	}
	if err := m.checkUnique(account); err != nil {
		return err
	}
	account.UpdatedAt = m.s.now()
	m.s.accounts[account.ID] = account.Clone()
	return nil
}

func (m memoryAccounts) FindByEmail(ctx context.Context, email string) (*domain.Account, error) {
	return m.find(ctx, func(a *domain.Account) bool { return a.Email == email })
}

func (m memoryAccounts) FindByUsername(ctx context.Context, username string) (*domain.Account, error) {
	return m.find(ctx, func(a *domain.Account) bool { return a.Username == username })
}

func (m memoryAccounts) FindByTokenValue(ctx context.Context, token string) (*domain.Account, error) {
	return m.find(ctx, func(a *domain.Account) bool { return a.Token.Value == token })
}

func (m memoryAccounts) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := m.FindByEmail(ctx, email)
	return err == nil, nil
}

func (m memoryAccounts) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	_, err := m.FindByUsername(ctx, username)
	return err == nil, nil
}

func (m memoryAccounts) CountActive(ctx context.Context) (int64, error) {
	defer m.s.lock(ctx)()

	var count int64
	for _, account := range m.s.accounts {
		if account.Enabled && !account.Deleted {
			count++
		}
	}
	return count, nil
}

func (m memoryAccounts) find(ctx context.Context, match func(*domain.Account) bool) (*domain.Account, error) {
	defer m.s.lock(ctx)()

	for _, account := range m.s.accounts {
		if match(account) {
			return account.Clone(), nil
		}
	}
	return nil, ErrNotFound
}

// checkUnique mirrors the unique constraints on email, username and token.
func (m memoryAccounts) checkUnique(account *domain.Account) error {
	for id, other := range m.s.accounts {
		if id == account.ID {
			continue
		}
		switch {
		case other.Email == account.Email:
			return apperrors.NewAccountExists(apperrors.FieldEmail, account.Email)
		case other.Username == account.Username:
			return apperrors.NewAccountExists(apperrors.FieldUsername, account.Username)
		case other.Token.Value == account.Token.Value:
			return apperrors.NewInternalError(nil)
		}
	}
	return nil
}

type memoryRecords struct {
	s *MemoryStore
}

func (m memoryRecords) Create(ctx context.Context, record *domain.Record) error {
	defer m.s.lock(ctx)()

	m.s.nextRecordID++
	record.ID = m.s.nextRecordID
	record.CreatedAt = m.s.now()
	cp := *record
	m.s.records[record.ID] = &cp
	return nil
}

func (m memoryRecords) Get(ctx context.Context, ownerID string, id int64) (*domain.Record, error) {
	defer m.s.lock(ctx)()

	record, ok := m.s.records[id]
	if !ok || record.Deleted || record.OwnerID != ownerID {
		return nil, ErrNotFound
	}
	cp := *record
	return &cp, nil
}

func (m memoryRecords) SoftDelete(ctx context.Context, ownerID string, id int64) error {
	defer m.s.lock(ctx)()

	record, ok := m.s.records[id]
	if !ok || record.Deleted || record.OwnerID != ownerID {
		return ErrNotFound
	}
	record.Deleted = true
	return nil
}

func (m memoryRecords) CountByOwner(ctx context.Context, ownerID string) (int64, error) {
	defer m.s.lock(ctx)()

	var count int64
	for _, record := range m.s.records {
		if record.OwnerID == ownerID && !record.Deleted {
			count++
		}
	}
	return count, nil
}

func (m memoryRecords) ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]domain.Record, error) {
	if offset < 0 || limit <= 0 {
		return nil, ErrInvalidWindow
	}
	defer m.s.lock(ctx)()

	owned := make([]domain.Record, 0)
	for _, record := range m.s.records {
		if record.OwnerID == ownerID && !record.Deleted {
			owned = append(owned, *record)
		}
	}
	sort.Slice(owned, func(i, j int) bool { return owned[i].ID < owned[j].ID })

	if offset >= len(owned) {
		return []domain.Record{}, nil
	}
	end := offset + limit
	if end > len(owned) || end < offset {
		end = len(owned)
	}
	return owned[offset:end], nil
}
