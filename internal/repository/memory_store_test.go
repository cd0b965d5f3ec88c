package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/squareit/account-service/internal/domain"
	apperrors "github.com/squareit/account-service/pkg/util/errorutil"
)

func TestMemoryStoreEnforcesUniqueness(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Accounts().Create(ctx, newAccount(time.Now())))

	dupEmail := newAccount(time.Now())
	dupEmail.Username = "bob"
	dupEmail.Token.Value = "11111111-1111-1111-1111-111111111111"
	assert.ErrorIs(t, store.Accounts().Create(ctx, dupEmail), apperrors.ErrEmailExists)

	dupUser := newAccount(time.Now())
	dupUser.Email = "b@x.com"
	dupUser.Token.Value = "22222222-2222-2222-2222-222222222222"
	assert.ErrorIs(t, store.Accounts().Create(ctx, dupUser), apperrors.ErrUsernameExists)

	assert.Equal(t, 1, store.AccountCount())
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	account := newAccount(time.Now())
	require.NoError(t, store.Accounts().Create(ctx, account))

	found, err := store.Accounts().FindByTokenValue(ctx, testToken)
	require.NoError(t, err)
	found.Enabled = true

	again, err := store.Accounts().FindByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.False(t, again.Enabled)
}

func TestMemoryStoreRollsBack(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.Accounts().Create(ctx, newAccount(time.Now())))

	boom := errors.New("boom")
	err := store.InTransaction(ctx, func(ctx context.Context) error {
		account, err := store.Accounts().FindByEmail(ctx, "a@x.com")
		require.NoError(t, err)
		account.Deleted = true
		require.NoError(t, store.Accounts().Save(ctx, account))
		require.NoError(t, store.Records().Create(ctx, &domain.Record{OwnerID: account.ID, Number: 3}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	account, err := store.Accounts().FindByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.False(t, account.Deleted)
	count, err := store.Records().CountByOwner(ctx, account.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestMemoryRecordsScopedToOwner(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	records := store.Records()

	for i := int64(1); i <= 5; i++ {
		require.NoError(t, records.Create(ctx, &domain.Record{OwnerID: "owner", Number: i}))
	}
	require.NoError(t, records.Create(ctx, &domain.Record{OwnerID: "other", Number: 99}))

	_, err := records.Get(ctx, "owner", 6)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, records.SoftDelete(ctx, "owner", 2))
	assert.ErrorIs(t, records.SoftDelete(ctx, "owner", 2), ErrNotFound)

	page, err := records.ListByOwner(ctx, "owner", 2, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, int64(4), page[0].ID)
	assert.Equal(t, int64(5), page[1].ID)

	empty, err := records.ListByOwner(ctx, "owner", 2, 10)
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = records.ListByOwner(ctx, "owner", 2, -4)
	assert.ErrorIs(t, err, ErrInvalidWindow)
	_, err = records.ListByOwner(ctx, "owner", 0, 0)
	assert.ErrorIs(t, err, ErrInvalidWindow)
}
