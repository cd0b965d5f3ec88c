package service

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/squareit/account-service/internal/domain"
	apperrors "github.com/squareit/account-service/pkg/util/errorutil"
)

func TestRecordLifecycleRotatesEveryCall(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, token := f.createConfirmed(t, "a@x.com", "alice")
	seen := map[string]bool{token: true}

	var ids []int64
	for _, n := range []int64{2, -3, 4, 5} {
		record, next, err := f.records.SaveRecord(ctx, token, n)
		require.NoError(t, err)
		require.False(t, seen[next])
		seen[next] = true
		token = next
		ids = append(ids, record.ID)
	}

	record, token, err := f.records.GetRecord(ctx, token, ids[1])
	require.NoError(t, err)
	assert.Equal(t, int64(9), record.Squared())

	token, err = f.records.DeleteRecord(ctx, token, ids[1])
	require.NoError(t, err)

	count, token, err := f.records.CountRecords(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	page0, token, err := f.records.ListRecords(ctx, token, 0)
	require.NoError(t, err)
	assert.Equal(t, []int64{ids[0], ids[2], ids[3]}, recordIDs(page0))

	page1, _, err := f.records.ListRecords(ctx, token, 1)
	require.NoError(t, err)
	assert.Empty(t, page1)
}

func TestRecordsAreScopedToOwner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, alice := f.createConfirmed(t, "a@x.com", "alice")
	_, bob := f.createConfirmed(t, "b@x.com", "bob")

	record, _, err := f.records.SaveRecord(ctx, alice, 11)
	require.NoError(t, err)

	_, bobNext, err := f.records.GetRecord(ctx, bob, record.ID)
	assert.ErrorIs(t, err, apperrors.ErrRecordNotFound)
	assert.Empty(t, bobNext)

	// A failed call leaves the presented token usable.
	_, err = f.records.DeleteRecord(ctx, bob, record.ID)
	assert.ErrorIs(t, err, apperrors.ErrRecordNotFound)
}

func TestRecordValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, token := f.createConfirmed(t, "a@x.com", "alice")

	_, _, err := f.records.SaveRecord(ctx, token, domain.MaxRecordMagnitude+1)
	assert.Equal(t, apperrors.CodeValidationFailed, apperrors.CodeOf(err))

	_, _, err = f.records.ListRecords(ctx, token, -1)
	assert.Equal(t, apperrors.CodeValidationFailed, apperrors.CodeOf(err))

	record, _, err := f.records.SaveRecord(ctx, token, -domain.MaxRecordMagnitude)
	require.NoError(t, err)
	assert.Equal(t, domain.MaxRecordMagnitude*domain.MaxRecordMagnitude, record.Squared())
}

func TestListRecordsRejectsPageBeyondOffsetRange(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, token := f.createConfirmed(t, "a@x.com", "alice")

	var err error
	assert.NotPanics(t, func() {
		_, _, err = f.records.ListRecords(ctx, token, math.MaxInt/2)
	})
	assert.Equal(t, apperrors.CodeValidationFailed, apperrors.CodeOf(err))

	_, _, err = f.records.ListRecords(ctx, token, math.MaxInt/3+1)
	assert.Equal(t, apperrors.CodeValidationFailed, apperrors.CodeOf(err))

	// The last page whose offset still fits is accepted and simply empty.
	records, _, err := f.records.ListRecords(ctx, token, math.MaxInt/3)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestRecordsRequireActivation(t *testing.T) {
	f := newFixture(t)
	account := f.create(t, "u@x.com", "unconfirmed")

	_, _, err := f.records.SaveRecord(context.Background(), account.Token.Value, 1)
	assert.ErrorIs(t, err, apperrors.ErrAccountNotActivated)
}

func recordIDs(records []domain.Record) []int64 {
	ids := make([]int64, 0, len(records))
	for _, r := range records {
		ids = append(ids, r.ID)
	}
	return ids
}
