package service

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/squareit/account-service/internal/config"
	"github.com/squareit/account-service/internal/domain"
	"github.com/squareit/account-service/internal/repository"
	apperrors "github.com/squareit/account-service/pkg/util/errorutil"
)

// RecordService manages the numeric records of the calling account. Every
// operation goes through the session guard and rotates the caller's token.
type RecordService struct {
	store     repository.Store
	guard     *SessionGuard
	pageLimit int
}

// NewRecordService builds the service.
func NewRecordService(cfg config.RecordsConfig, store repository.Store, guard *SessionGuard) *RecordService {
	limit := cfg.DefaultFetchLimit
	if limit <= 0 {
		limit = 20
	}
	return &RecordService{store: store, guard: guard, pageLimit: limit}
}

// SaveRecord stores number for the caller.
func (s *RecordService) SaveRecord(ctx context.Context, token string, number int64) (*domain.Record, string, error) {
	if number > domain.MaxRecordMagnitude || number < -domain.MaxRecordMagnitude {
		return nil, "", apperrors.NewValidationError(
			fmt.Sprintf("number must be between %d and %d", -domain.MaxRecordMagnitude, domain.MaxRecordMagnitude),
			map[string]any{"number": number})
	}
	return Guarded(ctx, s.guard, token, true, func(ctx context.Context, account *domain.Account) (*domain.Record, error) {
		record := &domain.Record{OwnerID: account.ID, Number: number}
		if err := s.store.Records().Create(ctx, record); err != nil {
			return nil, apperrors.NewInternalError(err)
		}
		return record, nil
	})
}

// GetRecord returns one of the caller's records.
func (s *RecordService) GetRecord(ctx context.Context, token string, id int64) (*domain.Record, string, error) {
	return Guarded(ctx, s.guard, token, true, func(ctx context.Context, account *domain.Account) (*domain.Record, error) {
		record, err := s.store.Records().Get(ctx, account.ID, id)
		if err != nil {
			return nil, recordError(err, id)
		}
		return record, nil
	})
}

// DeleteRecord soft-deletes one of the caller's records.
func (s *RecordService) DeleteRecord(ctx context.Context, token string, id int64) (string, error) {
	_, newToken, err := Guarded(ctx, s.guard, token, true, func(ctx context.Context, account *domain.Account) (struct{}, error) {
		return struct{}{}, recordError(s.store.Records().SoftDelete(ctx, account.ID, id), id)
	})
	return newToken, err
}

// CountRecords returns how many live records the caller owns.
func (s *RecordService) CountRecords(ctx context.Context, token string) (int64, string, error) {
	return Guarded(ctx, s.guard, token, true, func(ctx context.Context, account *domain.Account) (int64, error) {
		count, err := s.store.Records().CountByOwner(ctx, account.ID)
		if err != nil {
			return 0, apperrors.NewInternalError(err)
		}
		return count, nil
	})
}

// ListRecords returns page (zero based) of the caller's records ordered by id.
func (s *RecordService) ListRecords(ctx context.Context, token string, page int) ([]domain.Record, string, error) {
	if page < 0 {
		return nil, "", apperrors.NewValidationError("page must not be negative", map[string]any{"page": page})
	}
	if page > math.MaxInt/s.pageLimit {
		return nil, "", apperrors.NewValidationError("page is out of range", map[string]any{"page": page})
	}
	return Guarded(ctx, s.guard, token, true, func(ctx context.Context, account *domain.Account) ([]domain.Record, error) {
		records, err := s.store.Records().ListByOwner(ctx, account.ID, s.pageLimit, page*s.pageLimit)
		if err != nil {
			return nil, apperrors.NewInternalError(err)
		}
		return records, nil
	})
}

func recordError(err error, id int64) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NewRecordNotFound(id)
	}
	return apperrors.NewInternalError(err)
}
