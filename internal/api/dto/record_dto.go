package dto

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation"

	"github.com/squareit/account-service/internal/domain"
)

// SaveRecordRequest payload.
type SaveRecordRequest struct {
	Number *int64 `json:"number"`
	Token  string `json:"token"`
}

// Validate checks the payload.
func (r SaveRecordRequest) Validate() error {
	return Failure(validation.ValidateStruct(&r,
		validation.Field(&r.Number, validation.NotNil),
	))
}

// DeleteRecordRequest payload.
type DeleteRecordRequest struct {
	NumberID int64  `json:"numberId"`
	Token    string `json:"token"`
}

// Validate checks the payload.
func (r DeleteRecordRequest) Validate() error {
	return Failure(validation.ValidateStruct(&r,
		validation.Field(&r.NumberID, validation.Required, validation.Min(int64(1))),
	))
}

// RecordResponse is the public view of a record.
type RecordResponse struct {
	ID        int64     `json:"id"`
	Number    int64     `json:"number"`
	Squared   int64     `json:"squared"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewRecordResponse maps a record for output.
func NewRecordResponse(r *domain.Record) RecordResponse {
	return RecordResponse{
		ID:        r.ID,
		Number:    r.Number,
		Squared:   r.Squared(),
		CreatedAt: r.CreatedAt,
	}
}

// NewRecordResponses maps a page of records.
func NewRecordResponses(records []domain.Record) []RecordResponse {
	out := make([]RecordResponse, 0, len(records))
	for i := range records {
		out = append(out, NewRecordResponse(&records[i]))
	}
	return out
}
