package domain

import "time"

// MaxRecordMagnitude is the largest absolute value whose square fits in an int64.
const MaxRecordMagnitude int64 = 3037000499

// Record is a numeric value owned by an account.
type Record struct {
	ID        int64
	OwnerID   string
	Number    int64
	Deleted   bool
	CreatedAt time.Time
}

// Squared returns number².
func (r *Record) Squared() int64 {
	return r.Number * r.Number
}
