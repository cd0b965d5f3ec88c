package domain

import "time"

// Role enumerates the privilege levels an account may hold.
type Role string

const (
	RoleUser        Role = "USER"
	RoleAdmin       Role = "ADMIN"
	RoleMasterAdmin Role = "MASTER_ADMIN"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAdmin, RoleMasterAdmin:
		return true
	}
	return false
}

// AccountState is derived from the enabled and deleted flags.
type AccountState string

const (
	AccountStateUnconfirmed AccountState = "UNCONFIRMED"
	AccountStateActive      AccountState = "ACTIVE"
	AccountStateDeleted     AccountState = "DELETED"
)

// Account is the domain model for a registered user.
type Account struct {
	ID           string
	Username     string
	Email        string
	FirstName    string
	LastName     string
	PasswordHash string
	Role         Role
	// Enabled becomes true only through confirmation.
	Enabled bool
	// Deleted is a tombstone; a deleted account never transitions again.
	Deleted   bool
	Token     SessionToken
	CreatedAt time.Time
	UpdatedAt time.Time
}

// State returns the lifecycle state of the account.
func (a *Account) State() AccountState {
	switch {
	case a.Deleted:
		return AccountStateDeleted
	case a.Enabled:
		return AccountStateActive
	default:
		return AccountStateUnconfirmed
	}
}

// Clone returns a copy that shares no mutable state with a.
func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}
	cp := *a
	return &cp
}
