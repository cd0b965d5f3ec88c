package errorutil

import (
	"errors"
	"fmt"
	"net/http"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is matches on Code so callers can compare against the sentinels below.
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

const (
	CodeTokenMalformed          = "TOKEN_MALFORMED"
	CodeAccountNotFound         = "ACCOUNT_NOT_FOUND"
	CodeAccountDeleted          = "ACCOUNT_DELETED"
	CodeAccountNotActivated     = "ACCOUNT_NOT_ACTIVATED"
	CodeSessionExpired          = "SESSION_EXPIRED"
	CodeTokenMismatch           = "TOKEN_MISMATCH"
	CodeEmailExists             = "EMAIL_ALREADY_EXISTS"
	CodeUsernameExists          = "USERNAME_ALREADY_EXISTS"
	CodeCredentialMismatch      = "CREDENTIAL_MISMATCH"
	CodeAccountAlreadyActivated = "ACCOUNT_ALREADY_ACTIVATED"
	CodeRecordNotFound          = "RECORD_NOT_FOUND"
	CodeValidationFailed        = "VALIDATION_FAILED"
	CodeInternal                = "INTERNAL_ERROR"
)

// Sentinels for errors.Is comparisons. Use the constructors to return them.
var (
	ErrTokenMalformed          = NewDomainError(CodeTokenMalformed, "token is malformed", http.StatusBadRequest, nil)
	ErrAccountNotFound         = NewDomainError(CodeAccountNotFound, "account not found", http.StatusBadRequest, nil)
	ErrAccountDeleted          = NewDomainError(CodeAccountDeleted, "account is deleted", http.StatusNotFound, nil)
	ErrAccountNotActivated     = NewDomainError(CodeAccountNotActivated, "account is not activated", http.StatusBadRequest, nil)
	ErrSessionExpired          = NewDomainError(CodeSessionExpired, "session expired", http.StatusNotAcceptable, nil)
	ErrTokenMismatch           = NewDomainError(CodeTokenMismatch, "token does not match", http.StatusBadRequest, nil)
	ErrEmailExists             = NewDomainError(CodeEmailExists, "email already exists", http.StatusBadRequest, nil)
	ErrUsernameExists          = NewDomainError(CodeUsernameExists, "username already exists", http.StatusBadRequest, nil)
	ErrCredentialMismatch      = NewDomainError(CodeCredentialMismatch, "password does not match", http.StatusNotAcceptable, nil)
	ErrAccountAlreadyActivated = NewDomainError(CodeAccountAlreadyActivated, "account is already activated", http.StatusBadRequest, nil)
	ErrRecordNotFound          = NewDomainError(CodeRecordNotFound, "record not found", http.StatusNotFound, nil)
)

func clone(sentinel *DomainError, message string, details map[string]any) error {
	if message == "" {
		message = sentinel.Message
	}
	return NewDomainError(sentinel.Code, message, sentinel.HTTPStatus, details)
}

func NewTokenMalformed(message string) error {
	return clone(ErrTokenMalformed, message, nil)
}

func NewAccountNotFound(message string) error {
	return clone(ErrAccountNotFound, message, nil)
}

func NewAccountDeleted(message string) error {
	return clone(ErrAccountDeleted, message, nil)
}

func NewAccountNotActivated(message string) error {
	return clone(ErrAccountNotActivated, message, nil)
}

func NewSessionExpired(message string) error {
	return clone(ErrSessionExpired, message, nil)
}

func NewTokenMismatch(message string) error {
	return clone(ErrTokenMismatch, message, nil)
}

func NewCredentialMismatch(message string) error {
	return clone(ErrCredentialMismatch, message, nil)
}

func NewAccountAlreadyActivated(message string) error {
	return clone(ErrAccountAlreadyActivated, message, nil)
}

func NewRecordNotFound(id int64) error {
	return clone(ErrRecordNotFound, fmt.Sprintf("record %d not found", id), map[string]any{"id": id})
}

// AccountExistsField names the unique field that collided.
type AccountExistsField string

const (
	FieldEmail    AccountExistsField = "email"
	FieldUsername AccountExistsField = "username"
)

// NewAccountExists reports a uniqueness collision on field.
func NewAccountExists(field AccountExistsField, value string) error {
	details := map[string]any{"field": string(field)}
	if field == FieldUsername {
		return clone(ErrUsernameExists, fmt.Sprintf("username %q already exists", value), details)
	}
	return clone(ErrEmailExists, fmt.Sprintf("email %q already exists", value), details)
}

// IsAccountExists reports whether err is either AccountExists variant.
func IsAccountExists(err error) bool {
	return errors.Is(err, ErrEmailExists) || errors.Is(err, ErrUsernameExists)
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError(CodeValidationFailed, message, http.StatusBadRequest, details)
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// CodeOf returns the taxonomy code of err, or INTERNAL_ERROR.
func CodeOf(err error) string {
	if de := ToDomainError(err); de != nil {
		return de.Code
	}
	return ""
}
