package errorutil

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDomainErrorIsMatchesOnCode(t *testing.T) {
	err := NewSessionExpired("token expired for alice")

	assert.True(t, errors.Is(err, ErrSessionExpired))
	assert.False(t, errors.Is(err, ErrAccountNotFound))
	assert.Equal(t, "token expired for alice", err.Error())
}

func TestDomainErrorIsSurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("resolve: %w", NewAccountDeleted(""))

	assert.True(t, errors.Is(err, ErrAccountDeleted))
	assert.Equal(t, CodeAccountDeleted, CodeOf(err))
}

func TestNewAccountExistsVariants(t *testing.T) {
	emailErr := NewAccountExists(FieldEmail, "a@x.com")
	userErr := NewAccountExists(FieldUsername, "alice")

	assert.True(t, errors.Is(emailErr, ErrEmailExists))
	assert.True(t, errors.Is(userErr, ErrUsernameExists))
	assert.True(t, IsAccountExists(emailErr))
	assert.True(t, IsAccountExists(userErr))

	de := ToDomainError(userErr)
	require.NotNil(t, de)
	assert.Equal(t, "username", de.Details["field"])
	assert.Equal(t, http.StatusBadRequest, de.HTTPStatus)
}

func TestToDomainErrorFallsBackToInternal(t *testing.T) {
	de := ToDomainError(errors.New("connection refused"))

	require.NotNil(t, de)
	assert.Equal(t, CodeInternal, de.Code)
	assert.Equal(t, http.StatusInternalServerError, de.HTTPStatus)
	assert.Nil(t, ToDomainError(nil))
}

func TestStatusMapping(t *testing.T) {
	cases := map[error]int{
		ErrTokenMalformed:      http.StatusBadRequest,
		ErrAccountDeleted:      http.StatusNotFound,
		ErrSessionExpired:      http.StatusNotAcceptable,
		ErrCredentialMismatch:  http.StatusNotAcceptable,
		ErrAccountNotActivated: http.StatusBadRequest,
	}
	for err, status := range cases {
		assert.Equal(t, status, ToDomainError(err).HTTPStatus, CodeOf(err))
	}
}
