package dto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/squareit/account-service/pkg/util/errorutil"
)

func validCreate() UpsertAccountRequest {
	return UpsertAccountRequest{
		Username:        "alice",
		Email:           "alice@example.com",
		FirstName:       "Alice",
		Password:        "Secr3t!pass",
		ConfirmPassword: "Secr3t!pass",
	}
}

func fieldDetails(t *testing.T, err error) map[string]any {
	t.Helper()
	require.Error(t, err)
	var domainErr *apperrors.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, apperrors.CodeValidationFailed, domainErr.Code)
	return domainErr.Details
}

func TestUpsertAccountRequestValidateCreate(t *testing.T) {
	require.NoError(t, validCreate().ValidateCreate())

	cases := []struct {
		name   string
		mutate func(*UpsertAccountRequest)
		field  string
	}{
		{name: "malformed email", mutate: func(r *UpsertAccountRequest) { r.Email = "alice.example.com" }, field: "email"},
		{name: "short email", mutate: func(r *UpsertAccountRequest) { r.Email = "a@b.c" }, field: "email"},
		{name: "username charset", mutate: func(r *UpsertAccountRequest) { r.Username = "al!ce" }, field: "username"},
		{name: "missing first name", mutate: func(r *UpsertAccountRequest) { r.FirstName = "" }, field: "firstName"},
		{name: "weak password", mutate: func(r *UpsertAccountRequest) { r.Password, r.ConfirmPassword = "password1", "password1" }, field: "password"},
		{name: "confirmation mismatch", mutate: func(r *UpsertAccountRequest) { r.ConfirmPassword = "Other!pass1" }, field: "confirmPassword"},
		{name: "unknown role", mutate: func(r *UpsertAccountRequest) { r.Role = "ROOT" }, field: "role"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := validCreate()
			tc.mutate(&req)
			assert.Contains(t, fieldDetails(t, req.ValidateCreate()), tc.field)
		})
	}
}

func TestUpsertAccountRequestValidateUpdateKeepsPassword(t *testing.T) {
	req := validCreate()
	req.Password, req.ConfirmPassword = "", ""
	assert.NoError(t, req.ValidateUpdate())

	details := fieldDetails(t, req.ValidateCreate())
	assert.Contains(t, details, "password")
}

func TestRecordRequestsValidate(t *testing.T) {
	assert.Contains(t, fieldDetails(t, SaveRecordRequest{}.Validate()), "number")

	zero := int64(0)
	assert.NoError(t, SaveRecordRequest{Number: &zero}.Validate())

	assert.Contains(t, fieldDetails(t, DeleteRecordRequest{NumberID: -1}.Validate()), "numberId")
	assert.NoError(t, DeleteRecordRequest{NumberID: 7}.Validate())
}
