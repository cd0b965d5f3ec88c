package dto

import (
	"errors"
	"regexp"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	"github.com/squareit/account-service/internal/domain"
	apperrors "github.com/squareit/account-service/pkg/util/errorutil"
)

var (
	usernamePattern = regexp.MustCompile(`^[A-Za-z0-9 _]*$`)
	upperPattern    = regexp.MustCompile(`[A-Z]`)
	lowerPattern    = regexp.MustCompile(`[a-z]`)
	digitPattern    = regexp.MustCompile(`[0-9]`)
	specialPattern  = regexp.MustCompile(`[^A-Za-z0-9 ]`)
)

// UpsertAccountRequest payload for account creation and update.
type UpsertAccountRequest struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
	Role            string `json:"role"`
}

// ValidateCreate checks a creation payload; the password is mandatory.
func (r UpsertAccountRequest) ValidateCreate() error {
	return r.validate(true)
}

// ValidateUpdate checks an update payload; an empty password keeps the current one.
func (r UpsertAccountRequest) ValidateUpdate() error {
	return r.validate(false)
}

func (r UpsertAccountRequest) validate(passwordRequired bool) error {
	passwordRules := []validation.Rule{
		validation.RuneLength(8, 30),
		validation.By(passwordStrength),
	}
	if passwordRequired {
		passwordRules = append([]validation.Rule{validation.Required}, passwordRules...)
	}

	return Failure(validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required, validation.RuneLength(2, 30), validation.Match(usernamePattern)),
		validation.Field(&r.Email, validation.Required, validation.RuneLength(6, 50), is.Email),
		validation.Field(&r.FirstName, validation.Required, validation.RuneLength(1, 30)),
		validation.Field(&r.LastName, validation.RuneLength(0, 30)),
		validation.Field(&r.Password, passwordRules...),
		validation.Field(&r.ConfirmPassword, validation.By(stringEquals(r.Password))),
		validation.Field(&r.Role, validation.In(string(domain.RoleUser), string(domain.RoleAdmin), string(domain.RoleMasterAdmin))),
	))
}

// AccountRole returns the requested role, USER when none was given.
func (r UpsertAccountRequest) AccountRole() domain.Role {
	if r.Role == "" {
		return domain.RoleUser
	}
	return domain.Role(r.Role)
}

// LoginRequest payload for login by email or username.
type LoginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

// Validate checks the payload.
func (r LoginRequest) Validate() error {
	return Failure(validation.ValidateStruct(&r,
		validation.Field(&r.Identifier, validation.Required),
		validation.Field(&r.Password, validation.Required),
	))
}

// AccountResponse is the public view of an account.
type AccountResponse struct {
	ID        string      `json:"id"`
	Username  string      `json:"username"`
	Email     string      `json:"email"`
	FirstName string      `json:"firstName"`
	LastName  string      `json:"lastName"`
	Role      domain.Role `json:"role"`
	Enabled   bool        `json:"enabled"`
	CreatedAt time.Time   `json:"createdAt"`
}

// NewAccountResponse maps an account for output. Secrets are never included.
func NewAccountResponse(a *domain.Account) AccountResponse {
	return AccountResponse{
		ID:        a.ID,
		Username:  a.Username,
		Email:     a.Email,
		FirstName: a.FirstName,
		LastName:  a.LastName,
		Role:      a.Role,
		Enabled:   a.Enabled,
		CreatedAt: a.CreatedAt,
	}
}

// Failure converts ozzo validation errors into a VALIDATION_FAILED error
// whose details map each field to its message.
func Failure(err error) error {
	if err == nil {
		return nil
	}
	var fieldErrs validation.Errors
	if errors.As(err, &fieldErrs) {
		details := make(map[string]any, len(fieldErrs))
		for field, fieldErr := range fieldErrs {
			details[field] = fieldErr.Error()
		}
		return apperrors.NewValidationError("invalid payload", details)
	}
	return apperrors.NewInternalError(err)
}

func passwordStrength(value interface{}) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	if !upperPattern.MatchString(s) || !lowerPattern.MatchString(s) || !digitPattern.MatchString(s) || !specialPattern.MatchString(s) {
		return errors.New("must contain an uppercase letter, a lowercase letter, a digit and a special character")
	}
	return nil
}

func stringEquals(str string) validation.RuleFunc {
	return func(value interface{}) error {
		s, _ := value.(string)
		if s != str {
			return errors.New("values must match")
		}
		return nil
	}
}
