package handlers

import (
	"net/http"
	"net/url"

	"github.com/gofiber/fiber/v2"

	"github.com/squareit/account-service/internal/api/dto"
	"github.com/squareit/account-service/internal/auth"
	"github.com/squareit/account-service/internal/service"
	apperrors "github.com/squareit/account-service/pkg/util/errorutil"
)

// EmailHandler exposes the confirmation email endpoints.
type EmailHandler struct {
	guard *service.SessionGuard
}

// NewEmailHandler constructs handler.
func NewEmailHandler(guard *service.SessionGuard) *EmailHandler {
	return &EmailHandler{guard: guard}
}

// RegistrationEmail handles GET /rest/email/v1/registrationEmail/:token.
func (h *EmailHandler) RegistrationEmail(c *fiber.Ctx) error {
	account, err := h.guard.SendConfirmation(c.UserContext(), auth.PresentedToken(c, ""))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, fiber.Map{"email": account.Email}, account.Token.Value)
}

// ResendRegistrationEmail handles GET /rest/email/v1/resendRegistrationEmail/:email.
func (h *EmailHandler) ResendRegistrationEmail(c *fiber.Ctx) error {
	email, err := url.PathUnescape(c.Params("email"))
	if err != nil {
		return apperrors.NewValidationError("invalid email", nil)
	}
	account, err := h.guard.ResendConfirmation(c.UserContext(), email)
	if err != nil {
		return err
	}
	// The reissued token is delivered by email only.
	return respond(c, http.StatusOK, fiber.Map{"email": account.Email}, "")
}

// ConfirmRegistration handles GET /rest/email/v1/confirmRegistration/:token.
func (h *EmailHandler) ConfirmRegistration(c *fiber.Ctx) error {
	result, err := h.guard.Confirm(c.UserContext(), auth.PresentedToken(c, ""))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, fiber.Map{
		"status":  result.Status,
		"account": dto.NewAccountResponse(result.Account),
	}, result.Token)
}
