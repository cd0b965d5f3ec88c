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

// UsersHandler exposes the account endpoints.
type UsersHandler struct {
	identity *service.IdentityService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(identity *service.IdentityService) *UsersHandler {
	return &UsersHandler{identity: identity}
}

// Create handles PUT /rest/user/v1/upsertUser.
func (h *UsersHandler) Create(c *fiber.Ctx) error {
	var req dto.UpsertAccountRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if err := req.ValidateCreate(); err != nil {
		return err
	}

	account, err := h.identity.CreateAccount(c.UserContext(), profileFrom(req))
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, dto.NewAccountResponse(account), account.Token.Value)
}

// Update handles PUT /rest/user/v1/upsertUser/:email/:token.
func (h *UsersHandler) Update(c *fiber.Ctx) error {
	email, err := url.PathUnescape(c.Params("email"))
	if err != nil {
		return apperrors.NewValidationError("invalid email", nil)
	}
	var req dto.UpsertAccountRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if err := req.ValidateUpdate(); err != nil {
		return err
	}

	account, token, err := h.identity.UpdateProfile(c.UserContext(), email, auth.PresentedToken(c, ""), profileFrom(req))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, dto.NewAccountResponse(account), token)
}

// Login handles POST /rest/user/v1/login.
func (h *UsersHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if err := req.Validate(); err != nil {
		return err
	}

	token, err := h.identity.Login(c.UserContext(), req.Identifier, req.Password)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, fiber.Map{"token": token}, token)
}

// Get handles GET /rest/user/v1/getUser/:token.
func (h *UsersHandler) Get(c *fiber.Ctx) error {
	account, token, err := h.identity.GetAccount(c.UserContext(), auth.PresentedToken(c, ""))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, dto.NewAccountResponse(account), token)
}

// Count handles GET /rest/user/v1/countUsers/:token.
func (h *UsersHandler) Count(c *fiber.Ctx) error {
	count, token, err := h.identity.CountActive(c.UserContext(), auth.PresentedToken(c, ""))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, fiber.Map{"count": count}, token)
}

// Delete handles DELETE /rest/user/v1/deleteUser/:token.
func (h *UsersHandler) Delete(c *fiber.Ctx) error {
	if err := h.identity.DeleteByToken(c.UserContext(), auth.PresentedToken(c, "")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

func profileFrom(req dto.UpsertAccountRequest) service.Profile {
	return service.Profile{
		Username:  req.Username,
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Password:  req.Password,
		Role:      req.AccountRole(),
	}
}
