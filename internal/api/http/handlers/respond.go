package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/squareit/account-service/internal/auth"
	apperrors "github.com/squareit/account-service/pkg/util/errorutil"
)

// respond writes the standard envelope. A non-empty token is the caller's
// rotated session token and is echoed in the body and the session header.
func respond(c *fiber.Ctx, status int, data any, token string) error {
	body := fiber.Map{"data": data}
	if token != "" {
		auth.SetRotatedToken(c, token)
		body["token"] = token
	}
	return c.Status(status).JSON(body)
}

func parseBody(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	return nil
}
