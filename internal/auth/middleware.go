package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

const (
	// SessionTokenHeader carries the rotated token on guarded responses.
	SessionTokenHeader = "X-Session-Token"

	rotatedTokenKey = "rotated_session_token"
)

// PresentedToken returns the session token of the request. The :token route
// param wins, then the token field of the body, then an Authorization bearer.
func PresentedToken(c *fiber.Ctx, bodyToken string) string {
	if token := c.Params("token"); token != "" {
		return token
	}
	if bodyToken != "" {
		return bodyToken
	}
	parts := strings.SplitN(c.Get(fiber.HeaderAuthorization), " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

// SetRotatedToken records the token issued by the current request.
func SetRotatedToken(c *fiber.Ctx, token string) {
	c.Locals(rotatedTokenKey, token)
}

// RotatedToken returns the token recorded by SetRotatedToken.
func RotatedToken(c *fiber.Ctx) (string, bool) {
	token, ok := c.Locals(rotatedTokenKey).(string)
	return token, ok && token != ""
}

// SessionHeader copies the rotated token into the response header once the
// handler chain returns, including on error responses.
func SessionHeader() fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()
		if token, ok := RotatedToken(c); ok {
			c.Set(SessionTokenHeader, token)
		}
		return err
	}
}
