package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/lac-hong-legacy/guessword_api/shared"
)

type TokenVerifier interface {
	Enabled() bool
	ExtractTokenFromHeader(authHeader string) (string, error)
	VerifyToken(token string) (string, error)
}

// RequireOperator guards operator-only routes. When operator auth is not
// configured every request passes.
func RequireOperator(verifier TokenVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !verifier.Enabled() {
			return c.Next()
		}

		token, err := verifier.ExtractTokenFromHeader(c.Get(fiber.HeaderAuthorization))
		if err != nil {
			return shared.NewUnauthorizedError(err, "Unauthorized")
		}

		subject, err := verifier.VerifyToken(token)
		if err != nil {
			return shared.NewUnauthorizedError(err, "Invalid JWT token")
		}

		if subject == "" {
			return shared.NewUnauthorizedError(errors.New("empty subject"), "Invalid operator in token")
		}

		c.Locals(shared.OperatorSubject, subject)
		return c.Next()
	}
}
