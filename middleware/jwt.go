// middleware/jwt.go
package middleware

import (
	"errors"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// UserClaims is the access token payload. The subject is the external user id.
type UserClaims struct {
	Roles []string `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

// JWTUserMiddleware verifies HS256 bearer tokens and sets the same locals as
// UserContextMiddleware. A request without a token continues as a guest.
func JWTUserMiddleware(secret string) fiber.Handler {
	if secret == "" {
		log.Fatal("❌ JWT_SECRET is not set — service cannot verify user tokens")
	}
	key := []byte(secret)
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	return func(c *fiber.Ctx) error {
		c.Locals(LocalUserID, "")
		c.Locals(LocalUserRoles, []string(nil))

		raw := strings.TrimSpace(strings.TrimPrefix(c.Get(fiber.HeaderAuthorization), "Bearer "))
		if raw == "" {
			return c.Next()
		}

		claims := &UserClaims{}
		_, err := parser.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) { return key, nil })
		if err == nil && claims.Subject == "" {
			err = errors.New("token has no subject")
		}
		if err != nil {
			log.Printf("❌ [USER_CTX] rejected bearer token for %s: %v", c.Path(), err)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"error":   "invalid access token",
				"cause":   err.Error(),
			})
		}

		c.Locals(LocalUserID, claims.Subject)
		c.Locals(LocalUserRoles, claims.Roles)
		return c.Next()
	}
}
