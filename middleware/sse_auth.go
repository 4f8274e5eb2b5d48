// middleware/sse_auth.go
package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// QueryTokenMiddleware lets EventSource clients, which cannot set headers, pass
// their bearer token as ?token=. It must run before JWTUserMiddleware.
func QueryTokenMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Get(fiber.HeaderAuthorization) == "" {
			if token := strings.TrimSpace(c.Query("token")); token != "" {
				c.Request().Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
			}
		}
		return c.Next()
	}
}
