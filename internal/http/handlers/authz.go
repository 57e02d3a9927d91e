package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"utok/internal/domain"
	applog "utok/internal/log"
	"utok/internal/services"
)

// RequireUser accepts a bearer token for a live session and puts the user and
// session id into Locals.
func RequireUser(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		h := c.Get(fiber.HeaderAuthorization)
		if !strings.HasPrefix(h, "Bearer ") {
			return problem(c, fiber.StatusUnauthorized, "unauthenticated", "Please sign in.", nil)
		}
		u, sid, err := auth.Authenticate(strings.TrimPrefix(h, "Bearer "))
		if err != nil {
			applog.Security(c, "access.denied.token", nil)
			return fail(c, "auth.token", err)
		}
		c.Locals("user", u)
		c.Locals("uid", u.ID)
		c.Locals("sid", sid)
		return c.Next()
	}
}

func currentUser(c *fiber.Ctx) *domain.User {
	u, _ := c.Locals("user").(*domain.User)
	return u
}

func sessionID(c *fiber.Ctx) string {
	sid, _ := c.Locals("sid").(string)
	return sid
}
