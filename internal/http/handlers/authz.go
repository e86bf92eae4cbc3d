package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"kioskpos/internal/domain"
	applog "kioskpos/internal/log"
	"kioskpos/internal/services"
)

func ensureSID(c *fiber.Ctx) string {
	sid := c.Cookies("sid")
	if sid == "" {
		sid = uuid.NewString()
		c.Cookie(&fiber.Cookie{
			Name:     "sid",
			Value:    sid,
			Path:     "/",
			HTTPOnly: true,
			SameSite: fiber.CookieSameSiteLaxMode,
			Secure:   false, // enable true behind TLS
		})
	}
	return sid
}

// LoadAdmin attaches the admin session, if any, for templates and logs.
// Sessions without an upstream token never hit the backend.
func LoadAdmin(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if sid := c.Cookies("sid"); sid != "" {
			sess, err := auth.Current(sid)
			if err != nil {
				applog.Error(c, "auth.check.fail", err, nil)
			}
			c.Locals("admin", sess)
		}
		return c.Next()
	}
}

// RequireAdmin lets through only sessions the backend still accepts.
func RequireAdmin(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, ok := c.Locals("admin").(domain.AdminSession)
		if !ok {
			var err error
			if sess, err = auth.Current(c.Cookies("sid")); err != nil {
				applog.Error(c, "auth.check.fail", err, nil)
			}
			c.Locals("admin", sess)
		}
		if !sess.Authenticated {
			applog.Security(c, "access.denied.admin", nil)
			return c.Redirect("/login")
		}
		return c.Next()
	}
}

func adminSession(c *fiber.Ctx) domain.AdminSession {
	sess, _ := c.Locals("admin").(domain.AdminSession)
	return sess
}
