package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const sessionLocalKey = "session_id"

// SessionConfig configures the session cookie.
type SessionConfig struct {
	CookieName string
	TTL        time.Duration
	Secure     bool
}

// Session assigns every browser a session id cookie and exposes it through SessionID.
// Ids that are not valid UUIDs are replaced.
func Session(cfg SessionConfig) fiber.Handler {
	if cfg.CookieName == "" {
		cfg.CookieName = "ytdash_session"
	}

	return func(c *fiber.Ctx) error {
		id := c.Cookies(cfg.CookieName)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}

		// refresh on every request so the cookie slides with the stored state
		c.Cookie(&fiber.Cookie{
			Name:     cfg.CookieName,
			Value:    id,
			Path:     "/",
			MaxAge:   int(cfg.TTL.Seconds()),
			HTTPOnly: true,
			Secure:   cfg.Secure,
			SameSite: fiber.CookieSameSiteLaxMode,
		})
		c.Locals(sessionLocalKey, id)

		return c.Next()
	}
}

// SessionID returns the session id assigned by Session, or "" outside it.
func SessionID(c *fiber.Ctx) string {
	id, _ := c.Locals(sessionLocalKey).(string)
	return id
}
