package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/oklog/ulid/v2"
)

// CartSessionKey is the context key the cart handlers read
const CartSessionKey = "cartSessionID"

// CartSessionCookie is the cookie carrying the anonymous cart session ID
const CartSessionCookie = "cart_session"

// cartSessionMaxAge mirrors the cart snapshot TTL in Redis
const cartSessionMaxAge = 7 * 24 * time.Hour

// CartSession assigns an anonymous cart session to every visitor. The
// ID lives in a cookie so carts survive page reloads without requiring
// an account. Session IDs are opaque ULIDs; they carry no identity.
func CartSession() fiber.Handler {
	return func(c *fiber.Ctx) error {
		sessionID := c.Cookies(CartSessionCookie)
		if sessionID == "" {
			sessionID = ulid.Make().String()
			c.Cookie(&fiber.Cookie{
				Name:     CartSessionCookie,
				Value:    sessionID,
				MaxAge:   int(cartSessionMaxAge.Seconds()),
				HTTPOnly: true,
				SameSite: fiber.CookieSameSiteLaxMode,
				Path:     "/",
			})
		}

		c.Locals(CartSessionKey, sessionID)
		return c.Next()
	}
}
