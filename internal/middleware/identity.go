package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/desk-reservation/internal/booking"
	"github.com/iliyamo/desk-reservation/internal/utils"
)

// Actor returns the authenticated user of the request.  The zero Actor
// is returned on routes without JWTAuth; the booking core rejects it.
func Actor(c echo.Context) booking.Actor {
	name, _ := c.Get(ctxUserName).(string)
	role, _ := c.Get(ctxRole).(string)
	return booking.Actor{UserName: name, Admin: role == utils.RoleAdmin}
}

// userName is the rate-limit identity: the token subject or "anon".
func userName(c echo.Context) string {
	if s, ok := c.Get(ctxUserName).(string); ok && s != "" {
		return s
	}
	return "anon"
}
