package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/desk-reservation/internal/utils"
)

// Context keys set by JWTAuth.
const (
	ctxUserName = "user_name"
	ctxRole     = "role"
)

// JWTAuth validates a Bearer access token and stores its subject and
// role in the echo context for Actor and RequireRole.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			claims, err := utils.ParseAccessToken(secret, strings.TrimPrefix(auth, "Bearer "))
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}
			c.Set(ctxUserName, claims.UserName)
			c.Set(ctxRole, claims.Role)
			return next(c)
		}
	}
}
