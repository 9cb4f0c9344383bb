package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// HeaderUserID carries the verified user identity. Authentication happens
// upstream; this service trusts the header the gateway sets.
const HeaderUserID = "X-User-ID"

const userIDKey = "user_id"

// RequireUser rejects requests without an identity header and stashes the
// user id in the echo context for handlers.
func RequireUser() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userID := c.Request().Header.Get(HeaderUserID)
			if userID == "" {
				return c.JSON(http.StatusUnauthorized, map[string]interface{}{
					"message": "authentication required",
					"error":   true,
					"success": false,
				})
			}
			c.Set(userIDKey, userID)
			return next(c)
		}
	}
}

// UserID returns the identity RequireUser stored, or "" when the route is
// not behind it.
func UserID(c echo.Context) string {
	userID, _ := c.Get(userIDKey).(string)
	return userID
}
