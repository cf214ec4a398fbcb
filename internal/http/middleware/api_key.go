package middleware

import (
	"net/http"
	"strings"

	"github.com/cadencehq/audit-engine/internal/repository"
	echo "github.com/labstack/echo/v4"
)

// UserIDFromCtx extracts the authenticated user_id set by APIKeyMiddleware.
func UserIDFromCtx(c echo.Context) (int64, bool) {
	v := c.Get("user_id")
	id, ok := v.(int64)
	return id, ok
}

// APIKeyMiddleware authenticates requests using the X-API-Key header.
// On success it stores user_id in context; suspended accounts are blocked.
func APIKeyMiddleware(users repository.UsersRepository) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := strings.TrimSpace(c.Request().Header.Get("X-API-Key"))
			if key == "" {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "missing api key"})
			}
			u, err := users.GetByAPIKey(c.Request().Context(), key)
			if err != nil {
				return c.JSON(http.StatusInternalServerError, map[string]string{"error": "auth error"})
			}
			if u == nil || u.Status != "active" {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid api key"})
			}
			c.Set("user_id", u.ID)
			if u.RateLimitRPS != nil {
				c.Set("user_rps", *u.RateLimitRPS)
			}
			return next(c)
		}
	}
}
