package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/miapp/shop/internal/service"
)

type BearerAuth struct {
	Auth *service.AuthService
}

func NewBearerAuth(auth *service.AuthService) *BearerAuth {
	return &BearerAuth{Auth: auth}
}

// RequireAuth verifies the `Authorization: Bearer <token>` header and
// puts the verified identity on the echo context. Missing, malformed
// and expired tokens all answer 401.
func (m *BearerAuth) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		header := c.Request().Header.Get(echo.HeaderAuthorization)
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing access token")
		}

		claims, err := m.Auth.Authorize(c.Request().Context(), token)
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
		}

		c.Set("user_id", claims.Subject)
		c.Set("email", claims.Email)
		c.Set("name", claims.Name)

		return next(c)
	}
}
