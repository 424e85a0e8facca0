package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"

	"stakemarket/internal/domain/entity"
	"stakemarket/internal/infrastructure/auth"
	"stakemarket/pkg/errors"
	"stakemarket/pkg/response"
)

const principalKey = "principal"

// AuthMiddleware authenticates REST calls with the same verifier the socket
// handshake uses: bearer token plus a declared principal type.
type AuthMiddleware struct {
	verifier *auth.Verifier
}

func NewAuthMiddleware(verifier *auth.Verifier) *AuthMiddleware {
	return &AuthMiddleware{verifier: verifier}
}

// Authenticate resolves the caller's principal and stores it on the context.
func (m *AuthMiddleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token := bearerToken(c)
		role := entity.PrincipalKind(c.Request().Header.Get("X-Principal-Type"))

		principal, err := m.verifier.Verify(c.Request().Context(), token, role)
		if err != nil {
			return response.Error(c, err)
		}

		c.Set(principalKey, principal)
		return next(c)
	}
}

// RequireAdmin guards admin-only routes; it must run after Authenticate.
func (m *AuthMiddleware) RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		principal := PrincipalFrom(c)
		if principal.Kind != entity.PrincipalAdmin {
			return response.Error(c, errors.Forbidden("Admin access required", nil))
		}
		return next(c)
	}
}

// PrincipalFrom returns the authenticated principal set by Authenticate.
func PrincipalFrom(c echo.Context) entity.Principal {
	principal, _ := c.Get(principalKey).(entity.Principal)
	return principal
}

func bearerToken(c echo.Context) string {
	header := c.Request().Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return c.QueryParam("token")
}
