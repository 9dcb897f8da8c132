package middleware

import (
	"net/http"
	"strings"

	dto "github.com/marchingbytes/identity-service/app/dto/http"
	"github.com/marchingbytes/identity-service/app/service"

	"github.com/labstack/echo/v4"
)

const (
	// ContextKeyUserID holds the authenticated user's id.
	ContextKeyUserID = "user_id"
	// ContextKeyClaims holds the *service.Claims decoded from the access
	// token. Authorization checks read this snapshot and never go back to
	// the database.
	ContextKeyClaims = "identity_claims"
)

type accessTokenValidator interface {
	ValidateAccessToken(tokenString string) (*service.Claims, error)
}

type AuthMiddleware struct {
	tokens accessTokenValidator
}

func NewAuthMiddleware(tokens accessTokenValidator) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

// RequireAuth rejects requests without a valid bearer access token and
// stores the decoded claims on the request context.
func (m *AuthMiddleware) RequireAuth() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			if header == "" {
				return c.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "missing authorization header"})
			}

			parts := strings.SplitN(header, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				return c.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "malformed authorization header"})
			}

			claims, err := m.tokens.ValidateAccessToken(parts[1])
			if err != nil {
				return c.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "invalid or expired token"})
			}

			c.Set(ContextKeyUserID, claims.UserID)
			c.Set(ContextKeyClaims, claims)
			return next(c)
		}
	}
}

func (m *AuthMiddleware) RequireAdmin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims := ClaimsFromContext(c)
			if claims == nil || !claims.IsAdmin {
				return c.JSON(http.StatusForbidden, dto.ErrorResponse{Error: "admin only endpoint"})
			}
			return next(c)
		}
	}
}

func (m *AuthMiddleware) RequireSuperAdmin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims := ClaimsFromContext(c)
			if claims == nil || !claims.IsSuperAdmin {
				return c.JSON(http.StatusForbidden, dto.ErrorResponse{Error: "super-admin only endpoint"})
			}
			return next(c)
		}
	}
}

// ClaimsFromContext returns the claims stored by RequireAuth, or nil when
// the request was not authenticated.
func ClaimsFromContext(c echo.Context) *service.Claims {
	claims, _ := c.Get(ContextKeyClaims).(*service.Claims)
	return claims
}

// UserIDFromContext returns the authenticated user's id, or 0 when the
// request was not authenticated.
func UserIDFromContext(c echo.Context) uint64 {
	id, _ := c.Get(ContextKeyUserID).(uint64)
	return id
}
