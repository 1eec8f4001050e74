package middleware

import (
	"context"
	"strings"

	"github.com/labstack/echo/v4"

	"vetclinic/internal/infrastructure/auth"
	"vetclinic/pkg/errors"
	"vetclinic/pkg/response"
)

const (
	ContextUserID = "uid"
	ContextRole   = "role"
)

// RoleResolver supplies the directory role when a token does not carry one.
type RoleResolver interface {
	ResolveRole(ctx context.Context, userID string) string
}

type AuthMiddleware struct {
	verifier auth.TokenVerifier
	roles    RoleResolver
}

func NewAuthMiddleware(verifier auth.TokenVerifier, roles RoleResolver) *AuthMiddleware {
	return &AuthMiddleware{
		verifier: verifier,
		roles:    roles,
	}
}

// Authenticate requires a Bearer token and stores the caller's id and role on the context.
func (m *AuthMiddleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authHeader := c.Request().Header.Get("Authorization")
		if authHeader == "" {
			return response.Error(c, errors.Unauthorized("Authorization header is required", nil))
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			return response.Error(c, errors.Unauthorized("Invalid authorization format", nil))
		}

		return m.authenticate(c, strings.TrimSpace(parts[1]), next)
	}
}

// AuthenticateSocket also accepts the token as ?token= since browsers cannot
// set headers on a websocket handshake.
func (m *AuthMiddleware) AuthenticateSocket(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if token := c.QueryParam("token"); token != "" {
			return m.authenticate(c, token, next)
		}
		return m.Authenticate(next)(c)
	}
}

func (m *AuthMiddleware) authenticate(c echo.Context, token string, next echo.HandlerFunc) error {
	principal, err := m.verifier.VerifyToken(c.Request().Context(), token)
	if err != nil {
		return response.Error(c, errors.Unauthorized("Invalid or expired token", err))
	}

	role := principal.Role
	if role == "" && m.roles != nil {
		role = m.roles.ResolveRole(c.Request().Context(), principal.UserID)
	}

	c.Set(ContextUserID, principal.UserID)
	c.Set(ContextRole, role)
	return next(c)
}

func UserID(c echo.Context) string {
	uid, _ := c.Get(ContextUserID).(string)
	return uid
}

func Role(c echo.Context) string {
	role, _ := c.Get(ContextRole).(string)
	return role
}
