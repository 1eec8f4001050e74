package middleware

import (
	"github.com/labstack/echo/v4"

	"vetclinic/internal/domain/entity"
	"vetclinic/pkg/errors"
	"vetclinic/pkg/response"
)

// RequireRole lets the request through only when the authenticated caller holds one of roles.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if UserID(c) == "" {
				return response.Error(c, errors.Unauthorized("Authentication required", nil))
			}

			role := Role(c)
			for _, allowed := range roles {
				if role == allowed {
					return next(c)
				}
			}
			return response.Error(c, errors.Forbidden("You do not have permission to perform this action", nil))
		}
	}
}

func AdminOnly(next echo.HandlerFunc) echo.HandlerFunc {
	return RequireRole(entity.RoleAdmin)(next)
}

func StaffOnly(next echo.HandlerFunc) echo.HandlerFunc {
	return RequireRole(entity.RoleVet, entity.RoleAdmin)(next)
}
