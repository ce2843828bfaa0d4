package middleware

import (
	"net/http"

	"bookbazar/internal/domain/model"
	"bookbazar/internal/usecase"

	"github.com/labstack/echo/v4"
)

var errForbidden = usecase.NewHTTPError(http.StatusForbidden, "forbidden")

// AuthJWTの後ろに置く
func RequireRole(roles ...model.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role := UserRole(c)
			if !role.Valid() {
				return errUnauthorized
			}
			for _, r := range roles {
				if r == role {
					return next(c)
				}
			}
			return errForbidden
		}
	}
}

func AdminOnly() echo.MiddlewareFunc {
	return RequireRole(model.RoleAdmin)
}
