package middleware

import (
	"net/http"
	"strings"

	"bookbazar/internal/config"
	"bookbazar/internal/domain/model"
	"bookbazar/internal/usecase"
	auth "bookbazar/internal/usecase/auth_usecase"

	"github.com/labstack/echo/v4"
)

const (
	CtxUserIDKey       = "user_id"       // int64
	CtxUserRoleKey     = "user_role"     // model.Role
	CtxTokenVersionKey = "token_version" // int

	AccessTokenCookie = "accessToken"
)

var errUnauthorized = usecase.NewHTTPError(http.StatusUnauthorized, "unauthorized")

// Bearerヘッダ、なければaccessToken cookieからJWTを検証する
func AuthJWT(cfg config.Config) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := bearerToken(c)
			if raw == "" {
				if ck, err := c.Cookie(AccessTokenCookie); err == nil {
					raw = strings.TrimSpace(ck.Value)
				}
			}
			if raw == "" {
				return errUnauthorized
			}

			id, err := auth.ParseAccessToken(cfg.JWTSecret, raw)
			if err != nil {
				return errUnauthorized
			}

			c.Set(CtxUserIDKey, id.UserID)
			c.Set(CtxUserRoleKey, id.Role)
			c.Set(CtxTokenVersionKey, id.TokenVersion)

			return next(c)
		}
	}
}

// "Bearer xxx" 以外は空
func bearerToken(c echo.Context) string {
	authz := c.Request().Header.Get(echo.HeaderAuthorization)
	parts := strings.SplitN(authz, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func UserID(c echo.Context) (int64, bool) {
	id, ok := c.Get(CtxUserIDKey).(int64)
	return id, ok && id > 0
}

func UserRole(c echo.Context) model.Role {
	role, _ := c.Get(CtxUserRoleKey).(model.Role)
	return role
}
