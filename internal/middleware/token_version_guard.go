package middleware

import (
	"errors"

	"bookbazar/internal/repository"

	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
)

// JWTのtvとDBのtoken_versionが一致するか確認。
// パスワード変更や強制ログアウトの後は古いアクセストークンを401にする
func TokenVersionGuard(userRepo repository.UserRepository) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userID, ok := UserID(c)
			if !ok {
				return errUnauthorized
			}

			tv, ok := c.Get(CtxTokenVersionKey).(int)
			if !ok || tv < 0 {
				return errUnauthorized
			}

			user, err := userRepo.FindByID(c.Request().Context(), userID)
			if err != nil || user == nil {
				if err != nil && !errors.Is(err, repository.ErrUserNotFound) {
					log.Errorf("token version guard: find user %d: %v", userID, err)
				}
				return errUnauthorized
			}

			if user.TokenVersion != tv {
				return errUnauthorized
			}

			return next(c)
		}
	}
}
