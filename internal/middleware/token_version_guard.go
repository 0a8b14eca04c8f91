package middleware

import (
	"net/http"

	"inventory/internal/repository"

	"github.com/labstack/echo/v4"
)

// JWTのtvとDBのtoken_versionの一致するか確認。
func TokenVersionGuard(userRepo repository.UserRepository) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userID, ok := UserIDFrom(c)
			if !ok {
				return c.JSON(http.StatusUnauthorized, unauthorizedJSON())
			}

			//AuthJWTが入れたtoken_version(tv)を取得する
			tv, ok := c.Get(CtxTokenVersionKey).(int)
			if !ok || tv < 0 {
				return c.JSON(http.StatusUnauthorized, unauthorizedJSON())
			}

			//DBから最新のuserを取得する
			user, err := userRepo.FindByID(c.Request().Context(), userID)
			if err != nil || user == nil {
				return c.JSON(http.StatusUnauthorized, unauthorizedJSON())
			}

			//停止ユーザー・token_version不一致は強制ログアウト扱い（401）
			if !user.IsActive || user.TokenVersion != tv {
				return c.JSON(http.StatusUnauthorized, unauthorizedJSON())
			}

			// ロールはDBの最新値を使う（降格を即時反映）
			c.Set(CtxUserRoleKey, user.Role)

			return next(c)
		}
	}
}
