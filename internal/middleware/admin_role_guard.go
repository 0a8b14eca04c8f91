package middleware

import (
	"net/http"

	"inventory/internal/domain/model"
	"inventory/internal/repository"

	"github.com/labstack/echo/v4"
)

//contextに入っているroleがADMINかどうかを確認します。

func AdminRoleGuard() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role := RoleFrom(c)
			if role == "" {
				return c.JSON(http.StatusUnauthorized, unauthorizedJSON())
			}

			//USERは拒否、ADMINだけ許可
			if role != model.RoleAdmin {
				return c.JSON(http.StatusForbidden, errorJSON("forbidden", "admin only"))
			}

			return next(c)
		}
	}
}

// ルートに付けるチェーン
type Guards struct {
	User  []echo.MiddlewareFunc
	Admin []echo.MiddlewareFunc
}

// AuthJWT → TokenVersionGuard（→ AdminRoleGuard）
func NewGuards(parser TokenParser, userRepo repository.UserRepository) Guards {
	user := []echo.MiddlewareFunc{
		AuthJWT(parser),
		TokenVersionGuard(userRepo),
	}
	admin := append(append([]echo.MiddlewareFunc{}, user...), AdminRoleGuard())
	return Guards{User: user, Admin: admin}
}
