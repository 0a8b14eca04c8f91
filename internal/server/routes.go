package server

import (
	"inventory/internal/handler"
	"inventory/internal/middleware"

	"github.com/labstack/echo/v4"
)

type Handlers struct {
	Auth          *handler.AuthHandler
	Product       *handler.ProductHandler
	AdminProduct  *handler.AdminProductHandler
	Discount      *handler.DiscountHandler
	AdminDiscount *handler.AdminDiscountHandler
	Purchase      *handler.PurchaseHandler
	Return        *handler.ReturnHandler
	AdminUser     *handler.AdminUserHandler
	AuditLog      *handler.AdminAuditLogHandler
	Health        *handler.HealthHandler
}

func RegisterRoutes(e *echo.Echo, h Handlers, g middleware.Guards) {
	//公開
	h.Health.RegisterRoutes(e)
	h.Auth.RegisterRoutes(e)
	h.Product.RegisterRoutes(e)
	h.Discount.RegisterRoutes(e)

	//ログインユーザー / 管理者
	h.AdminProduct.RegisterRoutes(e, g)
	h.AdminDiscount.RegisterRoutes(e, g)
	h.Purchase.RegisterRoutes(e, g)
	h.Return.RegisterRoutes(e, g)
	h.AdminUser.RegisterRoutes(e, g)
	h.AuditLog.RegisterRoutes(e, g)
}
